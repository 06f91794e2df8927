package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/amirphl/vega-maker/internal/config"
	"github.com/amirphl/vega-maker/internal/db"
	"github.com/amirphl/vega-maker/internal/db/conf"
	"github.com/amirphl/vega-maker/internal/exchange"
	"github.com/amirphl/vega-maker/internal/notifier"
	"github.com/amirphl/vega-maker/internal/strategy"
	"github.com/amirphl/vega-maker/internal/utils"
	"github.com/amirphl/vega-maker/internal/wallet"
	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	logger, err := utils.NewLogger(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	node := exchange.NewVegaDataNode(exchange.NewClient(cfg.NodeURL, cfg.HTTPTimeout))

	if cfg.Mode != config.ModeQuote {
		if err := inspect(ctx, cfg, node, sugar); err != nil {
			sugar.Errorw("query_failed", "mode", cfg.Mode, "err", err)
			os.Exit(1)
		}
		return
	}

	if err := runQuoter(ctx, cfg, node, sugar); err != nil {
		sugar.Errorw("quoter_failed", "market", cfg.MarketID, "err", err)
		notify(cfg, sugar, fmt.Sprintf("vega-maker stopped quoting %s: %v", cfg.MarketID, err))
		logger.Sync()
		os.Exit(1)
	}
}

func runQuoter(ctx context.Context, cfg config.Config, node *exchange.VegaDataNode, sugar *zap.SugaredLogger) error {
	var submitter wallet.Submitter
	if cfg.DryRun {
		sugar.Info("dry run enabled, transactions will only be logged")
		submitter = wallet.NewDryRun(sugar)
	} else {
		submitter = wallet.New(wallet.Session{
			URL:       cfg.WalletURL,
			Token:     cfg.WalletToken,
			PublicKey: cfg.PartyID,
		}, cfg.HTTPTimeout)
	}

	quoter, err := strategy.NewQuoter(ctx, strategy.Config{
		MarketID:       cfg.MarketID,
		PartyID:        cfg.PartyID,
		MaxAbsPosition: cfg.MaxAbsPosition,
		Interval:       cfg.Interval,
	}, node, submitter, sugar)
	if err != nil {
		return err
	}

	if cfg.DBConnStr != "" {
		store, err := openJournal(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.GetDB().Close()
		quoter.Journal = store
		sugar.Info("cycle journal enabled")
	}

	return quoter.Run(ctx)
}

func openJournal(ctx context.Context, cfg config.Config) (db.Storage, error) {
	dbConfig, err := conf.NewConfig(cfg.DBConnStr, cfg.DBMaxOpen, cfg.DBMaxIdle)
	if err != nil {
		return nil, fmt.Errorf("journal db: %w", err)
	}
	store, err := db.New(*dbConfig)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.GetDB().Close()
		return nil, err
	}
	return store, nil
}

// inspect runs one of the read-only query modes and logs every record.
func inspect(ctx context.Context, cfg config.Config, node exchange.DataNode, sugar *zap.SugaredLogger) error {
	switch cfg.Mode {
	case config.ModeMarkets:
		markets, err := node.Markets(ctx)
		if err != nil {
			return err
		}
		for _, m := range markets {
			sugar.Infow("market",
				"id", m.ID,
				"code", m.TradableInstrument.Instrument.Code,
				"state", m.State,
				"decimal_places", m.DecimalPlaces,
				"position_decimal_places", m.PositionDecimalPlaces)
		}
	case config.ModeAssets:
		assets, err := node.Assets(ctx)
		if err != nil {
			return err
		}
		for _, a := range assets {
			sugar.Infow("asset", "id", a.ID, "symbol", a.Details.Symbol, "name", a.Details.Name, "decimals", a.Details.Decimals, "status", a.Status)
		}
	case config.ModeAccounts:
		accounts, err := node.Accounts(ctx, cfg.PartyID)
		if err != nil {
			return err
		}
		for _, a := range accounts {
			sugar.Infow("account", "asset", a.Asset, "type", a.Type, "market", a.MarketID, "balance", a.Balance)
		}
	case config.ModeOrders:
		orders, err := node.OpenOrders(ctx, cfg.PartyID)
		if err != nil {
			return err
		}
		for _, o := range orders {
			sugar.Infow("order", "id", o.ID, "market", o.MarketID, "side", o.Side, "price", o.Price, "size", o.Size, "remaining", o.Remaining, "status", o.Status)
		}
	case config.ModePositions:
		positions, err := node.Positions(ctx, cfg.PartyID, cfg.MarketID)
		if err != nil {
			return err
		}
		for _, p := range positions {
			sugar.Infow("position", "market", p.MarketID, "open_volume", p.OpenVolume, "average_entry_price", p.AverageEntryPrice, "unrealised_pnl", p.UnrealisedPnl)
		}
	default:
		return fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	return nil
}

func notify(cfg config.Config, sugar *zap.SugaredLogger, msg string) {
	var n notifier.Notifier = notifier.Nop{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		n = notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, cfg.NotificationRetries, cfg.NotificationDelay)
	}
	if err := n.SendWithRetry(context.Background(), msg); err != nil {
		sugar.Warnw("notification_failed", "err", err)
	}
}
