// Package strategy holds the quoting engine: each cycle it reads the top of
// book and the party's position, cancels everything resting on the market and
// quotes one unit on each side the position limit allows.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/vega-maker/internal/decimals"
	"github.com/amirphl/vega-maker/internal/journal"
	"github.com/amirphl/vega-maker/internal/market"
	"github.com/amirphl/vega-maker/internal/order"
	"github.com/amirphl/vega-maker/internal/utils"
	"github.com/amirphl/vega-maker/internal/wallet"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteSize is the size of every quote, on either side.
var QuoteSize = decimal.NewFromInt(1)

type Config struct {
	MarketID       string
	PartyID        string
	MaxAbsPosition decimal.Decimal // strictly positive
	Interval       time.Duration
}

func (c Config) Validate() error {
	if c.MarketID == "" {
		return errors.New("strategy: market id is required")
	}
	if !c.MaxAbsPosition.IsPositive() {
		return fmt.Errorf("strategy: max abs position must be positive, got %s", c.MaxAbsPosition)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("strategy: interval must be positive, got %s", c.Interval)
	}
	return nil
}

// Quoter runs the cancel-and-requote loop for a single market. The market
// precision is captured once at construction; nothing else survives a cycle.
type Quoter struct {
	cfg        Config
	precision  market.Precision
	source     market.SnapshotSource
	submitter  wallet.Submitter
	serializer *order.Serializer
	logger     *zap.SugaredLogger

	// Journal is optional; when set every submitted cycle is recorded.
	Journal journal.Journaler
	Clock   utils.Clock
}

// NewQuoter fetches the market precision and builds a Quoter around it.
func NewQuoter(ctx context.Context, cfg Config, source market.SnapshotSource, submitter wallet.Submitter, logger *zap.SugaredLogger) (*Quoter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	precision, err := source.MarketPrecision(ctx, cfg.MarketID)
	if err != nil {
		return nil, fmt.Errorf("fetch market precision: %w", err)
	}
	logger.Infow("market_precision",
		"market", cfg.MarketID,
		"price_decimals", precision.PriceDecimals,
		"position_decimals", precision.PositionDecimals)

	return &Quoter{
		cfg:        cfg,
		precision:  precision,
		source:     source,
		submitter:  submitter,
		serializer: order.NewSerializer(precision),
		logger:     logger,
		Clock:      utils.RealClock{},
	}, nil
}

func (q *Quoter) Precision() market.Precision {
	return q.precision
}

// Snapshot reads the best prices and the party's position, converted to
// display decimals. A missing position record means a flat position.
func (q *Quoter) Snapshot(ctx context.Context) (market.Snapshot, error) {
	prices, err := q.source.BestPrices(ctx, q.cfg.MarketID)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("fetch best prices: %w", err)
	}
	pos, err := q.source.Position(ctx, q.cfg.PartyID, q.cfg.MarketID)
	if err != nil {
		return market.Snapshot{}, fmt.Errorf("fetch position: %w", err)
	}

	snap := market.Snapshot{
		BestBid:   decimals.ToDisplay(q.precision.PriceDecimals, prices.BestBid),
		BestOffer: decimals.ToDisplay(q.precision.PriceDecimals, prices.BestOffer),
		Position:  decimal.Zero,
	}
	if pos != nil {
		snap.Position = decimals.ToDisplay(q.precision.PositionDecimals, pos.OpenVolume)
	}
	return snap, nil
}

// ComputeQuote builds the batch for one cycle. It always carries a single
// blanket cancellation, a buy at the best bid while the position is below the
// limit and a sell at the best offer while it is above the negative limit.
// Amendments are never produced.
func (q *Quoter) ComputeQuote(snap market.Snapshot) order.Batch {
	var submissions []order.Submission
	if snap.Position.LessThan(q.cfg.MaxAbsPosition) {
		submissions = append(submissions, order.NewLimitGTC(q.cfg.MarketID, order.SideBuy, QuoteSize, snap.BestBid))
	}
	if snap.Position.GreaterThan(q.cfg.MaxAbsPosition.Neg()) {
		submissions = append(submissions, order.NewLimitGTC(q.cfg.MarketID, order.SideSell, QuoteSize, snap.BestOffer))
	}

	return order.Batch{
		Submissions:   submissions,
		Cancellations: []order.Cancellation{order.CancelAll(q.cfg.MarketID)},
	}
}

// Tick runs one full cycle: snapshot, compute, serialize, submit. The wallet's
// acknowledgement is not inspected beyond its transport error.
func (q *Quoter) Tick(ctx context.Context) error {
	snap, err := q.Snapshot(ctx)
	if err != nil {
		return err
	}

	batch := q.ComputeQuote(snap)
	tx := q.serializer.Batch(batch)
	if err := q.submitter.Submit(ctx, tx); err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}

	q.logger.Infow("quote_submitted",
		"market", q.cfg.MarketID,
		"best_bid", snap.BestBid.String(),
		"best_offer", snap.BestOffer.String(),
		"position", snap.Position.String(),
		"submissions", len(batch.Submissions),
		"cancellations", len(batch.Cancellations))

	q.record(ctx, snap, tx)
	return nil
}

func (q *Quoter) record(ctx context.Context, snap market.Snapshot, tx order.Transaction) {
	if q.Journal == nil {
		return
	}
	err := q.Journal.LogEvent(ctx, journal.Event{
		Time:        q.Clock.Now().UTC(),
		Type:        journal.EventQuote,
		MarketID:    q.cfg.MarketID,
		Description: "batch submitted",
		Data: map[string]any{
			"best_bid":    snap.BestBid.String(),
			"best_offer":  snap.BestOffer.String(),
			"position":    snap.Position.String(),
			"transaction": tx,
		},
	})
	if err != nil {
		q.logger.Warnw("journal_write_failed", "err", err)
	}
}

// Run waits one interval, runs a cycle, and repeats until ctx is cancelled or
// a cycle fails. A failed cycle ends the loop with its error; there is no
// retry. Cancellation returns nil.
func (q *Quoter) Run(ctx context.Context) error {
	q.logger.Infow("quoter_started", "market", q.cfg.MarketID, "interval", q.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			q.logger.Infow("quoter_stopped", "market", q.cfg.MarketID)
			return nil
		case <-q.Clock.After(q.cfg.Interval):
		}
		if ctx.Err() != nil {
			q.logger.Infow("quoter_stopped", "market", q.cfg.MarketID)
			return nil
		}

		if err := q.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				q.logger.Infow("quoter_stopped", "market", q.cfg.MarketID)
				return nil
			}
			q.logger.Errorw("quote_cycle_failed", "market", q.cfg.MarketID, "err", err)
			return err
		}
	}
}
