// Package config
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

/*
YAML config example:
mode: "quote"
node_url: "https://api.n00.testnet.vega.rocks/api/v2"
wallet_url: "http://127.0.0.1:1789"
wallet_token: "..."
market_id: "..."
party_id: "..."
max_abs_position: 1
interval: 1s
http_timeout: 10s
dry_run: false
db_conn_str: "postgres://..."
telegram_token: "..."
telegram_chat_id: "..."
*/

const (
	ModeQuote     = "quote"
	ModeMarkets   = "markets"
	ModeAssets    = "assets"
	ModeAccounts  = "accounts"
	ModeOrders    = "orders"
	ModePositions = "positions"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Mode                string
	NodeURL             string
	WalletURL           string
	WalletToken         string
	MarketID            string
	PartyID             string
	MaxAbsPosition      decimal.Decimal
	Interval            time.Duration
	HTTPTimeout         time.Duration
	DryRun              bool
	DBConnStr           string
	DBMaxOpen           int
	DBMaxIdle           int
	LogFile             string
	TelegramToken       string
	TelegramChatID      string
	NotificationRetries int
	NotificationDelay   time.Duration
}

type fileConfig struct {
	Mode                string        `yaml:"mode"`
	NodeURL             string        `yaml:"node_url"`
	WalletURL           string        `yaml:"wallet_url"`
	WalletToken         string        `yaml:"wallet_token"`
	MarketID            string        `yaml:"market_id"`
	PartyID             string        `yaml:"party_id"`
	MaxAbsPosition      string        `yaml:"max_abs_position"`
	Interval            time.Duration `yaml:"interval"`
	HTTPTimeout         time.Duration `yaml:"http_timeout"`
	DryRun              *bool         `yaml:"dry_run"`
	DBConnStr           string        `yaml:"db_conn_str"`
	DBMaxOpen           int           `yaml:"db_max_open"`
	DBMaxIdle           int           `yaml:"db_max_idle"`
	LogFile             string        `yaml:"log_file"`
	TelegramToken       string        `yaml:"telegram_token"`
	TelegramChatID      string        `yaml:"telegram_chat_id"`
	NotificationRetries int           `yaml:"notification_retries"`
	NotificationDelay   time.Duration `yaml:"notification_delay"`
}

// Load builds the configuration from, in increasing priority: defaults, a
// .env file in the working directory, the environment, command line flags and
// finally the YAML file named by -config.
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("vega-maker", flag.ContinueOnError)
	mode := fs.String("mode", ModeQuote, "Mode: quote, markets, assets, accounts, orders or positions")
	nodeURL := fs.String("node-url", os.Getenv("NODE_URL"), "Data node REST base URL")
	walletURL := fs.String("wallet-url", os.Getenv("WALLET_URL"), "Wallet service URL")
	walletToken := fs.String("wallet-token", os.Getenv("WALLET_TOKEN"), "Wallet API token")
	marketID := fs.String("market", os.Getenv("MARKET_ID"), "Market to quote")
	partyID := fs.String("party", os.Getenv("PARTY_ID"), "Party public key")
	maxAbsPosition := fs.String("max-abs-position", getEnv("MAX_ABS_POSITION", "1"), "Maximum absolute position before a side stops quoting")
	interval := fs.Duration("interval", time.Second, "Delay between quoting cycles")
	httpTimeout := fs.Duration("http-timeout", 10*time.Second, "Timeout for data node and wallet requests")
	dryRun := fs.Bool("dry-run", false, "Log transactions instead of sending them to the wallet")
	dbConnStr := fs.String("db", os.Getenv("DB_CONN_STR"), "Postgres connection string for the cycle journal (optional)")
	logFile := fs.String("log-file", os.Getenv("LOG_FILE"), "Also write logs to this file")
	telegramToken := fs.String("telegram-token", os.Getenv("TELEGRAM_TOKEN"), "Telegram bot token for notifications")
	telegramChatID := fs.String("telegram-chat", os.Getenv("TELEGRAM_CHAT_ID"), "Telegram chat ID for notifications")
	notificationRetries := fs.Int("notification-retries", 3, "Number of notification send attempts")
	notificationDelay := fs.Duration("notification-delay", 5*time.Second, "Delay between notification retries")
	configFile := fs.String("config", "", "Path to YAML config file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	maxPos, err := decimal.NewFromString(*maxAbsPosition)
	if err != nil {
		return Config{}, fmt.Errorf("%w: max-abs-position %q: %v", ErrInvalid, *maxAbsPosition, err)
	}

	cfg := Config{
		Mode:                *mode,
		NodeURL:             *nodeURL,
		WalletURL:           *walletURL,
		WalletToken:         *walletToken,
		MarketID:            *marketID,
		PartyID:             *partyID,
		MaxAbsPosition:      maxPos,
		Interval:            *interval,
		HTTPTimeout:         *httpTimeout,
		DryRun:              *dryRun,
		DBConnStr:           *dbConnStr,
		DBMaxOpen:           getEnvInt("DB_MAX_OPEN", 5),
		DBMaxIdle:           getEnvInt("DB_MAX_IDLE", 2),
		LogFile:             *logFile,
		TelegramToken:       *telegramToken,
		TelegramChatID:      *telegramChatID,
		NotificationRetries: *notificationRetries,
		NotificationDelay:   *notificationDelay,
	}

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyYAML(data); err != nil {
			return Config{}, err
		}
	}

	return cfg, cfg.Validate()
}

// MustLoad is Load for process start; it exits on error.
func MustLoad() Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return cfg
}

func (c *Config) applyYAML(data []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Mode, f.Mode)
	setString(&c.NodeURL, f.NodeURL)
	setString(&c.WalletURL, f.WalletURL)
	setString(&c.WalletToken, f.WalletToken)
	setString(&c.MarketID, f.MarketID)
	setString(&c.PartyID, f.PartyID)
	setString(&c.DBConnStr, f.DBConnStr)
	setString(&c.LogFile, f.LogFile)
	setString(&c.TelegramToken, f.TelegramToken)
	setString(&c.TelegramChatID, f.TelegramChatID)
	if f.MaxAbsPosition != "" {
		d, err := decimal.NewFromString(f.MaxAbsPosition)
		if err != nil {
			return fmt.Errorf("%w: max_abs_position %q: %v", ErrInvalid, f.MaxAbsPosition, err)
		}
		c.MaxAbsPosition = d
	}
	if f.Interval != 0 {
		c.Interval = f.Interval
	}
	if f.HTTPTimeout != 0 {
		c.HTTPTimeout = f.HTTPTimeout
	}
	if f.DryRun != nil {
		c.DryRun = *f.DryRun
	}
	if f.DBMaxOpen != 0 {
		c.DBMaxOpen = f.DBMaxOpen
	}
	if f.DBMaxIdle != 0 {
		c.DBMaxIdle = f.DBMaxIdle
	}
	if f.NotificationRetries != 0 {
		c.NotificationRetries = f.NotificationRetries
	}
	if f.NotificationDelay != 0 {
		c.NotificationDelay = f.NotificationDelay
	}
	return nil
}

func (c Config) Validate() error {
	if c.NodeURL == "" {
		return fmt.Errorf("%w: node url is required", ErrInvalid)
	}
	switch c.Mode {
	case ModeQuote:
		if c.MarketID == "" {
			return fmt.Errorf("%w: market id is required", ErrInvalid)
		}
		if c.PartyID == "" {
			return fmt.Errorf("%w: party id is required", ErrInvalid)
		}
		if !c.DryRun && (c.WalletURL == "" || c.WalletToken == "") {
			return fmt.Errorf("%w: wallet url and token are required unless -dry-run is set", ErrInvalid)
		}
		if !c.MaxAbsPosition.IsPositive() {
			return fmt.Errorf("%w: max abs position must be positive, got %s", ErrInvalid, c.MaxAbsPosition)
		}
		if c.Interval <= 0 {
			return fmt.Errorf("%w: interval must be positive", ErrInvalid)
		}
	case ModeAccounts, ModeOrders, ModePositions:
		if c.PartyID == "" {
			return fmt.Errorf("%w: party id is required for %s", ErrInvalid, c.Mode)
		}
	case ModeMarkets, ModeAssets:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalid, c.Mode)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http timeout must be positive", ErrInvalid)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
