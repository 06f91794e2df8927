// Package market
package market

import (
	"context"

	"github.com/shopspring/decimal"
)

// Precision holds a market's decimal-place settings. It is fetched once at
// startup and never changes for the life of the process.
type Precision struct {
	PriceDecimals    int32 `json:"price_decimals"`
	PositionDecimals int32 `json:"position_decimals"`
}

// BestPrices is the top of book in wire (fixed-point) units.
type BestPrices struct {
	BestBid   int64
	BestOffer int64
}

// Position is a party's net open volume in wire units.
type Position struct {
	OpenVolume int64
}

// Snapshot is the display-decimal view the quoting engine works from.
type Snapshot struct {
	BestBid   decimal.Decimal
	BestOffer decimal.Decimal
	Position  decimal.Decimal
}

// SnapshotSource supplies market metadata, market data and positions.
// All integer fields are raw wire values in the market's own scale.
type SnapshotSource interface {
	MarketPrecision(ctx context.Context, marketID string) (Precision, error)
	BestPrices(ctx context.Context, marketID string) (BestPrices, error)
	// Position returns nil when the party has no position record on the market.
	Position(ctx context.Context, partyID, marketID string) (*Position, error)
}
