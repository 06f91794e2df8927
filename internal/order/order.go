// Package order models batch market instructions and renders them into the
// wallet transaction payload.
package order

import "github.com/shopspring/decimal"

type Side string

const (
	SideBuy  Side = "SIDE_BUY"
	SideSell Side = "SIDE_SELL"
)

type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "TIME_IN_FORCE_GTC"
	TimeInForceGTT TimeInForce = "TIME_IN_FORCE_GTT"
	TimeInForceIOC TimeInForce = "TIME_IN_FORCE_IOC"
	TimeInForceFOK TimeInForce = "TIME_IN_FORCE_FOK"
	TimeInForceGFA TimeInForce = "TIME_IN_FORCE_GFA"
	TimeInForceGFN TimeInForce = "TIME_IN_FORCE_GFN"
)

type Type string

const (
	TypeLimit  Type = "TYPE_LIMIT"
	TypeMarket Type = "TYPE_MARKET"
)

// Submission represents a new order. Size and Price are display decimals;
// precision is applied only when the batch is serialized.
type Submission struct {
	MarketID    string
	Size        decimal.Decimal
	Price       decimal.Decimal
	TimeInForce TimeInForce
	Type        Type
	Side        Side
}

// Cancellation cancels a single order, or every resting order the party has on
// the market when OrderID is empty.
type Cancellation struct {
	MarketID string
	OrderID  string
}

// IsBlanket reports whether c cancels all of the party's orders on the market.
func (c Cancellation) IsBlanket() bool {
	return c.OrderID == ""
}

// Amendment adjusts a resting order. SizeDelta is signed and relative to the
// order's current size.
type Amendment struct {
	OrderID   string
	SizeDelta decimal.Decimal
	Price     decimal.Decimal
}

// Batch is one atomic transaction. The three lists are independent of each
// other; nothing stops a batch from cancelling and resubmitting the same price.
type Batch struct {
	Submissions   []Submission
	Cancellations []Cancellation
	Amendments    []Amendment
}

// NewLimitGTC builds a good-till-cancelled limit order.
func NewLimitGTC(marketID string, side Side, size, price decimal.Decimal) Submission {
	return Submission{
		MarketID:    marketID,
		Size:        size,
		Price:       price,
		TimeInForce: TimeInForceGTC,
		Type:        TypeLimit,
		Side:        side,
	}
}

// CancelAll builds a blanket cancellation for marketID.
func CancelAll(marketID string) Cancellation {
	return Cancellation{MarketID: marketID}
}
