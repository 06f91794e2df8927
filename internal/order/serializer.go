package order

import (
	"encoding/json"

	"github.com/amirphl/vega-maker/internal/decimals"
	"github.com/amirphl/vega-maker/internal/market"
)

// SubmissionPayload is the wire form of a Submission.
type SubmissionPayload struct {
	MarketID    string      `json:"marketId"`
	TimeInForce TimeInForce `json:"timeInForce"`
	Type        Type        `json:"type"`
	Side        Side        `json:"side"`
	Size        string      `json:"size"`
	Price       string      `json:"price"`
}

// AmendmentPayload is the wire form of an Amendment.
type AmendmentPayload struct {
	OrderID   string `json:"orderId"`
	SizeDelta string `json:"size_delta"`
	Price     string `json:"price"`
}

// CancellationPayload is the wire form of a Cancellation. OrderID is left out
// of the JSON entirely for a blanket cancel.
type CancellationPayload struct {
	MarketID string `json:"marketId"`
	OrderID  string `json:"orderId,omitempty"`
}

// BatchPayload always carries all three arrays, empty when unused.
type BatchPayload struct {
	Submissions   []SubmissionPayload   `json:"submissions"`
	Amendments    []AmendmentPayload    `json:"amendments"`
	Cancellations []CancellationPayload `json:"cancellations"`
}

// Transaction is the object handed to the wallet for signing.
type Transaction struct {
	BatchMarketInstructions BatchPayload `json:"batchMarketInstructions"`
}

// Serializer renders batches using one market's precision.
type Serializer struct {
	precision market.Precision
}

func NewSerializer(p market.Precision) *Serializer {
	return &Serializer{precision: p}
}

func (s *Serializer) Submission(sub Submission) SubmissionPayload {
	return SubmissionPayload{
		MarketID:    sub.MarketID,
		TimeInForce: sub.TimeInForce,
		Type:        sub.Type,
		Side:        sub.Side,
		Size:        decimals.FormatWire(s.precision.PositionDecimals, sub.Size),
		Price:       decimals.FormatWire(s.precision.PriceDecimals, sub.Price),
	}
}

func (s *Serializer) Amendment(a Amendment) AmendmentPayload {
	return AmendmentPayload{
		OrderID:   a.OrderID,
		SizeDelta: decimals.FormatWire(s.precision.PositionDecimals, a.SizeDelta),
		Price:     decimals.FormatWire(s.precision.PriceDecimals, a.Price),
	}
}

func (s *Serializer) Cancellation(c Cancellation) CancellationPayload {
	return CancellationPayload{
		MarketID: c.MarketID,
		OrderID:  c.OrderID,
	}
}

// Batch converts b into a transaction. Slices are never nil so that every key
// is present as an array in the encoded JSON.
func (s *Serializer) Batch(b Batch) Transaction {
	payload := BatchPayload{
		Submissions:   make([]SubmissionPayload, 0, len(b.Submissions)),
		Amendments:    make([]AmendmentPayload, 0, len(b.Amendments)),
		Cancellations: make([]CancellationPayload, 0, len(b.Cancellations)),
	}
	for _, sub := range b.Submissions {
		payload.Submissions = append(payload.Submissions, s.Submission(sub))
	}
	for _, a := range b.Amendments {
		payload.Amendments = append(payload.Amendments, s.Amendment(a))
	}
	for _, c := range b.Cancellations {
		payload.Cancellations = append(payload.Cancellations, s.Cancellation(c))
	}
	return Transaction{BatchMarketInstructions: payload}
}

// Marshal serializes b straight to JSON bytes.
func (s *Serializer) Marshal(b Batch) ([]byte, error) {
	return json.Marshal(s.Batch(b))
}
