package exchange

import (
	"fmt"
	"strconv"

	"github.com/amirphl/vega-maker/internal/market"
)

type Instrument struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

type Market struct {
	ID                    string `json:"id"`
	State                 string `json:"state"`
	TradingMode           string `json:"tradingMode"`
	DecimalPlaces         string `json:"decimalPlaces"`
	PositionDecimalPlaces string `json:"positionDecimalPlaces"`
	TradableInstrument    struct {
		Instrument Instrument `json:"instrument"`
	} `json:"tradableInstrument"`
}

// Precision parses the market's decimal-place settings.
func (m Market) Precision() (market.Precision, error) {
	price, err := parseDecimals("decimalPlaces", m.DecimalPlaces)
	if err != nil {
		return market.Precision{}, err
	}
	position, err := parseDecimals("positionDecimalPlaces", m.PositionDecimalPlaces)
	if err != nil {
		return market.Precision{}, err
	}
	return market.Precision{PriceDecimals: price, PositionDecimals: position}, nil
}

type MarketData struct {
	Market         string `json:"market"`
	BestBidPrice   string `json:"bestBidPrice"`
	BestOfferPrice string `json:"bestOfferPrice"`
	MidPrice       string `json:"midPrice"`
	MarkPrice      string `json:"markPrice"`
	Timestamp      string `json:"timestamp"`
}

type PositionRecord struct {
	MarketID          string `json:"marketId"`
	PartyID           string `json:"partyId"`
	OpenVolume        string `json:"openVolume"`
	RealisedPnl       string `json:"realisedPnl"`
	UnrealisedPnl     string `json:"unrealisedPnl"`
	AverageEntryPrice string `json:"averageEntryPrice"`
	UpdatedAt         string `json:"updatedAt"`
}

type Account struct {
	Owner    string `json:"owner"`
	Balance  string `json:"balance"`
	Asset    string `json:"asset"`
	MarketID string `json:"marketId"`
	Type     string `json:"type"`
}

type Asset struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Details struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals string `json:"decimals"`
	} `json:"details"`
}

type OrderRecord struct {
	ID          string `json:"id"`
	MarketID    string `json:"marketId"`
	PartyID     string `json:"partyId"`
	Side        string `json:"side"`
	Price       string `json:"price"`
	Size        string `json:"size"`
	Remaining   string `json:"remaining"`
	TimeInForce string `json:"timeInForce"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

func parseDecimals(field, s string) (int32, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return int32(v), nil
}

func parseWire(field, s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, s, err)
	}
	return v, nil
}
