package exchange

import (
	"context"
	"net/url"

	"github.com/amirphl/vega-maker/internal/market"
)

// DataNode is the read side of the exchange: market metadata, market data,
// positions and the party's accounts and orders.
type DataNode interface {
	market.SnapshotSource
	Market(ctx context.Context, marketID string) (Market, error)
	Markets(ctx context.Context) ([]Market, error)
	MarketData(ctx context.Context, marketID string) (MarketData, error)
	Positions(ctx context.Context, partyID, marketID string) ([]PositionRecord, error)
	Accounts(ctx context.Context, partyID string) ([]Account, error)
	Assets(ctx context.Context) ([]Asset, error)
	OpenOrders(ctx context.Context, partyID string) ([]OrderRecord, error)
}

type VegaDataNode struct {
	client *Client
}

func NewVegaDataNode(client *Client) *VegaDataNode {
	return &VegaDataNode{client: client}
}

var _ DataNode = (*VegaDataNode)(nil)

func (v *VegaDataNode) Market(ctx context.Context, marketID string) (Market, error) {
	var m Market
	err := v.client.getKey(ctx, "market/"+url.PathEscape(marketID), nil, "market", &m)
	return m, err
}

func (v *VegaDataNode) Markets(ctx context.Context) ([]Market, error) {
	return collect(pages[Market](ctx, v.client, "markets", nil, "markets"))
}

func (v *VegaDataNode) MarketData(ctx context.Context, marketID string) (MarketData, error) {
	var md MarketData
	err := v.client.getKey(ctx, "market/data/"+url.PathEscape(marketID)+"/latest", nil, "marketData", &md)
	return md, err
}

// Positions lists the party's positions, restricted to marketID when it is set.
func (v *VegaDataNode) Positions(ctx context.Context, partyID, marketID string) ([]PositionRecord, error) {
	params := url.Values{"filter.partyIds": {partyID}}
	if marketID != "" {
		params.Set("filter.marketIds", marketID)
	}
	return collect(pages[PositionRecord](ctx, v.client, "positions", params, "positions"))
}

func (v *VegaDataNode) Accounts(ctx context.Context, partyID string) ([]Account, error) {
	params := url.Values{"filter.partyIds": {partyID}}
	return collect(pages[Account](ctx, v.client, "accounts", params, "accounts"))
}

func (v *VegaDataNode) Assets(ctx context.Context) ([]Asset, error) {
	return collect(pages[Asset](ctx, v.client, "assets", nil, "assets"))
}

// OpenOrders lists the party's live orders across all markets.
func (v *VegaDataNode) OpenOrders(ctx context.Context, partyID string) ([]OrderRecord, error) {
	params := url.Values{
		"filter.partyIds": {partyID},
		"filter.liveOnly": {"true"},
	}
	return collect(pages[OrderRecord](ctx, v.client, "orders", params, "orders"))
}

func (v *VegaDataNode) MarketPrecision(ctx context.Context, marketID string) (market.Precision, error) {
	m, err := v.Market(ctx, marketID)
	if err != nil {
		return market.Precision{}, err
	}
	return m.Precision()
}

func (v *VegaDataNode) BestPrices(ctx context.Context, marketID string) (market.BestPrices, error) {
	md, err := v.MarketData(ctx, marketID)
	if err != nil {
		return market.BestPrices{}, err
	}
	bid, err := parseWire("bestBidPrice", md.BestBidPrice)
	if err != nil {
		return market.BestPrices{}, err
	}
	offer, err := parseWire("bestOfferPrice", md.BestOfferPrice)
	if err != nil {
		return market.BestPrices{}, err
	}
	return market.BestPrices{BestBid: bid, BestOffer: offer}, nil
}

// Position returns the first position record for the party on the market, or
// nil when there has never been trading.
func (v *VegaDataNode) Position(ctx context.Context, partyID, marketID string) (*market.Position, error) {
	params := url.Values{
		"filter.partyIds":  {partyID},
		"filter.marketIds": {marketID},
	}
	for rec, err := range pages[PositionRecord](ctx, v.client, "positions", params, "positions") {
		if err != nil {
			return nil, err
		}
		volume, err := parseWire("openVolume", rec.OpenVolume)
		if err != nil {
			return nil, err
		}
		return &market.Position{OpenVolume: volume}, nil
	}
	return nil, nil
}
