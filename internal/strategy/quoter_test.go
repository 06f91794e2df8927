package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/amirphl/vega-maker/internal/journal"
	"github.com/amirphl/vega-maker/internal/market"
	"github.com/amirphl/vega-maker/internal/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) MarketPrecision(ctx context.Context, marketID string) (market.Precision, error) {
	args := m.Called(ctx, marketID)
	return args.Get(0).(market.Precision), args.Error(1)
}

func (m *mockSource) BestPrices(ctx context.Context, marketID string) (market.BestPrices, error) {
	args := m.Called(ctx, marketID)
	return args.Get(0).(market.BestPrices), args.Error(1)
}

func (m *mockSource) Position(ctx context.Context, partyID, marketID string) (*market.Position, error) {
	args := m.Called(ctx, partyID, marketID)
	pos, _ := args.Get(0).(*market.Position)
	return pos, args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, tx order.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

// instantClock fires every timer immediately.
type instantClock struct {
	now time.Time
}

func (c instantClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now.Add(d)
	return ch
}

func (c instantClock) Now() time.Time { return c.now }

var (
	testPrecision = market.Precision{PriceDecimals: 5, PositionDecimals: 0}
	testPrices    = market.BestPrices{BestBid: 99500, BestOffer: 100500}
)

func testConfig() Config {
	return Config{
		MarketID:       "m1",
		PartyID:        "p1",
		MaxAbsPosition: decimal.NewFromInt(1),
		Interval:       time.Second,
	}
}

func newTestQuoter(t *testing.T, src *mockSource, sub *mockSubmitter) *Quoter {
	t.Helper()
	src.On("MarketPrecision", mock.Anything, "m1").Return(testPrecision, nil).Once()
	q, err := NewQuoter(context.Background(), testConfig(), src, sub, zap.NewNop().Sugar())
	require.NoError(t, err)
	q.Clock = instantClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return q
}

func snapshotAt(position string) market.Snapshot {
	return market.Snapshot{
		BestBid:   decimal.RequireFromString("0.995"),
		BestOffer: decimal.RequireFromString("1.005"),
		Position:  decimal.RequireFromString(position),
	}
}

func sides(b order.Batch) []order.Side {
	out := []order.Side{}
	for _, s := range b.Submissions {
		out = append(out, s.Side)
	}
	return out
}

func TestConfig_Validate(t *testing.T) {
	cfg := testConfig()
	assert.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxAbsPosition = decimal.Zero
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MaxAbsPosition = decimal.NewFromInt(-1)
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Interval = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.MarketID = ""
	assert.Error(t, bad.Validate())
}

func TestNewQuoter_PrecisionError(t *testing.T) {
	src := &mockSource{}
	src.On("MarketPrecision", mock.Anything, "m1").Return(market.Precision{}, errors.New("down"))

	_, err := NewQuoter(context.Background(), testConfig(), src, &mockSubmitter{}, zap.NewNop().Sugar())
	assert.ErrorContains(t, err, "down")
}

func TestComputeQuote(t *testing.T) {
	q := newTestQuoter(t, &mockSource{}, &mockSubmitter{})

	tests := []struct {
		name     string
		position string
		want     []order.Side
	}{
		{"flat quotes both sides", "0", []order.Side{order.SideBuy, order.SideSell}},
		{"long at limit only sells", "1", []order.Side{order.SideSell}},
		{"short at limit only buys", "-1", []order.Side{order.SideBuy}},
		{"inside limit quotes both sides", "0.5", []order.Side{order.SideBuy, order.SideSell}},
		{"beyond long limit only sells", "3", []order.Side{order.SideSell}},
		{"beyond short limit only buys", "-2.5", []order.Side{order.SideBuy}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := q.ComputeQuote(snapshotAt(tt.position))
			assert.Equal(t, tt.want, sides(b))
			require.Len(t, b.Cancellations, 1)
			assert.True(t, b.Cancellations[0].IsBlanket())
			assert.Equal(t, "m1", b.Cancellations[0].MarketID)
			assert.Empty(t, b.Amendments)
		})
	}
}

func TestComputeQuote_PricesAndSize(t *testing.T) {
	q := newTestQuoter(t, &mockSource{}, &mockSubmitter{})
	b := q.ComputeQuote(snapshotAt("0"))

	require.Len(t, b.Submissions, 2)
	buy, sell := b.Submissions[0], b.Submissions[1]
	assert.True(t, buy.Price.Equal(decimal.RequireFromString("0.995")))
	assert.True(t, sell.Price.Equal(decimal.RequireFromString("1.005")))
	for _, s := range b.Submissions {
		assert.True(t, s.Size.Equal(decimal.NewFromInt(1)))
		assert.Equal(t, order.TimeInForceGTC, s.TimeInForce)
		assert.Equal(t, order.TypeLimit, s.Type)
		assert.Equal(t, "m1", s.MarketID)
	}
}

func TestComputeQuote_WiderLimitBothSides(t *testing.T) {
	src := &mockSource{}
	src.On("MarketPrecision", mock.Anything, "m1").Return(testPrecision, nil)
	cfg := testConfig()
	cfg.MaxAbsPosition = decimal.NewFromInt(5)
	q, err := NewQuoter(context.Background(), cfg, src, &mockSubmitter{}, zap.NewNop().Sugar())
	require.NoError(t, err)

	assert.Equal(t, []order.Side{order.SideBuy, order.SideSell}, sides(q.ComputeQuote(snapshotAt("4"))))
	assert.Equal(t, []order.Side{order.SideSell}, sides(q.ComputeQuote(snapshotAt("5"))))
}

func TestComputeQuote_Idempotent(t *testing.T) {
	q := newTestQuoter(t, &mockSource{}, &mockSubmitter{})
	s := order.NewSerializer(q.Precision())

	first, err := s.Marshal(q.ComputeQuote(snapshotAt("0")))
	require.NoError(t, err)
	second, err := s.Marshal(q.ComputeQuote(snapshotAt("0")))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSnapshot(t *testing.T) {
	src := &mockSource{}
	q := newTestQuoter(t, src, &mockSubmitter{})
	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(&market.Position{OpenVolume: -2}, nil)

	snap, err := q.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.BestBid.Equal(decimal.RequireFromString("0.995")))
	assert.True(t, snap.BestOffer.Equal(decimal.RequireFromString("1.005")))
	assert.True(t, snap.Position.Equal(decimal.NewFromInt(-2)))
}

func TestSnapshot_NoPositionIsFlat(t *testing.T) {
	src := &mockSource{}
	q := newTestQuoter(t, src, &mockSubmitter{})
	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(nil, nil)

	snap, err := q.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Position.IsZero())
}

func TestTick_FreshMarketSubmitsBothSides(t *testing.T) {
	src := &mockSource{}
	sub := &mockSubmitter{}
	q := newTestQuoter(t, src, sub)
	mem := journal.NewMemory()
	q.Journal = mem

	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(nil, nil)

	var sent order.Transaction
	sub.On("Submit", mock.Anything, mock.AnythingOfType("order.Transaction")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(order.Transaction) }).
		Return(nil).Once()

	require.NoError(t, q.Tick(context.Background()))
	sub.AssertExpectations(t)

	raw, err := json.Marshal(sent)
	require.NoError(t, err)
	assert.JSONEq(t, `{"batchMarketInstructions":{
		"submissions":[
			{"marketId":"m1","timeInForce":"TIME_IN_FORCE_GTC","type":"TYPE_LIMIT","side":"SIDE_BUY","size":"1","price":"99500"},
			{"marketId":"m1","timeInForce":"TIME_IN_FORCE_GTC","type":"TYPE_LIMIT","side":"SIDE_SELL","size":"1","price":"100500"}
		],
		"amendments":[],
		"cancellations":[{"marketId":"m1"}]
	}}`, string(raw))

	events, err := mem.GetEvents(context.Background(), journal.EventQuote, time.Time{}, time.Now().Add(time.Hour*24*365*10))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "0.995", events[0].Data["best_bid"])
	assert.Equal(t, "0", events[0].Data["position"])
}

func TestTick_LongAtLimitOnlySells(t *testing.T) {
	src := &mockSource{}
	sub := &mockSubmitter{}
	q := newTestQuoter(t, src, sub)

	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(&market.Position{OpenVolume: 1}, nil)

	var sent order.Transaction
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(order.Transaction) }).
		Return(nil)

	require.NoError(t, q.Tick(context.Background()))
	require.Len(t, sent.BatchMarketInstructions.Submissions, 1)
	assert.Equal(t, order.SideSell, sent.BatchMarketInstructions.Submissions[0].Side)
	assert.Len(t, sent.BatchMarketInstructions.Cancellations, 1)
}

func TestTick_ErrorsPropagate(t *testing.T) {
	t.Run("best prices", func(t *testing.T) {
		src := &mockSource{}
		sub := &mockSubmitter{}
		q := newTestQuoter(t, src, sub)
		src.On("BestPrices", mock.Anything, "m1").Return(market.BestPrices{}, errors.New("502"))

		assert.ErrorContains(t, q.Tick(context.Background()), "502")
		sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("position", func(t *testing.T) {
		src := &mockSource{}
		sub := &mockSubmitter{}
		q := newTestQuoter(t, src, sub)
		src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
		src.On("Position", mock.Anything, "p1", "m1").Return(nil, errors.New("bad shape"))

		assert.ErrorContains(t, q.Tick(context.Background()), "bad shape")
		sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("submit", func(t *testing.T) {
		src := &mockSource{}
		sub := &mockSubmitter{}
		q := newTestQuoter(t, src, sub)
		src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
		src.On("Position", mock.Anything, "p1", "m1").Return(nil, nil)
		sub.On("Submit", mock.Anything, mock.Anything).Return(errors.New("wallet down"))

		assert.ErrorContains(t, q.Tick(context.Background()), "wallet down")
	})
}

func TestRun_BoundedCycles(t *testing.T) {
	src := &mockSource{}
	sub := &mockSubmitter{}
	q := newTestQuoter(t, src, sub)

	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const cycles = 3
	var payloads [][]byte
	sub.On("Submit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			raw, err := json.Marshal(args.Get(1))
			require.NoError(t, err)
			payloads = append(payloads, raw)
			if len(payloads) == cycles {
				cancel()
			}
		}).
		Return(nil)

	require.NoError(t, q.Run(ctx))
	require.Len(t, payloads, cycles)
	assert.Equal(t, payloads[0], payloads[1])
	assert.Equal(t, payloads[1], payloads[2])
	sub.AssertNumberOfCalls(t, "Submit", cycles)
}

func TestRun_StopsOnCycleError(t *testing.T) {
	src := &mockSource{}
	sub := &mockSubmitter{}
	q := newTestQuoter(t, src, sub)

	src.On("BestPrices", mock.Anything, "m1").Return(testPrices, nil)
	src.On("Position", mock.Anything, "p1", "m1").Return(nil, nil)
	sub.On("Submit", mock.Anything, mock.Anything).Return(nil).Once()
	sub.On("Submit", mock.Anything, mock.Anything).Return(errors.New("rejected")).Once()

	err := q.Run(context.Background())
	assert.ErrorContains(t, err, "rejected")
	sub.AssertNumberOfCalls(t, "Submit", 2)
}

func TestRun_CancelledBeforeFirstCycle(t *testing.T) {
	src := &mockSource{}
	sub := &mockSubmitter{}
	q := newTestQuoter(t, src, sub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, q.Run(ctx))
	src.AssertNotCalled(t, "BestPrices", mock.Anything, mock.Anything)
}
