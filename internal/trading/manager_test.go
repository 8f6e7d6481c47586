package trading

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelbot/internal/adapters/logger"
	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

type stubGateway struct {
	info      *ports.SymbolInfo
	tick      *ports.Tick
	account   *ports.AccountInfo
	margin    float64
	marginErr error
	receipt   *ports.OrderReceipt
	submitErr error

	submitted []*ports.OrderRequest
}

func (g *stubGateway) Connect(ctx context.Context) error    { return nil }
func (g *stubGateway) Disconnect(ctx context.Context) error { return nil }

func (g *stubGateway) GetCandles(ctx context.Context, symbol string, timeframe domain.Timeframe, count int) ([]domain.Candle, error) {
	return nil, nil
}

func (g *stubGateway) GetSymbolInfo(ctx context.Context, symbol string) (*ports.SymbolInfo, error) {
	return g.info, nil
}

func (g *stubGateway) GetTick(ctx context.Context, symbol string) (*ports.Tick, error) {
	return g.tick, nil
}

func (g *stubGateway) GetAccountInfo(ctx context.Context) (*ports.AccountInfo, error) {
	return g.account, nil
}

func (g *stubGateway) CalcRequiredMargin(ctx context.Context, direction domain.Direction, symbol string, volume, price float64) (float64, error) {
	return g.margin, g.marginErr
}

func (g *stubGateway) ListPositions(ctx context.Context, symbol string, magic int64) ([]domain.Position, error) {
	return nil, nil
}

func (g *stubGateway) SubmitOrder(ctx context.Context, req *ports.OrderRequest) (*ports.OrderReceipt, error) {
	g.submitted = append(g.submitted, req)
	if g.submitErr != nil {
		return g.receipt, g.submitErr
	}
	return g.receipt, nil
}

func testLogger() ports.Logger {
	return logger.NewWithWriter(io.Discard, logger.LevelError)
}

func defaultConfig() ManagerConfig {
	return ManagerConfig{
		Magic:              12345,
		LotSize:            0.1,
		TargetStopPoints:   50,
		FallbackStopPoints: 15,
		MarginCheck:        true,
		OrderComment:       "levelbot",
	}
}

func okGateway() *stubGateway {
	return &stubGateway{
		info:    &ports.SymbolInfo{Symbol: "BTCUSDm", TickSize: 0.01, MinVolume: 0.01, MinStopPoints: 20},
		tick:    &ports.Tick{Bid: 100.00, Ask: 100.10},
		account: &ports.AccountInfo{FreeMargin: 1000},
		margin:  100,
		receipt: &ports.OrderReceipt{RetCode: ports.RetCodeDone, OrderID: 42, Price: 100.10, Volume: 0.1},
	}
}

func TestResolveStopDistance(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		brokerMin float64
		fallback  float64
		want      float64
	}{
		{name: "zero broker minimum uses fallback", target: 10, brokerMin: 0, fallback: 15, want: 15},
		{name: "broker minimum widens small target", target: 10, brokerMin: 20, fallback: 15, want: 20},
		{name: "large target wins over broker minimum", target: 50, brokerMin: 5, fallback: 15, want: 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStopDistance(tt.target, tt.brokerMin, tt.fallback))
		})
	}
}

func TestManager_OpenSubmitsTaggedOrderWithStops(t *testing.T) {
	gw := okGateway()
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	receipt, err := m.Open(context.Background(), "BTCUSDm", domain.Buy)
	require.NoError(t, err)
	assert.Equal(t, int64(42), receipt.OrderID)

	require.Len(t, gw.submitted, 1)
	req := gw.submitted[0]
	assert.Equal(t, int64(12345), req.Magic)
	assert.Equal(t, domain.Buy, req.Direction)
	assert.Equal(t, ports.TimeGTC, req.TimePolicy)
	assert.Equal(t, ports.FillIOC, req.FillPolicy)
	assert.Equal(t, int64(0), req.PositionTicket)

	// Buy fills at the ask; target 50 points vs broker minimum 20 resolves
	// to 50 points = 0.50 in price.
	assert.InDelta(t, 100.10, req.Price, 1e-9)
	assert.InDelta(t, 99.60, req.StopLoss, 1e-9)
	assert.InDelta(t, 100.60, req.TakeProfit, 1e-9)
}

func TestManager_OpenSellUsesBidAndMirroredStops(t *testing.T) {
	gw := okGateway()
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Sell)
	require.NoError(t, err)

	req := gw.submitted[0]
	assert.InDelta(t, 100.00, req.Price, 1e-9)
	assert.InDelta(t, 100.50, req.StopLoss, 1e-9)
	assert.InDelta(t, 99.50, req.TakeProfit, 1e-9)
}

func TestManager_MarginGateBlocksSubmission(t *testing.T) {
	gw := okGateway()
	gw.margin = 2000 // exceeds free margin 1000
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Buy)
	assert.ErrorIs(t, err, ports.ErrInsufficientMargin)
	assert.Empty(t, gw.submitted, "no order may be submitted when margin is short")
}

func TestManager_MarginCheckDisabledSkipsGate(t *testing.T) {
	gw := okGateway()
	gw.margin = 2000
	cfg := defaultConfig()
	cfg.MarginCheck = false
	m, err := NewManager(gw, testLogger(), nil, cfg)
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Buy)
	require.NoError(t, err)
	assert.Len(t, gw.submitted, 1)
}

func TestManager_PerSymbolLotResolution(t *testing.T) {
	gw := okGateway()
	cfg := defaultConfig()
	cfg.LotSize = 0
	cfg.LotSizes = map[string]float64{"XAUUSD": 0.5}
	m, err := NewManager(gw, testLogger(), nil, cfg)
	require.NoError(t, err)

	// Symbol missing from the mapping: skip with a config error.
	_, err = m.Open(context.Background(), "BTCUSDm", domain.Buy)
	assert.ErrorIs(t, err, ports.ErrConfigError)
	assert.Empty(t, gw.submitted)

	// Mapped symbol resolves.
	_, err = m.Open(context.Background(), "XAUUSD", domain.Buy)
	require.NoError(t, err)
	require.Len(t, gw.submitted, 1)
	assert.Equal(t, 0.5, gw.submitted[0].Volume)
}

func TestManager_LotRaisedToBrokerMinimum(t *testing.T) {
	gw := okGateway()
	gw.info.MinVolume = 0.3
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Buy)
	require.NoError(t, err)
	assert.Equal(t, 0.3, gw.submitted[0].Volume)
}

func TestManager_OpenRejectionWrapsBrokerReason(t *testing.T) {
	gw := okGateway()
	gw.receipt = &ports.OrderReceipt{RetCode: 10019, Reason: "No money"}
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Buy)
	assert.ErrorIs(t, err, ports.ErrOrderRejected)
	assert.Contains(t, err.Error(), "No money")
}

func TestManager_OpenInvalidDirection(t *testing.T) {
	gw := okGateway()
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	_, err = m.Open(context.Background(), "BTCUSDm", domain.Direction("HOLD"))
	assert.ErrorIs(t, err, ports.ErrInvalidDirection)
	assert.Empty(t, gw.submitted)
}

func TestManager_CloseLinksTicketAndUsesOppositeQuote(t *testing.T) {
	gw := okGateway()
	m, err := NewManager(gw, testLogger(), nil, defaultConfig())
	require.NoError(t, err)

	pos := domain.Position{
		Ticket:    77,
		Symbol:    "BTCUSDm",
		Direction: domain.Buy,
		Volume:    0.2,
		OpenPrice: 99.5,
		Profit:    60,
	}
	_, err = m.Close(context.Background(), pos, domain.CloseReasonTargetProfit)
	require.NoError(t, err)

	require.Len(t, gw.submitted, 1)
	req := gw.submitted[0]
	assert.Equal(t, domain.Sell, req.Direction)
	assert.Equal(t, int64(77), req.PositionTicket)
	assert.Equal(t, 0.2, req.Volume)
	// A long closes at the bid.
	assert.InDelta(t, 100.00, req.Price, 1e-9)
}

func TestQuoteFor(t *testing.T) {
	tick := &ports.Tick{Bid: 99.0, Ask: 101.0}
	assert.Equal(t, 101.0, quoteFor(tick, domain.Buy))
	assert.Equal(t, 99.0, quoteFor(tick, domain.Sell))
}
