package mt5bridge

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelbot/internal/adapters/logger"
	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL:  srv.URL,
		Login:    123456,
		Password: "secret",
		Server:   "Broker-Demo",
		Logger:   logger.NewWithWriter(io.Discard, logger.LevelError),
	})
	require.NoError(t, err)
	return c
}

func TestClient_ConnectSendsCredentials(t *testing.T) {
	var got connectRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/connect", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(connectResponse{Connected: true})
	}))

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, int64(123456), got.Login)
	assert.Equal(t, "secret", got.Password)
	assert.Equal(t, "Broker-Demo", got.Server)
}

func TestClient_ConnectRefusedLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(connectResponse{Connected: false, Message: "invalid account"})
	}))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "invalid account")
}

func TestClient_ConnectBridgeDown(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "terminal not running", http.StatusBadGateway)
	}))

	err := c.Connect(context.Background())
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
}

func TestClient_GetCandles(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/candles", r.URL.Path)
		assert.Equal(t, "BTCUSDm", r.URL.Query().Get("symbol"))
		assert.Equal(t, "M5", r.URL.Query().Get("timeframe"))
		assert.Equal(t, "200", r.URL.Query().Get("count"))
		json.NewEncoder(w).Encode([]candlePayload{
			{Time: 1700000000, Open: 100, High: 105, Low: 95, Close: 102},
			{Time: 1700000300, Open: 102, High: 108, Low: 101, Close: 107},
		})
	}))

	candles, err := c.GetCandles(context.Background(), "BTCUSDm", domain.TimeframeM5, 200)
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1700000000), candles[0].OpenTime.Unix())
	assert.Equal(t, 105.0, candles[0].High)
	assert.Equal(t, 107.0, candles[1].Close)
}

func TestClient_GetCandlesEmptyIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]candlePayload{})
	}))

	_, err := c.GetCandles(context.Background(), "BTCUSDm", domain.TimeframeM1, 50)
	assert.ErrorIs(t, err, ports.ErrDataUnavailable)
}

func TestClient_GetSymbolInfoZeroPointIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(symbolInfoPayload{Symbol: "BTCUSDm", Point: 0})
	}))

	_, err := c.GetSymbolInfo(context.Background(), "BTCUSDm")
	assert.ErrorIs(t, err, ports.ErrDataUnavailable)
}

func TestClient_GetSymbolInfoMapsFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(symbolInfoPayload{
			Symbol: "XAUUSD", Point: 0.01, VolumeMin: 0.01, StopsLevel: 30, Digits: 2,
		})
	}))

	info, err := c.GetSymbolInfo(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, 0.01, info.TickSize)
	assert.Equal(t, 30.0, info.MinStopPoints)
	assert.Equal(t, 2, info.Digits)
}

func TestClient_GetTickEmptyQuoteIsUnavailable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(tickPayload{Bid: 0, Ask: 0})
	}))

	_, err := c.GetTick(context.Background(), "BTCUSDm")
	assert.ErrorIs(t, err, ports.ErrDataUnavailable)
}

func TestClient_ListPositionsFiltersByMagic(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12345", r.URL.Query().Get("magic"))
		json.NewEncoder(w).Encode([]positionPayload{
			{Ticket: 7, Symbol: "BTCUSDm", Type: "SELL", Volume: 0.1, PriceOpen: 101.5, Profit: -3.2, Magic: 12345, Time: 1700000000},
		})
	}))

	positions, err := c.ListPositions(context.Background(), "BTCUSDm", 12345)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, int64(7), positions[0].Ticket)
	assert.Equal(t, domain.Sell, positions[0].Direction)
	assert.Equal(t, -3.2, positions[0].Profit)
}

func TestClient_SubmitOrderDone(t *testing.T) {
	var got orderRequestPayload
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(orderResponsePayload{
			RetCode: ports.RetCodeDone, Comment: "Request executed", Order: 99, Price: 100.12, Volume: 0.1,
		})
	}))

	receipt, err := c.SubmitOrder(context.Background(), &ports.OrderRequest{
		Symbol:     "BTCUSDm",
		Volume:     0.1,
		Direction:  domain.Buy,
		Price:      100.10,
		StopLoss:   99.60,
		TakeProfit: 100.60,
		Magic:      12345,
		Comment:    "levelbot",
		TimePolicy: ports.TimeGTC,
		FillPolicy: ports.FillIOC,
	})
	require.NoError(t, err)
	assert.True(t, receipt.Done())
	assert.Equal(t, int64(99), receipt.OrderID)

	assert.Equal(t, "BUY", got.Type)
	assert.Equal(t, "GTC", got.TypeTime)
	assert.Equal(t, "IOC", got.TypeFilling)
	assert.Zero(t, got.Position, "open orders carry no position link")
}

func TestClient_SubmitOrderRejectedKeepsReceipt(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(orderResponsePayload{RetCode: 10019, Comment: "No money"})
	}))

	receipt, err := c.SubmitOrder(context.Background(), &ports.OrderRequest{
		Symbol: "BTCUSDm", Volume: 0.1, Direction: domain.Buy, Price: 100.10, Magic: 12345,
	})
	assert.ErrorIs(t, err, ports.ErrOrderRejected)
	require.NotNil(t, receipt)
	assert.Equal(t, int64(10019), receipt.RetCode)
	assert.Equal(t, "No money", receipt.Reason)
}

func TestClient_CloseOrderCarriesPositionTicket(t *testing.T) {
	var got orderRequestPayload
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(orderResponsePayload{RetCode: ports.RetCodeDone})
	}))

	_, err := c.SubmitOrder(context.Background(), &ports.OrderRequest{
		Symbol: "BTCUSDm", Volume: 0.1, Direction: domain.Sell, Price: 100.00,
		Magic: 12345, PositionTicket: 77,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), got.Position)
}
