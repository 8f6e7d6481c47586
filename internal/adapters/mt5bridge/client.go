// Package mt5bridge implements ports.BrokerGateway over the HTTP/JSON
// bridge exposed by the trading terminal host. The bridge is a thin REST
// shim in front of the terminal API; this client owns request shaping,
// error mapping to the ports sentinels and nothing else.
package mt5bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

// Config holds configuration specific to the bridge client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Login    int64
	Password string
	Server   string
	Logger   ports.Logger
}

// Client talks to the terminal bridge. It is safe for the single-actor
// polling model this bot uses; every call is blocking.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	login      int64
	password   string
	server     string
}

// New creates a bridge client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for bridge client")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("bridge base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		login:      cfg.Login,
		password:   cfg.Password,
		server:     cfg.Server,
	}, nil
}

// --- wire types ---

type connectRequest struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

type connectResponse struct {
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

type candlePayload struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

type symbolInfoPayload struct {
	Symbol     string  `json:"symbol"`
	Point      float64 `json:"point"`
	VolumeMin  float64 `json:"volume_min"`
	StopsLevel float64 `json:"stops_level"`
	Digits     int     `json:"digits"`
}

type tickPayload struct {
	Bid float64 `json:"bid"`
	Ask float64 `json:"ask"`
}

type accountPayload struct {
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	FreeMargin float64 `json:"free_margin"`
	Currency   string  `json:"currency"`
}

type marginRequest struct {
	Action string  `json:"action"`
	Symbol string  `json:"symbol"`
	Volume float64 `json:"volume"`
	Price  float64 `json:"price"`
}

type marginResponse struct {
	Margin float64 `json:"margin"`
}

type positionPayload struct {
	Ticket    int64   `json:"ticket"`
	Symbol    string  `json:"symbol"`
	Type      string  `json:"type"` // BUY | SELL
	Volume    float64 `json:"volume"`
	PriceOpen float64 `json:"price_open"`
	Profit    float64 `json:"profit"`
	Magic     int64   `json:"magic"`
	Time      int64   `json:"time"`
}

type orderRequestPayload struct {
	Symbol      string  `json:"symbol"`
	Volume      float64 `json:"volume"`
	Type        string  `json:"type"`
	Price       float64 `json:"price"`
	StopLoss    float64 `json:"sl"`
	TakeProfit  float64 `json:"tp"`
	Magic       int64   `json:"magic"`
	Comment     string  `json:"comment"`
	TypeTime    string  `json:"type_time"`
	TypeFilling string  `json:"type_filling"`
	Position    int64   `json:"position,omitempty"`
}

type orderResponsePayload struct {
	RetCode int64   `json:"retcode"`
	Comment string  `json:"comment"`
	Order   int64   `json:"order"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
}

// --- BrokerGateway implementation ---

// Connect logs in to the terminal through the bridge.
func (c *Client) Connect(ctx context.Context) error {
	var resp connectResponse
	err := c.post(ctx, "/connect", connectRequest{
		Login:    c.login,
		Password: c.password,
		Server:   c.server,
	}, &resp)
	if err != nil {
		return fmt.Errorf("connect: %v: %w", err, ports.ErrConnectionFailed)
	}
	if !resp.Connected {
		return fmt.Errorf("connect: terminal refused login (%s): %w", resp.Message, ports.ErrConnectionFailed)
	}
	c.logger.Info(ctx, "Terminal connection established", map[string]interface{}{"server": c.server, "login": c.login})
	return nil
}

// Disconnect releases the terminal connection. Best effort; the bridge
// drops the session on its side regardless.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.post(ctx, "/disconnect", struct{}{}, nil); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	c.logger.Info(ctx, "Terminal connection released")
	return nil
}

// GetCandles retrieves the most recent count bars, ordered most-recent-last.
func (c *Client) GetCandles(ctx context.Context, symbol string, timeframe domain.Timeframe, count int) ([]domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("timeframe", string(timeframe))
	q.Set("count", strconv.Itoa(count))

	var payload []candlePayload
	if err := c.get(ctx, "/candles", q, &payload); err != nil {
		return nil, fmt.Errorf("candles %s/%s: %w", symbol, timeframe, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("candles %s/%s returned empty: %w", symbol, timeframe, ports.ErrDataUnavailable)
	}

	candles := make([]domain.Candle, len(payload))
	for i, p := range payload {
		candles[i] = domain.Candle{
			OpenTime: time.Unix(p.Time, 0).UTC(),
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    p.Close,
		}
	}
	return candles, nil
}

// GetSymbolInfo retrieves instrument metadata.
func (c *Client) GetSymbolInfo(ctx context.Context, symbol string) (*ports.SymbolInfo, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var payload symbolInfoPayload
	if err := c.get(ctx, "/symbol_info", q, &payload); err != nil {
		return nil, fmt.Errorf("symbol info %s: %w", symbol, err)
	}
	if payload.Point <= 0 {
		return nil, fmt.Errorf("symbol info %s reported point=%v: %w", symbol, payload.Point, ports.ErrDataUnavailable)
	}
	return &ports.SymbolInfo{
		Symbol:        payload.Symbol,
		TickSize:      payload.Point,
		MinVolume:     payload.VolumeMin,
		MinStopPoints: payload.StopsLevel,
		Digits:        payload.Digits,
	}, nil
}

// GetTick retrieves the current bid/ask quote.
func (c *Client) GetTick(ctx context.Context, symbol string) (*ports.Tick, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var payload tickPayload
	if err := c.get(ctx, "/tick", q, &payload); err != nil {
		return nil, fmt.Errorf("tick %s: %w", symbol, err)
	}
	if payload.Bid <= 0 || payload.Ask <= 0 {
		return nil, fmt.Errorf("tick %s returned empty quote: %w", symbol, ports.ErrDataUnavailable)
	}
	return &ports.Tick{Bid: payload.Bid, Ask: payload.Ask}, nil
}

// GetAccountInfo retrieves current account figures.
func (c *Client) GetAccountInfo(ctx context.Context) (*ports.AccountInfo, error) {
	var payload accountPayload
	if err := c.get(ctx, "/account", nil, &payload); err != nil {
		return nil, fmt.Errorf("account info: %w", err)
	}
	return &ports.AccountInfo{
		Balance:    payload.Balance,
		Equity:     payload.Equity,
		FreeMargin: payload.FreeMargin,
		Currency:   payload.Currency,
	}, nil
}

// CalcRequiredMargin computes margin for the candidate order.
func (c *Client) CalcRequiredMargin(ctx context.Context, direction domain.Direction, symbol string, volume, price float64) (float64, error) {
	var resp marginResponse
	err := c.post(ctx, "/margin", marginRequest{
		Action: string(direction),
		Symbol: symbol,
		Volume: volume,
		Price:  price,
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("margin calc %s %s: %w", direction, symbol, err)
	}
	return resp.Margin, nil
}

// ListPositions enumerates open positions for the symbol carrying the magic
// tag. The bridge filters on magic so positions from other actors sharing
// the account are never returned.
func (c *Client) ListPositions(ctx context.Context, symbol string, magic int64) ([]domain.Position, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("magic", strconv.FormatInt(magic, 10))

	var payload []positionPayload
	if err := c.get(ctx, "/positions", q, &payload); err != nil {
		return nil, fmt.Errorf("positions %s: %w", symbol, err)
	}

	positions := make([]domain.Position, 0, len(payload))
	for _, p := range payload {
		positions = append(positions, domain.Position{
			Ticket:    p.Ticket,
			Symbol:    p.Symbol,
			Direction: domain.Direction(p.Type),
			Volume:    p.Volume,
			OpenPrice: p.PriceOpen,
			Profit:    p.Profit,
			Magic:     p.Magic,
			OpenTime:  time.Unix(p.Time, 0).UTC(),
		})
	}
	return positions, nil
}

// SubmitOrder sends a market order through the bridge. A receipt with a
// failing retcode is returned together with ErrOrderRejected so the caller
// can log the broker's reason.
func (c *Client) SubmitOrder(ctx context.Context, req *ports.OrderRequest) (*ports.OrderReceipt, error) {
	var resp orderResponsePayload
	err := c.post(ctx, "/order", orderRequestPayload{
		Symbol:      req.Symbol,
		Volume:      req.Volume,
		Type:        string(req.Direction),
		Price:       req.Price,
		StopLoss:    req.StopLoss,
		TakeProfit:  req.TakeProfit,
		Magic:       req.Magic,
		Comment:     req.Comment,
		TypeTime:    string(req.TimePolicy),
		TypeFilling: string(req.FillPolicy),
		Position:    req.PositionTicket,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("order %s %s: %w", req.Direction, req.Symbol, err)
	}

	receipt := &ports.OrderReceipt{
		RetCode: resp.RetCode,
		Reason:  resp.Comment,
		OrderID: resp.Order,
		Price:   resp.Price,
		Volume:  resp.Volume,
	}
	if !receipt.Done() {
		return receipt, fmt.Errorf("order %s %s: retcode=%d comment=%q: %w",
			req.Direction, req.Symbol, resp.RetCode, resp.Comment, ports.ErrOrderRejected)
	}
	return receipt, nil
}

// --- HTTP plumbing ---

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	// Correlation ID so bridge-side logs can be matched to ours.
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bridge request %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bridge response %s unreadable: %w", req.URL.Path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge %s returned status %d: %s", req.URL.Path, resp.StatusCode, truncate(raw, 200))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bridge %s returned malformed JSON: %w", req.URL.Path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
