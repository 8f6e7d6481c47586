// Package binanceclient is a read-only market-data client used by the
// fetchcandles tool to pull reference candle history for offline detector
// tuning. It never places orders; live trading goes through the terminal
// bridge gateway.
package binanceclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

// Client wraps the Binance spot API for historical candle retrieval.
type Client struct {
	api    *binance.Client
	logger ports.Logger
}

// Config holds configuration for the reference-data client. Keys are
// optional; kline endpoints are public.
type Config struct {
	APIKey    string
	SecretKey string
	Logger    ports.Logger
}

// New creates a reference-data client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for binance client")
	}
	return &Client{
		api:    binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger: cfg.Logger,
	}, nil
}

// GetCandles retrieves the most recent limit candles for the symbol and
// interval (Binance notation, e.g. "1m", "5m"), ordered most-recent-last.
func (c *Client) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]domain.Candle, error) {
	klines, err := c.api.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("klines %s/%s: %w", symbol, interval, err)
	}
	return translateKlines(klines)
}

// GetCandleRange fetches all candles between start and end, paging through
// the API's per-request limit.
func (c *Client) GetCandleRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Candle, error) {
	const maxLimit = 1000
	var all []domain.Candle
	from := start

	for {
		klines, err := c.api.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("klines range %s/%s: %w", symbol, interval, err)
		}
		if len(klines) == 0 {
			break
		}
		candles, err := translateKlines(klines)
		if err != nil {
			return nil, err
		}
		all = append(all, candles...)

		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}
	return all, nil
}

func translateKlines(klines []*binance.Kline) ([]domain.Candle, error) {
	out := make([]domain.Candle, 0, len(klines))
	for _, k := range klines {
		open, err := strconv.ParseFloat(k.Open, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed open price %q: %w", k.Open, err)
		}
		high, err := strconv.ParseFloat(k.High, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed high price %q: %w", k.High, err)
		}
		low, err := strconv.ParseFloat(k.Low, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed low price %q: %w", k.Low, err)
		}
		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed close price %q: %w", k.Close, err)
		}
		out = append(out, domain.Candle{
			OpenTime: time.UnixMilli(k.OpenTime).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
		})
	}
	return out, nil
}
