package scanner

import (
	"context"
	"fmt"

	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

// Config holds the scanner parameters. Zero values fall back to the
// defaults the detectors were tuned with.
type Config struct {
	SlowTimeframe   domain.Timeframe // default M5
	FastTimeframe   domain.Timeframe // default M1
	SlowFetchCount  int              // candles fetched for the fractal pass, default 200
	FastFetchCount  int              // candles fetched for the gap pass, default 50
	FractalWindow   int              // most recent candles searched for fractals, default 100
	FractalLookback int              // symmetric fractal window half-width, default 2
	BreakLookback   int              // structure-break window, default 15
	MinGapTicks     float64          // minimum gap width in ticks, default 3
}

func (c *Config) applyDefaults() {
	if c.SlowTimeframe == "" {
		c.SlowTimeframe = domain.TimeframeM5
	}
	if c.FastTimeframe == "" {
		c.FastTimeframe = domain.TimeframeM1
	}
	if c.SlowFetchCount <= 0 {
		c.SlowFetchCount = 200
	}
	if c.FastFetchCount <= 0 {
		c.FastFetchCount = 50
	}
	if c.FractalWindow <= 0 {
		c.FractalWindow = 100
	}
	if c.FractalLookback <= 0 {
		c.FractalLookback = 2
	}
	if c.BreakLookback <= 0 {
		c.BreakLookback = 15
	}
	if c.MinGapTicks <= 0 {
		c.MinGapTicks = 3
	}
}

// Scanner recomputes price levels from historical candles. The two passes
// run on independent cadences driven by the orchestrator: ScanSlow finds
// fractal pivots on the slow timeframe, ScanFast finds fair-value gaps on
// the fast timeframe gated by a structure break.
type Scanner struct {
	gateway ports.BrokerGateway
	logger  ports.Logger
	cfg     Config
}

// New creates a scanner over the given gateway.
func New(gateway ports.BrokerGateway, logger ports.Logger, cfg Config) (*Scanner, error) {
	if gateway == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Scanner")
	}
	cfg.applyDefaults()
	return &Scanner{gateway: gateway, logger: logger, cfg: cfg}, nil
}

// ScanSlow fetches slow-timeframe candles and returns fractal pivot levels.
func (s *Scanner) ScanSlow(ctx context.Context, symbol string) ([]domain.PriceLevel, error) {
	candles, err := s.gateway.GetCandles(ctx, symbol, s.cfg.SlowTimeframe, s.cfg.SlowFetchCount)
	if err != nil {
		return nil, fmt.Errorf("slow scan: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("slow scan %s/%s: %w", symbol, s.cfg.SlowTimeframe, ports.ErrDataUnavailable)
	}

	found := FindFractals(candles, s.cfg.FractalWindow, s.cfg.FractalLookback)
	s.logger.Debug(ctx, "Slow scan complete", map[string]interface{}{
		"symbol":  symbol,
		"candles": len(candles),
		"levels":  len(found),
	})
	return found, nil
}

// ScanFast fetches fast-timeframe candles, checks for a structure break and
// returns the qualifying gap levels. No break means no levels this cycle.
func (s *Scanner) ScanFast(ctx context.Context, symbol string) ([]domain.PriceLevel, error) {
	candles, err := s.gateway.GetCandles(ctx, symbol, s.cfg.FastTimeframe, s.cfg.FastFetchCount)
	if err != nil {
		return nil, fmt.Errorf("fast scan: %w", err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("fast scan %s/%s: %w", symbol, s.cfg.FastTimeframe, ports.ErrDataUnavailable)
	}

	breakDir, ok := DetectStructureBreak(candles, s.cfg.BreakLookback)
	if !ok {
		s.logger.Debug(ctx, "No structure break this cycle", map[string]interface{}{"symbol": symbol})
		return nil, nil
	}

	info, err := s.gateway.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fast scan symbol info: %w", err)
	}

	found := FindGapLevels(candles, breakDir, s.cfg.MinGapTicks*info.TickSize)
	s.logger.Debug(ctx, "Fast scan complete", map[string]interface{}{
		"symbol": symbol,
		"break":  breakDir,
		"levels": len(found),
	})
	return found, nil
}
