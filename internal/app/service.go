package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"levelbot/config"
	"levelbot/internal/domain"
	"levelbot/internal/levels"
	"levelbot/internal/metrics"
	"levelbot/internal/ports"
	"levelbot/internal/scanner"
	"levelbot/internal/trading"
)

// TradingService drives the trading cadence for one symbol: time-gated
// level scans, per-cycle position monitoring against the profit target and
// capacity-checked signal evaluation. There is exactly one logical actor;
// every phase of a cycle runs strictly sequentially and gateway state is
// re-read fresh each cycle.
type TradingService struct {
	cfg       *config.Config
	logger    ports.Logger
	gateway   ports.BrokerGateway
	store     *levels.Store
	evaluator *levels.Evaluator
	scanner   *scanner.Scanner
	manager   *trading.Manager
	symbol    string

	// Instrument metadata is static for a run; fetched once at start.
	tickSize float64

	lastSlowScan time.Time
	lastFastScan time.Time
}

// NewTradingService creates the orchestrating service for one symbol.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	gateway ports.BrokerGateway,
	store *levels.Store,
	evaluator *levels.Evaluator,
	scan *scanner.Scanner,
	manager *trading.Manager,
	symbol string,
) (*TradingService, error) {
	if cfg == nil || logger == nil || gateway == nil || store == nil || evaluator == nil || scan == nil || manager == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}
	if symbol == "" {
		return nil, fmt.Errorf("symbol must be selected before starting the service")
	}
	if cfg.MaxTrades <= 0 {
		return nil, fmt.Errorf("configuration MaxTrades must be positive")
	}
	if cfg.ProfitTarget <= 0 {
		return nil, fmt.Errorf("configuration ProfitTarget must be positive")
	}
	return &TradingService{
		cfg:       cfg,
		logger:    logger,
		gateway:   gateway,
		store:     store,
		evaluator: evaluator,
		scanner:   scan,
		manager:   manager,
		symbol:    symbol,
	}, nil
}

// Start runs the trading loop until the context is cancelled or an
// interrupt arrives. The caller owns the gateway connection and is
// responsible for disconnecting on every exit path.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting trading service", map[string]interface{}{
		"symbol":    s.symbol,
		"maxTrades": s.cfg.MaxTrades,
		"policy":    s.cfg.ProfitPolicy,
		"target":    s.cfg.ProfitTarget,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	info, err := s.gateway.GetSymbolInfo(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("failed to load symbol info for %s: %w", s.symbol, err)
	}
	if info.TickSize <= 0 {
		return fmt.Errorf("symbol %s reports a non-positive tick size", s.symbol)
	}
	s.tickSize = info.TickSize
	s.logger.Info(ctx, "Symbol metadata loaded", map[string]interface{}{
		"symbol":        s.symbol,
		"tickSize":      info.TickSize,
		"minVolume":     info.MinVolume,
		"minStopPoints": info.MinStopPoints,
	})

	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Trading service stopped")
			return nil
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

// cycle runs one iteration: time-gated scans, position monitoring and, if
// capacity remains, one signal evaluation with at most one open attempt.
// Per-cycle failures are logged and skipped; the loop never dies on them.
func (s *TradingService) cycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.runScans(ctx)

	positions, err := s.gateway.ListPositions(ctx, s.symbol, s.cfg.Magic)
	if err != nil {
		s.logger.Warn(ctx, "Failed to list positions, skipping cycle", map[string]interface{}{"error": err.Error()})
		return
	}

	open := len(positions)
	floating := 0.0
	for _, pos := range positions {
		floating += pos.Profit
		if s.monitorPosition(ctx, pos) {
			open--
		}
	}
	metrics.SetOpenPositions(open)
	metrics.SetFloatingProfit(floating)

	if open >= s.cfg.MaxTrades {
		s.logger.Debug(ctx, "At capacity, not evaluating signals", map[string]interface{}{
			"open": open, "maxTrades": s.cfg.MaxTrades,
		})
		return
	}
	s.evaluateAndOpen(ctx)
}

// runScans triggers the slow and fast detectors when their wall-clock
// cadences elapse, measured from the last run, not from candle boundaries.
func (s *TradingService) runScans(ctx context.Context) {
	now := time.Now()

	if now.Sub(s.lastSlowScan) >= s.cfg.SlowScanInterval {
		s.lastSlowScan = now
		found, err := s.scanner.ScanSlow(ctx, s.symbol)
		if err != nil {
			s.logger.Warn(ctx, "Slow scan failed", map[string]interface{}{"error": err.Error()})
		} else if len(found) > 0 {
			s.store.Update(found)
			s.logger.Info(ctx, "Slow scan updated levels", map[string]interface{}{
				"found": len(found), "active": s.store.Len(),
			})
		}
	}

	if now.Sub(s.lastFastScan) >= s.cfg.FastScanInterval {
		s.lastFastScan = now
		found, err := s.scanner.ScanFast(ctx, s.symbol)
		if err != nil {
			s.logger.Warn(ctx, "Fast scan failed", map[string]interface{}{"error": err.Error()})
		} else if len(found) > 0 {
			s.store.Update(found)
			s.logger.Info(ctx, "Fast scan updated levels", map[string]interface{}{
				"found": len(found), "active": s.store.Len(),
			})
		}
	}

	metrics.SetActiveLevels(s.store.Len())
}

// monitorPosition closes the position when |profit| under the configured
// policy reaches the target. Returns true when the position was closed.
func (s *TradingService) monitorPosition(ctx context.Context, pos domain.Position) bool {
	profit, err := s.profitOf(ctx, pos)
	if err != nil {
		s.logger.Warn(ctx, "Failed to compute position profit", map[string]interface{}{
			"ticket": pos.Ticket, "error": err.Error(),
		})
		return false
	}
	if math.Abs(profit) < s.cfg.ProfitTarget {
		return false
	}

	reason := domain.CloseReasonTargetProfit
	if profit < 0 {
		reason = domain.CloseReasonTargetLoss
	}
	s.logger.Info(ctx, "Profit target reached, closing position", map[string]interface{}{
		"ticket": pos.Ticket, "profit": profit, "target": s.cfg.ProfitTarget, "reason": reason,
	})

	if _, err := s.manager.Close(ctx, pos, reason); err != nil {
		s.logger.Error(ctx, err, "Failed to close position", map[string]interface{}{"ticket": pos.Ticket})
		return false
	}
	metrics.IncClose(string(reason))
	return true
}

// profitOf measures a position's profit under the configured policy:
// account currency as reported by the gateway, or signed price distance in
// points from the open price.
func (s *TradingService) profitOf(ctx context.Context, pos domain.Position) (float64, error) {
	if s.cfg.ProfitPolicy == config.PolicyCurrency {
		return pos.Profit, nil
	}

	tick, err := s.gateway.GetTick(ctx, pos.Symbol)
	if err != nil {
		return 0, err
	}
	// A long exits at the bid, a short at the ask.
	if pos.Direction == domain.Buy {
		return (tick.Bid - pos.OpenPrice) / s.tickSize, nil
	}
	return (pos.OpenPrice - tick.Ask) / s.tickSize, nil
}

// evaluateAndOpen runs one signal evaluation and attempts at most one open.
func (s *TradingService) evaluateAndOpen(ctx context.Context) {
	tick, err := s.gateway.GetTick(ctx, s.symbol)
	if err != nil {
		s.logger.Warn(ctx, "Failed to fetch tick, skipping evaluation", map[string]interface{}{"error": err.Error()})
		return
	}
	price := (tick.Bid + tick.Ask) / 2

	sig, ok := s.evaluator.Evaluate(price, s.tickSize)
	if !ok {
		return
	}
	metrics.IncSignal(string(sig.Direction), string(sig.Source))
	s.logger.Info(ctx, "Level touched, signal produced", map[string]interface{}{
		"direction": sig.Direction, "level": sig.Level, "source": sig.Source, "price": price,
	})

	receipt, err := s.manager.Open(ctx, s.symbol, sig.Direction)
	switch {
	case err == nil:
		metrics.IncOrder("opened")
		s.logger.Info(ctx, "Position opened", map[string]interface{}{"ticket": receipt.OrderID})
	case errors.Is(err, ports.ErrInsufficientMargin), errors.Is(err, ports.ErrConfigError):
		metrics.IncOrder("skipped")
		s.logger.Warn(ctx, "Open attempt skipped", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, ports.ErrOrderRejected):
		metrics.IncOrder("rejected")
		s.logger.Error(ctx, err, "Broker rejected order; will re-evaluate next cycle")
	default:
		metrics.IncOrder("rejected")
		s.logger.Error(ctx, err, "Open attempt failed")
	}
}
