package trading

import (
	"context"
	"fmt"
	"time"

	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

// ManagerConfig holds the order-construction policy for the position manager.
type ManagerConfig struct {
	Magic              int64              // Identifying tag attached to every order
	LotSize            float64            // Flat lot size; 0 means use LotSizes
	LotSizes           map[string]float64 // Per-symbol lot sizes, used when LotSize is 0
	TargetStopPoints   float64            // Configured SL/TP distance in points
	FallbackStopPoints float64            // Substituted when the broker reports a zero minimum
	MarginCheck        bool               // Gate opens on free margin
	OrderComment       string             // Comment attached to submitted orders
}

// Manager opens and closes positions against the broker gateway. It holds
// no position state of its own; the gateway remains the authority on what
// is open.
type Manager struct {
	gateway ports.BrokerGateway
	logger  ports.Logger
	journal ports.TradeJournal // optional, best-effort
	cfg     ManagerConfig
}

// NewManager creates a position manager. The journal may be nil.
func NewManager(gateway ports.BrokerGateway, logger ports.Logger, journal ports.TradeJournal, cfg ManagerConfig) (*Manager, error) {
	if gateway == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Manager")
	}
	if cfg.Magic == 0 {
		return nil, fmt.Errorf("configuration Magic must be set so the bot only manages its own positions")
	}
	if cfg.TargetStopPoints <= 0 {
		return nil, fmt.Errorf("configuration TargetStopPoints must be positive")
	}
	if cfg.FallbackStopPoints <= 0 {
		return nil, fmt.Errorf("configuration FallbackStopPoints must be positive")
	}
	return &Manager{gateway: gateway, logger: logger, journal: journal, cfg: cfg}, nil
}

// ResolveStopDistance resolves the SL/TP distance in points. The broker's
// enforced minimum wins over a smaller configured target; a zero broker
// minimum is not trusted and is replaced by the configured fallback.
func ResolveStopDistance(target, brokerMin, fallback float64) float64 {
	effectiveMin := brokerMin
	if effectiveMin == 0 {
		effectiveMin = fallback
	}
	if target > effectiveMin {
		return target
	}
	return effectiveMin
}

// Open submits a market order in the given direction for the symbol.
// The order carries the bot's magic tag and SL/TP computed from the
// resolved stop distance. No order is submitted when the margin gate fails.
func (m *Manager) Open(ctx context.Context, symbol string, direction domain.Direction) (*ports.OrderReceipt, error) {
	op := "open"
	if !direction.IsValid() {
		return nil, fmt.Errorf("%s %s: direction %q: %w", op, symbol, direction, ports.ErrInvalidDirection)
	}

	volume, err := m.lotFor(symbol)
	if err != nil {
		return nil, err
	}

	info, err := m.gateway.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s %s: symbol info: %w", op, symbol, err)
	}
	if volume < info.MinVolume {
		m.logger.Debug(ctx, "Lot size below broker minimum, raising", map[string]interface{}{
			"symbol": symbol, "configured": volume, "minVolume": info.MinVolume,
		})
		volume = info.MinVolume
	}

	tick, err := m.gateway.GetTick(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s %s: tick: %w", op, symbol, err)
	}
	price := quoteFor(tick, direction)

	if m.cfg.MarginCheck {
		required, err := m.gateway.CalcRequiredMargin(ctx, direction, symbol, volume, price)
		if err != nil {
			return nil, fmt.Errorf("%s %s: margin calc: %w", op, symbol, err)
		}
		account, err := m.gateway.GetAccountInfo(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s %s: account info: %w", op, symbol, err)
		}
		if required > account.FreeMargin {
			return nil, fmt.Errorf("%s %s: required %.2f exceeds free %.2f: %w",
				op, symbol, required, account.FreeMargin, ports.ErrInsufficientMargin)
		}
	}

	distance := ResolveStopDistance(m.cfg.TargetStopPoints, info.MinStopPoints, m.cfg.FallbackStopPoints) * info.TickSize
	var stopLoss, takeProfit float64
	if direction == domain.Buy {
		stopLoss, takeProfit = price-distance, price+distance
	} else {
		stopLoss, takeProfit = price+distance, price-distance
	}

	m.logger.Info(ctx, "Submitting open order", map[string]interface{}{
		"symbol": symbol, "direction": direction, "volume": volume,
		"price": price, "stopLoss": stopLoss, "takeProfit": takeProfit,
	})

	receipt, err := m.gateway.SubmitOrder(ctx, &ports.OrderRequest{
		Symbol:     symbol,
		Volume:     volume,
		Direction:  direction,
		Price:      price,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Magic:      m.cfg.Magic,
		Comment:    m.cfg.OrderComment,
		TimePolicy: ports.TimeGTC,
		FillPolicy: ports.FillIOC,
	})
	if err != nil {
		return receipt, fmt.Errorf("%s %s: %w", op, symbol, err)
	}
	if !receipt.Done() {
		return receipt, fmt.Errorf("%s %s: retcode=%d comment=%q: %w",
			op, symbol, receipt.RetCode, receipt.Reason, ports.ErrOrderRejected)
	}

	m.recordOpen(ctx, symbol, direction, receipt, volume, price)
	return receipt, nil
}

// Close submits an opposing market order for the position's full volume,
// linked to the position's ticket, at the opposite-side quote.
func (m *Manager) Close(ctx context.Context, pos domain.Position, reason domain.CloseReason) (*ports.OrderReceipt, error) {
	op := "close"
	closeSide := pos.Direction.Opposite()

	tick, err := m.gateway.GetTick(ctx, pos.Symbol)
	if err != nil {
		return nil, fmt.Errorf("%s #%d: tick: %w", op, pos.Ticket, err)
	}
	price := quoteFor(tick, closeSide)

	m.logger.Info(ctx, "Submitting close order", map[string]interface{}{
		"ticket": pos.Ticket, "symbol": pos.Symbol, "direction": closeSide,
		"volume": pos.Volume, "price": price, "reason": reason,
	})

	receipt, err := m.gateway.SubmitOrder(ctx, &ports.OrderRequest{
		Symbol:         pos.Symbol,
		Volume:         pos.Volume,
		Direction:      closeSide,
		Price:          price,
		Magic:          m.cfg.Magic,
		Comment:        m.cfg.OrderComment,
		TimePolicy:     ports.TimeGTC,
		FillPolicy:     ports.FillIOC,
		PositionTicket: pos.Ticket,
	})
	if err != nil {
		return receipt, fmt.Errorf("%s #%d: %w", op, pos.Ticket, err)
	}
	if !receipt.Done() {
		return receipt, fmt.Errorf("%s #%d: retcode=%d comment=%q: %w",
			op, pos.Ticket, receipt.RetCode, receipt.Reason, ports.ErrOrderRejected)
	}

	m.recordClose(ctx, pos, receipt, price, reason)
	return receipt, nil
}

// lotFor resolves the lot size: flat if configured, otherwise the
// per-symbol mapping.
func (m *Manager) lotFor(symbol string) (float64, error) {
	if m.cfg.LotSize > 0 {
		return m.cfg.LotSize, nil
	}
	if lot, ok := m.cfg.LotSizes[symbol]; ok && lot > 0 {
		return lot, nil
	}
	return 0, fmt.Errorf("no lot size configured for symbol %s: %w", symbol, ports.ErrConfigError)
}

func (m *Manager) recordOpen(ctx context.Context, symbol string, direction domain.Direction, receipt *ports.OrderReceipt, volume, price float64) {
	if m.journal == nil {
		return
	}
	fillPrice := receipt.Price
	if fillPrice == 0 {
		fillPrice = price
	}
	fillVolume := receipt.Volume
	if fillVolume == 0 {
		fillVolume = volume
	}
	if _, err := m.journal.RecordOpen(ctx, &domain.TradeRecord{
		Ticket:    receipt.OrderID,
		Symbol:    symbol,
		Direction: direction,
		Volume:    fillVolume,
		OpenPrice: fillPrice,
		OpenTime:  time.Now().UTC(),
	}); err != nil {
		m.logger.Warn(ctx, "Failed to journal open", map[string]interface{}{"ticket": receipt.OrderID, "error": err.Error()})
	}
}

func (m *Manager) recordClose(ctx context.Context, pos domain.Position, receipt *ports.OrderReceipt, price float64, reason domain.CloseReason) {
	if m.journal == nil {
		return
	}
	fillPrice := receipt.Price
	if fillPrice == 0 {
		fillPrice = price
	}
	if err := m.journal.RecordClose(ctx, pos.Ticket, fillPrice, pos.Profit, reason); err != nil {
		m.logger.Warn(ctx, "Failed to journal close", map[string]interface{}{"ticket": pos.Ticket, "error": err.Error()})
	}
}
