package ports

import (
	"context"

	"levelbot/internal/domain"
)

// SymbolInfo holds the instrument metadata the bot needs to size and
// price orders.
type SymbolInfo struct {
	Symbol        string
	TickSize      float64 // Smallest quoted price increment (a "point")
	MinVolume     float64 // Broker's minimum order size in lots
	MinStopPoints float64 // Broker-enforced minimum SL/TP distance, in points (0 = not reported)
	Digits        int     // Quoted decimal places, for display formatting
}

// Tick is the current top-of-book quote for an instrument.
type Tick struct {
	Bid float64
	Ask float64
}

// AccountInfo holds the account figures consulted before opening a trade.
type AccountInfo struct {
	Balance    float64
	Equity     float64
	FreeMargin float64
	Currency   string
}

// TimePolicy and FillPolicy mirror the terminal's order expiration and
// fill modes. The bot only uses GTC/IOC.
type (
	TimePolicy string
	FillPolicy string
)

const (
	TimeGTC TimePolicy = "GTC"
	FillIOC FillPolicy = "IOC"
)

// OrderRequest describes one market order submission. For closes,
// PositionTicket links the opposing order to the position being closed.
type OrderRequest struct {
	Symbol         string
	Volume         float64
	Direction      domain.Direction
	Price          float64
	StopLoss       float64 // 0 = not set
	TakeProfit     float64 // 0 = not set
	Magic          int64   // Identifying tag; monitoring only touches our own positions
	Comment        string
	TimePolicy     TimePolicy
	FillPolicy     FillPolicy
	PositionTicket int64 // Non-zero only when closing an existing position
}

// OrderReceipt is the broker's response to an order submission.
type OrderReceipt struct {
	RetCode int64  // Broker status code; RetCodeDone on success
	Reason  string // Broker comment explaining a rejection
	OrderID int64  // Ticket assigned to the resulting order/position
	Price   float64
	Volume  float64
}

// RetCodeDone is the terminal's status code for a completed deal.
const RetCodeDone = 10009

// Done reports whether the order was accepted and executed.
func (r *OrderReceipt) Done() bool {
	return r != nil && r.RetCode == RetCodeDone
}

// BrokerGateway defines the interface to the brokerage trading terminal.
// Every call is blocking; the bot is a single-actor polling system and
// re-reads gateway state fresh each cycle rather than caching it.
type BrokerGateway interface {
	// Connect logs in to the terminal. Failure is fatal at startup.
	Connect(ctx context.Context) error

	// Disconnect releases the terminal connection. Called on every exit
	// path, including the error path.
	Disconnect(ctx context.Context) error

	// GetCandles retrieves the most recent count bars for the symbol and
	// timeframe, ordered most-recent-last.
	GetCandles(ctx context.Context, symbol string, timeframe domain.Timeframe, count int) ([]domain.Candle, error)

	// GetSymbolInfo retrieves instrument metadata.
	GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)

	// GetTick retrieves the current bid/ask quote.
	GetTick(ctx context.Context, symbol string) (*Tick, error)

	// GetAccountInfo retrieves current account figures.
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)

	// CalcRequiredMargin computes the margin required to open the candidate
	// order, in account currency.
	CalcRequiredMargin(ctx context.Context, direction domain.Direction, symbol string, volume, price float64) (float64, error)

	// ListPositions enumerates open positions for the symbol carrying the
	// given magic tag. Positions opened by other actors are never returned.
	ListPositions(ctx context.Context, symbol string, magic int64) ([]domain.Position, error)

	// SubmitOrder sends a market order. A non-nil receipt with a failing
	// RetCode is returned together with ErrOrderRejected.
	SubmitOrder(ctx context.Context, req *OrderRequest) (*OrderReceipt, error)
}
