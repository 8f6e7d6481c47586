package ports

import (
	"context"

	"levelbot/internal/domain"
)

// TradeJournal records open and close events for post-run review.
// The journal is write-mostly: nothing in the trading path reads it back,
// so a journal failure never blocks an order.
type TradeJournal interface {
	// RecordOpen appends a record for a newly opened position and returns
	// its assigned ID.
	RecordOpen(ctx context.Context, rec *domain.TradeRecord) (int64, error)
	// RecordClose fills in the close fields of the record for the ticket.
	RecordClose(ctx context.Context, ticket int64, closePrice, profit float64, reason domain.CloseReason) error
	// RecentTrades returns the most recent records, newest first, up to limit.
	RecentTrades(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}
