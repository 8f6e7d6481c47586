package domain

import "time"

// TradeRecord is an append-only journal entry describing one open or close
// event. Records exist for post-run review only; trading decisions never
// read them back — the gateway stays authoritative for open positions.
type TradeRecord struct {
	ID         int64       // Assigned by the journal
	Ticket     int64       // Broker ticket of the position
	Symbol     string      // Traded instrument
	Direction  Direction   // Side of the position
	Volume     float64     // Size in lots
	OpenPrice  float64     // Fill price at open
	ClosePrice float64     // Fill price at close (0 while open)
	Profit     float64     // Realized profit in account currency (0 while open)
	Reason     CloseReason // Why the position was closed (empty while open)
	OpenTime   time.Time
	CloseTime  time.Time // Zero value while open
}
