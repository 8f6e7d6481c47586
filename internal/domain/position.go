package domain

import "time"

// Position is an open trade as reported by the broker gateway. The gateway
// owns the position lifecycle: positions may be closed externally (manual
// intervention, broker stop-out), so the open set is always re-derived from
// the gateway rather than trusted from local memory.
type Position struct {
	Ticket    int64     // Broker ticket identifying the position
	Symbol    string    // Traded instrument
	Direction Direction // Side the position was opened on
	Volume    float64   // Position size in lots
	OpenPrice float64   // Fill price at open
	Profit    float64   // Current floating profit in account currency
	Magic     int64     // Tag of the actor that opened the position
	OpenTime  time.Time // Timestamp the position was opened
}
