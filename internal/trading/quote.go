package trading

import (
	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

// quoteFor returns the tradable price for a direction: ask to buy, bid to
// sell. Closing orders pass the closing side, so a long closes at the bid.
func quoteFor(tick *ports.Tick, direction domain.Direction) float64 {
	if direction == domain.Buy {
		return tick.Ask
	}
	return tick.Bid
}
