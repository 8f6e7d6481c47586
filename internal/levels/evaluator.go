package levels

import "levelbot/internal/domain"

const defaultToleranceTicks = 10

// Evaluator turns the current price into at most one directional signal per
// call by consulting the level store with a tick-sized tolerance. It holds
// no state of its own beyond the store reference.
type Evaluator struct {
	store          *Store
	toleranceTicks float64
}

// NewEvaluator creates an evaluator over the given store. toleranceTicks is
// the touch tolerance expressed in instrument ticks; values <= 0 use the
// default of 10 ticks.
func NewEvaluator(store *Store, toleranceTicks float64) *Evaluator {
	if toleranceTicks <= 0 {
		toleranceTicks = defaultToleranceTicks
	}
	return &Evaluator{store: store, toleranceTicks: toleranceTicks}
}

// Evaluate checks whether the current price touches any stored level.
// The touched level is consumed by the store and cannot fire again.
func (e *Evaluator) Evaluate(currentPrice, tickSize float64) (domain.Signal, bool) {
	return e.store.Check(currentPrice, e.toleranceTicks*tickSize)
}
