package levels

import (
	"math"

	"levelbot/internal/domain"
)

// Priority decides which level wins when several stored levels fall within
// tolerance of the current price in the same cycle.
type Priority string

const (
	// PriorityNearest picks the level closest to the current price.
	PriorityNearest Priority = "nearest"
	// PrioritySlow prefers slow-timeframe fractal levels over gap levels.
	PrioritySlow Priority = "slow"
	// PriorityFast prefers fast-timeframe gap levels over fractal levels.
	PriorityFast Priority = "fast"
)

type entry struct {
	direction domain.Direction
	source    domain.LevelSource
}

// Store holds the active price levels discovered by the scanner, keyed by
// exact price. A level fires at most once: Check removes the level it
// returns. The store is not safe for concurrent use; the trading loop is
// the only actor and runs strictly sequentially.
type Store struct {
	priority Priority
	levels   map[float64]entry
}

// NewStore creates an empty level store with the given tie-break priority.
func NewStore(priority Priority) *Store {
	if priority == "" {
		priority = PriorityNearest
	}
	return &Store{
		priority: priority,
		levels:   make(map[float64]entry),
	}
}

// Update merges freshly scanned levels into the store. A later level at the
// same exact price overwrites the earlier one (last-writer-wins).
func (s *Store) Update(newLevels []domain.PriceLevel) {
	for _, lvl := range newLevels {
		s.levels[lvl.Price] = entry{direction: lvl.Direction, source: lvl.Source}
	}
}

// Len returns the number of active levels.
func (s *Store) Len() int {
	return len(s.levels)
}

// Check scans the stored levels for one whose absolute distance to price is
// strictly less than tolerance. Exactly one level fires per call; the fired
// level is removed so it cannot re-trigger. Tie-break is deterministic:
// the configured source priority first, then the nearest level, then the
// lower price.
func (s *Store) Check(price, tolerance float64) (domain.Signal, bool) {
	var (
		found     bool
		bestPrice float64
		bestDist  float64
		best      entry
	)

	for lvlPrice, e := range s.levels {
		dist := math.Abs(price - lvlPrice)
		if dist >= tolerance {
			continue
		}
		if !found {
			found, bestPrice, bestDist, best = true, lvlPrice, dist, e
			continue
		}
		if s.better(lvlPrice, dist, e, bestPrice, bestDist, best) {
			bestPrice, bestDist, best = lvlPrice, dist, e
		}
	}

	if !found {
		return domain.Signal{}, false
	}

	delete(s.levels, bestPrice)
	return domain.Signal{
		Direction: best.direction,
		Level:     bestPrice,
		Source:    best.source,
	}, true
}

// better reports whether candidate (price, dist, e) beats the current best.
func (s *Store) better(price, dist float64, e entry, bestPrice, bestDist float64, best entry) bool {
	if pref := s.preferredSource(); pref != "" && e.source != best.source {
		return e.source == pref
	}
	if dist != bestDist {
		return dist < bestDist
	}
	return price < bestPrice
}

func (s *Store) preferredSource() domain.LevelSource {
	switch s.priority {
	case PrioritySlow:
		return domain.SourceFractal
	case PriorityFast:
		return domain.SourceGap
	default:
		return ""
	}
}
