package domain

// PriceLevel is a support/resistance or fair-value-gap midpoint level
// produced by the scanner. A level is consumed exactly once: the store
// removes it on a successful touch so it cannot re-trigger.
type PriceLevel struct {
	Price     float64
	Direction Direction
	Source    LevelSource
}

// Signal is an ephemeral directional trade signal produced when the current
// price touches a stored level. Consumed immediately by the orchestrator.
type Signal struct {
	Direction Direction
	Level     float64 // the level that fired
	Source    LevelSource
}
