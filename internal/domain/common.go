package domain

// Direction represents the side of a trade (BUY or SELL).
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// Opposite returns the closing side for a position opened in this direction.
func (d Direction) Opposite() Direction {
	if d == Buy {
		return Sell
	}
	return Buy
}

// IsValid reports whether the direction is one of the closed set {Buy, Sell}.
// Anything else is a programming defect, not a runtime condition.
func (d Direction) IsValid() bool {
	return d == Buy || d == Sell
}

// BreakDirection is the direction of a structure break on the fast timeframe.
// It is transient: derived from the most recent candles and consumed
// immediately to gate which gap levels qualify, never stored.
type BreakDirection string

const (
	Bullish BreakDirection = "BULLISH"
	Bearish BreakDirection = "BEARISH"
)

// Timeframe identifies the bar duration of a candle series, using the
// terminal's naming (M1 = one minute, M5 = five minutes).
type Timeframe string

const (
	TimeframeM1 Timeframe = "M1"
	TimeframeM5 Timeframe = "M5"
)

// LevelSource tags a price level with the detector that produced it.
type LevelSource string

const (
	SourceFractal LevelSource = "fractal" // slow-timeframe fractal pivot
	SourceGap     LevelSource = "gap"     // fast-timeframe fair-value gap
)

// CloseReason indicates why a position was closed.
type CloseReason string

const (
	CloseReasonTargetProfit CloseReason = "TARGET_PROFIT"
	CloseReasonTargetLoss   CloseReason = "TARGET_LOSS"
	CloseReasonManual       CloseReason = "MANUAL"
)
