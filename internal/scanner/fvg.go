package scanner

import "levelbot/internal/domain"

// DetectStructureBreak computes a break of structure over the last
// `lookback` candles excluding the current one: if the latest close exceeds
// the window's max high the break is Bullish, if it is below the window's
// min low the break is Bearish, otherwise there is no break this cycle.
// Pure function of its inputs.
func DetectStructureBreak(candles []domain.Candle, lookback int) (domain.BreakDirection, bool) {
	if lookback <= 0 || len(candles) < lookback+1 {
		return "", false
	}

	latest := candles[len(candles)-1]
	window := candles[len(candles)-1-lookback : len(candles)-1]

	maxHigh := window[0].High
	minLow := window[0].Low
	for _, c := range window[1:] {
		if c.High > maxHigh {
			maxHigh = c.High
		}
		if c.Low < minLow {
			minLow = c.Low
		}
	}

	switch {
	case latest.Close > maxHigh:
		return domain.Bullish, true
	case latest.Close < minLow:
		return domain.Bearish, true
	default:
		return "", false
	}
}

// FindGapLevels scans candles from most-recent backwards for three-candle
// fair-value gaps matching the break direction. For a Bullish break a gap
// exists when low(i) > high(i−2) and its width is at least minGap
// (boundary inclusive); the level is the gap's midpoint tagged Buy. The
// Bearish case is the dual with highs and lows swapped, tagged Sell.
// Every qualifying gap in the series is emitted, most recent first.
func FindGapLevels(candles []domain.Candle, breakDir domain.BreakDirection, minGap float64) []domain.PriceLevel {
	var found []domain.PriceLevel
	for i := len(candles) - 1; i >= 2; i-- {
		switch breakDir {
		case domain.Bullish:
			top, bottom := candles[i].Low, candles[i-2].High
			if top > bottom && top-bottom >= minGap {
				found = append(found, domain.PriceLevel{
					Price:     (top + bottom) / 2,
					Direction: domain.Buy,
					Source:    domain.SourceGap,
				})
			}
		case domain.Bearish:
			top, bottom := candles[i-2].Low, candles[i].High
			if top > bottom && top-bottom >= minGap {
				found = append(found, domain.PriceLevel{
					Price:     (top + bottom) / 2,
					Direction: domain.Sell,
					Source:    domain.SourceGap,
				})
			}
		}
	}
	return found
}
