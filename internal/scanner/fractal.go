package scanner

import "levelbot/internal/domain"

// FindFractals detects fractal pivots in the most recent `window` candles of
// the series. A candle is a resistance fractal when its high strictly
// exceeds the highs of the `lookback` candles immediately before and after
// it; a support fractal is the dual on lows. Boundary candles without
// `lookback` neighbours on both sides are skipped.
//
// Output: a Sell level at each resistance fractal's high and a Buy level at
// each support fractal's low. Pure function of its inputs.
func FindFractals(candles []domain.Candle, window, lookback int) []domain.PriceLevel {
	if lookback <= 0 || len(candles) < 2*lookback+1 {
		return nil
	}
	if window > 0 && len(candles) > window {
		candles = candles[len(candles)-window:]
	}

	var found []domain.PriceLevel
	for i := lookback; i < len(candles)-lookback; i++ {
		if isResistanceFractal(candles, i, lookback) {
			found = append(found, domain.PriceLevel{
				Price:     candles[i].High,
				Direction: domain.Sell,
				Source:    domain.SourceFractal,
			})
		}
		if isSupportFractal(candles, i, lookback) {
			found = append(found, domain.PriceLevel{
				Price:     candles[i].Low,
				Direction: domain.Buy,
				Source:    domain.SourceFractal,
			})
		}
	}
	return found
}

func isResistanceFractal(candles []domain.Candle, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].High >= candles[i].High {
			return false
		}
	}
	return true
}

func isSupportFractal(candles []domain.Candle, i, lookback int) bool {
	for j := i - lookback; j <= i+lookback; j++ {
		if j == i {
			continue
		}
		if candles[j].Low <= candles[i].Low {
			return false
		}
	}
	return true
}
