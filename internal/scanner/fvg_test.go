package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelbot/internal/domain"
)

func TestDetectStructureBreak(t *testing.T) {
	window := []domain.Candle{
		{High: 105, Low: 95},
		{High: 107, Low: 96},
		{High: 106, Low: 94},
	}

	tests := []struct {
		name       string
		latest     domain.Candle
		wantDir    domain.BreakDirection
		wantBroken bool
	}{
		{
			name:       "close above window max high is bullish",
			latest:     domain.Candle{High: 110, Low: 105, Close: 108},
			wantDir:    domain.Bullish,
			wantBroken: true,
		},
		{
			name:       "close below window min low is bearish",
			latest:     domain.Candle{High: 95, Low: 90, Close: 92},
			wantDir:    domain.Bearish,
			wantBroken: true,
		},
		{
			name:       "close inside the window is no break",
			latest:     domain.Candle{High: 104, Low: 96, Close: 100},
			wantBroken: false,
		},
		{
			name:       "close exactly at max high is no break",
			latest:     domain.Candle{High: 108, Low: 100, Close: 107},
			wantBroken: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := append(append([]domain.Candle{}, window...), tt.latest)
			dir, broken := DetectStructureBreak(candles, 3)
			assert.Equal(t, tt.wantBroken, broken)
			if tt.wantBroken {
				assert.Equal(t, tt.wantDir, dir)
			}
		})
	}
}

func TestDetectStructureBreak_InsufficientData(t *testing.T) {
	candles := []domain.Candle{{High: 105, Low: 95, Close: 100}}
	_, broken := DetectStructureBreak(candles, 15)
	assert.False(t, broken)
}

func TestFindGapLevels_BullishGapWidth(t *testing.T) {
	tests := []struct {
		name     string
		thirdLow float64 // low of the most recent candle
		wantHit  bool
	}{
		{name: "width above minimum", thirdLow: 14, wantHit: true},
		{name: "width exactly at minimum is inclusive", thirdLow: 13, wantHit: true},
		{name: "width below minimum is excluded", thirdLow: 12.9, wantHit: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := []domain.Candle{
				{High: 10, Low: 8},
				{High: 12, Low: 9},
				{High: 16, Low: tt.thirdLow},
			}
			found := FindGapLevels(candles, domain.Bullish, 3.0)
			if !tt.wantHit {
				assert.Empty(t, found)
				return
			}
			require.Len(t, found, 1)
			assert.Equal(t, (tt.thirdLow+10)/2, found[0].Price)
			assert.Equal(t, domain.Buy, found[0].Direction)
			assert.Equal(t, domain.SourceGap, found[0].Source)
		})
	}
}

func TestFindGapLevels_BearishGap(t *testing.T) {
	candles := []domain.Candle{
		{High: 22, Low: 20},
		{High: 19, Low: 18},
		{High: 17, Low: 15},
	}
	found := FindGapLevels(candles, domain.Bearish, 3.0)
	require.Len(t, found, 1)
	// Gap between the first candle's low (20) and the latest high (17).
	assert.Equal(t, 18.5, found[0].Price)
	assert.Equal(t, domain.Sell, found[0].Direction)
}

func TestFindGapLevels_DirectionGatesPattern(t *testing.T) {
	// A bullish gap must not be reported for a bearish break.
	candles := []domain.Candle{
		{High: 10, Low: 8},
		{High: 12, Low: 9},
		{High: 16, Low: 14},
	}
	assert.Empty(t, FindGapLevels(candles, domain.Bearish, 3.0))
}

func TestFindGapLevels_MultipleGapsMostRecentFirst(t *testing.T) {
	candles := []domain.Candle{
		{High: 10, Low: 8},
		{High: 12, Low: 9},
		{High: 16, Low: 14}, // gap vs candle 0: 14-10 = 4
		{High: 18, Low: 12}, // no gap vs candle 1 (12 is not above 12)
		{High: 24, Low: 21}, // gap vs candle 2: 21-16 = 5
	}
	found := FindGapLevels(candles, domain.Bullish, 3.0)
	require.Len(t, found, 2)
	assert.Equal(t, (21.0+16.0)/2, found[0].Price)
	assert.Equal(t, (14.0+10.0)/2, found[1].Price)
}
