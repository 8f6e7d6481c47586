package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"levelbot/internal/domain"
)

// WriteCandlesToCSV writes candles to a CSV file with a header row,
// creating parent directories as needed.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", filename, err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"open_time", "open", "high", "low", "close"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range candles {
		record := []string{
			c.OpenTime.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	return w.Error()
}
