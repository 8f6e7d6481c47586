// fetchcandles dumps historical candles from Binance to CSV so detector
// parameters (fractal window, gap width) can be tuned offline against real
// series.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"levelbot/config"
	"levelbot/internal/adapters/binanceclient"
	"levelbot/internal/adapters/logger"
	"levelbot/internal/utils"
)

func main() {
	symbol := flag.String("symbol", "BTCUSDT", "instrument to fetch")
	interval := flag.String("interval", "1m", "candle interval (Binance notation)")
	months := flag.Int("months", 3, "how many months of history to fetch")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	client, err := binanceclient.New(binanceclient.Config{Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize binance client: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, -*months, 0)

	fmt.Printf("Fetching %s %s candles from %s to %s...\n", *symbol, *interval,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	candles, err := client.GetCandleRange(ctx, *symbol, *interval, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching candles")
		log.Fatalf("Error fetching candles: %v", err)
	}
	appLogger.Info(ctx, "Fetched candles", map[string]interface{}{"count": len(candles)})

	filename := fmt.Sprintf("data/%s_%s_%s_to_%s.csv", *symbol, *interval,
		start.Format("20060102"), end.Format("20060102"))
	if err := utils.WriteCandlesToCSV(candles, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved candles", map[string]interface{}{"filename": filename})
}
