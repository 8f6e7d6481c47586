// smoketrade places a single minimum-lot buy order through the terminal
// bridge using the broker's minimum stop distance, to verify the whole
// order path end to end before running the bot live.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"levelbot/config"
	"levelbot/internal/adapters/logger"
	"levelbot/internal/adapters/mt5bridge"
	"levelbot/internal/domain"
	"levelbot/internal/ports"
)

func main() {
	symbolFlag := flag.String("symbol", "", "instrument to test (default: first configured symbol)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	symbol := *symbolFlag
	if symbol == "" {
		for _, s := range cfg.Symbols {
			symbol = s
			break
		}
	}
	if symbol == "" {
		log.Fatal("FATAL: No symbol configured")
	}

	gateway, err := mt5bridge.New(mt5bridge.Config{
		BaseURL:  cfg.BridgeURL,
		Timeout:  cfg.BridgeTimeout,
		Login:    cfg.Login,
		Password: cfg.Password,
		Server:   cfg.Server,
		Logger:   appLogger,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize bridge client: %v", err)
	}
	if err := gateway.Connect(ctx); err != nil {
		log.Fatalf("FATAL: Could not connect to the terminal: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gateway.Disconnect(disconnectCtx); err != nil {
			appLogger.Error(disconnectCtx, err, "Error releasing terminal connection")
		}
	}()

	info, err := gateway.GetSymbolInfo(ctx, symbol)
	if err != nil {
		appLogger.Error(ctx, err, "Could not get symbol info", map[string]interface{}{"symbol": symbol})
		return
	}
	tick, err := gateway.GetTick(ctx, symbol)
	if err != nil {
		appLogger.Error(ctx, err, "Could not get tick", map[string]interface{}{"symbol": symbol})
		return
	}

	stopPoints := info.MinStopPoints
	if stopPoints == 0 {
		stopPoints = cfg.FallbackStopPoints
	}
	price := tick.Ask
	distance := stopPoints * info.TickSize

	fmt.Printf("Placing test buy: %s lot=%v price=%v sl=%v tp=%v\n",
		symbol, info.MinVolume, price, price-distance, price+distance)

	receipt, err := gateway.SubmitOrder(ctx, &ports.OrderRequest{
		Symbol:     symbol,
		Volume:     info.MinVolume,
		Direction:  domain.Buy,
		Price:      price,
		StopLoss:   price - distance,
		TakeProfit: price + distance,
		Magic:      cfg.Magic,
		Comment:    cfg.OrderComment + " smoke",
		TimePolicy: ports.TimeGTC,
		FillPolicy: ports.FillIOC,
	})
	if err != nil {
		appLogger.Error(ctx, err, "Test order failed")
		return
	}
	fmt.Printf("Test order accepted: ticket=%d retcode=%d\n", receipt.OrderID, receipt.RetCode)
}
