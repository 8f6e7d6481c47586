package main

import (
	"bufio"
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"sort"
	"strings"
	"time"

	"levelbot/config"
	"levelbot/internal/adapters/logger"
	"levelbot/internal/adapters/mt5bridge"
	"levelbot/internal/adapters/sqlite"
	"levelbot/internal/app"
	"levelbot/internal/levels"
	"levelbot/internal/ops"
	"levelbot/internal/scanner"
	"levelbot/internal/trading"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Journal
	journal, err := sqlite.NewJournal(sqlite.Config{
		DBPath: cfg.JournalPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trade journal")
		log.Fatalf("FATAL: Failed to initialize trade journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing trade journal")
		}
	}()

	// 4. Initialize Terminal Gateway and connect.
	gateway, err := mt5bridge.New(mt5bridge.Config{
		BaseURL:  cfg.BridgeURL,
		Timeout:  cfg.BridgeTimeout,
		Login:    cfg.Login,
		Password: cfg.Password,
		Server:   cfg.Server,
		Logger:   appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize bridge client")
		log.Fatalf("FATAL: Failed to initialize bridge client: %v", err)
	}
	if err := gateway.Connect(ctx); err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to connect to the trading terminal")
		log.Fatalf("FATAL: Failed to connect to the trading terminal: %v", err)
	}
	// The disconnect must run on every exit path, including errors below.
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := gateway.Disconnect(disconnectCtx); err != nil {
			appLogger.Error(disconnectCtx, err, "Error releasing terminal connection")
		}
	}()

	// 5. Select the instrument to trade.
	symbol, err := promptForSymbol(cfg.Symbols)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Symbol selection failed")
		return
	}
	appLogger.Info(ctx, "Instrument selected", map[string]interface{}{"symbol": symbol})

	// 6. Assemble the trading components.
	store := levels.NewStore(cfg.LevelPriority)
	evaluator := levels.NewEvaluator(store, cfg.ToleranceTicks)

	scan, err := scanner.New(gateway, appLogger, scanner.Config{
		SlowFetchCount:  cfg.SlowFetchCount,
		FastFetchCount:  cfg.FastFetchCount,
		FractalWindow:   cfg.FractalWindow,
		FractalLookback: cfg.FractalLookback,
		BreakLookback:   cfg.BreakLookback,
		MinGapTicks:     cfg.MinGapTicks,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize scanner")
		return
	}

	manager, err := trading.NewManager(gateway, appLogger, journal, trading.ManagerConfig{
		Magic:              cfg.Magic,
		LotSize:            cfg.LotSize,
		LotSizes:           cfg.LotSizes,
		TargetStopPoints:   cfg.TargetStopPoints,
		FallbackStopPoints: cfg.FallbackStopPoints,
		MarginCheck:        cfg.MarginCheck,
		OrderComment:       cfg.OrderComment,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize position manager")
		return
	}

	service, err := app.NewTradingService(cfg, appLogger, gateway, store, evaluator, scan, manager, symbol)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize trading service")
		return
	}

	// 7. Ops surface (metrics, health, recent trades).
	if cfg.OpsAddr != "" {
		opsServer := ops.NewServer(cfg.OpsAddr, appLogger, journal)
		opsServer.Start(ctx)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				appLogger.Error(shutdownCtx, err, "Error shutting down ops server")
			}
		}()
	}

	// 8. Run until interrupted.
	fmt.Printf("Trading %s. Bot is running, press Ctrl+C to stop.\n", symbol)
	if err := service.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Trading service exited with error")
		return
	}
	appLogger.Info(ctx, "Application finished gracefully")
}

// promptForSymbol lists the configured symbols by key and reads one
// selection from stdin. Either the key or the full symbol name is accepted.
func promptForSymbol(symbols map[string]string) (string, error) {
	keys := make([]string, 0, len(symbols))
	for k := range symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Please select the instrument to trade:")
	for _, k := range keys {
		fmt.Printf("- %s: %s\n", k, symbols[k])
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter symbol: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading selection: %w", err)
		}
		input := strings.TrimSpace(line)
		if symbol, ok := symbols[input]; ok {
			return symbol, nil
		}
		for _, symbol := range symbols {
			if strings.EqualFold(symbol, input) {
				return symbol, nil
			}
		}
		fmt.Println("Invalid symbol. Please choose from the list.")
	}
}
