package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"levelbot/internal/adapters/logger" // Import the logger package for LogLevel
	"levelbot/internal/levels"
)

// ProfitPolicy selects how position profit is measured against the target.
type ProfitPolicy string

const (
	// PolicyDistance measures profit as signed price distance in points.
	PolicyDistance ProfitPolicy = "distance"
	// PolicyCurrency measures profit in account currency as reported by
	// the gateway.
	PolicyCurrency ProfitPolicy = "currency"
)

// Config holds all application configuration. Loaded once at startup and
// immutable during a run; components receive it by reference.
type Config struct {
	// Terminal bridge
	BridgeURL     string
	BridgeTimeout time.Duration
	Login         int64
	Password      string
	Server        string

	// Instruments: menu key -> symbol, for the interactive prompt
	Symbols map[string]string

	// Trading parameters
	Magic        int64              // Identifying tag attached to every order
	MaxTrades    int                // Max concurrently open positions per symbol
	LotSize      float64            // Flat lot size; 0 means use LotSizes
	LotSizes     map[string]float64 // Per-symbol lot sizes
	MarginCheck  bool               // Gate opens on free margin
	OrderComment string

	// Profit / stop targets
	ProfitPolicy       ProfitPolicy
	ProfitTarget       float64 // Points (distance policy) or account currency (currency policy)
	TargetStopPoints   float64 // SL/TP distance placed on open, in points
	FallbackStopPoints float64 // Used when the broker reports a zero minimum stop distance

	// Signal parameters
	ToleranceTicks  float64
	LevelPriority   levels.Priority
	MinGapTicks     float64
	FractalWindow   int
	FractalLookback int
	BreakLookback   int
	SlowFetchCount  int
	FastFetchCount  int

	// Cadence
	SlowScanInterval time.Duration
	FastScanInterval time.Duration
	MonitorInterval  time.Duration

	// Journal and ops surface
	JournalPath string
	OpsAddr     string // empty disables the ops HTTP server

	// Logging
	LogLevel logger.LogLevel
}

// Load loads configuration from environment variables (.env file).
func Load() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Terminal bridge
	cfg.BridgeURL = getEnv("BRIDGE_URL", "http://127.0.0.1:6542")
	if cfg.BridgeURL == "" {
		errs = append(errs, "BRIDGE_URL must be set")
	}
	bridgeTimeoutSeconds := getEnvAsInt("BRIDGE_TIMEOUT_SECONDS", 10)
	if bridgeTimeoutSeconds <= 0 {
		errs = append(errs, "BRIDGE_TIMEOUT_SECONDS must be positive")
	}
	cfg.BridgeTimeout = time.Duration(bridgeTimeoutSeconds) * time.Second

	cfg.Login, err = getEnvAsInt64Required("TERMINAL_LOGIN", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TERMINAL_LOGIN: %v", err))
	} else if cfg.Login == 0 {
		errs = append(errs, "TERMINAL_LOGIN must be set")
	}
	cfg.Password = getEnv("TERMINAL_PASSWORD", "")
	if cfg.Password == "" {
		errs = append(errs, "TERMINAL_PASSWORD must be set")
	}
	cfg.Server = getEnv("TERMINAL_SERVER", "")
	if cfg.Server == "" {
		errs = append(errs, "TERMINAL_SERVER must be set")
	}

	// Instruments
	cfg.Symbols = parseMapString(getEnv("SYMBOLS", "1:BTCUSDm,2:XAUUSD"))
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must map at least one key to a symbol (e.g. 1:BTCUSDm)")
	}

	// Trading parameters
	cfg.Magic, err = getEnvAsInt64Required("MAGIC_NUMBER", 12345)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAGIC_NUMBER: %v", err))
	} else if cfg.Magic == 0 {
		errs = append(errs, "MAGIC_NUMBER must be non-zero")
	}

	cfg.MaxTrades, err = getEnvAsIntRequired("MAX_TRADES", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_TRADES: %v", err))
	} else if cfg.MaxTrades <= 0 {
		errs = append(errs, "MAX_TRADES must be positive")
	}

	cfg.LotSize, err = getEnvAsFloatRequired("LOT_SIZE", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOT_SIZE: %v", err))
	} else if cfg.LotSize < 0 {
		errs = append(errs, "LOT_SIZE cannot be negative")
	}
	cfg.LotSizes = parseMapFloat(getEnv("LOT_SIZES", ""), &errs)
	if cfg.LotSize == 0 && len(cfg.LotSizes) == 0 {
		errs = append(errs, "either LOT_SIZE or LOT_SIZES must be set")
	}

	cfg.MarginCheck = getEnvAsBool("MARGIN_CHECK", true)
	cfg.OrderComment = getEnv("ORDER_COMMENT", "levelbot")

	// Profit / stop targets
	policy := strings.ToLower(getEnv("PROFIT_POLICY", string(PolicyDistance)))
	switch ProfitPolicy(policy) {
	case PolicyDistance, PolicyCurrency:
		cfg.ProfitPolicy = ProfitPolicy(policy)
	default:
		errs = append(errs, fmt.Sprintf("invalid PROFIT_POLICY %q (want distance or currency)", policy))
	}

	cfg.ProfitTarget, err = getEnvAsFloatRequired("PROFIT_TARGET", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PROFIT_TARGET: %v", err))
	} else if cfg.ProfitTarget <= 0 {
		errs = append(errs, "PROFIT_TARGET must be positive")
	}

	cfg.TargetStopPoints, err = getEnvAsFloatRequired("TARGET_STOP_POINTS", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TARGET_STOP_POINTS: %v", err))
	} else if cfg.TargetStopPoints <= 0 {
		errs = append(errs, "TARGET_STOP_POINTS must be positive")
	}

	cfg.FallbackStopPoints, err = getEnvAsFloatRequired("FALLBACK_STOP_POINTS", 15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FALLBACK_STOP_POINTS: %v", err))
	} else if cfg.FallbackStopPoints <= 0 {
		errs = append(errs, "FALLBACK_STOP_POINTS must be positive")
	}

	// Signal parameters (defaults match the detectors' tuning)
	cfg.ToleranceTicks = getEnvAsFloat("TOLERANCE_TICKS", 10)
	cfg.MinGapTicks = getEnvAsFloat("MIN_GAP_TICKS", 3)
	cfg.FractalWindow = getEnvAsInt("FRACTAL_WINDOW", 100)
	cfg.FractalLookback = getEnvAsInt("FRACTAL_LOOKBACK", 2)
	cfg.BreakLookback = getEnvAsInt("BREAK_LOOKBACK", 15)
	cfg.SlowFetchCount = getEnvAsInt("SLOW_FETCH_COUNT", 200)
	cfg.FastFetchCount = getEnvAsInt("FAST_FETCH_COUNT", 50)
	if cfg.ToleranceTicks <= 0 || cfg.MinGapTicks <= 0 {
		errs = append(errs, "TOLERANCE_TICKS and MIN_GAP_TICKS must be positive")
	}
	if cfg.FractalWindow <= 0 || cfg.FractalLookback <= 0 || cfg.BreakLookback <= 0 {
		errs = append(errs, "fractal/break lookback parameters must be positive")
	}

	priority := levels.Priority(strings.ToLower(getEnv("LEVEL_PRIORITY", string(levels.PriorityNearest))))
	switch priority {
	case levels.PriorityNearest, levels.PrioritySlow, levels.PriorityFast:
		cfg.LevelPriority = priority
	default:
		errs = append(errs, fmt.Sprintf("invalid LEVEL_PRIORITY %q (want nearest, slow or fast)", priority))
	}

	// Cadence
	cfg.SlowScanInterval = time.Duration(getEnvAsInt("SLOW_SCAN_SECONDS", 300)) * time.Second
	cfg.FastScanInterval = time.Duration(getEnvAsInt("FAST_SCAN_SECONDS", 60)) * time.Second
	cfg.MonitorInterval = time.Duration(getEnvAsInt("MONITOR_MILLIS", 1000)) * time.Millisecond
	if cfg.SlowScanInterval <= 0 || cfg.FastScanInterval <= 0 || cfg.MonitorInterval <= 0 {
		errs = append(errs, "scan and monitor intervals must be positive")
	}

	// Journal and ops surface
	cfg.JournalPath = getEnv("JOURNAL_PATH", "./data/levelbot.db")
	cfg.OpsAddr = getEnv("OPS_ADDR", ":9100") // set empty to disable

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsInt64Required(key string, defaultValue int64) (int64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parseMapString parses "k1:v1,k2:v2" into a map. Malformed pairs are skipped.
func parseMapString(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		out[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return out
}

// parseMapFloat parses "SYM:0.01,SYM2:0.1" into a map, collecting errors for
// unparseable values.
func parseMapFloat(raw string, errs *[]string) map[string]float64 {
	out := make(map[string]float64)
	for key, valueStr := range parseMapString(raw) {
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			*errs = append(*errs, fmt.Sprintf("invalid lot size '%s' for symbol %s", valueStr, key))
			continue
		}
		out[key] = value
	}
	return out
}
