package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these standard errors
// so callers can branch with errors.Is without knowing the transport.
var (
	// ErrConnectionFailed means the terminal login/init failed. Fatal at
	// startup; the bot does not run without a gateway.
	ErrConnectionFailed = errors.New("failed to connect to the trading terminal")

	// ErrDataUnavailable means a candle or tick fetch returned nothing.
	// Recovered by skipping the cycle and retrying on the next tick.
	ErrDataUnavailable = errors.New("market data unavailable")

	// ErrConfigError means a required configuration value is missing,
	// e.g. no lot size for the selected symbol. The open attempt is skipped.
	ErrConfigError = errors.New("invalid or missing configuration")

	// ErrInsufficientMargin means free margin does not cover the candidate
	// order. No order is submitted; the open is retried next cycle.
	ErrInsufficientMargin = errors.New("insufficient free margin")

	// ErrOrderRejected means the broker declined an order submission.
	// The decline reason is carried in the wrapping error text.
	ErrOrderRejected = errors.New("order rejected by broker")

	// ErrInvalidDirection marks misuse of the closed direction set.
	// It is a defect, not a runtime condition to recover from.
	ErrInvalidDirection = errors.New("invalid trade direction")
)
