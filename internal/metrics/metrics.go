// Package metrics exposes the Prometheus series the bot updates while
// trading:
//   - levelbot_signals_total{direction,source} – level touches that produced a signal
//   - levelbot_orders_total{result}            – open attempts (opened|rejected|skipped)
//   - levelbot_closes_total{reason}            – closes by reason
//   - levelbot_open_positions                  – open positions tagged with our magic (gauge)
//   - levelbot_active_levels                   – levels currently held in the store (gauge)
//   - levelbot_floating_profit                 – summed floating profit of our positions (gauge)
//
// Registered in init() and served at /metrics by the ops HTTP server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelbot_signals_total",
			Help: "Signals produced by level touches",
		},
		[]string{"direction", "source"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelbot_orders_total",
			Help: "Open attempts by result",
		},
		[]string{"result"}, // opened|rejected|skipped
	)

	closesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "levelbot_closes_total",
			Help: "Position closes by reason",
		},
		[]string{"reason"},
	)

	openPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "levelbot_open_positions",
			Help: "Currently open positions carrying the bot's magic tag",
		},
	)

	activeLevels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "levelbot_active_levels",
			Help: "Price levels currently active in the store",
		},
	)

	floatingProfit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "levelbot_floating_profit",
			Help: "Summed floating profit of the bot's open positions, account currency",
		},
	)
)

func init() {
	prometheus.MustRegister(signalsTotal, ordersTotal, closesTotal)
	prometheus.MustRegister(openPositions, activeLevels, floatingProfit)
}

func IncSignal(direction, source string) { signalsTotal.WithLabelValues(direction, source).Inc() }
func IncOrder(result string)             { ordersTotal.WithLabelValues(result).Inc() }
func IncClose(reason string)             { closesTotal.WithLabelValues(reason).Inc() }
func SetOpenPositions(n int)             { openPositions.Set(float64(n)) }
func SetActiveLevels(n int)              { activeLevels.Set(float64(n)) }
func SetFloatingProfit(v float64)        { floatingProfit.Set(v) }
