// Package metrics exposes the Prometheus instrumentation points the
// session orchestrator reports through: hands played, deviations
// fired, shuffles, bet distribution, and wong-out signals.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HandsDealtTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_hands_dealt_total",
		Help: "Total number of hands dealt",
	}, []string{"mode"})

	HandsSettledTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_hands_settled_total",
		Help: "Total number of hands settled, by outcome",
	}, []string{"outcome"})

	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_actions_total",
		Help: "Total number of player actions taken",
	}, []string{"action", "correct"})

	DeviationsFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_deviations_fired_total",
		Help: "Total number of index-play deviations that overrode the baseline",
	}, []string{"deviation"})

	ShufflesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blackjack_shuffles_total",
		Help: "Total number of shoe shuffles performed",
	})

	RecommendedBet = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blackjack_recommended_bet",
		Help:    "Distribution of recommended bet sizes, in table units",
		Buckets: []float64{15, 25, 50, 100, 200, 300, 400, 500},
	})

	TrueCountObserved = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blackjack_true_count_observed",
		Help:    "Distribution of true-count values at query time",
		Buckets: []float64{-6, -4, -2, -1, 0, 1, 2, 4, 6, 8, 10},
	})

	WongOutSignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blackjack_wong_out_signals_total",
		Help: "Total number of times the exit signal was advised",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blackjack_active_sessions",
		Help: "Number of sessions currently open",
	})

	SessionOperationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blackjack_session_operation_errors_total",
		Help: "Total number of operations that returned a structured error",
	}, []string{"operation", "code"})
)

// RecordDeal records a completed deal for the given mode.
func RecordDeal(mode string) {
	HandsDealtTotal.WithLabelValues(mode).Inc()
}

// RecordSettlement records a settled hand's outcome.
func RecordSettlement(outcome string) {
	HandsSettledTotal.WithLabelValues(outcome).Inc()
}

// RecordAction records a player action and whether it matched the
// decision engine's recommendation.
func RecordAction(action string, correct bool) {
	correctLabel := "false"
	if correct {
		correctLabel = "true"
	}
	ActionsTotal.WithLabelValues(action, correctLabel).Inc()
}

// RecordDeviation records that a named deviation fired.
func RecordDeviation(name string) {
	DeviationsFiredTotal.WithLabelValues(name).Inc()
}

// RecordBet records a recommended bet value.
func RecordBet(bet float64) {
	RecommendedBet.Observe(bet)
}

// RecordWongOut records that the exit signal fired.
func RecordWongOut() {
	WongOutSignalsTotal.Inc()
}

// RecordError records a session operation's structured error code.
func RecordError(operation, code string) {
	SessionOperationErrors.WithLabelValues(operation, code).Inc()
}
