// Package telemetry defines the optional sinks a session orchestrator
// may dispatch hand and session events to. None of these are on the
// core's hot path - the orchestrator's operations return a result the
// moment the core's pure logic is done, and telemetry dispatch (if a
// sink is configured) happens on a detached goroutine afterward.
package telemetry

import (
	"context"
	"time"
)

// HandEvent is one resolved hand, suitable for a per-hand analytics
// record: wager sized, action taken, whether it matched the decision
// engine's recommendation, and the outcome.
type HandEvent struct {
	SessionID     string
	HandNumber    int
	Mode          string
	PlayerTotal   int
	DealerTotal   int
	Wager         float64
	NetWinnings   float64
	ActionTaken   string
	CorrectAction string
	IsCorrect     bool
	Outcome       string
	TrueCount     float64
	RunningCount  int
	Penetration   float64
	Timestamp     time.Time
}

// SessionStatsEvent is a periodic or end-of-session rollup.
type SessionStatsEvent struct {
	SessionID   string
	Mode        string
	HandsPlayed int
	Wins        int
	Losses      int
	Pushes      int
	Blackjacks  int
	Busts       int
	Surrenders  int
	Bankroll    float64
	NetWinnings float64
	Timestamp   time.Time
}

// HandEventSink receives one record per settled hand.
type HandEventSink interface {
	RecordHand(ctx context.Context, event HandEvent) error
}

// SessionStatsSink receives periodic session rollups.
type SessionStatsSink interface {
	RecordSessionStats(ctx context.Context, event SessionStatsEvent) error
}

// NopSink implements both sink interfaces by discarding every event -
// the default collaborator when no telemetry backend is configured.
type NopSink struct{}

func (NopSink) RecordHand(ctx context.Context, event HandEvent) error                { return nil }
func (NopSink) RecordSessionStats(ctx context.Context, event SessionStatsEvent) error { return nil }

// MultiStatsSink fans a session rollup out to every configured backend -
// e.g. ClickHouse for analytical queries and Postgres for a durable,
// queryable-by-primary-key record - so a deployment isn't limited to
// exactly one SessionStatsSink.
type MultiStatsSink struct {
	Sinks []SessionStatsSink
}

// RecordSessionStats dispatches to every sink and returns the first
// error encountered, after still giving every sink a chance to run.
func (m MultiStatsSink) RecordSessionStats(ctx context.Context, event SessionStatsEvent) error {
	var firstErr error
	for _, sink := range m.Sinks {
		if err := sink.RecordSessionStats(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
