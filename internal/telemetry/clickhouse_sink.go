package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseConfig holds the connection configuration for the
// ClickHouse-backed sink.
type ClickHouseConfig struct {
	Host         string
	Port         int
	Database     string
	Username     string
	Password     string
	Secure       bool
	MaxOpenConns int
	MaxIdleConns int
	ConnTimeout  time.Duration
}

// ClickHouseSink writes hand events and session rollups into
// ClickHouse for downstream analytics. It implements both HandEventSink
// and SessionStatsSink.
type ClickHouseSink struct {
	db clickhouse.Conn
}

// NewClickHouseSink opens a connection and verifies it is reachable.
func NewClickHouseSink(ctx context.Context, config ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", config.Host, config.Port)},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		TLS: &tls.Config{InsecureSkipVerify: config.Secure},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return &ClickHouseSink{db: conn}, nil
}

// CreateTables creates the hand_events and session_stats tables if
// they do not already exist.
func (c *ClickHouseSink) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS hand_events (
			session_id String,
			hand_number Int32,
			mode String,
			player_total Int32,
			dealer_total Int32,
			wager Float64,
			net_winnings Float64,
			action_taken String,
			correct_action String,
			is_correct Bool,
			outcome String,
			true_count Float64,
			running_count Int32,
			penetration Float64,
			timestamp DateTime64(3)
		) ENGINE = MergeTree()
		ORDER BY (session_id, hand_number, timestamp)`,

		`CREATE TABLE IF NOT EXISTS session_stats (
			session_id String,
			mode String,
			hands_played Int32,
			wins Int32,
			losses Int32,
			pushes Int32,
			blackjacks Int32,
			busts Int32,
			surrenders Int32,
			bankroll Float64,
			net_winnings Float64,
			timestamp DateTime64(3)
		) ENGINE = ReplacingMergeTree(timestamp)
		ORDER BY (session_id, timestamp)`,
	}

	for _, q := range queries {
		if err := c.db.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to create telemetry table: %w", err)
		}
	}
	return nil
}

// RecordHand inserts one hand event row.
func (c *ClickHouseSink) RecordHand(ctx context.Context, e HandEvent) error {
	return c.db.Exec(ctx, `
		INSERT INTO hand_events (
			session_id, hand_number, mode, player_total, dealer_total,
			wager, net_winnings, action_taken, correct_action, is_correct,
			outcome, true_count, running_count, penetration, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.HandNumber, e.Mode, e.PlayerTotal, e.DealerTotal,
		e.Wager, e.NetWinnings, e.ActionTaken, e.CorrectAction, e.IsCorrect,
		e.Outcome, e.TrueCount, e.RunningCount, e.Penetration, e.Timestamp,
	)
}

// RecordSessionStats inserts one session rollup row.
func (c *ClickHouseSink) RecordSessionStats(ctx context.Context, e SessionStatsEvent) error {
	return c.db.Exec(ctx, `
		INSERT INTO session_stats (
			session_id, mode, hands_played, wins, losses, pushes,
			blackjacks, busts, surrenders, bankroll, net_winnings, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.Mode, e.HandsPlayed, e.Wins, e.Losses, e.Pushes,
		e.Blackjacks, e.Busts, e.Surrenders, e.Bankroll, e.NetWinnings, e.Timestamp,
	)
}

// Close releases the underlying ClickHouse connection.
func (c *ClickHouseSink) Close() error {
	return c.db.Close()
}
