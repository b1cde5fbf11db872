package telemetry

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresConfig holds the connection parameters for the
// Postgres-backed session-rollup sink.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
}

func (c PostgresConfig) dsn() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, sslmode)
}

// PostgresSink persists session rollups for longer-term querying than
// the hot analytics path needs. It implements SessionStatsSink only -
// per-hand events are high-volume and belong on the Kafka/ClickHouse
// path instead.
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink opens a connection pool and verifies it is reachable.
func NewPostgresSink(ctx context.Context, config PostgresConfig) (*PostgresSink, error) {
	db, err := sql.Open("postgres", config.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// CreateTable creates the session_rollups table if it does not already
// exist.
func (p *PostgresSink) CreateTable(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS session_rollups (
			session_id   TEXT PRIMARY KEY,
			mode         TEXT NOT NULL,
			hands_played INTEGER NOT NULL,
			wins         INTEGER NOT NULL,
			losses       INTEGER NOT NULL,
			pushes       INTEGER NOT NULL,
			blackjacks   INTEGER NOT NULL,
			busts        INTEGER NOT NULL,
			surrenders   INTEGER NOT NULL,
			bankroll     DOUBLE PRECISION NOT NULL,
			net_winnings DOUBLE PRECISION NOT NULL,
			recorded_at  TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create session_rollups table: %w", err)
	}
	return nil
}

// RecordSessionStats upserts one session's rollup, keyed by session ID
// so a session ended twice (which the orchestrator never does, but a
// retried caller might) overwrites rather than duplicates.
func (p *PostgresSink) RecordSessionStats(ctx context.Context, e SessionStatsEvent) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO session_rollups (
			session_id, mode, hands_played, wins, losses, pushes,
			blackjacks, busts, surrenders, bankroll, net_winnings, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (session_id) DO UPDATE SET
			hands_played = EXCLUDED.hands_played,
			wins         = EXCLUDED.wins,
			losses       = EXCLUDED.losses,
			pushes       = EXCLUDED.pushes,
			blackjacks   = EXCLUDED.blackjacks,
			busts        = EXCLUDED.busts,
			surrenders   = EXCLUDED.surrenders,
			bankroll     = EXCLUDED.bankroll,
			net_winnings = EXCLUDED.net_winnings,
			recorded_at  = EXCLUDED.recorded_at`,
		e.SessionID, e.Mode, e.HandsPlayed, e.Wins, e.Losses, e.Pushes,
		e.Blackjacks, e.Busts, e.Surrenders, e.Bankroll, e.NetWinnings, e.Timestamp,
	)
	return err
}

// Close releases the underlying connection pool.
func (p *PostgresSink) Close() error {
	return p.db.Close()
}
