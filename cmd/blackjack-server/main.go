package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Duttonn/BlackJackAdvisor/internal/server"
	"github.com/Duttonn/BlackJackAdvisor/internal/strategy"
	"github.com/Duttonn/BlackJackAdvisor/internal/telemetry"
)

func main() {
	table, err := strategy.Load()
	if err != nil {
		log.Fatalf("failed to load strategy tables: %v", err)
	}

	srv := server.New(table)
	wireTelemetrySinks(srv)

	port := os.Getenv("BLACKJACK_SERVER_PORT")
	if port == "" {
		port = "3102"
	}

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("blackjack server starting on port %s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down blackjack server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("blackjack server exited with error: %v", err)
	}
}

// wireTelemetrySinks optionally attaches Kafka, ClickHouse, and/or
// Postgres sinks when the corresponding environment variables are
// present. None is required - an unconfigured server runs with the
// no-op sinks the Manager defaults to. ClickHouse and Postgres can
// both be configured at once; their rollups then fan out through a
// MultiStatsSink since Manager only holds one SessionStatsSink.
func wireTelemetrySinks(srv *server.Server) {
	if brokers := os.Getenv("BLACKJACK_KAFKA_BROKERS"); brokers != "" {
		sink, err := telemetry.NewKafkaSink(telemetry.KafkaSinkConfig{
			Brokers:        []string{brokers},
			Topic:          envOr("BLACKJACK_KAFKA_TOPIC", "blackjack.hand_events"),
			MaxRetries:     5,
			RetryBackoff:   100 * time.Millisecond,
			FlushFrequency: 500 * time.Millisecond,
			FlushMessages:  100,
		})
		if err != nil {
			log.Printf("kafka sink disabled: %v", err)
		} else {
			srv.Manager().WithHandSink(sink)
			log.Println("hand events streaming to kafka")
		}
	}

	var statsSinks []telemetry.SessionStatsSink

	if host := os.Getenv("BLACKJACK_CLICKHOUSE_HOST"); host != "" {
		sink, err := telemetry.NewClickHouseSink(context.Background(), telemetry.ClickHouseConfig{
			Host:         host,
			Port:         9000,
			Database:     envOr("BLACKJACK_CLICKHOUSE_DB", "blackjack"),
			Username:     envOr("BLACKJACK_CLICKHOUSE_USER", "default"),
			Password:     os.Getenv("BLACKJACK_CLICKHOUSE_PASSWORD"),
			MaxOpenConns: 5,
			MaxIdleConns: 2,
			ConnTimeout:  5 * time.Second,
		})
		if err != nil {
			log.Printf("clickhouse sink disabled: %v", err)
		} else if err := sink.CreateTables(context.Background()); err != nil {
			log.Printf("clickhouse table setup failed: %v", err)
		} else {
			statsSinks = append(statsSinks, sink)
			log.Println("session rollups streaming to clickhouse")
		}
	}

	if host := os.Getenv("BLACKJACK_POSTGRES_HOST"); host != "" {
		port, err := strconv.Atoi(envOr("BLACKJACK_POSTGRES_PORT", "5432"))
		if err != nil {
			log.Printf("postgres sink disabled: invalid BLACKJACK_POSTGRES_PORT: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			sink, err := telemetry.NewPostgresSink(ctx, telemetry.PostgresConfig{
				Host:     host,
				Port:     port,
				Database: envOr("BLACKJACK_POSTGRES_DB", "blackjack"),
				User:     envOr("BLACKJACK_POSTGRES_USER", "postgres"),
				Password: os.Getenv("BLACKJACK_POSTGRES_PASSWORD"),
				SSLMode:  envOr("BLACKJACK_POSTGRES_SSLMODE", "disable"),
			})
			cancel()
			if err != nil {
				log.Printf("postgres sink disabled: %v", err)
			} else if err := sink.CreateTable(context.Background()); err != nil {
				log.Printf("postgres table setup failed: %v", err)
			} else {
				statsSinks = append(statsSinks, sink)
				log.Println("session rollups persisting to postgres")
			}
		}
	}

	switch len(statsSinks) {
	case 0:
	case 1:
		srv.Manager().WithStatsSink(statsSinks[0])
	default:
		srv.Manager().WithStatsSink(telemetry.MultiStatsSink{Sinks: statsSinks})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
