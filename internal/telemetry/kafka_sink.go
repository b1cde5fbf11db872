package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// KafkaSinkConfig holds the producer configuration for the
// Kafka-backed hand-event sink.
type KafkaSinkConfig struct {
	Brokers        []string
	Topic          string
	MaxRetries     int
	RetryBackoff   time.Duration
	FlushFrequency time.Duration
	FlushMessages  int
}

// KafkaSink publishes hand events to Kafka asynchronously, off the
// orchestrator's hot path. It implements HandEventSink; session
// rollups are small enough to go straight to the synchronous
// ClickHouseSink instead, so KafkaSink does not implement
// SessionStatsSink.
type KafkaSink struct {
	producer sarama.AsyncProducer
	topic    string

	mu     sync.Mutex
	closed bool
	sent   int64
	failed int64
}

// NewKafkaSink constructs a Kafka producer and starts its background
// success/error drain loops.
func NewKafkaSink(config KafkaSinkConfig) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.Retry.Max = config.MaxRetries
	saramaConfig.Producer.Retry.Backoff = config.RetryBackoff
	saramaConfig.Producer.Flush.Frequency = config.FlushFrequency
	saramaConfig.Producer.Flush.Messages = config.FlushMessages

	producer, err := sarama.NewAsyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	k := &KafkaSink{producer: producer, topic: config.Topic}
	go k.drainSuccesses()
	go k.drainErrors()
	return k, nil
}

func (k *KafkaSink) drainSuccesses() {
	for range k.producer.Successes() {
		k.mu.Lock()
		k.sent++
		k.mu.Unlock()
	}
}

func (k *KafkaSink) drainErrors() {
	for range k.producer.Errors() {
		k.mu.Lock()
		k.failed++
		k.mu.Unlock()
	}
}

// RecordHand publishes a hand event to Kafka without blocking on
// broker acknowledgment.
func (k *KafkaSink) RecordHand(ctx context.Context, e HandEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal hand event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(e.SessionID),
		Value: sarama.ByteEncoder(payload),
	}

	select {
	case k.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the producer's cumulative sent/failed counters.
func (k *KafkaSink) Stats() (sent, failed int64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sent, k.failed
}

// Close shuts down the producer.
func (k *KafkaSink) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()
	return k.producer.Close()
}
