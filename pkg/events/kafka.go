// Package events builds the Kafka writer lesson notifications are published on.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/noah-isme/tutor-booking-api/pkg/config"
)

// NewWriter returns a writer for cfg.KafkaTopic, or nil when no brokers are
// configured. Messages are hashed by key so one lesson's events stay ordered.
func NewWriter(cfg config.NotificationsConfig) *kafka.Writer {
	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopic == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// ReadyCheck dials the first broker.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
