package events

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-booking-api/pkg/config"
)

func TestNewWriterDisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewWriter(config.NotificationsConfig{KafkaTopic: "lesson-events"}))
	assert.Nil(t, NewWriter(config.NotificationsConfig{KafkaBrokers: []string{"localhost:9092"}}))
}

func TestNewWriterHashesByKey(t *testing.T) {
	w := NewWriter(config.NotificationsConfig{KafkaBrokers: []string{"a:9092", "b:9092"}, KafkaTopic: "lesson-events"})
	require.NotNil(t, w)
	assert.Equal(t, "lesson-events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	assert.Error(t, ReadyCheck(nil)(context.Background()))
}
