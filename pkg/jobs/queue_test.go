package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("notifications", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{Type: "lesson.cancelled"}))
}

func TestQueueProcessesAndRetries(t *testing.T) {
	var calls int32
	done := make(chan Job, 1)
	q := NewQueue("notifications", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return errors.New("transient")
		}
		done <- job
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 10 * time.Millisecond})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "lesson.rescheduled", Payload: "lesson-1"}))

	select {
	case job := <-done:
		assert.Equal(t, 1, job.Attempt)
		assert.NotEmpty(t, job.ID)
		assert.Equal(t, "lesson-1", job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
}
