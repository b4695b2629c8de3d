package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handler processes one message body. Returning an error asks the queue to
// redeliver; malformed payloads should be logged and acknowledged with nil.
type Handler func(ctx context.Context, body []byte) error

// Queue is the publish/subscribe surface shared by the API and the worker.
type Queue interface {
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
}

// InMemoryQueue delivers in-process with retry; used by tests and local runs
// without a broker.
type InMemoryQueue struct {
	MaxRetries int
	Backoff    time.Duration
	Logger     *zap.Logger

	mu       sync.Mutex
	handlers map[string][]subscription
	wg       sync.WaitGroup
}

type subscription struct {
	ctx     context.Context
	handler Handler
}

var _ Queue = (*InMemoryQueue)(nil)

func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logger,
		handlers:   make(map[string][]subscription),
	}
}

// job wraps a message body with retry info
type job struct {
	topic      string
	body       []byte
	retryCount int
}

// Publish hands the JSON-encoded payload to every live subscriber of topic.
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}

	q.mu.Lock()
	subs := make([]subscription, 0, len(q.handlers[topic]))
	for _, s := range q.handlers[topic] {
		if s.ctx.Err() == nil {
			subs = append(subs, s)
		}
	}
	q.mu.Unlock()

	if len(subs) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, s := range subs {
		q.wg.Add(1)
		go q.process(s, job{topic: topic, body: body})
	}
	return nil
}

func (q *InMemoryQueue) process(s subscription, j job) {
	defer q.wg.Done()

	for {
		err := s.handler(s.ctx, j.body)
		if err == nil {
			return
		}

		j.retryCount++
		q.Logger.Warn("job failed",
			zap.String("topic", j.topic), zap.Int("attempt", j.retryCount), zap.Error(err))

		if j.retryCount > q.MaxRetries {
			q.Logger.Error("job permanently failed", zap.String("topic", j.topic), zap.Int("attempts", j.retryCount))
			return
		}

		// linear backoff, abandoned when the subscriber goes away
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(time.Duration(j.retryCount) * q.Backoff):
		}
	}
}

// Subscribe registers handler until ctx is cancelled. It does not block.
func (q *InMemoryQueue) Subscribe(ctx context.Context, topic string, handler Handler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], subscription{ctx: ctx, handler: handler})
	return nil
}

// Wait blocks until every in-flight job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}
