package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const reconnectDelay = 2 * time.Second

// Broker is a RabbitMQ-backed Queue. The connection is dialled on first use
// and dropped when the server closes it, so the next call dials again.
type Broker struct {
	url    string
	logger *zap.Logger

	mu       sync.Mutex
	conn     *amqp.Connection
	pubCh    *amqp.Channel
	declared map[string]bool
	closed   bool
}

var _ Queue = (*Broker)(nil)

func NewBroker(url string, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{url: url, logger: logger, declared: make(map[string]bool)}
}

var errBrokerClosed = errors.New("broker closed")

// connection returns the live connection, dialling if needed. Caller holds mu.
func (b *Broker) connection() (*amqp.Connection, error) {
	if b.closed {
		return nil, errBrokerClosed
	}
	if b.conn != nil && !b.conn.IsClosed() {
		return b.conn, nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	b.conn = conn
	b.pubCh = nil
	b.declared = make(map[string]bool)

	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closes; ok && err != nil {
			b.logger.Warn("rabbitmq connection closed", zap.String("reason", err.Reason))
		}
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
			b.pubCh = nil
		}
		b.mu.Unlock()
	}()

	b.logger.Info("✅ Connected to RabbitMQ")
	return conn, nil
}

func declare(ch *amqp.Channel, topic string) error {
	_, err := ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	return nil
}

// Publish sends payload as a persistent JSON message on the queue named topic.
func (b *Broker) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := b.connection()
	if err != nil {
		return err
	}
	if b.pubCh == nil {
		ch, err := conn.Channel()
		if err != nil {
			return fmt.Errorf("open channel: %w", err)
		}
		b.pubCh = ch
	}
	if !b.declared[topic] {
		if err := declare(b.pubCh, topic); err != nil {
			b.pubCh = nil
			return err
		}
		b.declared[topic] = true
	}

	err = b.pubCh.Publish("", topic, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		b.pubCh = nil
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts consuming topic with prefetch 1 and returns once the first
// consumer is registered. Lost connections are re-established until ctx ends.
func (b *Broker) Subscribe(ctx context.Context, topic string, handler Handler) error {
	ch, deliveries, err := b.consume(topic)
	if err != nil {
		return err
	}

	go func() {
		for {
			b.serve(ctx, topic, deliveries, handler)
			ch.Close()
			if ctx.Err() != nil {
				return
			}

			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(reconnectDelay):
				}
				ch, deliveries, err = b.consume(topic)
				if err == nil {
					b.logger.Info("consumer resubscribed", zap.String("queue", topic))
					break
				}
				if errors.Is(err, errBrokerClosed) {
					return
				}
				b.logger.Warn("resubscribe failed", zap.String("queue", topic), zap.Error(err))
			}
		}
	}()
	return nil
}

func (b *Broker) consume(topic string) (*amqp.Channel, <-chan amqp.Delivery, error) {
	b.mu.Lock()
	conn, err := b.connection()
	b.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("set qos: %w", err)
	}
	if err := declare(ch, topic); err != nil {
		ch.Close()
		return nil, nil, err
	}

	deliveries, err := ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("register consumer on %s: %w", topic, err)
	}
	return ch, deliveries, nil
}

func (b *Broker) serve(ctx context.Context, topic string, deliveries <-chan amqp.Delivery, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			b.handle(ctx, topic, d, handler)
		}
	}
}

// handle settles one delivery: ack on success, requeue a first failure,
// drop a failure that was already redelivered.
func (b *Broker) handle(ctx context.Context, topic string, d amqp.Delivery, handler Handler) {
	err := handler(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			b.logger.Error("ack failed", zap.String("queue", topic), zap.Error(ackErr))
		}
		return
	}

	requeue := !d.Redelivered
	if requeue {
		b.logger.Warn("⚠️ message failed, requeueing", zap.String("queue", topic), zap.Error(err))
	} else {
		b.logger.Error("message failed twice, dropping", zap.String("queue", topic), zap.Error(err))
	}
	if nackErr := d.Nack(false, requeue); nackErr != nil {
		b.logger.Error("nack failed", zap.String("queue", topic), zap.Error(nackErr))
	}
}

// Close shuts the connection; subsequent calls fail with errBrokerClosed.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.conn == nil {
		return nil
	}
	conn := b.conn
	b.conn = nil
	b.pubCh = nil
	if conn.IsClosed() {
		return nil
	}
	return conn.Close()
}
