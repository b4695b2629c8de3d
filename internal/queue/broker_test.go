package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

type recordingAck struct {
	acked   int
	nacked  int
	requeue bool
}

func (r *recordingAck) Ack(tag uint64, multiple bool) error {
	r.acked++
	return nil
}

func (r *recordingAck) Nack(tag uint64, multiple bool, requeue bool) error {
	r.nacked++
	r.requeue = requeue
	return nil
}

func (r *recordingAck) Reject(tag uint64, requeue bool) error {
	return nil
}

func TestBrokerHandleAcksSuccess(t *testing.T) {
	b := NewBroker("amqp://unused", nil)
	ack := &recordingAck{}

	var seen []byte
	b.handle(context.Background(), "sms_queue", amqp.Delivery{Acknowledger: ack, Body: []byte(`{"id":"1"}`)},
		func(ctx context.Context, body []byte) error {
			seen = body
			return nil
		})

	require.Equal(t, 1, ack.acked)
	require.Zero(t, ack.nacked)
	require.JSONEq(t, `{"id":"1"}`, string(seen))
}

func TestBrokerHandleRequeuesFirstFailure(t *testing.T) {
	b := NewBroker("amqp://unused", nil)
	ack := &recordingAck{}

	b.handle(context.Background(), "agent_queue", amqp.Delivery{Acknowledger: ack},
		func(ctx context.Context, body []byte) error { return errors.New("model timeout") })

	require.Equal(t, 1, ack.nacked)
	require.True(t, ack.requeue)
}

func TestBrokerHandleDropsRedeliveredFailure(t *testing.T) {
	b := NewBroker("amqp://unused", nil)
	ack := &recordingAck{}

	b.handle(context.Background(), "agent_queue", amqp.Delivery{Acknowledger: ack, Redelivered: true},
		func(ctx context.Context, body []byte) error { return errors.New("model timeout") })

	require.Equal(t, 1, ack.nacked)
	require.False(t, ack.requeue)
}

func TestBrokerClosedRefusesPublish(t *testing.T) {
	b := NewBroker("amqp://unused", nil)
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), "sms_queue", map[string]string{"a": "b"})
	require.ErrorIs(t, err, errBrokerClosed)
}
