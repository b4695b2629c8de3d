package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unclebandit/recall-outreach/internal/queue"
	"github.com/unclebandit/recall-outreach/internal/service"
)

func TestWorkerRunsInboundThroughAgent(t *testing.T) {
	f := newConversation(ana())
	q := queue.NewInMemoryQueue(nil)
	f.svc.Queue = q

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := service.NewWorker(q, f.svc, "sms_queue", "agent_queue", nil)
	require.NoError(t, w.Start(ctx))

	_, err := f.svc.ReceiveInbound(ctx, "contact-1", "¿puedo ir el viernes?")
	require.NoError(t, err)
	q.Wait()

	require.Equal(t, []string{
		"inbound:¿puedo ir el viernes?",
		"outbound:Claro, ¿qué día le queda bien?",
	}, f.messages.Bodies("contact-1"))
}

func TestWorkerRunStopsWithContext(t *testing.T) {
	f := newConversation()
	q := queue.NewInMemoryQueue(nil)
	w := service.NewWorker(q, f.svc, "sms_queue", "agent_queue", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	cancel()

	require.NoError(t, <-done)
}
