// internal/service/worker.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/queue"
)

// Worker wires the conversation handlers to their queues.
type Worker struct {
	Queue        queue.Queue
	Conversation *ConversationService
	SmsQueue     string
	AgentQueue   string
	Logger       *zap.Logger
}

func NewWorker(q queue.Queue, conv *ConversationService, smsQueue, agentQueue string, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Queue:        q,
		Conversation: conv,
		SmsQueue:     smsQueue,
		AgentQueue:   agentQueue,
		Logger:       logger,
	}
}

// Start subscribes both consumers; they stop when ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Queue.Subscribe(ctx, w.SmsQueue, w.Conversation.HandleSms); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.SmsQueue, err)
	}
	if err := w.Queue.Subscribe(ctx, w.AgentQueue, w.Conversation.HandleAgentRequest); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.AgentQueue, err)
	}
	w.Logger.Info("👷 worker consuming", zap.String("sms", w.SmsQueue), zap.String("agent", w.AgentQueue))
	return nil
}

// Run starts the consumers and blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Logger.Info("worker stopping")
	return nil
}
