// internal/service/conversation_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/agent"
	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/queue"
	"github.com/unclebandit/recall-outreach/internal/repository"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
)

const (
	DefaultHistorySize = 10
	stopKeyword        = "STOP"
)

// Replier produces the assistant's answer to one inbound SMS.
type Replier interface {
	Reply(ctx context.Context, turn agent.Turn) (string, error)
}

// Booker is the scheduling surface used by operators over HTTP.
type Booker interface {
	ScheduleAppointment(ctx context.Context, contactID, dateTime string) (scheduling.ScheduleResult, error)
}

// TurnDeduper guards agent requests against redelivery.
type TurnDeduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type ConversationService struct {
	ContactRepo     repository.ContactRepositoryInterface
	MessageRepo     repository.MessageRepositoryInterface
	AppointmentRepo repository.AppointmentRepositoryInterface
	Queue           queue.Queue
	SmsQueue        string
	AgentQueue      string
	Scheduler       Booker
	// Agent and Deduper are only needed by the worker.
	Agent       Replier
	Deduper     TurnDeduper
	HistorySize int
	Logger      *zap.Logger
}

func (s *ConversationService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *ConversationService) contact(ctx context.Context, id string) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, appErrors.NewContactNotFound(id)
	}
	return c, nil
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// IsStop reports whether an inbound body is an opt-out request.
func IsStop(body string) bool {
	return strings.EqualFold(strings.TrimSpace(body), stopKeyword)
}

// SendOperatorMessage queues an outbound SMS written by a human operator.
func (s *ConversationService) SendOperatorMessage(ctx context.Context, contactID, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return appErrors.NewValidationError("body", "message body is required")
	}

	c, err := s.contact(ctx, contactID)
	if err != nil {
		return err
	}
	if c.OptOut {
		return appErrors.NewValidationError("contact", "contact has opted out of messages")
	}

	return s.Queue.Publish(ctx, s.SmsQueue, model.SmsMessage{
		ContactID:  c.ID,
		CampaignID: optionalID(c.CampaignID),
		Phone:      c.Phone,
		Message:    body,
		Customer:   c.Ref(),
		Direction:  model.Outbound,
		Timestamp:  time.Now().UTC(),
	})
}

// ReceiveInbound records an SMS from the customer and hands it to the agent.
// STOP opts the contact out instead; opted-out contacts never reach the agent.
func (s *ConversationService) ReceiveInbound(ctx context.Context, contactID, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, appErrors.NewValidationError("body", "message body is required")
	}

	c, err := s.contact(ctx, contactID)
	if err != nil {
		return nil, err
	}

	msg := &model.Message{
		CampaignID: optionalID(c.CampaignID),
		ContactID:  c.ID,
		Direction:  model.Inbound,
		Body:       body,
	}
	if err := s.MessageRepo.Append(ctx, msg); err != nil {
		return nil, fmt.Errorf("store inbound message: %w", err)
	}

	if IsStop(body) {
		if err := s.ContactRepo.SetOptOut(ctx, c.ID, true); err != nil {
			return nil, err
		}
		s.logger().Info("🛑 contact opted out by SMS", zap.String("contactID", c.ID))
		return msg, nil
	}
	if c.OptOut {
		s.logger().Debug("inbound from opted-out contact, agent skipped", zap.String("contactID", c.ID))
		return msg, nil
	}

	err = s.Queue.Publish(ctx, s.AgentQueue, model.AgentRequest{
		ContactID:        c.ID,
		CampaignID:       msg.CampaignID,
		InboundMessageID: msg.ID,
		Phone:            c.Phone,
		Message:          body,
		Customer:         c.Ref(),
		Timestamp:        msg.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue agent request: %w", err)
	}
	return msg, nil
}

// HandleSms consumes sms_queue: the message is appended to the contact's
// history. Outbound messages to opted-out contacts are dropped.
func (s *ConversationService) HandleSms(ctx context.Context, body []byte) error {
	var sms model.SmsMessage
	if err := json.Unmarshal(body, &sms); err != nil {
		s.logger().Warn("⚠️ invalid sms payload, dropping", zap.Error(err))
		return nil
	}
	if sms.Direction == "" {
		sms.Direction = model.Outbound
	}
	if !sms.Direction.Valid() || sms.ContactID == "" {
		s.logger().Warn("⚠️ malformed sms payload, dropping",
			zap.String("contactID", sms.ContactID), zap.String("direction", string(sms.Direction)))
		return nil
	}

	c, err := s.ContactRepo.GetByID(ctx, sms.ContactID)
	if err != nil {
		return err
	}
	if c == nil {
		s.logger().Warn("⚠️ contact not found for sms", zap.String("contactID", sms.ContactID))
		return nil
	}
	if sms.Direction == model.Outbound && c.OptOut {
		s.logger().Info("sms suppressed for opted-out contact", zap.String("contactID", c.ID))
		return nil
	}

	campaignID := sms.CampaignID
	if campaignID == nil {
		campaignID = optionalID(c.CampaignID)
	}
	err = s.MessageRepo.Append(ctx, &model.Message{
		CampaignID: campaignID,
		ContactID:  c.ID,
		Direction:  sms.Direction,
		Body:       sms.Message,
	})
	if err != nil {
		return fmt.Errorf("store sms: %w", err)
	}

	s.logger().Debug("📩 sms stored", zap.String("contactID", c.ID), zap.String("direction", string(sms.Direction)))
	return nil
}

// HandleAgentRequest consumes agent_queue: it runs one agent turn and queues
// the reply. Duplicate deliveries of the same inbound message are skipped.
func (s *ConversationService) HandleAgentRequest(ctx context.Context, body []byte) (err error) {
	var req model.AgentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.logger().Warn("⚠️ invalid agent payload, dropping", zap.Error(err))
		return nil
	}
	log := s.logger().With(zap.String("contactID", req.ContactID), zap.String("inboundMessageID", req.InboundMessageID))

	if s.Deduper != nil && req.InboundMessageID != "" {
		var claimed bool
		claimed, err = s.Deduper.Claim(ctx, req.InboundMessageID)
		if err != nil {
			return err
		}
		if !claimed {
			log.Info("duplicate agent request skipped")
			return nil
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := s.Deduper.Release(context.WithoutCancel(ctx), req.InboundMessageID); relErr != nil {
				log.Error("release turn claim", zap.Error(relErr))
			}
		}()
	}

	c, err := s.ContactRepo.GetByID(ctx, req.ContactID)
	if err != nil {
		return err
	}
	if c == nil {
		log.Warn("⚠️ contact not found for agent request")
		return nil
	}
	if c.OptOut {
		log.Info("agent request for opted-out contact ignored")
		return nil
	}

	history, err := s.history(ctx, c.ID, req.InboundMessageID, req.Timestamp)
	if err != nil {
		return err
	}

	reply, err := s.Agent.Reply(ctx, agent.Turn{Message: req.Message, Customer: *c, History: history})
	if errors.Is(err, agent.ErrNoReply) {
		log.Warn("agent produced no reply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("agent turn: %w", err)
	}

	campaignID := req.CampaignID
	if campaignID == nil {
		campaignID = optionalID(c.CampaignID)
	}
	err = s.Queue.Publish(ctx, s.SmsQueue, model.SmsMessage{
		ContactID:  c.ID,
		CampaignID: campaignID,
		Phone:      c.Phone,
		Message:    reply,
		Customer:   c.Ref(),
		Direction:  model.Outbound,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("enqueue agent reply: %w", err)
	}

	log.Info("🤖 agent reply queued")
	return nil
}

// history returns the messages up to the triggering inbound, oldest first,
// without the inbound itself. A zero at means no upper bound.
func (s *ConversationService) history(ctx context.Context, contactID, excludeID string, at time.Time) ([]model.Message, error) {
	size := s.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	recent, err := s.MessageRepo.Recent(ctx, contactID, at, size+1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	out := make([]model.Message, 0, len(recent))
	for _, m := range recent {
		if excludeID != "" && m.ID == excludeID {
			continue
		}
		out = append(out, m)
	}
	if len(out) > size {
		out = out[:size]
	}
	slices.Reverse(out)
	return out, nil
}

// History returns every message of a contact, oldest first.
func (s *ConversationService) History(ctx context.Context, contactID string) ([]model.Message, error) {
	if _, err := s.contact(ctx, contactID); err != nil {
		return nil, err
	}
	return s.MessageRepo.ListByContact(ctx, contactID)
}

func (s *ConversationService) Appointments(ctx context.Context, contactID string) ([]model.Appointment, error) {
	if _, err := s.contact(ctx, contactID); err != nil {
		return nil, err
	}
	return s.AppointmentRepo.ListByContact(ctx, contactID)
}

// BookAppointment books on behalf of a known contact.
func (s *ConversationService) BookAppointment(ctx context.Context, contactID, dateTime string) (scheduling.ScheduleResult, error) {
	if strings.TrimSpace(dateTime) == "" {
		return scheduling.ScheduleResult{}, appErrors.NewValidationError("date_time", "date_time is required")
	}
	if _, err := s.contact(ctx, contactID); err != nil {
		return scheduling.ScheduleResult{}, err
	}
	return s.Scheduler.ScheduleAppointment(ctx, contactID, dateTime)
}
