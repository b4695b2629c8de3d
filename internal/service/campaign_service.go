// internal/service/campaign_service.go
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/queue"
	"github.com/unclebandit/recall-outreach/internal/repository"
)

const maxSearchResults = 50

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	Queue        queue.Queue
	SmsQueue     string
	// Limiter throttles dispatch; nil sends as fast as the queue accepts.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// CreateCampaignResult is returned by CreateCampaign.
type CreateCampaignResult struct {
	CampaignID     string `json:"campaign_id"`
	Contacts       int    `json:"contacts"`
	MessagesQueued int    `json:"messages_queued"`
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// CreateCampaign stores a campaign with the contacts from csvData and, when
// dispatch is true, queues each contact's first SMS rendered from templates.
func (s *CampaignService) CreateCampaign(ctx context.Context, csvData io.Reader, templates map[string]string, dispatch bool) (*CreateCampaignResult, error) {
	if dispatch {
		if t, ok := templates[defaultTemplateKey]; !ok || strings.TrimSpace(t) == "" {
			return nil, appErrors.NewValidationError("template", "a default template is required")
		}
	}

	records, err := ParseContacts(csvData)
	if err != nil {
		return nil, err
	}

	contacts := make([]*model.Contact, len(records))
	for i, r := range records {
		contacts[i] = r.Contact
	}

	campaign, err := s.CampaignRepo.CreateWithContacts(ctx, contacts)
	if err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}
	s.logger().Info("📦 campaign created", zap.String("campaignID", campaign.ID), zap.Int("contacts", len(contacts)))

	result := &CreateCampaignResult{CampaignID: campaign.ID, Contacts: len(contacts)}
	if !dispatch {
		return result, nil
	}

	result.MessagesQueued, err = s.dispatch(ctx, campaign.ID, records, templates)
	return result, err
}

// dispatch publishes one outbound SMS per contact. A failed publish is logged
// and skipped; only context cancellation stops the run.
func (s *CampaignService) dispatch(ctx context.Context, campaignID string, records []ContactRecord, templates map[string]string) (int, error) {
	queued := 0
	for _, r := range records {
		c := r.Contact
		if c.OptOut {
			continue
		}

		tmpl, ok := SelectTemplate(templates, c.Language)
		if !ok {
			s.logger().Warn("⚠️ no template for contact", zap.String("contactID", c.ID), zap.String("language", c.Language))
			continue
		}

		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return queued, fmt.Errorf("dispatch campaign %s: %w", campaignID, err)
			}
		}

		msg := model.SmsMessage{
			ContactID:  c.ID,
			CampaignID: &campaignID,
			Phone:      c.Phone,
			Message:    RenderTemplate(tmpl, r.Fields),
			Customer:   c.Ref(),
			Direction:  model.Outbound,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.Queue.Publish(ctx, s.SmsQueue, msg); err != nil {
			s.logger().Warn("⚠️ failed to enqueue sms", zap.String("contactID", c.ID), zap.Error(err))
			continue
		}
		queued++
	}

	s.logger().Info("campaign dispatched", zap.String("campaignID", campaignID), zap.Int("queued", queued))
	return queued, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// Stats returns the funnel counts of a campaign.
func (s *CampaignService) Stats(ctx context.Context, id string) (*model.FunnelStats, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.CampaignRepo.FunnelStats(ctx, id)
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id string) error {
	if err := s.CampaignRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("campaign deleted", zap.String("campaignID", id))
	return nil
}

func (s *CampaignService) CampaignContacts(ctx context.Context, id string) ([]model.Contact, error) {
	if _, err := s.CampaignRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.ContactRepo.ListByCampaign(ctx, id)
}

// SearchContacts matches first, last or full name case-insensitively.
func (s *CampaignService) SearchContacts(ctx context.Context, query string) ([]model.Contact, error) {
	return s.ContactRepo.Search(ctx, strings.TrimSpace(query), maxSearchResults)
}

func (s *CampaignService) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	c, err := s.ContactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, appErrors.NewContactNotFound(id)
	}
	return c, nil
}

func (s *CampaignService) OptOut(ctx context.Context, id string) error {
	if err := s.ContactRepo.SetOptOut(ctx, id, true); err != nil {
		return err
	}
	s.logger().Info("contact opted out", zap.String("contactID", id))
	return nil
}
