// internal/controller/contact_controller.go
package controller

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
	"github.com/unclebandit/recall-outreach/internal/service"
)

// ConversationService is what the per-contact messaging endpoints need.
type ConversationService interface {
	SendOperatorMessage(ctx context.Context, contactID, body string) error
	ReceiveInbound(ctx context.Context, contactID, body string) (*model.Message, error)
	History(ctx context.Context, contactID string) ([]model.Message, error)
	Appointments(ctx context.Context, contactID string) ([]model.Appointment, error)
	BookAppointment(ctx context.Context, contactID, dateTime string) (scheduling.ScheduleResult, error)
}

var _ ConversationService = (*service.ConversationService)(nil)

type ContactController struct {
	CampaignService CampaignService
	Conversation    ConversationService
	Logger          *zap.Logger
}

type messageRequest struct {
	Body string `json:"body"`
}

type appointmentRequest struct {
	DateTime string `json:"date_time"`
}

// Search handles GET /contacts?q=.
func (c *ContactController) Search(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.CampaignService.SearchContacts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": contacts})
}

func (c *ContactController) Get(w http.ResponseWriter, r *http.Request) {
	contact, err := c.CampaignService.GetContact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

func (c *ContactController) OptOut(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.OptOut(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *ContactController) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := c.Conversation.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": msgs})
}

// SendMessage handles POST /contacts/{id}/messages: an operator SMS, queued.
func (c *ContactController) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if err := c.Conversation.SendOperatorMessage(r.Context(), chi.URLParam(r, "id"), body.Body); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// Inbound handles POST /contacts/{id}/inbound, standing in for the SMS gateway webhook.
func (c *ContactController) Inbound(w http.ResponseWriter, r *http.Request) {
	var body messageRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	msg, err := c.Conversation.ReceiveInbound(r.Context(), chi.URLParam(r, "id"), body.Body)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, msg)
}

func (c *ContactController) Appointments(w http.ResponseWriter, r *http.Request) {
	appts, err := c.Conversation.Appointments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": appts})
}

// BookAppointment answers 201 on success and 409 with the reason otherwise.
func (c *ContactController) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var body appointmentRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	result, err := c.Conversation.BookAppointment(r.Context(), chi.URLParam(r, "id"), body.DateTime)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	status := http.StatusCreated
	if !result.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}
