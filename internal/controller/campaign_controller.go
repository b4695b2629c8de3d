// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/service"
)

const maxUploadBytes = 10 << 20

// CampaignService is what the campaign and contact endpoints need.
type CampaignService interface {
	CreateCampaign(ctx context.Context, csvData io.Reader, templates map[string]string, dispatch bool) (*service.CreateCampaignResult, error)
	Stats(ctx context.Context, id string) (*model.FunnelStats, error)
	CampaignContacts(ctx context.Context, id string) ([]model.Contact, error)
	DeleteCampaign(ctx context.Context, id string) error
	SearchContacts(ctx context.Context, query string) ([]model.Contact, error)
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	OptOut(ctx context.Context, id string) error
}

var _ CampaignService = (*service.CampaignService)(nil)

type CampaignController struct {
	CampaignService CampaignService
	Logger          *zap.Logger
}

// CreateCampaign handles POST /campaigns (multipart: file, template, templates).
func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, c.Logger, appErrors.NewValidationError("file", "expected a multipart form with a CSV file"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, c.Logger, appErrors.NewValidationError("file", "CSV file is required"))
		return
	}
	defer file.Close()

	templates := map[string]string{}
	if raw := strings.TrimSpace(r.FormValue("templates")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &templates); err != nil {
			writeError(w, c.Logger, appErrors.NewValidationError("templates", "templates must be a JSON object of language to template"))
			return
		}
	}
	if t := r.FormValue("template"); strings.TrimSpace(t) != "" {
		templates["default"] = t
	}

	result, err := c.CampaignService.CreateCampaign(r.Context(), file, templates, true)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (c *CampaignController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.CampaignService.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (c *CampaignController) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.CampaignService.CampaignContacts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": contacts})
}

func (c *CampaignController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.CampaignService.DeleteCampaign(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
