// internal/controller/availability_controller.go
package controller

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
)

type AvailabilityService interface {
	Availability(ctx context.Context, date string) (scheduling.AvailabilityResult, error)
}

var _ AvailabilityService = (*scheduling.Service)(nil)

type AvailabilityController struct {
	Scheduler AvailabilityService
	Logger    *zap.Logger
}

// Get handles GET /availability?date=YYYY-MM-DD.
func (c *AvailabilityController) Get(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, c.Logger, appErrors.NewValidationError("date", "date query parameter is required"))
		return
	}
	result, err := c.Scheduler.Availability(r.Context(), date)
	if err != nil {
		writeError(w, c.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
