// internal/handler/router.go
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/unclebandit/recall-outreach/internal/controller"
)

// Controllers groups everything the router dispatches to.
type Controllers struct {
	Campaigns    *controller.CampaignController
	Contacts     *controller.ContactController
	Availability *controller.AvailabilityController
}

// NewRouter wires HTTP routes.
func NewRouter(c Controllers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", c.Campaigns.CreateCampaign)
		r.Get("/{id}/stats", c.Campaigns.Stats)
		r.Get("/{id}/contacts", c.Campaigns.Contacts)
		r.Delete("/{id}", c.Campaigns.Delete)
	})

	r.Route("/contacts", func(r chi.Router) {
		r.Get("/", c.Contacts.Search)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", c.Contacts.Get)
			r.Post("/opt-out", c.Contacts.OptOut)
			r.Get("/messages", c.Contacts.Messages)
			r.Post("/messages", c.Contacts.SendMessage)
			r.Post("/inbound", c.Contacts.Inbound)
			r.Get("/appointments", c.Contacts.Appointments)
			r.Post("/appointments", c.Contacts.BookAppointment)
		})
	})

	r.Get("/availability", c.Availability.Get)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("📥 request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", middleware.GetReqID(r.Context())),
			)
		})
	}
}
