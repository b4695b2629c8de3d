// Package agent runs the SMS booking assistant: a bounded tool-calling
// exchange with a language model that can check availability and book.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
)

const (
	DefaultMaxSteps    = 3
	DefaultTurnTimeout = 45 * time.Second

	toolCheckAvailability   = "checkAvailability"
	toolScheduleAppointment = "scheduleAppointment"
)

// ErrNoReply means the model finished the turn without any text for the customer.
var ErrNoReply = errors.New("agent produced no reply")

// Scheduler is the booking surface exposed to the model as tools.
type Scheduler interface {
	Availability(ctx context.Context, date string) (scheduling.AvailabilityResult, error)
	ScheduleAppointment(ctx context.Context, contactID, dateTime string) (scheduling.ScheduleResult, error)
}

// Turn is everything the agent knows when one inbound SMS arrives.
type Turn struct {
	Message  string
	Customer model.Contact
	// History is chronological and excludes Message itself.
	History []model.Message
}

type Options struct {
	MaxSteps    int
	TurnTimeout time.Duration
	Hours       scheduling.BusinessHours
	Location    *time.Location
	Logger      *zap.Logger
	Now         func() time.Time
}

type Agent struct {
	backend   Backend
	scheduler Scheduler
	maxSteps  int
	timeout   time.Duration
	hours     scheduling.BusinessHours
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func New(backend Backend, scheduler Scheduler, opts Options) *Agent {
	a := &Agent{
		backend:   backend,
		scheduler: scheduler,
		maxSteps:  opts.MaxSteps,
		timeout:   opts.TurnTimeout,
		hours:     opts.Hours,
		loc:       opts.Location,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if a.maxSteps <= 0 {
		a.maxSteps = DefaultMaxSteps
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTurnTimeout
	}
	if a.hours.End == 0 {
		a.hours = scheduling.DefaultHours
	}
	if a.loc == nil {
		a.loc = time.Local
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

type state int

const (
	awaitingModel state = iota
	executingTools
	done
)

// Reply runs one turn and returns the text to send back to the customer.
// The model gets at most maxSteps generations; tool calls left over after
// the last one are still executed but not answered.
func (a *Agent) Reply(ctx context.Context, turn Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	session, err := a.backend.StartSession(ctx, a.systemPrompt(turn.Customer), turn.History, toolSpecs())
	if err != nil {
		return "", fmt.Errorf("start model session: %w", err)
	}

	var (
		reply    *ModelReply
		results  []ToolResult
		lastText string
		steps    int
		st       = awaitingModel
	)

	for st != done {
		switch st {
		case awaitingModel:
			if steps == 0 {
				reply, err = session.Send(ctx, turn.Message)
			} else {
				reply, err = session.SendToolResults(ctx, results)
			}
			if err != nil {
				return "", fmt.Errorf("model step %d: %w", steps+1, err)
			}
			steps++
			if text := strings.TrimSpace(reply.Text); text != "" {
				lastText = text
			}
			if len(reply.ToolCalls) > 0 {
				st = executingTools
			} else {
				st = done
			}

		case executingTools:
			results, err = a.runTools(ctx, turn.Customer.ID, reply.ToolCalls)
			if err != nil {
				return "", err
			}
			if steps >= a.maxSteps {
				a.logger.Warn("agent step limit reached",
					zap.String("contactID", turn.Customer.ID), zap.Int("steps", steps))
				st = done
			} else {
				st = awaitingModel
			}
		}
	}

	if lastText == "" {
		return "", ErrNoReply
	}
	return lastText, nil
}

func (a *Agent) runTools(ctx context.Context, contactID string, calls []ToolCall) ([]ToolResult, error) {
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		a.logger.Debug("tool call", zap.String("tool", call.Name), zap.Any("args", call.Args))

		response, err := a.callTool(ctx, contactID, call)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", call.Name, err)
		}
		results = append(results, ToolResult{Name: call.Name, Response: response})
	}
	return results, nil
}

// callTool returns argument and validation problems inside the response so
// the model can correct itself; anything else is fatal for the turn.
func (a *Agent) callTool(ctx context.Context, contactID string, call ToolCall) (map[string]any, error) {
	switch call.Name {
	case toolCheckAvailability:
		date, ok := stringArg(call.Args, "date")
		if !ok {
			return toolError("missing required argument: date (YYYY-MM-DD)"), nil
		}
		res, err := a.scheduler.Availability(ctx, date)
		if err != nil {
			if appErrors.IsValidation(err) {
				return toolError(err.Error()), nil
			}
			return nil, err
		}
		return map[string]any{
			"date":      res.Date,
			"available": res.Available,
			"message":   res.Message,
			"slots":     res.Slots,
		}, nil

	case toolScheduleAppointment:
		dateTime, ok := stringArg(call.Args, "dateTime")
		if !ok {
			return toolError("missing required argument: dateTime (ISO 8601, e.g. 2024-03-15T10:00:00)"), nil
		}
		res, err := a.scheduler.ScheduleAppointment(ctx, contactID, dateTime)
		if err != nil {
			return nil, err
		}
		out := map[string]any{
			"success": res.Success,
			"message": res.Message,
		}
		if res.AppointmentID != "" {
			out["appointmentId"] = res.AppointmentID
		}
		return out, nil
	}

	return toolError(fmt.Sprintf("unknown tool %q", call.Name)), nil
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func toolError(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func toolSpecs() []ToolSpec {
	return []ToolSpec{
		{
			Name:        toolCheckAvailability,
			Description: "Lists the free one-hour appointment slots on a date. Weekends never have slots.",
			Params: []ParamSpec{
				{Name: "date", Type: "string", Description: "Date in YYYY-MM-DD format", Required: true},
			},
		},
		{
			Name:        toolScheduleAppointment,
			Description: "Books the service appointment for this customer at the given hour.",
			Params: []ParamSpec{
				{Name: "dateTime", Type: "string", Description: "Local date and time in ISO 8601, e.g. 2024-03-15T10:00:00", Required: true},
			},
		},
	}
}
