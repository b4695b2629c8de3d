package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/repository"
)

const dateLayout = "2006-01-02"

// local date-time layouts; anything carrying an offset goes through RFC 3339
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ContactLookup is the part of the contact store the scheduler needs.
type ContactLookup interface {
	GetByID(ctx context.Context, id string) (*model.Contact, error)
}

// Service answers availability questions and books appointments.
type Service struct {
	Appointments repository.AppointmentRepositoryInterface
	Contacts     ContactLookup
	Hours        BusinessHours
	Location     *time.Location
	Logger       *zap.Logger
}

// NewService builds a Service. A nil location means time.Local.
func NewService(appointments repository.AppointmentRepositoryInterface, contacts ContactLookup, hours BusinessHours, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Appointments: appointments,
		Contacts:     contacts,
		Hours:        hours,
		Location:     loc,
		Logger:       logger,
	}
}

// AvailabilityResult is what the checkAvailability tool and the HTTP API return.
type AvailabilityResult struct {
	Date      string   `json:"date"`
	Available bool     `json:"available"`
	Message   string   `json:"message"`
	Slots     []string `json:"slots"`
}

// ScheduleResult is a booking outcome. Rejections are values, not errors.
type ScheduleResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	AppointmentID string `json:"appointmentId,omitempty"`
}

// CheckAvailability returns the free slots of date ("YYYY-MM-DD") as 12-hour
// clock strings, ascending. Weekends yield an empty slice.
func (s *Service) CheckAvailability(ctx context.Context, date string) ([]string, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	return s.freeSlots(ctx, day)
}

// Availability wraps CheckAvailability with a customer-facing message.
func (s *Service) Availability(ctx context.Context, date string) (AvailabilityResult, error) {
	day, err := s.parseDate(date)
	if err != nil {
		return AvailabilityResult{}, err
	}

	slots, err := s.freeSlots(ctx, day)
	if err != nil {
		return AvailabilityResult{}, err
	}

	result := AvailabilityResult{
		Date:      date,
		Available: len(slots) > 0,
		Slots:     slots,
	}
	switch {
	case !IsWeekday(day):
		result.Message = "Appointments are only available Monday through Friday."
	case len(slots) == 0:
		result.Message = fmt.Sprintf("No time slots are available on %s.", formatDate(day))
	default:
		result.Message = fmt.Sprintf("Available time slots on %s: %s.", formatDate(day), strings.Join(slots, ", "))
	}
	return result, nil
}

func (s *Service) parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", appErrors.ErrInvalidDate, date)
	}
	return day, nil
}

func (s *Service) freeSlots(ctx context.Context, day time.Time) ([]string, error) {
	if !IsWeekday(day) {
		return []string{}, nil
	}

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.Location)
	endOfDay := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), s.Location)

	booked, err := s.Appointments.ListBetween(ctx, startOfDay, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	bookedHours := make(map[int]bool, len(booked))
	for _, a := range booked {
		bookedHours[a.ScheduledAt.In(s.Location).Hour()] = true
	}

	slots := []string{}
	for _, hour := range s.Hours.Slots() {
		if !bookedHours[hour] {
			slots = append(slots, FormatSlot(hour))
		}
	}
	return slots, nil
}

// ScheduleAppointment books the hour containing dateTime for the contact.
// Business rule violations come back as ScheduleResult{Success: false};
// only storage failures are returned as errors.
func (s *Service) ScheduleAppointment(ctx context.Context, contactID, dateTime string) (ScheduleResult, error) {
	requested, ok := s.parseDateTime(dateTime)
	if !ok {
		return ScheduleResult{
			Message: "I couldn't understand that date and time. Please use a format like 2024-03-15T10:00:00.",
		}, nil
	}

	if !IsWeekday(requested) {
		return ScheduleResult{Message: "Appointments are only available Monday through Friday."}, nil
	}

	hour := requested.Hour()
	if !s.Hours.Contains(hour) {
		return ScheduleResult{
			Message: fmt.Sprintf("Appointments are only available between %s and %s.",
				FormatSlot(s.Hours.Start), FormatSlot(s.Hours.LastSlot())),
		}, nil
	}

	contact, err := s.Contacts.GetByID(ctx, contactID)
	if err != nil {
		return ScheduleResult{}, fmt.Errorf("get contact: %w", err)
	}
	if contact == nil {
		return ScheduleResult{Message: "Contact not found."}, nil
	}

	startOfHour := time.Date(requested.Year(), requested.Month(), requested.Day(), hour, 0, 0, 0, s.Location)
	endOfHour := time.Date(requested.Year(), requested.Month(), requested.Day(), hour, 59, 59, int(999*time.Millisecond), s.Location)

	appt := &model.Appointment{
		ContactID:   contact.ID,
		ScheduledAt: startOfHour,
	}
	if contact.CampaignID != "" {
		campaignID := contact.CampaignID
		appt.CampaignID = &campaignID
	}

	err = s.Appointments.Book(ctx, appt, startOfHour, endOfHour)
	switch {
	case errors.Is(err, appErrors.ErrSlotTaken):
		return ScheduleResult{
			Message: fmt.Sprintf("The %s time slot is already booked. Please choose another time.", FormatSlot(hour)),
		}, nil
	case errors.Is(err, appErrors.ErrAppointmentNotCreated):
		return ScheduleResult{Message: "Failed to create appointment."}, nil
	case err != nil:
		return ScheduleResult{}, fmt.Errorf("book appointment: %w", err)
	}

	s.Logger.Info("appointment booked",
		zap.String("appointmentID", appt.ID),
		zap.String("contactID", contact.ID),
		zap.Time("scheduledAt", startOfHour))

	return ScheduleResult{
		Success:       true,
		Message:       fmt.Sprintf("Appointment successfully scheduled for %s at %s.", formatDate(startOfHour), FormatSlot(hour)),
		AppointmentID: appt.ID,
	}, nil
}

func (s *Service) parseDateTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(s.Location), true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, s.Location); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
