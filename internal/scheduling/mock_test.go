package scheduling_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
)

// MockAppointmentRepo keeps appointments in memory and, like the unique
// constraint on scheduled_at, lets only one row exist per window.
type MockAppointmentRepo struct {
	mu    sync.Mutex
	items []model.Appointment
	err   error
}

func (m *MockAppointmentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Appointment
	for _, a := range m.items {
		if !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (m *MockAppointmentRepo) Book(ctx context.Context, appt *model.Appointment, from, to time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, a := range m.items {
		if !a.ScheduledAt.Before(from) && !a.ScheduledAt.After(to) {
			return appErrors.ErrSlotTaken
		}
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	m.items = append(m.items, *appt)
	return nil
}

func (m *MockAppointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockAppointmentRepo) ListByContact(ctx context.Context, contactID string) ([]model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Appointment
	for _, a := range m.items {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil
}

type MockContacts struct {
	contacts map[string]*model.Contact
}

func (m *MockContacts) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	return m.contacts[id], nil
}

// NotCreatedRepo simulates an insert that returns no row.
type NotCreatedRepo struct {
	MockAppointmentRepo
}

func (n *NotCreatedRepo) Book(ctx context.Context, appt *model.Appointment, from, to time.Time) error {
	return appErrors.ErrAppointmentNotCreated
}
