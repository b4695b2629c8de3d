package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/unclebandit/recall-outreach/internal/agent"
	appErrors "github.com/unclebandit/recall-outreach/internal/errors"
	"github.com/unclebandit/recall-outreach/internal/model"
	"github.com/unclebandit/recall-outreach/internal/queue"
	"github.com/unclebandit/recall-outreach/internal/repository"
	"github.com/unclebandit/recall-outreach/internal/scheduling"
)

// Mock repositories

type MockContactRepo struct {
	mu       sync.Mutex
	contacts map[string]*model.Contact
}

var _ repository.ContactRepositoryInterface = (*MockContactRepo)(nil)

func NewMockContactRepo(contacts ...model.Contact) *MockContactRepo {
	m := &MockContactRepo{contacts: make(map[string]*model.Contact)}
	for i := range contacts {
		c := contacts[i]
		m.contacts[c.ID] = &c
	}
	return m
}

func (m *MockContactRepo) GetByID(ctx context.Context, id string) (*model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *MockContactRepo) ListByCampaign(ctx context.Context, campaignID string) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Contact
	for _, c := range m.contacts {
		if c.CampaignID == campaignID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out, nil
}

func (m *MockContactRepo) Search(ctx context.Context, query string, limit int) ([]model.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var out []model.Contact
	for _, c := range m.contacts {
		if strings.Contains(strings.ToLower(c.FullName()), q) && len(out) < limit {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *MockContactRepo) SetOptOut(ctx context.Context, id string, optOut bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return appErrors.NewContactNotFound(id)
	}
	c.OptOut = optOut
	return nil
}

type MockCampaignRepo struct {
	mu        sync.Mutex
	contacts  *MockContactRepo
	campaigns map[string]*model.Campaign
	seq       int
	stats     model.FunnelStats
}

var _ repository.CampaignRepositoryInterface = (*MockCampaignRepo)(nil)

func NewMockCampaignRepo(contacts *MockContactRepo) *MockCampaignRepo {
	return &MockCampaignRepo{contacts: contacts, campaigns: make(map[string]*model.Campaign)}
}

func (m *MockCampaignRepo) CreateWithContacts(ctx context.Context, contacts []*model.Contact) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c := &model.Campaign{ID: fmt.Sprintf("campaign-%d", m.seq), CreatedAt: time.Now()}
	m.campaigns[c.ID] = c

	m.contacts.mu.Lock()
	defer m.contacts.mu.Unlock()
	for i, ct := range contacts {
		ct.ID = fmt.Sprintf("%s-contact-%d", c.ID, i+1)
		ct.CampaignID = c.ID
		cp := *ct
		m.contacts.contacts[ct.ID] = &cp
	}
	return c, nil
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id string) (*model.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *MockCampaignRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return appErrors.NewCampaignNotFound(id)
	}
	delete(m.campaigns, id)
	return nil
}

func (m *MockCampaignRepo) FunnelStats(ctx context.Context, id string) (*model.FunnelStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	return &s, nil
}

type MockMessageRepo struct {
	mu    sync.Mutex
	items []model.Message
	clock time.Time
	err   error
}

var _ repository.MessageRepositoryInterface = (*MockMessageRepo)(nil)

func NewMockMessageRepo() *MockMessageRepo {
	return &MockMessageRepo{clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (m *MockMessageRepo) Append(ctx context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.clock = m.clock.Add(time.Minute)
	msg.ID = fmt.Sprintf("msg-%d", len(m.items)+1)
	msg.CreatedAt = m.clock
	m.items = append(m.items, *msg)
	return nil
}

func (m *MockMessageRepo) Recent(ctx context.Context, contactID string, before time.Time, limit int) ([]model.Message, error) {
	msgs, _ := m.ListByContact(ctx, contactID)
	var all []model.Message
	for _, msg := range msgs {
		if !msg.CreatedAt.After(before) {
			all = append(all, msg)
		}
	}
	slices.Reverse(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockMessageRepo) ListByContact(ctx context.Context, contactID string) ([]model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Message
	for _, msg := range m.items {
		if msg.ContactID == contactID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MockMessageRepo) Bodies(contactID string) []string {
	msgs, _ := m.ListByContact(context.Background(), contactID)
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		out[i] = string(msg.Direction) + ":" + msg.Body
	}
	return out
}

type MockAppointmentRepo struct {
	items []model.Appointment
}

var _ repository.AppointmentRepositoryInterface = (*MockAppointmentRepo)(nil)

func (m *MockAppointmentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Appointment, error) {
	return nil, nil
}

func (m *MockAppointmentRepo) Book(ctx context.Context, appt *model.Appointment, from, to time.Time) error {
	appt.ID = "appt-1"
	m.items = append(m.items, *appt)
	return nil
}

func (m *MockAppointmentRepo) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	return nil, nil
}

func (m *MockAppointmentRepo) ListByContact(ctx context.Context, contactID string) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range m.items {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil
}

// RecordingQueue keeps published payloads instead of delivering them.
type RecordingQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
	err       error
}

var _ queue.Queue = (*RecordingQueue)(nil)

func NewRecordingQueue() *RecordingQueue {
	return &RecordingQueue{published: make(map[string][][]byte)}
}

func (q *RecordingQueue) Publish(ctx context.Context, topic string, payload any) error {
	if q.err != nil {
		return q.err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published[topic] = append(q.published[topic], body)
	return nil
}

func (q *RecordingQueue) Subscribe(ctx context.Context, topic string, handler queue.Handler) error {
	return nil
}

func (q *RecordingQueue) SmsMessages(topic string) []model.SmsMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.SmsMessage
	for _, b := range q.published[topic] {
		var m model.SmsMessage
		_ = json.Unmarshal(b, &m)
		out = append(out, m)
	}
	return out
}

func (q *RecordingQueue) AgentRequests(topic string) []model.AgentRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []model.AgentRequest
	for _, b := range q.published[topic] {
		var m model.AgentRequest
		_ = json.Unmarshal(b, &m)
		out = append(out, m)
	}
	return out
}

type fakeAgent struct {
	mu    sync.Mutex
	reply string
	err   error
	turns []agent.Turn
}

func (f *fakeAgent) Reply(ctx context.Context, turn agent.Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, turn)
	return f.reply, f.err
}

type fakeDeduper struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{claimed: make(map[string]bool)}
}

func (d *fakeDeduper) Claim(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.claimed[key] {
		return false, nil
	}
	d.claimed[key] = true
	return true, nil
}

func (d *fakeDeduper) Release(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.claimed, key)
	return nil
}

type fakeBooker struct {
	calls []string
}

func (b *fakeBooker) ScheduleAppointment(ctx context.Context, contactID, dateTime string) (scheduling.ScheduleResult, error) {
	b.calls = append(b.calls, contactID+"@"+dateTime)
	return scheduling.ScheduleResult{Success: true, Message: "booked", AppointmentID: "appt-1"}, nil
}

var errBoom = errors.New("boom")
