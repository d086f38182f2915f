package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
)

type fakeSchedules struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.TemplateSchedule
}

func newFakeSchedules(items ...models.TemplateSchedule) *fakeSchedules {
	f := &fakeSchedules{items: make(map[uuid.UUID]models.TemplateSchedule)}
	for _, s := range items {
		f.items[s.ID] = s
	}
	return f
}

func (f *fakeSchedules) GetByID(ctx context.Context, id uuid.UUID) (*models.TemplateSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.items[id]
	if !ok {
		return nil, apperrors.ErrScheduleNotFound
	}
	return &s, nil
}

func (f *fakeSchedules) List(ctx context.Context, active *bool, templateID *uuid.UUID) ([]models.TemplateSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.TemplateSchedule
	for _, s := range f.items {
		if active != nil && s.IsActive != *active {
			continue
		}
		if templateID != nil && s.TemplateID != *templateID {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeSchedules) ListActive(ctx context.Context) ([]models.TemplateSchedule, error) {
	active := true
	return f.List(ctx, &active, nil)
}

func (f *fakeSchedules) Create(ctx context.Context, s *models.TemplateSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	f.items[s.ID] = *s
	return nil
}

func (f *fakeSchedules) Save(ctx context.Context, s *models.TemplateSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[s.ID] = *s
	return nil
}

func (f *fakeSchedules) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperrors.ErrScheduleNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeSchedules) UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.items[id]; ok {
		s.LastRun = &at
		f.items[id] = s
	}
	return nil
}

func (f *fakeSchedules) UpdateNextRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.items[id]; ok {
		s.NextRun = &at
		f.items[id] = s
	}
	return nil
}

type fakeTemplates struct {
	mu        sync.Mutex
	items     map[uuid.UUID]models.MessageTemplate
	schedules *fakeSchedules
}

func newFakeTemplates(items ...models.MessageTemplate) *fakeTemplates {
	f := &fakeTemplates{items: make(map[uuid.UUID]models.MessageTemplate)}
	for _, t := range items {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTemplates) GetByID(ctx context.Context, id uuid.UUID) (*models.MessageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[id]
	if !ok {
		return nil, apperrors.ErrTemplateNotFound
	}
	return &t, nil
}

func (f *fakeTemplates) GetActiveByKey(ctx context.Context, key string) (*models.MessageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.items {
		if t.Key == key && t.IsActive {
			return &t, nil
		}
	}
	return nil, apperrors.ErrTemplateNotFound
}

func (f *fakeTemplates) List(ctx context.Context, category string, active *bool) ([]models.MessageTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MessageTemplate
	for _, t := range f.items {
		if category != "" && t.Category != category {
			continue
		}
		if active != nil && t.IsActive != *active {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeTemplates) Create(ctx context.Context, t *models.MessageTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTemplates) Save(ctx context.Context, t *models.MessageTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTemplates) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return apperrors.ErrTemplateNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTemplates) CountSchedules(ctx context.Context, id uuid.UUID, activeOnly bool) (int64, error) {
	if f.schedules == nil {
		return 0, nil
	}
	var active *bool
	if activeOnly {
		t := true
		active = &t
	}
	items, _ := f.schedules.List(ctx, active, &id)
	return int64(len(items)), nil
}

func (f *fakeTemplates) KeyTaken(ctx context.Context, key string, except uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, t := range f.items {
		if t.Key == key && id != except {
			return true, nil
		}
	}
	return false, nil
}

type fakeCampaigns struct {
	mu         sync.Mutex
	items      map[uuid.UUID]models.CampaignLog
	order      []uuid.UUID
	deliveries []models.DeliveryLog
}

func newFakeCampaigns() *fakeCampaigns {
	return &fakeCampaigns{items: make(map[uuid.UUID]models.CampaignLog)}
}

func (f *fakeCampaigns) Create(ctx context.Context, c *models.CampaignLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.items[c.ID] = *c
	f.order = append(f.order, c.ID)
	return nil
}

func (f *fakeCampaigns) Save(ctx context.Context, c *models.CampaignLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[c.ID]
	if !ok || stored.Sealed() {
		return errors.New("campaign is sealed or missing")
	}
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCampaigns) CreateDelivery(ctx context.Context, d *models.DeliveryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, *d)
	return nil
}

func (f *fakeCampaigns) all() []models.CampaignLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.CampaignLog, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.items[id])
	}
	return out
}

type fakeReservations struct {
	mu    sync.Mutex
	items []models.Reservation
}

func (f *fakeReservations) ListCandidates(ctx context.Context, date string) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.items {
		if r.Status != models.StatusConfirmed {
			continue
		}
		if date != "" && r.Date != date {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// MarkSent fails on a done context, as gorm's WithContext does.
func (f *fakeReservations) MarkSent(ctx context.Context, id uuid.UUID, ch models.SMSChannel, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].MarkSent(ch, at)
			return nil
		}
	}
	return errors.New("reservation not found")
}

func (f *fakeReservations) ParticipantStats(ctx context.Context, date string) (models.ParticipantStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var stats models.ParticipantStats
	for _, r := range f.items {
		if r.Date != date || (r.Status != models.StatusConfirmed && r.Status != models.StatusCompleted) {
			continue
		}
		stats.Total++
		if r.Gender == "여" {
			stats.Female++
		} else {
			stats.Male++
		}
	}
	return stats, nil
}

func (f *fakeReservations) get(id uuid.UUID) models.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ID == id {
			return r
		}
	}
	return models.Reservation{}
}

// fakeSender records sends. Phones in fail are rejected; when block is set
// every send waits for it to close or for ctx to end. afterSend runs after
// each accepted message.
type fakeSender struct {
	mu        sync.Mutex
	fail      map[string]bool
	block     chan struct{}
	entered   chan struct{}
	afterSend func()
	sent      []BulkMessage
	calls     int
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(ctx context.Context, to, body string) (*SendResult, error) {
	f.mu.Lock()
	f.calls++
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	if f.fail[to] {
		f.mu.Unlock()
		return nil, errors.New("gateway rejected number")
	}
	f.sent = append(f.sent, BulkMessage{To: to, Body: body})
	after := f.afterSend
	f.mu.Unlock()

	if after != nil {
		after()
	}
	return &SendResult{MessageID: "fake_" + to}, nil
}

func (f *fakeSender) SendBulk(ctx context.Context, msgs []BulkMessage) (*BulkResult, error) {
	return sendEach(ctx, f, msgs)
}

func (f *fakeSender) sentMessages() []BulkMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BulkMessage(nil), f.sent...)
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
