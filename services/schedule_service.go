package services

import (
	"context"
	"errors"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScheduleRepo interface {
	ScheduleStore
	List(ctx context.Context, active *bool, templateID *uuid.UUID) ([]models.TemplateSchedule, error)
	Create(ctx context.Context, s *models.TemplateSchedule) error
	Save(ctx context.Context, s *models.TemplateSchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScheduleInput is the operator-editable part of a schedule. Update replaces
// every field; nil ExcludeSent and IsActive keep their current values.
type ScheduleInput struct {
	Name       string    `json:"name"`
	TemplateID uuid.UUID `json:"templateId"`

	RecurrenceType  models.RecurrenceType `json:"recurrenceType"`
	Hour            *int                  `json:"hour"`
	Minute          *int                  `json:"minute"`
	DayOfWeek       string                `json:"dayOfWeek"`
	IntervalMinutes *int                  `json:"intervalMinutes"`
	Timezone        string                `json:"timezone"`

	TargetType  models.TargetType `json:"targetType"`
	TargetValue string            `json:"targetValue"`
	DateFilter  string            `json:"dateFilter"`
	SMSChannel  models.SMSChannel `json:"smsChannel"`
	ExcludeSent *bool             `json:"excludeSent"`
	IsActive    *bool             `json:"isActive"`
}

func (in ScheduleInput) apply(s *models.TemplateSchedule) {
	s.Name = in.Name
	s.TemplateID = in.TemplateID
	s.RecurrenceType = in.RecurrenceType
	s.Hour = in.Hour
	s.Minute = in.Minute
	s.DayOfWeek = in.DayOfWeek
	s.IntervalMinutes = in.IntervalMinutes
	s.Timezone = in.Timezone
	s.TargetType = in.TargetType
	s.TargetValue = in.TargetValue
	s.DateFilter = in.DateFilter
	s.SMSChannel = in.SMSChannel
	if in.ExcludeSent != nil {
		s.ExcludeSent = *in.ExcludeSent
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

// ScheduleService is the administrative entry point for schedules. Every
// change is validated, persisted and then mirrored into the scheduler.
type ScheduleService struct {
	schedules  ScheduleRepo
	templates  TemplateLookup
	sync       *Synchronizer
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewScheduleService(schedules ScheduleRepo, templates TemplateLookup, sync *Synchronizer, dispatcher *Dispatcher, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		schedules:  schedules,
		templates:  templates,
		sync:       sync,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (s *ScheduleService) List(ctx context.Context, active *bool, templateID *uuid.UUID) ([]models.TemplateSchedule, error) {
	return s.schedules.List(ctx, active, templateID)
}

func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (*models.TemplateSchedule, error) {
	return s.schedules.GetByID(ctx, id)
}

func (s *ScheduleService) Create(ctx context.Context, in ScheduleInput) (*models.TemplateSchedule, error) {
	sched := &models.TemplateSchedule{ExcludeSent: true, IsActive: true}
	in.apply(sched)

	if err := s.validate(ctx, sched); err != nil {
		return nil, err
	}
	if err := s.schedules.Create(ctx, sched); err != nil {
		return nil, err
	}

	s.register(ctx, sched)
	return sched, nil
}

func (s *ScheduleService) Update(ctx context.Context, id uuid.UUID, in ScheduleInput) (*models.TemplateSchedule, error) {
	sched, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(sched)

	if err := s.validate(ctx, sched); err != nil {
		return nil, err
	}
	if err := s.schedules.Save(ctx, sched); err != nil {
		return nil, err
	}

	if err := s.sync.UpdateTrigger(ctx, sched); err != nil {
		s.logger.Warn("schedule saved without a trigger", zap.String("schedule_id", sched.ID.String()), zap.Error(err))
	}
	return sched, nil
}

// Delete removes the schedule and its job. A job without a stored schedule
// is still removed.
func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.schedules.Delete(ctx, id)
	s.sync.RemoveTrigger(id)
	return err
}

// RunNow executes the schedule synchronously through the same guard the
// scheduler uses.
func (s *ScheduleService) RunNow(ctx context.Context, id uuid.UUID) (*ExecutionResult, error) {
	return s.dispatcher.ExecuteSchedule(ctx, id)
}

func (s *ScheduleService) Preview(ctx context.Context, id uuid.UUID) (*TargetPreview, error) {
	return s.dispatcher.PreviewTargets(ctx, id)
}

func (s *ScheduleService) Resync(ctx context.Context) (int, error) {
	return s.sync.ResyncAll(ctx)
}

func (s *ScheduleService) register(ctx context.Context, sched *models.TemplateSchedule) {
	if err := s.sync.AddTrigger(ctx, sched); err != nil {
		s.logger.Warn("schedule saved without a trigger", zap.String("schedule_id", sched.ID.String()), zap.Error(err))
	}
}

func (s *ScheduleService) validate(ctx context.Context, sched *models.TemplateSchedule) error {
	if err := ValidateSchedule(sched); err != nil {
		return err
	}

	t, err := s.templates.GetByID(ctx, sched.TemplateID)
	if errors.Is(err, apperrors.ErrTemplateNotFound) {
		return apperrors.NewValidation("templateId", "template does not exist")
	}
	if err != nil {
		return err
	}
	if !t.IsActive {
		return apperrors.NewValidation("templateId", "template is inactive")
	}
	return nil
}
