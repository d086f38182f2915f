package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stayhub-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Executor is the part of the Dispatcher a scheduled job needs.
type Executor interface {
	ExecuteSchedule(ctx context.Context, id uuid.UUID) (*ExecutionResult, error)
}

// Synchronizer keeps exactly one scheduler job per active schedule, keyed
// schedule_<id>, and none for inactive or deleted ones.
type Synchronizer struct {
	core      *SchedulerCore
	schedules ScheduleStore
	executor  Executor
	defaultTZ string
	logger    *zap.Logger

	mu sync.Mutex
	// gen identifies the live registration per schedule. A run started by an
	// older registration must not write next_run.
	gen map[uuid.UUID]uint64
	seq uint64
}

func NewSynchronizer(core *SchedulerCore, schedules ScheduleStore, executor Executor, defaultTZ string, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		core:      core,
		schedules: schedules,
		executor:  executor,
		defaultTZ: defaultTZ,
		logger:    logger,
		gen:       make(map[uuid.UUID]uint64),
	}
}

// AddTrigger registers the schedule and records its next fire time.
// Inactive schedules are ignored. A schedule whose trigger cannot be built
// stays unregistered and the *apperrors.TriggerBuildError is returned.
func (s *Synchronizer) AddTrigger(ctx context.Context, sched *models.TemplateSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, sched)
}

// RemoveTrigger unregisters the schedule's job. Removing an unknown job is a no-op.
func (s *Synchronizer) RemoveTrigger(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
}

// UpdateTrigger replaces the schedule's job, or only removes it when the
// schedule is no longer active.
func (s *Synchronizer) UpdateTrigger(ctx context.Context, sched *models.TemplateSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(sched.ID)
	return s.add(ctx, sched)
}

// ResyncAll drops every schedule job and registers one per active schedule
// in the store. It returns the number registered.
func (s *Synchronizer) ResyncAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active, err := s.schedules.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active schedules: %w", err)
	}

	for _, key := range s.core.Keys(models.ScheduleJobPrefix) {
		s.core.Unregister(key)
	}
	clear(s.gen)

	registered := 0
	for i := range active {
		if err := s.add(ctx, &active[i]); err != nil {
			continue
		}
		registered++
	}

	s.logger.Info("schedules synchronized",
		zap.Int("active", len(active)), zap.Int("registered", registered))
	return registered, nil
}

func (s *Synchronizer) add(ctx context.Context, sched *models.TemplateSchedule) error {
	if !sched.IsActive {
		return nil
	}

	trigger, err := BuildTrigger(sched, s.defaultTZ)
	if err != nil {
		s.logger.Error("schedule left unregistered",
			zap.String("schedule_id", sched.ID.String()), zap.Error(err))
		return err
	}

	id := sched.ID
	s.seq++
	gen := s.seq
	s.gen[id] = gen
	next := s.core.Register(sched.JobKey(), sched.Name, trigger, func(ctx context.Context) {
		s.fire(ctx, id, gen)
	})
	sched.NextRun = &next
	s.recordNextRun(ctx, id, next)

	s.logger.Info("schedule registered",
		zap.String("schedule_id", id.String()),
		zap.String("trigger", trigger.Description),
		zap.Time("next_run", next))
	return nil
}

func (s *Synchronizer) remove(id uuid.UUID) {
	delete(s.gen, id)
	if s.core.Unregister(models.ScheduleJobKey(id)) {
		s.logger.Info("schedule unregistered", zap.String("schedule_id", id.String()))
	}
}

// fire is the job body. It runs on its own goroutine.
func (s *Synchronizer) fire(ctx context.Context, id uuid.UUID, gen uint64) {
	res, err := s.executor.ExecuteSchedule(ctx, id)
	if err != nil {
		s.logger.Error("scheduled execution failed", zap.String("schedule_id", id.String()), zap.Error(err))
		return
	}
	if !res.Skipped {
		s.logger.Info("scheduled execution finished",
			zap.String("schedule_id", id.String()),
			zap.Bool("success", res.Success),
			zap.Int("targets", res.TargetCount),
			zap.Int("sent", res.SentCount),
			zap.Int("failed", res.FailedCount))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[id] != gen {
		// Updated, resynced or removed while running; the new registration
		// already recorded its own next run.
		return
	}
	job, err := s.core.Get(models.ScheduleJobKey(id))
	if err != nil || job.NextRun == nil {
		return
	}
	s.recordNextRun(ctx, id, *job.NextRun)
}

func (s *Synchronizer) recordNextRun(ctx context.Context, id uuid.UUID, next time.Time) {
	if err := s.schedules.UpdateNextRun(ctx, id, next); err != nil {
		s.logger.Warn("failed to record next run", zap.String("schedule_id", id.String()), zap.Error(err))
	}
}
