package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingExecutor struct {
	mu    sync.Mutex
	calls []uuid.UUID
}

func (e *recordingExecutor) ExecuteSchedule(ctx context.Context, id uuid.UUID) (*ExecutionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, id)
	return &ExecutionResult{Success: true}, nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func intervalSchedule(active bool) models.TemplateSchedule {
	return models.TemplateSchedule{
		ID:              uuid.New(),
		Name:            "interval",
		TemplateID:      uuid.New(),
		RecurrenceType:  models.RecurrenceInterval,
		IntervalMinutes: intPtr(10),
		TargetType:      models.TargetAll,
		SMSChannel:      models.ChannelRoom,
		IsActive:        active,
	}
}

func newTestSync(schedules *fakeSchedules) (*Synchronizer, *SchedulerCore, *recordingExecutor) {
	core := NewSchedulerCore(zap.NewNop())
	exec := &recordingExecutor{}
	return NewSynchronizer(core, schedules, exec, "Asia/Seoul", zap.NewNop()), core, exec
}

func TestResyncAll_OneJobPerActiveSchedule(t *testing.T) {
	a := intervalSchedule(true)
	b := intervalSchedule(true)
	inactive := intervalSchedule(false)
	broken := intervalSchedule(true)
	broken.RecurrenceType = models.RecurrenceWeekly // no dayOfWeek

	schedules := newFakeSchedules(a, b, inactive, broken)
	s, core, _ := newTestSync(schedules)
	noop := func(ctx context.Context) {}

	// A stale job for a schedule that no longer exists, and a job that is not
	// schedule-owned at all.
	core.Register(models.ScheduleJobKey(uuid.New()), "stale", everyTrigger(time.Minute), noop)
	core.Register("campaign_tag_1초", "tag", everyTrigger(time.Minute), noop)

	for i := 0; i < 2; i++ {
		n, err := s.ResyncAll(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.ElementsMatch(t, []string{a.JobKey(), b.JobKey()}, core.Keys(models.ScheduleJobPrefix))
		_, err = core.Get("campaign_tag_1초")
		assert.NoError(t, err, "jobs outside the schedule prefix survive a resync")
	}

	for _, sched := range []models.TemplateSchedule{a, b} {
		stored, _ := schedules.GetByID(context.Background(), sched.ID)
		assert.NotNil(t, stored.NextRun, "next run recorded for %s", sched.ID)
	}
	stored, _ := schedules.GetByID(context.Background(), broken.ID)
	assert.Nil(t, stored.NextRun)
}

func TestAddTrigger(t *testing.T) {
	active := intervalSchedule(true)
	inactive := intervalSchedule(false)
	s, core, _ := newTestSync(newFakeSchedules(active, inactive))

	require.NoError(t, s.AddTrigger(context.Background(), &active))
	require.NotNil(t, active.NextRun)
	require.NoError(t, s.AddTrigger(context.Background(), &inactive))

	assert.Equal(t, []string{active.JobKey()}, core.Keys(models.ScheduleJobPrefix))
}

func TestAddTrigger_BuildErrorLeavesScheduleUnregistered(t *testing.T) {
	weekly := intervalSchedule(true)
	weekly.RecurrenceType = models.RecurrenceWeekly
	s, core, _ := newTestSync(newFakeSchedules(weekly))

	err := s.AddTrigger(context.Background(), &weekly)
	var terr *apperrors.TriggerBuildError
	require.ErrorAs(t, err, &terr)
	assert.Empty(t, core.Keys(models.ScheduleJobPrefix))
}

func TestUpdateTrigger_DeactivationRemovesJob(t *testing.T) {
	sched := intervalSchedule(true)
	s, core, _ := newTestSync(newFakeSchedules(sched))

	require.NoError(t, s.AddTrigger(context.Background(), &sched))
	require.Len(t, core.Keys(models.ScheduleJobPrefix), 1)

	sched.IsActive = false
	require.NoError(t, s.UpdateTrigger(context.Background(), &sched))
	assert.Empty(t, core.Keys(models.ScheduleJobPrefix))

	sched.IsActive = true
	require.NoError(t, s.UpdateTrigger(context.Background(), &sched))
	assert.Equal(t, []string{sched.JobKey()}, core.Keys(models.ScheduleJobPrefix))
}

func TestRemoveTrigger_Idempotent(t *testing.T) {
	sched := intervalSchedule(true)
	s, core, _ := newTestSync(newFakeSchedules(sched))
	require.NoError(t, s.AddTrigger(context.Background(), &sched))

	s.RemoveTrigger(sched.ID)
	s.RemoveTrigger(sched.ID)
	s.RemoveTrigger(uuid.New())
	assert.Empty(t, core.Keys(models.ScheduleJobPrefix))
}

func TestRegisteredJobRunsExecutor(t *testing.T) {
	sched := intervalSchedule(true)
	schedules := newFakeSchedules(sched)
	s, core, exec := newTestSync(schedules)
	require.NoError(t, s.AddTrigger(context.Background(), &sched))

	require.NoError(t, core.RunNow(sched.JobKey()))
	assert.Eventually(t, func() bool { return exec.count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, core.Stop(context.Background()))

	exec.mu.Lock()
	assert.Equal(t, sched.ID, exec.calls[0])
	exec.mu.Unlock()
}

// gatedExecutor blocks every execution until release is closed.
type gatedExecutor struct {
	entered chan struct{}
	release chan struct{}
}

func (e *gatedExecutor) ExecuteSchedule(ctx context.Context, id uuid.UUID) (*ExecutionResult, error) {
	e.entered <- struct{}{}
	<-e.release
	return &ExecutionResult{Success: true}, nil
}

func TestFire_RecordsLiveNextRunFromCoreClock(t *testing.T) {
	sched := intervalSchedule(true)
	schedules := newFakeSchedules(sched)
	s, core, exec := newTestSync(schedules)
	core.clock = func() time.Time { return mondayMorning }

	require.NoError(t, s.AddTrigger(context.Background(), &sched))
	stored, _ := schedules.GetByID(context.Background(), sched.ID)
	require.NotNil(t, stored.NextRun)
	assert.True(t, stored.NextRun.Equal(mondayMorning.Add(10*time.Minute)))

	later := mondayMorning.Add(time.Hour)
	core.clock = func() time.Time { return later }
	require.NoError(t, core.RunNow(sched.JobKey()))
	require.Eventually(t, func() bool { return exec.count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, core.Stop(context.Background()))

	stored, _ = schedules.GetByID(context.Background(), sched.ID)
	require.NotNil(t, stored.NextRun)
	assert.True(t, stored.NextRun.Equal(later.Add(10*time.Minute)), "got %s", stored.NextRun)
}

func TestFire_UpdateDuringRunKeepsNewNextRun(t *testing.T) {
	sched := intervalSchedule(true)
	sched.IntervalMinutes = intPtr(1)
	schedules := newFakeSchedules(sched)
	core := NewSchedulerCore(zap.NewNop())
	core.clock = func() time.Time { return mondayMorning }
	exec := &gatedExecutor{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewSynchronizer(core, schedules, exec, "Asia/Seoul", zap.NewNop())

	require.NoError(t, s.AddTrigger(context.Background(), &sched))
	require.NoError(t, core.RunNow(sched.JobKey()))
	<-exec.entered

	updated := sched
	updated.IntervalMinutes = intPtr(600)
	require.NoError(t, s.UpdateTrigger(context.Background(), &updated))

	close(exec.release)
	require.NoError(t, core.Stop(context.Background()))

	want := mondayMorning.Add(600 * time.Minute)
	stored, _ := schedules.GetByID(context.Background(), sched.ID)
	require.NotNil(t, stored.NextRun)
	assert.True(t, stored.NextRun.Equal(want), "got %s", stored.NextRun)

	job, err := core.Get(sched.JobKey())
	require.NoError(t, err)
	assert.True(t, job.NextRun.Equal(want))
}

func TestFire_RemovedDuringRunWritesNothing(t *testing.T) {
	sched := intervalSchedule(true)
	schedules := newFakeSchedules(sched)
	core := NewSchedulerCore(zap.NewNop())
	exec := &gatedExecutor{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := NewSynchronizer(core, schedules, exec, "Asia/Seoul", zap.NewNop())

	require.NoError(t, s.AddTrigger(context.Background(), &sched))
	require.NoError(t, core.RunNow(sched.JobKey()))
	<-exec.entered

	require.NoError(t, schedules.UpdateNextRun(context.Background(), sched.ID, mondayMorning))
	s.RemoveTrigger(sched.ID)

	close(exec.release)
	require.NoError(t, core.Stop(context.Background()))

	stored, _ := schedules.GetByID(context.Background(), sched.ID)
	require.NotNil(t, stored.NextRun)
	assert.True(t, stored.NextRun.Equal(mondayMorning))
}
