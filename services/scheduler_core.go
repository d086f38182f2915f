package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"stayhub-backend/apperrors"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is invoked on its own goroutine, never on the timer loop.
type JobFunc func(ctx context.Context)

type JobInfo struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Trigger string     `json:"trigger"`
	NextRun *time.Time `json:"nextRun"`
	Paused  bool       `json:"paused"`
}

type registeredJob struct {
	key     string
	name    string
	trigger Trigger
	fn      JobFunc
	entryID cron.EntryID
	paused  bool
}

// SchedulerCore keeps keyed jobs on a single cron timer loop. The loop
// sleeps until the earliest next-fire time across all entries, starts every
// due job and recomputes.
type SchedulerCore struct {
	cron   *cron.Cron
	logger *zap.Logger
	clock  func() time.Time

	mu      sync.Mutex
	jobs    map[string]*registeredJob
	started bool

	manual sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewSchedulerCore(logger *zap.Logger) *SchedulerCore {
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger.Sugar()}
	return &SchedulerCore{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		logger: logger,
		clock:  time.Now,
		jobs:   make(map[string]*registeredJob),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (c *SchedulerCore) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return
	}
	c.cron.Start()
	c.started = true
	c.logger.Info("scheduler started", zap.Int("jobs", len(c.jobs)))
}

// Stop halts the timer loop and waits for running jobs until ctx expires.
func (c *SchedulerCore) Stop(ctx context.Context) error {
	c.mu.Lock()
	wasStarted := c.started
	c.started = false
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if wasStarted {
			<-c.cron.Stop().Done()
		}
		c.manual.Wait()
		close(done)
	}()

	defer c.cancel()
	select {
	case <-done:
		c.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		c.logger.Warn("scheduler stop timed out with jobs still running")
		return ctx.Err()
	}
}

func (c *SchedulerCore) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// Register adds or replaces the job under key and returns its next fire time.
func (c *SchedulerCore) Register(key, name string, trigger Trigger, fn JobFunc) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.jobs[key]; ok && !old.paused {
		c.cron.Remove(old.entryID)
	}

	j := &registeredJob{key: key, name: name, trigger: trigger, fn: fn}
	j.entryID = c.cron.Schedule(trigger.Schedule, c.wrap(j))
	c.jobs[key] = j

	return trigger.Next(c.clock())
}

// Unregister removes the job and reports whether it existed.
func (c *SchedulerCore) Unregister(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[key]
	if !ok {
		return false
	}
	if !j.paused {
		c.cron.Remove(j.entryID)
	}
	delete(c.jobs, key)
	return true
}

func (c *SchedulerCore) Pause(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[key]
	if !ok {
		return apperrors.ErrJobNotFound
	}
	if !j.paused {
		c.cron.Remove(j.entryID)
		j.paused = true
	}
	return nil
}

func (c *SchedulerCore) Resume(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[key]
	if !ok {
		return apperrors.ErrJobNotFound
	}
	if j.paused {
		j.entryID = c.cron.Schedule(j.trigger.Schedule, c.wrap(j))
		j.paused = false
	}
	return nil
}

// RunNow fires the job once, outside its schedule, without waiting for it.
func (c *SchedulerCore) RunNow(key string) error {
	c.mu.Lock()
	j, ok := c.jobs[key]
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrJobNotFound
	}

	c.manual.Add(1)
	go func() {
		defer c.manual.Done()
		c.logger.Info("manual job run", zap.String("job", key))
		j.fn(c.ctx)
	}()
	return nil
}

func (c *SchedulerCore) Get(key string) (JobInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.jobs[key]
	if !ok {
		return JobInfo{}, apperrors.ErrJobNotFound
	}
	return c.info(j), nil
}

func (c *SchedulerCore) List() []JobInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]JobInfo, 0, len(c.jobs))
	for _, j := range c.jobs {
		out = append(out, c.info(j))
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Keys returns the registered keys starting with prefix.
func (c *SchedulerCore) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for k := range c.jobs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *SchedulerCore) info(j *registeredJob) JobInfo {
	info := JobInfo{ID: j.key, Name: j.name, Trigger: j.trigger.Description, Paused: j.paused}
	if j.paused {
		return info
	}

	next := j.trigger.Next(c.clock())
	if c.started {
		if e := c.cron.Entry(j.entryID); !e.Next.IsZero() {
			next = e.Next
		}
	}
	info.NextRun = &next
	return info
}

func (c *SchedulerCore) wrap(j *registeredJob) cron.Job {
	return cron.FuncJob(func() {
		j.fn(c.ctx)
	})
}

// cronLogger routes cron's internal logging to zap. Wake-up chatter goes to debug.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
