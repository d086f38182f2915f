package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"stayhub-backend/apperrors"
	"stayhub-backend/config"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TagCampaignJobPrefix keys the single-flight guard for ad-hoc tag campaigns.
const TagCampaignJobPrefix = "campaign_tag_"

type ScheduleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.TemplateSchedule, error)
	ListActive(ctx context.Context) ([]models.TemplateSchedule, error)
	UpdateLastRun(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateNextRun(ctx context.Context, id uuid.UUID, at time.Time) error
}

type TemplateLookup interface {
	TemplateReader
	GetByID(ctx context.Context, id uuid.UUID) (*models.MessageTemplate, error)
}

type CampaignStore interface {
	Create(ctx context.Context, c *models.CampaignLog) error
	Save(ctx context.Context, c *models.CampaignLog) error
	CreateDelivery(ctx context.Context, d *models.DeliveryLog) error
}

type RecipientStore interface {
	RecipientReader
	StatsReader
	MarkSent(ctx context.Context, id uuid.UUID, ch models.SMSChannel, at time.Time) error
}

type ExecutionResult struct {
	Success     bool       `json:"success"`
	Skipped     bool       `json:"skipped,omitempty"`
	CampaignID  *uuid.UUID `json:"campaignId,omitempty"`
	TargetCount int        `json:"targetCount"`
	SentCount   int        `json:"sentCount"`
	FailedCount int        `json:"failedCount"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
}

type TagCampaignRequest struct {
	Tag         string            `json:"tag" binding:"required"`
	TemplateKey string            `json:"templateKey" binding:"required"`
	SMSChannel  models.SMSChannel `json:"smsChannel"`
	Date        string            `json:"date"` // today, tomorrow, YYYY-MM-DD or empty
	Variables   map[string]any    `json:"variables"`
}

type TargetPreview struct {
	ScheduleID uuid.UUID            `json:"scheduleId"`
	Date       string               `json:"date,omitempty"`
	Count      int                  `json:"count"`
	Targets    []models.Reservation `json:"targets"`
}

type DispatcherOptions struct {
	Location    *time.Location
	Concurrency int
	SendTimeout time.Duration
	Party       config.PartyConfig
}

// flightGuard allows one in-flight execution per key.
type flightGuard struct {
	mu      sync.Mutex
	running map[string]bool
}

func (g *flightGuard) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[key] {
		return false
	}
	g.running[key] = true
	return true
}

func (g *flightGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, key)
}

func (g *flightGuard) inFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running[key]
}

// dispatchJob is one execution's fixed inputs, captured at start.
type dispatchJob struct {
	name        string
	scheduleID  *uuid.UUID
	tag         string
	spec        TargetSpec
	template    *models.MessageTemplate
	templateErr error
	custom      map[string]any
	started     time.Time
}

// Dispatcher runs one execution of a schedule or tag campaign:
// resolve targets, render, send, mark sent and record the campaign.
type Dispatcher struct {
	schedules  ScheduleStore
	templates  TemplateLookup
	campaigns  CampaignStore
	recipients RecipientStore
	resolver   *TargetResolver
	renderer   *Renderer
	sender     SMSSender
	logger     *zap.Logger

	loc         *time.Location
	concurrency int
	sendTimeout time.Duration
	party       config.PartyConfig
	now         func() time.Time

	guard *flightGuard
}

func NewDispatcher(
	schedules ScheduleStore,
	templates TemplateLookup,
	campaigns CampaignStore,
	recipients RecipientStore,
	sender SMSSender,
	opts DispatcherOptions,
	logger *zap.Logger,
) *Dispatcher {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}

	return &Dispatcher{
		schedules:   schedules,
		templates:   templates,
		campaigns:   campaigns,
		recipients:  recipients,
		resolver:    NewTargetResolver(recipients),
		renderer:    NewRenderer(templates, logger),
		sender:      sender,
		logger:      logger,
		loc:         opts.Location,
		concurrency: opts.Concurrency,
		sendTimeout: opts.SendTimeout,
		party:       withPartyDefaults(opts.Party),
		now:         time.Now,
		guard:       &flightGuard{running: make(map[string]bool)},
	}
}

// InFlight reports whether an execution holds the guard for key.
func (d *Dispatcher) InFlight(key string) bool {
	return d.guard.inFlight(key)
}

// ExecuteSchedule runs the schedule once. A run that finds another execution
// of the same schedule in flight is skipped and reported as a successful no-op.
// Errors are returned only when nothing was recorded: an unknown or inactive
// schedule, or a campaign that could not be created. Cancelling ctx does not
// abort a run once it has started.
func (d *Dispatcher) ExecuteSchedule(ctx context.Context, id uuid.UUID) (*ExecutionResult, error) {
	key := models.ScheduleJobKey(id)
	if !d.guard.acquire(key) {
		return d.skipped(key), nil
	}
	defer d.guard.release(key)

	// Sent flags and campaign state must be written even if the caller goes
	// away mid-run. Only the per-send timeout bounds the execution.
	ctx = context.WithoutCancel(ctx)

	s, err := d.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.IsActive {
		return nil, apperrors.ErrScheduleInactive
	}

	started := d.now()
	tmpl, tmplErr := d.loadTemplate(ctx, s.TemplateID)

	res, err := d.dispatch(ctx, dispatchJob{
		name:        s.Name,
		scheduleID:  &s.ID,
		spec:        SpecFromSchedule(s, started, d.location(s.Timezone)),
		template:    tmpl,
		templateErr: tmplErr,
		started:     started,
	})
	if err != nil {
		return nil, err
	}

	// lastRun advances on failure too so a broken schedule does not hot-loop.
	if err := d.schedules.UpdateLastRun(ctx, s.ID, started); err != nil {
		d.logger.Error("failed to update schedule last run",
			zap.String("schedule_id", s.ID.String()), zap.Error(err))
	}
	return res, nil
}

// RunTagCampaign sends a template to every confirmed recipient matching tag
// that has not yet received a message on the channel.
func (d *Dispatcher) RunTagCampaign(ctx context.Context, req TagCampaignRequest) (*ExecutionResult, error) {
	tag := strings.TrimSpace(req.Tag)
	if len(ExpandTags(tag)) == 0 {
		return nil, apperrors.NewValidation("tag", "is required")
	}
	if strings.TrimSpace(req.TemplateKey) == "" {
		return nil, apperrors.NewValidation("templateKey", "is required")
	}
	if req.SMSChannel == "" {
		req.SMSChannel = models.ChannelRoom
	}
	if !req.SMSChannel.Valid() {
		return nil, apperrors.NewValidation("smsChannel", "must be room or party")
	}
	if !validDateFilter(req.Date) {
		return nil, apperrors.NewValidation("date", "must be today, tomorrow, none or YYYY-MM-DD")
	}

	key := TagCampaignJobPrefix + tag
	if !d.guard.acquire(key) {
		return d.skipped(key), nil
	}
	defer d.guard.release(key)
	ctx = context.WithoutCancel(ctx)

	started := d.now()
	tmpl, tmplErr := d.templates.GetActiveByKey(ctx, req.TemplateKey)

	return d.dispatch(ctx, dispatchJob{
		name: "tag:" + tag,
		tag:  tag,
		spec: TargetSpec{
			TargetType:  models.TargetTag,
			TargetValue: tag,
			Date:        ResolveDateFilter(req.Date, started, d.loc),
			SMSChannel:  req.SMSChannel,
			ExcludeSent: true,
		},
		template:    tmpl,
		templateErr: tmplErr,
		custom:      req.Variables,
		started:     started,
	})
}

// PreviewTargets resolves the schedule's current targets without sending
// or writing anything.
func (d *Dispatcher) PreviewTargets(ctx context.Context, id uuid.UUID) (*TargetPreview, error) {
	s, err := d.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	spec := SpecFromSchedule(s, d.now(), d.location(s.Timezone))
	targets, err := d.resolver.Resolve(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("resolve targets: %w", err)
	}
	return &TargetPreview{ScheduleID: s.ID, Date: spec.Date, Count: len(targets), Targets: targets}, nil
}

func (d *Dispatcher) skipped(key string) *ExecutionResult {
	d.logger.Info("execution skipped, previous run still in flight", zap.String("job", key))
	return &ExecutionResult{
		Success: true,
		Skipped: true,
		Message: apperrors.ErrExecutionSkipped.Error(),
	}
}

func (d *Dispatcher) loadTemplate(ctx context.Context, id uuid.UUID) (*models.MessageTemplate, error) {
	t, err := d.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, apperrors.ErrTemplateNotFound
	}
	return t, nil
}

func (d *Dispatcher) location(tz string) *time.Location {
	if tz == "" {
		return d.loc
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return d.loc
	}
	return loc
}

func (d *Dispatcher) dispatch(ctx context.Context, job dispatchJob) (*ExecutionResult, error) {
	campaign := &models.CampaignLog{
		CampaignType: job.name,
		ScheduleID:   job.scheduleID,
		TargetTag:    job.tag,
		Status:       models.CampaignCreated,
		StartedAt:    job.started,
		Metadata: models.JSONB{
			"targetType":  string(job.spec.TargetType),
			"targetValue": job.spec.TargetValue,
			"date":        job.spec.Date,
			"smsChannel":  string(job.spec.SMSChannel),
			"excludeSent": job.spec.ExcludeSent,
		},
	}
	if err := d.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("create campaign: %w", err)
	}

	log := d.logger.With(zap.String("campaign_id", campaign.ID.String()), zap.String("campaign", job.name))
	res := &ExecutionResult{CampaignID: &campaign.ID}

	if job.templateErr != nil {
		return d.fail(ctx, log, campaign, res, job.templateErr), nil
	}

	targets, err := d.resolver.Resolve(ctx, job.spec)
	if err != nil {
		return d.fail(ctx, log, campaign, res, fmt.Errorf("resolve targets: %w", err)), nil
	}

	campaign.Status = models.CampaignTargetsResolved
	campaign.TargetCount = len(targets)
	res.TargetCount = len(targets)

	if len(targets) == 0 {
		campaign.Status = models.CampaignCompleted
		d.seal(ctx, log, campaign)
		res.Success = true
		res.Message = "No targets found"
		log.Info("campaign completed with no targets")
		return res, nil
	}
	d.save(ctx, log, campaign)

	campaign.Status = models.CampaignDispatching
	d.save(ctx, log, campaign)

	sent, failed := d.sendAll(ctx, log, campaign.ID, job, targets)

	campaign.Status = models.CampaignCompleted
	campaign.SentCount = sent
	campaign.FailedCount = failed
	if failed > 0 {
		campaign.ErrorMessage = fmt.Sprintf("%d of %d messages failed", failed, len(targets))
		res.Error = campaign.ErrorMessage
	}
	d.seal(ctx, log, campaign)

	res.Success = true
	res.SentCount = sent
	res.FailedCount = failed
	res.Message = fmt.Sprintf("Sent %d of %d messages", sent, len(targets))
	log.Info("campaign completed",
		zap.Int("targets", len(targets)), zap.Int("sent", sent), zap.Int("failed", failed))
	return res, nil
}

func (d *Dispatcher) sendAll(ctx context.Context, log *zap.Logger, campaignID uuid.UUID, job dispatchJob, targets []models.Reservation) (int, int) {
	stats := d.prefetchStats(ctx, log, targets)

	var sent, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(d.concurrency)

	for i := range targets {
		r := &targets[i]
		g.Go(func() error {
			if d.deliver(ctx, log, campaignID, job, r, stats[r.Date]) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(sent.Load()), int(failed.Load())
}

// prefetchStats loads participant aggregates once per reservation date.
func (d *Dispatcher) prefetchStats(ctx context.Context, log *zap.Logger, targets []models.Reservation) map[string]models.ParticipantStats {
	stats := make(map[string]models.ParticipantStats)
	for _, r := range targets {
		if _, ok := stats[r.Date]; ok {
			continue
		}
		s, err := d.recipients.ParticipantStats(ctx, r.Date)
		if err != nil {
			log.Warn("participant stats unavailable", zap.String("date", r.Date), zap.Error(err))
		}
		stats[r.Date] = s
	}
	return stats
}

// deliver sends one message and persists the sent flag straight away.
func (d *Dispatcher) deliver(ctx context.Context, log *zap.Logger, campaignID uuid.UUID, job dispatchJob, r *models.Reservation, stats models.ParticipantStats) bool {
	vars := BuildVariables(r, stats, d.party, job.custom)
	body := d.renderer.RenderContent(job.template.Key, job.template.Content, vars)

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	result, err := d.sender.Send(sendCtx, r.Phone, body)
	cancel()

	delivery := &models.DeliveryLog{
		CampaignID:    campaignID,
		ReservationID: r.ID,
		Phone:         r.Phone,
		Message:       body,
		Channel:       job.spec.SMSChannel,
		Provider:      d.sender.Name(),
		SentAt:        d.now(),
	}

	if err != nil {
		sendErr := &apperrors.SendError{Phone: r.Phone, Err: err}
		if errors.Is(err, context.DeadlineExceeded) {
			sendErr.Err = fmt.Errorf("timed out after %s: %w", d.sendTimeout, err)
		}
		log.Error("sms send failed", zap.String("reservation_id", r.ID.String()), zap.Error(sendErr))
		delivery.Status = models.DeliveryFailed
		delivery.ErrorMessage = sendErr.Error()
		d.recordDelivery(ctx, log, delivery)
		return false
	}

	if err := d.recipients.MarkSent(ctx, r.ID, job.spec.SMSChannel, delivery.SentAt); err != nil {
		log.Error("message sent but sent flag not persisted",
			zap.String("reservation_id", r.ID.String()), zap.Error(err))
	}
	r.MarkSent(job.spec.SMSChannel, delivery.SentAt)

	delivery.Status = models.DeliverySent
	if result != nil {
		delivery.ProviderMessageID = result.MessageID
	}
	d.recordDelivery(ctx, log, delivery)
	return true
}

func (d *Dispatcher) recordDelivery(ctx context.Context, log *zap.Logger, delivery *models.DeliveryLog) {
	if err := d.campaigns.CreateDelivery(ctx, delivery); err != nil {
		log.Warn("failed to record delivery", zap.String("reservation_id", delivery.ReservationID.String()), zap.Error(err))
	}
}

func (d *Dispatcher) fail(ctx context.Context, log *zap.Logger, c *models.CampaignLog, res *ExecutionResult, cause error) *ExecutionResult {
	c.Status = models.CampaignFailed
	c.ErrorMessage = cause.Error()
	d.seal(ctx, log, c)

	log.Error("campaign failed", zap.Error(cause))
	res.Success = false
	res.Error = cause.Error()
	return res
}

func (d *Dispatcher) save(ctx context.Context, log *zap.Logger, c *models.CampaignLog) {
	if err := d.campaigns.Save(ctx, c); err != nil {
		log.Warn("failed to persist campaign state", zap.String("status", string(c.Status)), zap.Error(err))
	}
}

// seal finalizes the campaign. Nothing writes it afterwards.
func (d *Dispatcher) seal(ctx context.Context, log *zap.Logger, c *models.CampaignLog) {
	at := d.now()
	c.CompletedAt = &at
	d.save(ctx, log, c)
}
