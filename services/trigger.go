package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"stayhub-backend/apperrors"
	"stayhub-backend/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

var weekdayNames = map[string]bool{
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
}

// Trigger is the runtime form of a schedule's recurrence.
type Trigger struct {
	Schedule    cron.Schedule
	Description string
}

func (t Trigger) Next(now time.Time) time.Time {
	return t.Schedule.Next(now)
}

// ValidateSchedule checks the per-recurrence required fields and the
// targeting fields. It returns an *apperrors.ValidationError.
func ValidateSchedule(s *models.TemplateSchedule) error {
	if strings.TrimSpace(s.Name) == "" {
		return apperrors.NewValidation("name", "is required")
	}
	if s.TemplateID == uuid.Nil {
		return apperrors.NewValidation("templateId", "is required")
	}

	switch s.RecurrenceType {
	case models.RecurrenceDaily:
		if s.Hour == nil || s.Minute == nil {
			return apperrors.NewValidation("recurrence", "daily schedule requires hour and minute")
		}
	case models.RecurrenceWeekly:
		if s.Hour == nil || s.Minute == nil || strings.TrimSpace(s.DayOfWeek) == "" {
			return apperrors.NewValidation("recurrence", "weekly schedule requires hour, minute and dayOfWeek")
		}
		if err := validateDaysOfWeek(s.DayOfWeek); err != nil {
			return apperrors.NewValidation("dayOfWeek", err.Error())
		}
	case models.RecurrenceHourly:
		if s.Minute == nil {
			return apperrors.NewValidation("recurrence", "hourly schedule requires minute")
		}
	case models.RecurrenceInterval:
		if s.IntervalMinutes == nil || *s.IntervalMinutes <= 0 {
			return apperrors.NewValidation("recurrence", "interval schedule requires a positive intervalMinutes")
		}
	default:
		return apperrors.NewValidation("recurrenceType", fmt.Sprintf("unknown type %q", s.RecurrenceType))
	}

	if s.Hour != nil && (*s.Hour < 0 || *s.Hour > 23) {
		return apperrors.NewValidation("hour", "must be between 0 and 23")
	}
	if s.Minute != nil && (*s.Minute < 0 || *s.Minute > 59) {
		return apperrors.NewValidation("minute", "must be between 0 and 59")
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return apperrors.NewValidation("timezone", fmt.Sprintf("unknown zone %q", s.Timezone))
		}
	}

	if !s.TargetType.Valid() {
		return apperrors.NewValidation("targetType", fmt.Sprintf("unknown type %q", s.TargetType))
	}
	if s.TargetType == models.TargetTag && len(ExpandTags(s.TargetValue)) == 0 {
		return apperrors.NewValidation("targetValue", "tag target requires a tag")
	}
	if !validDateFilter(s.DateFilter) {
		return apperrors.NewValidation("dateFilter", "must be today, tomorrow, none or YYYY-MM-DD")
	}
	if !s.SMSChannel.Valid() {
		return apperrors.NewValidation("smsChannel", "must be room or party")
	}
	return nil
}

func validateDaysOfWeek(spec string) error {
	for _, part := range strings.Split(strings.ToLower(spec), ",") {
		bounds := strings.Split(strings.TrimSpace(part), "-")
		if len(bounds) > 2 {
			return fmt.Errorf("bad range %q", part)
		}
		for _, b := range bounds {
			if !weekdayNames[b] {
				return fmt.Errorf("unknown day %q, use mon..sun", b)
			}
		}
	}
	return nil
}

// BuildTrigger turns a schedule into a cron schedule in its timezone. Any
// failure is reported as *apperrors.TriggerBuildError.
func BuildTrigger(s *models.TemplateSchedule, defaultTZ string) (Trigger, error) {
	fail := func(err error) (Trigger, error) {
		return Trigger{}, &apperrors.TriggerBuildError{ScheduleID: s.ID, Err: err}
	}

	tz := s.Timezone
	if tz == "" {
		tz = defaultTZ
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fail(err)
	}

	var expr string
	switch s.RecurrenceType {
	case models.RecurrenceDaily:
		if s.Hour == nil || s.Minute == nil {
			return fail(errors.New("daily requires hour and minute"))
		}
		expr = fmt.Sprintf("%d %d * * *", *s.Minute, *s.Hour)
	case models.RecurrenceWeekly:
		if s.Hour == nil || s.Minute == nil || s.DayOfWeek == "" {
			return fail(errors.New("weekly requires hour, minute and dayOfWeek"))
		}
		expr = fmt.Sprintf("%d %d * * %s", *s.Minute, *s.Hour, strings.ToLower(strings.ReplaceAll(s.DayOfWeek, " ", "")))
	case models.RecurrenceHourly:
		if s.Minute == nil {
			return fail(errors.New("hourly requires minute"))
		}
		expr = fmt.Sprintf("%d * * * *", *s.Minute)
	case models.RecurrenceInterval:
		if s.IntervalMinutes == nil || *s.IntervalMinutes <= 0 {
			return fail(errors.New("interval requires positive intervalMinutes"))
		}
		d := time.Duration(*s.IntervalMinutes) * time.Minute
		return Trigger{Schedule: cron.Every(d), Description: fmt.Sprintf("interval[%s]", d)}, nil
	default:
		return fail(fmt.Errorf("unknown recurrence type %q", s.RecurrenceType))
	}

	sched, err := cronParser.Parse("CRON_TZ=" + tz + " " + expr)
	if err != nil {
		return fail(err)
	}
	return Trigger{Schedule: sched, Description: fmt.Sprintf("cron[%s] %s", expr, tz)}, nil
}
