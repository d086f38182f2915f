package services

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"stayhub-backend/models"
	"stayhub-backend/utils"
)

// PartyOnlyTag marks guests who attend the party without a room.
const PartyOnlyTag = "파티만"

// Compound tag values with a fixed expansion. Anything else is split on commas.
var multiTagAliases = map[string][]string{
	"1,2,2차만": {"1", "2", "2차만"},
	"2차만":     {"2차만"},
}

// ExpandTags maps a target tag value to the atomic tags it stands for.
func ExpandTags(value string) []string {
	value = strings.TrimSpace(value)
	if tags, ok := multiTagAliases[value]; ok {
		return append([]string(nil), tags...)
	}

	var tags []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// TagsMatch reports whether any expanded tag occurs in the free-text tag
// field. Matching is substring containment, not set membership.
func TagsMatch(recipientTags string, expanded []string) bool {
	for _, t := range expanded {
		if strings.Contains(recipientTags, t) {
			return true
		}
	}
	return false
}

// ResolveDateFilter turns today/tomorrow/YYYY-MM-DD into a concrete date in
// loc. An empty result means no date restriction.
func ResolveDateFilter(filter string, now time.Time, loc *time.Location) string {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", "none":
		return ""
	case "today":
		return utils.FormatDate(now, loc)
	case "tomorrow":
		return utils.FormatDate(now.In(loc).AddDate(0, 0, 1), loc)
	}
	if utils.IsDate(filter) {
		return filter
	}
	return ""
}

func validDateFilter(filter string) bool {
	switch strings.ToLower(strings.TrimSpace(filter)) {
	case "", "none", "today", "tomorrow":
		return true
	}
	return utils.IsDate(filter)
}

// TargetSpec is the targeting half of a schedule with its date already resolved.
type TargetSpec struct {
	TargetType  models.TargetType
	TargetValue string
	Date        string
	SMSChannel  models.SMSChannel
	ExcludeSent bool
}

func SpecFromSchedule(s *models.TemplateSchedule, now time.Time, loc *time.Location) TargetSpec {
	return TargetSpec{
		TargetType:  s.TargetType,
		TargetValue: s.TargetValue,
		Date:        ResolveDateFilter(s.DateFilter, now, loc),
		SMSChannel:  s.SMSChannel,
		ExcludeSent: s.ExcludeSent,
	}
}

// FilterTargets applies status, date, target type, already-sent and phone
// filters in that order and returns the survivors sorted by id.
func FilterTargets(spec TargetSpec, recipients []models.Reservation) []models.Reservation {
	var expanded []string
	if spec.TargetType == models.TargetTag {
		expanded = ExpandTags(spec.TargetValue)
	}

	out := make([]models.Reservation, 0, len(recipients))
	for _, r := range recipients {
		if r.Status != models.StatusConfirmed {
			continue
		}
		if spec.Date != "" && r.Date != spec.Date {
			continue
		}

		switch spec.TargetType {
		case models.TargetAll:
		case models.TargetTag:
			if !TagsMatch(r.Tags, expanded) {
				continue
			}
		case models.TargetRoomAssigned:
			if !r.HasRoom() {
				continue
			}
		case models.TargetPartyOnly:
			if r.HasRoom() || !strings.Contains(r.Tags, PartyOnlyTag) {
				continue
			}
		default:
			continue
		}

		if spec.ExcludeSent && r.SentFor(spec.SMSChannel) {
			continue
		}
		if strings.TrimSpace(r.Phone) == "" {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

type RecipientReader interface {
	ListCandidates(ctx context.Context, date string) ([]models.Reservation, error)
}

// TargetResolver computes the eligible recipients for a spec from the
// current reservation snapshot. It never writes.
type TargetResolver struct {
	recipients RecipientReader
}

func NewTargetResolver(recipients RecipientReader) *TargetResolver {
	return &TargetResolver{recipients: recipients}
}

func (r *TargetResolver) Resolve(ctx context.Context, spec TargetSpec) ([]models.Reservation, error) {
	candidates, err := r.recipients.ListCandidates(ctx, spec.Date)
	if err != nil {
		return nil, err
	}
	return FilterTargets(spec, candidates), nil
}
