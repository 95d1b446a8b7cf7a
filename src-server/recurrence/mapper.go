// Package recurrence maps between the local recurrence model and Discord's
// recurrence_rule object.
package recurrence

import (
	"fmt"
	"time"

	"eventsync/src-server/model"

	"github.com/teambition/rrule-go"
)

// ToExternal builds the recurrence rule for an event starting at start.
// loc is the event's own timezone; the monthly day and the end of the series
// are taken in it. Returns nil for absent or disabled recurrence.
func ToExternal(r *model.Recurring, start time.Time, loc *time.Location) *model.RecurrenceRule {
	if !r.IsActive() {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	localStart := start.In(loc)

	rule := &model.RecurrenceRule{
		Start:    start.UTC(),
		Interval: 1,
	}
	switch {
	case r.RawFrequencyCode != nil:
		rule.Frequency = *r.RawFrequencyCode
	case r.Frequency == model.FrequencyMonthly:
		rule.Frequency = model.FrequencyCodeMonthly
		rule.ByMonthDay = []int{localStart.Day()}
	default:
		rule.Frequency = model.FrequencyCodeWeekly
		rule.ByWeekday = []int{EffectiveWeekday(r, start, loc)}
	}

	if r.EndDate != "" {
		if endDate, err := time.ParseInLocation(model.DateLayout, r.EndDate, loc); err == nil {
			end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 59, 0, loc).UTC()
			rule.End = &end
		}
	}
	return rule
}

// ToLocal converts a recurrence rule back to the local model; nil rule means
// no recurrence. Monthly rules lose their day of month. A frequency code the
// local model can't express is passed through in RawFrequencyCode and
// reported as a *model.ValidationError next to the converted value.
func ToLocal(rule *model.RecurrenceRule, loc *time.Location) (*model.Recurring, error) {
	if rule == nil {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}

	r := &model.Recurring{Enabled: true}
	var err error
	switch rule.Frequency {
	case model.FrequencyCodeWeekly:
		r.Frequency = model.FrequencyWeekly
		if len(rule.ByWeekday) > 0 {
			day := rule.ByWeekday[0]
			r.DayOfWeek = &day
		}
	case model.FrequencyCodeMonthly:
		r.Frequency = model.FrequencyMonthly
	default:
		code := rule.Frequency
		r.RawFrequencyCode = &code
		err = &model.ValidationError{
			Field:  "recurrence_rule.frequency",
			Reason: fmt.Sprintf("unsupported frequency code %d", rule.Frequency),
		}
	}

	if rule.End != nil {
		r.EndDate = rule.End.In(loc).Format(model.DateLayout)
	}
	return r, err
}

// EffectiveWeekday is the day a weekly series repeats on: the explicit day,
// or the start's weekday in loc when none is set.
func EffectiveWeekday(r *model.Recurring, start time.Time, loc *time.Location) int {
	if r != nil && r.DayOfWeek != nil {
		return *r.DayOfWeek
	}
	if loc == nil {
		loc = time.UTC
	}
	return model.ServiceWeekday(start.In(loc).Weekday())
}

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

func toROption(rule *model.RecurrenceRule) (rrule.ROption, bool) {
	opt := rrule.ROption{
		Dtstart:  rule.Start,
		Interval: max(rule.Interval, 1),
	}
	switch rule.Frequency {
	case model.FrequencyCodeWeekly:
		opt.Freq = rrule.WEEKLY
	case model.FrequencyCodeMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return opt, false
	}
	for _, day := range rule.ByWeekday {
		if day >= 0 && day < len(weekdays) {
			opt.Byweekday = append(opt.Byweekday, weekdays[day])
		}
	}
	opt.Bymonthday = append(opt.Bymonthday, rule.ByMonthDay...)
	if rule.End != nil {
		opt.Until = *rule.End
	}
	if rule.Count != nil {
		opt.Count = *rule.Count
	}
	return opt, true
}

// Describe renders the rule as an RRULE value for logs and reports.
func Describe(rule *model.RecurrenceRule) string {
	if rule == nil {
		return "none"
	}
	opt, ok := toROption(rule)
	if !ok {
		return fmt.Sprintf("frequency code %d", rule.Frequency)
	}
	return opt.RRuleString()
}

// Next returns the first occurrence strictly after the given time.
func Next(rule *model.RecurrenceRule, after time.Time) (time.Time, bool) {
	if rule == nil {
		return time.Time{}, false
	}
	opt, ok := toROption(rule)
	if !ok {
		return time.Time{}, false
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, false
	}
	next := r.After(after, false)
	return next, !next.IsZero()
}
