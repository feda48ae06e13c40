package hydro

import (
	"time"

	"hydro-go/internal/model"
)

// ReminderScheduler spreads reminders across the waking window.
type ReminderScheduler struct{}

// NewReminderScheduler creates a ReminderScheduler.
func NewReminderScheduler() *ReminderScheduler {
	return &ReminderScheduler{}
}

// WindowMinutes returns the length of the waking window. A window whose sleep
// time is at or before the wake time wraps past midnight; equal times mean
// the whole day.
func WindowMinutes(wake, sleep int) int {
	length := ((sleep-wake)%minutesPerDay + minutesPerDay) % minutesPerDay
	if length == 0 {
		return minutesPerDay
	}
	return length
}

// ScheduleDay returns the day whose waking window now falls in. In a window
// that wraps past midnight, the hours before sleep still belong to the
// previous day.
func ScheduleDay(profile *model.Profile, now time.Time) time.Time {
	today := StartOfDay(now)
	if profile == nil || profile.SleepMinutes >= profile.WakeMinutes {
		return today
	}
	if now.Hour()*60+now.Minute() < profile.SleepMinutes {
		return StartOfDay(today.AddDate(0, 0, -1))
	}
	return today
}

// Schedule returns the reminders for day in chronological order.
//
// ReminderCount slots are spaced evenly over [wake, sleep), starting at wake.
// In smart mode a slot is dropped when the intake logged before it already
// covers the slot's pacing target, goal*(i+1)/count. The result depends only
// on the arguments, so repeated calls give identical schedules.
func (s *ReminderScheduler) Schedule(profile *model.Profile, entries []model.Entry, goalML int, day time.Time) []model.ReminderTime {
	if profile == nil || !profile.RemindersEnabled || profile.ReminderCount <= 0 {
		return nil
	}

	count := profile.ReminderCount
	window := WindowMinutes(profile.WakeMinutes, profile.SleepMinutes)
	y, m, d := day.Date()

	out := make([]model.ReminderTime, 0, count)
	for i := 0; i < count; i++ {
		offset := i * window / count
		absolute := profile.WakeMinutes + offset
		// time.Date normalises minutes past midnight into the next day.
		at := time.Date(y, m, d, 0, absolute, 0, 0, day.Location())

		r := model.ReminderTime{
			Minute:         absolute % minutesPerDay,
			At:             at,
			PacingTargetML: goalML * (i + 1) / count,
		}
		if profile.SmartReminders && intakeBefore(entries, at) >= r.PacingTargetML {
			continue
		}
		out = append(out, r)
	}
	return out
}

func intakeBefore(entries []model.Entry, t time.Time) int {
	total := 0
	for _, e := range entries {
		if e.Timestamp.Before(t) {
			total += e.VolumeML
		}
	}
	return total
}
