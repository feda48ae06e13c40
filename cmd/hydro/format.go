package main

import (
	"fmt"
	"strings"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

const barWidth = 30

func progressBar(done, target int) string {
	filled := barWidth
	if target > 0 && done < target {
		filled = done * barWidth / target
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func printProfile(p *model.Profile) {
	units := p.UnitSystem
	name := p.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("Name:       %s\n", name)
	fmt.Printf("Units:      %s\n", units)
	if units == model.Imperial {
		fmt.Printf("Weight:     %.1f lb\n", hydro.KgToPounds(p.WeightKg))
	} else {
		fmt.Printf("Weight:     %.1f kg\n", p.WeightKg)
	}
	fmt.Printf("Activity:   %s\n", p.Activity)
	if p.CustomGoalML != nil {
		fmt.Printf("Goal:       %s (custom)\n", hydro.FormatVolume(*p.CustomGoalML, units))
	}
	fmt.Printf("Awake:      %s - %s\n", hydro.FormatClock(p.WakeMinutes), hydro.FormatClock(p.SleepMinutes))
	fmt.Printf("Reminders:  %s\n", onOff(p.RemindersEnabled, fmt.Sprintf("%d per day, smart %s", p.ReminderCount, onOff(p.SmartReminders, "on"))))
	fmt.Printf("Weather:    %s\n", onOff(p.PrefersWeatherGoal, "on"))
	fmt.Printf("Workouts:   %s\n", onOff(p.PrefersHealthKit, "on"))
}

func onOff(enabled bool, detail string) string {
	if !enabled {
		return "off"
	}
	return detail
}

func printEntry(e model.Entry, units model.UnitSystem) {
	line := fmt.Sprintf("%s  %s  %10s  %-14s", e.ID, e.Timestamp.Local().Format("15:04"), hydro.FormatVolume(e.VolumeML, units), e.FluidType)
	if e.Source == model.SourceHealthKit {
		line += " (imported)"
	}
	if e.Note != "" {
		line += "  " + e.Note
	}
	fmt.Println(line)
}

// printDashboard prints the refreshed day. The short form is used after
// mutations; full adds quests, achievements and reminders.
func printDashboard(d *hydro.Dashboard, full bool) {
	units := d.Profile.UnitSystem
	goal := d.Goal

	fmt.Printf("\n%s  %s  %s / %s\n", hydro.DayKey(d.Day), progressBar(d.TotalML, goal.TotalML),
		hydro.FormatVolume(d.TotalML, units), hydro.FormatVolume(goal.TotalML, units))

	s := d.State
	fmt.Printf("Level %d  XP %d  Coins %d  Streak %d (best %d)\n", s.Level, s.XP, s.Coins, s.StreakDays, s.LongestStreak)

	for _, r := range d.Delta.Rewards {
		fmt.Printf("  + %d XP, %d coins  %s\n", r.XP, r.Coins, r.Key)
	}
	for _, a := range d.Delta.Unlocked {
		fmt.Printf("  Achievement unlocked: %s\n", a.Title)
	}
	if d.Delta.LeveledUp() {
		fmt.Printf("  Level up! Now level %d\n", d.Delta.LevelAfter)
	}

	if !full {
		return
	}

	fmt.Printf("\nGoal: base %s", hydro.FormatVolume(goal.BaseML, units))
	if goal.WeatherAdjustmentML > 0 {
		fmt.Printf(" + weather %s", hydro.FormatVolume(goal.WeatherAdjustmentML, units))
	}
	if goal.WorkoutAdjustmentML > 0 {
		fmt.Printf(" + workout %s", hydro.FormatVolume(goal.WorkoutAdjustmentML, units))
	}
	fmt.Println()

	if len(d.Quests) > 0 {
		fmt.Println("\nQuests:")
		for _, q := range d.Quests {
			mark := " "
			if q.Completed() {
				mark = "x"
			}
			fmt.Printf("  [%s] %-22s %s / %s  (%d XP, %d coins)\n", mark, q.Title,
				hydro.FormatVolume(min(q.ProgressML, q.TargetML), units), hydro.FormatVolume(q.TargetML, units),
				q.RewardXP, q.RewardCoins)
		}
	}

	unlocked := 0
	for _, a := range s.Achievements {
		if a.Unlocked() {
			unlocked++
		}
	}
	fmt.Printf("\nAchievements: %d of %d\n", unlocked, len(s.Achievements))

	if len(d.Reminders) > 0 {
		fmt.Println("\nReminders:")
		for _, r := range d.Reminders {
			fmt.Printf("  %s  by then %s\n", hydro.FormatClock(r.Minute), hydro.FormatVolume(r.PacingTargetML, units))
		}
	}
}
