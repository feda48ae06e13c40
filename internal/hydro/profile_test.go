package hydro_test

import (
	"errors"
	"testing"
	"time"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
)

func TestValidateProfile(t *testing.T) {
	if err := hydro.ValidateProfile(hydro.DefaultProfile()); err != nil {
		t.Fatalf("default profile invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *model.Profile)
	}{
		{"zero weight", func(p *model.Profile) { p.WeightKg = 0 }},
		{"negative weight", func(p *model.Profile) { p.WeightKg = -3 }},
		{"unknown units", func(p *model.Profile) { p.UnitSystem = "cubits" }},
		{"unknown activity", func(p *model.Profile) { p.Activity = "frantic" }},
		{"wake out of range", func(p *model.Profile) { p.WakeMinutes = 1440 }},
		{"sleep negative", func(p *model.Profile) { p.SleepMinutes = -1 }},
		{"too many reminders", func(p *model.Profile) { p.ReminderCount = hydro.MaxReminderCount + 1 }},
		{"non-positive custom goal", func(p *model.Profile) { p.CustomGoalML = intPtr(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := hydro.DefaultProfile()
			tt.mutate(p)
			if err := hydro.ValidateProfile(p); !errors.Is(err, hydro.ErrInvalidInput) {
				t.Errorf("ValidateProfile() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestCheckConflicts(t *testing.T) {
	p := hydro.DefaultProfile()
	if err := hydro.CheckConflicts(p); err != nil {
		t.Errorf("CheckConflicts() without custom goal = %v", err)
	}

	p.CustomGoalML = intPtr(2500)
	if err := hydro.CheckConflicts(p); err != nil {
		t.Errorf("CheckConflicts() custom goal alone = %v", err)
	}

	p.PrefersWeatherGoal = true
	if err := hydro.CheckConflicts(p); !errors.Is(err, hydro.ErrConfigurationConflict) {
		t.Errorf("CheckConflicts() error = %v, want ErrConfigurationConflict", err)
	}
}

func TestValidateEntry(t *testing.T) {
	valid := model.Entry{Timestamp: time.Now(), VolumeML: 250, Source: model.SourceManual, FluidType: model.Water}
	if err := hydro.ValidateEntry(&valid); err != nil {
		t.Fatalf("ValidateEntry() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(e *model.Entry)
	}{
		{"zero volume", func(e *model.Entry) { e.VolumeML = 0 }},
		{"negative volume", func(e *model.Entry) { e.VolumeML = -100 }},
		{"unknown fluid", func(e *model.Entry) { e.FluidType = "lava" }},
		{"unknown source", func(e *model.Entry) { e.Source = "telepathy" }},
		{"missing timestamp", func(e *model.Entry) { e.Timestamp = time.Time{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			if err := hydro.ValidateEntry(&e); !errors.Is(err, hydro.ErrInvalidInput) {
				t.Errorf("ValidateEntry() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
