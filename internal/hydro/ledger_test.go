package hydro_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"hydro-go/internal/hydro"
	"hydro-go/internal/model"
	"hydro-go/internal/testutil"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func water(ts time.Time, ml int) model.Entry {
	return model.Entry{Timestamp: ts, VolumeML: ml, Source: model.SourceManual, FluidType: model.Water}
}

func TestLedger_Add(t *testing.T) {
	t.Run("keeps timestamp order for backdated entries", func(t *testing.T) {
		l := hydro.NewLedger(testutil.NewStubIDGenerator())
		for _, e := range []model.Entry{water(at(15, 12, 0), 300), water(at(15, 8, 0), 200), water(at(15, 10, 0), 250)} {
			if _, err := l.Add(e); err != nil {
				t.Fatalf("Add() error = %v", err)
			}
		}

		entries := l.Entries()
		want := []int{200, 250, 300}
		for i, e := range entries {
			if e.VolumeML != want[i] {
				t.Errorf("entries[%d].VolumeML = %d, want %d", i, e.VolumeML, want[i])
			}
		}
	})

	t.Run("assigns fresh ids", func(t *testing.T) {
		l := hydro.NewLedger(testutil.NewStubIDGenerator())
		e := water(at(15, 8, 0), 200)
		e.ID = "caller-chosen"
		id, err := l.Add(e)
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if id != "id-1" {
			t.Errorf("id = %q, want id-1", id)
		}
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		l := hydro.NewLedger(testutil.NewStubIDGenerator())
		if _, err := l.Add(water(at(15, 8, 0), 0)); !errors.Is(err, hydro.ErrInvalidInput) {
			t.Errorf("Add() error = %v, want ErrInvalidInput", err)
		}
		if l.Count() != 0 {
			t.Errorf("Count() = %d after rejected add", l.Count())
		}
	})
}

func TestLedger_UpdateDelete(t *testing.T) {
	l := hydro.NewLedger(testutil.NewStubIDGenerator())
	id, _ := l.Add(water(at(15, 8, 0), 200))

	vol := 400
	tea := model.Tea
	before, after, err := l.Update(id, model.EntryEdit{VolumeML: &vol, FluidType: &tea})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if before.VolumeML != 200 || after.VolumeML != 400 || after.FluidType != model.Tea {
		t.Errorf("Update() before = %+v, after = %+v", before, after)
	}

	zero := 0
	if _, _, err := l.Update(id, model.EntryEdit{VolumeML: &zero}); !errors.Is(err, hydro.ErrInvalidInput) {
		t.Errorf("Update(0 ml) error = %v, want ErrInvalidInput", err)
	}
	if _, _, err := l.Update("missing", model.EntryEdit{VolumeML: &vol}); !hydro.IsNotFound(err) {
		t.Errorf("Update(missing) error = %v, want not found", err)
	}

	removed, err := l.Delete(id)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if removed.ID != id {
		t.Errorf("Delete() returned %q", removed.ID)
	}
	if _, err := l.Delete(id); !hydro.IsNotFound(err) {
		t.Errorf("second Delete() error = %v, want not found", err)
	}
	if _, err := l.Get(id); !hydro.IsNotFound(err) {
		t.Errorf("Get() after delete error = %v, want not found", err)
	}

	l.Restore(removed)
	if got, err := l.Get(id); err != nil || got.VolumeML != 400 {
		t.Errorf("Get() after Restore = %+v, %v", got, err)
	}
}

func TestLedger_DayQueries(t *testing.T) {
	l := hydro.NewLedger(testutil.NewStubIDGenerator())
	l.Load([]model.Entry{
		{ID: "a", Timestamp: at(14, 22, 0), VolumeML: 500, Source: model.SourceManual, FluidType: model.Water},
		{ID: "b", Timestamp: at(15, 9, 0), VolumeML: 250, Source: model.SourceManual, FluidType: model.Tea},
		{ID: "c", Timestamp: at(15, 7, 0), VolumeML: 300, Source: model.SourceManual, FluidType: model.Water},
		{ID: "d", Timestamp: at(15, 23, 59), VolumeML: 100, Source: model.SourceHealthKit, FluidType: model.Water},
		{ID: "e", Timestamp: at(16, 0, 0), VolumeML: 700, Source: model.SourceManual, FluidType: model.Water},
	})

	day := at(15, 13, 0)
	entries := l.EntriesOn(day)
	gotIDs := make([]string, len(entries))
	for i, e := range entries {
		gotIDs[i] = e.ID
	}
	if want := []string{"d", "b", "c"}; !slices.Equal(gotIDs, want) {
		t.Errorf("EntriesOn() ids = %v, want %v (most recent first)", gotIDs, want)
	}

	if got := l.TotalOn(day); got != 650 {
		t.Errorf("TotalOn() = %d, want 650", got)
	}
	if got := l.TotalByFluidOn(day, model.Water); got != 400 {
		t.Errorf("TotalByFluidOn(water) = %d, want 400", got)
	}

	totals := l.DailyTotals(time.UTC)
	if len(totals) != 3 {
		t.Fatalf("DailyTotals() = %+v, want 3 days", totals)
	}
	for i, want := range []int{500, 650, 700} {
		if totals[i].TotalML != want {
			t.Errorf("DailyTotals()[%d] = %d, want %d", i, totals[i].TotalML, want)
		}
	}

	t.Run("nil location means local time", func(t *testing.T) {
		got := l.DailyTotals(nil)
		want := l.DailyTotals(time.Local)
		if len(got) != len(want) {
			t.Fatalf("DailyTotals(nil) = %+v, want %+v", got, want)
		}
		for i := range want {
			if !got[i].Day.Equal(want[i].Day) || got[i].TotalML != want[i].TotalML {
				t.Errorf("DailyTotals(nil)[%d] = %+v, want %+v", i, got[i], want[i])
			}
		}
	})

	t.Run("day boundary follows the location", func(t *testing.T) {
		east := time.FixedZone("UTC+3", 3*60*60)
		// 22:00 UTC on the 14th is 01:00 on the 15th at UTC+3.
		if got := l.TotalOn(time.Date(2024, 1, 15, 12, 0, 0, 0, east)); got != 1050 {
			t.Errorf("TotalOn(UTC+3) = %d, want 1050", got)
		}
	})
}

func TestLedger_ReadsReturnCopies(t *testing.T) {
	l := hydro.NewLedger(testutil.NewStubIDGenerator())
	l.Add(water(at(15, 8, 0), 200))

	entries := l.Entries()
	entries[0].VolumeML = 9999
	if got := l.Entries()[0].VolumeML; got != 200 {
		t.Errorf("ledger mutated through a returned slice: %d", got)
	}
}
