package hydro

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"hydro-go/internal/model"
)

// Ledger is the ordered, in-memory collection of hydration entries.
// Entries are kept sorted by timestamp whatever order they are added in,
// so backdated imports land in the right place.
//
// Ledger is safe for concurrent use. Every read returns copies, so callers
// never observe a partially applied mutation.
type Ledger struct {
	mu      sync.RWMutex
	entries []model.Entry // sorted by Timestamp, then ID
	idgen   IDGenerator
}

// NewLedger creates an empty ledger that assigns ids with idgen.
func NewLedger(idgen IDGenerator) *Ledger {
	return &Ledger{idgen: idgen}
}

// Load replaces the ledger contents, e.g. with entries read from the database.
// Entries keep their ids.
func (l *Ledger) Load(entries []model.Entry) {
	sorted := make([]model.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return entryLess(&sorted[i], &sorted[j]) })

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = sorted
}

// Add validates the entry, assigns it a fresh id and inserts it in timestamp order.
// Any id already set on entry is ignored.
func (l *Ledger) Add(entry model.Entry) (string, error) {
	if err := ValidateEntry(&entry); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.ID = l.idgen.New()
	i := sort.Search(len(l.entries), func(i int) bool { return entryLess(&entry, &l.entries[i]) })
	l.entries = append(l.entries, model.Entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = entry
	return entry.ID, nil
}

// Restore reinserts a previously removed entry with its original id.
// It is used to roll back a delete whose persistence failed.
func (l *Ledger) Restore(entry model.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := sort.Search(len(l.entries), func(i int) bool { return entryLess(&entry, &l.entries[i]) })
	l.entries = append(l.entries, model.Entry{})
	copy(l.entries[i+1:], l.entries[i:])
	l.entries[i] = entry
}

// Update applies edit to the entry with the given id and returns the previous
// and updated versions. Timestamps and sources are not editable.
func (l *Ledger) Update(id string, edit model.EntryEdit) (before, after model.Entry, err error) {
	if edit.VolumeML != nil && *edit.VolumeML <= 0 {
		return before, after, fmt.Errorf("%w: volume must be positive, got %d", ErrInvalidInput, *edit.VolumeML)
	}
	if edit.FluidType != nil && !edit.FluidType.Valid() {
		return before, after, fmt.Errorf("%w: unknown fluid type %q", ErrInvalidInput, *edit.FluidType)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return before, after, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}

	before = l.entries[i]
	after = before
	if edit.VolumeML != nil {
		after.VolumeML = *edit.VolumeML
	}
	if edit.FluidType != nil {
		after.FluidType = *edit.FluidType
	}
	if edit.Note != nil {
		after.Note = *edit.Note
	}
	l.entries[i] = after
	return before, after, nil
}

// Replace overwrites an entry in place. It is used to roll back an update.
func (l *Ledger) Replace(entry model.Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(entry.ID); i >= 0 {
		l.entries[i] = entry
	}
}

// Delete removes the entry with the given id and returns it.
func (l *Ledger) Delete(id string) (model.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return model.Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	removed := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return removed, nil
}

// Get returns the entry with the given id.
func (l *Ledger) Get(id string) (model.Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOf(id)
	if i < 0 {
		return model.Entry{}, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	}
	return l.entries[i], nil
}

// Count returns the number of entries in the ledger.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns a copy of every entry in chronological order.
func (l *Ledger) Entries() []model.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// EntriesOn returns the entries of day's calendar day, most recent first.
// The day boundary is taken in day's location.
func (l *Ledger) EntriesOn(day time.Time) []model.Entry {
	start := StartOfDay(day)

	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Entry
	for i := len(l.entries) - 1; i >= 0; i-- {
		if sameDay(l.entries[i].Timestamp, start) {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// TotalOn returns the total ml logged on day's calendar day.
func (l *Ledger) TotalOn(day time.Time) int {
	return sumVolume(l.EntriesOn(day), nil)
}

// TotalByFluidOn returns the ml of a single fluid type logged on day's calendar day.
func (l *Ledger) TotalByFluidOn(day time.Time, fluid model.FluidType) int {
	return sumVolume(l.EntriesOn(day), &fluid)
}

// DailyTotals returns one total per calendar day that has entries, ascending.
// Days are bucketed in loc, or in local time when loc is nil.
func (l *Ledger) DailyTotals(loc *time.Location) []model.DayTotal {
	if loc == nil {
		loc = time.Local
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.DayTotal
	for _, e := range l.entries {
		day := StartOfDay(e.Timestamp.In(loc))
		if n := len(out); n > 0 && out[n-1].Day.Equal(day) {
			out[n-1].TotalML += e.VolumeML
			continue
		}
		out = append(out, model.DayTotal{Day: day, TotalML: e.VolumeML})
	}
	return out
}

func (l *Ledger) indexOf(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// entryLess orders by timestamp, breaking ties by id so Load is deterministic.
func entryLess(a, b *model.Entry) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.ID < b.ID
}

func sumVolume(entries []model.Entry, fluid *model.FluidType) int {
	total := 0
	for _, e := range entries {
		if fluid != nil && e.FluidType != *fluid {
			continue
		}
		total += e.VolumeML
	}
	return total
}
