package hydro

import (
	"sort"
	"strings"
	"time"

	"hydro-go/internal/model"
)

// GameParams are the tunable constants of the XP economy.
type GameParams struct {
	// LevelThresholds[i] is the cumulative XP needed for level i+1.
	// Must start at 0 and be strictly increasing.
	LevelThresholds []int
	GoalXP          int // awarded once per goal-met day
	GoalCoins       int
}

// DefaultGameParams returns the documented defaults.
func DefaultGameParams() GameParams {
	return GameParams{
		LevelThresholds: []int{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000},
		GoalXP:          50,
		GoalCoins:       10,
	}
}

// LevelForXP returns the level reached with xp cumulative experience.
// Level 1 starts at 0 XP; the level increases exactly when xp reaches a threshold.
func (p GameParams) LevelForXP(xp int) int {
	level := 0
	for _, threshold := range p.LevelThresholds {
		if xp < threshold {
			break
		}
		level++
	}
	return max(level, 1)
}

// DefaultAchievements returns the achievement catalog, all locked.
func DefaultAchievements() []model.Achievement {
	return []model.Achievement{
		{ID: "first-sip", Title: "First sip", Detail: "Log your first drink", Condition: model.Condition{Kind: model.ConditionEntries, Threshold: 1}, RewardCoins: 5},
		{ID: "regular", Title: "Regular", Detail: "Log 50 drinks", Condition: model.Condition{Kind: model.ConditionEntries, Threshold: 50}, RewardCoins: 20},
		{ID: "centurion", Title: "Centurion", Detail: "Log 100 drinks", Condition: model.Condition{Kind: model.ConditionEntries, Threshold: 100}, RewardCoins: 40},
		{ID: "reservoir", Title: "Reservoir", Detail: "Log 500 drinks", Condition: model.Condition{Kind: model.ConditionEntries, Threshold: 500}, RewardCoins: 100},
		{ID: "streak-3", Title: "Warming up", Detail: "Meet your goal 3 days in a row", Condition: model.Condition{Kind: model.ConditionStreak, Threshold: 3}, RewardCoins: 15},
		{ID: "streak-7", Title: "Week of water", Detail: "Meet your goal 7 days in a row", Condition: model.Condition{Kind: model.ConditionStreak, Threshold: 7}, RewardCoins: 35},
		{ID: "streak-30", Title: "Monthly flow", Detail: "Meet your goal 30 days in a row", Condition: model.Condition{Kind: model.ConditionStreak, Threshold: 30}, RewardCoins: 150},
		{ID: "goal-1", Title: "Goal getter", Detail: "Meet your goal for the first time", Condition: model.Condition{Kind: model.ConditionGoalMet, Threshold: 1}, RewardCoins: 5},
		{ID: "goal-10", Title: "Ten out of ten", Detail: "Meet your goal on 10 days", Condition: model.Condition{Kind: model.ConditionGoalMet, Threshold: 10}, RewardCoins: 25},
		{ID: "goal-50", Title: "Well seasoned", Detail: "Meet your goal on 50 days", Condition: model.Condition{Kind: model.ConditionGoalMet, Threshold: 50}, RewardCoins: 75},
	}
}

// AdvanceInput is everything the tracker needs to derive a new GameState.
type AdvanceInput struct {
	History      []model.DayTotal // per-day totals; days without entries may be absent
	Goal         model.DailyGoal  // applied to every day
	Today        time.Time        // the current, still open, calendar day
	Now          time.Time        // timestamp for new rewards and unlocks
	Quests       []model.Quest    // today's quests with current progress
	TotalEntries int              // lifetime entry count
}

// Delta summarises what changed between two game states.
type Delta struct {
	Rewards      []model.Reward
	Unlocked     []model.Achievement
	XPGained     int
	CoinsGained  int
	LevelBefore  int
	LevelAfter   int
	StreakBefore int
	StreakAfter  int
}

// LeveledUp reports whether the advance crossed at least one level threshold.
func (d Delta) LeveledUp() bool {
	return d.LevelAfter > d.LevelBefore
}

// Tracker derives streaks, achievements, XP and coins from day-by-day history.
//
// Streaks and counters are recomputed from scratch on every call. Rewards and
// achievements are carried over from the previous state and only ever added,
// so editing or deleting entries never takes back something already awarded.
type Tracker struct {
	params  GameParams
	catalog []model.Achievement
}

// NewTracker creates a Tracker with the default achievement catalog.
func NewTracker(params GameParams) *Tracker {
	return &Tracker{params: params, catalog: DefaultAchievements()}
}

// Params returns the tracker's parameters.
func (t *Tracker) Params() GameParams {
	return t.params
}

// Advance derives the next game state from prev and the current inputs.
func (t *Tracker) Advance(prev model.GameState, in AdvanceInput) (model.GameState, Delta) {
	today := StartOfDay(in.Today)
	todayKey := DayKey(today)
	streak := evaluateDays(in.History, in.Goal.TotalML, today, goalRewardDays(prev.Rewards), prev.EvaluatedThrough)

	next := model.GameState{
		StreakDays:       streak.current,
		LongestStreak:    max(prev.LongestStreak, streak.longest),
		GoalMetDays:      len(streak.metDays),
		TotalEntries:     in.TotalEntries,
		Quests:           append([]model.Quest(nil), in.Quests...),
		EvaluatedThrough: max(prev.EvaluatedThrough, todayKey),
	}

	awarded := make(map[string]bool, len(prev.Rewards))
	next.Rewards = append([]model.Reward(nil), prev.Rewards...)
	for _, r := range prev.Rewards {
		awarded[r.Key] = true
	}

	var delta Delta
	award := func(r model.Reward) {
		if awarded[r.Key] {
			return
		}
		awarded[r.Key] = true
		r.AwardedAt = in.Now
		next.Rewards = append(next.Rewards, r)
		delta.Rewards = append(delta.Rewards, r)
	}

	for _, day := range streak.metDays {
		award(model.Reward{Key: goalRewardPrefix + day, XP: t.params.GoalXP, Coins: t.params.GoalCoins})
	}
	for _, q := range in.Quests {
		if q.Completed() {
			award(model.Reward{Key: "quest:" + todayKey + ":" + q.ID, XP: q.RewardXP, Coins: q.RewardCoins})
		}
	}

	next.Achievements = t.mergeAchievements(prev.Achievements, next, in.Now, func(a model.Achievement) {
		delta.Unlocked = append(delta.Unlocked, a)
		award(model.Reward{Key: "achievement:" + a.ID, Coins: a.RewardCoins})
	})

	for _, r := range next.Rewards {
		next.XP += r.XP
		next.Coins += r.Coins
	}
	next.Level = t.params.LevelForXP(next.XP)

	delta.XPGained = next.XP - prev.XP
	delta.CoinsGained = next.Coins - prev.Coins
	delta.LevelBefore = max(prev.Level, 1)
	delta.LevelAfter = next.Level
	delta.StreakBefore = prev.StreakDays
	delta.StreakAfter = next.StreakDays
	return next, delta
}

// mergeAchievements keeps every previous unlock untouched and unlocks
// catalog entries whose condition now holds.
func (t *Tracker) mergeAchievements(prev []model.Achievement, state model.GameState, now time.Time, onUnlock func(model.Achievement)) []model.Achievement {
	byID := make(map[string]model.Achievement, len(prev))
	for _, a := range prev {
		byID[a.ID] = a
	}

	out := make([]model.Achievement, 0, len(t.catalog))
	seen := make(map[string]bool, len(t.catalog))
	for _, rule := range t.catalog {
		seen[rule.ID] = true
		a := rule
		if old, ok := byID[rule.ID]; ok && old.Unlocked() {
			a.UnlockedAt = old.UnlockedAt
			out = append(out, a)
			continue
		}
		if conditionHolds(a.Condition, state) {
			unlockedAt := now
			a.UnlockedAt = &unlockedAt
			onUnlock(a)
		}
		out = append(out, a)
	}

	// Achievements retired from the catalog stay as they were.
	for _, a := range prev {
		if !seen[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func conditionHolds(c model.Condition, s model.GameState) bool {
	switch c.Kind {
	case model.ConditionStreak:
		return s.LongestStreak >= c.Threshold
	case model.ConditionEntries:
		return s.TotalEntries >= c.Threshold
	case model.ConditionGoalMet:
		return s.GoalMetDays >= c.Threshold
	default:
		return false
	}
}

type streakResult struct {
	current int
	longest int
	metDays []string // day keys, ascending
}

const goalRewardPrefix = "goal:"

// goalRewardDays returns the day keys that already earned a goal reward.
func goalRewardDays(rewards []model.Reward) map[string]bool {
	days := make(map[string]bool)
	for _, r := range rewards {
		if day, ok := strings.CutPrefix(r.Key, goalRewardPrefix); ok {
			days[day] = true
		}
	}
	return days
}

// evaluateDays walks every calendar day from the first known day up to today.
// Days before today are closed: met extends the streak, missed resets it to 0.
// Today only ever extends the streak; it cannot be missed until it is over.
//
// A day that earned a goal reward stays met whatever the goal is now. A day
// before evaluatedThrough without one was already closed as missed. Only the
// remaining days are judged against goalML.
func evaluateDays(history []model.DayTotal, goalML int, today time.Time, rewarded map[string]bool, evaluatedThrough string) streakResult {
	loc := today.Location()
	totals := make(map[string]int, len(history))
	seen := make(map[string]bool, len(history)+len(rewarded))
	var days []time.Time
	addDay := func(day time.Time) {
		key := DayKey(day)
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	for _, h := range history {
		day := StartOfDay(h.Day.In(loc))
		addDay(day)
		totals[DayKey(day)] += h.TotalML
	}
	for key := range rewarded {
		if day, err := time.ParseInLocation("2006-01-02", key, loc); err == nil {
			addDay(day)
		}
	}

	var res streakResult
	if len(days) == 0 {
		return res
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	met := func(key string, closed bool) bool {
		if rewarded[key] {
			return true
		}
		if closed && key < evaluatedThrough {
			return false
		}
		total, ok := totals[key]
		return ok && total > 0 && total >= goalML
	}

	for day := days[0]; day.Before(today); day = nextDay(day) {
		key := DayKey(day)
		if met(key, true) {
			res.current++
			res.metDays = append(res.metDays, key)
		} else {
			res.current = 0
		}
		res.longest = max(res.longest, res.current)
	}

	if key := DayKey(today); met(key, false) {
		res.current++
		res.metDays = append(res.metDays, key)
		res.longest = max(res.longest, res.current)
	}
	return res
}
