package hydro

import (
	"hash/fnv"
	"math/rand"
	"time"

	"hydro-go/internal/model"
)

// DailyGoalQuestID identifies the quest that mirrors the day's goal.
const DailyGoalQuestID = "daily-goal"

// rotatingQuestsPerDay is how many catalog quests join the daily goal quest.
const rotatingQuestsPerDay = 2

// questTemplate describes a catalog quest. Target is either a fixed amount
// or a percentage of the day's goal.
type questTemplate struct {
	id          string
	title       string
	detail      string
	fluid       model.FluidType // empty counts every fluid
	fixedML     int
	goalPercent int
	rewardXP    int
	rewardCoins int
}

func (t questTemplate) target(goal model.DailyGoal) int {
	if t.goalPercent > 0 {
		return goal.TotalML * t.goalPercent / 100
	}
	return t.fixedML
}

var questCatalog = []questTemplate{
	{id: "halfway", title: "Halfway there", detail: "Drink half of today's goal", goalPercent: 50, rewardXP: 15, rewardCoins: 2},
	{id: "overachiever", title: "Overachiever", detail: "Beat today's goal by a quarter", goalPercent: 125, rewardXP: 40, rewardCoins: 8},
	{id: "pure-water", title: "Pure water", detail: "Drink 1.5 l of plain water", fluid: model.Water, fixedML: 1500, rewardXP: 25, rewardCoins: 5},
	{id: "tea-time", title: "Tea time", detail: "Enjoy 500 ml of tea", fluid: model.Tea, fixedML: 500, rewardXP: 15, rewardCoins: 3},
	{id: "sparkle", title: "Sparkle", detail: "Have a can of sparkling water", fluid: model.SparklingWater, fixedML: 330, rewardXP: 10, rewardCoins: 2},
	{id: "dairy-day", title: "Dairy day", detail: "Drink a glass of milk", fluid: model.Milk, fixedML: 250, rewardXP: 10, rewardCoins: 2},
	{id: "refuel", title: "Refuel", detail: "Replenish with 500 ml of a sports drink", fluid: model.SportsDrink, fixedML: 500, rewardXP: 15, rewardCoins: 3},
	{id: "fresh-squeeze", title: "Fresh squeeze", detail: "Drink 300 ml of juice", fluid: model.Juice, fixedML: 300, rewardXP: 10, rewardCoins: 2},
}

// QuestEngine derives a day's quests from the ledger and the goal.
type QuestEngine struct {
	goalRewardXP    int
	goalRewardCoins int
}

// NewQuestEngine creates a QuestEngine.
func NewQuestEngine() *QuestEngine {
	return &QuestEngine{goalRewardXP: 30, goalRewardCoins: 5}
}

// DailyQuests returns the quests for day with progress taken from entriesToday.
// The first quest is always the daily goal; the rest rotate with a selection
// seeded by the date, so the same day and inputs always give the same list.
// Rewards are not granted here; see Tracker.
func (e *QuestEngine) DailyQuests(day time.Time, entriesToday []model.Entry, goal model.DailyGoal, profile *model.Profile) []model.Quest {
	quests := make([]model.Quest, 0, 1+rotatingQuestsPerDay)

	goalTitle := "Daily goal"
	if profile != nil && profile.Name != "" {
		goalTitle = "Daily goal for " + profile.Name
	}
	quests = append(quests, model.Quest{
		ID:          DailyGoalQuestID,
		Title:       goalTitle,
		Detail:      "Reach " + FormatVolume(goal.TotalML, unitsOf(profile)),
		TargetML:    goal.TotalML,
		ProgressML:  sumVolume(entriesToday, nil),
		RewardXP:    e.goalRewardXP,
		RewardCoins: e.goalRewardCoins,
	})

	for _, t := range pickTemplates(DayKey(day), rotatingQuestsPerDay) {
		q := model.Quest{
			ID:          t.id,
			Title:       t.title,
			Detail:      t.detail,
			TargetML:    t.target(goal),
			RewardXP:    t.rewardXP,
			RewardCoins: t.rewardCoins,
		}
		if t.fluid != "" {
			fluid := t.fluid
			q.FluidType = &fluid
			q.ProgressML = sumVolume(entriesToday, &fluid)
		} else {
			q.ProgressML = sumVolume(entriesToday, nil)
		}
		quests = append(quests, q)
	}
	return quests
}

// pickTemplates selects n catalog quests for the day key, in catalog order.
func pickTemplates(dayKey string, n int) []questTemplate {
	h := fnv.New64a()
	h.Write([]byte(dayKey))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	perm := rng.Perm(len(questCatalog))
	chosen := make([]bool, len(questCatalog))
	for _, i := range perm[:min(n, len(perm))] {
		chosen[i] = true
	}

	out := make([]questTemplate, 0, n)
	for i, t := range questCatalog {
		if chosen[i] {
			out = append(out, t)
		}
	}
	return out
}

func unitsOf(p *model.Profile) model.UnitSystem {
	if p == nil {
		return model.Metric
	}
	return p.UnitSystem
}
