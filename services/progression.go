package services

import (
	"runedeep/server/models"
)

// syncQuests recomputes slay quests from the live enemy list and pays out
// newly completed quests
func (ws *WorldService) syncQuests(state *models.GameState) {
	remaining := state.RemainingEnemies()
	for i := range state.Quests {
		q := &state.Quests[i]
		if q.Condition == models.QuestSlay && !q.Completed {
			q.Progress = clampInt(q.Baseline-remaining, 0, q.Target)
			q.Completed = q.Progress >= q.Target
		}
		ws.payQuest(state, q)
	}
}

// recordCollection advances every open collect quest by one
func (ws *WorldService) recordCollection(state *models.GameState) {
	for i := range state.Quests {
		q := &state.Quests[i]
		if q.Condition != models.QuestCollect || q.Completed {
			continue
		}
		q.Progress++
		q.Completed = q.Progress >= q.Target
		ws.payQuest(state, q)
	}
}

// payQuest grants a completed quest's reward exactly once
func (ws *WorldService) payQuest(state *models.GameState, q *models.Quest) {
	if !q.Completed || q.Rewarded {
		return
	}
	q.Rewarded = true
	state.Currency += q.RewardCurrency
	if q.Reward != "" {
		state.Log.Append(state.Clock, "quest", "Quest complete: %s. Reward: %s", q.Title, q.Reward)
	} else {
		state.Log.Append(state.Clock, "quest", "Quest complete: %s.", q.Title)
	}
	state.Emit(models.EventQuestCompleted, "%s", q.ID)
}

// enterPortal either refuses a sealed portal or builds the next level. The
// enemy count is read fresh, so a stale portal from a replaced level can never
// be collected twice.
func (ws *WorldService) enterPortal(state *models.GameState, portal *models.Interactable) *models.GameState {
	if remaining := state.RemainingEnemies(); remaining > 0 {
		portal.Collected = false
		state.Log.Append(state.Clock, "system", "The portal is sealed. %d foes still stir.", remaining)
		state.Emit(models.EventPortalSealed, "%d remaining", remaining)
		return state
	}
	return ws.advance(state)
}

// advance replaces the state with the next level, consuming the pending theme
func (ws *WorldService) advance(state *models.GameState) *models.GameState {
	theme := models.DefaultTheme()
	if state.PendingTheme != nil {
		theme = *state.PendingTheme
	}

	next := ws.newLevel(state.Level+1, theme, state)
	next.Score += LevelClearBonus
	next.Log.Append(next.Clock, "system", "Level %d cleared (+%d). You step into the %s.", state.Level, LevelClearBonus, next.Theme.Name)
	next.Emit(models.EventLevelAdvanced, "%d", next.Level)
	return next
}
