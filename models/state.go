package models

import (
	"fmt"
	"time"
)

// RunStatus is the run-level state machine value
type RunStatus string

const (
	StatusPlaying  RunStatus = "playing"
	StatusPaused   RunStatus = "paused"
	StatusGameOver RunStatus = "gameover"
	StatusVictory  RunStatus = "victory"
)

// Valid reports whether s is a known status
func (s RunStatus) Valid() bool {
	switch s {
	case StatusPlaying, StatusPaused, StatusGameOver, StatusVictory:
		return true
	}
	return false
}

// RoomSize biases generated room dimensions
type RoomSize string

const (
	RoomSmall  RoomSize = "small"
	RoomMedium RoomSize = "medium"
	RoomLarge  RoomSize = "large"
)

// Theme is a named bundle of generation parameters
type Theme struct {
	Name           string   `json:"name" yaml:"name"`
	CorridorWidth  int      `json:"corridor_width" yaml:"corridor_width"`
	RoomSize       RoomSize `json:"room_size" yaml:"room_size"`
	EnemyDensity   float64  `json:"enemy_density" yaml:"enemy_density"`
	SpecialFeature string   `json:"special_feature" yaml:"special_feature"`
	VisualStyle    string   `json:"visual_style" yaml:"visual_style"`
}

// DefaultTheme is used whenever no pending theme has been set
func DefaultTheme() Theme {
	return Theme{
		Name:           "catacombs",
		CorridorWidth:  1,
		RoomSize:       RoomMedium,
		EnemyDensity:   1.0,
		SpecialFeature: "none",
		VisualStyle:    "stone",
	}
}

// RoomModifiers are per-level physics overrides set by the director
type RoomModifiers struct {
	SpeedMultiplier  float64 `json:"speed_multiplier"`
	DamageMultiplier float64 `json:"damage_multiplier"`
	Visibility       float64 `json:"visibility"`
	Gravity          float64 `json:"gravity"`
	Atmosphere       string  `json:"atmosphere"`
}

// DefaultRoomModifiers returns neutral modifiers
func DefaultRoomModifiers() RoomModifiers {
	return RoomModifiers{
		SpeedMultiplier:  1,
		DamageMultiplier: 1,
		Visibility:       1,
		Gravity:          1,
		Atmosphere:       "still",
	}
}

// QuestCondition decides how a quest's progress is computed
type QuestCondition string

const (
	QuestSlay    QuestCondition = "slay"
	QuestCollect QuestCondition = "collect"
	QuestManual  QuestCondition = "manual"
)

// Quest is a tracked objective
type Quest struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Condition      QuestCondition `json:"condition"`
	Progress       int            `json:"progress"`
	Target         int            `json:"target"`
	Baseline       int            `json:"baseline"` // enemy count when a slay quest was created
	Completed      bool           `json:"completed"`
	Reward         string         `json:"reward,omitempty"`
	RewardCurrency int            `json:"reward_currency,omitempty"`
	Rewarded       bool           `json:"rewarded"`
}

// EventKind classifies host-facing events raised during a step
type EventKind string

const (
	EventEnemyDefeated   EventKind = "enemy_defeated"
	EventPlayerHit       EventKind = "player_hit"
	EventPortalSealed    EventKind = "portal_sealed"
	EventLevelAdvanced   EventKind = "level_advanced"
	EventQuestCompleted  EventKind = "quest_completed"
	EventGameOver        EventKind = "game_over"
	EventDirectorApplied EventKind = "director_applied"
	EventItemCollected   EventKind = "item_collected"
)

// Event is a notable outcome the host may react to (narration, checkpoints)
type Event struct {
	Kind   EventKind `json:"kind"`
	Detail string    `json:"detail"`
}

// GameState is the aggregate root of one level of a run
type GameState struct {
	Player         Player         `json:"player"`
	Enemies        []Enemy        `json:"enemies"`
	Projectiles    []Projectile   `json:"projectiles"`
	Interactables  []Interactable `json:"interactables"`
	Map            *GameMap       `json:"map"`
	Camera         Vec            `json:"camera"`
	Quests         []Quest        `json:"quests"`
	Status         RunStatus      `json:"status"`
	Score          int            `json:"score"`
	Currency       int            `json:"currency"`
	Level          int            `json:"level"`
	Modifiers      RoomModifiers  `json:"room_modifiers"`
	Theme          Theme          `json:"theme"`
	PendingTheme   *Theme         `json:"pending_theme,omitempty"`
	Log            *NarrativeLog  `json:"log"`
	Clock          time.Duration  `json:"clock"`
	EnemiesAtStart int            `json:"enemies_at_start"`
	Events         []Event        `json:"events,omitempty"`

	nextID int
}

// NextID returns a state-unique identifier with the given prefix
func (s *GameState) NextID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

// Emit records a host-facing event for the current step
func (s *GameState) Emit(kind EventKind, format string, args ...interface{}) {
	s.Events = append(s.Events, Event{Kind: kind, Detail: fmt.Sprintf(format, args...)})
}

// RemainingEnemies is derived fresh on every call
func (s *GameState) RemainingEnemies() int {
	return len(s.Enemies)
}
