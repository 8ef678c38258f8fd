package messages

import (
	"encoding/json"
	"time"

	"runedeep/server/models"
)

// MessageType defines the type of message being sent
type MessageType string

const (
	// client -> server
	MessageTypeLogin       MessageType = "login"
	MessageTypeMove        MessageType = "move"
	MessageTypeAttack      MessageType = "attack"
	MessageTypeInteract    MessageType = "interact"
	MessageTypeReset       MessageType = "reset"
	MessageTypeStatus      MessageType = "status"
	MessageTypeDirector    MessageType = "director"
	MessageTypeLeaderboard MessageType = "leaderboard"

	// server -> client
	MessageTypeLoginSuccess MessageType = "login_success"
	MessageTypeUpdate       MessageType = "update"
	MessageTypeLevel        MessageType = "level"
	MessageTypeEvents       MessageType = "events"
	MessageTypeAnnouncement MessageType = "announcement"
	MessageTypeError        MessageType = "error"
)

// BaseMessage is the envelope for outgoing messages
type BaseMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

// IncomingMessage is the envelope for client messages; the payload is decoded
// once the type is known
type IncomingMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// LoginMessage represents a login request
type LoginMessage struct {
	Username string `json:"username"`
}

// LoginSuccessMessage represents a successful login response
type LoginSuccessMessage struct {
	PlayerID string `json:"player_id"`
	RunID    string `json:"run_id"`
	Seed     int64  `json:"seed"`
	Message  string `json:"message"`
}

// MoveMessage represents a held-direction movement intent
type MoveMessage struct {
	Direction string `json:"direction"` // up, down, left, right
}

// StatusMessage forces the run status (pause/resume)
type StatusMessage struct {
	Status string `json:"status"`
}

// DirectorMessage carries one tool call from the narrative service
type DirectorMessage struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// LeaderboardMessage requests the best runs
type LeaderboardMessage struct {
	Limit int `json:"limit"`
}

// UpdateMessage is the per-step state snapshot, without the static map
type UpdateMessage struct {
	Player        models.Player         `json:"player"`
	Enemies       []models.Enemy        `json:"enemies"`
	Projectiles   []models.Projectile   `json:"projectiles"`
	Interactables []models.Interactable `json:"interactables"`
	Camera        models.Vec            `json:"camera"`
	Quests        []models.Quest        `json:"quests"`
	Status        models.RunStatus      `json:"status"`
	Score         int                   `json:"score"`
	Currency      int                   `json:"currency"`
	Level         int                   `json:"level"`
	Modifiers     models.RoomModifiers  `json:"room_modifiers"`
	Theme         models.Theme          `json:"theme"`
	PendingTheme  *models.Theme         `json:"pending_theme,omitempty"`
	Log           []models.LogEntry     `json:"log"`
	Clock         time.Duration         `json:"clock"`
}

// NewUpdateMessage captures a snapshot of the state
func NewUpdateMessage(s *models.GameState) UpdateMessage {
	return UpdateMessage{
		Player:        s.Player,
		Enemies:       s.Enemies,
		Projectiles:   s.Projectiles,
		Interactables: s.Interactables,
		Camera:        s.Camera,
		Quests:        s.Quests,
		Status:        s.Status,
		Score:         s.Score,
		Currency:      s.Currency,
		Level:         s.Level,
		Modifiers:     s.Modifiers,
		Theme:         s.Theme,
		PendingTheme:  s.PendingTheme,
		Log:           s.Log.Entries(),
		Clock:         s.Clock,
	}
}

// LevelMessage carries the static map whenever a level begins
type LevelMessage struct {
	Level int             `json:"level"`
	Map   *models.GameMap `json:"map"`
}

// EventsMessage forwards host-facing events raised during a step
type EventsMessage struct {
	Events []models.Event `json:"events"`
}

// AnnouncementMessage is broadcast to every client
type AnnouncementMessage struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
