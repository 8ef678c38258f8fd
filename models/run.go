package models

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunRecord is the persisted summary of a run, checkpointed by the host
type RunRecord struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	Username    string    `json:"username"`
	Seed        int64     `json:"seed"`
	Level       int       `json:"level"`
	Score       int       `json:"score"`
	Currency    int       `json:"currency"`
	Status      RunStatus `json:"status"`
	Theme       string    `json:"theme"`
	DamageTaken int       `json:"damage_taken"`
	Kills       int       `json:"kills"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRunID returns a time-sortable run identifier
func NewRunID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// Checkpoint copies the run-relevant fields of a state into the record
func (r *RunRecord) Checkpoint(s *GameState, now time.Time) {
	r.Level = s.Level
	r.Score = s.Score
	r.Currency = s.Currency
	r.Status = s.Status
	r.Theme = s.Theme.Name
	r.DamageTaken = s.Player.DamageTaken
	r.Kills = s.Player.EnemiesDefeated
	r.UpdatedAt = now
}

// Profile identifies a connected player across runs
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
