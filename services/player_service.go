package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"runedeep/server/models"
	"runedeep/server/persistence"
)

// ErrInvalidUsername is returned for empty or oversized usernames
var ErrInvalidUsername = errors.New("invalid username")

const maxUsernameLength = 32

// PlayerService manages player profiles and run records
type PlayerService struct {
	players map[string]*models.Profile // keyed by username
	db      persistence.Storage
	mutex   sync.RWMutex
	now     func() time.Time
}

// NewPlayerService creates a new player service
func NewPlayerService(db persistence.Storage) *PlayerService {
	return &PlayerService{
		players: make(map[string]*models.Profile),
		db:      db,
		now:     time.Now,
	}
}

// GetOrCreatePlayer gets an existing profile or creates a new one
func (ps *PlayerService) GetOrCreatePlayer(username string) (*models.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength {
		return nil, ErrInvalidUsername
	}

	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	if profile, exists := ps.players[username]; exists {
		return profile, nil
	}

	profile, err := ps.db.LoadProfileByUsername(username)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile %s: %w", username, err)
		}
		profile = &models.Profile{
			ID:        uuid.NewString(),
			Username:  username,
			CreatedAt: ps.now(),
		}
		if err := ps.db.SaveProfile(profile); err != nil {
			return nil, fmt.Errorf("failed to save profile %s: %w", username, err)
		}
	}
	ps.players[username] = profile
	return profile, nil
}

// Run returns a stored run record
func (ps *PlayerService) Run(runID string) (*models.RunRecord, error) {
	return ps.db.LoadRun(runID)
}

// Level returns the stored map of one level of a run
func (ps *PlayerService) Level(runID string, level int) (*models.GameMap, error) {
	return ps.db.LoadLevel(runID, level)
}

// StartRun creates and persists a record for a new run
func (ps *PlayerService) StartRun(profile *models.Profile, seed int64, state *models.GameState) (*models.RunRecord, error) {
	now := ps.now()
	run := &models.RunRecord{
		ID:        models.NewRunID(now),
		PlayerID:  profile.ID,
		Username:  profile.Username,
		Seed:      seed,
		CreatedAt: now,
	}
	if err := ps.Checkpoint(run, state); err != nil {
		return nil, err
	}
	return run, nil
}

// Checkpoint stores the run summary and the current level's map
func (ps *PlayerService) Checkpoint(run *models.RunRecord, state *models.GameState) error {
	run.Checkpoint(state, ps.now())
	if err := ps.db.SaveRun(run); err != nil {
		return fmt.Errorf("failed to checkpoint run %s: %w", run.ID, err)
	}
	if state.Map != nil {
		if err := ps.db.SaveLevel(run.ID, state.Level, state.Map); err != nil {
			return fmt.Errorf("failed to save level %d of run %s: %w", state.Level, run.ID, err)
		}
	}
	return nil
}

// Leaderboard returns the best runs
func (ps *PlayerService) Leaderboard(limit int) ([]*models.RunRecord, error) {
	runs, err := ps.db.TopRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return runs, nil
}
