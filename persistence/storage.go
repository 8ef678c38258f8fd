package persistence

import (
	"errors"

	"runedeep/server/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data persistence
type Storage interface {
	SaveProfile(profile *models.Profile) error
	LoadProfileByUsername(username string) (*models.Profile, error)
	SaveRun(run *models.RunRecord) error
	LoadRun(runID string) (*models.RunRecord, error)
	TopRuns(limit int) ([]*models.RunRecord, error)
	SaveLevel(runID string, level int, gameMap *models.GameMap) error
	LoadLevel(runID string, level int) (*models.GameMap, error)
	Close() error
}
