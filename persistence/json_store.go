package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"runedeep/server/models"
)

// JSONStore handles data persistence using a local JSON file
type JSONStore struct {
	filePath  string
	mutex     sync.RWMutex
	fileMutex sync.Mutex // serializes snapshot and write
	data      *JSONData
}

// JSONData represents the structure of the JSON database
type JSONData struct {
	Profiles map[string]*models.Profile   `json:"profiles"`
	Runs     map[string]*models.RunRecord `json:"runs"`
	Levels   map[string]*models.GameMap   `json:"levels"`
}

// NewJSONStore creates a new JSON storage manager
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data: &JSONData{
			Profiles: make(map[string]*models.Profile),
			Runs:     make(map[string]*models.RunRecord),
			Levels:   make(map[string]*models.GameMap),
		},
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %w", err)
		}
	} else {
		if err := store.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %w", err)
		}
	}

	return store, nil
}

// loadFromFile loads data from the JSON file
func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Profiles == nil {
		js.data.Profiles = make(map[string]*models.Profile)
	}
	if js.data.Runs == nil {
		js.data.Runs = make(map[string]*models.RunRecord)
	}
	if js.data.Levels == nil {
		js.data.Levels = make(map[string]*models.GameMap)
	}
	return nil
}

// saveToFile writes a snapshot to a temporary file and renames it over the
// database so readers never see a partial write
func (js *JSONStore) saveToFile() error {
	js.fileMutex.Lock()
	defer js.fileMutex.Unlock()

	js.mutex.RLock()
	data, err := json.MarshalIndent(js.data, "", "  ")
	js.mutex.RUnlock()
	if err != nil {
		return err
	}

	tmp := js.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, js.filePath)
}

// SaveProfile saves a player profile to the store
func (js *JSONStore) SaveProfile(profile *models.Profile) error {
	record := *profile
	js.mutex.Lock()
	js.data.Profiles[profile.ID] = &record
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadProfileByUsername loads a player profile by username
func (js *JSONStore) LoadProfileByUsername(username string) (*models.Profile, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	for _, profile := range js.data.Profiles {
		if profile.Username == username {
			record := *profile
			return &record, nil
		}
	}
	return nil, fmt.Errorf("profile %s: %w", username, ErrNotFound)
}

// SaveRun saves a run record to the store
func (js *JSONStore) SaveRun(run *models.RunRecord) error {
	record := *run
	js.mutex.Lock()
	js.data.Runs[run.ID] = &record
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadRun loads a run record by ID
func (js *JSONStore) LoadRun(runID string) (*models.RunRecord, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	run, exists := js.data.Runs[runID]
	if !exists {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}

	record := *run
	return &record, nil
}

// TopRuns returns the highest scoring runs, best first
func (js *JSONStore) TopRuns(limit int) ([]*models.RunRecord, error) {
	js.mutex.RLock()
	runs := make([]*models.RunRecord, 0, len(js.data.Runs))
	for _, run := range js.data.Runs {
		record := *run
		runs = append(runs, &record)
	}
	js.mutex.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Score != runs[j].Score {
			return runs[i].Score > runs[j].Score
		}
		return runs[i].ID < runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// SaveLevel saves a generated level map to the store
func (js *JSONStore) SaveLevel(runID string, level int, gameMap *models.GameMap) error {
	js.mutex.Lock()
	js.data.Levels[levelKey(runID, level)] = gameMap.Clone()
	js.mutex.Unlock()

	return js.saveToFile()
}

// LoadLevel loads a generated level map
func (js *JSONStore) LoadLevel(runID string, level int) (*models.GameMap, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	gameMap, exists := js.data.Levels[levelKey(runID, level)]
	if !exists {
		return nil, fmt.Errorf("level %d of run %s: %w", level, runID, ErrNotFound)
	}

	return gameMap.Clone(), nil
}

// Close closes the store (no-op for JSON store)
func (js *JSONStore) Close() error {
	return nil
}

func levelKey(runID string, level int) string {
	return fmt.Sprintf("%s/%d", runID, level)
}
