package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"runedeep/server/models"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresStore handles database operations using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL storage manager
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema initializes the database schema
func (dm *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		username TEXT NOT NULL,
		seed BIGINT NOT NULL,
		level INTEGER NOT NULL,
		score INTEGER NOT NULL,
		currency INTEGER NOT NULL,
		status TEXT NOT NULL,
		theme TEXT NOT NULL,
		damage_taken INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS runs_score_idx ON runs (score DESC);

	CREATE TABLE IF NOT EXISTS levels (
		run_id TEXT REFERENCES runs(id) ON DELETE CASCADE,
		level INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tile_size INTEGER NOT NULL,
		map JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(run_id, level)
	);
	`

	_, err := dm.db.Exec(schema)
	return err
}

// SaveProfile saves a player profile to the database
func (dm *PostgresStore) SaveProfile(profile *models.Profile) error {
	query := `
	INSERT INTO players (id, username, created_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (id)
	DO UPDATE SET username = $2
	`

	if _, err := dm.db.Exec(query, profile.ID, profile.Username, profile.CreatedAt); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfileByUsername loads a player profile from the database by username
func (dm *PostgresStore) LoadProfileByUsername(username string) (*models.Profile, error) {
	query := `SELECT id, username, created_at FROM players WHERE username = $1`

	var profile models.Profile
	err := dm.db.QueryRow(query, username).Scan(&profile.ID, &profile.Username, &profile.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", username, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	return &profile, nil
}

// SaveRun saves a run record to the database
func (dm *PostgresStore) SaveRun(run *models.RunRecord) error {
	query := `
	INSERT INTO runs (id, player_id, username, seed, level, score, currency, status, theme, damage_taken, kills, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id)
	DO UPDATE SET
		level = $5, score = $6, currency = $7, status = $8, theme = $9,
		damage_taken = $10, kills = $11, updated_at = $13
	`

	_, err := dm.db.Exec(query,
		run.ID, run.PlayerID, run.Username, run.Seed, run.Level,
		run.Score, run.Currency, string(run.Status), run.Theme,
		run.DamageTaken, run.Kills, run.CreatedAt, run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

const runColumns = `id, player_id, username, seed, level, score, currency, status, theme, damage_taken, kills, created_at, updated_at`

func scanRun(row interface{ Scan(...interface{}) error }) (*models.RunRecord, error) {
	var run models.RunRecord
	var status string
	err := row.Scan(
		&run.ID, &run.PlayerID, &run.Username, &run.Seed, &run.Level,
		&run.Score, &run.Currency, &status, &run.Theme,
		&run.DamageTaken, &run.Kills, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	return &run, nil
}

// LoadRun loads a run record from the database by ID
func (dm *PostgresStore) LoadRun(runID string) (*models.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`

	run, err := scanRun(dm.db.QueryRow(query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load run: %w", err)
	}

	return run, nil
}

// TopRuns returns the highest scoring runs, best first
func (dm *PostgresStore) TopRuns(limit int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY score DESC, id ASC LIMIT $1`

	rows, err := dm.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveLevel saves a generated level map to the database
func (dm *PostgresStore) SaveLevel(runID string, level int, gameMap *models.GameMap) error {
	mapJSON, err := json.Marshal(gameMap)
	if err != nil {
		return fmt.Errorf("failed to marshal level map: %w", err)
	}

	query := `
	INSERT INTO levels (run_id, level, width, height, tile_size, map)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id, level)
	DO UPDATE SET
		width = $3, height = $4, tile_size = $5, map = $6
	`

	_, err = dm.db.Exec(query,
		runID, level, gameMap.Width, gameMap.Height, gameMap.TileSize,
		string(mapJSON))

	if err != nil {
		return fmt.Errorf("failed to save level: %w", err)
	}

	return nil
}

// LoadLevel loads a generated level map from the database
func (dm *PostgresStore) LoadLevel(runID string, level int) (*models.GameMap, error) {
	query := `SELECT map FROM levels WHERE run_id = $1 AND level = $2`

	var mapJSON string
	err := dm.db.QueryRow(query, runID, level).Scan(&mapJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("level %d of run %s: %w", level, runID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load level: %w", err)
	}

	var gameMap models.GameMap
	if err := json.Unmarshal([]byte(mapJSON), &gameMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal level map: %w", err)
	}

	return &gameMap, nil
}

// Close closes the database connection
func (dm *PostgresStore) Close() error {
	log.Println("Closing database connection...")
	return dm.db.Close()
}
