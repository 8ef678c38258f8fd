package services

import (
	"fmt"
	"math/rand"
	"time"

	"runedeep/server/models"
)

// ThemeLookup resolves named theme presets for the director
type ThemeLookup interface {
	Theme(name string) (models.Theme, bool)
}

// WorldService is the simulation core. It owns no state of its own beyond the
// random source and the generator: every operation takes the GameState it
// mutates and returns the state the caller should keep, which differs from the
// input only when a level is replaced wholesale.
//
// A WorldService is not safe for concurrent use; the host drives each run from
// a single goroutine.
type WorldService struct {
	generator *MapGenerator
	rng       *rand.Rand
	presets   ThemeLookup
}

// NewWorldService creates a simulation core. A nil presets disables named themes.
func NewWorldService(rng *rand.Rand, generator *MapGenerator, presets ThemeLookup) *WorldService {
	if generator == nil {
		generator = NewMapGenerator(MapWidth, MapHeight, TileSize)
	}
	return &WorldService{
		generator: generator,
		rng:       rng,
		presets:   presets,
	}
}

// NewRun builds level 1 with the default theme and empty purse
func (ws *WorldService) NewRun() *models.GameState {
	state := ws.newLevel(1, models.DefaultTheme(), nil)
	state.Log.Append(state.Clock, "system", "You descend into the %s. Level 1.", state.Theme.Name)
	return state
}

// newLevel constructs a fresh GameState for the given level. Progress that
// belongs to the run rather than the level is copied from prev when set.
func (ws *WorldService) newLevel(level int, theme models.Theme, prev *models.GameState) *models.GameState {
	theme = SanitizeTheme(theme)
	state := &models.GameState{
		Status:        models.StatusPlaying,
		Level:         level,
		Modifiers:     models.DefaultRoomModifiers(),
		Theme:         theme,
		Log:           models.NewNarrativeLog(NarrativeLogSize),
		Enemies:       []models.Enemy{},
		Projectiles:   []models.Projectile{},
		Interactables: []models.Interactable{},
		Quests:        []models.Quest{},
	}

	generated := ws.generator.Generate(ws.rng, state, level, theme)
	state.Map = generated.Map
	state.Enemies = append(state.Enemies, generated.Enemies...)
	state.Interactables = append(state.Interactables, generated.Interactables...)
	state.EnemiesAtStart = len(state.Enemies)
	state.Player = models.Player{
		Entity: models.Entity{
			ID:     "player",
			X:      generated.Spawn.X,
			Y:      generated.Spawn.Y,
			Width:  PlayerSize,
			Height: PlayerSize,
		},
		Health:    PlayerMaxHealth,
		MaxHealth: PlayerMaxHealth,
		Facing:    models.DirectionDown,
		BaseSpeed: PlayerBaseSpeed,
		Speed:     PlayerBaseSpeed,
		Effects:   []models.ActiveEffect{},
	}
	state.Camera = cameraTarget(state.Player)

	if prev != nil {
		state.Score = prev.Score
		state.Currency = prev.Currency
		state.Player.EnemiesDefeated = prev.Player.EnemiesDefeated
		state.Player.DamageTaken = prev.Player.DamageTaken
		state.Log = prev.Log
		state.Events = prev.Events
	}

	state.Quests = append(state.Quests, models.Quest{
		ID:        state.NextID("quest"),
		Title:     fmt.Sprintf("Purge level %d", level),
		Condition: models.QuestSlay,
		Target:    state.EnemiesAtStart,
		Baseline:  state.EnemiesAtStart,
	})
	return state
}

// Step drains the queued commands in order, then advances the simulation by
// dt. The returned state replaces the caller's state.
func (ws *WorldService) Step(state *models.GameState, commands []Command, dt time.Duration) *models.GameState {
	state.Events = nil
	for _, cmd := range commands {
		state = ws.Apply(state, cmd)
	}
	ws.Tick(state, dt)
	return state
}

// Apply executes one discrete command. Everything except Reset and SetStatus
// is ignored unless the run is playing.
func (ws *WorldService) Apply(state *models.GameState, cmd Command) *models.GameState {
	switch cmd.Type {
	case CommandReset:
		return ws.NewRun()
	case CommandSetStatus:
		if cmd.Status.Valid() {
			state.Status = cmd.Status
		}
		return state
	}

	if state.Status != models.StatusPlaying {
		return state
	}

	switch cmd.Type {
	case CommandMove:
		ws.move(state, cmd.Direction)
	case CommandAttack:
		ws.attack(state)
	case CommandInteract:
		return ws.interact(state)
	case CommandDirector:
		if cmd.Director != nil {
			ws.ApplyDirector(state, *cmd.Director)
		}
	}
	return state
}
