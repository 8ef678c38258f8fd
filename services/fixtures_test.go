package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"runedeep/server/models"
)

// openMap returns a map with a wall border and floor everywhere else
func openMap(w, h int) *models.GameMap {
	m := models.NewGameMap(w, h, TileSize)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			m.Set(x, y, models.TileFloor)
		}
	}
	return m
}

func newTestWorld(seed int64) *WorldService {
	return NewWorldService(rand.New(rand.NewSource(seed)), nil, nil)
}

// arena builds a hand-made state on an open 20x20 map with the player at
// tile (5,5) facing right and nothing else in the level
func arena() *models.GameState {
	return &models.GameState{
		Player: models.Player{
			Entity: models.Entity{
				ID:     "player",
				X:      5 * TileSize,
				Y:      5 * TileSize,
				Width:  PlayerSize,
				Height: PlayerSize,
			},
			Health:    PlayerMaxHealth,
			MaxHealth: PlayerMaxHealth,
			Facing:    models.DirectionRight,
			BaseSpeed: PlayerBaseSpeed,
			Speed:     PlayerBaseSpeed,
		},
		Enemies:       []models.Enemy{},
		Projectiles:   []models.Projectile{},
		Interactables: []models.Interactable{},
		Map:           openMap(20, 20),
		Status:        models.StatusPlaying,
		Level:         1,
		Modifiers:     models.DefaultRoomModifiers(),
		Theme:         models.DefaultTheme(),
		Log:           models.NewNarrativeLog(NarrativeLogSize),
	}
}

// enemyAt places an archetype with its top-left corner at (x, y)
func enemyAt(t *testing.T, state *models.GameState, kind string, x, y float64) *models.Enemy {
	t.Helper()
	arch, ok := LookupArchetype(kind)
	require.True(t, ok, kind)
	state.Enemies = append(state.Enemies, NewEnemy(state.NextID("enemy"), arch, x, y))
	return &state.Enemies[len(state.Enemies)-1]
}

func lastLog(t *testing.T, state *models.GameState) string {
	t.Helper()
	entry, ok := state.Log.Last()
	require.True(t, ok, "log is empty")
	return entry.Message
}

func hasEvent(state *models.GameState, kind models.EventKind) bool {
	for _, e := range state.Events {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
