package services

import (
	"errors"
	"math"

	"runedeep/server/models"
)

// CommandType enumerates the discrete simulation commands
type CommandType string

const (
	CommandMove      CommandType = "move"
	CommandAttack    CommandType = "attack"
	CommandInteract  CommandType = "interact"
	CommandReset     CommandType = "reset"
	CommandSetStatus CommandType = "set_status"
	CommandDirector  CommandType = "director"
)

// ErrUnknownDirection is returned when an intent names no cardinal direction
var ErrUnknownDirection = errors.New("unknown direction")

// Command is an intent captured for processing at the start of the next step
type Command struct {
	Type      CommandType
	Direction models.Direction
	Status    models.RunStatus
	Director  *ToolCall
}

// MoveCommand builds a movement intent, validating the direction
func MoveCommand(direction string) (Command, error) {
	d := models.Direction(direction)
	if !d.Valid() {
		return Command{}, ErrUnknownDirection
	}
	return Command{Type: CommandMove, Direction: d}, nil
}

// DirectorCommand wraps a narrative tool call for queueing
func DirectorCommand(call ToolCall) Command {
	return Command{Type: CommandDirector, Director: &call}
}

// move steps the player one reference frame at current speed. Facing always
// changes, even when the step is fully blocked.
func (ws *WorldService) move(state *models.GameState, dir models.Direction) {
	if !dir.Valid() {
		return
	}
	p := &state.Player
	p.Facing = dir
	dx, dy := dir.Delta()
	slide(state.Map, &p.Entity, dx*p.Speed, dy*p.Speed)
}

// attack fires a projectile from the player's centre in the facing direction
func (ws *WorldService) attack(state *models.GameState) {
	p := &state.Player
	if p.AttackCooldown > 0 {
		return
	}

	dx, dy := p.Facing.Delta()
	if dx == 0 && dy == 0 {
		dy = 1
	}
	c := p.Center()
	state.Projectiles = append(state.Projectiles, models.Projectile{
		Entity: models.Entity{
			ID:     state.NextID("projectile"),
			X:      c.X - ProjectileSize/2,
			Y:      c.Y - ProjectileSize/2,
			Width:  ProjectileSize,
			Height: ProjectileSize,
		},
		Velocity:  models.Vec{X: dx * ProjectileSpeed, Y: dy * ProjectileSpeed},
		Damage:    int(math.Round(ProjectileDamage * p.EffectMagnitude(models.EffectStrength))),
		CreatedAt: state.Clock,
		Lifetime:  ProjectileLifetime,
	})
	p.AttackCooldown = AttackCooldown
}

// interact collects the nearest uncollected interactable in range. A portal
// may replace the whole state, so the result must be kept.
func (ws *WorldService) interact(state *models.GameState) *models.GameState {
	c := state.Player.Center()
	best := -1
	bestDist := math.Inf(1)
	for i, it := range state.Interactables {
		if it.Collected {
			continue
		}
		d := math.Hypot(it.X-c.X, it.Y-c.Y)
		if d <= it.Radius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return state
	}

	it := &state.Interactables[best]
	it.Collected = true
	if it.Type == models.InteractPortal {
		return ws.enterPortal(state, it)
	}

	ws.collect(state, it)
	return state
}

// collect applies the bookkeeping reward of a non-portal interactable
func (ws *WorldService) collect(state *models.GameState, it *models.Interactable) {
	switch it.Type {
	case models.InteractKey:
		state.Score += KeyScore
		state.Log.Append(state.Clock, "system", "You pocket an old key. (+%d score)", KeyScore)
	case models.InteractTreasure:
		gold := TreasureBase + TreasurePerLevel*state.Level
		state.Currency += gold
		state.Log.Append(state.Clock, "system", "The chest holds %d gold.", gold)
	case models.InteractScroll:
		state.Score += ScrollScore
		state.Log.Append(state.Clock, "system", "You read a crumbling scroll. (+%d score)", ScrollScore)
	case models.InteractNPC:
		state.Score += NPCScore
		state.Log.Append(state.Clock, "system", "A wanderer whispers of the portal below.")
	}
	state.Emit(models.EventItemCollected, "%s", it.Type)
	ws.recordCollection(state)
}
