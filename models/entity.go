package models

import "time"

// Direction is a cardinal facing
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Delta returns the unit vector for the direction
func (d Direction) Delta() (float64, float64) {
	switch d {
	case DirectionUp:
		return 0, -1
	case DirectionDown:
		return 0, 1
	case DirectionLeft:
		return -1, 0
	case DirectionRight:
		return 1, 0
	default:
		return 0, 0
	}
}

// Valid reports whether d is one of the four cardinal directions
func (d Direction) Valid() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// Vec is a position or velocity in pixels
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity is the positioned, axis-aligned box shared by every actor.
// X and Y are the top-left corner in pixels.
type Entity struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre of the bounding box
func (e Entity) Center() Vec {
	return Vec{X: e.X + e.Width/2, Y: e.Y + e.Height/2}
}

// Overlaps reports whether two bounding boxes intersect
func (e Entity) Overlaps(o Entity) bool {
	return e.X < o.X+o.Width &&
		e.X+e.Width > o.X &&
		e.Y < o.Y+o.Height &&
		e.Y+e.Height > o.Y
}

// EffectType names a timed player buff
type EffectType string

const (
	EffectSpeed    EffectType = "speed"
	EffectStrength EffectType = "strength"
)

// ActiveEffect is a time-bounded modifier on the player
type ActiveEffect struct {
	Type      EffectType    `json:"type"`
	Magnitude float64       `json:"magnitude"`
	StartedAt time.Duration `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Expired reports whether the effect has outlived its duration at clock
func (a ActiveEffect) Expired(clock time.Duration) bool {
	return clock-a.StartedAt > a.Duration
}

// Player is the controlled character
type Player struct {
	Entity
	Health          int            `json:"health"`
	MaxHealth       int            `json:"max_health"`
	Facing          Direction      `json:"facing"`
	AttackCooldown  time.Duration  `json:"attack_cooldown"`
	BaseSpeed       float64        `json:"base_speed"`
	Speed           float64        `json:"speed"`
	Effects         []ActiveEffect `json:"effects"`
	LastDamageAt    time.Duration  `json:"last_damage_at"`
	DamageTaken     int            `json:"damage_taken"`
	EnemiesDefeated int            `json:"enemies_defeated"`
}

// EffectMagnitude returns the magnitude of the first active effect of type t, or 1
func (p *Player) EffectMagnitude(t EffectType) float64 {
	for _, e := range p.Effects {
		if e.Type == t {
			return e.Magnitude
		}
	}
	return 1
}

// Enemy is a hostile actor driven by the simulation AI
type Enemy struct {
	Entity
	Name           string        `json:"name"`
	Kind           string        `json:"kind"`
	Tier           int           `json:"tier"`
	Boss           bool          `json:"boss"`
	Health         int           `json:"health"`
	MaxHealth      int           `json:"max_health"`
	Speed          float64       `json:"speed"`
	Damage         int           `json:"damage"`
	Morale         int           `json:"morale"`
	Aggro          bool          `json:"aggro"`
	Fleeing        bool          `json:"fleeing"`
	AttackCooldown time.Duration `json:"attack_cooldown"`
	LastAttackAt   time.Duration `json:"last_attack_at"`
}

// Projectile is a player-fired bolt
type Projectile struct {
	Entity
	Velocity  Vec           `json:"velocity"` // px per reference frame
	Damage    int           `json:"damage"`
	CreatedAt time.Duration `json:"created_at"`
	Lifetime  time.Duration `json:"lifetime"`
}

// InteractableType enumerates milestone kinds
type InteractableType string

const (
	InteractKey      InteractableType = "key"
	InteractTreasure InteractableType = "treasure"
	InteractScroll   InteractableType = "scroll"
	InteractPortal   InteractableType = "portal"
	InteractNPC      InteractableType = "npc"
)

// Interactable is a collectible or triggerable map object
type Interactable struct {
	ID        string           `json:"id"`
	X         float64          `json:"x"` // centre, pixels
	Y         float64          `json:"y"`
	Type      InteractableType `json:"type"`
	Collected bool             `json:"collected"`
	Radius    float64          `json:"radius"`
}
