package services

import "time"

// Map geometry
const (
	TileSize  = 32
	MapWidth  = 60
	MapHeight = 45

	RoomPadding  = 1
	MaxRooms     = 10
	BaseRooms    = 4
	BossMinLevel = 5

	InteractableChance = 0.6
	InteractionRadius  = 48.0
)

// Timing. Speeds are pixels per reference frame; a tick of Δt advances
// Δt/ReferenceFrame frames.
const (
	ReferenceFrame  = time.Second / 60
	CameraSmoothing = 8.0 // per second
	ViewportWidth   = 800.0
	ViewportHeight  = 600.0
)

// Player
const (
	PlayerSize      = 24.0
	PlayerMaxHealth = 100
	PlayerBaseSpeed = 4.0
	AttackCooldown  = 400 * time.Millisecond
)

// Projectiles
const (
	ProjectileSpeed    = 8.0
	ProjectileDamage   = 25
	ProjectileLifetime = 1500 * time.Millisecond
	ProjectileSize     = 8.0
)

// Enemy behaviour
const (
	EnemySize           = 24.0
	BossSize            = 40.0
	AggroRadius         = 250.0
	MeleeRange          = 40.0
	EnemyAttackCooldown = time.Second

	FleeMorale             = 30
	FleeHealthFraction     = 0.3
	FleeSpeedMultiplier    = 1.5
	MoraleRecoveryChance   = 0.02
	MoraleRecoveryDistance = AggroRadius * 1.5
	MoraleRecoveredValue   = 60
)

// Scoring and economy
const (
	BaseKillScore      = 100
	BossScoreMultiple  = 5
	LevelClearBonus    = 500
	SocialSuccessBonus = 200
	EscalationSpeed    = 1.25
	MaxEnemySpeed      = 4.4
	NarrativeLogSize   = 50
)

// Interactable rewards
const (
	KeyScore          = 25
	ScrollScore       = 50
	NPCScore          = 10
	TreasureBase      = 15
	TreasurePerLevel  = 5
	DefaultEffectTime = 5 * time.Second
)

// Archetype describes an enemy template
type Archetype struct {
	Kind        string
	Health      int
	Speed       float64
	Damage      int
	Tier        int
	Morale      int
	UnlockLevel int
	Boss        bool
}

// Archetypes lists regular enemies in unlock order
var Archetypes = []Archetype{
	{Kind: "slime", Health: 30, Speed: 1.2, Damage: 5, Tier: 1, Morale: 40, UnlockLevel: 1},
	{Kind: "bat", Health: 20, Speed: 2.2, Damage: 4, Tier: 1, Morale: 30, UnlockLevel: 2},
	{Kind: "skeleton", Health: 45, Speed: 1.5, Damage: 8, Tier: 2, Morale: 60, UnlockLevel: 3},
	{Kind: "orc", Health: 70, Speed: 1.3, Damage: 12, Tier: 2, Morale: 80, UnlockLevel: 4},
	{Kind: "wraith", Health: 55, Speed: 1.9, Damage: 10, Tier: 3, Morale: 50, UnlockLevel: 6},
}

// BossArchetypes are boss-tier templates
var BossArchetypes = []Archetype{
	{Kind: "golem", Health: 300, Speed: 1.0, Damage: 20, Tier: 5, Morale: 100, UnlockLevel: BossMinLevel, Boss: true},
	{Kind: "dragon", Health: 450, Speed: 1.4, Damage: 28, Tier: 6, Morale: 100, UnlockLevel: 8, Boss: true},
	{Kind: "lich", Health: 360, Speed: 1.2, Damage: 24, Tier: 6, Morale: 100, UnlockLevel: 7, Boss: true},
}

// LootTiers maps rarity to currency granted
var LootTiers = map[string]int{
	"common":    10,
	"uncommon":  25,
	"rare":      50,
	"epic":      100,
	"legendary": 250,
}

// DefaultArchetype is used when a requested kind is unknown
const DefaultArchetype = "slime"

// DefaultRarity is used when a requested rarity is unknown
const DefaultRarity = "common"

// LookupArchetype finds a regular or boss archetype by kind
func LookupArchetype(kind string) (Archetype, bool) {
	for _, a := range Archetypes {
		if a.Kind == kind {
			return a, true
		}
	}
	for _, a := range BossArchetypes {
		if a.Kind == kind {
			return a, true
		}
	}
	return Archetype{}, false
}
