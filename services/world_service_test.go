package services

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runedeep/server/models"
)

func projectileAt(state *models.GameState, x, y float64, damage int) {
	state.Projectiles = append(state.Projectiles, models.Projectile{
		Entity:    models.Entity{ID: state.NextID("projectile"), X: x, Y: y, Width: ProjectileSize, Height: ProjectileSize},
		Damage:    damage,
		CreatedAt: state.Clock,
		Lifetime:  ProjectileLifetime,
	})
}

func TestNewRun(t *testing.T) {
	ws := newTestWorld(1)
	state := ws.NewRun()

	assert.Equal(t, 1, state.Level)
	assert.Equal(t, models.StatusPlaying, state.Status)
	assert.Equal(t, models.DefaultTheme(), state.Theme)
	assert.Equal(t, models.DefaultRoomModifiers(), state.Modifiers)
	assert.Equal(t, PlayerMaxHealth, state.Player.Health)
	assert.Zero(t, state.Score)
	assert.Zero(t, state.Currency)
	assert.Nil(t, state.PendingTheme)
	assert.Equal(t, len(state.Enemies), state.EnemiesAtStart)
	assert.True(t, EntityWalkable(state.Map, state.Player.Entity))
	assert.Equal(t, 1, state.Log.Len())

	require.Len(t, state.Quests, 1)
	assert.Equal(t, models.QuestSlay, state.Quests[0].Condition)
	assert.Equal(t, state.EnemiesAtStart, state.Quests[0].Target)
}

func TestTickProjectileHit(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "orc", 10*TileSize, 5*TileSize)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)

	ws.Tick(state, ReferenceFrame)

	require.Len(t, state.Enemies, 1)
	assert.Equal(t, 70-ProjectileDamage, state.Enemies[0].Health)
	assert.Empty(t, state.Projectiles)
	assert.Zero(t, state.Score)
}

func TestTickProjectileKill(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "slime", 10*TileSize, 5*TileSize)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, 30)

	ws.Tick(state, ReferenceFrame)

	assert.Empty(t, state.Enemies)
	assert.Empty(t, state.Projectiles)
	assert.Equal(t, BaseKillScore, state.Score)
	assert.GreaterOrEqual(t, state.Currency, 1)
	assert.LessOrEqual(t, state.Currency, 5)
	assert.Equal(t, 1, state.Player.EnemiesDefeated)
	assert.True(t, hasEvent(state, models.EventEnemyDefeated))

	entry, ok := state.Log.Last()
	require.True(t, ok)
	assert.Equal(t, "combat", entry.Source)
	assert.Contains(t, entry.Message, "slime")
}

func TestTickBossKillScore(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "golem", 10*TileSize, 5*TileSize)
	state.Enemies[0].Health = 10
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)

	ws.Tick(state, ReferenceFrame)

	assert.Empty(t, state.Enemies)
	assert.Equal(t, BaseKillScore*BossScoreMultiple, state.Score)
}

func TestTickEnemyTakesOneProjectilePerTick(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "slime", 10*TileSize, 5*TileSize)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)

	ws.Tick(state, ReferenceFrame)

	require.Len(t, state.Enemies, 1)
	assert.Equal(t, 30-ProjectileDamage, state.Enemies[0].Health)
	assert.Len(t, state.Projectiles, 1, "the second projectile stays live")

	ws.Tick(state, ReferenceFrame)
	assert.Empty(t, state.Enemies)
	assert.Empty(t, state.Projectiles)
	assert.Equal(t, 1, state.Player.EnemiesDefeated)
}

func TestTickOverlappingEnemiesShareProjectiles(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "orc", 10*TileSize, 5*TileSize)
	enemyAt(t, state, "orc", 10*TileSize, 5*TileSize)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)
	projectileAt(state, 10*TileSize+8, 5*TileSize+8, ProjectileDamage)

	ws.Tick(state, ReferenceFrame)

	require.Len(t, state.Enemies, 2)
	for _, e := range state.Enemies {
		assert.Equal(t, 70-ProjectileDamage, e.Health)
	}
	assert.Len(t, state.Projectiles, 1)
}

func TestTickProjectileExpiry(t *testing.T) {
	ws := newTestWorld(1)

	t.Run("lifetime", func(t *testing.T) {
		state := arena()
		projectileAt(state, 300, 300, ProjectileDamage)
		ws.Tick(state, ProjectileLifetime)
		assert.Len(t, state.Projectiles, 1)
		ws.Tick(state, ReferenceFrame)
		assert.Empty(t, state.Projectiles)
	})

	t.Run("wall", func(t *testing.T) {
		state := arena()
		projectileAt(state, TileSize+2, 300, ProjectileDamage)
		state.Projectiles[0].Velocity = models.Vec{X: -ProjectileSpeed}
		ws.Tick(state, ReferenceFrame)
		assert.Empty(t, state.Projectiles)
	})

	t.Run("flight", func(t *testing.T) {
		state := arena()
		projectileAt(state, 300, 300, ProjectileDamage)
		state.Projectiles[0].Velocity = models.Vec{Y: ProjectileSpeed}
		ws.Tick(state, 2*ReferenceFrame)
		require.Len(t, state.Projectiles, 1)
		assert.InDelta(t, 300+2*ProjectileSpeed, state.Projectiles[0].Y, 1e-9)
	})
}

func TestTickLongStepsDoNotTunnel(t *testing.T) {
	wall := func() *models.GameState {
		state := arena()
		for y := 1; y < 19; y++ {
			state.Map.Set(10, y, models.TileWall)
		}
		return state
	}
	step := 250 * time.Millisecond

	t.Run("projectile", func(t *testing.T) {
		ws := newTestWorld(1)
		state := wall()
		projectileAt(state, 292, 5*TileSize+8, ProjectileDamage)
		state.Projectiles[0].Velocity = models.Vec{X: ProjectileSpeed}

		ws.Tick(state, step)
		assert.Empty(t, state.Projectiles)
	})

	t.Run("enemy", func(t *testing.T) {
		ws := newTestWorld(1)
		state := wall()
		ws.ApplyDirector(state, ToolCall{Name: "modify_room", Args: args("speed_multiplier", 5)})
		e := enemyAt(t, state, "slime", 12*TileSize, 5*TileSize)
		e.Aggro = true

		ws.Tick(state, step)
		require.Len(t, state.Enemies, 1)
		assert.GreaterOrEqual(t, state.Enemies[0].X, 11.0*TileSize, "crossed the wall")
		assert.True(t, EntityWalkable(state.Map, state.Enemies[0].Entity))
	})
}

func TestTickMelee(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Modifiers.DamageMultiplier = 2
	enemyAt(t, state, "slime", state.Player.X+30, state.Player.Y)

	ws.Tick(state, ReferenceFrame)

	e := state.Enemies[0]
	assert.Equal(t, PlayerMaxHealth-10, state.Player.Health)
	assert.Equal(t, 10, state.Player.DamageTaken)
	assert.Equal(t, state.Clock, state.Player.LastDamageAt)
	assert.Equal(t, state.Clock, e.LastAttackAt)
	assert.Equal(t, EnemyAttackCooldown, e.AttackCooldown)
	assert.True(t, e.Aggro)
	assert.True(t, hasEvent(state, models.EventPlayerHit))

	// on cooldown
	ws.Tick(state, ReferenceFrame)
	assert.Equal(t, PlayerMaxHealth-10, state.Player.Health)

	ws.Tick(state, EnemyAttackCooldown)
	assert.Equal(t, PlayerMaxHealth-20, state.Player.Health)
}

func TestTickMeleeWithoutDamage(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Modifiers.DamageMultiplier = 0
	enemyAt(t, state, "orc", state.Player.X+30, state.Player.Y)

	ws.Tick(state, ReferenceFrame)

	assert.Equal(t, PlayerMaxHealth, state.Player.Health)
	assert.Equal(t, state.Clock, state.Enemies[0].LastAttackAt)
}

func TestTickChase(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "slime", state.Player.X+160, state.Player.Y)
	far := enemyAt(t, state, "orc", 17*TileSize, 17*TileSize)
	farX := far.X

	ws.Tick(state, ReferenceFrame)

	assert.True(t, state.Enemies[0].Aggro)
	assert.InDelta(t, state.Player.X+160-1.2, state.Enemies[0].X, 1e-9)
	assert.False(t, state.Enemies[1].Aggro, "out of aggro range")
	assert.Equal(t, farX, state.Enemies[1].X)
}

func TestTickRoomSpeedSlowsEnemies(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Modifiers.SpeedMultiplier = 0.5
	enemyAt(t, state, "slime", state.Player.X+160, state.Player.Y)

	ws.Tick(state, ReferenceFrame)

	assert.InDelta(t, state.Player.X+160-0.6, state.Enemies[0].X, 1e-9)
	assert.InDelta(t, PlayerBaseSpeed*0.5, state.Player.Speed, 1e-9)
}

func TestTickFlee(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	enemyAt(t, state, "orc", state.Player.X+100, state.Player.Y)
	state.Enemies[0].Health = 10
	state.Enemies[0].Morale = 10
	startX := state.Enemies[0].X

	ws.Tick(state, ReferenceFrame)

	e := state.Enemies[0]
	assert.True(t, e.Fleeing)
	assert.InDelta(t, startX+1.3*FleeSpeedMultiplier, e.X, 1e-9)
	assert.Equal(t, PlayerMaxHealth, state.Player.Health, "fleeing enemies do not attack")
}

func TestTickFleeingEnemyRecoversFarAway(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Map = openMap(40, 20)
	enemyAt(t, state, "orc", 38*TileSize-EnemySize, state.Player.Y)
	state.Enemies[0].Health = 10
	state.Enemies[0].Morale = 10

	for i := 0; i < 5000 && state.Enemies[0].Morale < FleeMorale; i++ {
		ws.Tick(state, ReferenceFrame)
	}
	assert.Equal(t, MoraleRecoveredValue, state.Enemies[0].Morale)
	assert.False(t, state.Enemies[0].Fleeing)
}

func TestTickGameOver(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Player.Health = 5
	enemyAt(t, state, "slime", state.Player.X+30, state.Player.Y)
	enemyAt(t, state, "slime", state.Player.X-30, state.Player.Y)

	ws.Tick(state, ReferenceFrame)

	assert.Equal(t, 0, state.Player.Health)
	assert.Equal(t, models.StatusGameOver, state.Status)
	assert.True(t, hasEvent(state, models.EventGameOver))
	assert.Zero(t, state.Enemies[1].LastAttackAt, "processing stops once the player falls")
	assert.Zero(t, state.Enemies[1].AttackCooldown)

	clock := state.Clock
	ws.Tick(state, ReferenceFrame)
	assert.Equal(t, clock, state.Clock)
	assert.Equal(t, 0, state.Player.Health)
}

func TestTickOverkillClampsHealth(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Player.Health = 3
	enemyAt(t, state, "orc", state.Player.X+30, state.Player.Y)

	ws.Tick(state, ReferenceFrame)

	assert.Equal(t, 0, state.Player.Health)
	assert.Equal(t, 12, state.Player.DamageTaken, "damage taken counts the full hit")
}

func TestTickCooldownsAndEffects(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Player.AttackCooldown = AttackCooldown
	state.Player.Effects = []models.ActiveEffect{{Type: models.EffectSpeed, Magnitude: 2, Duration: 200 * time.Millisecond}}

	ws.Tick(state, 100*time.Millisecond)
	assert.Equal(t, AttackCooldown-100*time.Millisecond, state.Player.AttackCooldown)
	assert.InDelta(t, PlayerBaseSpeed*2, state.Player.Speed, 1e-9)

	ws.Tick(state, 150*time.Millisecond)
	assert.Equal(t, AttackCooldown-250*time.Millisecond, state.Player.AttackCooldown)
	assert.Empty(t, state.Player.Effects)
	assert.InDelta(t, PlayerBaseSpeed, state.Player.Speed, 1e-9)

	ws.Tick(state, time.Second)
	assert.Zero(t, state.Player.AttackCooldown)
}

func TestTickSkipsWhenNotPlaying(t *testing.T) {
	ws := newTestWorld(1)
	for _, status := range []models.RunStatus{models.StatusPaused, models.StatusGameOver, models.StatusVictory} {
		state := arena()
		state.Status = status
		enemyAt(t, state, "slime", state.Player.X+30, state.Player.Y)
		ws.Tick(state, time.Second)
		assert.Zero(t, state.Clock, status)
		assert.Equal(t, PlayerMaxHealth, state.Player.Health, status)
	}

	state := arena()
	ws.Tick(state, 0)
	assert.Zero(t, state.Clock)
}

func TestTickCameraFollowsPlayer(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	target := cameraTarget(state.Player)

	ws.Tick(state, 100*time.Millisecond)
	alpha := 1 - math.Exp(-CameraSmoothing*0.1)
	assert.InDelta(t, target.X*alpha, state.Camera.X, 1e-9)
	assert.InDelta(t, target.Y*alpha, state.Camera.Y, 1e-9)

	for i := 0; i < 100; i++ {
		ws.Tick(state, 100*time.Millisecond)
	}
	assert.InDelta(t, target.X, state.Camera.X, 1e-3)
	assert.InDelta(t, target.Y, state.Camera.Y, 1e-3)
}

func TestStepKeepsEntitiesOnWalkableTiles(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	directions := []models.Direction{models.DirectionUp, models.DirectionDown, models.DirectionLeft, models.DirectionRight}

	for seed := int64(1); seed <= 5; seed++ {
		ws := newTestWorld(seed)
		state := ws.NewRun()
		for step := 0; step < 600; step++ {
			var cmds []Command
			for i := rng.Intn(4); i > 0; i-- {
				cmds = append(cmds, Command{Type: CommandMove, Direction: directions[rng.Intn(len(directions))]})
			}
			if rng.Intn(5) == 0 {
				cmds = append(cmds, Command{Type: CommandAttack})
			}
			state = ws.Step(state, cmds, ReferenceFrame)

			require.True(t, EntityWalkable(state.Map, state.Player.Entity), "seed %d step %d", seed, step)
			for _, e := range state.Enemies {
				require.True(t, EntityWalkable(state.Map, e.Entity), "seed %d step %d %s", seed, step, e.ID)
				require.LessOrEqual(t, e.Health, e.MaxHealth)
			}
			require.GreaterOrEqual(t, state.Player.Health, 0)
			require.LessOrEqual(t, state.Player.Health, state.Player.MaxHealth)
			require.GreaterOrEqual(t, state.Player.AttackCooldown, time.Duration(0))
			if state.Status != models.StatusPlaying {
				break
			}
		}
	}
}

func TestStepClearsEvents(t *testing.T) {
	ws := newTestWorld(1)
	state := arena()
	state.Emit(models.EventPlayerHit, "stale")

	state = ws.Step(state, []Command{DirectorCommand(ToolCall{Name: "grant_loot"})}, ReferenceFrame)

	require.Len(t, state.Events, 1)
	assert.Equal(t, models.EventDirectorApplied, state.Events[0].Kind)
	assert.Equal(t, ReferenceFrame, state.Clock)
}
