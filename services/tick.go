package services

import (
	"math"
	"time"

	"runedeep/server/models"
)

// Tick advances continuous simulation by dt. Nothing happens unless the run
// is playing.
func (ws *WorldService) Tick(state *models.GameState, dt time.Duration) {
	if state.Status != models.StatusPlaying || dt <= 0 {
		return
	}
	state.Clock += dt
	frames := float64(dt) / float64(ReferenceFrame)

	ws.expireEffects(state)
	decayCooldowns(state, dt)
	advanceProjectiles(state, frames)
	ws.resolveHits(state)
	ws.runEnemies(state, frames)

	if state.Player.Health <= 0 {
		state.Player.Health = 0
		state.Status = models.StatusGameOver
		state.Log.Append(state.Clock, "system", "You have fallen on level %d.", state.Level)
		state.Emit(models.EventGameOver, "level %d score %d", state.Level, state.Score)
		return
	}

	followCamera(state, dt)
	ws.syncQuests(state)
}

// expireEffects drops finished effects and recomputes derived player speed
func (ws *WorldService) expireEffects(state *models.GameState) {
	p := &state.Player
	kept := p.Effects[:0]
	for _, e := range p.Effects {
		if !e.Expired(state.Clock) {
			kept = append(kept, e)
		}
	}
	p.Effects = kept
	p.Speed = p.BaseSpeed * p.EffectMagnitude(models.EffectSpeed) * state.Modifiers.SpeedMultiplier
}

func decayCooldowns(state *models.GameState, dt time.Duration) {
	state.Player.AttackCooldown = decay(state.Player.AttackCooldown, dt)
	for i := range state.Enemies {
		state.Enemies[i].AttackCooldown = decay(state.Enemies[i].AttackCooldown, dt)
	}
}

func decay(v, dt time.Duration) time.Duration {
	if v -= dt; v < 0 {
		return 0
	}
	return v
}

// advanceProjectiles moves projectiles and rebuilds the list without expired
// ones or ones that struck a wall
func advanceProjectiles(state *models.GameState, frames float64) {
	live := make([]models.Projectile, 0, len(state.Projectiles))
	for _, p := range state.Projectiles {
		if state.Clock-p.CreatedAt > p.Lifetime {
			continue
		}
		if !sweep(state.Map, &p.Entity, p.Velocity.X*frames, p.Velocity.Y*frames) {
			continue
		}
		live = append(live, p)
	}
	state.Projectiles = live
}

// resolveHits matches projectiles to enemies in enemy order. Each enemy takes
// at most the first overlapping projectile still live, and each projectile
// lands at most once. Both lists are rebuilt rather than spliced.
func (ws *WorldService) resolveHits(state *models.GameState) {
	if len(state.Projectiles) == 0 || len(state.Enemies) == 0 {
		return
	}

	spent := make([]bool, len(state.Projectiles))
	survivors := make([]models.Enemy, 0, len(state.Enemies))
	for _, e := range state.Enemies {
		for j, p := range state.Projectiles {
			if spent[j] || !e.Overlaps(p.Entity) {
				continue
			}
			spent[j] = true
			e.Health -= max(p.Damage, 0)
			break
		}
		if e.Health <= 0 {
			ws.defeat(state, e)
			continue
		}
		survivors = append(survivors, e)
	}

	live := make([]models.Projectile, 0, len(state.Projectiles))
	for j, p := range state.Projectiles {
		if !spent[j] {
			live = append(live, p)
		}
	}
	state.Enemies = survivors
	state.Projectiles = live
}

// defeat awards score and a currency drop for a slain enemy
func (ws *WorldService) defeat(state *models.GameState, e models.Enemy) {
	score := BaseKillScore
	if e.Boss {
		score *= BossScoreMultiple
	}
	tier := max(e.Tier, 1)
	gold := tier * (1 + ws.rng.Intn(5))

	state.Score += score
	state.Currency += gold
	state.Player.EnemiesDefeated++
	state.Log.Append(state.Clock, "combat", "The %s falls. (+%d score, +%d gold)", e.Name, score, gold)
	state.Emit(models.EventEnemyDefeated, "%s", e.ID)
}

// runEnemies applies aggro, flee and chase behaviour and melee attacks
func (ws *WorldService) runEnemies(state *models.GameState, frames float64) {
	p := &state.Player
	for i := range state.Enemies {
		if p.Health <= 0 {
			return
		}
		e := &state.Enemies[i]
		pc, ec := p.Center(), e.Center()
		dx, dy := pc.X-ec.X, pc.Y-ec.Y
		dist := math.Hypot(dx, dy)

		if dist < AggroRadius {
			e.Aggro = true
		}

		step := e.Speed * frames * state.Modifiers.SpeedMultiplier
		if e.Morale < FleeMorale && float64(e.Health) < FleeHealthFraction*float64(e.MaxHealth) {
			e.Fleeing = true
			if dist > 0 {
				step *= FleeSpeedMultiplier
				slide(state.Map, &e.Entity, -dx/dist*step, -dy/dist*step)
			}
			if dist > MoraleRecoveryDistance && ws.rng.Float64() < MoraleRecoveryChance {
				e.Morale = MoraleRecoveredValue
				e.Fleeing = false
			}
			continue
		}
		e.Fleeing = false
		if !e.Aggro {
			continue
		}

		if dist > MeleeRange/2 {
			step = math.Min(step, dist-MeleeRange/2)
			slide(state.Map, &e.Entity, dx/dist*step, dy/dist*step)
		}

		if dist <= MeleeRange && e.AttackCooldown <= 0 {
			strike(state, e)
		}
	}
}

// strike applies one melee hit from e to the player
func strike(state *models.GameState, e *models.Enemy) {
	p := &state.Player
	dmg := int(math.Round(float64(e.Damage) * state.Modifiers.DamageMultiplier))
	if dmg < 0 {
		dmg = 0
	}
	p.Health -= dmg
	if p.Health < 0 {
		p.Health = 0
	}
	p.LastDamageAt = state.Clock
	p.DamageTaken += dmg

	e.AttackCooldown = EnemyAttackCooldown
	e.LastAttackAt = state.Clock
	state.Emit(models.EventPlayerHit, "%s hits for %d", e.ID, dmg)
}

func cameraTarget(p models.Player) models.Vec {
	c := p.Center()
	return models.Vec{X: c.X - ViewportWidth/2, Y: c.Y - ViewportHeight/2}
}

// followCamera eases the camera toward the player with exponential smoothing
func followCamera(state *models.GameState, dt time.Duration) {
	target := cameraTarget(state.Player)
	alpha := 1 - math.Exp(-CameraSmoothing*dt.Seconds())
	state.Camera.X += (target.X - state.Camera.X) * alpha
	state.Camera.Y += (target.Y - state.Camera.Y) * alpha
}
