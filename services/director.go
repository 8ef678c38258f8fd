package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"runedeep/server/models"
)

// ToolCall is the raw output of the narrative service: a command name and a
// JSON-shaped argument bag
type ToolCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// DirectorAction is a validated director command. Implementations are the
// closed set below; every field has already been defaulted.
type DirectorAction interface {
	Name() string
	apply(ws *WorldService, state *models.GameState)
}

// SpawnEntity places a new, already aggroed enemy
type SpawnEntity struct {
	Kind     string
	Label    string
	Absolute bool
	X, Y     float64 // absolute top-left, or offset from the player when !Absolute
}

// GrantLoot adds currency by rarity tier
type GrantLoot struct {
	Rarity string
	Item   string
}

// ModifyRoom overwrites the fields that are set
type ModifyRoom struct {
	Speed      *float64
	Damage     *float64
	Visibility *float64
	Gravity    *float64
	Atmosphere *string
}

// SocialInteraction de-escalates or escalates every enemy
type SocialInteraction struct {
	Success bool
	With    string
}

// CreateQuest appends a quest at zero progress
type CreateQuest struct {
	Quest models.Quest
}

// SetTheme stores the theme for the next level
type SetTheme struct {
	Theme models.Theme
}

// ApplyEffect grants a timed player effect
type ApplyEffect struct {
	Effect    models.EffectType
	Magnitude float64
	Duration  time.Duration
}

// UnknownCommand is any tool call outside the supported set
type UnknownCommand struct {
	Raw string
}

func (SpawnEntity) Name() string       { return "spawn_entity" }
func (GrantLoot) Name() string         { return "grant_loot" }
func (ModifyRoom) Name() string        { return "modify_room" }
func (SocialInteraction) Name() string { return "social_interaction" }
func (CreateQuest) Name() string       { return "create_quest" }
func (SetTheme) Name() string          { return "set_theme" }
func (ApplyEffect) Name() string       { return "apply_effect" }
func (UnknownCommand) Name() string    { return "unknown" }

// ApplyDirector parses and applies one tool call. It never fails; malformed
// arguments are replaced field by field with defaults and a log entry is
// always written.
func (ws *WorldService) ApplyDirector(state *models.GameState, call ToolCall) {
	action := ws.ParseToolCall(call)
	action.apply(ws, state)
	state.Emit(models.EventDirectorApplied, "%s", action.Name())
}

// ParseToolCall validates a raw tool call into a DirectorAction
func (ws *WorldService) ParseToolCall(call ToolCall) DirectorAction {
	args := argBag(call.Args)
	switch strings.ToLower(strings.TrimSpace(call.Name)) {
	case "spawn_entity":
		return parseSpawn(args)
	case "grant_loot":
		return GrantLoot{
			Rarity: lootRarity(args.str("", "rarity", "tier")),
			Item:   args.str("a pouch of coins", "item", "name"),
		}
	case "modify_room":
		return parseModifyRoom(args)
	case "social_interaction":
		return SocialInteraction{
			Success: args.boolean(false, "success", "succeeded"),
			With:    args.str("the creatures", "npc", "target", "with"),
		}
	case "create_quest":
		return parseQuest(args)
	case "set_theme":
		return SetTheme{Theme: ws.parseTheme(args)}
	case "apply_effect":
		return parseEffect(args)
	default:
		return UnknownCommand{Raw: call.Name}
	}
}

func parseSpawn(args argBag) SpawnEntity {
	kind := strings.ToLower(args.str(DefaultArchetype, "type", "kind", "entity_type", "archetype"))
	if kind == "boss" {
		kind = BossArchetypes[0].Kind
	}
	if _, ok := LookupArchetype(kind); !ok {
		kind = DefaultArchetype
	}

	s := SpawnEntity{Kind: kind, Label: args.str(kind, "name", "label")}
	x, okX := args.num("x")
	y, okY := args.num("y")
	if okX && okY {
		s.Absolute, s.X, s.Y = true, x, y
		return s
	}
	s.X = args.numOr(3*TileSize, "offset_x", "dx")
	s.Y = args.numOr(0, "offset_y", "dy")
	return s
}

func lootRarity(r string) string {
	r = strings.ToLower(strings.TrimSpace(r))
	if _, ok := LootTiers[r]; ok {
		return r
	}
	return DefaultRarity
}

func parseModifyRoom(args argBag) ModifyRoom {
	var m ModifyRoom
	if v, ok := args.num("speed_multiplier", "speed"); ok {
		v = clampFloat(v, 0.1, 5)
		m.Speed = &v
	}
	if v, ok := args.num("damage_multiplier", "damage"); ok {
		v = clampFloat(v, 0, 5)
		m.Damage = &v
	}
	if v, ok := args.num("visibility"); ok {
		v = clampFloat(v, 0, 1)
		m.Visibility = &v
	}
	if v, ok := args.num("gravity"); ok {
		v = clampFloat(v, 0, 5)
		m.Gravity = &v
	}
	if v, ok := args.lookup("atmosphere", "mood"); ok {
		if s, ok := v.(string); ok && s != "" {
			m.Atmosphere = &s
		}
	}
	return m
}

func parseQuest(args argBag) CreateQuest {
	q := models.Quest{
		Title:       args.str("A nameless task", "title", "name"),
		Description: args.str("", "description", "desc"),
		Target:      clampInt(int(args.numOr(1, "target", "target_count", "count")), 1, 999),
		Condition:   models.QuestManual,
	}
	switch models.QuestCondition(strings.ToLower(args.str("", "condition", "objective"))) {
	case models.QuestSlay:
		q.Condition = models.QuestSlay
	case models.QuestCollect:
		q.Condition = models.QuestCollect
	}

	if gold, ok := args.num("reward_gold", "reward_currency"); ok {
		q.RewardCurrency = max(int(gold), 0)
	}
	if v, ok := args.lookup("reward"); ok {
		switch r := v.(type) {
		case string:
			q.Reward = r
		default:
			if gold, ok := toFloat(r); ok && q.RewardCurrency == 0 {
				q.RewardCurrency = max(int(gold), 0)
				q.Reward = strconv.Itoa(q.RewardCurrency) + " gold"
			}
		}
	}
	return CreateQuest{Quest: q}
}

// parseTheme starts from a named preset when one matches, otherwise from the
// default theme, then overlays explicit fields
func (ws *WorldService) parseTheme(args argBag) models.Theme {
	theme := models.DefaultTheme()
	name := args.str("", "preset", "name", "theme")
	if name != "" {
		theme.Name = name
		if ws.presets != nil {
			if preset, ok := ws.presets.Theme(name); ok {
				theme = preset
			}
		}
	}
	if v, ok := args.num("corridor_width"); ok {
		theme.CorridorWidth = int(v)
	}
	if v := args.str("", "room_size", "room_size_bias"); v != "" {
		theme.RoomSize = models.RoomSize(strings.ToLower(v))
	}
	if v, ok := args.num("enemy_density", "enemy_density_multiplier"); ok {
		theme.EnemyDensity = v
	}
	theme.SpecialFeature = args.str(theme.SpecialFeature, "special_feature", "feature")
	theme.VisualStyle = args.str(theme.VisualStyle, "visual_style", "style")
	return SanitizeTheme(theme)
}

func parseEffect(args argBag) ApplyEffect {
	e := ApplyEffect{
		Effect:    models.EffectSpeed,
		Magnitude: clampFloat(args.numOr(1.5, "magnitude", "multiplier"), 0.1, 5),
		Duration:  time.Duration(clampFloat(args.numOr(float64(DefaultEffectTime/time.Millisecond), "duration_ms", "duration"), 0, 60000)) * time.Millisecond,
	}
	if models.EffectType(strings.ToLower(args.str("", "effect", "type"))) == models.EffectStrength {
		e.Effect = models.EffectStrength
	}
	return e
}

func (s SpawnEntity) apply(ws *WorldService, state *models.GameState) {
	arch, ok := LookupArchetype(s.Kind)
	if !ok {
		arch, _ = LookupArchetype(DefaultArchetype)
	}
	size := EnemySize
	if arch.Boss {
		size = BossSize
	}

	c := state.Player.Center()
	x, y := s.X, s.Y
	if !s.Absolute {
		x, y = c.X+s.X-size/2, c.Y+s.Y-size/2
	}
	reach := state.Map.ReachableFrom(state.Map.PointAt(c.X, c.Y))
	x, y, ok = nearestWalkable(state.Map, &reach, x, y, size, size)
	if !ok {
		state.Log.Append(state.Clock, "director", "Something tries to take shape, but finds no room.")
		return
	}

	e := NewEnemy(state.NextID("enemy"), arch, x, y)
	e.Name = s.Label
	e.Aggro = true
	state.Enemies = append(state.Enemies, e)
	state.Log.Append(state.Clock, "director", "A %s emerges from the shadows!", s.Label)
}

func (g GrantLoot) apply(ws *WorldService, state *models.GameState) {
	gold := LootTiers[g.Rarity]
	state.Currency += gold
	state.Log.Append(state.Clock, "director", "You find %s (%s): +%d gold.", g.Item, g.Rarity, gold)
}

func (m ModifyRoom) apply(ws *WorldService, state *models.GameState) {
	mods := &state.Modifiers
	if m.Speed != nil {
		mods.SpeedMultiplier = *m.Speed
	}
	if m.Damage != nil {
		mods.DamageMultiplier = *m.Damage
	}
	if m.Visibility != nil {
		mods.Visibility = *m.Visibility
	}
	if m.Gravity != nil {
		mods.Gravity = *m.Gravity
	}
	if m.Atmosphere != nil {
		mods.Atmosphere = *m.Atmosphere
	}
	ws.expireEffects(state)
	state.Log.Append(state.Clock, "director", "The air turns %s. (speed x%.2f, damage x%.2f)", mods.Atmosphere, mods.SpeedMultiplier, mods.DamageMultiplier)
}

func (s SocialInteraction) apply(ws *WorldService, state *models.GameState) {
	if s.Success {
		for i := range state.Enemies {
			state.Enemies[i].Aggro = false
			state.Enemies[i].Morale = 0
		}
		state.Score += SocialSuccessBonus
		state.Log.Append(state.Clock, "director", "Your words calm %s. (+%d score)", s.With, SocialSuccessBonus)
		return
	}
	for i := range state.Enemies {
		e := &state.Enemies[i]
		e.Aggro = true
		e.Speed = math.Min(e.Speed*EscalationSpeed, MaxEnemySpeed)
		e.Morale = 100
	}
	state.Log.Append(state.Clock, "director", "Your words enrage %s!", s.With)
}

func (c CreateQuest) apply(ws *WorldService, state *models.GameState) {
	q := c.Quest
	q.ID = state.NextID("quest")
	q.Progress = 0
	if q.Condition == models.QuestSlay {
		q.Baseline = state.RemainingEnemies()
	}
	state.Quests = append(state.Quests, q)
	state.Log.Append(state.Clock, "director", "New quest: %s.", q.Title)
}

func (s SetTheme) apply(ws *WorldService, state *models.GameState) {
	theme := s.Theme
	state.PendingTheme = &theme
	state.Log.Append(state.Clock, "director", "The deeper halls shift toward %s.", theme.Name)
}

func (a ApplyEffect) apply(ws *WorldService, state *models.GameState) {
	p := &state.Player
	effects := p.Effects[:0]
	for _, e := range p.Effects {
		if e.Type != a.Effect {
			effects = append(effects, e)
		}
	}
	p.Effects = append(effects, models.ActiveEffect{
		Type:      a.Effect,
		Magnitude: a.Magnitude,
		StartedAt: state.Clock,
		Duration:  a.Duration,
	})
	ws.expireEffects(state)
	state.Log.Append(state.Clock, "director", "You feel a surge of %s. (x%.2f)", a.Effect, a.Magnitude)
}

func (u UnknownCommand) apply(ws *WorldService, state *models.GameState) {
	state.Log.Append(state.Clock, "director", "The director's words fade unheard (%q).", u.Raw)
}

// argBag reads loosely typed tool-call arguments
type argBag map[string]interface{}

func (a argBag) lookup(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := a[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (a argBag) str(def string, keys ...string) string {
	v, ok := a.lookup(keys...)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	case json.Number:
		return s.String()
	}
	return def
}

func (a argBag) num(keys ...string) (float64, bool) {
	v, ok := a.lookup(keys...)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (a argBag) numOr(def float64, keys ...string) float64 {
	if v, ok := a.num(keys...); ok {
		return v
	}
	return def
}

func (a argBag) boolean(def bool, keys ...string) bool {
	v, ok := a.lookup(keys...)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "success", "1":
			return true
		case "false", "no", "failure", "0":
			return false
		}
	default:
		if f, ok := toFloat(b); ok {
			return f != 0
		}
	}
	return def
}

func toFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
