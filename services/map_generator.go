package services

import (
	"math"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"runedeep/server/models"
)

// IDSource hands out unique entity identifiers
type IDSource interface {
	NextID(prefix string) string
}

// GeneratedLevel is everything the map generator produces for one level
type GeneratedLevel struct {
	Map           *models.GameMap
	Spawn         models.Vec // player top-left, pixels
	Enemies       []models.Enemy
	Interactables []models.Interactable
}

// MapGenerator builds room-and-corridor dungeon levels
type MapGenerator struct {
	width    int
	height   int
	tileSize int
}

// NewMapGenerator creates a generator for maps of the given tile dimensions
func NewMapGenerator(width, height, tileSize int) *MapGenerator {
	return &MapGenerator{
		width:    width,
		height:   height,
		tileSize: tileSize,
	}
}

// roomBounds returns the inclusive min/max side length for a room size bias
func roomBounds(size models.RoomSize) (int, int) {
	switch size {
	case models.RoomSmall:
		return 4, 6
	case models.RoomLarge:
		return 7, 12
	default:
		return 5, 9
	}
}

// SanitizeTheme clamps theme parameters into ranges the generator supports
func SanitizeTheme(t models.Theme) models.Theme {
	def := models.DefaultTheme()
	if t.Name == "" {
		t.Name = def.Name
	}
	if t.CorridorWidth < 1 {
		t.CorridorWidth = def.CorridorWidth
	}
	if t.CorridorWidth > 3 {
		t.CorridorWidth = 3
	}
	switch t.RoomSize {
	case models.RoomSmall, models.RoomMedium, models.RoomLarge:
	default:
		t.RoomSize = def.RoomSize
	}
	if t.EnemyDensity <= 0 || math.IsNaN(t.EnemyDensity) {
		t.EnemyDensity = def.EnemyDensity
	}
	if t.EnemyDensity > 3 {
		t.EnemyDensity = 3
	}
	if t.SpecialFeature == "" {
		t.SpecialFeature = def.SpecialFeature
	}
	if t.VisualStyle == "" {
		t.VisualStyle = def.VisualStyle
	}
	return t
}

// RoomTarget is the number of rooms attempted for a level
func RoomTarget(level int) int {
	n := BaseRooms + level
	if n > MaxRooms {
		n = MaxRooms
	}
	return n
}

// EnemyBand returns the min and max regular enemy count before theme scaling
func EnemyBand(level int) (int, int) {
	if level < 1 {
		level = 1
	}
	lo := 2*level - 1
	return lo, lo + level - 1
}

// Generate builds a level. Every candidate room is tried exactly once; rooms
// are connected to their predecessor as they are accepted, so every room is
// reachable from the spawn room by construction.
func (g *MapGenerator) Generate(rng *rand.Rand, ids IDSource, level int, theme models.Theme) *GeneratedLevel {
	theme = SanitizeTheme(theme)
	if level < 1 {
		level = 1
	}

	m := models.NewGameMap(g.width, g.height, g.tileSize)
	m.Style = theme.VisualStyle

	rooms := g.placeRooms(rng, RoomTarget(level), theme)
	for i, r := range rooms {
		for y := r.Y; y < r.Y+r.Height; y++ {
			for x := r.X; x < r.X+r.Width; x++ {
				m.Set(x, y, models.TileFloor)
			}
		}
		if theme.SpecialFeature == "chasm" && i > 0 {
			g.digPits(m, r)
		}
	}

	for i := 1; i < len(rooms); i++ {
		g.carveCorridor(rng, m, rooms[i-1].Center(), rooms[i].Center(), theme.CorridorWidth)
	}
	markDoors(m, rooms)

	spawn := rooms[0].Center()
	m.Set(spawn.X, spawn.Y, models.TileSpawn)
	m.Spawn = spawn
	m.Rooms = rooms

	ts := float64(g.tileSize)
	lvl := &GeneratedLevel{
		Map: m,
		Spawn: models.Vec{
			X: float64(spawn.X)*ts + (ts-PlayerSize)/2,
			Y: float64(spawn.Y)*ts + (ts-PlayerSize)/2,
		},
	}

	reach := m.ReachableFrom(spawn)
	portal := g.placeInteractables(rng, ids, lvl, theme, reach)
	g.placeEnemies(rng, ids, lvl, level, theme, portal, reach)
	return lvl
}

// placeRooms attempts target candidates once each, rejecting overlaps
func (g *MapGenerator) placeRooms(rng *rand.Rand, target int, theme models.Theme) []models.Room {
	minSize, maxSize := roomBounds(theme.RoomSize)
	// leave a one-tile wall border
	maxSize = clampInt(maxSize, 1, min(g.width, g.height)-2)
	minSize = clampInt(minSize, 1, maxSize)

	rooms := make([]models.Room, 0, target)
	for i := 0; i < target; i++ {
		w := minSize + rng.Intn(maxSize-minSize+1)
		h := minSize + rng.Intn(maxSize-minSize+1)
		candidate := models.Room{
			X:      1 + rng.Intn(max(1, g.width-w-1)),
			Y:      1 + rng.Intn(max(1, g.height-h-1)),
			Width:  w,
			Height: h,
		}

		overlaps := false
		for _, r := range rooms {
			if candidate.Intersects(r, RoomPadding) {
				overlaps = true
				break
			}
		}
		if !overlaps {
			rooms = append(rooms, candidate)
		}
	}
	return rooms
}

// carveCorridor joins two points with an L-shaped corridor of the given width
func (g *MapGenerator) carveCorridor(rng *rand.Rand, m *models.GameMap, a, b models.Point, width int) {
	if rng.Intn(2) == 0 {
		g.carveHorizontal(m, a.X, b.X, a.Y, width)
		g.carveVertical(m, a.Y, b.Y, b.X, width)
	} else {
		g.carveVertical(m, a.Y, b.Y, a.X, width)
		g.carveHorizontal(m, a.X, b.X, b.Y, width)
	}
}

func (g *MapGenerator) carveHorizontal(m *models.GameMap, x1, x2, y, width int) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	for x := x1; x <= x2; x++ {
		for dy := 0; dy < width; dy++ {
			g.carve(m, x, y+dy)
		}
	}
}

func (g *MapGenerator) carveVertical(m *models.GameMap, y1, y2, x, width int) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	// extend to cover the corner square left by a wide horizontal run
	for y := y1; y <= y2+width-1; y++ {
		for dx := 0; dx < width; dx++ {
			g.carve(m, x+dx, y)
		}
	}
}

// carve opens a tile, keeping the outer wall border intact
func (g *MapGenerator) carve(m *models.GameMap, x, y int) {
	if x < 1 || y < 1 || x >= m.Width-1 || y >= m.Height-1 {
		return
	}
	if k := m.Tiles[y][x]; k == models.TileWall || k == models.TilePit {
		m.Tiles[y][x] = models.TileFloor
	}
}

// digPits turns the inner corners of a large room into pits
func (g *MapGenerator) digPits(m *models.GameMap, r models.Room) {
	if r.Width < 5 || r.Height < 5 {
		return
	}
	m.Set(r.X, r.Y, models.TilePit)
	m.Set(r.X+r.Width-1, r.Y, models.TilePit)
	m.Set(r.X, r.Y+r.Height-1, models.TilePit)
	m.Set(r.X+r.Width-1, r.Y+r.Height-1, models.TilePit)
}

// markDoors tags corridor floor tiles that touch a room edge from outside
func markDoors(m *models.GameMap, rooms []models.Room) {
	inRoom := func(x, y int) bool {
		for _, r := range rooms {
			if x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height {
				return true
			}
		}
		return false
	}

	var doors []models.Point
	for y := 1; y < m.Height-1; y++ {
		for x := 1; x < m.Width-1; x++ {
			if m.Tiles[y][x] != models.TileFloor || inRoom(x, y) {
				continue
			}
			if inRoom(x+1, y) || inRoom(x-1, y) || inRoom(x, y+1) || inRoom(x, y-1) {
				doors = append(doors, models.Point{X: x, Y: y})
			}
		}
	}
	for _, d := range doors {
		m.Tiles[d.Y][d.X] = models.TileDoor
	}
}

// placeInteractables scatters milestones in intermediate rooms and always puts
// one portal in the last room. It returns the portal tile.
func (g *MapGenerator) placeInteractables(rng *rand.Rand, ids IDSource, lvl *GeneratedLevel, theme models.Theme, reach mapset.Set[models.Point]) models.Point {
	rooms := lvl.Map.Rooms
	kinds := []models.InteractableType{
		models.InteractKey,
		models.InteractTreasure,
		models.InteractScroll,
		models.InteractNPC,
	}

	taken := map[models.Point]bool{lvl.Map.Spawn: true}
	for i := 1; i < len(rooms)-1; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		if theme.SpecialFeature == "hoard" {
			kind = models.InteractTreasure
		} else if rng.Float64() >= InteractableChance {
			continue
		}
		p := g.freeTile(rng, rooms[i], taken, reach)
		taken[p] = true
		lvl.Interactables = append(lvl.Interactables, g.interactable(ids, kind, p))
	}

	last := rooms[len(rooms)-1]
	p := last.Center()
	if taken[p] || !reach.Has(p) {
		p = g.freeTile(rng, last, taken, reach)
	}
	lvl.Interactables = append(lvl.Interactables, g.interactable(ids, models.InteractPortal, p))
	return p
}

func (g *MapGenerator) interactable(ids IDSource, kind models.InteractableType, p models.Point) models.Interactable {
	ts := float64(g.tileSize)
	return models.Interactable{
		ID:     ids.NextID(string(kind)),
		X:      float64(p.X)*ts + ts/2,
		Y:      float64(p.Y)*ts + ts/2,
		Type:   kind,
		Radius: InteractionRadius,
	}
}

// placeEnemies populates every room except the spawn room, plus a boss in the
// last room from BossMinLevel on
func (g *MapGenerator) placeEnemies(rng *rand.Rand, ids IDSource, lvl *GeneratedLevel, level int, theme models.Theme, portal models.Point, reach mapset.Set[models.Point]) {
	rooms := lvl.Map.Rooms
	eligible := rooms[1:]
	if len(eligible) == 0 {
		eligible = rooms
	}

	lo, hi := EnemyBand(level)
	count := lo + rng.Intn(hi-lo+1)
	count = int(math.Round(float64(count) * theme.EnemyDensity))
	if count < 1 {
		count = 1
	}

	pool := make([]Archetype, 0, len(Archetypes))
	for _, a := range Archetypes {
		if a.UnlockLevel <= level {
			pool = append(pool, a)
		}
	}

	taken := map[models.Point]bool{lvl.Map.Spawn: true, portal: true}
	for i := 0; i < count; i++ {
		room := eligible[rng.Intn(len(eligible))]
		arch := pool[rng.Intn(len(pool))]
		if e, ok := g.spawnInRoom(rng, ids, lvl.Map, room, arch, taken, reach); ok {
			lvl.Enemies = append(lvl.Enemies, e)
		}
	}

	if level >= BossMinLevel {
		var bosses []Archetype
		for _, a := range BossArchetypes {
			if a.UnlockLevel <= level {
				bosses = append(bosses, a)
			}
		}
		arch := bosses[rng.Intn(len(bosses))]
		if e, ok := g.spawnInRoom(rng, ids, lvl.Map, rooms[len(rooms)-1], arch, taken, reach); ok {
			lvl.Enemies = append(lvl.Enemies, e)
		}
	}
}

func (g *MapGenerator) spawnInRoom(rng *rand.Rand, ids IDSource, m *models.GameMap, room models.Room, arch Archetype, taken map[models.Point]bool, reach mapset.Set[models.Point]) (models.Enemy, bool) {
	p := g.freeTile(rng, room, taken, reach)
	taken[p] = true

	ts := float64(g.tileSize)
	size := EnemySize
	if arch.Boss {
		size = BossSize
	}
	x, y, ok := nearestWalkable(m, &reach, float64(p.X)*ts+(ts-size)/2, float64(p.Y)*ts+(ts-size)/2, size, size)
	if !ok {
		return models.Enemy{}, false
	}
	return NewEnemy(ids.NextID("enemy"), arch, x, y), true
}

// freeTile picks a random tile in the room that is reachable from spawn and
// not yet taken, falling back to the room centre
func (g *MapGenerator) freeTile(rng *rand.Rand, room models.Room, taken map[models.Point]bool, reach mapset.Set[models.Point]) models.Point {
	for attempt := 0; attempt < 16; attempt++ {
		p := models.Point{X: room.X + rng.Intn(room.Width), Y: room.Y + rng.Intn(room.Height)}
		if !taken[p] && reach.Has(p) {
			return p
		}
	}
	return room.Center()
}

// NewEnemy instantiates an archetype at a top-left pixel position
func NewEnemy(id string, arch Archetype, x, y float64) models.Enemy {
	size := EnemySize
	if arch.Boss {
		size = BossSize
	}
	return models.Enemy{
		Entity: models.Entity{
			ID:     id,
			X:      x,
			Y:      y,
			Width:  size,
			Height: size,
		},
		Name:      arch.Kind,
		Kind:      arch.Kind,
		Tier:      arch.Tier,
		Boss:      arch.Boss,
		Health:    arch.Health,
		MaxHealth: arch.Health,
		Speed:     arch.Speed,
		Damage:    arch.Damage,
		Morale:    arch.Morale,
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
