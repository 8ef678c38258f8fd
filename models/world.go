package models

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

// TileKind identifies what occupies a map cell
type TileKind int

// Tile kinds represented as integers for memory efficiency
const (
	TileWall TileKind = iota
	TileFloor
	TileDoor
	TileSpawn
	TilePit
)

func (k TileKind) String() string {
	switch k {
	case TileFloor:
		return "floor"
	case TileWall:
		return "wall"
	case TileDoor:
		return "door"
	case TileSpawn:
		return "spawn"
	case TilePit:
		return "pit"
	default:
		return "unknown"
	}
}

// Walkable reports whether entities may stand on this kind of tile
func (k TileKind) Walkable() bool {
	return k == TileFloor || k == TileDoor || k == TileSpawn
}

// Point is an integer tile coordinate
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Room is a rectangular carved area, in tile coordinates
type Room struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the room's centre tile
func (r Room) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Intersects reports whether r, grown by pad tiles on every side, overlaps o
func (r Room) Intersects(o Room, pad int) bool {
	return r.X-pad < o.X+o.Width &&
		r.X+r.Width+pad > o.X &&
		r.Y-pad < o.Y+o.Height &&
		r.Y+r.Height+pad > o.Y
}

// GameMap represents one generated dungeon level
type GameMap struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	TileSize int          `json:"tile_size"`
	Tiles    [][]TileKind `json:"tiles"` // indexed [y][x]
	Rooms    []Room       `json:"rooms"`
	Spawn    Point        `json:"spawn"`
	Style    string       `json:"style"` // cosmetic theme tag
}

// NewGameMap creates a map filled with walls
func NewGameMap(width, height, tileSize int) *GameMap {
	tiles := make([][]TileKind, height)
	for y := range tiles {
		tiles[y] = make([]TileKind, width)
		for x := range tiles[y] {
			tiles[y][x] = TileWall
		}
	}
	return &GameMap{
		Width:    width,
		Height:   height,
		TileSize: tileSize,
		Tiles:    tiles,
	}
}

// InBounds reports whether the tile coordinate lies on the grid
func (m *GameMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// KindAt returns the tile kind, treating out-of-bounds cells as wall
func (m *GameMap) KindAt(x, y int) TileKind {
	if !m.InBounds(x, y) {
		return TileWall
	}
	return m.Tiles[y][x]
}

// PointAt returns the tile coordinate containing a pixel position
func (m *GameMap) PointAt(px, py float64) Point {
	ts := float64(m.TileSize)
	return Point{X: int(math.Floor(px / ts)), Y: int(math.Floor(py / ts))}
}

// Set overwrites a tile kind; out-of-bounds writes are ignored
func (m *GameMap) Set(x, y int, kind TileKind) {
	if m.InBounds(x, y) {
		m.Tiles[y][x] = kind
	}
}

// CountKind returns how many tiles have the given kind
func (m *GameMap) CountKind(kind TileKind) int {
	n := 0
	for y := range m.Tiles {
		for x := range m.Tiles[y] {
			if m.Tiles[y][x] == kind {
				n++
			}
		}
	}
	return n
}

// ReachableFrom flood-fills walkable tiles from start using 4-neighbour steps
func (m *GameMap) ReachableFrom(start Point) mapset.Set[Point] {
	visited := mapset.New[Point]()
	if !m.KindAt(start.X, start.Y).Walkable() {
		return visited
	}

	queue := []Point{start}
	visited.Put(start)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range [4]Point{{p.X + 1, p.Y}, {p.X - 1, p.Y}, {p.X, p.Y + 1}, {p.X, p.Y - 1}} {
			if visited.Has(n) || !m.KindAt(n.X, n.Y).Walkable() {
				continue
			}
			visited.Put(n)
			queue = append(queue, n)
		}
	}
	return visited
}

// Clone returns a deep copy of the map
func (m *GameMap) Clone() *GameMap {
	c := *m
	c.Tiles = make([][]TileKind, len(m.Tiles))
	for y := range m.Tiles {
		c.Tiles[y] = append([]TileKind(nil), m.Tiles[y]...)
	}
	c.Rooms = append([]Room(nil), m.Rooms...)
	return &c
}
