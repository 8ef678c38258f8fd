package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runedeep/server/models"
)

func TestIsWalkable(t *testing.T) {
	m := openMap(20, 20)
	m.Set(10, 10, models.TileWall)
	m.Set(3, 3, models.TilePit)
	m.Set(4, 4, models.TileDoor)

	for _, tc := range []struct {
		name     string
		x, y     float64
		w, h     float64
		expected bool
	}{
		{name: "inside floor", x: 64, y: 64, w: 24, h: 24, expected: true},
		{name: "flush against left wall", x: 32, y: 64, w: 24, h: 24, expected: true},
		{name: "one pixel into left wall", x: 31, y: 64, w: 24, h: 24, expected: false},
		{name: "flush against right wall", x: 19*TileSize - 24, y: 64, w: 24, h: 24, expected: true},
		{name: "one pixel into right wall", x: 19*TileSize - 23, y: 64, w: 24, h: 24, expected: false},
		{name: "negative position", x: -1, y: 64, w: 24, h: 24, expected: false},
		{name: "off the map", x: 40 * TileSize, y: 64, w: 24, h: 24, expected: false},
		{name: "on a pit", x: 3*TileSize + 4, y: 3*TileSize + 4, w: 24, h: 24, expected: false},
		{name: "on a door", x: 4*TileSize + 4, y: 4*TileSize + 4, w: 24, h: 24, expected: true},
		// corners land on (9,10) and (11,10); only the middle tile is a wall
		{name: "wide box straddling a wall", x: 9*TileSize + 1, y: 10*TileSize + 4, w: 80, h: 24, expected: false},
		{name: "wide box beside the wall", x: 11*TileSize + 1, y: 10*TileSize + 4, w: 80, h: 24, expected: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsWalkable(m, tc.x, tc.y, tc.w, tc.h))
		})
	}

	assert.False(t, IsWalkable(nil, 64, 64, 24, 24))
}

func TestSlide(t *testing.T) {
	m := openMap(20, 20)

	t.Run("free step", func(t *testing.T) {
		e := models.Entity{X: 100, Y: 100, Width: 24, Height: 24}
		assert.True(t, slide(m, &e, 4, -4))
		assert.Equal(t, 104.0, e.X)
		assert.Equal(t, 96.0, e.Y)
	})

	t.Run("blocked axis is dropped", func(t *testing.T) {
		e := models.Entity{X: 33, Y: 100, Width: 24, Height: 24}
		assert.True(t, slide(m, &e, -4, 4))
		assert.Equal(t, 33.0, e.X)
		assert.Equal(t, 104.0, e.Y)
	})

	t.Run("fully blocked", func(t *testing.T) {
		e := models.Entity{X: 33, Y: 100, Width: 24, Height: 24}
		assert.False(t, slide(m, &e, -4, 0))
		assert.Equal(t, 33.0, e.X)
		assert.Equal(t, 100.0, e.Y)
	})

	t.Run("zero step", func(t *testing.T) {
		e := models.Entity{X: 100, Y: 100, Width: 24, Height: 24}
		assert.False(t, slide(m, &e, 0, 0))
	})
}

func TestSlideLongStepStopsAtWall(t *testing.T) {
	m := openMap(20, 20)
	for y := 1; y < 19; y++ {
		m.Set(10, y, models.TileWall)
	}

	e := models.Entity{X: 12 * TileSize, Y: 5 * TileSize, Width: 24, Height: 24}
	assert.True(t, slide(m, &e, -90, 0))
	assert.GreaterOrEqual(t, e.X, 11.0*TileSize, "crossed the wall")
	assert.True(t, EntityWalkable(m, e))
}

func TestSweep(t *testing.T) {
	m := openMap(20, 20)
	for y := 1; y < 19; y++ {
		m.Set(10, y, models.TileWall)
	}

	for _, tc := range []struct {
		name   string
		x, dx  float64
		clear  bool
		beyond float64
	}{
		{name: "open flight", x: 100, dx: 120, clear: true, beyond: 220},
		{name: "long step into wall", x: 292, dx: 120, clear: false},
		{name: "long step away from wall", x: 292, dx: -120, clear: true, beyond: 172},
		{name: "still", x: 100, dx: 0, clear: true, beyond: 100},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := models.Entity{X: tc.x, Y: 5 * TileSize, Width: ProjectileSize, Height: ProjectileSize}
			assert.Equal(t, tc.clear, sweep(m, &e, tc.dx, 0))
			if tc.clear {
				assert.InDelta(t, tc.beyond, e.X, 1e-9)
			} else {
				assert.Less(t, e.X, 11.0*TileSize)
			}
		})
	}
}

func TestNearestWalkable(t *testing.T) {
	m := models.NewGameMap(20, 20, TileSize)
	m.Set(10, 10, models.TileFloor)

	x, y, ok := nearestWalkable(m, nil, 0, 0, 24, 24)
	require.True(t, ok)
	assert.Equal(t, 10.0*TileSize+4, x)
	assert.Equal(t, 10.0*TileSize+4, y)
	assert.True(t, IsWalkable(m, x, y, 24, 24))

	x, y, ok = nearestWalkable(m, nil, 10*TileSize+2, 10*TileSize+2, 24, 24)
	require.True(t, ok)
	assert.Equal(t, 10.0*TileSize+2, x, "already walkable positions are kept")
	assert.Equal(t, 10.0*TileSize+2, y)

	_, _, ok = nearestWalkable(models.NewGameMap(8, 8, TileSize), nil, 64, 64, 24, 24)
	assert.False(t, ok)

	// a boss does not fit in a single tile
	_, _, ok = nearestWalkable(m, nil, 0, 0, BossSize, BossSize)
	assert.False(t, ok)
}

func TestNearestWalkableWithinReach(t *testing.T) {
	m := openMap(20, 20)
	for y := 1; y < 19; y++ {
		m.Set(10, y, models.TileWall)
	}
	reach := m.ReachableFrom(models.Point{X: 5, Y: 5})

	x, y, ok := nearestWalkable(m, &reach, 15*TileSize, 5*TileSize, 24, 24)
	require.True(t, ok)
	assert.Less(t, x, 10.0*TileSize, "placed in the sealed pocket")
	assert.True(t, IsWalkable(m, x, y, 24, 24))

	x, _, ok = nearestWalkable(m, nil, 15*TileSize, 5*TileSize, 24, 24)
	require.True(t, ok)
	assert.Equal(t, 15.0*TileSize, x)
}
