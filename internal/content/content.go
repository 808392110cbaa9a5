// Package content holds the immutable game data shared by the simulation
// and the renderer: playfield geometry, scenery layout and animations.
package content

import (
	"fmt"
	"time"

	"github.com/cinghycreations/diskiller/internal/physics"
)

// Playfield geometry in logical units. The visible field is a 16x16 square
// with Y growing downward; disks launch from the floor.
const (
	FieldWidth  = 16
	FieldHeight = 16
	FloorY      = 16.0 // Disks below this line are missed
	SpawnMinX   = 2.0  // Leftmost x a disk arc may reach
	SpawnMaxX   = 14.0 // Rightmost x a disk arc may reach
)

// Rifle placement. The barrel pivots next to the character tile at (0,13).
var RifleOrigin = physics.Vec2{X: 1, Y: 13.5}

// FireLineLength is long enough to reach any corner of the field from the muzzle.
const FireLineLength = 32.0

// RifleBarrelLength is the drawn barrel length.
const RifleBarrelLength = 1.2

// Playfield describes where disks spawn and where they are lost.
type Playfield struct {
	MinX   float64
	MaxX   float64
	FloorY float64
}

// DefaultPlayfield returns the standard 16x16 field.
func DefaultPlayfield() Playfield {
	return Playfield{MinX: SpawnMinX, MaxX: SpawnMaxX, FloorY: FloorY}
}

// TileKind identifies a scenery tile.
type TileKind int

const (
	TileCharacter TileKind = iota
	TileRock
	TileTreeTop
	TileTreeBottom
)

// Tile is a 1x1 scenery cell anchored at its top-left corner.
type Tile struct {
	Kind     TileKind
	Position physics.Vec2
}

// Scenery returns the static background: the shooter on a rock column at the
// left edge and a line of trees along the bottom two rows.
func Scenery() []Tile {
	tiles := []Tile{
		{Kind: TileCharacter, Position: physics.Vec2{X: 0, Y: 13}},
		{Kind: TileRock, Position: physics.Vec2{X: 0, Y: 14}},
		{Kind: TileRock, Position: physics.Vec2{X: 0, Y: 15}},
	}
	for i := 1; i < FieldWidth; i++ {
		tiles = append(tiles,
			Tile{Kind: TileTreeTop, Position: physics.Vec2{X: float64(i), Y: 14}},
			Tile{Kind: TileTreeBottom, Position: physics.Vec2{X: float64(i), Y: 15}},
		)
	}
	return tiles
}

// AnimationID is a handle into a Table.
type AnimationID int

const (
	AnimationExplosion AnimationID = iota
)

// Frame is one step of an animation.
type Frame struct {
	Glyph    rune
	Radius   float64 // Drawn radius in logical units
	Duration time.Duration
}

// Animation is an ordered list of frames played once.
type Animation struct {
	Name   string
	Frames []Frame
}

// Lifetime returns the sum of all frame durations.
func (a Animation) Lifetime() time.Duration {
	var total time.Duration
	for _, f := range a.Frames {
		total += f.Duration
	}
	return total
}

// FrameAt returns the index of the frame showing after elapsed time.
// Past the end it stays on the last frame.
func (a Animation) FrameAt(elapsed time.Duration) int {
	if len(a.Frames) == 0 {
		return 0
	}
	for i, f := range a.Frames {
		if elapsed < f.Duration {
			return i
		}
		elapsed -= f.Duration
	}
	return len(a.Frames) - 1
}

// Table is the immutable animation lookup. Sessions resolve the handles they
// need once and keep only the ID.
type Table struct {
	animations []Animation
}

// DefaultTable returns the built-in animations.
func DefaultTable() *Table {
	return &Table{
		animations: []Animation{
			AnimationExplosion: {
				Name: "explosion",
				Frames: []Frame{
					{Glyph: '*', Radius: 0.3, Duration: 60 * time.Millisecond},
					{Glyph: 'o', Radius: 0.6, Duration: 60 * time.Millisecond},
					{Glyph: 'O', Radius: 0.9, Duration: 80 * time.Millisecond},
					{Glyph: '@', Radius: 1.1, Duration: 80 * time.Millisecond},
					{Glyph: '+', Radius: 1.2, Duration: 100 * time.Millisecond},
					{Glyph: '.', Radius: 1.3, Duration: 120 * time.Millisecond},
				},
			},
		},
	}
}

// Animation returns the animation for id.
func (t *Table) Animation(id AnimationID) (Animation, error) {
	if int(id) < 0 || int(id) >= len(t.animations) {
		return Animation{}, fmt.Errorf("content: unknown animation %d", id)
	}
	return t.animations[id], nil
}
