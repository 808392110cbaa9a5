package object

import (
	"math"
	"math/rand"

	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/physics"
)

// Launch velocity ranges. Negative Y is upward.
const (
	DiskMinVX = -3.0
	DiskMaxVX = 3.0
	DiskMinVY = -18.0
	DiskMaxVY = -10.0
)

// Disk is a clay target on a ballistic arc.
type Disk struct {
	ID       int          // Unique within a session
	Turn     int          // Turn that launched this disk
	Position physics.Vec2 // Current center
	Velocity physics.Vec2 // Units per second
	lookback []physics.Vec2
	capacity int
}

// NewDisk creates a disk at pos moving at vel that remembers up to
// lookBackFrames past positions.
func NewDisk(id, turn int, pos, vel physics.Vec2, lookBackFrames int) Disk {
	if lookBackFrames < 1 {
		lookBackFrames = 1
	}
	return Disk{
		ID:       id,
		Turn:     turn,
		Position: pos,
		Velocity: vel,
		lookback: make([]physics.Vec2, 0, lookBackFrames),
		capacity: lookBackFrames,
	}
}

// NewDiskRandom launches a disk from the floor with a random velocity. The
// start x is picked so the unobstructed arc lands back inside the field.
func NewDiskRandom(rng *rand.Rand, id, turn int, gravity float64, field content.Playfield, lookBackFrames int) Disk {
	vel := physics.Vec2{
		X: randomFloat(rng, DiskMinVX, DiskMaxVX),
		Y: randomFloat(rng, DiskMinVY, DiskMaxVY),
	}
	travel := HorizontalTravel(vel, gravity)
	pos := physics.Vec2{
		X: SpawnX(rng, travel, field.MinX, field.MaxX),
		Y: field.FloorY,
	}
	return NewDisk(id, turn, pos, vel, lookBackFrames)
}

// AirTime returns how long a disk launched at vel takes to come back to its
// launch height.
func AirTime(vel physics.Vec2, gravity float64) float64 {
	return 2 * math.Abs(vel.Y) / gravity
}

// HorizontalTravel returns the signed x distance covered during AirTime.
func HorizontalTravel(vel physics.Vec2, gravity float64) float64 {
	return vel.X * AirTime(vel, gravity)
}

// SpawnX picks a launch x so that x and x+travel both lie in [minX, maxX].
// If the range is too narrow for the travel, the lower bound is used.
func SpawnX(rng *rand.Rand, travel, minX, maxX float64) float64 {
	if travel > 0 {
		return randomFloat(rng, minX, maxX-travel)
	}
	return randomFloat(rng, minX-travel, maxX)
}

// Update applies gravity, moves the disk and records the new position.
func (d *Disk) Update(dt, gravity float64) {
	d.Velocity.Y += gravity * dt
	d.Position = d.Position.Add(d.Velocity.Scale(dt))

	if len(d.lookback) == d.capacity {
		copy(d.lookback, d.lookback[1:])
		d.lookback = d.lookback[:d.capacity-1]
	}
	d.lookback = append(d.lookback, d.Position)
}

// Lookback returns the remembered positions, oldest first. The slice is only
// valid until the next Update.
func (d *Disk) Lookback() []physics.Vec2 {
	return d.lookback
}

// BelowFloor reports whether the disk has fallen out of the field.
func (d *Disk) BelowFloor(floorY float64) bool {
	return d.Position.Y > floorY
}

// HitBy reports whether any remembered position is within radius of the fire
// line. Checking the history catches disks that crossed the line between
// frames.
func (d *Disk) HitBy(lineStart, lineEnd physics.Vec2, radius float64) bool {
	for _, p := range d.lookback {
		if physics.LineCircleIntersects(p, radius, lineStart, lineEnd) {
			return true
		}
	}
	return false
}

// randomFloat returns a value in [min, max). An inverted range collapses to min.
func randomFloat(rng *rand.Rand, min, max float64) float64 {
	if max < min {
		max = min
	}
	return min + rng.Float64()*(max-min)
}
