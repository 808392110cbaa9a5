package object

import (
	"math"
	"time"

	"github.com/cinghycreations/diskiller/internal/physics"
)

// Aim limits. 0 points right along the ground, MaxRifleAngle straight up.
const (
	MinRifleAngle = 0.0
	MaxRifleAngle = math.Pi / 2
)

// RifleInput is the subset of player input the rifle reacts to.
type RifleInput struct {
	AimLeft  bool // Rotate counter-clockwise (towards vertical)
	AimRight bool // Rotate clockwise (towards horizontal)
	Fire     bool
}

// Rifle is the player's weapon. It fires only when reloaded; a shot stays
// live for a fixed number of frames while the reload timer runs on the clock.
type Rifle struct {
	Origin       physics.Vec2  // Pivot and muzzle anchor
	Reach        float64       // Length of the fire line
	Angle        float64       // Radians in [MinRifleAngle, MaxRifleAngle]
	Reloaded     bool          // Whether the next Fire input is accepted
	LastShotTime time.Time     // When the last accepted shot happened
	FireFrames   int           // Frames left in the current fire window
	Speed        float64       // Aim speed in radians per second
	ReloadDelay  time.Duration // Time from a shot until Reloaded
	WindowFrames int           // Fire window length given to each shot
}

// NewRifle creates a loaded rifle at origin aiming halfway up.
func NewRifle(origin physics.Vec2, reach, speed float64, reloadDelay time.Duration, windowFrames int) Rifle {
	return Rifle{
		Origin:       origin,
		Reach:        reach,
		Angle:        MaxRifleAngle / 2,
		Reloaded:     true,
		Speed:        speed,
		ReloadDelay:  reloadDelay,
		WindowFrames: windowFrames,
	}
}

// Update turns the rifle, completes a pending reload and handles the trigger.
// Returns true if a shot was fired this frame.
func (r *Rifle) Update(in RifleInput, dt float64, now time.Time) bool {
	// Left raises the barrel, right lowers it
	if in.AimLeft {
		r.Angle += r.Speed * dt
	}
	if in.AimRight {
		r.Angle -= r.Speed * dt
	}
	r.Angle = math.Max(MinRifleAngle, math.Min(MaxRifleAngle, r.Angle))

	if !r.Reloaded && now.Sub(r.LastShotTime) >= r.ReloadDelay {
		r.Reloaded = true
	}

	if !in.Fire || !r.Reloaded {
		return false
	}
	r.Reloaded = false
	r.LastShotTime = now
	r.FireFrames = r.WindowFrames
	return true
}

// FireActive reports whether the current frame is inside a fire window.
func (r *Rifle) FireActive() bool {
	return r.FireFrames > 0
}

// EndFrame consumes one frame of the fire window.
func (r *Rifle) EndFrame() {
	if r.FireFrames > 0 {
		r.FireFrames--
	}
}

// FireLine returns the muzzle anchor and the far end of the shot.
func (r *Rifle) FireLine() (start, end physics.Vec2) {
	return r.Origin, r.Origin.Add(physics.FromAngle(r.Angle, r.Reach))
}

// ReloadProgress returns how far the reload has run, in [0, 1].
func (r *Rifle) ReloadProgress(now time.Time) float64 {
	if r.Reloaded || r.ReloadDelay <= 0 {
		return 1
	}
	p := float64(now.Sub(r.LastShotTime)) / float64(r.ReloadDelay)
	return math.Max(0, math.Min(1, p))
}
