package object

import (
	"time"

	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/physics"
)

// Explosion marks where a disk was hit. It lives for the length of its
// animation.
type Explosion struct {
	Position  physics.Vec2
	CreatedAt time.Time
	Lifetime  time.Duration
	Animation content.AnimationID
}

// NewExplosion creates an explosion at pos that plays anim.
func NewExplosion(pos physics.Vec2, now time.Time, anim content.AnimationID, lifetime time.Duration) Explosion {
	return Explosion{
		Position:  pos,
		CreatedAt: now,
		Lifetime:  lifetime,
		Animation: anim,
	}
}

// Elapsed returns how long the explosion has been playing.
func (e Explosion) Elapsed(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Expired reports whether the animation has finished.
func (e Explosion) Expired(now time.Time) bool {
	return e.Elapsed(now) >= e.Lifetime
}

// Progress returns the animation progress in [0, 1].
func (e Explosion) Progress(now time.Time) float64 {
	if e.Lifetime <= 0 {
		return 1
	}
	p := float64(e.Elapsed(now)) / float64(e.Lifetime)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
