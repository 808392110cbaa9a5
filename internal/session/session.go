// Package session simulates one round of disk shooting: it launches disk
// batches, moves them, runs the rifle, tests shots against recent disk
// positions and keeps score until the game mode's end condition is met.
//
// A Session is not safe for concurrent use. Call Step exactly once per
// rendered frame and read state through Snapshot afterwards.
package session

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cinghycreations/diskiller/internal/config"
	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/object"
)

// Input is the per-frame input to Step.
type Input struct {
	AimLeft  bool
	AimRight bool
	Fire     bool
	Reset    bool
	Delta    time.Duration // Time since the previous frame
	Now      time.Time     // Monotonic frame clock
}

// Options tune construction. Zero values pick defaults.
type Options struct {
	Rand      *rand.Rand          // Spawn randomness, seeded from Start if nil
	Start     time.Time           // Session clock origin, time.Now() if zero
	Animation content.AnimationID // Explosion animation
}

// Session owns every entity of one round.
type Session struct {
	def       Def
	settings  config.Settings
	field     content.Playfield
	rng       *rand.Rand
	rifleTmpl object.Rifle

	explosionAnim     content.AnimationID
	explosionLifetime time.Duration

	rifle      object.Rifle
	turns      TurnManager
	disks      []object.Disk
	explosions []object.Explosion
	nextDiskID int
	now        time.Time
	ended      bool
	result     Termination
}

// New validates def and settings and builds a session ready to step.
// The explosion animation is resolved from anims once, here; a nil table
// means content.DefaultTable().
func New(def Def, settings config.Settings, anims *content.Table, opts Options) (*Session, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	if anims == nil {
		anims = content.DefaultTable()
	}
	anim, err := anims.Animation(opts.Animation)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(start.UnixNano()))
	}
	field := content.DefaultPlayfield()
	rifle := object.NewRifle(content.RifleOrigin, content.FireLineLength,
		settings.RifleSpeed, settings.ReloadDelay, settings.LookForwardFrames)

	s := &Session{
		def:               def,
		settings:          settings,
		field:             field,
		rng:               rng,
		rifleTmpl:         rifle,
		explosionAnim:     opts.Animation,
		explosionLifetime: anim.Lifetime(),
	}
	s.reset(start)
	return s, nil
}

// reset puts the session back to its first frame at now.
func (s *Session) reset(now time.Time) {
	s.rifle = s.rifleTmpl
	s.turns = NewTurnManager(s.def, s.settings.TurnDelay, now)
	s.disks = s.disks[:0]
	s.explosions = s.explosions[:0]
	s.nextDiskID = 1
	s.now = now
	s.ended = false
	s.result = Termination{}
}

// Step advances the simulation by one frame.
//
// Order: rifle, disk physics and misses, hit test against the look-back
// history, fire window countdown, explosion expiry, turn resolution, and
// finally the spawn/termination decision.
func (s *Session) Step(in Input) StepResult {
	var res StepResult

	if in.Reset {
		s.reset(in.Now)
		return res
	}
	if s.ended {
		return res
	}

	s.now = in.Now
	dt := in.Delta.Seconds()

	// Rifle
	fired := s.rifle.Update(object.RifleInput{
		AimLeft:  in.AimLeft,
		AimRight: in.AimRight,
		Fire:     in.Fire,
	}, dt, in.Now)
	if fired {
		res.Events = append(res.Events, Event{
			Type:     EventShotFired,
			Turn:     s.turns.state.CurrentTurn,
			Position: s.rifle.Origin,
			Angle:    s.rifle.Angle,
		})
	}

	// Disk physics; disks through the floor are misses
	kept := s.disks[:0]
	for _, d := range s.disks {
		d.Update(dt, s.settings.Gravity)
		if d.BelowFloor(s.field.FloorY) {
			s.turns.RecordMiss()
			res.Events = append(res.Events, Event{
				Type:     EventDiskMissed,
				Turn:     d.Turn,
				DiskID:   d.ID,
				Position: d.Position,
			})
			continue
		}
		kept = append(kept, d)
	}
	s.disks = kept

	// Hit test while the shot is live
	if s.rifle.FireActive() {
		start, end := s.rifle.FireLine()
		kept = s.disks[:0]
		for _, d := range s.disks {
			if d.HitBy(start, end, s.settings.DiskRadius) {
				s.turns.RecordHit()
				s.explosions = append(s.explosions,
					object.NewExplosion(d.Position, in.Now, s.explosionAnim, s.explosionLifetime))
				res.Events = append(res.Events, Event{
					Type:     EventDiskHit,
					Turn:     d.Turn,
					DiskID:   d.ID,
					Position: d.Position,
				})
				continue
			}
			kept = append(kept, d)
		}
		s.disks = kept
	}
	s.rifle.EndFrame()

	// Explosions
	keptExplosions := s.explosions[:0]
	for _, e := range s.explosions {
		if !e.Expired(in.Now) {
			keptExplosions = append(keptExplosions, e)
		}
	}
	s.explosions = keptExplosions

	// Turn resolution
	if len(s.disks) == 0 {
		if outcome, ok := s.turns.Resolve(in.Now); ok {
			res.Events = append(res.Events, Event{
				Type:    EventTurnResolved,
				Turn:    outcome.Turn,
				Outcome: outcome,
			})
		}
	}

	// Spawn decision
	switch s.turns.Decide(in.Now) {
	case DecisionSpawn:
		turn := s.turns.state.CurrentTurn
		for i := 0; i < s.def.DisksPerTurn; i++ {
			d := object.NewDiskRandom(s.rng, s.nextDiskID, turn, s.settings.Gravity, s.field, s.settings.LookBackFrames)
			s.nextDiskID++
			s.disks = append(s.disks, d)
			res.Events = append(res.Events, Event{
				Type:     EventDiskSpawned,
				Turn:     turn,
				DiskID:   d.ID,
				Position: d.Position,
				Velocity: d.Velocity,
			})
		}
	case DecisionEnd:
		s.ended = true
		s.result = Termination{
			GameModeName: s.def.Name,
			FinalScore:   s.turns.Score(),
		}
		ended := s.result
		res.Ended = &ended
		res.Events = append(res.Events, Event{
			Type:   EventSessionEnded,
			Turn:   s.turns.state.CurrentTurn,
			Result: s.result,
		})
	}

	return res
}

// Ended reports whether the session has terminated.
func (s *Session) Ended() bool {
	return s.ended
}

// Result returns the termination data. Only meaningful once Ended is true.
func (s *Session) Result() Termination {
	return s.result
}

// Def returns the game mode being played.
func (s *Session) Def() Def {
	return s.def
}

// Turns returns the current score bookkeeping.
func (s *Session) Turns() TurnState {
	return s.turns.State()
}

// History returns a copy of the resolved turns.
func (s *Session) History() []TurnOutcome {
	h := s.turns.History()
	out := make([]TurnOutcome, len(h))
	copy(out, h)
	return out
}

// Phase returns the turn cycle phase as of the last step.
func (s *Session) Phase() Phase {
	return s.turns.Phase(s.now)
}
