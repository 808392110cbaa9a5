package session

import (
	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/physics"
)

// DiskView is the renderer's view of a disk.
type DiskView struct {
	ID       int
	Position physics.Vec2
	Radius   float64
}

// ExplosionView is the renderer's view of an explosion.
type ExplosionView struct {
	Position  physics.Vec2
	Animation content.AnimationID
	Progress  float64 // 0 at creation, 1 when it expires
	Elapsed   float64 // Seconds since creation
}

// RifleView is the renderer's view of the rifle.
type RifleView struct {
	Origin         physics.Vec2
	Angle          float64
	FireActive     bool
	FireStart      physics.Vec2
	FireEnd        physics.Vec2
	Reloaded       bool
	ReloadProgress float64
}

// Snapshot is a read-only copy of everything a renderer or HUD needs. It
// does not alias session memory.
type Snapshot struct {
	Mode            Def
	Phase           Phase
	Disks           []DiskView
	Explosions      []ExplosionView
	Rifle           RifleView
	CurrentTurn     int
	TurnCount       int // Zero unless the mode has a fixed turn count
	SuccessfulTurns int
	FailedTurns     int
	Ended           bool
	Result          Termination
}

// Snapshot returns the state as of the last Step.
func (s *Session) Snapshot() Snapshot {
	state := s.turns.State()
	snap := Snapshot{
		Mode:            s.def,
		Phase:           s.Phase(),
		Disks:           make([]DiskView, 0, len(s.disks)),
		Explosions:      make([]ExplosionView, 0, len(s.explosions)),
		CurrentTurn:     state.CurrentTurn,
		SuccessfulTurns: state.SuccessfulTurns,
		FailedTurns:     state.FailedTurns,
		Ended:           s.ended,
		Result:          s.result,
	}
	if s.def.Termination == FixedTurnCount {
		snap.TurnCount = s.def.TurnCount
	}

	for _, d := range s.disks {
		snap.Disks = append(snap.Disks, DiskView{
			ID:       d.ID,
			Position: d.Position,
			Radius:   s.settings.DiskRadius,
		})
	}
	for _, e := range s.explosions {
		snap.Explosions = append(snap.Explosions, ExplosionView{
			Position:  e.Position,
			Animation: e.Animation,
			Progress:  e.Progress(s.now),
			Elapsed:   e.Elapsed(s.now).Seconds(),
		})
	}

	start, end := s.rifle.FireLine()
	snap.Rifle = RifleView{
		Origin:         s.rifle.Origin,
		Angle:          s.rifle.Angle,
		FireActive:     s.rifle.FireActive(),
		FireStart:      start,
		FireEnd:        end,
		Reloaded:       s.rifle.Reloaded,
		ReloadProgress: s.rifle.ReloadProgress(s.now),
	}
	return snap
}
