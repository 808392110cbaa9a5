package session

import (
	"fmt"

	"github.com/cinghycreations/diskiller/internal/physics"
)

// EventType identifies what happened during a step.
type EventType int

const (
	EventDiskSpawned EventType = iota
	EventShotFired
	EventDiskHit
	EventDiskMissed
	EventTurnResolved
	EventSessionEnded
)

func (t EventType) String() string {
	switch t {
	case EventDiskSpawned:
		return "disk-spawned"
	case EventShotFired:
		return "shot-fired"
	case EventDiskHit:
		return "disk-hit"
	case EventDiskMissed:
		return "disk-missed"
	case EventTurnResolved:
		return "turn-resolved"
	case EventSessionEnded:
		return "session-ended"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted by Step. Only the fields relevant to Type are set.
type Event struct {
	Type     EventType
	Turn     int
	DiskID   int          // Disk events
	Position physics.Vec2 // Disk events; muzzle for shots
	Velocity physics.Vec2 // EventDiskSpawned
	Angle    float64      // EventShotFired
	Outcome  TurnOutcome  // EventTurnResolved
	Result   Termination  // EventSessionEnded
}

// TurnOutcome is the bookkeeping of one resolved turn.
type TurnOutcome struct {
	Turn    int
	Hits    int
	Misses  int
	Success bool
}

// Termination is reported exactly once when a session ends.
type Termination struct {
	GameModeName string
	FinalScore   int
}

// StepResult is what one simulation step produced.
type StepResult struct {
	Events []Event
	// Ended is non-nil only on the step that ended the session.
	Ended *Termination
}
