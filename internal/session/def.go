package session

import (
	"errors"
	"fmt"
)

// ErrInvalidDef is returned by New for a game mode that cannot be played.
var ErrInvalidDef = errors.New("invalid session definition")

// TerminationKind decides when a session is over.
type TerminationKind int

const (
	FixedTurnCount           TerminationKind = iota // Play exactly TurnCount turns
	SurviveUntilFirstFailure                        // Play until a turn misses a disk
)

func (k TerminationKind) String() string {
	switch k {
	case FixedTurnCount:
		return "fixed-turns"
	case SurviveUntilFirstFailure:
		return "survival"
	default:
		return fmt.Sprintf("TerminationKind(%d)", int(k))
	}
}

// Def describes a game mode. It is fixed for the whole session.
type Def struct {
	Name         string
	Title        string // Menu label
	Termination  TerminationKind
	TurnCount    int // Only used with FixedTurnCount
	DisksPerTurn int
}

// Validate reports why the definition cannot run.
func (d Def) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty mode name", ErrInvalidDef)
	}
	if d.DisksPerTurn < 1 {
		return fmt.Errorf("%w: mode %q needs at least one disk per turn", ErrInvalidDef, d.Name)
	}
	switch d.Termination {
	case FixedTurnCount:
		if d.TurnCount < 1 {
			return fmt.Errorf("%w: mode %q needs at least one turn", ErrInvalidDef, d.Name)
		}
	case SurviveUntilFirstFailure:
	default:
		return fmt.Errorf("%w: mode %q has unknown termination %v", ErrInvalidDef, d.Name, d.Termination)
	}
	return nil
}

// Modes returns the built-in game modes in menu order.
func Modes() []Def {
	return []Def{
		{Name: "classic", Title: "Classic - 10 turns", Termination: FixedTurnCount, TurnCount: 10, DisksPerTurn: 1},
		{Name: "doubles", Title: "Doubles - 10 turns, 2 disks", Termination: FixedTurnCount, TurnCount: 10, DisksPerTurn: 2},
		{Name: "survival", Title: "Survival - until first miss", Termination: SurviveUntilFirstFailure, DisksPerTurn: 1},
	}
}

// ModeByName looks up a built-in mode.
func ModeByName(name string) (Def, bool) {
	for _, d := range Modes() {
		if d.Name == name {
			return d, true
		}
	}
	return Def{}, false
}
