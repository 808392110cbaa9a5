package loop

import (
	"time"

	"github.com/cinghycreations/diskiller/internal/records"
	"github.com/cinghycreations/diskiller/internal/session"
)

// Screen is the screen a player is looking at.
type Screen int

const (
	ScreenMenu     Screen = iota // Mode selection
	ScreenPlaying                // Session running
	ScreenGameOver               // Final score of the last session
	ScreenRecords                // Best scores and recent runs
	ScreenShutdown               // Server going down
)

func (s Screen) String() string {
	switch s {
	case ScreenMenu:
		return "menu"
	case ScreenPlaying:
		return "playing"
	case ScreenGameOver:
		return "game-over"
	case ScreenRecords:
		return "records"
	case ScreenShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// State holds one player's screen state between frames.
type State struct {
	Screen     Screen
	prevScreen Screen
	Running    bool
	MenuIndex  int

	Session *session.Session
	Mode    session.Def

	// Last finished session
	Result    session.Termination
	Submitted records.SubmitResult
	SubmitErr error

	Bests  []records.Best
	Recent []records.Run

	lastInput  time.Time
	shutdownAt time.Time
}

// newState starts on the menu at now.
func newState(now time.Time) *State {
	return &State{
		Screen:     ScreenMenu,
		prevScreen: ScreenMenu,
		Running:    true,
		lastInput:  now,
	}
}

// bestFor returns the stored best of mode, if any.
func (s *State) bestFor(mode string) (records.Best, bool) {
	for _, b := range s.Bests {
		if b.Mode == mode {
			return b, true
		}
	}
	return records.Best{}, false
}
