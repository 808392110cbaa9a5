package input

import (
	"bufio"
	"time"
)

// keyHoldDuration is how long a key is considered "held" after its last press.
// Terminals only report repeats, so aim and fire rely on this window.
const keyHoldDuration = 30 * time.Millisecond

// Input represents the current frame's input state.
//
// AimLeft, AimRight and Fire are held keys. The rest are taps: true only on
// the frame their byte arrived, so menus move one entry per press.
type Input struct {
	AimLeft  bool
	AimRight bool
	Fire     bool

	Up      bool
	Down    bool
	Enter   bool
	Reset   bool
	Records bool
	Quit    bool
	Escape  bool
	Pressed []byte
}

// keyState tracks the last time each held key was pressed.
type keyState struct {
	aimLeft  time.Time
	aimRight time.Time
	fire     time.Time
}

// Stream delivers input bytes via a channel and tracks key state for held keys.
type Stream struct {
	ch      chan byte
	state   keyState
	pending []byte // Unfinished escape sequence from the last read
}

func newStream() *Stream {
	return &Stream{ch: make(chan byte, 128)}
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := newStream()
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// ReadInput drains all available bytes from the stream (non-blocking).
// Handles escape sequences for arrow keys. A closed stream reports Quit.
func ReadInput(s *Stream) Input {
	return s.read(time.Now())
}

// ResetKeyInput forgets held keys and drops unread bytes, so a key held while
// leaving one screen does not leak into the next.
func ResetKeyInput(s *Stream) {
	s.state = keyState{}
	s.pending = nil
	for {
		select {
		case _, ok := <-s.ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (s *Stream) read(now time.Time) Input {
	var fresh []byte
	closed := false

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				closed = true
				break drain
			}
			fresh = append(fresh, b)
		default:
			break drain
		}
	}

	in := Input{Quit: closed, Pressed: fresh}

	// An escape sequence cut off by the previous read waits one frame for
	// its tail. With nothing new, a lone ESC is the Escape key.
	stale := len(fresh) == 0 || closed
	buf := append(s.pending, fresh...)
	s.pending = nil

	for i := 0; i < len(buf); i++ {
		b := buf[i]
		if b != '\x1b' {
			applyByte(&s.state, &in, b, now)
			continue
		}

		n, complete := escapeLen(buf[i:])
		switch {
		case !complete && stale:
			if n == 1 {
				in.Escape = true
			}
		case !complete:
			s.pending = append([]byte(nil), buf[i:]...)
		case n == 1:
			in.Escape = true
			continue
		default:
			applySequence(&s.state, &in, buf[i:i+n], now)
			i += n - 1
			continue
		}
		break
	}

	in.AimLeft = now.Sub(s.state.aimLeft) < keyHoldDuration
	in.AimRight = now.Sub(s.state.aimRight) < keyHoldDuration
	in.Fire = now.Sub(s.state.fire) < keyHoldDuration
	return in
}

// escapeLen returns the length of the escape sequence at the start of seq and
// whether it is complete. CSI sequences (ESC [) run to their final byte in
// 0x40-0x7E, SS3 sequences (ESC O) are three bytes. Any other byte after ESC
// makes ESC a key on its own.
func escapeLen(seq []byte) (int, bool) {
	if len(seq) == 1 {
		return 1, false
	}
	switch seq[1] {
	case '[':
		for j := 2; j < len(seq); j++ {
			if seq[j] >= 0x40 && seq[j] <= 0x7e {
				return j + 1, true
			}
		}
		return len(seq), false
	case 'O':
		if len(seq) < 3 {
			return len(seq), false
		}
		return 3, true
	default:
		return 1, true
	}
}

// applySequence handles a complete escape sequence. Arrow keys are read from
// the final byte, so modified arrows (ESC [1;5D) act like plain ones.
func applySequence(state *keyState, in *Input, seq []byte, now time.Time) {
	switch seq[len(seq)-1] {
	case 'A':
		in.Up = true
	case 'B':
		in.Down = true
	case 'C':
		state.aimRight = now
	case 'D':
		state.aimLeft = now
	}
}

// applyByte records a single key press.
func applyByte(state *keyState, in *Input, b byte, now time.Time) {
	switch b {
	case 'a', 'A':
		state.aimLeft = now
	case 'd', 'D':
		state.aimRight = now
	case ' ':
		state.fire = now
	case 'w', 'W':
		in.Up = true
	case 's', 'S':
		in.Down = true
	case '\n', '\r':
		in.Enter = true
	case 'r', 'R':
		in.Reset = true
	case 'h', 'H':
		in.Records = true
	case 'q', 'Q', '\x03':
		in.Quit = true
	}
}
