package loop

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cinghycreations/diskiller/internal/config"
	"github.com/cinghycreations/diskiller/internal/draw"
	"github.com/cinghycreations/diskiller/internal/input"
	"github.com/cinghycreations/diskiller/internal/records"
	"github.com/cinghycreations/diskiller/internal/session"
)

const frame = time.Second / 60

var epoch = time.Unix(1000, 0)

type submission struct {
	mode, player string
	score        int
	history      []records.TurnRecord
}

// fakeRecorder keeps submissions in memory.
type fakeRecorder struct {
	submitted []submission
	bests     []records.Best
	recentFor []string
	submitErr error
}

func (f *fakeRecorder) Submit(_ context.Context, mode, player string, score int, history []records.TurnRecord) (records.SubmitResult, error) {
	if f.submitErr != nil {
		return records.SubmitResult{}, f.submitErr
	}
	f.submitted = append(f.submitted, submission{mode, player, score, history})
	return records.SubmitResult{RunID: "run-1", NewBest: true}, nil
}

func (f *fakeRecorder) Bests(context.Context) ([]records.Best, error) {
	return f.bests, nil
}

func (f *fakeRecorder) RecentRuns(_ context.Context, mode string, _ int) ([]records.Run, error) {
	f.recentFor = append(f.recentFor, mode)
	return nil, nil
}

func testModes() []session.Def {
	return []session.Def{
		{Name: "one", Title: "One turn", Termination: session.FixedTurnCount, TurnCount: 1, DisksPerTurn: 1},
		{Name: "two", Title: "Two turns", Termination: session.FixedTurnCount, TurnCount: 2, DisksPerTurn: 1},
		{Name: "last", Title: "Survival", Termination: session.SurviveUntilFirstFailure, DisksPerTurn: 1},
	}
}

// harness drives a game with a fixed 60 Hz clock.
type harness struct {
	t   *testing.T
	g   *Game
	now time.Time
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	if opts.Settings == (config.Settings{}) {
		opts.Settings = config.DefaultSettings()
	}
	if opts.Modes == nil {
		opts.Modes = testModes()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Player == "" {
		opts.Player = "alice"
	}
	g, err := NewGame(opts, epoch)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return &harness{t: t, g: g, now: epoch}
}

func (h *harness) update(in input.Input) {
	h.now = h.now.Add(frame)
	h.g.Update(context.Background(), in, h.now, frame)
}

func (h *harness) runUntil(what string, maxFrames int, done func() bool) {
	h.t.Helper()
	for i := 0; i < maxFrames; i++ {
		h.update(input.Input{})
		if done() {
			return
		}
	}
	h.t.Fatalf("timed out after %d frames waiting for %s", maxFrames, what)
}

func (h *harness) render() string {
	var buf bytes.Buffer
	cw := draw.NewChunkWriter(&buf)
	h.g.Draw(cw, draw.FitSquare(80, 24), h.now)
	if err := cw.Flush(); err != nil {
		h.t.Fatalf("Flush: %v", err)
	}
	return buf.String()
}

func bufioReader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestNewGameRejectsInvalidModes(t *testing.T) {
	_, err := NewGame(Options{
		Settings: config.DefaultSettings(),
		Modes:    []session.Def{{Name: "broken"}},
	}, epoch)
	if !errors.Is(err, session.ErrInvalidDef) {
		t.Errorf("expected ErrInvalidDef, got %v", err)
	}

	bad := config.DefaultSettings()
	bad.DiskRadius = -1
	if _, err := NewGame(Options{Settings: bad}, epoch); !errors.Is(err, config.ErrInvalidSetting) {
		t.Errorf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestMenuNavigation(t *testing.T) {
	rec := &fakeRecorder{}
	h := newHarness(t, Options{Records: rec})
	st := h.g.State()

	h.update(input.Input{Up: true})
	if st.MenuIndex != 2 {
		t.Errorf("expected Up to wrap to 2, got %d", st.MenuIndex)
	}
	h.update(input.Input{Down: true})
	h.update(input.Input{Down: true})
	if st.MenuIndex != 1 {
		t.Errorf("expected index 1, got %d", st.MenuIndex)
	}
	if last := rec.recentFor[len(rec.recentFor)-1]; last != "two" {
		t.Errorf("expected recent runs of two, got %s", last)
	}

	h.update(input.Input{Enter: true})
	if st.Screen != ScreenPlaying {
		t.Fatalf("expected playing, got %v", st.Screen)
	}
	if st.Mode.Name != "two" || st.Session == nil {
		t.Errorf("expected a session of mode two, got %q", st.Mode.Name)
	}
}

func TestFinishedSessionIsSubmitted(t *testing.T) {
	rec := &fakeRecorder{}
	h := newHarness(t, Options{Records: rec})
	st := h.g.State()

	h.update(input.Input{Enter: true})
	h.runUntil("game over", 60*20, func() bool { return st.Screen == ScreenGameOver })

	if len(rec.submitted) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(rec.submitted))
	}
	sub := rec.submitted[0]
	if sub.mode != "one" || sub.player != "alice" || sub.score != 0 {
		t.Errorf("unexpected submission %+v", sub)
	}
	if len(sub.history) != 1 || sub.history[0].Success {
		t.Errorf("expected one failed turn, got %+v", sub.history)
	}
	if st.Result.GameModeName != "one" || !st.Submitted.NewBest {
		t.Errorf("unexpected result %+v / %+v", st.Result, st.Submitted)
	}

	out := h.render()
	if !strings.Contains(out, "GAME OVER") || !strings.Contains(out, "NEW BEST!") {
		t.Errorf("game over screen missing text: %q", out)
	}

	h.update(input.Input{Enter: true})
	if st.Screen != ScreenPlaying || st.Session.Ended() {
		t.Errorf("expected a fresh session after Enter, got %v", st.Screen)
	}
}

func TestSubmitErrorIsShown(t *testing.T) {
	rec := &fakeRecorder{submitErr: errors.New("disk full")}
	h := newHarness(t, Options{Records: rec})
	st := h.g.State()

	h.update(input.Input{Enter: true})
	h.runUntil("game over", 60*20, func() bool { return st.Screen == ScreenGameOver })

	if st.SubmitErr == nil {
		t.Error("expected the submit error to be kept")
	}
	if out := h.render(); !strings.Contains(out, "could not be saved") {
		t.Errorf("expected save failure notice, got %q", out)
	}
}

func TestEscapeAbandonsSession(t *testing.T) {
	rec := &fakeRecorder{}
	h := newHarness(t, Options{Records: rec})
	st := h.g.State()

	h.update(input.Input{Enter: true})
	h.update(input.Input{})
	h.update(input.Input{Escape: true})

	if st.Screen != ScreenMenu {
		t.Errorf("expected menu, got %v", st.Screen)
	}
	if len(rec.submitted) != 0 {
		t.Errorf("abandoned session should not be stored, got %d", len(rec.submitted))
	}
}

func TestRecordsScreen(t *testing.T) {
	rec := &fakeRecorder{bests: []records.Best{{Mode: "two", Player: "bob", Score: 7}}}
	h := newHarness(t, Options{Records: rec})
	h.g.refreshRecords(context.Background())
	st := h.g.State()

	if out := h.render(); !strings.Contains(out, "Two turns  (best 7)") {
		t.Errorf("menu should show the best score, got %q", out)
	}

	h.update(input.Input{Records: true})
	if st.Screen != ScreenRecords {
		t.Fatalf("expected records screen, got %v", st.Screen)
	}
	out := h.render()
	if !strings.Contains(out, "bob") || !strings.Contains(out, "none yet") {
		t.Errorf("records screen missing entries: %q", out)
	}

	h.update(input.Input{Escape: true})
	if st.Screen != ScreenMenu {
		t.Errorf("expected to return to the menu, got %v", st.Screen)
	}
}

func TestRecordsWithoutStore(t *testing.T) {
	h := newHarness(t, Options{})
	h.update(input.Input{Records: true})
	if out := h.render(); !strings.Contains(out, "not kept") {
		t.Errorf("expected a notice without a store, got %q", out)
	}
}

func TestQuitStopsGame(t *testing.T) {
	h := newHarness(t, Options{})
	h.update(input.Input{Enter: true})
	h.update(input.Input{Quit: true})
	if h.g.State().Running {
		t.Error("expected Quit to stop the game")
	}
}

func TestIdlePlayerIsDisconnected(t *testing.T) {
	h := newHarness(t, Options{IdleTimeout: InactivityDisconnect})
	st := h.g.State()

	h.now = epoch.Add(InactivityWarn + time.Second)
	if out := h.render(); !strings.Contains(out, "Inactive") {
		t.Errorf("expected inactivity warning, got %q", out)
	}

	h.update(input.Input{Pressed: []byte{'w'}, Up: true})
	if !st.Running {
		t.Fatal("a key press should keep the player connected")
	}
	if out := h.render(); strings.Contains(out, "Inactive") {
		t.Error("warning should clear after input")
	}

	h.now = h.now.Add(InactivityDisconnect)
	h.update(input.Input{})
	if st.Running {
		t.Error("expected idle player to be disconnected")
	}
}

func TestShutdownNotice(t *testing.T) {
	lobby := NewLobby()
	h := newHarness(t, Options{Lobby: lobby})
	h.g.handle = lobby.Join("alice")
	st := h.g.State()

	lobby.Shutdown(0)
	h.update(input.Input{})
	if st.Screen != ScreenShutdown {
		t.Fatalf("expected shutdown screen, got %v", st.Screen)
	}
	if out := h.render(); !strings.Contains(out, "SHUTTING DOWN") {
		t.Errorf("expected shutdown notice, got %q", out)
	}

	h.now = h.now.Add(shutdownDisplay)
	h.update(input.Input{})
	if st.Running {
		t.Error("expected the game to stop after the notice")
	}
}

func TestLogsSessionEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	h := newHarness(t, Options{Logger: logger})
	st := h.g.State()

	h.update(input.Input{Enter: true})
	h.runUntil("game over", 60*20, func() bool { return st.Screen == ScreenGameOver })

	out := buf.String()
	for _, want := range []string{"session started", "disk spawned", "disk missed", "turn resolved", "session ended"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestRunStopsOnQuit(t *testing.T) {
	var out bytes.Buffer
	opts := Options{
		Settings:     config.DefaultSettings(),
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
		Lobby:        NewLobby(),
	}
	r := bufioReader("q")

	if err := Run(context.Background(), r, &out, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if opts.Lobby.Players() != 0 {
		t.Errorf("expected the player to leave the lobby, got %d", opts.Lobby.Players())
	}
	if !strings.HasSuffix(out.String(), "\033[?25h") {
		t.Errorf("expected the cursor to be restored last, got %q", out.String())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{
		Settings:     config.DefaultSettings(),
		TermSizeFunc: func() (int, int, error) { return 80, 24, nil },
	}
	if err := Run(ctx, bufioReader(""), &bytes.Buffer{}, opts); err != nil {
		t.Errorf("expected a clean stop, got %v", err)
	}
}
