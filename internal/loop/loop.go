// Package loop runs a player's frames: it reads input, routes it to the
// current screen, steps the shooting session and draws the result.
package loop

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cinghycreations/diskiller/internal/config"
	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/draw"
	"github.com/cinghycreations/diskiller/internal/input"
	"github.com/cinghycreations/diskiller/internal/records"
	"github.com/cinghycreations/diskiller/internal/session"
)

// Recorder persists finished sessions. *records.Store implements it.
type Recorder interface {
	Submit(ctx context.Context, mode, player string, score int, history []records.TurnRecord) (records.SubmitResult, error)
	Bests(ctx context.Context) ([]records.Best, error)
	RecentRuns(ctx context.Context, mode string, limit int) ([]records.Run, error)
}

var _ Recorder = (*records.Store)(nil)

// Options configures a Game. Zero values pick defaults.
type Options struct {
	Settings     config.Settings
	Modes        []session.Def     // session.Modes() if empty
	Anims        *content.Table    // content.DefaultTable() if nil
	Records      Recorder          // nil disables persistence
	Logger       *log.Logger       // Discards if nil
	Player       string            // Name stored with runs
	TermSizeFunc draw.TermSizeFunc // draw.DefaultTermSizeFunc if nil
	Lobby        *Lobby            // Shared server lobby, nil when playing locally
	IdleTimeout  time.Duration     // Disconnect after this long without input, 0 disables
	Rand         *rand.Rand        // Spawn randomness for every session, seeded per session if nil
}

// Game is one player's screens and session.
type Game struct {
	opts   Options
	state  *State
	log    *log.Logger
	scene  *draw.Scene
	stream *input.Stream
	handle *PlayerHandle
}

// NewGame validates the options and builds a game sitting on the menu.
func NewGame(opts Options, now time.Time) (*Game, error) {
	if err := opts.Settings.Validate(); err != nil {
		return nil, err
	}
	if len(opts.Modes) == 0 {
		opts.Modes = session.Modes()
	}
	for _, m := range opts.Modes {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	if opts.Anims == nil {
		opts.Anims = content.DefaultTable()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.TermSizeFunc == nil {
		opts.TermSizeFunc = draw.DefaultTermSizeFunc
	}

	return &Game{
		opts:  opts,
		state: newState(now),
		log:   opts.Logger,
		scene: draw.NewScene(opts.Anims),
	}, nil
}

// State exposes the screen state.
func (g *Game) State() *State {
	return g.state
}

// Run starts the game loop with the standard Input → Update → Draw cycle.
// Blocks until the player quits, the input closes or ctx is cancelled.
func Run(ctx context.Context, r *bufio.Reader, w io.Writer, opts Options) error {
	g, err := NewGame(opts, time.Now())
	if err != nil {
		return err
	}
	g.stream = input.StartStream(r)

	if opts.Lobby != nil {
		g.handle = opts.Lobby.Join(opts.Player)
		defer opts.Lobby.Leave(g.handle.ID)
	}

	g.refreshRecords(ctx)

	draw.HideCursor(w)
	defer draw.ShowCursor(w)
	draw.ClearScreen(w)

	cw := draw.NewChunkWriter(w)
	lastTime := time.Now()

	for g.state.Running {
		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}

		// ===== INPUT + UPDATE PHASE =====
		g.Update(ctx, input.ReadInput(g.stream), frameStart, delta)

		// ===== DRAW PHASE =====
		width, height, err := g.opts.TermSizeFunc()
		if err != nil {
			return err
		}
		g.Draw(cw, draw.FitSquare(width, height), frameStart)
		if err := cw.Flush(); err != nil {
			return err
		}

		// ===== FRAME TIMING =====
		elapsed := time.Since(frameStart)
		if elapsed < config.TargetFrameTime {
			time.Sleep(config.TargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(w)
	return nil
}

// Update applies one frame of input to the current screen.
func (g *Game) Update(ctx context.Context, in input.Input, now time.Time, delta time.Duration) {
	st := g.state

	if len(in.Pressed) > 0 {
		st.lastInput = now
	}
	if in.Quit {
		st.Running = false
		return
	}
	if g.handle != nil && st.Screen != ScreenShutdown {
		select {
		case ev := <-g.handle.Events:
			if ev == LobbyShutdown {
				g.log.Info("server shutdown notice", "player", g.opts.Player)
				st.shutdownAt = now
				g.switchScreen(ScreenShutdown)
			}
		default:
		}
	}
	if g.opts.IdleTimeout > 0 && now.Sub(st.lastInput) >= g.opts.IdleTimeout {
		g.log.Info("disconnecting idle player", "player", g.opts.Player, "idle", now.Sub(st.lastInput).Round(time.Second))
		st.Running = false
		return
	}

	switch st.Screen {
	case ScreenMenu:
		g.updateMenu(ctx, in, now)
	case ScreenPlaying:
		g.updatePlaying(ctx, in, now, delta)
	case ScreenGameOver:
		g.updateGameOver(ctx, in, now)
	case ScreenRecords:
		g.updateRecords(in)
	case ScreenShutdown:
		if now.Sub(st.shutdownAt) >= shutdownDisplay {
			st.Running = false
		}
	}
}

// switchScreen moves to screen and forgets held keys so they do not act twice.
func (g *Game) switchScreen(screen Screen) {
	g.state.Screen = screen
	if g.stream != nil {
		input.ResetKeyInput(g.stream)
	}
}

// startSession begins a fresh session of mode at now.
func (g *Game) startSession(mode session.Def, now time.Time) {
	sess, err := session.New(mode, g.opts.Settings, g.opts.Anims, session.Options{
		Start: now,
		Rand:  g.opts.Rand,
	})
	if err != nil {
		// Settings and modes were validated in NewGame
		g.log.Error("cannot start session", "mode", mode.Name, "err", err)
		return
	}
	g.state.Session = sess
	g.state.Mode = mode
	g.log.Info("session started", "mode", mode.Name, "player", g.opts.Player)
	g.switchScreen(ScreenPlaying)
}

// finishSession stores the result of an ended session and shows it.
func (g *Game) finishSession(ctx context.Context, result session.Termination) {
	st := g.state
	st.Result = result
	st.Submitted = records.SubmitResult{}
	st.SubmitErr = nil

	if g.opts.Records != nil {
		history := st.Session.History()
		turns := make([]records.TurnRecord, len(history))
		for i, o := range history {
			turns[i] = records.TurnRecord{Turn: o.Turn, Hits: o.Hits, Misses: o.Misses, Success: o.Success}
		}

		res, err := g.opts.Records.Submit(ctx, result.GameModeName, g.opts.Player, result.FinalScore, turns)
		if err != nil {
			g.log.Error("cannot store run", "mode", result.GameModeName, "err", err)
			st.SubmitErr = err
		} else {
			st.Submitted = res
			if res.NewBest {
				g.log.Info("new best score", "mode", result.GameModeName, "score", result.FinalScore, "previous", res.Previous, "run", res.RunID)
			}
		}
		g.refreshRecords(ctx)
	}

	g.switchScreen(ScreenGameOver)
}

// refreshRecords reloads the best scores and the recent runs of the
// highlighted mode.
func (g *Game) refreshRecords(ctx context.Context) {
	if g.opts.Records == nil {
		return
	}
	st := g.state

	bests, err := g.opts.Records.Bests(ctx)
	if err != nil {
		g.log.Warn("cannot load best scores", "err", err)
		return
	}
	st.Bests = bests

	mode := g.opts.Modes[st.MenuIndex].Name
	recent, err := g.opts.Records.RecentRuns(ctx, mode, recentRunsShown)
	if err != nil {
		g.log.Warn("cannot load recent runs", "mode", mode, "err", err)
		return
	}
	st.Recent = recent
}

// logEvents writes session events to the structured log.
func (g *Game) logEvents(events []session.Event) {
	for _, e := range events {
		switch e.Type {
		case session.EventDiskSpawned:
			g.log.Debug("disk spawned", "turn", e.Turn, "disk", e.DiskID,
				"x", e.Position.X, "vx", e.Velocity.X, "vy", e.Velocity.Y)
		case session.EventShotFired:
			g.log.Debug("shot fired", "turn", e.Turn, "angle", e.Angle)
		case session.EventDiskHit:
			g.log.Debug("disk hit", "turn", e.Turn, "disk", e.DiskID)
		case session.EventDiskMissed:
			g.log.Debug("disk missed", "turn", e.Turn, "disk", e.DiskID)
		case session.EventTurnResolved:
			g.log.Info("turn resolved", "turn", e.Turn, "hits", e.Outcome.Hits,
				"misses", e.Outcome.Misses, "success", e.Outcome.Success)
		case session.EventSessionEnded:
			g.log.Info("session ended", "mode", e.Result.GameModeName, "score", e.Result.FinalScore)
		}
	}
}

// Draw writes the current screen into cw.
func (g *Game) Draw(cw *draw.ChunkWriter, layout draw.Layout, now time.Time) {
	cw.WriteString("\033[H\033[2J")

	st := g.state
	switch st.Screen {
	case ScreenMenu:
		g.drawMenu(cw, layout)
	case ScreenPlaying:
		g.scene.Draw(cw, layout, st.Session.Snapshot())
	case ScreenGameOver:
		g.drawGameOver(cw, layout)
	case ScreenRecords:
		g.drawRecords(cw, layout)
	case ScreenShutdown:
		g.drawShutdown(cw, layout, now)
	}

	if g.opts.IdleTimeout > 0 && st.Screen != ScreenShutdown {
		idle := now.Sub(st.lastInput)
		if idle >= InactivityWarn && idle < g.opts.IdleTimeout {
			g.drawInactivity(cw, layout, g.opts.IdleTimeout-idle)
		}
	}
}
