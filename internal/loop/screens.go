package loop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cinghycreations/diskiller/internal/draw"
	"github.com/cinghycreations/diskiller/internal/input"
	"github.com/cinghycreations/diskiller/internal/session"
)

// updateMenu handles the mode selection screen.
func (g *Game) updateMenu(ctx context.Context, in input.Input, now time.Time) {
	st := g.state
	n := len(g.opts.Modes)

	switch {
	case in.Up:
		st.MenuIndex = (st.MenuIndex + n - 1) % n
		g.refreshRecords(ctx)
	case in.Down:
		st.MenuIndex = (st.MenuIndex + 1) % n
		g.refreshRecords(ctx)
	case in.Enter || in.Fire:
		g.startSession(g.opts.Modes[st.MenuIndex], now)
	case in.Records:
		g.openRecords(ScreenMenu)
	}
}

// updatePlaying steps the running session.
func (g *Game) updatePlaying(ctx context.Context, in input.Input, now time.Time, delta time.Duration) {
	st := g.state
	if in.Escape {
		g.log.Info("session abandoned", "mode", st.Mode.Name, "turn", st.Session.Turns().CurrentTurn)
		g.switchScreen(ScreenMenu)
		return
	}

	res := st.Session.Step(session.Input{
		AimLeft:  in.AimLeft,
		AimRight: in.AimRight,
		Fire:     in.Fire,
		Reset:    in.Reset,
		Delta:    delta,
		Now:      now,
	})
	if in.Reset {
		g.log.Info("session restarted", "mode", st.Mode.Name)
	}
	g.logEvents(res.Events)

	if res.Ended != nil {
		g.finishSession(ctx, *res.Ended)
	}
}

// updateGameOver handles the final score screen.
func (g *Game) updateGameOver(ctx context.Context, in input.Input, now time.Time) {
	switch {
	case in.Enter || in.Reset:
		g.startSession(g.state.Mode, now)
	case in.Escape:
		g.switchScreen(ScreenMenu)
	case in.Records:
		g.openRecords(ScreenGameOver)
	}
}

// updateRecords handles the records screen.
func (g *Game) updateRecords(in input.Input) {
	if in.Escape || in.Enter || in.Records {
		g.switchScreen(g.state.prevScreen)
	}
}

// openRecords shows the records screen, returning to from when it closes.
func (g *Game) openRecords(from Screen) {
	g.state.prevScreen = from
	g.switchScreen(ScreenRecords)
}

// drawMenu draws the title and the list of modes.
func (g *Game) drawMenu(cw *draw.ChunkWriter, layout draw.Layout) {
	st := g.state
	centerX := layout.TermCols / 2
	top := max(layout.TermRows/2-len(g.opts.Modes)-3, 1)

	cw.WriteCentered(centerX, top, "D I S K I L L E R")

	for i, m := range g.opts.Modes {
		line := m.Title
		if b, ok := st.bestFor(m.Name); ok {
			line = fmt.Sprintf("%s  (best %d)", m.Title, b.Score)
		}
		if i == st.MenuIndex {
			line = "> " + line + " <"
		}
		cw.WriteCentered(centerX, top+3+i, line)
	}

	help := "W/S select  ENTER start  H records  Q quit"
	cw.WriteCentered(centerX, top+len(g.opts.Modes)+5, help)
}

// drawGameOver draws the result of the last session.
func (g *Game) drawGameOver(cw *draw.ChunkWriter, layout draw.Layout) {
	st := g.state
	centerX := layout.TermCols / 2
	centerY := layout.TermRows / 2

	cw.WriteCentered(centerX, centerY-3, "GAME OVER")
	cw.WriteCentered(centerX, centerY-1, fmt.Sprintf("%s  Score %d", strings.ToUpper(st.Result.GameModeName), st.Result.FinalScore))

	var status string
	switch {
	case g.opts.Records == nil:
	case st.SubmitErr != nil:
		status = "Score could not be saved"
	case st.Submitted.NewBest && st.Submitted.HadBest:
		status = fmt.Sprintf("NEW BEST! Previous %d", st.Submitted.Previous)
	case st.Submitted.NewBest:
		status = "NEW BEST!"
	default:
		if b, ok := st.bestFor(st.Result.GameModeName); ok {
			status = fmt.Sprintf("Best %d by %s", b.Score, b.Player)
		}
	}
	if status != "" {
		cw.WriteCentered(centerX, centerY+1, status)
	}

	cw.WriteCentered(centerX, centerY+3, "ENTER play again  ESC menu  H records  Q quit")
}

// drawRecords draws the best score of every mode and the recent runs of
// the highlighted one.
func (g *Game) drawRecords(cw *draw.ChunkWriter, layout draw.Layout) {
	st := g.state
	centerX := layout.TermCols / 2
	row := 2

	cw.WriteCentered(centerX, row, "R E C O R D S")
	row += 2

	if g.opts.Records == nil {
		cw.WriteCentered(centerX, row, "Records are not kept in this game")
	} else {
		for _, m := range g.opts.Modes {
			line := fmt.Sprintf("%-10s  -", m.Name)
			if b, ok := st.bestFor(m.Name); ok {
				line = fmt.Sprintf("%-10s  %3d  %s", m.Name, b.Score, b.Player)
			}
			cw.WriteCentered(centerX, row, line)
			row++
		}

		row++
		mode := g.opts.Modes[st.MenuIndex].Name
		cw.WriteCentered(centerX, row, "Recent "+mode+" runs")
		row++
		if len(st.Recent) == 0 {
			cw.WriteCentered(centerX, row, "none yet")
		}
		for _, r := range st.Recent {
			line := fmt.Sprintf("%s  %3d  %s", r.CreatedAt.Format(time.DateTime), r.Score, r.Player)
			cw.WriteCentered(centerX, row, line)
			row++
		}
	}

	cw.WriteCentered(centerX, layout.TermRows, "ESC back")
}

// drawShutdown draws the countdown shown before the server disconnects.
func (g *Game) drawShutdown(cw *draw.ChunkWriter, layout draw.Layout, now time.Time) {
	centerX := layout.TermCols / 2
	centerY := layout.TermRows / 2

	left := max(shutdownDisplay-now.Sub(g.state.shutdownAt), 0)
	cw.WriteCentered(centerX, centerY-1, "SERVER SHUTTING DOWN")
	cw.WriteCentered(centerX, centerY+1, fmt.Sprintf("Disconnecting in %d seconds", int(left.Seconds()+0.999)))
}

// drawInactivity warns a player that they will be disconnected.
func (g *Game) drawInactivity(cw *draw.ChunkWriter, layout draw.Layout, left time.Duration) {
	msg := fmt.Sprintf(" Inactive: disconnecting in %d seconds ", int(left.Seconds()+0.999))
	cw.WriteCentered(layout.TermCols/2, layout.TermRows/2, msg)
}
