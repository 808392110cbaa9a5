package draw

import (
	"fmt"
	"strings"
	"time"

	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/physics"
	"github.com/cinghycreations/diskiller/internal/session"
)

// Scene draws session snapshots onto a canvas scaled from the playfield.
type Scene struct {
	canvas  *Canvas
	anims   *content.Table
	scenery []content.Tile
}

// NewScene creates a scene renderer using anims for explosion frames.
func NewScene(anims *content.Table) *Scene {
	return &Scene{
		canvas:  NewScaledCanvas(content.FieldWidth, content.FieldHeight/2, content.FieldWidth, content.FieldHeight),
		anims:   anims,
		scenery: content.Scenery(),
	}
}

// Draw renders snap into cw at the position given by layout: field, then
// explosion glyphs, then the HUD rows.
func (s *Scene) Draw(cw *ChunkWriter, layout Layout, snap session.Snapshot) {
	c := s.canvas
	c.Resize(layout.Cols, layout.Rows)
	c.SetOffset(layout.OffsetCol, layout.OffsetRow)
	c.Clear()

	s.drawField(snap)
	c.Render(cw)
	c.RenderBorder(cw)

	for _, e := range snap.Explosions {
		glyph := s.explosionGlyph(e)
		if glyph == 0 {
			continue
		}
		col, row := c.LogicalToTerminal(e.Position)
		cw.WriteAt(col+layout.OffsetCol, row+layout.OffsetRow, string(glyph))
	}

	s.drawHUD(cw, layout, snap)
}

// drawField draws everything that lives in playfield coordinates.
func (s *Scene) drawField(snap session.Snapshot) {
	c := s.canvas

	for _, t := range s.scenery {
		drawTile(c, t)
	}

	for _, d := range snap.Disks {
		c.DrawCircle(d.Position, d.Radius, true)
	}

	r := snap.Rifle
	c.DrawLine(r.Origin, r.Origin.Add(physics.FromAngle(r.Angle, content.RifleBarrelLength)))
	if r.FireActive {
		c.DrawLine(r.FireStart, r.FireEnd)
	}

	for _, e := range snap.Explosions {
		anim, err := s.anims.Animation(e.Animation)
		if err != nil || len(anim.Frames) == 0 {
			continue
		}
		f := anim.Frames[anim.FrameAt(secondsToDuration(e.Elapsed))]
		c.DrawCircle(e.Position, f.Radius, false)
	}
}

func (s *Scene) explosionGlyph(e session.ExplosionView) rune {
	anim, err := s.anims.Animation(e.Animation)
	if err != nil || len(anim.Frames) == 0 {
		return 0
	}
	return anim.Frames[anim.FrameAt(secondsToDuration(e.Elapsed))].Glyph
}

// drawTile draws one 1x1 scenery cell.
func drawTile(c *Canvas, t content.Tile) {
	p := t.Position
	at := func(dx, dy float64) physics.Vec2 {
		return physics.Vec2{X: p.X + dx, Y: p.Y + dy}
	}

	switch t.Kind {
	case content.TileCharacter:
		c.DrawCircle(at(0.4, 0.2), 0.15, true)
		c.DrawLine(at(0.4, 0.35), at(0.4, 0.75))
		c.DrawLine(at(0.4, 0.75), at(0.2, 1))
		c.DrawLine(at(0.4, 0.75), at(0.6, 1))
		c.DrawLine(at(0.4, 0.45), content.RifleOrigin)
	case content.TileRock:
		pts := c.borrowPoints(6)
		pts[0] = at(0.1, 0.3)
		pts[1] = at(0.4, 0.05)
		pts[2] = at(0.85, 0.15)
		pts[3] = at(1, 0.6)
		pts[4] = at(0.8, 1)
		pts[5] = at(0.05, 1)
		c.DrawPolygon(pts, true)
	case content.TileTreeTop:
		pts := c.borrowPoints(3)
		pts[0] = at(0.5, 0)
		pts[1] = at(0.95, 1)
		pts[2] = at(0.05, 1)
		c.DrawPolygon(pts, true)
	case content.TileTreeBottom:
		c.FillRect(at(0.4, 0), 0.2, 1)
	}
}

// drawHUD writes the score line above the field and the key help below it.
func (s *Scene) drawHUD(cw *ChunkWriter, layout Layout, snap session.Snapshot) {
	turn := fmt.Sprintf("Turn %d", snap.CurrentTurn)
	if snap.TurnCount > 0 {
		turn = fmt.Sprintf("Turn %d/%d", snap.CurrentTurn, snap.TurnCount)
	}
	left := fmt.Sprintf("%s  %s  Score %d  Failed %d", strings.ToUpper(snap.Mode.Name), turn, snap.SuccessfulTurns, snap.FailedTurns)
	cw.WriteAt(layout.OffsetCol+1, 1, left)

	right := ReloadBar(snap.Rifle.Reloaded, snap.Rifle.ReloadProgress, 10)
	cw.WriteAt(max(layout.OffsetCol+layout.Cols-len([]rune(right))+1, 1), 1, right)

	help := "A/D aim  SPACE fire  R restart  ESC menu  Q quit"
	cw.WriteCentered(layout.TermCols/2, layout.TermRows, help)
}

// ReloadBar renders the rifle state as a fixed-width gauge.
func ReloadBar(reloaded bool, progress float64, width int) string {
	if reloaded {
		return "[" + strings.Repeat("#", width) + "] READY"
	}
	filled := int(progress * float64(width))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "] RELOAD"
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
