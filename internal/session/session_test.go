package session

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/cinghycreations/diskiller/internal/config"
	"github.com/cinghycreations/diskiller/internal/content"
	"github.com/cinghycreations/diskiller/internal/object"
	"github.com/cinghycreations/diskiller/internal/physics"
)

const frame = time.Second / 60

var epoch = time.Unix(1000, 0)

// harness drives a session with a fixed 60 Hz clock and records what it emits.
type harness struct {
	t      *testing.T
	s      *Session
	now    time.Time
	events []Event
	ends   []Termination
}

func newHarness(t *testing.T, def Def, tweak func(*config.Settings)) *harness {
	t.Helper()
	settings := config.DefaultSettings()
	if tweak != nil {
		tweak(&settings)
	}
	s, err := New(def, settings, content.DefaultTable(), Options{
		Start: epoch,
		Rand:  rand.New(rand.NewSource(1)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{t: t, s: s, now: epoch}
}

func (h *harness) step(in Input) StepResult {
	h.now = h.now.Add(frame)
	in.Delta = frame
	in.Now = h.now
	res := h.s.Step(in)
	h.events = append(h.events, res.Events...)
	if res.Ended != nil {
		h.ends = append(h.ends, *res.Ended)
	}
	return res
}

// runUntil steps with empty input until done returns true.
func (h *harness) runUntil(what string, maxFrames int, done func(StepResult) bool) StepResult {
	h.t.Helper()
	for i := 0; i < maxFrames; i++ {
		res := h.step(Input{})
		if done(res) {
			return res
		}
	}
	h.t.Fatalf("timed out after %d frames waiting for %s", maxFrames, what)
	return StepResult{}
}

func (h *harness) waitForSpawn() {
	h.t.Helper()
	h.runUntil("spawn", 600, func(StepResult) bool { return len(h.s.disks) > 0 })
}

// placeOnFireLine parks disk i, motionless, a quarter of the way along the
// fire line.
func (h *harness) placeOnFireLine(i int) {
	start, end := h.s.rifle.FireLine()
	h.s.disks[i].Position = start.Add(end.Sub(start).Scale(0.25))
	h.s.disks[i].Velocity = physics.Vec2{}
}

func (h *harness) count(typ EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func hasEvent(res StepResult, typ EventType) bool {
	for _, e := range res.Events {
		if e.Type == typ {
			return true
		}
	}
	return false
}

func classic(turns, disks int) Def {
	return Def{Name: "test", Termination: FixedTurnCount, TurnCount: turns, DisksPerTurn: disks}
}

func survival() Def {
	return Def{Name: "survival", Termination: SurviveUntilFirstFailure, DisksPerTurn: 1}
}

func TestNewRejectsInvalidInput(t *testing.T) {
	table := content.DefaultTable()

	if _, err := New(classic(0, 1), config.DefaultSettings(), table, Options{}); !errors.Is(err, ErrInvalidDef) {
		t.Errorf("expected ErrInvalidDef for zero turns, got %v", err)
	}
	if _, err := New(classic(1, 0), config.DefaultSettings(), table, Options{}); !errors.Is(err, ErrInvalidDef) {
		t.Errorf("expected ErrInvalidDef for zero disks, got %v", err)
	}

	bad := config.DefaultSettings()
	bad.LookBackFrames = 0
	if _, err := New(classic(1, 1), bad, table, Options{}); !errors.Is(err, config.ErrInvalidSetting) {
		t.Errorf("expected ErrInvalidSetting, got %v", err)
	}

	nan := config.DefaultSettings()
	nan.Gravity = math.NaN()
	if _, err := New(classic(1, 1), nan, table, Options{}); !errors.Is(err, config.ErrInvalidSetting) {
		t.Errorf("expected ErrInvalidSetting for NaN gravity, got %v", err)
	}

	if _, err := New(classic(1, 1), config.DefaultSettings(), table, Options{Animation: 99}); err == nil {
		t.Error("expected error for unknown explosion animation")
	}
}

func TestNewDefaultsAnimationTable(t *testing.T) {
	s, err := New(classic(1, 1), config.DefaultSettings(), nil, Options{Start: epoch})
	if err != nil {
		t.Fatalf("expected the default table to be used, got %v", err)
	}
	want, _ := content.DefaultTable().Animation(content.AnimationExplosion)
	if s.explosionLifetime != want.Lifetime() {
		t.Errorf("expected explosion lifetime %v, got %v", want.Lifetime(), s.explosionLifetime)
	}
}

func TestFirstSpawnWaitsForTurnDelay(t *testing.T) {
	h := newHarness(t, classic(3, 1), nil)

	res := h.runUntil("spawn", 600, func(r StepResult) bool { return hasEvent(r, EventDiskSpawned) })
	elapsed := h.now.Sub(epoch)
	if elapsed < config.DefaultTurnDelay {
		t.Errorf("spawned after %v, before the %v turn delay", elapsed, config.DefaultTurnDelay)
	}
	if elapsed > config.DefaultTurnDelay+frame {
		t.Errorf("spawned after %v, expected right after %v", elapsed, config.DefaultTurnDelay)
	}
	if h.s.Turns().CurrentTurn != 1 {
		t.Errorf("expected turn 1, got %d", h.s.Turns().CurrentTurn)
	}
	if len(res.Events) != 1 {
		t.Errorf("expected a single spawn event, got %v", res.Events)
	}
	if h.s.Phase() != PhaseInFlight {
		t.Errorf("expected in-flight phase, got %v", h.s.Phase())
	}
}

func TestFixedTurnSessionMissedDisk(t *testing.T) {
	h := newHarness(t, classic(1, 1), nil)

	h.runUntil("session end", 60*20, func(r StepResult) bool { return r.Ended != nil })

	if got := h.count(EventDiskSpawned); got != 1 {
		t.Errorf("expected 1 disk spawned, got %d", got)
	}
	if got := h.count(EventDiskMissed); got != 1 {
		t.Errorf("expected 1 disk missed, got %d", got)
	}
	turns := h.s.Turns()
	if turns.FailedTurns != 1 || turns.SuccessfulTurns != 0 {
		t.Errorf("expected 1 failed turn and 0 successful, got %+v", turns)
	}
	if len(h.ends) != 1 {
		t.Fatalf("expected one termination, got %d", len(h.ends))
	}
	if h.ends[0].FinalScore != 0 || h.ends[0].GameModeName != "test" {
		t.Errorf("unexpected termination %+v", h.ends[0])
	}
	if !h.s.Ended() || h.s.Phase() != PhaseEnded {
		t.Error("session should report ended")
	}
}

func TestTerminationEmittedOnce(t *testing.T) {
	h := newHarness(t, classic(1, 1), nil)
	h.runUntil("session end", 60*20, func(r StepResult) bool { return r.Ended != nil })

	for i := 0; i < 120; i++ {
		res := h.step(Input{Fire: true, AimLeft: true})
		if res.Ended != nil || len(res.Events) != 0 {
			t.Fatalf("ended session still produced output: %+v", res)
		}
	}
	if len(h.ends) != 1 || h.count(EventSessionEnded) != 1 {
		t.Errorf("expected exactly one termination, got %d", len(h.ends))
	}
}

func TestFixedTurnCountPlaysEveryTurn(t *testing.T) {
	const turns = 3
	h := newHarness(t, classic(turns, 1), nil)

	for turn := 1; turn <= turns; turn++ {
		h.waitForSpawn()
		h.placeOnFireLine(0)
		res := h.step(Input{Fire: true})
		if !hasEvent(res, EventDiskHit) {
			t.Fatalf("turn %d: expected a hit, got %+v", turn, res.Events)
		}
		if !hasEvent(res, EventTurnResolved) {
			t.Fatalf("turn %d: expected the turn to resolve in the hit frame", turn)
		}
	}

	res := h.runUntil("session end", 600, func(r StepResult) bool { return r.Ended != nil })
	if res.Ended.FinalScore != turns {
		t.Errorf("expected score %d, got %d", turns, res.Ended.FinalScore)
	}
	state := h.s.Turns()
	if state.CurrentTurn != turns {
		t.Errorf("expected to stop at turn %d, got %d", turns, state.CurrentTurn)
	}
	if len(h.s.Snapshot().Disks) != 0 {
		t.Error("session ended with disks in flight")
	}
	if h.count(EventDiskSpawned) != turns {
		t.Errorf("expected %d spawns, got %d", turns, h.count(EventDiskSpawned))
	}

	history := h.s.History()
	if len(history) != turns {
		t.Fatalf("expected %d history entries, got %d", turns, len(history))
	}
	for i, o := range history {
		if o.Turn != i+1 || !o.Success || o.Hits != 1 || o.Misses != 0 {
			t.Errorf("history[%d] = %+v", i, o)
		}
	}
}

func TestSurvivalEndsAfterFirstFailure(t *testing.T) {
	h := newHarness(t, survival(), nil)

	// Turn 1: hit
	h.waitForSpawn()
	h.placeOnFireLine(0)
	h.step(Input{Fire: true})
	if h.s.Turns().SuccessfulTurns != 1 {
		t.Fatalf("expected turn 1 to succeed, got %+v", h.s.Turns())
	}

	// Turn 2: let it fall
	h.waitForSpawn()
	h.runUntil("miss", 600, func(r StepResult) bool { return hasEvent(r, EventDiskMissed) })
	if h.s.Turns().FailedTurns != 1 {
		t.Fatalf("expected turn 2 to fail, got %+v", h.s.Turns())
	}

	res := h.runUntil("session end", 600, func(r StepResult) bool { return r.Ended != nil })
	if res.Ended.FinalScore != 1 {
		t.Errorf("expected score 1, got %d", res.Ended.FinalScore)
	}
	if h.count(EventDiskSpawned) != 2 {
		t.Errorf("no turn may start after a failure, got %d spawns", h.count(EventDiskSpawned))
	}
}

func TestAnyMissFailsTheTurn(t *testing.T) {
	h := newHarness(t, classic(1, 2), nil)

	h.waitForSpawn()
	if len(h.s.disks) != 2 {
		t.Fatalf("expected 2 disks, got %d", len(h.s.disks))
	}
	h.placeOnFireLine(0)
	res := h.step(Input{Fire: true})
	if !hasEvent(res, EventDiskHit) {
		t.Fatal("expected the parked disk to be hit")
	}

	res = h.runUntil("turn resolution", 600, func(r StepResult) bool { return hasEvent(r, EventTurnResolved) })
	var outcome TurnOutcome
	for _, e := range res.Events {
		if e.Type == EventTurnResolved {
			outcome = e.Outcome
		}
	}
	if outcome.Hits != 1 || outcome.Misses != 1 || outcome.Success {
		t.Errorf("expected failed turn with 1 hit and 1 miss, got %+v", outcome)
	}
}

func TestIdleFramesDoNotChangeScore(t *testing.T) {
	h := newHarness(t, classic(5, 1), func(s *config.Settings) {
		s.TurnDelay = time.Hour
	})

	for i := 0; i < 1000; i++ {
		res := h.step(Input{})
		if len(res.Events) != 0 {
			t.Fatalf("frame %d: unexpected events %+v", i, res.Events)
		}
	}
	state := h.s.Turns()
	if state.SuccessfulTurns != 0 || state.FailedTurns != 0 || state.CurrentTurn != 0 {
		t.Errorf("idle frames changed the score: %+v", state)
	}
	if h.s.Phase() != PhaseIdle {
		t.Errorf("expected idle phase, got %v", h.s.Phase())
	}
}

func TestHitUsesLookbackHistory(t *testing.T) {
	h := newHarness(t, classic(1, 1), func(s *config.Settings) {
		s.LookBackFrames = 3
		s.Gravity = 1e-9
	})
	h.waitForSpawn()

	start, end := h.s.rifle.FireLine()
	onLine := start.Add(end.Sub(start).Scale(0.25))
	far := physics.Vec2{X: onLine.X, Y: onLine.Y - 4}

	d := object.NewDisk(42, 1, far, physics.Vec2{}, 3)
	// Update evicts the oldest sample, leaving [onLine, far, far]
	d.Update(0, 0)
	d.Position = onLine
	d.Update(0, 0)
	d.Position = far
	d.Update(0, 0)
	h.s.disks[0] = d

	if physics.LineCircleIntersects(far, h.s.settings.DiskRadius, start, end) {
		t.Fatal("test setup: current position must be off the fire line")
	}

	res := h.step(Input{Fire: true})
	if !hasEvent(res, EventDiskHit) {
		t.Fatal("expected a hit from the remembered on-line position")
	}
	if len(h.s.Snapshot().Explosions) != 1 {
		t.Error("expected an explosion for the hit disk")
	}
	for _, e := range res.Events {
		if e.Type == EventDiskHit && e.DiskID != 42 {
			t.Errorf("expected disk 42 hit, got %d", e.DiskID)
		}
	}
}

func TestFireWindowSpansFrames(t *testing.T) {
	tests := []struct {
		name    string
		parkAt  int // Frame, counted from the shot, on which the disk reaches the line
		wantHit bool
	}{
		{"shot frame", 0, true},
		{"last window frame", 3, true},
		{"after window", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, classic(1, 1), func(s *config.Settings) {
				s.LookForwardFrames = 4
			})
			h.waitForSpawn()

			// Hold the disk away from the line until its frame comes
			h.s.disks[0].Position = physics.Vec2{X: 14, Y: 2}
			h.s.disks[0].Velocity = physics.Vec2{}
			for f := 0; f <= tt.parkAt; f++ {
				if f == tt.parkAt {
					h.placeOnFireLine(0)
				}
				h.step(Input{Fire: f == 0})
			}

			if hit := h.count(EventDiskHit) > 0; hit != tt.wantHit {
				t.Errorf("expected hit=%v, got %v", tt.wantHit, hit)
			}
		})
	}
}

func TestFireWhileReloadingIgnored(t *testing.T) {
	h := newHarness(t, classic(1, 1), nil)
	for i := 0; i < 10; i++ {
		h.step(Input{Fire: true})
	}
	if got := h.count(EventShotFired); got != 1 {
		t.Errorf("expected 1 shot while reloading, got %d", got)
	}

	// 500ms reload at 60 Hz
	for i := 0; i < 30; i++ {
		h.step(Input{Fire: true})
	}
	if got := h.count(EventShotFired); got != 2 {
		t.Errorf("expected a second shot after reload, got %d", got)
	}
}

func TestLookbackBoundedThroughoutSession(t *testing.T) {
	h := newHarness(t, classic(4, 2), func(s *config.Settings) {
		s.LookBackFrames = 5
		s.TurnDelay = 100 * time.Millisecond
	})
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 60*30 && !h.s.Ended(); i++ {
		h.step(Input{
			Fire:     rng.Intn(20) == 0,
			AimLeft:  rng.Intn(2) == 0,
			AimRight: rng.Intn(3) == 0,
		})
		for _, d := range h.s.disks {
			if n := len(d.Lookback()); n > 5 {
				t.Fatalf("frame %d: disk %d lookback has %d entries", i, d.ID, n)
			}
			if d.Position.X < 0 || d.Position.X > content.FieldWidth {
				t.Fatalf("frame %d: disk %d left the field at x=%f", i, d.ID, d.Position.X)
			}
		}
		if a := h.s.rifle.Angle; a < object.MinRifleAngle || a > object.MaxRifleAngle {
			t.Fatalf("frame %d: rifle angle %f out of range", i, a)
		}
	}
	if !h.s.Ended() {
		t.Fatal("session did not finish")
	}
	state := h.s.Turns()
	if state.SuccessfulTurns+state.FailedTurns != 4 {
		t.Errorf("expected 4 resolved turns, got %+v", state)
	}
}

func TestExplosionRetires(t *testing.T) {
	h := newHarness(t, classic(2, 1), nil)
	h.waitForSpawn()
	h.placeOnFireLine(0)
	h.step(Input{Fire: true})

	snap := h.s.Snapshot()
	if len(snap.Explosions) != 1 {
		t.Fatalf("expected 1 explosion, got %d", len(snap.Explosions))
	}
	if snap.Explosions[0].Progress != 0 {
		t.Errorf("fresh explosion progress should be 0, got %f", snap.Explosions[0].Progress)
	}

	anim, _ := content.DefaultTable().Animation(content.AnimationExplosion)
	frames := int(anim.Lifetime()/frame) + 1
	for i := 0; i < frames; i++ {
		h.step(Input{})
	}
	if n := len(h.s.Snapshot().Explosions); n != 0 {
		t.Errorf("expected explosion to retire after %v, %d left", anim.Lifetime(), n)
	}
}

func TestResetRestartsSession(t *testing.T) {
	h := newHarness(t, classic(1, 1), nil)
	h.runUntil("session end", 60*20, func(r StepResult) bool { return r.Ended != nil })

	res := h.step(Input{Reset: true})
	if res.Ended != nil || len(res.Events) != 0 {
		t.Errorf("reset frame should be silent, got %+v", res)
	}
	if h.s.Ended() {
		t.Error("reset session should not be ended")
	}
	if state := h.s.Turns(); state != (TurnState{LastTurnEndTime: h.now}) {
		t.Errorf("expected fresh turn state, got %+v", state)
	}
	if len(h.s.History()) != 0 {
		t.Error("reset should clear history")
	}

	h.runUntil("session end", 60*20, func(r StepResult) bool { return r.Ended != nil })
	if len(h.ends) != 2 {
		t.Errorf("expected a second termination after reset, got %d", len(h.ends))
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	h := newHarness(t, classic(1, 1), nil)
	h.waitForSpawn()

	snap := h.s.Snapshot()
	if len(snap.Disks) != 1 {
		t.Fatalf("expected one disk, got %d", len(snap.Disks))
	}
	snap.Disks[0].Position = physics.Vec2{X: -100}
	if h.s.disks[0].Position.X == -100 {
		t.Error("snapshot aliases session disks")
	}
	if snap.TurnCount != 1 || snap.CurrentTurn != 1 {
		t.Errorf("unexpected score fields %+v", snap)
	}
	if !snap.Rifle.Reloaded || snap.Rifle.FireActive {
		t.Errorf("unexpected rifle state %+v", snap.Rifle)
	}

	surv := newHarness(t, survival(), nil)
	if surv.s.Snapshot().TurnCount != 0 {
		t.Error("survival snapshots carry no turn count")
	}
}
