package session

import "time"

// Phase is where the turn cycle currently stands.
type Phase int

const (
	PhaseIdle            Phase = iota // Waiting out the delay after a turn
	PhaseSpawningAllowed              // Delay elapsed, next spawn decision pending
	PhaseInFlight                     // Disks of the current turn are airborne
	PhaseEnded                        // Session over
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSpawningAllowed:
		return "spawning-allowed"
	case PhaseInFlight:
		return "in-flight"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a spawn decision.
type Decision int

const (
	DecisionWait  Decision = iota // Not in PhaseSpawningAllowed
	DecisionSpawn                 // Launch the next batch
	DecisionEnd                   // Session over
)

// TurnState holds the per-session score bookkeeping.
type TurnState struct {
	CurrentTurn     int
	HitsThisTurn    int
	MissesThisTurn  int
	SuccessfulTurns int
	FailedTurns     int
	LastTurnEndTime time.Time
}

// TurnManager decides when batches launch, how turns resolve and when the
// session ends.
type TurnManager struct {
	def      Def
	delay    time.Duration
	state    TurnState
	inFlight bool
	ended    bool
	history  []TurnOutcome
}

// NewTurnManager starts the turn cycle at now. The first batch launches once
// delay has passed.
func NewTurnManager(def Def, delay time.Duration, now time.Time) TurnManager {
	return TurnManager{
		def:   def,
		delay: delay,
		state: TurnState{LastTurnEndTime: now},
	}
}

// State returns a copy of the score bookkeeping.
func (m *TurnManager) State() TurnState {
	return m.state
}

// History returns the resolved turns in order.
func (m *TurnManager) History() []TurnOutcome {
	return m.history
}

// Phase reports the current phase at now.
func (m *TurnManager) Phase(now time.Time) Phase {
	switch {
	case m.ended:
		return PhaseEnded
	case m.inFlight:
		return PhaseInFlight
	case now.Sub(m.state.LastTurnEndTime) >= m.delay:
		return PhaseSpawningAllowed
	default:
		return PhaseIdle
	}
}

// Decide runs the spawn decision. On DecisionSpawn the next turn has started
// and the caller must launch DisksPerTurn disks.
func (m *TurnManager) Decide(now time.Time) Decision {
	if m.Phase(now) != PhaseSpawningAllowed {
		return DecisionWait
	}

	switch m.def.Termination {
	case FixedTurnCount:
		if m.state.CurrentTurn >= m.def.TurnCount {
			m.ended = true
			return DecisionEnd
		}
	case SurviveUntilFirstFailure:
		if m.state.FailedTurns > 0 {
			m.ended = true
			return DecisionEnd
		}
	}

	m.state.CurrentTurn++
	m.state.HitsThisTurn = 0
	m.state.MissesThisTurn = 0
	m.inFlight = true
	return DecisionSpawn
}

// RecordHit counts a hit disk of the current turn.
func (m *TurnManager) RecordHit() {
	m.state.HitsThisTurn++
}

// RecordMiss counts a disk of the current turn lost through the floor.
func (m *TurnManager) RecordMiss() {
	m.state.MissesThisTurn++
}

// Resolve closes the in-flight turn once its batch is empty. A single miss
// fails the turn regardless of hits. Returns false if no turn was in flight.
func (m *TurnManager) Resolve(now time.Time) (TurnOutcome, bool) {
	if !m.inFlight {
		return TurnOutcome{}, false
	}

	outcome := TurnOutcome{
		Turn:    m.state.CurrentTurn,
		Hits:    m.state.HitsThisTurn,
		Misses:  m.state.MissesThisTurn,
		Success: m.state.MissesThisTurn == 0,
	}
	if outcome.Success {
		m.state.SuccessfulTurns++
	} else {
		m.state.FailedTurns++
	}
	m.state.LastTurnEndTime = now
	m.inFlight = false
	m.history = append(m.history, outcome)
	return outcome, true
}

// Score returns the number of successful turns.
func (m *TurnManager) Score() int {
	return m.state.SuccessfulTurns
}
