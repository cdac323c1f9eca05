// Package cataclysm runs the world-ending escalation clock: triggered by
// sustained maximum tension, advancing through phases on a cadence, and
// pushed back by player effort until victory or ruin.
package cataclysm

import (
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
)

// Kind names the cataclysm flavor chosen at trigger time.
type Kind string

const (
	KindDemonKing Kind = "demon_king"
	KindTyrant    Kind = "tyrant"
	KindPlague    Kind = "plague"
)

// Kinds lists all cataclysm kinds in canonical order.
var Kinds = []Kind{KindDemonKing, KindTyrant, KindPlague}

// Phase is derived from progress; it never regresses except by pushback.
type Phase string

const (
	PhaseDormant      Phase = "dormant"
	PhaseWhispers     Phase = "whispers"
	PhaseGripTightens Phase = "grip_tightens"
	PhaseMapShrinks   Phase = "map_shrinks"
	PhaseRuin         Phase = "ruin"
)

// EndStatus marks a finished cataclysm. Empty means still running (or
// never started).
type EndStatus string

const (
	EndNone            EndStatus = ""
	EndResolvedVictory EndStatus = "resolved_victory"
	EndWorldFell       EndStatus = "world_fell"
)

// Clock tuning.
const (
	// TriggerStreak is how many consecutive ticks tension must sit at its
	// ceiling before a cataclysm ignites.
	TriggerStreak = 3

	whispersCeiling = 24
	gripCeiling     = 59
	shrinksCeiling  = 99

	whispersCadence = 4
	gripCadence     = 3
	shrinksCadence  = 2

	// Biome severity pressure shifts the cadence by one turn either way.
	fastBiomeFloor   = 70
	slowBiomeCeiling = 30

	StepMin = 2
	StepMax = 10

	// baseStep and stepSpread shape the per-advance progress step before
	// pressure adjustment and clamping.
	baseStep   = 4
	stepSpread = 5

	// DrainCap bounds how much buffered pushback applies per tick, and
	// PushbackCap bounds the immediate reduction of a single submission.
	DrainCap    = 12
	PushbackCap = 12

	// allianceSlowdown is the cadence penalty added by a tier-2
	// alliance-backed objective.
	allianceSlowdown = 2
)

// State is the complete cataclysm clock, embedded in the world document.
// Seed identifies the cataclysm instance; each advancement re-derives its
// own step seed from it together with the current phase, progress, and turn.
type State struct {
	Active          bool      `json:"active"`
	Kind            Kind      `json:"kind,omitempty"`
	Phase           Phase     `json:"phase"`
	Progress        int       `json:"progress"`
	Seed            uint64    `json:"seed,omitempty"`
	StartedTurn     int       `json:"started_turn,omitempty"`
	LastAdvanceTurn int       `json:"last_advance_turn,omitempty"`
	PushbackBuffer  int       `json:"pushback_buffer,omitempty"`
	SlowdownTicks   int       `json:"slowdown_ticks,omitempty"`
	EndStatus       EndStatus `json:"end_status,omitempty"`
}

// Dormant returns the resting state.
func Dormant() State {
	return State{Phase: PhaseDormant}
}

// Terminal reports whether the clock has finished for good.
func (s State) Terminal() bool {
	return s.EndStatus != EndNone
}

// PhaseFromProgress maps a progress value onto its phase.
func PhaseFromProgress(progress int) Phase {
	switch {
	case progress <= whispersCeiling:
		return PhaseWhispers
	case progress <= gripCeiling:
		return PhaseGripTightens
	case progress <= shrinksCeiling:
		return PhaseMapShrinks
	default:
		return PhaseRuin
	}
}

// cadence returns the advancement interval for the current phase under the
// given biome pressure, never below 1.
func (s State) cadence(biomeSeverity int) int {
	base := whispersCadence
	switch s.Phase {
	case PhaseGripTightens:
		base = gripCadence
	case PhaseMapShrinks, PhaseRuin:
		base = shrinksCadence
	}
	if biomeSeverity >= fastBiomeFloor {
		base--
	} else if biomeSeverity <= slowBiomeCeiling {
		base++
	}
	if s.SlowdownTicks > 0 {
		base += allianceSlowdown
	}
	if base < 1 {
		base = 1
	}
	return base
}

// MaybeTrigger ignites the clock when tension has held its ceiling for
// TriggerStreak consecutive ticks. It returns the state and whether a new
// cataclysm started. An already-active or terminal clock never retriggers.
func MaybeTrigger(s State, worldSeed uint64, turn, tensionStreak int) (State, bool) {
	if s.Active || s.Terminal() || tensionStreak < TriggerStreak {
		return s, false
	}
	derived := seedpolicy.DeriveSeed(seedpolicy.NamespaceCataclysmKind, map[string]any{
		"world_seed": worldSeed,
		"turn":       turn,
	})
	rng := seedpolicy.RNG(derived)
	s.Active = true
	s.Kind = Kinds[rng.Intn(len(Kinds))]
	s.Seed = derived
	s.Phase = PhaseWhispers
	s.Progress = 0
	s.StartedTurn = turn
	s.LastAdvanceTurn = turn
	return s, true
}

// AdvanceReport describes what one clock tick did.
type AdvanceReport struct {
	Drained     int
	Advanced    bool
	Step        int
	PhaseBefore Phase
	PhaseAfter  Phase
	End         EndStatus
}

// Advance runs one tick of the clock: world-fell check, buffered pushback
// drain, then cadence-gated progress. Inactive and terminal clocks are
// untouched.
func Advance(s State, turn, biomeSeverity int) (State, AdvanceReport) {
	report := AdvanceReport{PhaseBefore: s.Phase, PhaseAfter: s.Phase}
	if !s.Active || s.Terminal() {
		return s, report
	}

	// Ruin at full progress that survived a whole turn unresolved ends
	// the world at the top of the next tick.
	if s.Phase == PhaseRuin && s.Progress >= 100 {
		s.EndStatus = EndWorldFell
		s.Active = false
		report.End = EndWorldFell
		return s, report
	}

	if s.PushbackBuffer > 0 {
		drain := s.PushbackBuffer
		if drain > DrainCap {
			drain = DrainCap
		}
		s.PushbackBuffer -= drain
		s.Progress -= drain
		if s.Progress < 0 {
			s.Progress = 0
		}
		report.Drained = drain
		s.Phase = PhaseFromProgress(s.Progress)
	}

	cadence := s.cadence(biomeSeverity)
	if s.SlowdownTicks > 0 {
		s.SlowdownTicks--
	}
	if (turn-s.StartedTurn)%cadence == 0 && turn > s.LastAdvanceTurn {
		stepSeed := seedpolicy.DeriveSeed(seedpolicy.NamespaceCataclysmClock, map[string]any{
			"seed":     s.Seed,
			"kind":     string(s.Kind),
			"phase":    string(s.Phase),
			"progress": s.Progress,
			"turn":     turn,
		})
		step := baseStep + int(stepSeed%stepSpread)
		if biomeSeverity >= fastBiomeFloor {
			step++
		} else if biomeSeverity <= slowBiomeCeiling {
			step--
		}
		if step < StepMin {
			step = StepMin
		}
		if step > StepMax {
			step = StepMax
		}
		s.Progress += step
		if s.Progress > 100 {
			s.Progress = 100
		}
		s.LastAdvanceTurn = turn
		s.Phase = PhaseFromProgress(s.Progress)
		report.Advanced = true
		report.Step = step
	}

	report.PhaseAfter = s.Phase
	return s, report
}

// Objective qualifies a pushback submission.
type Objective struct {
	Tier           int  `json:"tier"`
	AllianceBacked bool `json:"alliance_backed"`
}

// PushbackResult reports how a submission landed. Applied false with a
// Reason is the gameplay no-op path, never an error.
type PushbackResult struct {
	Applied  bool
	Reason   string
	Reduced  int
	Buffered int
	Slowdown int
	End      EndStatus
}

// SubmitPushback applies player effort against the clock. Immediate
// reduction is capped per call; overflow lands in the buffer and drains on
// later ticks. Alliance-backed tier-2 objectives also slow the cadence,
// and an alliance-backed push that empties the progress bar resolves the
// cataclysm in the players' favor.
func SubmitPushback(s State, magnitude int, obj Objective) (State, PushbackResult) {
	if !s.Active || s.Terminal() {
		return s, PushbackResult{Reason: "no active cataclysm"}
	}
	if magnitude <= 0 {
		return s, PushbackResult{Reason: "pushback magnitude must be positive"}
	}

	reduce := magnitude
	if reduce > PushbackCap {
		reduce = PushbackCap
	}
	s.PushbackBuffer += magnitude - reduce
	s.Progress -= reduce
	if s.Progress < 0 {
		s.Progress = 0
	}

	result := PushbackResult{Applied: true, Reduced: reduce, Buffered: magnitude - reduce}
	if obj.AllianceBacked && obj.Tier >= 2 {
		s.SlowdownTicks += allianceSlowdown
		result.Slowdown = allianceSlowdown
	}
	if s.Progress == 0 && obj.AllianceBacked {
		s.EndStatus = EndResolvedVictory
		s.Active = false
		result.End = EndResolvedVictory
	} else {
		s.Phase = PhaseFromProgress(s.Progress)
	}
	return s, result
}
