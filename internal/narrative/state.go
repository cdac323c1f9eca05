// Package narrative is the direction engine: a deterministic, seed-driven
// pacing subsystem that owns tension, story seeds, relationships, memory,
// and the cataclysm clock for one world.
//
// All engine entry points are pure transitions on the State document: state
// in, state out, plus side effects describing what happened. Nothing in
// this package reads clocks, ambient randomness, or globals.
package narrative

import (
	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/memory"
	"github.com/louisbranch/emberfall/internal/narrative/relationship"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// SchemaVersion is the current State document schema.
const SchemaVersion = 1

// State is the complete narrative document for one world. It is stored and
// replayed as a unit; see Normalize for recovery of malformed documents.
type State struct {
	SchemaVersion int    `json:"schema_version"`
	WorldSeed     uint64 `json:"world_seed"`
	Turn          int    `json:"turn"`

	Tension       uint8 `json:"tension"`
	TensionStreak int   `json:"tension_streak"`

	LastInjectionTurn int      `json:"last_injection_turn"`
	RecentInjections  []string `json:"recent_injections,omitempty"`

	Seeds         []story.Seed           `json:"seeds,omitempty"`
	Relationships relationship.Graph     `json:"relationships"`
	Memory        []memory.Entry         `json:"memory,omitempty"`
	Echoes        []story.FlashpointEcho `json:"echoes,omitempty"`
	Cataclysm     cataclysm.State        `json:"cataclysm"`
}

// NewState returns the starting document for a world seed.
func NewState(worldSeed uint64) State {
	return State{
		SchemaVersion:     SchemaVersion,
		WorldSeed:         worldSeed,
		Tension:           30,
		LastInjectionTurn: -1,
		Relationships:     relationship.DefaultGraph(),
		Cataclysm:         cataclysm.Dormant(),
	}
}

// Clone deep-copies the document so a tick can mutate freely without
// touching the caller's value.
func (s State) Clone() State {
	out := s
	out.RecentInjections = append([]string(nil), s.RecentInjections...)
	out.Seeds = append([]story.Seed(nil), s.Seeds...)
	out.Relationships = s.Relationships.Clone()
	out.Memory = append([]memory.Entry(nil), s.Memory...)
	out.Echoes = append([]story.FlashpointEcho(nil), s.Echoes...)
	return out
}

// Normalize repairs a malformed document instead of failing: each fixed
// substructure is reset to its default and reported as a side effect. A
// healthy document passes through untouched.
func (s State) Normalize() (State, []SideEffect) {
	out := s.Clone()
	var effects []SideEffect
	recovered := func(msg string) {
		effects = append(effects, SideEffect{Kind: EffectStateRecovered, Turn: out.Turn, Message: msg})
	}

	if out.SchemaVersion != SchemaVersion {
		out.SchemaVersion = SchemaVersion
		recovered("schema version reset")
	}
	if out.Turn < 0 {
		out.Turn = 0
		recovered("negative turn reset")
	}
	if out.Tension > 100 {
		out.Tension = 100
		recovered("tension clamped")
	}
	if out.TensionStreak < 0 {
		out.TensionStreak = 0
		recovered("tension streak reset")
	}
	if !out.Relationships.Valid() {
		out.Relationships = relationship.DefaultGraph()
		recovered("relationship graph reset")
	}
	if out.LastInjectionTurn > out.Turn {
		out.LastInjectionTurn = -1
		recovered("injection bookkeeping reset")
	}

	seeds := out.Seeds[:0]
	activeByKind := map[story.Kind]bool{}
	dropped := false
	for _, seed := range out.Seeds {
		switch seed.Status {
		case story.StatusActive, story.StatusResolvedSocial, story.StatusResolvedCombat, story.StatusExpired:
		default:
			dropped = true
			continue
		}
		if seed.Status == story.StatusActive {
			if activeByKind[seed.Kind] {
				dropped = true
				continue
			}
			activeByKind[seed.Kind] = true
		}
		seeds = append(seeds, seed)
	}
	out.Seeds = seeds
	if dropped {
		recovered("invalid story seeds dropped")
	}

	if len(out.Memory) > memory.Cap {
		out.Memory = out.Memory[len(out.Memory)-memory.Cap:]
		recovered("memory log trimmed")
	}
	if len(out.Echoes) > story.EchoCap {
		out.Echoes = out.Echoes[len(out.Echoes)-story.EchoCap:]
		recovered("echo list trimmed")
	}

	if out.Cataclysm.Progress < 0 || out.Cataclysm.Progress > 100 {
		out.Cataclysm = cataclysm.Dormant()
		recovered("cataclysm clock reset")
	} else if out.Cataclysm.Active && out.Cataclysm.Phase != cataclysm.PhaseFromProgress(out.Cataclysm.Progress) {
		out.Cataclysm.Phase = cataclysm.PhaseFromProgress(out.Cataclysm.Progress)
		recovered("cataclysm phase realigned")
	}

	return out, effects
}

// activeSeed returns the active seed of a kind, if any.
func (s State) activeSeed(kind story.Kind) (int, bool) {
	for i, seed := range s.Seeds {
		if seed.Kind == kind && seed.Status == story.StatusActive {
			return i, true
		}
	}
	return 0, false
}

// seedByID returns the index of a seed by ID.
func (s State) seedByID(id string) (int, bool) {
	for i, seed := range s.Seeds {
		if seed.ID == id {
			return i, true
		}
	}
	return 0, false
}
