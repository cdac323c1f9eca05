package narrative

import (
	"fmt"

	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/memory"
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// ResolutionResult reports how a resolution attempt landed. A gameplay
// dead end (unknown seed, already-terminal seed) is Applied false with a
// Reason, never an error.
type ResolutionResult struct {
	Applied  bool          `json:"applied"`
	Reason   string        `json:"reason,omitempty"`
	SeedID   string        `json:"seed_id,omitempty"`
	Variant  story.Variant `json:"variant,omitempty"`
	Severity int           `json:"severity,omitempty"`
	Effects  []SideEffect  `json:"effects,omitempty"`
}

// ResolveSocial resolves an active seed through talk, trade, or favor.
func (d *Director) ResolveSocial(s State, seedID string, threat int) (State, ResolutionResult) {
	return d.resolve(s, seedID, story.ChannelSocial, threat)
}

// ResolveCombat resolves an active seed by force.
func (d *Director) ResolveCombat(s State, seedID string, threat int) (State, ResolutionResult) {
	return d.resolve(s, seedID, story.ChannelCombat, threat)
}

func (d *Director) resolve(s State, seedID string, channel story.Channel, threat int) (State, ResolutionResult) {
	idx, ok := s.seedByID(seedID)
	if !ok {
		return s, ResolutionResult{Reason: fmt.Sprintf("no seed %q", seedID), SeedID: seedID}
	}
	if s.Seeds[idx].Status.Terminal() {
		return s, ResolutionResult{
			Reason: fmt.Sprintf("seed %q already %s", seedID, s.Seeds[idx].Status),
			SeedID: seedID,
		}
	}

	out := s.Clone()
	turn := out.Turn
	seed := out.Seeds[idx]
	outcome := story.Resolve(seed, channel, out.WorldSeed, turn, out.Relationships, threat)

	status := story.StatusResolvedSocial
	if channel == story.ChannelCombat {
		status = story.StatusResolvedCombat
	}
	out.Seeds[idx].Status = status
	out.Seeds[idx].ResolvedTurn = turn
	out.Seeds[idx].ResolutionVariant = outcome.Variant

	result := ResolutionResult{
		Applied:  true,
		SeedID:   seedID,
		Variant:  outcome.Variant,
		Severity: outcome.SeverityScore,
	}
	result.Effects = append(result.Effects, SideEffect{
		Kind:    EffectSeedResolved,
		Turn:    turn,
		Message: fmt.Sprintf("%s resolved %s as %s", seedID, channel, outcome.Variant),
	})

	for _, delta := range outcome.EdgeDeltas {
		out.Relationships = out.Relationships.Apply(turn, delta.Edge, delta.Amount, delta.Reason)
		result.Effects = append(result.Effects, SideEffect{
			Kind:    EffectRelationshipShift,
			Turn:    turn,
			Message: fmt.Sprintf("%s shifted %+d (%s)", delta.Edge, delta.Amount, outcome.Variant),
		})
	}

	out.Memory = memory.Append(out.Memory, memory.Entry{
		Turn: turn,
		Fingerprint: seedpolicy.Fingerprint(map[string]any{
			"seed_id": seedID,
			"channel": string(channel),
			"variant": string(outcome.Variant),
			"turn":    turn,
		}),
		SummaryTag: "seed_resolved",
		Severity:   outcome.SeverityScore,
	})
	result.Effects = append(result.Effects, SideEffect{
		Kind:    EffectMemoryRecorded,
		Turn:    turn,
		Message: fmt.Sprintf("recorded resolution of %s", seedID),
	})

	if seed.Kind == story.KindFactionFlashpoint {
		echo := story.FlashpointEcho{
			FactionID:     seed.InitiatorFaction,
			Turn:          turn,
			Channel:       channel,
			SeverityScore: outcome.SeverityScore,
			SeverityBand:  outcome.SeverityBand,
		}
		out.Echoes = story.AppendEcho(out.Echoes, echo)
		result.Effects = append(result.Effects, SideEffect{
			Kind:    EffectFlashpointEcho,
			Turn:    turn,
			Message: fmt.Sprintf("%s flashpoint echoes at %s severity", seed.InitiatorFaction, outcome.SeverityBand),
		})
	}

	return out, result
}

// PushbackOutcome reports a pushback submission against the cataclysm.
type PushbackOutcome struct {
	Applied  bool         `json:"applied"`
	Reason   string       `json:"reason,omitempty"`
	Reduced  int          `json:"reduced,omitempty"`
	Buffered int          `json:"buffered,omitempty"`
	Effects  []SideEffect `json:"effects,omitempty"`
}

// SubmitPushback spends player effort against an active cataclysm clock.
func (d *Director) SubmitPushback(s State, magnitude int, obj cataclysm.Objective) (State, PushbackOutcome) {
	next, result := cataclysm.SubmitPushback(s.Cataclysm, magnitude, obj)
	if !result.Applied {
		return s, PushbackOutcome{Reason: result.Reason, Effects: []SideEffect{{
			Kind:    EffectNoOp,
			Turn:    s.Turn,
			Message: "pushback ignored: " + result.Reason,
		}}}
	}

	out := s.Clone()
	out.Cataclysm = next
	outcome := PushbackOutcome{Applied: true, Reduced: result.Reduced, Buffered: result.Buffered}
	outcome.Effects = append(outcome.Effects, SideEffect{
		Kind:    EffectPushbackApplied,
		Turn:    out.Turn,
		Message: fmt.Sprintf("pushback -%d progress (%d buffered)", result.Reduced, result.Buffered),
	})
	if result.End == cataclysm.EndResolvedVictory {
		outcome.Effects = append(outcome.Effects, SideEffect{
			Kind:    EffectCataclysmResolved,
			Turn:    out.Turn,
			Message: fmt.Sprintf("cataclysm %s resolved by alliance", next.Kind),
		})
	}
	return out, outcome
}
