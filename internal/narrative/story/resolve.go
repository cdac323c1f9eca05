package story

import (
	"github.com/louisbranch/emberfall/internal/narrative/relationship"
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
)

// Variant names a resolution outcome.
type Variant string

const (
	VariantProsperity   Variant = "prosperity"
	VariantDebt         Variant = "debt"
	VariantFactionShift Variant = "faction_shift"
)

// Variant selection weights, rolled on 1-100.
const (
	prosperityCeiling = 40
	debtCeiling       = 75
	combatShiftBias   = 20
)

// Severity scoring. Channel and threat adjustments stack onto the variant
// base; the result is clamped to [0,100] before banding.
const (
	prosperitySeverity = 35
	debtSeverity       = 60
	shiftSeverity      = 72

	combatChannelBonus = 8
	socialChannelBonus = 3
)

// Outcome describes one applied resolution.
type Outcome struct {
	Variant       Variant
	Channel       Channel
	SeverityScore int
	SeverityBand  SeverityBand
	// EdgeDeltas are the relationship changes the resolution applies,
	// in application order.
	EdgeDeltas []EdgeDelta
}

// EdgeDelta is one relationship adjustment caused by a resolution.
type EdgeDelta struct {
	Edge   relationship.EdgeKey
	Amount int
	Reason string
}

// resolutionNamespace returns the derivation namespace for a channel.
func resolutionNamespace(channel Channel) string {
	if channel == ChannelCombat {
		return seedpolicy.NamespaceResolveCombat
	}
	return seedpolicy.NamespaceResolveSocial
}

// Resolve computes the outcome of resolving a seed through a channel. It
// is pure: the caller applies the edge deltas and status transition. Equal
// inputs always produce the same outcome.
func Resolve(s Seed, channel Channel, worldSeed uint64, turn int, g relationship.Graph, threat int) Outcome {
	derived := seedpolicy.DeriveSeed(resolutionNamespace(channel), map[string]any{
		"world_seed": worldSeed,
		"turn":       turn,
		"seed_id":    s.ID,
	})
	rng := seedpolicy.RNG(derived)

	roll := rng.Intn(100) + 1
	if channel == ChannelCombat {
		roll += combatShiftBias
	}
	variant := VariantFactionShift
	switch {
	case roll <= prosperityCeiling:
		variant = VariantProsperity
	case roll <= debtCeiling:
		variant = VariantDebt
	}

	severity := shiftSeverity
	switch variant {
	case VariantProsperity:
		severity = prosperitySeverity
	case VariantDebt:
		severity = debtSeverity
	}
	switch channel {
	case ChannelCombat:
		severity += combatChannelBonus
	case ChannelSocial:
		severity += socialChannelBonus
	}
	severity += threat
	if severity > 100 {
		severity = 100
	}
	if severity < 0 {
		severity = 0
	}

	return Outcome{
		Variant:       variant,
		Channel:       channel,
		SeverityScore: severity,
		SeverityBand:  BandFor(severity),
		EdgeDeltas:    edgeDeltas(s, variant, rng, g),
	}
}

// edgeDeltas derives the bounded relationship changes for a variant.
func edgeDeltas(s Seed, variant Variant, rng interface{ Intn(int) int }, g relationship.Graph) []EdgeDelta {
	other := otherFaction(s.InitiatorFaction, rng)
	edge := relationship.Key(s.InitiatorFaction, other)
	switch variant {
	case VariantProsperity:
		return []EdgeDelta{{Edge: edge, Amount: 8, Reason: "prosperity from " + s.ID}}
	case VariantDebt:
		return []EdgeDelta{{Edge: edge, Amount: -6, Reason: "debt from " + s.ID}}
	default:
		// A faction shift lands on the already-strained pair when one
		// exists, deepening the existing fault line.
		if pair, ok := relationship.MostStrainedPair(g); ok {
			edge = pair
		}
		return []EdgeDelta{{Edge: edge, Amount: -12, Reason: "faction shift from " + s.ID}}
	}
}

// otherFaction picks a faction different from the initiator.
func otherFaction(initiator string, rng interface{ Intn(int) int }) string {
	others := make([]string, 0, len(relationship.Factions)-1)
	for _, f := range relationship.Factions {
		if f != initiator {
			others = append(others, f)
		}
	}
	if len(others) == 0 {
		return initiator
	}
	return others[rng.Intn(len(others))]
}
