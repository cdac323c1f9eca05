// Package story defines story seeds, their lifecycle, and the flashpoint
// echoes that resolved flashpoints leave behind.
package story

import (
	"fmt"

	"github.com/louisbranch/emberfall/internal/narrative/relationship"
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
)

// Kind classifies a story seed.
type Kind string

const (
	KindMerchantPressure  Kind = "merchant_under_pressure"
	KindFactionFlashpoint Kind = "faction_flashpoint"
)

// Kinds lists all seed kinds in canonical order.
var Kinds = []Kind{KindMerchantPressure, KindFactionFlashpoint}

// Status tracks a seed through its lifecycle. Every status other than
// Active is terminal.
type Status string

const (
	StatusActive         Status = "active"
	StatusResolvedSocial Status = "resolved_social"
	StatusResolvedCombat Status = "resolved_combat"
	StatusExpired        Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s != StatusActive
}

// ExpiryWindow is how many turns a seed stays Active before expiring
// untouched.
const ExpiryWindow = 12

// Seed is one pending story thread.
type Seed struct {
	ID                string  `json:"id"`
	Kind              Kind    `json:"kind"`
	InitiatorFaction  string  `json:"initiator_faction"`
	PressureScore     int     `json:"pressure_score"`
	Status            Status  `json:"status"`
	CreatedTurn       int     `json:"created_turn"`
	ResolvedTurn      int     `json:"resolved_turn,omitempty"`
	ResolutionVariant Variant `json:"resolution_variant,omitempty"`
}

// Expired reports whether an active seed has outlived its window at turn.
func (s Seed) Expired(turn int) bool {
	return s.Status == StatusActive && turn-s.CreatedTurn >= ExpiryWindow
}

// NewSeed mints a seed of the given kind. The initiator faction and
// pressure score come from the creation stream, so equal worlds mint equal
// seeds.
func NewSeed(kind Kind, worldSeed uint64, turn int, g relationship.Graph) Seed {
	derived := seedpolicy.DeriveSeed(seedpolicy.NamespaceSeedCreate, map[string]any{
		"world_seed": worldSeed,
		"turn":       turn,
		"kind":       string(kind),
	})
	rng := seedpolicy.RNG(derived)

	initiator := relationship.Factions[rng.Intn(len(relationship.Factions))]
	if kind == KindFactionFlashpoint {
		// Flashpoints erupt along the most strained edge when one exists.
		if pair, ok := relationship.MostStrainedPair(g); ok {
			a, b := pair.Split()
			initiator = a
			if rng.Intn(2) == 1 {
				initiator = b
			}
		}
	}

	pressure := 30 + rng.Intn(41)
	return Seed{
		ID:               fmt.Sprintf("seed_%d_%04d", turn, derived%10000),
		Kind:             kind,
		InitiatorFaction: initiator,
		PressureScore:    pressure,
		Status:           StatusActive,
		CreatedTurn:      turn,
	}
}
