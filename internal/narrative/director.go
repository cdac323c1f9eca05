package narrative

import (
	"fmt"

	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/memory"
	"github.com/louisbranch/emberfall/internal/narrative/relationship"
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
	"github.com/louisbranch/emberfall/internal/narrative/story"
	"github.com/louisbranch/emberfall/internal/narrative/tension"
)

// Config carries the Director's pacing tunables. Every field shapes pacing
// only; determinism and bounds hold for any configuration.
type Config struct {
	// InjectionFloor is the minimum tension before seeds may inject.
	InjectionFloor uint8
	// InjectionSpacing is the minimum turns between injections.
	InjectionSpacing int
	// BaseChance and ChanceTensionCap shape the injection roll:
	// chance = BaseChance + min(ChanceTensionCap, tension/2) on d100.
	BaseChance       int
	ChanceTensionCap int
	// StoryWeight and FlashWeight split injections between seed kinds;
	// HighTensionBias and ImbalanceBias shift weight toward flashpoints.
	StoryWeight     int
	FlashWeight     int
	HighTensionBias int
	ImbalanceBias   int
	// BiasTensionFloor and BiasImbalanceFloor gate the two biases.
	BiasTensionFloor   uint8
	BiasImbalanceFloor int
	// WeightFloor keeps both categories possible under heavy bias.
	WeightFloor int
	// RepetitionWindow is how many turns the previous injection's category
	// stays barred from repeating.
	RepetitionWindow int
}

// DefaultConfig returns the shipped pacing configuration.
func DefaultConfig() Config {
	return Config{
		InjectionFloor:     25,
		InjectionSpacing:   3,
		BaseChance:         35,
		ChanceTensionCap:   40,
		StoryWeight:        55,
		FlashWeight:        45,
		HighTensionBias:    15,
		ImbalanceBias:      15,
		BiasTensionFloor:   45,
		BiasImbalanceFloor: 12,
		WeightFloor:        10,
		RepetitionWindow:   6,
	}
}

// Director orchestrates every narrative decision for a world. It holds
// configuration only; all mutable state flows through arguments and
// returns, so one Director can serve many worlds.
type Director struct {
	cfg Config
}

// New returns a Director with the given configuration.
func New(cfg Config) *Director {
	return &Director{cfg: cfg}
}

// TickInput carries the world signals for one tick.
type TickInput struct {
	// Threat is the ambient danger level, 0-10.
	Threat int
	// BiomeSeverity is the harshness of the party's current biome, 0-100.
	BiomeSeverity int
}

// Tick advances the narrative one turn. The update order is fixed:
// tension, seed expiry, injection, relationship drift, cataclysm, memory.
// Equal state and input always produce equal output.
func (d *Director) Tick(s State, in TickInput) (State, []SideEffect) {
	out := s.Clone()
	out.Turn++
	turn := out.Turn
	var effects []SideEffect

	// Tension.
	active := 0
	for _, seed := range out.Seeds {
		if seed.Status == story.StatusActive {
			active++
		}
	}
	before := out.Tension
	out.Tension = tension.Update(out.Tension, tension.Signals{
		Threat:       in.Threat,
		ActiveSeeds:  active,
		EchoPressure: story.EchoPressure(out.Echoes, turn),
	})
	if out.Tension != before {
		effects = append(effects, SideEffect{
			Kind:    EffectTensionShift,
			Turn:    turn,
			Message: fmt.Sprintf("tension %d -> %d", before, out.Tension),
		})
	}
	if out.Tension == tension.Max {
		out.TensionStreak++
	} else {
		out.TensionStreak = 0
	}

	// Seed expiry.
	for i, seed := range out.Seeds {
		if seed.Expired(turn) {
			out.Seeds[i].Status = story.StatusExpired
			out.Seeds[i].ResolvedTurn = turn
			effects = append(effects, SideEffect{
				Kind:    EffectSeedExpired,
				Turn:    turn,
				Message: fmt.Sprintf("%s expired untouched", seed.ID),
			})
		}
	}

	// Injection.
	if kind, ok := d.shouldInject(out, turn); ok {
		seed := story.NewSeed(kind, out.WorldSeed, turn, out.Relationships)
		out.Seeds = append(out.Seeds, seed)
		out.LastInjectionTurn = turn
		out.RecentInjections = append(out.RecentInjections, string(kind))
		if len(out.RecentInjections) > d.cfg.RepetitionWindow {
			out.RecentInjections = out.RecentInjections[len(out.RecentInjections)-d.cfg.RepetitionWindow:]
		}
		effects = append(effects, SideEffect{
			Kind:    EffectSeedInjected,
			Turn:    turn,
			Message: fmt.Sprintf("%s injected as %s (%s)", seed.ID, seed.Kind, seed.InitiatorFaction),
		})
		out.Memory = memory.Append(out.Memory, memory.Entry{
			Turn: turn,
			Fingerprint: seedpolicy.Fingerprint(map[string]any{
				"seed_id": seed.ID,
				"kind":    string(seed.Kind),
				"turn":    turn,
			}),
			SummaryTag: "seed_injected",
			Severity:   seed.PressureScore,
		})
		effects = append(effects, SideEffect{
			Kind:    EffectMemoryRecorded,
			Turn:    turn,
			Message: fmt.Sprintf("recorded injection of %s", seed.ID),
		})
	}

	// Relationship drift.
	historyLen := len(out.Relationships.History)
	out.Relationships = relationship.TickUpdate(out.Relationships, out.WorldSeed, turn, out.Tension)
	if len(out.Relationships.History) > historyLen {
		delta := out.Relationships.History[len(out.Relationships.History)-1]
		effects = append(effects, SideEffect{
			Kind:    EffectRelationshipShift,
			Turn:    turn,
			Message: fmt.Sprintf("%s shifted %+d", delta.Edge, delta.Amount),
		})
	}

	// Cataclysm trigger and clock.
	var triggered bool
	out.Cataclysm, triggered = cataclysm.MaybeTrigger(out.Cataclysm, out.WorldSeed, turn, out.TensionStreak)
	if triggered {
		effects = append(effects, SideEffect{
			Kind:    EffectCataclysmTriggered,
			Turn:    turn,
			Message: fmt.Sprintf("cataclysm %s awakens", out.Cataclysm.Kind),
		})
		out.Memory = memory.Append(out.Memory, memory.Entry{
			Turn: turn,
			Fingerprint: seedpolicy.Fingerprint(map[string]any{
				"kind": string(out.Cataclysm.Kind),
				"turn": turn,
			}),
			SummaryTag: "cataclysm_triggered",
			Severity:   int(out.Tension),
		})
		effects = append(effects, SideEffect{
			Kind:    EffectMemoryRecorded,
			Turn:    turn,
			Message: "recorded the cataclysm's awakening",
		})
	} else {
		var report cataclysm.AdvanceReport
		out.Cataclysm, report = cataclysm.Advance(out.Cataclysm, turn, in.BiomeSeverity)
		if report.Advanced {
			effects = append(effects, SideEffect{
				Kind:    EffectCataclysmAdvanced,
				Turn:    turn,
				Message: fmt.Sprintf("cataclysm progress +%d (%d)", report.Step, out.Cataclysm.Progress),
			})
		}
		if report.PhaseAfter != report.PhaseBefore {
			effects = append(effects, SideEffect{
				Kind:    EffectCataclysmPhase,
				Turn:    turn,
				Message: fmt.Sprintf("cataclysm phase %s -> %s", report.PhaseBefore, report.PhaseAfter),
			})
			out.Memory = memory.Append(out.Memory, memory.Entry{
				Turn: turn,
				Fingerprint: seedpolicy.Fingerprint(map[string]any{
					"phase": string(report.PhaseAfter),
					"turn":  turn,
				}),
				SummaryTag: "cataclysm_phase",
				Severity:   out.Cataclysm.Progress,
			})
		}
		if report.End == cataclysm.EndWorldFell {
			effects = append(effects, SideEffect{
				Kind:    EffectWorldFell,
				Turn:    turn,
				Message: "the world has fallen",
			})
			out.Memory = memory.Append(out.Memory, memory.Entry{
				Turn:        turn,
				Fingerprint: seedpolicy.Fingerprint(map[string]any{"turn": turn}),
				SummaryTag:  "world_fell",
				Severity:    100,
			})
		}
	}

	return out, effects
}

// shouldInject decides whether this turn injects a seed and of which kind.
func (d *Director) shouldInject(s State, turn int) (story.Kind, bool) {
	if s.Tension < d.cfg.InjectionFloor {
		return "", false
	}
	if s.LastInjectionTurn >= 0 && turn-s.LastInjectionTurn < d.cfg.InjectionSpacing {
		return "", false
	}

	cadenceSeed := seedpolicy.DeriveSeed(seedpolicy.NamespaceCadence, map[string]any{
		"world_seed": s.WorldSeed,
		"turn":       turn,
	})
	chance := d.cfg.BaseChance + min(d.cfg.ChanceTensionCap, int(s.Tension)/2)
	if seedpolicy.RNG(cadenceSeed).Intn(100)+1 > chance {
		return "", false
	}

	kind := d.pickKind(s, turn)

	// At most one active seed per kind: fall back to the other kind, and
	// skip the injection entirely when both are occupied.
	if _, busy := s.activeSeed(kind); busy {
		kind = otherKind(kind)
		if _, busy := s.activeSeed(kind); busy {
			return "", false
		}
	}
	return kind, true
}

// pickKind chooses the injection category from weighted odds, biased by
// tension and graph imbalance, with a repetition guard.
func (d *Director) pickKind(s State, turn int) story.Kind {
	storyWeight := d.cfg.StoryWeight
	flashWeight := d.cfg.FlashWeight
	if s.Tension >= d.cfg.BiasTensionFloor {
		storyWeight -= d.cfg.HighTensionBias
		flashWeight += d.cfg.HighTensionBias
	}
	if relationship.Imbalance(s.Relationships) >= d.cfg.BiasImbalanceFloor {
		storyWeight -= d.cfg.ImbalanceBias
		flashWeight += d.cfg.ImbalanceBias
	}
	if storyWeight < d.cfg.WeightFloor {
		storyWeight = d.cfg.WeightFloor
	}
	if flashWeight < d.cfg.WeightFloor {
		flashWeight = d.cfg.WeightFloor
	}

	kindSeed := seedpolicy.DeriveSeed(seedpolicy.NamespaceInjectionKind, map[string]any{
		"world_seed": s.WorldSeed,
		"turn":       turn,
	})
	kind := story.KindFactionFlashpoint
	if seedpolicy.RNG(kindSeed).Intn(storyWeight+flashWeight) < storyWeight {
		kind = story.KindMerchantPressure
	}

	// Repetition guard: the previous injection's category may not repeat
	// while it is still inside the window.
	if n := len(s.RecentInjections); n > 0 &&
		s.LastInjectionTurn >= 0 && turn-s.LastInjectionTurn <= d.cfg.RepetitionWindow &&
		story.Kind(s.RecentInjections[n-1]) == kind {
		kind = otherKind(kind)
	}
	return kind
}

func otherKind(k story.Kind) story.Kind {
	if k == story.KindMerchantPressure {
		return story.KindFactionFlashpoint
	}
	return story.KindMerchantPressure
}
