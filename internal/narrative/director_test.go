package narrative

import (
	"encoding/json"
	"testing"

	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/memory"
	"github.com/louisbranch/emberfall/internal/narrative/relationship"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// script is a fixed sequence of party actions used by the replay tests.
var script = []struct {
	action string
	input  TickInput
}{
	{"travel", TickInput{Threat: 3, BiomeSeverity: 40}},
	{"explore", TickInput{Threat: 6, BiomeSeverity: 55}},
	{"rumour", TickInput{Threat: 1, BiomeSeverity: 40}},
	{"rest", TickInput{Threat: 0, BiomeSeverity: 40}},
	{"travel", TickInput{Threat: 3, BiomeSeverity: 60}},
	{"social", TickInput{Threat: 2, BiomeSeverity: 60}},
	{"explore", TickInput{Threat: 6, BiomeSeverity: 70}},
	{"explore", TickInput{Threat: 7, BiomeSeverity: 70}},
	{"rumour", TickInput{Threat: 1, BiomeSeverity: 50}},
	{"travel", TickInput{Threat: 4, BiomeSeverity: 45}},
	{"social", TickInput{Threat: 2, BiomeSeverity: 45}},
	{"rest", TickInput{Threat: 0, BiomeSeverity: 45}},
	{"explore", TickInput{Threat: 8, BiomeSeverity: 75}},
	{"travel", TickInput{Threat: 5, BiomeSeverity: 65}},
	{"social", TickInput{Threat: 3, BiomeSeverity: 65}},
	{"rest", TickInput{Threat: 0, BiomeSeverity: 50}},
}

// runScript replays the fixed action script from a fresh world.
func runScript(t *testing.T, worldSeed uint64) (State, []SideEffect) {
	t.Helper()
	d := New(DefaultConfig())
	state := NewState(worldSeed)
	var all []SideEffect
	for _, step := range script {
		var effects []SideEffect
		state, effects = d.Tick(state, step.input)
		all = append(all, effects...)
		if step.action == "social" {
			if seeds := ActiveSeeds(state); len(seeds) > 0 {
				var result ResolutionResult
				state, result = d.ResolveSocial(state, seeds[0].ID, step.input.Threat)
				if !result.Applied {
					t.Fatalf("resolving active seed %s failed: %s", seeds[0].ID, result.Reason)
				}
				all = append(all, result.Effects...)
			}
		}
	}
	return state, all
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestScriptReplayIsByteIdentical(t *testing.T) {
	first, firstEffects := runScript(t, 101)
	second, secondEffects := runScript(t, 101)
	if string(marshal(t, first)) != string(marshal(t, second)) {
		t.Fatal("replaying the same script from the same seed must produce identical state")
	}
	if string(marshal(t, firstEffects)) != string(marshal(t, secondEffects)) {
		t.Fatal("replaying the same script must produce identical side effects")
	}
}

func TestScriptDifferentSeedsDiverge(t *testing.T) {
	a, _ := runScript(t, 101)
	b, _ := runScript(t, 202)
	if string(marshal(t, a)) == string(marshal(t, b)) {
		t.Fatal("different world seeds should produce different narratives")
	}
}

func TestScriptInvariants(t *testing.T) {
	state, _ := runScript(t, 101)

	if state.Turn != len(script) {
		t.Fatalf("turn = %d, want %d", state.Turn, len(script))
	}
	if state.Tension > 100 {
		t.Fatalf("tension %d out of bounds", state.Tension)
	}

	seen := map[string]bool{}
	activeByKind := map[story.Kind]int{}
	for _, seed := range state.Seeds {
		if seen[seed.ID] {
			t.Fatalf("duplicate seed id %s", seed.ID)
		}
		seen[seed.ID] = true
		if seed.Status == story.StatusActive {
			activeByKind[seed.Kind]++
		}
	}
	for kind, n := range activeByKind {
		if n > 1 {
			t.Fatalf("%d active seeds of kind %s, want at most 1", n, kind)
		}
	}

	if len(state.Memory) > memory.Cap {
		t.Fatalf("memory %d over cap", len(state.Memory))
	}
	if len(state.Echoes) > story.EchoCap {
		t.Fatalf("echoes %d over cap", len(state.Echoes))
	}
	for _, v := range state.Relationships.FactionEdges {
		if v < relationship.EdgeMin || v > relationship.EdgeMax {
			t.Fatalf("edge %d out of bounds", v)
		}
	}
}

func TestInjectionSpacingAndFloor(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(77)

	var injectionTurns []int
	for i := 0; i < 60; i++ {
		var effects []SideEffect
		state, effects = d.Tick(state, TickInput{Threat: 6, BiomeSeverity: 50})
		for _, e := range effects {
			if e.Kind == EffectSeedInjected {
				injectionTurns = append(injectionTurns, e.Turn)
				if state.Tension < DefaultConfig().InjectionFloor {
					t.Fatalf("turn %d: injected below the tension floor (%d)", e.Turn, state.Tension)
				}
			}
		}
		// Resolve seeds promptly so injection pressure keeps flowing.
		for _, seed := range ActiveSeeds(state) {
			state, _ = d.ResolveSocial(state, seed.ID, 2)
		}
	}
	if len(injectionTurns) == 0 {
		t.Fatal("sustained mid tension should inject at least one seed in 60 turns")
	}
	for i := 1; i < len(injectionTurns); i++ {
		if gap := injectionTurns[i] - injectionTurns[i-1]; gap < DefaultConfig().InjectionSpacing {
			t.Fatalf("injections %d and %d only %d turns apart", injectionTurns[i-1], injectionTurns[i], gap)
		}
	}
}

func TestInjectionGuardBlocksRepeatCategory(t *testing.T) {
	d := New(DefaultConfig())

	for _, last := range []story.Kind{story.KindMerchantPressure, story.KindFactionFlashpoint} {
		state := NewState(101)
		state.Tension = 60
		state.LastInjectionTurn = 6
		state.RecentInjections = []string{string(last)}
		if got := d.pickKind(state, 10); got == last {
			t.Fatalf("picked %s again right after a %s injection", got, last)
		}
	}

	// Outside the window the guard does not bias the roll.
	state := NewState(101)
	state.Tension = 60
	state.LastInjectionTurn = 1
	state.RecentInjections = []string{string(story.KindMerchantPressure)}
	clean := NewState(101)
	clean.Tension = 60
	if d.pickKind(state, 10) != d.pickKind(clean, 10) {
		t.Fatal("an expired injection must not bias category selection")
	}
}

func TestSustainedMaxTensionTriggersCataclysm(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)
	// Saturating signals push tension to 100 and hold it there.
	saturate := TickInput{Threat: 10, BiomeSeverity: 50}

	var triggeredTurn int
	for i := 0; i < 40 && triggeredTurn == 0; i++ {
		var effects []SideEffect
		state, effects = d.Tick(state, saturate)
		for _, e := range effects {
			if e.Kind == EffectCataclysmTriggered {
				triggeredTurn = e.Turn
			}
		}
	}
	if triggeredTurn == 0 {
		t.Fatal("sustained max tension never triggered a cataclysm")
	}
	if state.Cataclysm.Phase == cataclysm.PhaseDormant {
		t.Fatal("triggered cataclysm should leave dormancy")
	}

	// The freshly triggered clock starts at whispers with zero progress.
	if state.Cataclysm.StartedTurn != triggeredTurn {
		t.Fatalf("started turn = %d, want %d", state.Cataclysm.StartedTurn, triggeredTurn)
	}

	// Streak accounting: trigger requires three consecutive ticks at 100.
	if triggeredTurn < cataclysm.TriggerStreak {
		t.Fatalf("trigger at turn %d, impossible before a %d-tick streak", triggeredTurn, cataclysm.TriggerStreak)
	}
}

func TestResolveNoOpPaths(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)

	_, result := d.ResolveSocial(state, "seed_9_0001", 0)
	if result.Applied {
		t.Fatal("resolving an unknown seed must be a no-op")
	}

	// Plant a seed, resolve it, then resolve again.
	state.Seeds = append(state.Seeds, story.NewSeed(story.KindMerchantPressure, 101, 1, state.Relationships))
	id := state.Seeds[0].ID
	state, result = d.ResolveSocial(state, id, 0)
	if !result.Applied {
		t.Fatalf("first resolution failed: %s", result.Reason)
	}
	_, result = d.ResolveCombat(state, id, 0)
	if result.Applied {
		t.Fatal("resolving a terminal seed must be a no-op")
	}
	if result.Reason == "" {
		t.Fatal("no-op results must carry a reason")
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)
	state.Seeds = append(state.Seeds, story.NewSeed(story.KindFactionFlashpoint, 101, 1, state.Relationships))
	id := state.Seeds[0].ID

	_, _ = d.ResolveSocial(state, id, 0)
	if state.Seeds[0].Status != story.StatusActive {
		t.Fatal("resolution must not mutate the caller's state")
	}
}

func TestFlashpointResolutionLeavesEcho(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)
	state.Turn = 5
	state.Seeds = append(state.Seeds, story.NewSeed(story.KindFactionFlashpoint, 101, 5, state.Relationships))
	id := state.Seeds[0].ID

	state, result := d.ResolveCombat(state, id, 4)
	if !result.Applied {
		t.Fatalf("resolution failed: %s", result.Reason)
	}
	if len(state.Echoes) != 1 {
		t.Fatalf("echoes = %d, want 1", len(state.Echoes))
	}
	echo := state.Echoes[0]
	if echo.Channel != story.ChannelCombat || echo.Turn != 5 {
		t.Fatalf("echo = %+v, want combat at turn 5", echo)
	}
	if echo.SeverityBand != story.BandFor(echo.SeverityScore) {
		t.Fatalf("echo band %s inconsistent with score %d", echo.SeverityBand, echo.SeverityScore)
	}
	if len(state.Memory) != 1 {
		t.Fatalf("memory = %d entries, want 1", len(state.Memory))
	}
}

func TestSubmitPushbackThroughDirector(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)

	// No cataclysm yet: reported no-op, state unchanged.
	_, outcome := d.SubmitPushback(state, 10, cataclysm.Objective{})
	if outcome.Applied {
		t.Fatal("pushback with no cataclysm must be a no-op")
	}

	state.Cataclysm, _ = cataclysm.MaybeTrigger(state.Cataclysm, 101, 4, cataclysm.TriggerStreak)
	state.Cataclysm.Progress = 40
	state.Cataclysm.Phase = cataclysm.PhaseFromProgress(40)

	next, outcome := d.SubmitPushback(state, 10, cataclysm.Objective{Tier: 1})
	if !outcome.Applied || next.Cataclysm.Progress != 30 {
		t.Fatalf("progress = %d outcome = %+v, want 30/applied", next.Cataclysm.Progress, outcome)
	}
	if state.Cataclysm.Progress != 40 {
		t.Fatal("pushback must not mutate the caller's state")
	}
}

func TestNormalizeRepairsMalformedState(t *testing.T) {
	state := NewState(101)
	state.SchemaVersion = 99
	state.Tension = 180
	state.Turn = 10
	state.LastInjectionTurn = 50
	state.Relationships = relationship.Graph{}
	state.Seeds = []story.Seed{
		{ID: "a", Kind: story.KindMerchantPressure, Status: "bogus"},
		{ID: "b", Kind: story.KindMerchantPressure, Status: story.StatusActive},
		{ID: "c", Kind: story.KindMerchantPressure, Status: story.StatusActive},
	}
	state.Cataclysm.Progress = 400

	fixed, effects := state.Normalize()
	if len(effects) == 0 {
		t.Fatal("normalizing a broken document must report recoveries")
	}
	for _, e := range effects {
		if e.Kind != EffectStateRecovered {
			t.Fatalf("unexpected effect kind %s", e.Kind)
		}
	}
	if fixed.SchemaVersion != SchemaVersion {
		t.Fatalf("schema = %d, want %d", fixed.SchemaVersion, SchemaVersion)
	}
	if fixed.Tension > 100 {
		t.Fatalf("tension %d still out of bounds", fixed.Tension)
	}
	if !fixed.Relationships.Valid() {
		t.Fatal("graph not repaired")
	}
	if len(fixed.Seeds) != 1 || fixed.Seeds[0].ID != "b" {
		t.Fatalf("seeds = %+v, want only the first valid active seed", fixed.Seeds)
	}
	if fixed.LastInjectionTurn != -1 {
		t.Fatalf("last injection = %d, want reset", fixed.LastInjectionTurn)
	}
	if fixed.Cataclysm.Progress != 0 || fixed.Cataclysm.Phase != cataclysm.PhaseDormant {
		t.Fatalf("cataclysm = %+v, want dormant reset", fixed.Cataclysm)
	}
}

func TestNormalizeHealthyStateIsUntouched(t *testing.T) {
	state, _ := runScript(t, 101)
	fixed, effects := state.Normalize()
	if len(effects) != 0 {
		t.Fatalf("healthy state reported %d recoveries", len(effects))
	}
	if string(marshal(t, fixed)) != string(marshal(t, state)) {
		t.Fatal("healthy state must round-trip Normalize unchanged")
	}
}

func TestQueries(t *testing.T) {
	state, _ := runScript(t, 101)

	for _, seed := range ActiveSeeds(state) {
		if seed.Status != story.StatusActive {
			t.Fatalf("ActiveSeeds returned %s seed", seed.Status)
		}
	}

	for _, seed := range ActiveSeedsOfKind(state, story.KindMerchantPressure) {
		if seed.Kind != story.KindMerchantPressure || seed.Status != story.StatusActive {
			t.Fatalf("kind filter returned %s/%s", seed.Kind, seed.Status)
		}
	}
	for _, seed := range state.Seeds {
		got, ok := SeedByID(state, seed.ID)
		if !ok || got.ID != seed.ID {
			t.Fatalf("SeedByID(%s) = %+v, %v", seed.ID, got, ok)
		}
	}
	if _, ok := SeedByID(state, "seed_missing"); ok {
		t.Fatal("SeedByID must report unknown IDs")
	}

	echoes := RecentEchoes(state, 3)
	if len(echoes) > 3 {
		t.Fatalf("RecentEchoes(3) returned %d", len(echoes))
	}
	for _, echo := range RecentEchoesByChannel(state, story.ChannelSocial, 3) {
		if echo.Channel != story.ChannelSocial {
			t.Fatalf("channel filter returned %s echo", echo.Channel)
		}
	}

	summary := Summary(state)
	if summary.Progress != state.Cataclysm.Progress || summary.Phase != state.Cataclysm.Phase {
		t.Fatalf("summary %+v does not match clock %+v", summary, state.Cataclysm)
	}
}

func TestTickDoesNotMutateInput(t *testing.T) {
	d := New(DefaultConfig())
	state := NewState(101)
	snapshot := string(marshal(t, state))
	_, _ = d.Tick(state, TickInput{Threat: 5, BiomeSeverity: 50})
	if string(marshal(t, state)) != snapshot {
		t.Fatal("Tick must not mutate the caller's state")
	}
}
