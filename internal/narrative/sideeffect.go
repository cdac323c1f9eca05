package narrative

// EffectKind classifies a side effect for telemetry and presentation.
type EffectKind string

const (
	EffectTensionShift       EffectKind = "tension_shift"
	EffectSeedInjected       EffectKind = "seed_injected"
	EffectSeedExpired        EffectKind = "seed_expired"
	EffectSeedResolved       EffectKind = "seed_resolved"
	EffectFlashpointEcho     EffectKind = "flashpoint_echo"
	EffectRelationshipShift  EffectKind = "relationship_shift"
	EffectMemoryRecorded     EffectKind = "memory_recorded"
	EffectCataclysmTriggered EffectKind = "cataclysm_triggered"
	EffectCataclysmAdvanced  EffectKind = "cataclysm_advanced"
	EffectCataclysmPhase     EffectKind = "cataclysm_phase"
	EffectCataclysmResolved  EffectKind = "cataclysm_resolved"
	EffectWorldFell          EffectKind = "world_fell"
	EffectPushbackApplied    EffectKind = "pushback_applied"
	EffectNoOp               EffectKind = "no_op"
	EffectStateRecovered     EffectKind = "state_recovered"
)

// SideEffect describes one observable consequence of an engine call. Side
// effects are reports, not commands: the engine has already applied the
// change to the returned state.
type SideEffect struct {
	Kind    EffectKind `json:"kind"`
	Turn    int        `json:"turn"`
	Message string     `json:"message"`
}
