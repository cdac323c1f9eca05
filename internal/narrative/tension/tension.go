// Package tension implements the bounded, slew-limited tension model.
//
// Tension is a single 0-100 scalar updated once per world tick. Each update
// computes a target from the current pressure signals and moves the previous
// value toward it by at most RiseLimit upward or FallLimit downward, so the
// curve never spikes or collapses inside a single tick.
package tension

// Tunable model coefficients. Changing these reshapes pacing but never
// breaks determinism or bounds.
const (
	// RestingTarget is the midpoint the model drifts toward when no
	// pressure signals are present.
	RestingTarget = 50

	// RiseLimit and FallLimit bound per-tick movement. Rising faster than
	// falling keeps escalation snappy and release gradual.
	RiseLimit = 6
	FallLimit = 4

	ThreatWeight     = 10
	ActiveSeedWeight = 6
	EchoWeight       = 2

	Max = 100
)

// Signals carries the per-tick pressure inputs.
type Signals struct {
	// Threat is the ambient danger level of the party's situation, 0-10.
	Threat int
	// ActiveSeeds counts story seeds currently in play.
	ActiveSeeds int
	// EchoPressure is the severity-weighted sum of recent flashpoint
	// echoes, already windowed and capped by the caller.
	EchoPressure int
}

// target computes the unslewed tension target for a set of signals.
func target(in Signals) int {
	if in.Threat <= 0 && in.ActiveSeeds <= 0 && in.EchoPressure <= 0 {
		return RestingTarget
	}
	t := in.Threat*ThreatWeight + in.ActiveSeeds*ActiveSeedWeight + in.EchoPressure*EchoWeight
	if t > Max {
		return Max
	}
	if t < 0 {
		return 0
	}
	return t
}

// Update advances tension one tick toward the target implied by the signals.
// The result is always within [0,100] and within the slew limits of before.
func Update(before uint8, in Signals) uint8 {
	goal := target(in)
	current := int(before)
	switch {
	case goal > current:
		current += min(RiseLimit, goal-current)
	case goal < current:
		current -= min(FallLimit, current-goal)
	}
	if current > Max {
		current = Max
	}
	if current < 0 {
		current = 0
	}
	return uint8(current)
}
