package story

import "github.com/louisbranch/emberfall/internal/narrative/seedpolicy"

// Channel records how a flashpoint was resolved.
type Channel string

const (
	ChannelSocial Channel = "social"
	ChannelCombat Channel = "combat"
)

// SeverityBand buckets a severity score for display and echo weighting.
type SeverityBand string

const (
	BandLow      SeverityBand = "low"
	BandMedium   SeverityBand = "medium"
	BandHigh     SeverityBand = "high"
	BandCritical SeverityBand = "critical"
)

// Band thresholds.
const (
	mediumThreshold   = 35
	highThreshold     = 60
	criticalThreshold = 80
)

// BandFor maps a severity score onto its band.
func BandFor(score int) SeverityBand {
	switch {
	case score >= criticalThreshold:
		return BandCritical
	case score >= highThreshold:
		return BandHigh
	case score >= mediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Weight is the echo's contribution to echo pressure while it is inside
// the pressure window.
func (b SeverityBand) Weight() int {
	switch b {
	case BandCritical:
		return 4
	case BandHigh:
		return 3
	case BandMedium:
		return 2
	default:
		return 1
	}
}

// EchoCap bounds the retained echo list; older echoes fall off first.
const EchoCap = 12

// FlashpointEcho is the lasting mark a resolved flashpoint leaves on the
// world. Echoes feed back into tension for a few turns and seed callbacks.
type FlashpointEcho struct {
	FactionID     string       `json:"faction_id"`
	Turn          int          `json:"turn"`
	Channel       Channel      `json:"channel"`
	SeverityScore int          `json:"severity_score"`
	SeverityBand  SeverityBand `json:"severity_band"`
}

// AppendEcho adds an echo, evicting the oldest past EchoCap. The input
// slice is not modified.
func AppendEcho(echoes []FlashpointEcho, e FlashpointEcho) []FlashpointEcho {
	out := make([]FlashpointEcho, 0, len(echoes)+1)
	out = append(out, echoes...)
	out = append(out, e)
	if len(out) > EchoCap {
		out = out[len(out)-EchoCap:]
	}
	return out
}

// PickEcho deterministically selects one echo to voice, weighted toward
// the newest half of the list. The second return is false when there are
// no echoes.
func PickEcho(echoes []FlashpointEcho, seed uint64) (FlashpointEcho, bool) {
	if len(echoes) == 0 {
		return FlashpointEcho{}, false
	}
	rng := seedpolicy.RNG(seed)
	if len(echoes) > 2 && rng.Intn(3) < 2 {
		recent := echoes[len(echoes)/2:]
		return recent[rng.Intn(len(recent))], true
	}
	return echoes[rng.Intn(len(echoes))], true
}

// EchoPressureWindow is how many turns an echo keeps feeding tension.
const EchoPressureWindow = 4

// echoPressureCap bounds the combined pressure contribution.
const echoPressureCap = 12

// EchoPressure sums the severity weights of echoes still inside the
// pressure window at turn, capped.
func EchoPressure(echoes []FlashpointEcho, turn int) int {
	total := 0
	for _, e := range echoes {
		if turn-e.Turn < EchoPressureWindow {
			total += e.SeverityBand.Weight()
		}
	}
	if total > echoPressureCap {
		total = echoPressureCap
	}
	return total
}
