// Package memory keeps the capped log of notable narrative moments the
// engine can call back to when it needs an earlier event to echo.
package memory

import "github.com/louisbranch/emberfall/internal/narrative/seedpolicy"

// Cap bounds the log; appends beyond it evict oldest-first.
const Cap = 20

// Entry records one remembered moment.
type Entry struct {
	Turn        int    `json:"turn"`
	Fingerprint string `json:"fingerprint"`
	SummaryTag  string `json:"summary_tag"`
	Severity    int    `json:"severity"`
}

// Append adds an entry, evicting the oldest when the log is full. The input
// slice is not modified.
func Append(entries []Entry, e Entry) []Entry {
	out := make([]Entry, 0, len(entries)+1)
	out = append(out, entries...)
	out = append(out, e)
	if len(out) > Cap {
		out = out[len(out)-Cap:]
	}
	return out
}

// PickRecent deterministically selects one entry matching the filter,
// weighted toward the most recent half of the log. The filter may be nil to
// accept all entries. The second return is false when nothing matches.
func PickRecent(entries []Entry, seed uint64, filter func(Entry) bool) (Entry, bool) {
	candidates := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if filter == nil || filter(e) {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return Entry{}, false
	}
	rng := seedpolicy.RNG(seed)
	// Draw from the recent half twice as often as from the full list.
	if len(candidates) > 2 && rng.Intn(3) < 2 {
		recent := candidates[len(candidates)/2:]
		return recent[rng.Intn(len(recent))], true
	}
	return candidates[rng.Intn(len(candidates))], true
}
