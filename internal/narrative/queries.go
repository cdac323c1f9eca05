package narrative

import (
	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// ActiveSeeds returns the seeds currently in play, in creation order.
func ActiveSeeds(s State) []story.Seed {
	var out []story.Seed
	for _, seed := range s.Seeds {
		if seed.Status == story.StatusActive {
			out = append(out, seed)
		}
	}
	return out
}

// ActiveSeedsOfKind returns the active seeds of one kind, in creation
// order. At most one entry is expected while director invariants hold.
func ActiveSeedsOfKind(s State, kind story.Kind) []story.Seed {
	var out []story.Seed
	for _, seed := range ActiveSeeds(s) {
		if seed.Kind == kind {
			out = append(out, seed)
		}
	}
	return out
}

// SeedByID returns a seed by ID. Terminal seeds stay addressable so echo
// and memory surfaces can still reference them.
func SeedByID(s State, id string) (story.Seed, bool) {
	idx, ok := s.seedByID(id)
	if !ok {
		return story.Seed{}, false
	}
	return s.Seeds[idx], true
}

// RecentEchoes returns up to n of the most recent flashpoint echoes,
// newest last.
func RecentEchoes(s State, n int) []story.FlashpointEcho {
	if n <= 0 || len(s.Echoes) == 0 {
		return nil
	}
	start := len(s.Echoes) - n
	if start < 0 {
		start = 0
	}
	return append([]story.FlashpointEcho(nil), s.Echoes[start:]...)
}

// RecentEchoesByChannel returns up to n of the most recent echoes on one
// resolution channel, newest last.
func RecentEchoesByChannel(s State, channel story.Channel, n int) []story.FlashpointEcho {
	if n <= 0 {
		return nil
	}
	var out []story.FlashpointEcho
	for _, echo := range s.Echoes {
		if echo.Channel == channel {
			out = append(out, echo)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// CataclysmSummary is the read-only view of the escalation clock.
type CataclysmSummary struct {
	Active    bool                `json:"active"`
	Kind      cataclysm.Kind      `json:"kind,omitempty"`
	Phase     cataclysm.Phase     `json:"phase"`
	Progress  int                 `json:"progress"`
	EndStatus cataclysm.EndStatus `json:"end_status,omitempty"`
}

// Summary returns the current cataclysm view.
func Summary(s State) CataclysmSummary {
	return CataclysmSummary{
		Active:    s.Cataclysm.Active,
		Kind:      s.Cataclysm.Kind,
		Phase:     s.Cataclysm.Phase,
		Progress:  s.Cataclysm.Progress,
		EndStatus: s.Cataclysm.EndStatus,
	}
}
