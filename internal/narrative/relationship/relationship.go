// Package relationship tracks faction standings and NPC affinities as a
// small bounded graph mutated by deterministic tick updates and by story
// seed resolutions.
package relationship

import (
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
)

// Model bounds.
const (
	EdgeMin    = -100
	EdgeMax    = 100
	HistoryCap = 30

	// TickInterval is the spacing, in turns, between ambient edge drifts.
	TickInterval = 2

	// calmTension is the level below which ambient drift stays at ±1.
	calmTension = 20
)

// Default cast. Every new world starts with these factions and NPCs; seed
// resolutions may push their edges around but never add or remove members.
var (
	Factions = []string{"briarfolk", "gravemarch", "lanternwatch"}
	NPCs     = []string{"broker_vess", "captain_imre", "innkeep_odell"}
)

// EdgeKey identifies an undirected faction pair, lower name first.
type EdgeKey string

// Key builds the canonical EdgeKey for two factions.
func Key(a, b string) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey(a + "|" + b)
}

// Split returns the two faction names of an edge key.
func (k EdgeKey) Split() (string, string) {
	parts := strings.SplitN(string(k), "|", 2)
	if len(parts) != 2 {
		return string(k), ""
	}
	return parts[0], parts[1]
}

// Delta records one applied edge change.
type Delta struct {
	Turn   int     `json:"turn"`
	Edge   EdgeKey `json:"edge"`
	Amount int     `json:"amount"`
	Reason string  `json:"reason"`
}

// Graph holds all relationship state for one world.
type Graph struct {
	FactionEdges map[EdgeKey]int           `json:"faction_edges"`
	NPCAffinity  map[string]map[string]int `json:"npc_affinity"`
	History      []Delta                   `json:"history"`
}

// DefaultGraph returns the starting graph: all faction edges neutral and
// every NPC mildly aligned with their home faction.
func DefaultGraph() Graph {
	g := Graph{
		FactionEdges: make(map[EdgeKey]int),
		NPCAffinity:  make(map[string]map[string]int),
	}
	for i, a := range Factions {
		for _, b := range Factions[i+1:] {
			g.FactionEdges[Key(a, b)] = 0
		}
	}
	for i, npc := range NPCs {
		g.NPCAffinity[npc] = map[string]int{Factions[i%len(Factions)]: 10}
	}
	return g
}

// Valid reports whether the graph's maps are initialized.
func (g Graph) Valid() bool {
	return g.FactionEdges != nil && g.NPCAffinity != nil
}

// Clone deep-copies the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		FactionEdges: make(map[EdgeKey]int, len(g.FactionEdges)),
		NPCAffinity:  make(map[string]map[string]int, len(g.NPCAffinity)),
		History:      append([]Delta(nil), g.History...),
	}
	for k, v := range g.FactionEdges {
		out.FactionEdges[k] = v
	}
	for npc, affinities := range g.NPCAffinity {
		inner := make(map[string]int, len(affinities))
		for faction, score := range affinities {
			inner[faction] = score
		}
		out.NPCAffinity[npc] = inner
	}
	return out
}

// sortedEdgeKeys returns the graph's edge keys in lexicographic order so
// every iteration over the map is reproducible.
func (g Graph) sortedEdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, 0, len(g.FactionEdges))
	for k := range g.FactionEdges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Apply adjusts one edge by amount, clamps it, and records the delta. It
// returns the new graph; the receiver is not modified.
func (g Graph) Apply(turn int, edge EdgeKey, amount int, reason string) Graph {
	out := g.Clone()
	value := out.FactionEdges[edge] + amount
	if value > EdgeMax {
		value = EdgeMax
	}
	if value < EdgeMin {
		value = EdgeMin
	}
	out.FactionEdges[edge] = value
	out.History = append(out.History, Delta{Turn: turn, Edge: edge, Amount: amount, Reason: reason})
	if len(out.History) > HistoryCap {
		out.History = out.History[len(out.History)-HistoryCap:]
	}
	return out
}

// TickUpdate applies one small ambient drift to a seeded edge. It runs only
// on every TickInterval-th turn; other turns return the graph unchanged.
func TickUpdate(g Graph, worldSeed uint64, turn int, tension uint8) Graph {
	if turn%TickInterval != 0 || len(g.FactionEdges) == 0 {
		return g
	}
	seed := seedpolicy.DeriveSeed(seedpolicy.NamespaceRelationship, map[string]any{
		"world_seed": worldSeed,
		"turn":       turn,
	})
	rng := seedpolicy.RNG(seed)
	keys := g.sortedEdgeKeys()
	edge := keys[rng.Intn(len(keys))]

	limit := 2
	if tension < calmTension {
		limit = 1
	}
	amount := rng.Intn(limit) + 1
	if rng.Intn(2) == 0 {
		amount = -amount
	}
	return g.Apply(turn, edge, amount, fmt.Sprintf("ambient drift turn %d", turn))
}

// Imbalance returns the magnitude of the most negative faction edge, or 0
// when no edge is strained.
func Imbalance(g Graph) int {
	worst := 0
	for _, k := range g.sortedEdgeKeys() {
		if v := g.FactionEdges[k]; v < 0 && -v > worst {
			worst = -v
		}
	}
	return worst
}

// MostStrainedPair returns the edge with the most negative standing. The
// second return is false when every edge is non-negative.
func MostStrainedPair(g Graph) (EdgeKey, bool) {
	var worstKey EdgeKey
	worst := 0
	for _, k := range g.sortedEdgeKeys() {
		if v := g.FactionEdges[k]; v < worst {
			worst = v
			worstKey = k
		}
	}
	return worstKey, worst < 0
}
