package mcp

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/emberfall/internal/errors"
	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/narrative/flavor"
	"github.com/louisbranch/emberfall/internal/storage"
)

// loadState fetches and repairs a world document. Recoveries are not
// persisted here: this server is read-only.
func loadState(ctx context.Context, store storage.DocumentStore, worldID string) (narrative.State, error) {
	record, err := store.LoadWorld(ctx, worldID)
	if stderrors.Is(err, storage.ErrNotFound) {
		return narrative.State{}, errors.New(errors.CodeNotFound, fmt.Sprintf("world %q not found", worldID))
	}
	if err != nil {
		return narrative.State{}, fmt.Errorf("load world %q: %w", worldID, err)
	}
	state, _, err := narrative.DecodeState(record.Document)
	if err != nil {
		return narrative.State{}, fmt.Errorf("decode world %q: %w", worldID, err)
	}
	return state, nil
}

// TensionInput requests the tension view of a world.
type TensionInput struct {
	WorldID string `json:"world_id" jsonschema:"world identifier"`
}

// TensionResult is the tension view of a world.
type TensionResult struct {
	Turn    int   `json:"turn" jsonschema:"current world turn"`
	Tension uint8 `json:"tension" jsonschema:"tension level, 0-100"`
	Streak  int   `json:"streak" jsonschema:"consecutive turns at maximum tension"`
}

// TensionTool defines the MCP tool schema for reading tension.
func TensionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrative_tension",
		Description: "Reads the current narrative tension level of a world.",
	}
}

// TensionHandler reads the tension view.
func TensionHandler(store storage.DocumentStore) mcp.ToolHandlerFor[TensionInput, TensionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input TensionInput) (*mcp.CallToolResult, TensionResult, error) {
		state, err := loadState(ctx, store, input.WorldID)
		if err != nil {
			return nil, TensionResult{}, err
		}
		return nil, TensionResult{Turn: state.Turn, Tension: state.Tension, Streak: state.TensionStreak}, nil
	}
}

// ActiveSeedsInput requests the active story seeds of a world.
type ActiveSeedsInput struct {
	WorldID string `json:"world_id" jsonschema:"world identifier"`
}

// SeedView is one active story seed.
type SeedView struct {
	ID               string `json:"id" jsonschema:"seed identifier"`
	Kind             string `json:"kind" jsonschema:"seed kind"`
	InitiatorFaction string `json:"initiator_faction" jsonschema:"faction driving the seed"`
	PressureScore    int    `json:"pressure_score" jsonschema:"seed pressure, 0-100"`
	CreatedTurn      int    `json:"created_turn" jsonschema:"turn the seed was injected"`
}

// ActiveSeedsResult lists the active story seeds.
type ActiveSeedsResult struct {
	Seeds []SeedView `json:"seeds" jsonschema:"active story seeds in creation order"`
}

// ActiveSeedsTool defines the MCP tool schema for listing active seeds.
func ActiveSeedsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrative_active_seeds",
		Description: "Lists the story seeds currently in play for a world.",
	}
}

// ActiveSeedsHandler lists active seeds.
func ActiveSeedsHandler(store storage.DocumentStore) mcp.ToolHandlerFor[ActiveSeedsInput, ActiveSeedsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActiveSeedsInput) (*mcp.CallToolResult, ActiveSeedsResult, error) {
		state, err := loadState(ctx, store, input.WorldID)
		if err != nil {
			return nil, ActiveSeedsResult{}, err
		}
		result := ActiveSeedsResult{Seeds: []SeedView{}}
		for _, seed := range narrative.ActiveSeeds(state) {
			result.Seeds = append(result.Seeds, SeedView{
				ID:               seed.ID,
				Kind:             string(seed.Kind),
				InitiatorFaction: seed.InitiatorFaction,
				PressureScore:    seed.PressureScore,
				CreatedTurn:      seed.CreatedTurn,
			})
		}
		return nil, result, nil
	}
}

// CataclysmInput requests the cataclysm view of a world.
type CataclysmInput struct {
	WorldID string `json:"world_id" jsonschema:"world identifier"`
	Locale  string `json:"locale,omitempty" jsonschema:"optional BCP 47 locale for the flavor line"`
}

// CataclysmResult is the read-only cataclysm view.
type CataclysmResult struct {
	Active    bool   `json:"active" jsonschema:"whether a cataclysm is running"`
	Kind      string `json:"kind,omitempty" jsonschema:"cataclysm kind"`
	Phase     string `json:"phase" jsonschema:"current phase"`
	Progress  int    `json:"progress" jsonschema:"escalation progress, 0-100"`
	EndStatus string `json:"end_status,omitempty" jsonschema:"terminal status, if ended"`
	Flavor    string `json:"flavor" jsonschema:"locale-matched phase description"`
}

// CataclysmTool defines the MCP tool schema for the cataclysm summary.
func CataclysmTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrative_cataclysm",
		Description: "Summarizes the cataclysm escalation clock of a world.",
	}
}

// CataclysmHandler reads the cataclysm summary.
func CataclysmHandler(store storage.DocumentStore) mcp.ToolHandlerFor[CataclysmInput, CataclysmResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CataclysmInput) (*mcp.CallToolResult, CataclysmResult, error) {
		state, err := loadState(ctx, store, input.WorldID)
		if err != nil {
			return nil, CataclysmResult{}, err
		}
		summary := narrative.Summary(state)
		return nil, CataclysmResult{
			Active:    summary.Active,
			Kind:      string(summary.Kind),
			Phase:     string(summary.Phase),
			Progress:  summary.Progress,
			EndStatus: string(summary.EndStatus),
			Flavor:    flavor.PhaseLine(input.Locale, summary.Phase),
		}, nil
	}
}

// RecentEchoesInput requests recent flashpoint echoes of a world.
type RecentEchoesInput struct {
	WorldID string `json:"world_id" jsonschema:"world identifier"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum echoes to return, default 5"`
	Locale  string `json:"locale,omitempty" jsonschema:"optional BCP 47 locale for flavor lines"`
}

// EchoView is one flashpoint echo.
type EchoView struct {
	FactionID string `json:"faction_id" jsonschema:"faction at the heart of the flashpoint"`
	Turn      int    `json:"turn" jsonschema:"turn the flashpoint resolved"`
	Channel   string `json:"channel" jsonschema:"resolution channel"`
	Severity  string `json:"severity" jsonschema:"severity band"`
	Flavor    string `json:"flavor" jsonschema:"locale-matched echo line"`
}

// RecentEchoesResult lists recent flashpoint echoes.
type RecentEchoesResult struct {
	Echoes []EchoView `json:"echoes" jsonschema:"most recent echoes, newest last"`
}

// RecentEchoesTool defines the MCP tool schema for recent echoes.
func RecentEchoesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrative_recent_echoes",
		Description: "Lists the lasting echoes of recently resolved flashpoints.",
	}
}

// RecentEchoesHandler lists recent echoes.
func RecentEchoesHandler(store storage.DocumentStore) mcp.ToolHandlerFor[RecentEchoesInput, RecentEchoesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RecentEchoesInput) (*mcp.CallToolResult, RecentEchoesResult, error) {
		state, err := loadState(ctx, store, input.WorldID)
		if err != nil {
			return nil, RecentEchoesResult{}, err
		}
		limit := input.Limit
		if limit <= 0 {
			limit = 5
		}
		result := RecentEchoesResult{Echoes: []EchoView{}}
		for _, echo := range narrative.RecentEchoes(state, limit) {
			result.Echoes = append(result.Echoes, EchoView{
				FactionID: echo.FactionID,
				Turn:      echo.Turn,
				Channel:   string(echo.Channel),
				Severity:  string(echo.SeverityBand),
				Flavor:    flavor.EchoLine(input.Locale, echo),
			})
		}
		return nil, result, nil
	}
}
