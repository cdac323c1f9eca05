package scenario

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/louisbranch/emberfall/internal/errors"
	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/flavor"
	"github.com/louisbranch/emberfall/internal/narrative/memory"
	"github.com/louisbranch/emberfall/internal/narrative/seedpolicy"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// DefaultWorldSeed is used when a script omits the world step's seed.
const DefaultWorldSeed = 101

// Config controls scenario execution.
type Config struct {
	Assertions AssertionMode
	Verbose    bool
	Locale     string
	Logger     *log.Logger
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		Assertions: AssertionStrict,
		Locale:     flavor.BaseLocale,
		Verbose:    false,
	}
}

// Runner executes Lua scenarios against an in-process narrative engine.
type Runner struct {
	director   *narrative.Director
	state      narrative.State
	effects    []narrative.SideEffect
	started    bool
	assertions Assertions
	logger     *log.Logger
	verbose    bool
	locale     string
}

// NewRunner prepares a scenario runner.
func NewRunner(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}
	locale := cfg.Locale
	if locale == "" {
		locale = flavor.BaseLocale
	}
	return &Runner{
		director:   narrative.New(narrative.DefaultConfig()),
		assertions: Assertions{Mode: cfg.Assertions, Logger: logger},
		logger:     logger,
		verbose:    cfg.Verbose,
		locale:     locale,
	}
}

// State returns the current narrative document.
func (r *Runner) State() narrative.State {
	return r.state
}

// Effects returns every side effect the run produced, in order.
func (r *Runner) Effects() []narrative.SideEffect {
	return r.effects
}

// RunFile loads and executes a scenario file.
func RunFile(ctx context.Context, cfg Config, path string) error {
	scenario, err := LoadScenarioFromFile(path)
	if err != nil {
		return err
	}
	return NewRunner(cfg).RunScenario(ctx, scenario)
}

// RunScenario executes the scenario steps in order.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) error {
	if scenario == nil {
		return errors.New(errors.CodeScenarioInvalidStep, "scenario is required")
	}
	r.logf("scenario start: %s (%d steps)", scenario.Name, len(scenario.Steps))
	for index, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		stepNumber := index + 1
		r.logf("step %d/%d start: %s", stepNumber, len(scenario.Steps), step.Kind)
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", stepNumber, step.Kind, err)
		}
		r.logf("step %d/%d done: %s", stepNumber, len(scenario.Steps), step.Kind)
	}
	r.logf("scenario done: %s", scenario.Name)
	return nil
}

func (r *Runner) runStep(step Step) error {
	switch step.Kind {
	case "world":
		r.state = narrative.NewState(uint64(intArg(step.Args, "seed", DefaultWorldSeed)))
		r.effects = nil
		r.started = true
		return nil
	case "rest":
		return r.tick(step, 0, 40)
	case "travel":
		return r.tick(step, 3, 50)
	case "explore":
		return r.tick(step, 6, 60)
	case "rumour":
		if err := r.tick(step, 1, 40); err != nil {
			return err
		}
		r.rumourFlavor()
		return nil
	case "social":
		return r.resolveStep(step, story.ChannelSocial, 2, 45)
	case "skirmish":
		return r.resolveStep(step, story.ChannelCombat, 5, 55)
	case "pushback":
		return r.pushbackStep(step)
	case "expect":
		return r.expectStep(step)
	default:
		return errors.New(errors.CodeScenarioInvalidStep, fmt.Sprintf("unknown step kind %q", step.Kind))
	}
}

func (r *Runner) ensureWorld() error {
	if !r.started {
		return errors.New(errors.CodeScenarioInvalidStep, "world step is required first")
	}
	return nil
}

// tick advances the engine one turn with the step's signals.
func (r *Runner) tick(step Step, defaultThreat, defaultBiome int) error {
	if err := r.ensureWorld(); err != nil {
		return err
	}
	input := narrative.TickInput{
		Threat:        intArg(step.Args, "threat", defaultThreat),
		BiomeSeverity: intArg(step.Args, "biome", defaultBiome),
	}
	var effects []narrative.SideEffect
	r.state, effects = r.director.Tick(r.state, input)
	r.effects = append(r.effects, effects...)
	for _, effect := range effects {
		r.logf("turn %d: %s", effect.Turn, effect.Message)
	}
	return nil
}

// resolveStep ticks and then resolves the oldest active seed through the
// channel. Having no active seed is not a failure.
func (r *Runner) resolveStep(step Step, channel story.Channel, defaultThreat, defaultBiome int) error {
	if err := r.tick(step, defaultThreat, defaultBiome); err != nil {
		return err
	}
	seeds := narrative.ActiveSeeds(r.state)
	if len(seeds) == 0 {
		r.logf("turn %d: nothing to resolve", r.state.Turn)
		return nil
	}
	threat := intArg(step.Args, "threat", defaultThreat)
	var result narrative.ResolutionResult
	if channel == story.ChannelCombat {
		r.state, result = r.director.ResolveCombat(r.state, seeds[0].ID, threat)
	} else {
		r.state, result = r.director.ResolveSocial(r.state, seeds[0].ID, threat)
	}
	if !result.Applied {
		r.logf("turn %d: resolution skipped: %s", r.state.Turn, result.Reason)
		return nil
	}
	r.effects = append(r.effects, result.Effects...)
	for _, effect := range result.Effects {
		r.logf("turn %d: %s", effect.Turn, effect.Message)
	}
	return nil
}

// rumourFlavor voices one seeded echo callback, one remembered moment,
// and the current cataclysm mood.
func (r *Runner) rumourFlavor() {
	echoSeed := seedpolicy.DeriveSeed(seedpolicy.NamespaceEchoPick, map[string]any{
		"world_seed": r.state.WorldSeed,
		"turn":       r.state.Turn,
	})
	if echo, ok := story.PickEcho(r.state.Echoes, echoSeed); ok {
		r.logf("rumour: %s", flavor.EchoLine(r.locale, echo))
	}
	memorySeed := seedpolicy.DeriveSeed(seedpolicy.NamespaceMemoryPick, map[string]any{
		"world_seed": r.state.WorldSeed,
		"turn":       r.state.Turn,
	})
	if entry, ok := memory.PickRecent(r.state.Memory, memorySeed, nil); ok {
		r.logf("rumour: folk still speak of the %s from turn %d", entry.SummaryTag, entry.Turn)
	}
	r.logf("rumour: %s", flavor.PhaseLine(r.locale, r.state.Cataclysm.Phase))
}

func (r *Runner) pushbackStep(step Step) error {
	if err := r.ensureWorld(); err != nil {
		return err
	}
	magnitude := intArg(step.Args, "magnitude", 0)
	obj := cataclysm.Objective{
		Tier:           intArg(step.Args, "tier", 1),
		AllianceBacked: boolArg(step.Args, "alliance", false),
	}
	var outcome narrative.PushbackOutcome
	r.state, outcome = r.director.SubmitPushback(r.state, magnitude, obj)
	if !outcome.Applied {
		r.logf("turn %d: pushback skipped: %s", r.state.Turn, outcome.Reason)
		return nil
	}
	r.effects = append(r.effects, outcome.Effects...)
	for _, effect := range outcome.Effects {
		r.logf("turn %d: %s", effect.Turn, effect.Message)
	}
	return nil
}

// expectStep checks scripted expectations against the current state.
func (r *Runner) expectStep(step Step) error {
	if err := r.ensureWorld(); err != nil {
		return err
	}
	s := r.state
	if want, ok := intArgOK(step.Args, "turn"); ok && s.Turn != want {
		if err := r.assertions.Assertf("turn = %d, want %d", s.Turn, want); err != nil {
			return err
		}
	}
	if want, ok := intArgOK(step.Args, "tension_min"); ok && int(s.Tension) < want {
		if err := r.assertions.Assertf("tension = %d, want >= %d", s.Tension, want); err != nil {
			return err
		}
	}
	if want, ok := intArgOK(step.Args, "tension_max"); ok && int(s.Tension) > want {
		if err := r.assertions.Assertf("tension = %d, want <= %d", s.Tension, want); err != nil {
			return err
		}
	}
	if want, ok := intArgOK(step.Args, "active_seeds"); ok {
		if got := len(narrative.ActiveSeeds(s)); got != want {
			if err := r.assertions.Assertf("active seeds = %d, want %d", got, want); err != nil {
				return err
			}
		}
	}
	if want, ok := step.Args["cataclysm_active"].(bool); ok && s.Cataclysm.Active != want {
		if err := r.assertions.Assertf("cataclysm active = %v, want %v", s.Cataclysm.Active, want); err != nil {
			return err
		}
	}
	if want, ok := step.Args["phase"].(string); ok && string(s.Cataclysm.Phase) != want {
		if err := r.assertions.Assertf("cataclysm phase = %s, want %s", s.Cataclysm.Phase, want); err != nil {
			return err
		}
	}
	if want, ok := intArgOK(step.Args, "progress_max"); ok && s.Cataclysm.Progress > want {
		if err := r.assertions.Assertf("cataclysm progress = %d, want <= %d", s.Cataclysm.Progress, want); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) logf(format string, args ...any) {
	if !r.verbose || r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func intArg(args map[string]any, key string, fallback int) int {
	if value, ok := intArgOK(args, key); ok {
		return value
	}
	return fallback
}

func intArgOK(args map[string]any, key string) (int, bool) {
	switch value := args[key].(type) {
	case int:
		return value, true
	case float64:
		return int(value), true
	default:
		return 0, false
	}
}

func boolArg(args map[string]any, key string, fallback bool) bool {
	if value, ok := args[key].(bool); ok {
		return value
	}
	return fallback
}
