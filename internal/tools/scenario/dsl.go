// Package scenario executes Lua-scripted action sequences against the
// narrative engine. Scripts build a Scenario value through a small DSL and
// the runner replays it tick by tick, so the same file always produces the
// same narrative.
package scenario

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/emberfall/internal/errors"
)

const scenarioTypeName = "scenario"

// Scenario is a parsed action script.
type Scenario struct {
	Name  string
	Steps []Step
}

// Step is one scripted action with its arguments.
type Step struct {
	Kind string
	Args map[string]any
}

// LoadScenarioFromFile parses a Lua scenario script.
func LoadScenarioFromFile(path string) (*Scenario, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	registerScenarioType(state)
	registerScenarioConstructor(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, errors.Wrap(errors.CodeScenarioLoadFailed, fmt.Sprintf("load lua %s", path), err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, errors.Wrap(errors.CodeScenarioLoadFailed, fmt.Sprintf("run lua %s", path), err)
	}

	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, errors.New(errors.CodeScenarioLoadFailed, "scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	scenario, ok := ud.(*Scenario)
	if !ok || scenario == nil {
		return nil, errors.New(errors.CodeScenarioLoadFailed, "scenario script returned invalid Scenario")
	}
	if strings.TrimSpace(scenario.Name) == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return scenario, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	scenario := &Scenario{Name: name}
	state.PushUserData(scenario)
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "world", Function: scenarioWorld},
	{Name: "rest", Function: scenarioRest},
	{Name: "travel", Function: scenarioTravel},
	{Name: "explore", Function: scenarioExplore},
	{Name: "rumour", Function: scenarioRumour},
	{Name: "social", Function: scenarioSocial},
	{Name: "skirmish", Function: scenarioSkirmish},
	{Name: "pushback", Function: scenarioPushback},
	{Name: "expect", Function: scenarioExpect},
}

func scenarioWorld(state *lua.State) int {
	scenario := checkScenario(state)
	opts := optionalTable(state, 2)
	appendStep(scenario, "world", opts)
	return returnSelf(state)
}

func scenarioRest(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "rest", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioTravel(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "travel", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioExplore(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "explore", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioRumour(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "rumour", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioSocial(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "social", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioSkirmish(state *lua.State) int {
	scenario := checkScenario(state)
	appendStep(scenario, "skirmish", optionalTable(state, 2))
	return returnSelf(state)
}

func scenarioPushback(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "pushback", tableToMap(state, 2))
	return returnSelf(state)
}

func scenarioExpect(state *lua.State) int {
	scenario := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	appendStep(scenario, "expect", tableToMap(state, 2))
	return returnSelf(state)
}

// returnSelf leaves the scenario userdata on the stack so script calls
// chain: scene:travel():explore().
func returnSelf(state *lua.State) int {
	state.PushValue(1)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if scenario, ok := ud.(*Scenario); ok && scenario != nil {
		return scenario
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func appendStep(scenario *Scenario, kind string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	scenario.Steps = append(scenario.Steps, Step{Kind: kind, Args: data})
}

func optionalTable(state *lua.State, index int) map[string]any {
	if state.IsNoneOrNil(index) || state.TypeOf(index) != lua.TypeTable {
		return map[string]any{}
	}
	return tableToMap(state, index)
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	default:
		return nil
	}
}

// normalizeNumber collapses integral Lua numbers to int.
func normalizeNumber(value float64) any {
	if value == float64(int64(value)) {
		return int(value)
	}
	return value
}
