// Package loader loads Lua scenario scripts into Go structs at startup.
// The Lua VM is discarded after loading, so no Lua runs during a simulation.
package loader

import (
	"fmt"
	"math"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

// rawSpawn holds a fixed spawn table before compilation.
type rawSpawn struct {
	kind  types.Kind
	table *lua.LTable
	order int
}

// rawHorde holds a horde table before compilation.
type rawHorde struct {
	table *lua.LTable
	order int
}

var (
	worldFields = map[string]bool{"width": true, "height": true, "seed": true, "name": true}
	spawnFields = map[string]bool{"x": true, "y": true}
	hordeFields = map[string]bool{"count": true, "weights": true}
)

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getInt returns an integer field and whether it was present. Non-integral
// or non-numeric values are reported to ve.
func getInt(tbl *lua.LTable, key, where string, ve *ValidationError) (int, bool) {
	v := tbl.RawGetString(key)
	if v == lua.LNil {
		return 0, false
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %s must be a number, got %s", where, key, v.Type()))
		return 0, false
	}
	f := float64(n)
	if f != math.Trunc(f) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: %s must be an integer, got %v", where, key, f))
		return 0, false
	}
	return int(f), true
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// checkFields warns about keys the constructor does not understand.
func checkFields(tbl *lua.LTable, known map[string]bool, where string, ve *ValidationError) {
	var unknown []string
	tbl.ForEach(func(k, _ lua.LValue) {
		if ks, ok := k.(lua.LString); !ok || !known[string(ks)] {
			unknown = append(unknown, k.String())
		}
	})
	sort.Strings(unknown)
	for _, k := range unknown {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: unknown field %q ignored", where, k))
	}
}

// compile turns the collected tables into a scenario. Structural problems
// (wrong value types, missing coordinates) are appended to ve.
func compile(coll *collector, ve *ValidationError) *state.Scenario {
	sc := &state.Scenario{}

	if coll.world != nil {
		sc.World = compileWorld(coll.world, ve)
		sc.Name = getString(coll.world, "name")
	}
	for _, raw := range coll.spawns {
		if sp, ok := compileSpawn(raw, ve); ok {
			sc.Spawns = append(sc.Spawns, sp)
		}
	}
	for _, raw := range coll.hordes {
		sc.Hordes = append(sc.Hordes, compileHorde(raw, ve))
	}
	return sc
}

func compileWorld(tbl *lua.LTable, ve *ValidationError) state.World {
	checkFields(tbl, worldFields, "World", ve)
	var w state.World
	w.Width, _ = getInt(tbl, "width", "World", ve)
	w.Height, _ = getInt(tbl, "height", "World", ve)
	seed, _ := getInt(tbl, "seed", "World", ve)
	w.Seed = int64(seed)
	return w
}

func compileSpawn(raw rawSpawn, ve *ValidationError) (state.Spawn, bool) {
	where := fmt.Sprintf("%s (definition %d)", constructorName(raw.kind), raw.order)
	checkFields(raw.table, spawnFields, where, ve)

	x, okX := getInt(raw.table, "x", where, ve)
	y, okY := getInt(raw.table, "y", where, ve)
	if !okX || !okY {
		if raw.table.RawGetString("x") == lua.LNil || raw.table.RawGetString("y") == lua.LNil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: x and y are required", where))
		}
		return state.Spawn{}, false
	}
	return state.Spawn{Kind: raw.kind, X: x, Y: y}, true
}

func compileHorde(raw rawHorde, ve *ValidationError) state.Horde {
	where := fmt.Sprintf("Horde (definition %d)", raw.order)
	checkFields(raw.table, hordeFields, where, ve)

	count, ok := getInt(raw.table, "count", where, ve)
	if !ok && raw.table.RawGetString("count") == lua.LNil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: count is required", where))
	}
	h := state.Horde{Count: count}

	weights := getTable(raw.table, "weights")
	if weights == nil {
		if raw.table.RawGetString("weights") != lua.LNil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: weights must be a table", where))
		}
		return h
	}
	h.Weights = map[types.Kind]int{}
	weights.ForEach(func(k, v lua.LValue) {
		name, isString := k.(lua.LString)
		kind, known := types.ParseKind(string(name))
		if !isString || !known {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: unknown kind %q in weights", where, k.String()))
			return
		}
		n, isNum := v.(lua.LNumber)
		if !isNum || float64(n) != math.Trunc(float64(n)) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: weight for %s must be an integer", where, kind))
			return
		}
		h.Weights[kind] = int(n)
	})
	return h
}

// sortedLuaFiles returns .lua files with scenario.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var mainFile string
	var others []string
	for _, f := range files {
		if f == "scenario.lua" {
			mainFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if mainFile != "" {
		return append([]string{mainFile}, others...)
	}
	return others
}
