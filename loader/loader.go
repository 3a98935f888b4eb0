package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/nathoo/arena/engine/state"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	world  *lua.LTable
	spawns []rawSpawn
	hordes []rawHorde
	order  int
}

func (c *collector) nextSourceOrder() int {
	c.order++
	return c.order
}

// Load reads all .lua files from dir, compiles them into a scenario,
// validates it, and returns it. The Lua VM is discarded after loading.
// Validation warnings are logged to log, which may be nil.
func Load(dir string, log *zap.Logger) (*state.Scenario, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Discover .lua files.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: scenario.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()
	openSafeLibs(L)
	sandbox(L)

	coll := &collector{}
	registerAPI(L, coll)

	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	ve := &ValidationError{}
	sc := compile(coll, ve)
	if sc.Name == "" {
		sc.Name = filepath.Base(dir)
	}
	validate(sc, ve)

	for _, w := range ve.Warnings {
		log.Warn("scenario warning", zap.String("scenario", sc.Name), zap.String("warning", w))
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}

	log.Debug("scenario loaded",
		zap.String("scenario", sc.Name),
		zap.Strings("files", luaFiles),
		zap.Int("spawns", len(sc.Spawns)),
		zap.Int("hordes", len(sc.Hordes)),
	)
	return sc, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	// Math library, so scripts can lay out spawns with math.floor and friends.
	lua.OpenMath(L)
}

// sandbox removes dangerous globals and functions.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Scenarios are reproduced from the engine seed, not from Lua.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
