package loader

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/arena/types"
)

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	// World { width = 100, height = 100, seed = 7, name = "..." }
	L.SetGlobal("World", L.NewFunction(func(L *lua.LState) int {
		coll.world = L.CheckTable(1)
		return 0
	}))

	// Dragon { x = 1, y = 2 }, Elf { ... }, Knight { ... }
	for _, k := range types.Kinds {
		kind := k
		L.SetGlobal(constructorName(kind), L.NewFunction(func(L *lua.LState) int {
			tbl := L.CheckTable(1)
			coll.spawns = append(coll.spawns, rawSpawn{
				kind:  kind,
				table: tbl,
				order: coll.nextSourceOrder(),
			})
			return 0
		}))
	}

	// Horde { count = 50, weights = { dragon = 1, elf = 2 } }
	L.SetGlobal("Horde", L.NewFunction(func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		coll.hordes = append(coll.hordes, rawHorde{
			table: tbl,
			order: coll.nextSourceOrder(),
		})
		return 0
	}))
}

// constructorName maps a kind to its Lua global, e.g. "Dragon".
func constructorName(k types.Kind) string {
	name := k.String()
	return strings.ToUpper(name[:1]) + name[1:]
}
