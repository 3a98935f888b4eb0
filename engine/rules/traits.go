package rules

import "github.com/nathoo/arena/types"

// Traits are the fixed per-kind constants consumed by movement,
// proximity detection and rendering.
type Traits struct {
	Name       string
	Glyph      rune
	MoveRange  int // max displacement per axis per tick
	KillRadius int // Euclidean detection radius
}

var traits = map[types.Kind]Traits{
	types.Dragon: {Name: "dragon", Glyph: 'D', MoveRange: 50, KillRadius: 30},
	types.Elf:    {Name: "elf", Glyph: 'E', MoveRange: 10, KillRadius: 50},
	types.Knight: {Name: "knight", Glyph: 'K', MoveRange: 30, KillRadius: 10},
}

// DeadGlyph marks a cell holding only dead entities.
const DeadGlyph = '.'

// TraitsOf returns the constants for k. Unknown kinds get zero ranges
// and a '?' glyph, so they never move and never detect anyone.
func TraitsOf(k types.Kind) Traits {
	if t, ok := traits[k]; ok {
		return t
	}
	return Traits{Name: k.String(), Glyph: '?'}
}
