package engine

import (
	"strings"

	"github.com/nathoo/arena/engine/rules"
	"github.com/nathoo/arena/types"
)

// Empty marks a cell with no entity in it.
const Empty = ' '

// Grid is a coarse cells x cells picture of the world.
type Grid struct {
	Cells int
	Rows  [][]rune
}

// BuildGrid maps every snapshot to its cell. An alive glyph wins over the
// dead marker when both land in the same cell.
func BuildGrid(snaps []types.Snapshot, width, height, cells int) Grid {
	rows := make([][]rune, cells)
	for j := range rows {
		rows[j] = []rune(strings.Repeat(string(Empty), cells))
	}

	for _, s := range snaps {
		i := s.X * cells / width
		j := s.Y * cells / height
		if i < 0 || i >= cells || j < 0 || j >= cells {
			continue
		}
		if s.Alive {
			rows[j][i] = rules.TraitsOf(s.Kind).Glyph
		} else if rows[j][i] == Empty {
			rows[j][i] = rules.DeadGlyph
		}
	}
	return Grid{Cells: cells, Rows: rows}
}

// String renders the grid with one bracketed cell per glyph.
func (g Grid) String() string {
	var b strings.Builder
	for _, row := range g.Rows {
		for _, c := range row {
			b.WriteByte('[')
			b.WriteRune(c)
			b.WriteByte(']')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
