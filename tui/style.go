package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/arena/engine/rules"
	"github.com/nathoo/arena/types"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	styleCell = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	styleDead = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleKill = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleSurvive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))
)

// glyphStyles colours each kind's glyph on the grid.
var glyphStyles = map[rune]lipgloss.Style{
	rules.TraitsOf(types.Dragon).Glyph: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	rules.TraitsOf(types.Elf).Glyph:    lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	rules.TraitsOf(types.Knight).Glyph: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
	rules.DeadGlyph:                    styleDead,
}

// lineKind identifies the type of a fight log line for styling.
type lineKind int

const (
	kindSurvive lineKind = iota
	kindKill
	kindSystem
)

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindKill:
		return styleKill.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	default:
		return styleSurvive.Render(line)
	}
}

// renderGrid draws the grid rows with one bracketed, coloured cell per glyph.
func renderGrid(rows [][]rune) string {
	var b strings.Builder
	for j, row := range rows {
		for _, c := range row {
			b.WriteString(styleCell.Render("["))
			if st, ok := glyphStyles[c]; ok {
				b.WriteString(st.Render(string(c)))
			} else {
				b.WriteRune(c)
			}
			b.WriteString(styleCell.Render("]"))
		}
		if j < len(rows)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
