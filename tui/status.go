package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/arena/types"
)

// aliveSummary formats the alive count of every kind, e.g. "D:3 E:5 K:2".
func aliveSummary(counts map[types.Kind]int) string {
	parts := make([]string, 0, len(types.Kinds))
	for _, k := range types.Kinds {
		parts = append(parts, fmt.Sprintf("%s:%d", strings.ToUpper(k.String()[:1]), counts[k]))
	}
	return strings.Join(parts, " ")
}

// renderStatusBar produces a full-width inverted status line showing
// alive counts, the queue length, resolver counters and elapsed time.
func (m Model) renderStatusBar() string {
	stats := m.engine.Stats()

	left := fmt.Sprintf(" %s | queue:%d | fights:%d discarded:%d kills:%d",
		aliveSummary(m.alive), m.engine.Pending(), stats.Resolved, stats.Discarded, stats.Kills)
	right := fmt.Sprintf("%.1fs/%.0fs ", m.elapsed.Seconds(), m.duration.Seconds())

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
