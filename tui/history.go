// Package tui provides a Bubble Tea terminal UI that watches a running
// simulation: the world grid, a scrolling fight log and a status bar.
package tui

// FightLog is a bounded buffer of rendered fight lines. The oldest lines
// are dropped once max is reached.
type FightLog struct {
	entries []logLine
	max     int
}

type logLine struct {
	text string
	kind lineKind
}

// NewFightLog creates a log holding at most max lines.
func NewFightLog(max int) *FightLog {
	if max < 1 {
		max = 1
	}
	return &FightLog{
		entries: make([]logLine, 0, max),
		max:     max,
	}
}

// Push appends a line.
func (l *FightLog) Push(text string, kind lineKind) {
	l.entries = append(l.entries, logLine{text: text, kind: kind})
	if len(l.entries) > l.max {
		l.entries = l.entries[1:]
	}
}

// Len returns the number of lines held.
func (l *FightLog) Len() int { return len(l.entries) }

// Lines returns the raw text of every line, oldest first.
func (l *FightLog) Lines() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.text
	}
	return out
}
