// Package cli renders a simulation run as plain text: the initial roster,
// a periodic ASCII grid, fight details and the survivors.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/nathoo/arena/engine"
	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

// Printer serializes whole blocks of output so fight details and grid
// frames written from different goroutines never interleave.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPrinter wraps out. A nil out writes to stdout.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

// Block writes everything fn writes as one uninterrupted block.
func (p *Printer) Block(fn func(w io.Writer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.out)
}

// TextObserver prints the details of every resolved fight.
type TextObserver struct {
	P *Printer
}

func (o *TextObserver) OnFight(attacker *state.NPC, attackRoll int, defender *state.NPC, defenseRoll int, win bool) {
	a, d := attacker.Snapshot(), defender.Snapshot()
	o.P.Block(func(w io.Writer) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Fight Details --------")
		fmt.Fprintln(w, "Attacker:")
		fmt.Fprintln(w, describe(a))
		fmt.Fprintln(w, "Defender:")
		fmt.Fprintln(w, describe(d))
		fmt.Fprintf(w, "Attack roll: %d, Defense roll: %d\n", attackRoll, defenseRoll)
		if win {
			fmt.Fprintln(w, "Defender died!")
		} else {
			fmt.Fprintln(w, "Defender survived.")
		}
		fmt.Fprintln(w)
	})
}

// Runner drives a plain-text run of an engine.
type Runner struct {
	Engine *engine.Engine
	P      *Printer
	Cells  int           // grid cells per side
	Every  time.Duration // grid render interval
	Quiet  bool          // skip the periodic grid
}

// Run prints the initial roster, runs the engine for duration printing a
// grid every interval, then prints the survivors and resolver counters.
func (r *Runner) Run(ctx context.Context, duration time.Duration) error {
	r.P.Block(func(w io.Writer) {
		fmt.Fprintln(w, "Initial list of NPCs:")
		printRoster(w, r.Engine.Registry.Snapshot(), false)
	})

	err := r.Engine.Run(ctx, duration, r.Every, func(time.Duration) {
		if r.Quiet {
			return
		}
		grid := r.Engine.Grid(r.Cells)
		r.P.Block(func(w io.Writer) {
			fmt.Fprint(w, grid.String())
			fmt.Fprintln(w)
		})
	})
	if err != nil {
		return err
	}

	r.Summary()
	return nil
}

// Summary prints the survivors and the resolver counters.
func (r *Runner) Summary() {
	snaps := r.Engine.Registry.Snapshot()
	stats := r.Engine.Stats()
	r.P.Block(func(w io.Writer) {
		fmt.Fprintln(w, "Survivors:")
		printRoster(w, snaps, true)
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[fights resolved: %d, discarded: %d, kills: %d, pending: %d]\n",
			stats.Resolved, stats.Discarded, stats.Kills, r.Engine.Pending())
	})
}

func printRoster(w io.Writer, snaps []types.Snapshot, aliveOnly bool) {
	for _, s := range snaps {
		if aliveOnly && !s.Alive {
			continue
		}
		fmt.Fprintln(w, describe(s))
	}
}

func describe(s types.Snapshot) string {
	return fmt.Sprintf("%s #%d at (%d, %d)", s.Kind, s.ID, s.X, s.Y)
}
