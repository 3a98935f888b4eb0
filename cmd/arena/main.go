// Arena runs a concurrent NPC combat simulation: dragons, elves and knights
// wander a bounded world and fight whoever comes within reach.
// Usage: arena [--version] [--plain] [--quiet] [--config <file>] [--scenario <dir>]
//
//	[--load <file>] [--save <file>] [--duration <d>] [--seed <n>] [--listen <addr>]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/nathoo/arena/cli"
	"github.com/nathoo/arena/config"
	"github.com/nathoo/arena/engine"
	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/save"
	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/feed"
	"github.com/nathoo/arena/loader"
	"github.com/nathoo/arena/logging"
	"github.com/nathoo/arena/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: arena [--version] [--plain] [--quiet] [--config <file>] [--scenario <dir>] " +
	"[--load <file>] [--save <file>] [--duration <d>] [--seed <n>] [--listen <addr>]"

var errVersion = errors.New("version requested")

type flags struct {
	configPath string
	scenario   string
	load       string
	save       string
	plain      bool
	quiet      bool
	duration   time.Duration
	seed       int64
	seedSet    bool
	listen     string
}

func parseArgs(args []string) (flags, error) {
	var f flags
	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		var err error
		switch args[i] {
		case "--version":
			return f, errVersion
		case "--plain":
			f.plain = true
		case "--quiet":
			f.quiet = true
		case "--config":
			f.configPath, err = value(&i, "--config")
		case "--scenario":
			f.scenario, err = value(&i, "--scenario")
		case "--load":
			f.load, err = value(&i, "--load")
		case "--save":
			f.save, err = value(&i, "--save")
		case "--listen":
			f.listen, err = value(&i, "--listen")
		case "--duration":
			var s string
			if s, err = value(&i, "--duration"); err == nil {
				f.duration, err = time.ParseDuration(s)
			}
		case "--seed":
			var s string
			if s, err = value(&i, "--seed"); err == nil {
				f.seed, err = strconv.ParseInt(s, 10, 64)
				f.seedSet = true
			}
		default:
			err = fmt.Errorf("unknown argument %q", args[i])
		}
		if err != nil {
			return f, err
		}
	}
	return f, nil
}

// applyFlags overrides the loaded configuration with command-line values.
func applyFlags(cfg *config.Config, f flags) error {
	if f.duration != 0 {
		cfg.Simulation.Duration = f.duration
	}
	if f.seedSet {
		cfg.Simulation.Seed = f.seed
	}
	if f.listen != "" {
		cfg.Feed.Listen = f.listen
	}
	return cfg.Validate()
}

func main() {
	err := run(os.Args[1:], os.Stdout)
	switch {
	case errors.Is(err, errVersion):
		fmt.Printf("arena %s (commit %s, built %s)\n", version, commit, date)
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	f, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, errVersion) {
			return err
		}
		return fmt.Errorf("%w\n%s", err, usage)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	var sc *state.Scenario
	if f.scenario != "" {
		if sc, err = loader.Load(f.scenario, log); err != nil {
			return fmt.Errorf("loading scenario: %w", err)
		}
	}

	printer := cli.NewPrinter(stdout)
	plain := f.plain || !isTerminal(stdout)

	opts := engine.DefaultOptions()
	opts.Width = cfg.World.Width
	opts.Height = cfg.World.Height
	opts.Seed = cfg.Simulation.Seed
	opts.MoveInterval = cfg.Simulation.MoveInterval
	opts.FightInterval = cfg.Simulation.FightInterval
	opts.EventsPerTick = cfg.Simulation.EventsPerTick
	opts = opts.WithScenario(sc)
	opts.Observers = []state.Observer{events.NewLogObserver(log)}
	if plain && !f.quiet {
		opts.Observers = append(opts.Observers, &cli.TextObserver{P: printer})
	}

	eng := engine.New(opts, log)

	if err := populate(eng, f, sc, cfg, printer, log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	feedErr := make(chan error, 1)
	if cfg.Feed.Listen != "" {
		hub := feed.NewHub(cfg.Feed.Buffer, log)
		eng.Bus.Subscribe(hub)
		feedCtx, cancelFeed := context.WithCancel(ctx)
		defer func() {
			cancelFeed()
			if err := <-feedErr; err != nil {
				log.Warn("feed stopped", zap.Error(err))
			}
		}()
		go func() { feedErr <- hub.ListenAndServe(feedCtx, cfg.Feed.Listen) }()
	}

	runner := &cli.Runner{
		Engine: eng,
		P:      printer,
		Cells:  cfg.World.Grid,
		Every:  cfg.Simulation.RenderInterval,
		Quiet:  f.quiet,
	}
	if plain {
		if err := runner.Run(ctx, cfg.Simulation.Duration); err != nil {
			return err
		}
	} else {
		err := tui.Run(eng, tui.Options{
			Cells:    cfg.World.Grid,
			Every:    cfg.Simulation.RenderInterval,
			Duration: cfg.Simulation.Duration,
		})
		if err != nil {
			return err
		}
		runner.Summary()
	}

	if f.save != "" {
		if err := save.SaveFile(f.save, eng.Registry); err != nil {
			return err
		}
		log.Info("roster saved", zap.String("path", f.save), zap.Int("npcs", eng.Registry.Len()))
	}
	return nil
}

// populate fills the registry from a saved roster, a scenario, or random
// generation, in that order of preference.
func populate(eng *engine.Engine, f flags, sc *state.Scenario, cfg *config.Config, p *cli.Printer, log *zap.Logger) error {
	switch {
	case f.load != "":
		npcs, err := save.LoadFile(f.load, eng.Factory, eng.Registry, func(err error) {
			log.Warn("skipped roster record", zap.String("path", f.load), zap.Error(err))
		})
		if err != nil {
			return err
		}
		return eng.Load(npcs)
	case sc != nil:
		return eng.Populate(sc)
	default:
		p.Block(func(w io.Writer) { fmt.Fprintln(w, "Generating initial NPCs...") })
		return eng.SpawnRandom(cfg.Simulation.RandomNPCs)
	}
}

// isTerminal returns true if w is a terminal (not piped/redirected).
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
