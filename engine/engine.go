// Package engine runs the simulation: a movement worker and a fight
// resolver worker share the entity registry and communicate only through
// the fight queue.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

// ErrRunning is returned when an operation needs a stopped engine.
var ErrRunning = errors.New("engine is running")

// Options configures an Engine.
type Options struct {
	Width  int
	Height int
	Seed   int64 // 0 picks a time-derived seed

	MoveInterval  time.Duration
	FightInterval time.Duration
	EventsPerTick int

	// Observers are subscribed on every entity the engine creates.
	Observers []state.Observer
}

// DefaultOptions is the stock arena: a 100x100 world, movement
// every 10ms and one fight every 100ms.
func DefaultOptions() Options {
	return Options{
		Width:         100,
		Height:        100,
		MoveInterval:  10 * time.Millisecond,
		FightInterval: 100 * time.Millisecond,
		EventsPerTick: 1,
	}
}

// WithScenario applies the world overrides of sc.
func (o Options) WithScenario(sc *state.Scenario) Options {
	if sc == nil {
		return o
	}
	if sc.World.Width > 0 {
		o.Width = sc.World.Width
	}
	if sc.World.Height > 0 {
		o.Height = sc.World.Height
	}
	if sc.World.Seed != 0 {
		o.Seed = sc.World.Seed
	}
	return o
}

// Engine holds the shared state and the two workers.
type Engine struct {
	Registry *state.Registry
	Queue    *events.Queue
	Bus      *events.Bus
	Factory  *state.Factory

	opts     Options
	seed     int64
	log      *zap.Logger
	rng      *RNG
	mover    *Mover
	resolver *Resolver

	stop    atomic.Bool
	running atomic.Bool
	group   *errgroup.Group
}

// New creates a stopped engine with an empty registry.
func New(opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	reg := state.NewRegistry(opts.Width, opts.Height)
	queue := events.NewQueue()
	bus := events.NewBus()

	e := &Engine{
		Registry: reg,
		Queue:    queue,
		Bus:      bus,
		Factory:  state.NewFactory(opts.Observers...),
		opts:     opts,
		seed:     seed,
		log:      log,
		rng:      NewRNG(seed),
	}
	e.mover = NewMover(reg, queue, NewRNG(seed+1))
	e.resolver = NewResolver(reg, queue, bus, NewRNG(seed+2), opts.EventsPerTick, log)
	return e
}

// Seed returns the seed actually in use.
func (e *Engine) Seed() int64 { return e.seed }

// Spawn creates and registers one entity.
func (e *Engine) Spawn(kind types.Kind, x, y int) (*state.NPC, error) {
	n, err := e.Factory.Make(kind, x, y)
	if err != nil {
		return nil, err
	}
	if err := e.Registry.Insert(n); err != nil {
		return nil, err
	}
	return n, nil
}

// SpawnRandom creates count entities of uniformly random kind and position.
func (e *Engine) SpawnRandom(count int) error {
	weights := make([]int, len(types.Kinds))
	for i := range weights {
		weights[i] = 1
	}
	return e.spawnHorde(count, weights)
}

// Populate inserts the fixed spawns of sc, then its hordes.
func (e *Engine) Populate(sc *state.Scenario) error {
	if e.running.Load() {
		return ErrRunning
	}
	for i, sp := range sc.Spawns {
		if _, err := e.Spawn(sp.Kind, sp.X, sp.Y); err != nil {
			return fmt.Errorf("spawn %d: %w", i+1, err)
		}
	}
	for i, h := range sc.Hordes {
		if err := e.spawnHorde(h.Count, h.WeightList()); err != nil {
			return fmt.Errorf("horde %d: %w", i+1, err)
		}
	}
	e.log.Info("scenario populated",
		zap.String("scenario", sc.Name),
		zap.Int("npcs", e.Registry.Len()),
	)
	return nil
}

func (e *Engine) spawnHorde(count int, weights []int) error {
	for i := 0; i < count; i++ {
		kind := types.Kinds[e.rng.WeightedSelect(weights)]
		if _, err := e.Spawn(kind, e.rng.Intn(e.opts.Width), e.rng.Intn(e.opts.Height)); err != nil {
			return err
		}
	}
	return nil
}

// Load replaces the registry contents, as after reading a saved roster.
func (e *Engine) Load(npcs []*state.NPC) error {
	if e.running.Load() {
		return ErrRunning
	}
	return e.Registry.Replace(npcs)
}

// Start launches the movement and resolver workers.
func (e *Engine) Start() error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	e.stop.Store(false)
	e.group = &errgroup.Group{}
	e.group.Go(e.loop("movement", e.opts.MoveInterval, func() { e.mover.Step() }))
	e.group.Go(e.loop("resolver", e.opts.FightInterval, func() { e.resolver.Step() }))
	e.log.Info("simulation started",
		zap.Int64("seed", e.seed),
		zap.Int("npcs", e.Registry.Len()),
		zap.Duration("move_interval", e.opts.MoveInterval),
		zap.Duration("fight_interval", e.opts.FightInterval),
	)
	return nil
}

// Stop raises the stop flag and joins both workers. Each worker notices
// the flag only after its current sleep, so Stop can take up to one tick.
func (e *Engine) Stop() error {
	if !e.running.Load() {
		return nil
	}
	e.stop.Store(true)
	err := e.group.Wait()
	e.running.Store(false)
	stats := e.resolver.Stats()
	e.log.Info("simulation stopped",
		zap.Int64("resolved", stats.Resolved),
		zap.Int64("discarded", stats.Discarded),
		zap.Int64("kills", stats.Kills),
		zap.Int("pending", e.Queue.Len()),
	)
	return err
}

// Running reports whether the workers are active.
func (e *Engine) Running() bool { return e.running.Load() }

// loop polls the stop flag at the top of every iteration and sleeps a
// fixed interval between ticks.
func (e *Engine) loop(name string, interval time.Duration, step func()) func() error {
	return func() error {
		e.log.Debug("worker started", zap.String("worker", name))
		for !e.stop.Load() {
			step()
			time.Sleep(interval)
		}
		e.log.Debug("worker stopped", zap.String("worker", name))
		return nil
	}
}

// Run starts the workers, calls render every interval until duration has
// elapsed or ctx is done, then stops and joins the workers.
func (e *Engine) Run(ctx context.Context, duration, every time.Duration, render func(elapsed time.Duration)) error {
	if err := e.Start(); err != nil {
		return err
	}
	start := time.Now()
	for {
		elapsed := time.Since(start)
		if elapsed >= duration || ctx.Err() != nil {
			break
		}
		if render != nil {
			render(elapsed)
		}
		wait := every
		if left := duration - time.Since(start); left < wait {
			wait = left
		}
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	return e.Stop()
}

// Stats returns the resolver counters.
func (e *Engine) Stats() Stats { return e.resolver.Stats() }

// Pending returns the number of queued fight events.
func (e *Engine) Pending() int { return e.Queue.Len() }

// Grid renders the current registry into a cells x cells grid.
func (e *Engine) Grid(cells int) Grid {
	return BuildGrid(e.Registry.Snapshot(), e.opts.Width, e.opts.Height, cells)
}

// Mover exposes the movement worker's tick for callers that drive the
// simulation by hand.
func (e *Engine) Mover() *Mover { return e.mover }

// Resolver exposes the resolver worker's tick.
func (e *Engine) Resolver() *Resolver { return e.resolver }
