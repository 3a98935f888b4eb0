package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nathoo/arena/engine/events"
	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

type fight struct {
	attacker    *state.NPC
	attackRoll  int
	defender    *state.NPC
	defenseRoll int
	win         bool
}

type recorder struct {
	mu     sync.Mutex
	fights []fight
}

func (r *recorder) OnFight(a *state.NPC, ar int, d *state.NPC, dr int, win bool) {
	r.mu.Lock()
	r.fights = append(r.fights, fight{a, ar, d, dr, win})
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fights)
}

func fastOptions() Options {
	opts := DefaultOptions()
	opts.Seed = 42
	opts.MoveInterval = time.Millisecond
	opts.FightInterval = time.Millisecond
	return opts
}

func mustSpawn(t *testing.T, e *Engine, kind types.Kind, x, y int) *state.NPC {
	t.Helper()
	n, err := e.Spawn(kind, x, y)
	if err != nil {
		t.Fatalf("Spawn(%s, %d, %d): %v", kind, x, y, err)
	}
	return n
}

func TestResolver_ScenarioA(t *testing.T) {
	rec := &recorder{}
	opts := fastOptions()
	opts.Observers = []state.Observer{rec}
	e := New(opts, nil)
	knight := mustSpawn(t, e, types.Knight, 0, 0)
	dragon := mustSpawn(t, e, types.Dragon, 0, 0)

	r := NewResolver(e.Registry, e.Queue, e.Bus, dice(5, 2), 1, nil)
	if stage := r.Process(events.FightEvent{Attacker: knight, Defender: dragon}); stage != events.Notified {
		t.Fatalf("stage = %s, want notified", stage)
	}

	if rec.count() != 1 {
		t.Fatalf("expected 1 notification, got %d", rec.count())
	}
	got := rec.fights[0]
	if got.attacker != knight || got.attackRoll != 5 || got.defender != dragon || got.defenseRoll != 2 || !got.win {
		t.Errorf("notification = %+v", got)
	}
	if dragon.Alive() {
		t.Error("dragon should be dead")
	}
}

func TestResolver_SecondEventAgainstDeadDefenderDiscarded(t *testing.T) {
	rec := &recorder{}
	opts := fastOptions()
	opts.Observers = []state.Observer{rec}
	e := New(opts, nil)
	k1 := mustSpawn(t, e, types.Knight, 0, 0)
	k2 := mustSpawn(t, e, types.Knight, 1, 1)
	dragon := mustSpawn(t, e, types.Dragon, 0, 0)

	e.Queue.Push(events.FightEvent{Attacker: k1, Defender: dragon})
	e.Queue.Push(events.FightEvent{Attacker: k2, Defender: dragon})

	d := dice(6, 1)
	r := NewResolver(e.Registry, e.Queue, e.Bus, d, 1, nil)
	if n := r.Step(); n != 1 {
		t.Fatalf("first Step took %d events, want 1", n)
	}
	if dragon.Alive() {
		t.Fatal("first event should kill the dragon")
	}
	if n := r.Step(); n != 1 {
		t.Fatalf("second Step took %d events, want 1", n)
	}

	if rec.count() != 1 {
		t.Errorf("expected exactly 1 notification, got %d", rec.count())
	}
	if d.calls != 2 {
		t.Errorf("dice rolled %d times, want 2", d.calls)
	}
	stats := r.Stats()
	if stats.Resolved != 1 || stats.Discarded != 1 || stats.Kills != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestResolver_FIFONotificationOrder(t *testing.T) {
	rec := &recorder{}
	opts := fastOptions()
	opts.Observers = []state.Observer{rec}
	e := New(opts, nil)

	const n = 20
	var queued []events.FightEvent
	for i := 0; i < n; i++ {
		a := mustSpawn(t, e, types.Knight, i, 0)
		d := mustSpawn(t, e, types.Dragon, i, 1)
		ev := events.FightEvent{Attacker: a, Defender: d}
		queued = append(queued, ev)
		e.Queue.Push(ev)
	}

	// Defender always wins, so no event invalidates a later one.
	r := NewResolver(e.Registry, e.Queue, e.Bus, dice(1, 6), n, nil)
	if got := r.Step(); got != n {
		t.Fatalf("Step took %d events, want %d", got, n)
	}
	if rec.count() != n {
		t.Fatalf("notifications = %d, want %d", rec.count(), n)
	}
	for i, f := range rec.fights {
		if f.attacker != queued[i].Attacker || f.defender != queued[i].Defender {
			t.Fatalf("notification %d out of order", i)
		}
		if f.win {
			t.Fatalf("notification %d: unexpected win", i)
		}
	}
}

func TestResolver_StepBatch(t *testing.T) {
	e := New(fastOptions(), nil)
	a := mustSpawn(t, e, types.Knight, 0, 0)
	d := mustSpawn(t, e, types.Dragon, 0, 0)
	for i := 0; i < 5; i++ {
		e.Queue.Push(events.FightEvent{Attacker: a, Defender: d})
	}

	r := NewResolver(e.Registry, e.Queue, e.Bus, dice(1, 6), 2, nil)
	if got := r.Step(); got != 2 {
		t.Errorf("Step = %d, want 2", got)
	}
	if e.Queue.Len() != 3 {
		t.Errorf("pending = %d, want 3", e.Queue.Len())
	}

	empty := NewResolver(e.Registry, events.NewQueue(), e.Bus, dice(1), 0, nil)
	if got := empty.Step(); got != 0 {
		t.Errorf("Step on empty queue = %d, want 0", got)
	}
}

func TestResolver_DiscardsUnregistered(t *testing.T) {
	rec := &recorder{}
	e := New(fastOptions(), nil)
	e.Bus.Subscribe(rec)
	registered := mustSpawn(t, e, types.Knight, 0, 0)
	stranger := state.NewNPC(types.Dragon, 0, 0)

	d := dice(6, 1)
	r := NewResolver(e.Registry, e.Queue, e.Bus, d, 1, nil)
	if stage := r.Process(events.FightEvent{Attacker: registered, Defender: stranger}); stage != events.Discarded {
		t.Errorf("stage = %s, want discarded", stage)
	}
	if stage := r.Process(events.FightEvent{Attacker: registered}); stage != events.Discarded {
		t.Errorf("nil defender stage = %s, want discarded", stage)
	}
	if rec.count() != 0 || d.calls != 0 || !stranger.Alive() {
		t.Error("unregistered entities must not be fought")
	}
}

func TestMover_ScenarioB(t *testing.T) {
	e := New(fastOptions(), nil)
	elf := mustSpawn(t, e, types.Elf, 0, 0)
	knight := mustSpawn(t, e, types.Knight, 3, 4)

	if got := e.Mover().Detect(); got != 2 {
		t.Fatalf("Detect enqueued %d events, want 2", got)
	}

	found := false
	for e.Queue.Len() > 0 {
		ev, _ := e.Queue.Pop()
		if ev.Attacker == elf && ev.Defender == knight {
			found = true
		}
	}
	if !found {
		t.Error("expected an elf -> knight event")
	}
	if !Validate(events.FightEvent{Attacker: elf, Defender: knight}) {
		t.Error("elf -> knight should validate")
	}
}

func TestMover_DetectUsesAttackerRadius(t *testing.T) {
	e := New(fastOptions(), nil)
	knight := mustSpawn(t, e, types.Knight, 0, 0)  // radius 10
	dragon := mustSpawn(t, e, types.Dragon, 0, 11) // radius 30
	dead := mustSpawn(t, e, types.Elf, 1, 1)
	dead.Kill()

	if got := e.Mover().Detect(); got != 1 {
		t.Fatalf("Detect enqueued %d events, want 1", got)
	}
	ev, _ := e.Queue.Pop()
	if ev.Attacker != dragon || ev.Defender != knight {
		t.Error("only the dragon reaches across 11 cells")
	}
}

func TestMover_DetectBoundaryInclusive(t *testing.T) {
	e := New(fastOptions(), nil)
	mustSpawn(t, e, types.Knight, 0, 0)
	mustSpawn(t, e, types.Knight, 6, 8) // distance exactly 10

	if got := e.Mover().Detect(); got != 2 {
		t.Errorf("Detect enqueued %d events, want 2", got)
	}
}

func TestMover_StaysInBounds(t *testing.T) {
	opts := fastOptions()
	opts.Width, opts.Height = 40, 25
	e := New(opts, nil)
	corners := []types.Point{{X: 0, Y: 0}, {X: 39, Y: 0}, {X: 0, Y: 24}, {X: 39, Y: 24}, {X: 20, Y: 12}}
	for i := 0; i < 30; i++ {
		p := corners[i%len(corners)]
		mustSpawn(t, e, types.Kinds[i%len(types.Kinds)], p.X, p.Y)
	}

	m := NewMover(e.Registry, events.NewQueue(), NewRNG(3))
	for tick := 0; tick < 300; tick++ {
		m.Step()
		for _, s := range e.Registry.Snapshot() {
			if s.X < 0 || s.X >= 40 || s.Y < 0 || s.Y >= 25 {
				t.Fatalf("tick %d: entity %d out of bounds at (%d,%d)", tick, s.ID, s.X, s.Y)
			}
		}
	}
}

func TestMover_DeadEntitiesStayPut(t *testing.T) {
	e := New(fastOptions(), nil)
	n := mustSpawn(t, e, types.Dragon, 50, 50)
	n.Kill()
	for i := 0; i < 20; i++ {
		e.Mover().Step()
	}
	if x, y := n.Position(); x != 50 || y != 50 {
		t.Errorf("dead entity moved to (%d,%d)", x, y)
	}
	if e.Queue.Len() != 0 {
		t.Errorf("dead entity produced %d events", e.Queue.Len())
	}
}

func TestBuildGrid(t *testing.T) {
	snaps := []types.Snapshot{
		{Kind: types.Dragon, X: 0, Y: 0, Alive: true},
		{Kind: types.Elf, X: 99, Y: 99, Alive: true},
		{Kind: types.Knight, X: 50, Y: 10, Alive: false},
		{Kind: types.Knight, X: 10, Y: 50, Alive: false},
		{Kind: types.Elf, X: 12, Y: 52, Alive: true},
	}
	g := BuildGrid(snaps, 100, 100, 20)

	if g.Rows[0][0] != 'D' {
		t.Errorf("cell (0,0) = %q, want D", g.Rows[0][0])
	}
	if g.Rows[19][19] != 'E' {
		t.Errorf("cell (19,19) = %q, want E", g.Rows[19][19])
	}
	if g.Rows[2][10] != '.' {
		t.Errorf("cell (10,2) = %q, want dead marker", g.Rows[2][10])
	}
	if g.Rows[10][2] != 'E' {
		t.Errorf("cell (2,10) = %q, alive glyph should win over dead", g.Rows[10][2])
	}
	if g.Rows[5][5] != Empty {
		t.Errorf("cell (5,5) = %q, want empty", g.Rows[5][5])
	}

	lines := strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("rendered %d lines, want 20", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[D][ ]") {
		t.Errorf("first line = %q", lines[0])
	}
	if len(lines[0]) != 60 {
		t.Errorf("line width = %d, want 60", len(lines[0]))
	}
}

func TestEngine_StartStop(t *testing.T) {
	rec := &recorder{}
	opts := fastOptions()
	opts.Observers = []state.Observer{rec}
	opts.EventsPerTick = 50
	e := New(opts, nil)
	if err := e.SpawnRandom(40); err != nil {
		t.Fatalf("SpawnRandom: %v", err)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Start(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start err = %v, want ErrRunning", err)
	}
	if err := e.Load(nil); !errors.Is(err, ErrRunning) {
		t.Errorf("Load while running err = %v, want ErrRunning", err)
	}
	if err := e.Populate(&state.Scenario{}); !errors.Is(err, ErrRunning) {
		t.Errorf("Populate while running err = %v, want ErrRunning", err)
	}
	if !e.Running() {
		t.Error("engine should be running")
	}

	time.Sleep(50 * time.Millisecond)

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.Running() {
		t.Error("engine should be stopped")
	}
	if err := e.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}

	for _, s := range e.Registry.Snapshot() {
		if s.X < 0 || s.X >= 100 || s.Y < 0 || s.Y >= 100 {
			t.Errorf("entity %d out of bounds at (%d,%d)", s.ID, s.X, s.Y)
		}
	}
	stats := e.Stats()
	if int(stats.Resolved) != rec.count() {
		t.Errorf("resolved %d but observed %d notifications", stats.Resolved, rec.count())
	}
	alive := len(e.Registry.Survivors())
	if int(stats.Kills) != 40-alive {
		t.Errorf("kills = %d, but %d of 40 died", stats.Kills, 40-alive)
	}
}

func TestEngine_Run(t *testing.T) {
	e := New(fastOptions(), nil)
	if err := e.SpawnRandom(10); err != nil {
		t.Fatal(err)
	}

	renders := 0
	start := time.Now()
	err := e.Run(context.Background(), 40*time.Millisecond, 10*time.Millisecond, func(time.Duration) {
		renders++
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if renders < 1 {
		t.Error("expected at least one render")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("Run returned before the duration elapsed")
	}
	if e.Running() {
		t.Error("workers should be joined after Run")
	}
}

func TestEngine_RunCancelled(t *testing.T) {
	e := New(fastOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := e.Run(ctx, time.Hour, time.Second, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled Run should return promptly")
	}
}

func TestEngine_PopulateDeterministic(t *testing.T) {
	sc := &state.Scenario{
		Name: "test",
		Spawns: []state.Spawn{
			{Kind: types.Dragon, X: 1, Y: 2},
			{Kind: types.Elf, X: 3, Y: 4},
		},
		Hordes: []state.Horde{
			{Count: 25, Weights: map[types.Kind]int{types.Knight: 1, types.Elf: 1}},
		},
	}

	build := func() []types.Snapshot {
		e := New(fastOptions(), nil)
		if err := e.Populate(sc); err != nil {
			t.Fatalf("Populate: %v", err)
		}
		return e.Registry.Snapshot()
	}

	first, second := build(), build()
	if len(first) != 27 {
		t.Fatalf("populated %d entities, want 27", len(first))
	}
	if first[0].Kind != types.Dragon || first[0].X != 1 || first[0].Y != 2 {
		t.Errorf("first spawn = %+v", first[0])
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("entity %d differs between runs with the same seed", i)
		}
		if i >= 2 && first[i].Kind == types.Dragon {
			t.Errorf("horde produced a zero-weight dragon at %d", i)
		}
	}
}

func TestEngine_PopulateOutOfBounds(t *testing.T) {
	e := New(fastOptions(), nil)
	err := e.Populate(&state.Scenario{Spawns: []state.Spawn{{Kind: types.Elf, X: 500, Y: 1}}})
	if !errors.Is(err, state.ErrOutOfBounds) {
		t.Errorf("err = %v, want ErrOutOfBounds", err)
	}
}

func TestEngine_Load(t *testing.T) {
	e := New(fastOptions(), nil)
	mustSpawn(t, e, types.Elf, 1, 1)
	fresh := []*state.NPC{state.NewNPC(types.Dragon, 5, 5)}
	if err := e.Load(fresh); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.Registry.Len() != 1 || fresh[0].ID() != 0 {
		t.Error("Load should replace the registry contents")
	}
}

func TestOptions_WithScenario(t *testing.T) {
	opts := DefaultOptions().WithScenario(&state.Scenario{World: state.World{Width: 60, Seed: 9}})
	if opts.Width != 60 || opts.Height != 100 || opts.Seed != 9 {
		t.Errorf("options = %+v", opts)
	}
	if got := DefaultOptions().WithScenario(nil); got.Width != 100 {
		t.Errorf("nil scenario changed options: %+v", got)
	}
}

func TestEngine_SeedDefaults(t *testing.T) {
	opts := fastOptions()
	opts.Seed = 0
	if New(opts, nil).Seed() == 0 {
		t.Error("zero seed should be replaced")
	}
	if got := New(fastOptions(), nil).Seed(); got != 42 {
		t.Errorf("Seed = %d, want 42", got)
	}
}
