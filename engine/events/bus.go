package events

import (
	"reflect"
	"sync"

	"github.com/nathoo/arena/engine/state"
)

// Bus fans an outcome out to its global observers and to the observers
// subscribed on the attacker and the defender. Each distinct observer is
// called once per outcome, synchronously, in that order. A slow observer
// slows the caller.
type Bus struct {
	mu        sync.RWMutex
	observers []state.Observer
}

// NewBus returns a bus with the given global observers.
func NewBus(observers ...state.Observer) *Bus {
	b := &Bus{}
	for _, o := range observers {
		b.Subscribe(o)
	}
	return b
}

// Subscribe adds a global observer.
func (b *Bus) Subscribe(o state.Observer) {
	if o == nil {
		return
	}
	b.mu.Lock()
	b.observers = append(b.observers, o)
	b.mu.Unlock()
}

// Notify delivers o and returns how many observers were called.
func (b *Bus) Notify(o Outcome) int {
	b.mu.RLock()
	targets := make([]state.Observer, 0, len(b.observers)+2)
	targets = append(targets, b.observers...)
	b.mu.RUnlock()

	if o.Attacker != nil {
		targets = appendUnique(targets, o.Attacker.Observers())
	}
	if o.Defender != nil {
		targets = appendUnique(targets, o.Defender.Observers())
	}

	for _, t := range targets {
		t.OnFight(o.Attacker, o.AttackRoll, o.Defender, o.DefenseRoll, o.Win)
	}
	return len(targets)
}

func appendUnique(dst, src []state.Observer) []state.Observer {
	for _, o := range src {
		if !containsObserver(dst, o) {
			dst = append(dst, o)
		}
	}
	return dst
}

// containsObserver compares by identity. Observers whose dynamic type is
// not comparable are treated as distinct.
func containsObserver(list []state.Observer, o state.Observer) bool {
	if !reflect.TypeOf(o).Comparable() {
		return false
	}
	for _, existing := range list {
		if reflect.TypeOf(existing) == reflect.TypeOf(o) && existing == o {
			return true
		}
	}
	return false
}
