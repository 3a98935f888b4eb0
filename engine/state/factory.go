package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/arena/types"
)

var (
	// ErrUnknownKind is returned for a type tag outside the known set.
	ErrUnknownKind = errors.New("unknown NPC type")

	// ErrMalformedRecord is returned when a record cannot be parsed.
	ErrMalformedRecord = errors.New("malformed NPC record")
)

// Factory builds entities and subscribes the injected observers to each
// of them. The same factory serves random generation and loading.
type Factory struct {
	Observers []Observer
}

// NewFactory returns a factory that subscribes the given observers.
func NewFactory(observers ...Observer) *Factory {
	return &Factory{Observers: observers}
}

// Make builds a live entity of the given kind at (x, y).
func (f *Factory) Make(kind types.Kind, x, y int) (*NPC, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	n := NewNPC(kind, x, y)
	for _, o := range f.Observers {
		n.Subscribe(o)
	}
	return n, nil
}

// Parse builds an entity from one "tag x y" record. Fields may be
// separated by whitespace or commas.
func (f *Factory) Parse(record string) (*NPC, error) {
	fields := strings.FieldsFunc(record, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return nil, fmt.Errorf("%w: want 3 fields, got %d", ErrMalformedRecord, len(fields))
	}
	vals := make([]int, 3)
	for i, s := range fields {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d %q", ErrMalformedRecord, i+1, s)
		}
		vals[i] = v
	}
	return f.Make(types.Kind(vals[0]), vals[1], vals[2])
}
