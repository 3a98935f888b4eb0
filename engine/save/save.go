// Package save reads and writes NPC rosters in the flat text format: an
// entity count on the first line, then one "tag x y" record per entity.
package save

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

var (
	// ErrBadHeader is returned when the first line is not a count.
	ErrBadHeader = errors.New("bad roster header")

	// ErrTruncated is reported when the input ends before count records.
	ErrTruncated = errors.New("roster truncated")
)

// RecordError describes a record that was skipped while loading.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Bounds limits the positions a loaded entity may occupy.
// *state.Registry satisfies it.
type Bounds interface {
	InBounds(x, y int) bool
}

// Save writes every registered entity of reg to w. The alive flag is not
// part of the format; loaded entities start alive.
func Save(w io.Writer, reg *state.Registry) error {
	return Write(w, reg.Snapshot())
}

// Write writes the given snapshots to w.
func Write(w io.Writer, snaps []types.Snapshot) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(snaps))
	for _, s := range snaps {
		fmt.Fprintf(bw, "%d %d %d\n", int(s.Kind), s.X, s.Y)
	}
	return bw.Flush()
}

// Load reads a roster from r, building entities with f so they carry the
// same observers as freshly generated ones. Malformed, unknown or
// out-of-bounds records are passed to report and skipped; loading
// continues. Only an unreadable header or a read failure is fatal.
// bounds and report may be nil.
func Load(r io.Reader, f *state.Factory, bounds Bounds, report func(error)) ([]*state.NPC, error) {
	if report == nil {
		report = func(error) {}
	}
	sc := bufio.NewScanner(r)
	line := 0

	count := -1
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrBadHeader, line, text)
		}
		count = n
		break
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: empty input", ErrBadHeader)
	}

	npcs := make([]*state.NPC, 0, count)
	seen := 0
	for seen < count && sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		seen++
		n, err := f.Parse(text)
		if err != nil {
			report(&RecordError{Line: line, Err: err})
			continue
		}
		if bounds != nil {
			if x, y := n.Position(); !bounds.InBounds(x, y) {
				report(&RecordError{Line: line, Err: fmt.Errorf("(%d,%d): %w", x, y, state.ErrOutOfBounds)})
				continue
			}
		}
		npcs = append(npcs, n)
	}
	if err := sc.Err(); err != nil {
		return npcs, err
	}
	if seen < count {
		report(fmt.Errorf("%w: want %d records, got %d", ErrTruncated, count, seen))
	}
	return npcs, nil
}

// SaveFile writes reg to path through a temporary file so an interrupted
// save never leaves a partial roster behind.
func SaveFile(path string, reg *state.Registry) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := Save(f, reg); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, f *state.Factory, bounds Bounds, report func(error)) ([]*state.NPC, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	npcs, err := Load(file, f, bounds, report)
	if err != nil {
		return npcs, fmt.Errorf("load %s: %w", path, err)
	}
	return npcs, nil
}
