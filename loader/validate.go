package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/arena/engine/state"
	"github.com/nathoo/arena/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validate checks the compiled scenario for consistency. Spawn positions
// are bounded by the scenario's own world when it declares one; otherwise
// only negative coordinates are rejected here and the registry enforces
// the configured bounds at population time.
func validate(sc *state.Scenario, ve *ValidationError) {
	if sc.World.Width < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("World.width must be positive, got %d", sc.World.Width))
	}
	if sc.World.Height < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("World.height must be positive, got %d", sc.World.Height))
	}

	if len(sc.Spawns) == 0 && len(sc.Hordes) == 0 {
		ve.Errors = append(ve.Errors, "scenario defines no spawns and no hordes")
	}

	seen := map[types.Point]int{}
	for i, sp := range sc.Spawns {
		where := fmt.Sprintf("spawn %d (%s)", i+1, sp.Kind)
		if !inWorld(sc.World, sp.X, sp.Y) {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"%s: position (%d,%d) is outside the world", where, sp.X, sp.Y))
		}
		p := types.Point{X: sp.X, Y: sp.Y}
		if prev, ok := seen[p]; ok {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"%s: shares position (%d,%d) with spawn %d", where, sp.X, sp.Y, prev))
		} else {
			seen[p] = i + 1
		}
	}

	for i, h := range sc.Hordes {
		where := fmt.Sprintf("horde %d", i+1)
		if h.Count <= 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: count must be positive, got %d", where, h.Count))
		}
		if h.Weights == nil {
			continue
		}
		total := 0
		for _, k := range types.Kinds {
			w := h.Weights[k]
			if w < 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf("%s: weight for %s is negative", where, k))
			}
			if w > 0 {
				total += w
			}
		}
		if total == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s: all weights are zero", where))
		}
	}
}

func inWorld(w state.World, x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	if w.Width > 0 && x >= w.Width {
		return false
	}
	if w.Height > 0 && y >= w.Height {
		return false
	}
	return true
}
