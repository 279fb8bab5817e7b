// Package matrix expands a workflow node's matrix declaration into the
// concrete Invocations that survive its filter policy.
package matrix

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
	"github.com/replicadse/workflow/internal/plan"
)

// Compile expands m's cartesian product and applies its Dense/Sparse filter
// policy, returning the surviving Invocations in product order. A nil
// Matrix yields exactly one invocation with empty coords and empty env (the
// "no matrix" case, §4.3).
func Compile(m *model.Matrix) ([]plan.Invocation, error) {
	if m == nil {
		return []plan.Invocation{{Coords: "", Env: map[string]string{}}}, nil
	}

	var pattern *regexp.Regexp
	switch m.Kind {
	case model.MatrixDense:
		if m.Drop != nil {
			re, err := regexp.Compile(*m.Drop)
			if err != nil {
				return nil, errs.Wrap(errs.KindRegex, err, "")
			}
			pattern = re
		}
	case model.MatrixSparse:
		if m.Keep != nil {
			re, err := regexp.Compile(*m.Keep)
			if err != nil {
				return nil, errs.Wrap(errs.KindRegex, err, "")
			}
			pattern = re
		}
	}

	var out []plan.Invocation
	err := forEachProductPoint(m.Dimensions, func(indices []int, cells []model.MatrixCell) error {
		coords := joinCoords(indices)

		switch m.Kind {
		case model.MatrixDense:
			// Keep everything whose coords do NOT match drop; absent drop keeps all.
			if pattern != nil && pattern.MatchString(coords) {
				return nil
			}
		case model.MatrixSparse:
			// Keep only what DOES match keep; absent keep drops everything.
			if pattern == nil || !pattern.MatchString(coords) {
				return nil
			}
		}

		env := map[string]string{}
		for _, cell := range cells {
			for k, v := range cell.Env {
				env[k] = v
			}
		}
		out = append(out, plan.Invocation{Coords: coords, Env: env})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// forEachProductPoint walks the cartesian product of dimensions via an
// explicit odometer-style counter rather than materializing the full
// product upfront (§9: "Favor an explicit iterator over the cartesian
// product rather than eager materialization"). An empty dimension list
// yields a single point with no indices/cells (§8: "treated as no matrix").
func forEachProductPoint(dims [][]model.MatrixCell, fn func(indices []int, cells []model.MatrixCell) error) error {
	if len(dims) == 0 {
		return fn(nil, nil)
	}
	for _, d := range dims {
		if len(d) == 0 {
			return nil // an empty dimension makes the whole product empty
		}
	}

	counters := make([]int, len(dims))
	for {
		indices := make([]int, len(dims))
		cells := make([]model.MatrixCell, len(dims))
		for i, c := range counters {
			indices[i] = c
			cells[i] = dims[i][c]
		}
		if err := fn(indices, cells); err != nil {
			return err
		}

		// Increment the rightmost dimension first, carrying over like an
		// odometer; when the leftmost dimension overflows, the product is
		// exhausted.
		pos := len(counters) - 1
		for pos >= 0 {
			counters[pos]++
			if counters[pos] < len(dims[pos]) {
				break
			}
			counters[pos] = 0
			pos--
		}
		if pos < 0 {
			return nil
		}
	}
}

func joinCoords(indices []int) string {
	parts := make([]string, len(indices))
	for i, v := range indices {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
