package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/replicadse/workflow/internal/errs"
)

// MatrixCell contributes its env entries into an invocation's env when the
// cell is selected by the active matrix point.
type MatrixCell struct {
	Env map[string]string `yaml:"env,omitempty"`
}

func (c *MatrixCell) UnmarshalYAML(value *yaml.Node) error {
	type alias MatrixCell
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "env"); err != nil {
		return err
	}
	*c = MatrixCell(a)
	return nil
}

// MatrixKind distinguishes the two matrix variants.
type MatrixKind int

const (
	MatrixDense MatrixKind = iota
	MatrixSparse
)

// Matrix is a tagged variant: exactly one of Dense/Sparse semantics applies,
// selected by the variant key in the YAML document (§3), not by whether
// Drop/Keep is present. The on-disk shape is a single-key mapping:
// `dense: {...}` or `sparse: {...}`.
type Matrix struct {
	Kind       MatrixKind
	Dimensions [][]MatrixCell
	// Drop applies when Kind == MatrixDense: keep points whose coords do
	// NOT match. Absent ⇒ keep all.
	Drop *string
	// Keep applies when Kind == MatrixSparse: keep points whose coords DO
	// match. Absent ⇒ keep none.
	Keep *string
}

type denseBody struct {
	Drop       *string          `yaml:"drop,omitempty"`
	Dimensions [][]MatrixCell   `yaml:"dimensions"`
}

type sparseBody struct {
	Dimensions [][]MatrixCell `yaml:"dimensions"`
	Keep       *string        `yaml:"keep,omitempty"`
}

func (m *Matrix) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errs.New(errs.KindGeneric, "matrix must be a single-key mapping of dense|sparse")
	}
	tag := value.Content[0].Value
	body := value.Content[1]

	switch tag {
	case "dense":
		var d denseBody
		if err := body.Decode(&d); err != nil {
			return err
		}
		if err := rejectUnknownFields(body, "drop", "dimensions"); err != nil {
			return err
		}
		m.Kind = MatrixDense
		m.Dimensions = d.Dimensions
		m.Drop = d.Drop
	case "sparse":
		var s sparseBody
		if err := body.Decode(&s); err != nil {
			return err
		}
		if err := rejectUnknownFields(body, "dimensions", "keep"); err != nil {
			return err
		}
		m.Kind = MatrixSparse
		m.Dimensions = s.Dimensions
		m.Keep = s.Keep
	default:
		return errs.New(errs.KindGeneric, fmt.Sprintf("unknown matrix variant %q", tag))
	}
	return nil
}

func (m Matrix) MarshalYAML() (interface{}, error) {
	switch m.Kind {
	case MatrixDense:
		return map[string]denseBody{"dense": {Drop: m.Drop, Dimensions: m.Dimensions}}, nil
	case MatrixSparse:
		return map[string]sparseBody{"sparse": {Dimensions: m.Dimensions, Keep: m.Keep}}, nil
	default:
		return nil, errs.New(errs.KindGeneric, "invalid matrix kind")
	}
}
