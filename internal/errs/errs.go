// Package errs defines the closed error taxonomy shared by every layer of
// the workflow runner (loader, planner, execution engine, watch driver, CLI).
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which branch of the taxonomy an Error belongs to.
type Kind string

const (
	KindArgument             Kind = "argument"
	KindMissingArgument      Kind = "missing_argument"
	KindUnknownCommand       Kind = "unknown_command"
	KindExperimentalCommand  Kind = "experimental_command"
	KindVersionCompatibility Kind = "version_compatibility"
	KindNotFound             Kind = "not_found"
	KindNodeRecursion        Kind = "node_recursion"
	KindChildProcess         Kind = "child_process"
	KindIO                   Kind = "io"
	KindSerdeYAML            Kind = "serde_yaml"
	KindSerdeJSON            Kind = "serde_json"
	KindSerializeTOML        Kind = "serialize_toml"
	KindDeserializeTOML      Kind = "deserialize_toml"
	KindSerializeRON         Kind = "serialize_ron"
	KindDeserializeRON       Kind = "deserialize_ron"
	KindHandlebars           Kind = "handlebars"
	KindRegex                Kind = "regex"
	KindMany                 Kind = "many"
	KindGeneric              Kind = "generic"
)

// Error is the taxonomy's concrete type. Detail carries a human-readable
// message; Many carries the aggregated per-item errors for KindMany.
type Error struct {
	Kind   Kind
	Detail string
	Many   []error
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMany:
		return fmt.Sprintf("many: %d error(s) occurred", len(e.Many))
	case KindNodeRecursion:
		return "node recursion: prerequisite cycle detected"
	default:
		if e.Detail == "" {
			return string(e.Kind)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is(err, New(KindNotFound, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a bare taxonomy error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap attaches a kind and detail to an underlying cause, preserving it for
// errors.Unwrap/errors.As while surfacing the taxonomy kind for errors.Is.
func Wrap(kind Kind, cause error, detail string) *Error {
	if detail == "" {
		detail = cause.Error()
	}
	return &Error{Kind: kind, Detail: detail, cause: errors.WithStack(cause)}
}

// ManyOf aggregates per-item errors from a stage into a single KindMany error.
func ManyOf(items []error) *Error {
	return &Error{Kind: KindMany, Many: items}
}

// NotFound is a convenience constructor for the frequent NotFound(name) case.
func NotFound(name string) *Error {
	return New(KindNotFound, name)
}

// Sentinel instances for errors.Is comparisons where no detail is needed.
var (
	ErrNodeRecursion = New(KindNodeRecursion, "")
)
