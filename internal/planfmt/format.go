// Package planfmt implements the multi-format serialization layer for
// plan.ExecutionPlan: yaml, json, json+p (pretty), toml, ron and ron+p.
package planfmt

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/plan"
)

// Format selects the wire representation used by `plan -o` and `execute -f`.
type Format string

const (
	YAML       Format = "yaml"
	JSON       Format = "json"
	JSONPretty Format = "json+p"
	TOML       Format = "toml"
	RON        Format = "ron"
	RONPretty  Format = "ron+p"
)

// OutputFormats lists every format `plan -o`/`list -o`/`describe -o` accept.
var OutputFormats = []string{string(YAML), string(JSON), string(JSONPretty), string(TOML), string(RON), string(RONPretty)}

// InputFormats lists the formats `execute -f` accepts — the non-pretty
// subset, since pretty-printing is purely a serialization concern (§6).
var InputFormats = []string{string(YAML), string(JSON), string(TOML), string(RON)}

// Parse validates a user-supplied output format string (plan/list/describe -o).
func Parse(s string) (Format, error) {
	for _, f := range OutputFormats {
		if f == s {
			return Format(s), nil
		}
	}
	return "", errs.New(errs.KindArgument, "unknown output format: "+s)
}

// ParseInput validates a user-supplied execute -f format string, rejecting
// the pretty-printing variants since they describe a serialization detail
// execute never produces.
func ParseInput(s string) (Format, error) {
	for _, f := range InputFormats {
		if f == s {
			return Format(s), nil
		}
	}
	return "", errs.New(errs.KindArgument, "unknown input format: "+s)
}

// Serialize renders v (any plan-shaped value: ExecutionPlan, node listings,
// stage listings) in the given format.
func Serialize(f Format, v interface{}) ([]byte, error) {
	switch f {
	case YAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerdeYAML, err, "")
		}
		return out, nil
	case JSON:
		out, err := json.Marshal(v)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerdeJSON, err, "")
		}
		return out, nil
	case JSONPretty:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, errs.Wrap(errs.KindSerdeJSON, err, "")
		}
		return out, nil
	case TOML:
		out, err := toml.Marshal(v)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerializeTOML, err, "")
		}
		return out, nil
	case RON, RONPretty:
		out, err := marshalRON(v, f == RONPretty)
		if err != nil {
			return nil, errs.Wrap(errs.KindSerializeRON, err, "")
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindArgument, "unknown output format: "+string(f))
	}
}

// Deserialize parses data (as produced by Serialize) back into an
// ExecutionPlan. The CLI only passes the non-pretty identifiers (see
// ParseInput); "json+p" and "ron+p" are accepted here as well and decode
// exactly like "json" and "ron", which read both pretty-printed and compact
// output, since pretty-printing never changes the grammar.
func Deserialize(f Format, data []byte) (*plan.ExecutionPlan, error) {
	var out plan.ExecutionPlan
	switch f {
	case YAML:
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, errs.Wrap(errs.KindSerdeYAML, err, "")
		}
	case JSON, JSONPretty:
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, errs.Wrap(errs.KindSerdeJSON, err, "")
		}
	case TOML:
		if err := toml.Unmarshal(data, &out); err != nil {
			return nil, errs.Wrap(errs.KindDeserializeTOML, err, "")
		}
	case RON, RONPretty:
		if err := unmarshalRON(data, &out); err != nil {
			return nil, errs.Wrap(errs.KindDeserializeRON, err, "")
		}
	default:
		return nil, errs.New(errs.KindArgument, "unknown input format: "+string(f))
	}
	return &out, nil
}
