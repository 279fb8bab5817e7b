package model

import (
	"os"
	"regexp"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/replicadse/workflow/internal/errs"
)

// Env is an optional env block: capture process environment variables by
// regex and/or set explicit literal values.
type Env struct {
	Capture *string           `yaml:"capture,omitempty"`
	Vars    map[string]string `yaml:"vars,omitempty"`
}

func (e *Env) UnmarshalYAML(value *yaml.Node) error {
	type alias Env
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "capture", "vars"); err != nil {
		return err
	}
	*e = Env(a)
	return nil
}

// Resolve produces a flat mapping per §4.2: start empty, copy every
// process environment variable whose name matches Capture, then overlay
// Vars (vars win on collision). A nil Env resolves to an empty map.
func Resolve(e *Env) (map[string]string, error) {
	if e == nil {
		return map[string]string{}, nil
	}

	captured := map[string]string{}
	if e.Capture != nil {
		re, err := regexp.Compile(*e.Capture)
		if err != nil {
			return nil, errs.Wrap(errs.KindRegex, err, "")
		}
		for _, kv := range os.Environ() {
			name, value, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if re.MatchString(name) {
				captured[name] = value
			}
		}
	}

	// mergo.WithOverride: later source (vars) wins on key collision, which
	// is exactly the precedence §4.2 specifies.
	if err := mergo.Merge(&captured, e.Vars, mergo.WithOverride); err != nil {
		return nil, errs.Wrap(errs.KindGeneric, err, "env merge")
	}
	return captured, nil
}
