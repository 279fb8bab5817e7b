package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
	"github.com/replicadse/workflow/internal/planfmt"
)

// parseArgMap splits each "-a key=value" flag on its first "=" only, so a
// value may itself contain "=".
func parseArgMap(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errs.New(errs.KindArgument, fmt.Sprintf("malformed -a value %q, expected key=value", kv))
		}
		out[k] = v
	}
	return out, nil
}

// resolveNodes turns the mutually-exclusive -n/-r flags into a target set.
// Exactly one of names/pattern must be non-empty; callers enforce that via
// cobra's MarkFlagsMutuallyExclusive/MarkFlagsOneRequired.
func resolveNodes(wf *model.Workflow, names []string, pattern string) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	if len(names) > 0 {
		for _, n := range names {
			out[n] = struct{}{}
		}
		return out, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.Wrap(errs.KindRegex, err, "")
	}
	for name := range wf.Nodes {
		if re.MatchString(name) {
			out[name] = struct{}{}
		}
	}
	return out, nil
}

func loadWorkflowFile(path string) (*model.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, err, "")
	}
	return model.Load(data)
}

func writeFormatted(format string, v interface{}) error {
	f, err := planfmt.Parse(format)
	if err != nil {
		return err
	}
	out, err := planfmt.Serialize(f, v)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
