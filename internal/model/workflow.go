// Package model defines the workflow declaration schema: the typed data
// model that a workflow YAML document deserializes into, together with
// format-version checking and env-block resolution.
package model

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/replicadse/workflow/internal/errs"
)

// SupportedVersion is the workflow format version this runtime accepts.
// Deliberately an exact string match, not a semver range: §4.1 specifies
// the loader must reject any value other than the runtime's own
// major.minor string.
const SupportedVersion = "0.5"

// Workflow is the top-level declaration. Unlike every nested structure it
// tolerates unknown top-level keys, so that YAML anchors/aliases used for
// shared fragments keep working.
type Workflow struct {
	Version string            `yaml:"version"`
	Env     *Env              `yaml:"env,omitempty"`
	Nodes   map[string]*Node  `yaml:"nodes"`
	Watch   map[string]*Watch `yaml:"watch,omitempty"`
}

// versionPeek is decoded first so a version mismatch is reported before the
// rest of the document (which may contain fields this runtime's current
// schema no longer understands) is ever parsed.
type versionPeek struct {
	Version string `yaml:"version"`
}

// Load parses a workflow YAML document, rejecting an incompatible version
// before attempting full deserialization.
func Load(data []byte) (*Workflow, error) {
	var v versionPeek
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errs.Wrap(errs.KindSerdeYAML, err, "")
	}
	if v.Version != SupportedVersion {
		return nil, errs.New(errs.KindVersionCompatibility, fmt.Sprintf(
			"workflow version %q is incompatible with this runtime's supported version %q",
			v.Version, SupportedVersion))
	}

	var wf Workflow
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, errs.Wrap(errs.KindSerdeYAML, err, "")
	}
	for name, n := range wf.Nodes {
		if n == nil {
			return nil, errs.New(errs.KindGeneric, fmt.Sprintf("node %q has no body", name))
		}
	}
	return &wf, nil
}

// Watch is a named pairing of a filesystem filter regex and a node
// reference; it triggers re-execution of that node on matching events.
type Watch struct {
	Filter string        `yaml:"filter"`
	Queue  bool          `yaml:"queue,omitempty"`
	Exec   WatchExecStep `yaml:"exec"`
}

func (w *Watch) UnmarshalYAML(value *yaml.Node) error {
	type alias Watch
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "filter", "queue", "exec"); err != nil {
		return err
	}
	*w = Watch(a)
	return nil
}

// WatchExecStep identifies the single node a watch entry re-executes.
type WatchExecStep struct {
	Node string `yaml:"node"`
}

func (w *WatchExecStep) UnmarshalYAML(value *yaml.Node) error {
	type alias WatchExecStep
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "node"); err != nil {
		return err
	}
	*w = WatchExecStep(a)
	return nil
}

// Node is a named unit of work composed of one or more tasks, optionally
// expanded over a matrix and gated by prerequisites.
type Node struct {
	Description *string  `yaml:"description,omitempty"`
	Pre         []string `yaml:"pre,omitempty"`
	Matrix      *Matrix  `yaml:"matrix,omitempty"`
	Tasks       []Task   `yaml:"tasks"`
	Env         *Env     `yaml:"env,omitempty"`
	Shell       *Shell   `yaml:"shell,omitempty"`
	Workdir     *string  `yaml:"workdir,omitempty"`
}

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type alias Node
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value,
		"description", "pre", "matrix", "tasks", "env", "shell", "workdir"); err != nil {
		return err
	}
	if len(a.Tasks) == 0 {
		return errs.New(errs.KindGeneric, "node must declare at least one task")
	}
	*n = Node(a)
	return nil
}

// Shell is the task execution environment: the program and its leading
// arguments, to which the rendered script is appended as a final argument.
type Shell struct {
	Program string   `yaml:"program"`
	Args    []string `yaml:"args"`
}

func (s *Shell) UnmarshalYAML(value *yaml.Node) error {
	type alias Shell
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "program", "args"); err != nil {
		return err
	}
	*s = Shell(a)
	return nil
}

// DefaultShell is used whenever neither a task nor its node specifies one.
func DefaultShell() Shell {
	return Shell{Program: "sh", Args: []string{"-c"}}
}

// Task is a single shell script to execute; the atomic unit of child-process
// invocation. Script may contain handlebars placeholders.
type Task struct {
	Script  string            `yaml:"script"`
	Env     map[string]string `yaml:"env,omitempty"`
	Shell   *Shell            `yaml:"shell,omitempty"`
	Workdir *string           `yaml:"workdir,omitempty"`
}

func (t *Task) UnmarshalYAML(value *yaml.Node) error {
	type alias Task
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	if err := rejectUnknownFields(value, "script", "env", "shell", "workdir"); err != nil {
		return err
	}
	*t = Task(a)
	return nil
}

// rejectUnknownFields walks a YAML mapping node's keys and fails if any key
// is not in the allowed set. This is the Go equivalent of serde's
// `deny_unknown_fields`, which yaml.v3 does not provide natively.
func rejectUnknownFields(node *yaml.Node, allowed ...string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if _, ok := allowedSet[key]; !ok {
			return errs.New(errs.KindGeneric, fmt.Sprintf(
				"unknown field %q at line %d", key, node.Content[i].Line))
		}
	}
	return nil
}
