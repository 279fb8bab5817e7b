// Package plan defines the serializable execution plan: the contract
// between the planner and the executor. A plan is self-sufficient — the
// executor never re-reads the workflow that produced it.
package plan

// ExecutionPlan is the planning output and executor input.
type ExecutionPlan struct {
	Stages []Stage             `yaml:"stages" json:"stages" toml:"stages"`
	Nodes  map[string]PlanNode `yaml:"nodes" json:"nodes" toml:"nodes"`
	Env    map[string]string   `yaml:"env" json:"env" toml:"env"`
}

// Stage is an ordered list of node names; all nodes in a stage are
// independent and may run concurrently.
type Stage struct {
	Nodes []string `yaml:"nodes" json:"nodes" toml:"nodes"`
}

// PlanNode is a node fully resolved by the planner: its matrix expanded
// into invocations and its task scripts rendered.
type PlanNode struct {
	Invocations []Invocation `yaml:"invocations" json:"invocations" toml:"invocations"`
	Tasks       []PlanTask   `yaml:"tasks" json:"tasks" toml:"tasks"`
	Env         map[string]string `yaml:"env" json:"env" toml:"env"`
	Shell       *Shell            `yaml:"shell,omitempty" json:"shell,omitempty" toml:"shell,omitempty"`
	Workdir     *string           `yaml:"workdir,omitempty" json:"workdir,omitempty" toml:"workdir,omitempty"`
}

// Invocation is one surviving point of a node's matrix cartesian product.
type Invocation struct {
	Coords string            `yaml:"coords" json:"coords" toml:"coords"`
	Env    map[string]string `yaml:"env" json:"env" toml:"env"`
}

// PlanTask is a task with its script already rendered.
type PlanTask struct {
	Cmd     string            `yaml:"cmd" json:"cmd" toml:"cmd"`
	Env     map[string]string `yaml:"env" json:"env" toml:"env"`
	Shell   *Shell            `yaml:"shell,omitempty" json:"shell,omitempty" toml:"shell,omitempty"`
	Workdir *string           `yaml:"workdir,omitempty" json:"workdir,omitempty" toml:"workdir,omitempty"`
}

// Shell is the plan-level copy of model.Shell, kept independent so the
// plan package has no dependency on the workflow schema (§3: the plan is
// self-sufficient).
type Shell struct {
	Program string   `yaml:"program" json:"program" toml:"program"`
	Args    []string `yaml:"args" json:"args" toml:"args"`
}
