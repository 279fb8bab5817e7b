// Package planner resolves a target node set's prerequisites into ordered
// stages, expands matrices, renders task scripts, and assembles the
// resulting plan.ExecutionPlan.
package planner

import (
	"sort"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/matrix"
	"github.com/replicadse/workflow/internal/model"
	"github.com/replicadse/workflow/internal/plan"
)

// Planner compiles a Workflow into an ExecutionPlan for a chosen target set.
type Planner struct {
	Workflow *model.Workflow
}

// New returns a Planner bound to wf.
func New(wf *model.Workflow) *Planner {
	return &Planner{Workflow: wf}
}

// Stratify resolves targets' transitive prerequisites into ordered stages
// (§4.3 "Dependency stratification"). Node names within a returned stage
// are sorted for deterministic output; only set equality within a stage is
// required, so sorting does not change the result's meaning.
func (p *Planner) Stratify(targets map[string]struct{}) ([][]string, error) {
	prereqs := make(map[string][]string, len(targets))
	discovered := make(map[string]struct{}, len(targets))
	pending := make([]string, 0, len(targets))
	for t := range targets {
		pending = append(pending, t)
	}

	for len(pending) > 0 {
		next := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if _, ok := discovered[next]; ok {
			continue
		}
		discovered[next] = struct{}{}

		node, ok := p.Workflow.Nodes[next]
		if !ok {
			return nil, errs.NotFound(next)
		}
		prereqs[next] = node.Pre
		pending = append(pending, node.Pre...)
	}

	satisfied := make(map[string]struct{}, len(prereqs))
	var stages [][]string
	for len(prereqs) > 0 {
		var layer []string
		for name, pre := range prereqs {
			ready := true
			for _, dep := range pre {
				if _, ok := satisfied[dep]; !ok {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, name)
			}
		}
		if len(layer) == 0 {
			return nil, errs.ErrNodeRecursion
		}
		sort.Strings(layer)
		for _, name := range layer {
			delete(prereqs, name)
			satisfied[name] = struct{}{}
		}
		stages = append(stages, layer)
	}
	return stages, nil
}

// Plan builds the full ExecutionPlan for targets, rendering every task's
// script against the structured arg context and expanding every node's
// matrix into invocations.
func (p *Planner) Plan(targets map[string]struct{}, args map[string]string) (*plan.ExecutionPlan, error) {
	stages, err := p.Stratify(targets)
	if err != nil {
		return nil, err
	}

	argCtx := StructureArgs(args)

	planEnv, err := model.Resolve(p.Workflow.Env)
	if err != nil {
		return nil, err
	}

	result := &plan.ExecutionPlan{
		Stages: make([]plan.Stage, 0, len(stages)),
		Nodes:  make(map[string]plan.PlanNode),
		Env:    planEnv,
	}

	for _, stageNodes := range stages {
		for _, name := range stageNodes {
			nodeDef := p.Workflow.Nodes[name]

			nodeEnv, err := model.Resolve(nodeDef.Env)
			if err != nil {
				return nil, err
			}

			pn := plan.PlanNode{
				Env:     nodeEnv,
				Shell:   convertShell(nodeDef.Shell),
				Workdir: nodeDef.Workdir,
			}

			for _, t := range nodeDef.Tasks {
				rendered, err := Render(t.Script, argCtx)
				if err != nil {
					return nil, err
				}
				pn.Tasks = append(pn.Tasks, plan.PlanTask{
					Cmd:     rendered,
					Env:     copyStringMap(t.Env),
					Shell:   convertShell(t.Shell),
					Workdir: t.Workdir,
				})
			}

			invocations, err := matrix.Compile(nodeDef.Matrix)
			if err != nil {
				return nil, err
			}
			pn.Invocations = invocations

			result.Nodes[name] = pn
		}
		result.Stages = append(result.Stages, plan.Stage{Nodes: stageNodes})
	}

	return result, nil
}

// NodeInfo is the summary shape the `list` command serializes.
type NodeInfo struct {
	Name        string   `yaml:"name" json:"name" toml:"name"`
	Description *string  `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Pre         []string `yaml:"pre,omitempty" json:"pre,omitempty" toml:"pre,omitempty"`
}

// List returns every node in the workflow, sorted by name.
func (p *Planner) List() []NodeInfo {
	out := make([]NodeInfo, 0, len(p.Workflow.Nodes))
	for name, n := range p.Workflow.Nodes {
		out = append(out, NodeInfo{Name: name, Description: n.Description, Pre: n.Pre})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Describe resolves targets' stages without rendering any templates —
// used by the `describe` command, which only needs the stage structure.
func (p *Planner) Describe(targets map[string]struct{}) ([][]string, error) {
	return p.Stratify(targets)
}

func convertShell(s *model.Shell) *plan.Shell {
	if s == nil {
		return nil
	}
	return &plan.Shell{Program: s.Program, Args: append([]string(nil), s.Args...)}
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
