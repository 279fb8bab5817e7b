package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
)

func wfWithPre(pre map[string][]string) *model.Workflow {
	nodes := make(map[string]*model.Node, len(pre))
	for name, p := range pre {
		nodes[name] = &model.Node{
			Pre:   p,
			Tasks: []model.Task{{Script: "echo " + name}},
		}
	}
	return &model.Workflow{Version: model.SupportedVersion, Nodes: nodes}
}

func targets(names ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func TestStratifySimpleChain(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": nil,
		"b": {"a"},
		"c": {"b"},
	})
	p := New(wf)
	stages, err := p.Stratify(targets("c"))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, stages)
}

func TestStratifyFanIn(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": nil,
		"b": nil,
		"c": {"a", "b"},
	})
	p := New(wf)
	stages, err := p.Stratify(targets("c"))
	require.NoError(t, err)
	require.Len(t, stages, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, stages[0])
	assert.Equal(t, []string{"c"}, stages[1])
}

func TestStratifyIndependentTargetsShareAStage(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": nil,
		"b": nil,
	})
	p := New(wf)
	stages, err := p.Stratify(targets("a", "b"))
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, []string{"a", "b"}, stages[0])
}

func TestStratifyDetectsCycle(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": {"b"},
		"b": {"a"},
	})
	p := New(wf)
	_, err := p.Stratify(targets("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNodeRecursion)
}

func TestStratifyMissingNode(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": {"missing"},
	})
	p := New(wf)
	_, err := p.Stratify(targets("a"))
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindNotFound, e.Kind)
}

func TestListSortsByName(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"zebra": nil,
		"apple": nil,
	})
	p := New(wf)
	list := p.List()
	require.Len(t, list, 2)
	assert.Equal(t, "apple", list[0].Name)
	assert.Equal(t, "zebra", list[1].Name)
}

func TestPlanRendersTasksAndExpandsMatrix(t *testing.T) {
	drop := "^1$"
	wf := &model.Workflow{
		Version: model.SupportedVersion,
		Nodes: map[string]*model.Node{
			"build": {
				Tasks: []model.Task{{Script: "echo {{ name }}"}},
				Matrix: &model.Matrix{
					Kind: model.MatrixDense,
					Drop: &drop,
					Dimensions: [][]model.MatrixCell{
						{{Env: map[string]string{"V": "1"}}, {Env: map[string]string{"V": "2"}}},
					},
				},
			},
		},
	}
	p := New(wf)
	ep, err := p.Plan(targets("build"), map[string]string{"name": "world"})
	require.NoError(t, err)

	require.Len(t, ep.Stages, 1)
	assert.Equal(t, []string{"build"}, ep.Stages[0].Nodes)

	node := ep.Nodes["build"]
	require.Len(t, node.Tasks, 1)
	assert.Equal(t, "echo world", node.Tasks[0].Cmd)

	require.Len(t, node.Invocations, 1)
	assert.Equal(t, "0", node.Invocations[0].Coords)
}

func TestPlanFailsOnUnresolvedPlaceholder(t *testing.T) {
	wf := &model.Workflow{
		Version: model.SupportedVersion,
		Nodes: map[string]*model.Node{
			"build": {Tasks: []model.Task{{Script: "echo {{ foo.bar }}"}}},
		},
	}
	p := New(wf)
	_, err := p.Plan(targets("build"), map[string]string{})
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindHandlebars, e.Kind)
}

func TestDescribeMatchesStratify(t *testing.T) {
	wf := wfWithPre(map[string][]string{
		"a": nil,
		"b": {"a"},
	})
	p := New(wf)
	got, err := p.Describe(targets("b"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a"}, {"b"}}, got)
}
