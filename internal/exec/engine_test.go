package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
	"github.com/replicadse/workflow/internal/plan"
)

func TestExecuteRunsAllStagesInOrder(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	second := filepath.Join(dir, "second")

	p := &plan.ExecutionPlan{
		Stages: []plan.Stage{{Nodes: []string{"write"}}, {Nodes: []string{"check"}}},
		Nodes: map[string]plan.PlanNode{
			"write": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "echo hi > " + marker}},
			},
			"check": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "test -f " + marker + " && echo ok > " + second}},
			},
		},
		Env: map[string]string{},
	}

	e := New(OutputMode{Stdout: false, Stderr: false}, "", nil)
	err := e.Execute(context.Background(), p, 2)
	require.NoError(t, err)

	_, statErr := os.Stat(marker)
	require.NoError(t, statErr)
	_, statErr = os.Stat(second)
	require.NoError(t, statErr)
}

func TestExecuteAggregatesFailuresAcrossWorkItems(t *testing.T) {
	p := &plan.ExecutionPlan{
		Stages: []plan.Stage{{Nodes: []string{"a", "b"}}},
		Nodes: map[string]plan.PlanNode{
			"a": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "exit 1"}},
			},
			"b": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "exit 1"}},
			},
		},
		Env: map[string]string{},
	}

	e := New(OutputMode{}, "", nil)
	err := e.Execute(context.Background(), p, 4)
	require.Error(t, err)

	var many *errs.Error
	require.ErrorAs(t, err, &many)
	assert.Equal(t, errs.KindMany, many.Kind)
	assert.Len(t, many.Many, 2)
}

func TestExecuteStopsBeforeLaterStagesOnFailure(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "should-not-exist")

	p := &plan.ExecutionPlan{
		Stages: []plan.Stage{
			{Nodes: []string{"fails"}},
			{Nodes: []string{"never-runs"}},
		},
		Nodes: map[string]plan.PlanNode{
			"fails": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "exit 1"}},
			},
			"never-runs": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "echo hi > " + marker}},
			},
		},
		Env: map[string]string{},
	}

	e := New(OutputMode{}, "", nil)
	err := e.Execute(context.Background(), p, 1)
	require.Error(t, err)

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewWiresLineControllerOnlyWhenPrefixSet(t *testing.T) {
	assert.Nil(t, New(OutputMode{}, "", nil).Line)
	assert.NotNil(t, New(OutputMode{}, "[build] ", nil).Line)
}

func TestExecuteWithPrefixRunsLinePrefixedPath(t *testing.T) {
	p := &plan.ExecutionPlan{
		Stages: []plan.Stage{{Nodes: []string{"echo"}}},
		Nodes: map[string]plan.PlanNode{
			"echo": {
				Invocations: []plan.Invocation{{Coords: "", Env: map[string]string{}}},
				Tasks:       []plan.PlanTask{{Cmd: "echo hi"}},
			},
		},
		Env: map[string]string{},
	}

	e := New(OutputMode{Stdout: true, Stderr: true}, "[echo] ", nil)
	err := e.Execute(context.Background(), p, 1)
	require.NoError(t, err)
}

func TestFirstWorkdirPrecedence(t *testing.T) {
	taskDir := "/task"
	nodeDir := "/node"

	got, ok := firstWorkdir(&taskDir, &nodeDir)
	assert.True(t, ok)
	assert.Equal(t, "/task", got)

	got, ok = firstWorkdir(nil, &nodeDir)
	assert.True(t, ok)
	assert.Equal(t, "/node", got)

	got, ok = firstWorkdir(nil, nil)
	assert.False(t, ok)
	assert.Equal(t, "", got)
}

func TestFirstShellPrecedence(t *testing.T) {
	taskShell := &plan.Shell{Program: "bash", Args: []string{"-c"}}
	nodeShell := &plan.Shell{Program: "zsh", Args: []string{"-c"}}

	got := firstShell(taskShell, nodeShell)
	assert.Equal(t, "bash", got.Program)

	got = firstShell(nil, nodeShell)
	assert.Equal(t, "zsh", got.Program)

	got = firstShell(nil, nil)
	assert.Equal(t, model.DefaultShell().Program, got.Program)
	assert.Equal(t, model.DefaultShell().Args, got.Args)
}

func TestComposeEnvPrecedenceOrder(t *testing.T) {
	got, err := composeEnv(
		map[string]string{"A": "plan", "B": "plan"},
		map[string]string{"B": "node"},
		map[string]string{"C": "invocation"},
		map[string]string{"A": "task"},
	)
	require.NoError(t, err)
	assert.Equal(t, "task", got["A"])
	assert.Equal(t, "node", got["B"])
	assert.Equal(t, "invocation", got["C"])
}

func TestBuildWorkItemsErrorsOnMissingNode(t *testing.T) {
	p := &plan.ExecutionPlan{
		Nodes: map[string]plan.PlanNode{},
	}
	_, err := buildWorkItems(p, plan.Stage{Nodes: []string{"missing"}})
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.KindNotFound, e.Kind)
}

func TestMergeProcessEnvOverlayWins(t *testing.T) {
	require.NoError(t, os.Setenv("WORKFLOW_TEST_MERGE", "original"))
	defer os.Unsetenv("WORKFLOW_TEST_MERGE")

	out := mergeProcessEnv(map[string]string{"WORKFLOW_TEST_MERGE": "overlay"})
	found := false
	for _, kv := range out {
		if kv == "WORKFLOW_TEST_MERGE=overlay" {
			found = true
		}
	}
	assert.True(t, found)
}
