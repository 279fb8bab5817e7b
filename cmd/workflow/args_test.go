package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicadse/workflow/internal/model"
)

func TestParseArgMapSplitsOnFirstEquals(t *testing.T) {
	got, err := parseArgMap([]string{"foo.bar=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", got["foo.bar"])
}

func TestParseArgMapRejectsMissingEquals(t *testing.T) {
	_, err := parseArgMap([]string{"noequals"})
	require.Error(t, err)
}

func TestResolveNodesByName(t *testing.T) {
	wf := &model.Workflow{Nodes: map[string]*model.Node{"a": {}, "b": {}}}
	got, err := resolveNodes(wf, []string{"a"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}}, got)
}

func TestResolveNodesByRegex(t *testing.T) {
	wf := &model.Workflow{Nodes: map[string]*model.Node{"build-a": {}, "build-b": {}, "test": {}}}
	got, err := resolveNodes(wf, nil, "^build-")
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"build-a": {}, "build-b": {}}, got)
}

func TestResolveNodesInvalidRegex(t *testing.T) {
	wf := &model.Workflow{Nodes: map[string]*model.Node{}}
	_, err := resolveNodes(wf, nil, "(")
	require.Error(t, err)
}
