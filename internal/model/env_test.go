package model

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNilEnvIsEmpty(t *testing.T) {
	got, err := Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolveCapturesMatchingProcessEnv(t *testing.T) {
	require.NoError(t, os.Setenv("WORKFLOW_TEST_CAPTURE_ME", "captured"))
	defer os.Unsetenv("WORKFLOW_TEST_CAPTURE_ME")

	capture := "^WORKFLOW_TEST_CAPTURE_"
	e := &Env{Capture: &capture}
	got, err := Resolve(e)
	require.NoError(t, err)
	assert.Equal(t, "captured", got["WORKFLOW_TEST_CAPTURE_ME"])
}

func TestResolveVarsOverrideCapture(t *testing.T) {
	require.NoError(t, os.Setenv("WORKFLOW_TEST_OVERRIDE", "from-process"))
	defer os.Unsetenv("WORKFLOW_TEST_OVERRIDE")

	capture := "^WORKFLOW_TEST_OVERRIDE$"
	e := &Env{
		Capture: &capture,
		Vars:    map[string]string{"WORKFLOW_TEST_OVERRIDE": "from-vars"},
	}
	got, err := Resolve(e)
	require.NoError(t, err)
	assert.Equal(t, "from-vars", got["WORKFLOW_TEST_OVERRIDE"])
}

func TestResolveVarsWithoutCapture(t *testing.T) {
	e := &Env{Vars: map[string]string{"A": "1", "B": "2"}}
	got, err := Resolve(e)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, got)
}

func TestResolveInvalidCaptureRegex(t *testing.T) {
	bad := "("
	e := &Env{Capture: &bad}
	_, err := Resolve(e)
	require.Error(t, err)
}

func TestEnvRejectsUnknownField(t *testing.T) {
	_, err := Load([]byte(`
version: "0.5"
env:
  capture: ".*"
  bogus: true
nodes:
  build:
    tasks:
      - script: echo hi
`))
	require.Error(t, err)
}
