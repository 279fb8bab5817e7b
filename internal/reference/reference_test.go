package reference

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/replicadse/workflow/internal/model"
)

func TestRenderEveryTemplateIsValidWorkflowYAML(t *testing.T) {
	for _, tpl := range []InitTemplate{TemplateMin, TemplateMax, TemplatePython} {
		t.Run(string(tpl), func(t *testing.T) {
			rendered, err := Render(tpl)
			require.NoError(t, err)
			require.NotEmpty(t, rendered)

			var wf model.Workflow
			require.NoError(t, yaml.Unmarshal(rendered, &wf))
			assert.Equal(t, model.SupportedVersion, wf.Version)
			assert.NotEmpty(t, wf.Nodes)

			_, loadErr := model.Load(rendered)
			require.NoError(t, loadErr)
		})
	}
}

func TestRenderUnknownTemplateErrors(t *testing.T) {
	_, err := Render(InitTemplate("bogus"))
	require.Error(t, err)
}

func TestSchemaReturnsValidJSON(t *testing.T) {
	out, err := Schema()
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &generic))
	assert.NotEmpty(t, generic)
}
