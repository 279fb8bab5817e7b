// Package reference supplies part of the CLI's "generator" surface: embedded
// starter workflow templates and JSON Schema for the workflow document.
// Man-page and completion rendering live in the cmd/workflow commands.
package reference

import (
	_ "embed"
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/replicadse/workflow/internal/errs"
	"github.com/replicadse/workflow/internal/model"
)

//go:embed templates/min.workflow.yaml
var minTemplate []byte

//go:embed templates/max.workflow.yaml
var maxTemplate []byte

//go:embed templates/python.workflow.yaml
var pythonTemplate []byte

// InitTemplate identifies one of the starter documents `workflow init`
// can render.
type InitTemplate string

const (
	TemplateMin    InitTemplate = "min"
	TemplateMax    InitTemplate = "max"
	TemplatePython InitTemplate = "python"
)

// Render returns the starter workflow document for t.
func Render(t InitTemplate) ([]byte, error) {
	switch t {
	case TemplateMin:
		return minTemplate, nil
	case TemplateMax:
		return maxTemplate, nil
	case TemplatePython:
		return pythonTemplate, nil
	default:
		return nil, errs.New(errs.KindArgument, "unknown template: "+string(t))
	}
}

// Schema renders a JSON Schema document describing model.Workflow, for the
// `workflow schema` command.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: false,
	}
	schema := reflector.Reflect(&model.Workflow{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.KindSerdeJSON, err, "")
	}
	return out, nil
}
