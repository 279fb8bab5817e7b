package planfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replicadse/workflow/internal/plan"
)

func TestMarshalRONMapKeysAreSorted(t *testing.T) {
	out, err := marshalRON(map[string]interface{}{"zebra": 1.0, "apple": 2.0}, false)
	require.NoError(t, err)
	s := string(out)
	assert.Less(t, indexOf(s, "apple"), indexOf(s, "zebra"))
}

func TestMarshalRONPrettyIndents(t *testing.T) {
	out, err := marshalRON(map[string]interface{}{"a": []interface{}{1.0, 2.0}}, true)
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n")
}

func TestUnmarshalRONRejectsTrailingData(t *testing.T) {
	p := &ronParser{input: "(a: 1) garbage"}
	_, err := p.parseValue()
	require.NoError(t, err)
	p.skipSpace()
	assert.NotEqual(t, len(p.input), p.pos)

	var out plan.ExecutionPlan
	require.Error(t, unmarshalRON([]byte(p.input), &out))
}

func TestRonParserEmptySeqAndMap(t *testing.T) {
	p := &ronParser{input: "[]"}
	v, err := p.parseValue()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{}, v)

	p2 := &ronParser{input: "()"}
	v2, err := p2.parseValue()
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, v2)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
