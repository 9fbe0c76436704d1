package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardSchema = `{
	"type": "object",
	"properties": {
		"type":  {"type": "string"},
		"count": {"type": "integer", "minimum": 1}
	},
	"required": ["type"]
}`

func TestSchema_CompileFailure(t *testing.T) {
	rule, err := Schema(`{"type": "not-a-type"`)
	require.Error(t, err)
	assert.Nil(t, rule)
}

func TestSchema_ValidPayload(t *testing.T) {
	rule, err := Schema(cardSchema)
	require.NoError(t, err)

	plog := NewProblemLog(`{"type":"drawcard","count":3}`)
	rule.Apply(parsePayload(t, `{"type":"drawcard","count":3}`), plog)

	assert.False(t, plog.HasErrors())
	assert.Equal(t, []string{"Payload conforms to schema"}, plog.InformationEntries())
}

func TestSchema_Violations(t *testing.T) {
	rule, err := Schema(cardSchema)
	require.NoError(t, err)

	plog := NewProblemLog(`{"count":0}`)
	rule.Apply(parsePayload(t, `{"count":0}`), plog)

	require.True(t, plog.HasErrors())
	assert.False(t, plog.AreSevere(), "schema violations are plain errors")
	assert.Len(t, plog.ErrorEntries(), 2)
	for _, entry := range plog.ErrorEntries() {
		assert.Contains(t, entry, "Schema violation:")
	}
}
