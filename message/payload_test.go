package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	payload, err := Parse([]byte(`{"type":"drawcard","count":3}`))
	require.NoError(t, err)
	assert.Equal(t, "drawcard", payload["type"])
	assert.Equal(t, float64(3), payload["count"])
}

func TestParse_MalformedSyntax(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "not json"},
		{"truncated object", `{"type":`},
		{"empty input", ""},
		{"stray brace", "}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.True(t, IsSyntaxError(err))
		})
	}
}

func TestParse_WrongShape(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"null document", "null"},
		{"array document", `[1,2,3]`},
		{"string document", `"hello"`},
		{"number document", "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, payload)
			assert.False(t, IsSyntaxError(err), "shape errors are not syntax errors")
		})
	}
}

func TestPayload_Present(t *testing.T) {
	payload, err := Parse([]byte(`{
		"str": "value",
		"empty_str": "",
		"zero": 0,
		"false": false,
		"null": null,
		"empty_arr": [],
		"arr": [1],
		"empty_obj": {},
		"obj": {"a": 1}
	}`))
	require.NoError(t, err)

	tests := []struct {
		key      string
		expected bool
	}{
		{"str", true},
		{"empty_str", false},
		{"zero", true},
		{"false", true},
		{"null", false},
		{"empty_arr", false},
		{"arr", true},
		{"empty_obj", false},
		{"obj", true},
		{"missing", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.expected, payload.Present(tt.key))
		})
	}
}

func TestPayload_StringValue(t *testing.T) {
	payload, err := Parse([]byte(`{"s":"drawcard","i":5,"f":2.5,"b":true,"n":null}`))
	require.NoError(t, err)

	assert.Equal(t, "drawcard", payload.StringValue("s"))
	assert.Equal(t, "5", payload.StringValue("i"))
	assert.Equal(t, "2.5", payload.StringValue("f"))
	assert.Equal(t, "true", payload.StringValue("b"))
	assert.Equal(t, "", payload.StringValue("n"))
	assert.Equal(t, "", payload.StringValue("missing"))
}

func TestPayload_ReadCount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"absent", `{"type":"drawcard"}`, 0},
		{"integer", `{"system_read_count":5}`, 5},
		{"fractional resets", `{"system_read_count":5.5}`, 0},
		{"string resets", `{"system_read_count":"5"}`, 0},
		{"null resets", `{"system_read_count":null}`, 0},
		{"bool resets", `{"system_read_count":true}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := Parse([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, payload.ReadCount())
		})
	}
}

func TestPayload_StampReadCount(t *testing.T) {
	payload, err := Parse([]byte(`{"type":"drawcard"}`))
	require.NoError(t, err)

	assert.Equal(t, 1, payload.StampReadCount())
	assert.Equal(t, 1, payload.ReadCount())
	assert.Equal(t, 2, payload.StampReadCount())
	assert.Equal(t, 2, payload.ReadCount())
}

func TestPayload_StampReadCount_ExistingWireValue(t *testing.T) {
	payload, err := Parse([]byte(`{"type":"drawcard","system_read_count":5}`))
	require.NoError(t, err)

	assert.Equal(t, 6, payload.StampReadCount())
	assert.Equal(t, 6, payload[ReadCountKey])
}

func TestPayload_StampReadCount_NonIntegerResets(t *testing.T) {
	payload, err := Parse([]byte(`{"system_read_count":"bogus"}`))
	require.NoError(t, err)

	assert.Equal(t, 1, payload.StampReadCount())
}
