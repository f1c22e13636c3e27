package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"raw json", `  {"a": 1, "b": 2, "c": 3}  `},
		{"json fence", "Here you go:\n```json\n{\"a\": 1, \"b\": 2, \"c\": 3}\n```\nEnjoy."},
		{"plain fence", "```\n{\"a\": 1, \"b\": 2, \"c\": 3}\n```"},
		{"embedded in prose", `Sure! The result is {"a": 1, "b": 2, "c": 3} and that is all.`},
		{"double encoded", `"{\"a\": 1, \"b\": 2, \"c\": 3}"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ExtractJSON(tt.response)
			require.NoError(t, err)
			assert.Equal(t, map[string]interface{}{"a": 1.0, "b": 2.0, "c": 3.0}, obj)
		})
	}
}

func TestExtractJSONFailsDistinctly(t *testing.T) {
	for _, response := range []string{
		"",
		"no json here at all",
		"{broken: json",
		`prose {"a": 1} more prose {"b": 2}`,
	} {
		obj, err := ExtractJSON(response)
		assert.ErrorIs(t, err, ErrNoJSON, "response %q", response)
		assert.Nil(t, obj)
	}
}

func TestExtractJSONPrefersLargestObject(t *testing.T) {
	response := `Two objects: {"x": 1} then {"title": "T", "themes": ["a"], "audience": "all"} and {"y": 2}`

	obj, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, "T", obj["title"])
	assert.Len(t, obj, 3)
}

func TestExtractJSONNestedBracesInStrings(t *testing.T) {
	response := "Result:\n" + `{"introduction": "use {braces}", "explanation": "x } y", "summary": "ok"}` + "\nDone"

	obj, err := ExtractJSON(response)
	require.NoError(t, err)
	assert.Equal(t, "x } y", obj["explanation"])
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Topics []string `json:"topics"`
	}
	require.NoError(t, DecodeJSON("```json\n{\"topics\": [\"Go\"]}\n```", &out))
	assert.Equal(t, []string{"Go"}, out.Topics)

	assert.ErrorIs(t, DecodeJSON("nothing", &out), ErrNoJSON)
}
