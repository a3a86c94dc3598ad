package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var requestSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"query", "month"},
	"properties": map[string]interface{}{
		"query": map[string]interface{}{"type": "string"},
		"month": map[string]interface{}{"type": "string", "pattern": `^\d{4}-(0[1-9]|1[0-2])$`},
	},
}

func TestSchema_ValidateJSON(t *testing.T) {
	s, err := Compile("request", requestSchema)
	require.NoError(t, err)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{name: "valid", doc: `{"query":"판매량","month":"2025-09"}`, wantValid: true},
		{name: "missing month", doc: `{"query":"판매량"}`, wantField: "(root)"},
		{name: "bad month", doc: `{"query":"x","month":"2025-13"}`, wantField: "month"},
		{name: "wrong type", doc: `{"query":1,"month":"2025-09"}`, wantField: "query"},
		{name: "not json", doc: `{"query":`, wantField: "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.ValidateJSON([]byte(tt.doc))
			assert.Equal(t, tt.wantValid, res.Valid)
			if tt.wantValid {
				assert.NoError(t, res.Err())
				return
			}
			assert.Error(t, res.Err())
			assert.True(t, res.HasErrors(tt.wantField), "errors: %v", res.GetErrorMessages())
		})
	}
}

func TestSchema_ValidateDocument(t *testing.T) {
	s := MustCompile("request", requestSchema)

	res := s.ValidateDocument(map[string]interface{}{"query": "q", "month": "2025-01"})
	assert.True(t, res.Valid)

	res = s.ValidateDocument([]interface{}{"not", "an", "object"})
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorMessages())
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", map[string]interface{}{"type": 42})
	assert.Error(t, err)
}
