package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	type args struct {
		Filename string     `json:"filename"`
		Rows     int        `json:"rows"`
		Scale    float64    `json:"scale,omitempty"`
		Bold     *bool      `json:"bold,omitempty"`
		Data     [][]string `json:"data,omitempty"`
		hidden   string
		Skipped  string `json:"-"`
	}
	_ = args{hidden: ""}

	var schema ToolInputSchema
	require.NoError(t, Load(&schema, &args{}))

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"filename", "rows"}, schema.Required)
	assert.Equal(t, "string", schema.Properties["filename"]["type"])
	assert.Equal(t, "integer", schema.Properties["rows"]["type"])
	assert.Equal(t, "number", schema.Properties["scale"]["type"])
	assert.Equal(t, "boolean", schema.Properties["bold"]["type"])
	assert.Equal(t, "array", schema.Properties["data"]["type"])
	assert.NotContains(t, schema.Properties, "hidden")
	assert.NotContains(t, schema.Properties, "Skipped")
	assert.NotContains(t, schema.Properties, "-")
}

func TestLoad_RejectsNonStruct(t *testing.T) {
	var schema ToolInputSchema
	assert.Error(t, Load(&schema, 42))
}
