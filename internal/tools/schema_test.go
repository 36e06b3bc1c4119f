package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

func TestDescriptorFromSchema_PreservesPropertyOrder(t *testing.T) {
	input := []byte(`{
		"type": "object",
		"properties": {
			"zeta":  {"type": "string"},
			"alpha": {"type": "integer"},
			"mid":   {"type": "number"}
		},
		"required": ["zeta", "alpha", "mid"]
	}`)

	d, err := DescriptorFromSchema("ordered", "Order test", input)

	require.NoError(t, err)
	assert.Equal(t, []schema.Param{
		{Name: "zeta", Kind: schema.KindString},
		{Name: "alpha", Kind: schema.KindInteger},
		{Name: "mid", Kind: schema.KindNumber},
	}, d.Params)
	assert.Equal(t, "Order test", d.Description)
}

func TestDescriptorFromSchema_Arrays(t *testing.T) {
	input := []byte(`{"properties": {
		"steps": {"type": "array", "items": {"type": "string"}},
		"ids":   {"type": "array", "items": {"type": "integer"}},
		"raw":   {"type": "array"}
	}}`)

	d, err := DescriptorFromSchema("arrays", "", input)

	require.NoError(t, err)
	assert.Equal(t, schema.KindStringArray, d.Params[0].Kind)
	assert.Equal(t, schema.KindIntArray, d.Params[1].Kind)
	assert.Equal(t, schema.KindIntArray, d.Params[2].Kind)
}

func TestDescriptorFromSchema_NoProperties(t *testing.T) {
	for _, input := range [][]byte{nil, []byte(`{"type":"object"}`)} {
		d, err := DescriptorFromSchema("ping", "", input)
		require.NoError(t, err)
		assert.Empty(t, d.Params)
	}
}

func TestDescriptorFromSchema_UnknownTypeIsString(t *testing.T) {
	d, err := DescriptorFromSchema("flag", "", []byte(`{"properties":{"on":{"type":"boolean"}}}`))

	require.NoError(t, err)
	assert.Equal(t, schema.KindString, d.Params[0].Kind)
}

func TestDescriptorFromSchema_Malformed(t *testing.T) {
	_, err := DescriptorFromSchema("bad", "", []byte(`{"properties":{"x": 5}}`))

	assert.Error(t, err)
}
