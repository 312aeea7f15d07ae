//go:build !integration

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outputFixture struct {
	CompanyName string   `json:"company_name"`
	Tags        []string `json:"tags,omitempty"`
}

func TestWriteOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputFixture{CompanyName: "Acme"}, "json"))
	assert.Equal(t, "{\n  \"company_name\": \"Acme\"\n}\n", buf.String())
}

func TestWriteOutput_DefaultIsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputFixture{CompanyName: "Acme"}, ""))
	assert.Contains(t, buf.String(), `"company_name": "Acme"`)
}

func TestWriteOutput_YAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputFixture{CompanyName: "Acme", Tags: []string{"a", "b"}}, "yaml"))

	out := buf.String()
	assert.Contains(t, out, "company_name: Acme")
	assert.Contains(t, out, "tags:\n  - a\n  - b")
	assert.NotContains(t, out, "companyname")
}

func TestWriteOutput_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	err := writeOutput(&buf, outputFixture{}, "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
	assert.Empty(t, buf.String())
}
