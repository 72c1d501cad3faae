package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"specgraph/pkg/nserror"
)

func TestServerValidation(t *testing.T) {
	spec, r := fixture(t, "")

	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"missing url", `{description: x}`, "[url] mandatory property missing or empty"},
		{"relative url", `{url: /v1}`, "[url] must be a string that starts with http:// or https://"},
		{"url not a string", `{url: [a]}`, "[url] must be a string that starts with http:// or https://"},
		{"description not a string", `{url: "http://x", description: 3}`, "[description] must be null or a string"},
		{"variables not a record", `{url: "http://x", variables: [a]}`, "[variables] must be a map string -> object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServer(spec, parse(t, tt.src), r)
			nsErr := requireNsError(t, err)
			assert.Equal(t, tt.message, nsErr.Message)
		})
	}
}

func TestServerVariables(t *testing.T) {
	spec, r := fixture(t, "")
	server, err := NewServer(spec, parse(t, `
url: https://{region}.example.com:{port}
description: regional
variables:
  region:
    default: eu
    enum: [eu, us]
    description: deployment region
  port:
    default: "8443"
`), r)
	require.NoError(t, err)
	assert.Equal(t, "regional", server.Description())
	assert.Equal(t, nserror.Namespace{"fixture", "server: https://{region}.example.com:{port}"}, server.Namespace())

	vars, err := server.Variables()
	require.NoError(t, err)
	require.Len(t, vars, 2)

	assert.Equal(t, "region", vars[0].Name())
	assert.Equal(t, "eu", vars[0].Default())
	assert.Equal(t, []string{"eu", "us"}, vars[0].Enum())
	assert.Equal(t, "deployment region", vars[0].Description())
	assert.Same(t, server, vars[0].Parent())

	assert.Equal(t, "8443", vars[1].Default())
	assert.Nil(t, vars[1].Enum())
	assert.Equal(t,
		nserror.Namespace{"fixture", "server: https://{region}.example.com:{port}", "variable: port"},
		vars[1].Namespace())
}

func TestVariableMissingPlaceholder(t *testing.T) {
	spec, r := fixture(t, "")
	// relative urls never pass server validation, so build the node directly
	server := &Server{parent: spec, data: parse(t, `{url: "/test/{testVar}"}`), resolver: r}

	_, err := NewVariable(server, "testVar2", parse(t, `{default: a}`), r)
	nsErr := requireNsError(t, err)
	assert.Equal(t, nserror.CodeMissingPlaceholder, nsErr.Code)
	assert.Equal(t, "the server url [/test/{testVar}] does not contain the placeholder {testVar2}", nsErr.Message)
	assert.Equal(t, nserror.Namespace{"fixture", "server: /test/{testVar}", "variable: testVar2"}, nsErr.Namespace)

	v, err := NewVariable(server, "testVar", parse(t, `{default: a}`), r)
	require.NoError(t, err)
	assert.Equal(t, "a", v.Default())
}

func TestVariableValidation(t *testing.T) {
	spec, r := fixture(t, "")
	server, err := NewServer(spec, parse(t, `{url: "https://{v}.example.com"}`), r)
	require.NoError(t, err)
	base := nserror.Namespace{"fixture", "server: https://{v}.example.com", "variable: v"}

	tests := []struct {
		name      string
		src       string
		message   string
		namespace nserror.Namespace
	}{
		{
			name:      "not an object",
			src:       `plain`,
			message:   "this is not based on an object",
			namespace: base,
		},
		{
			name:      "missing default",
			src:       `{description: d}`,
			message:   "[default] mandatory property missing or empty",
			namespace: base,
		},
		{
			name:      "empty default",
			src:       `{default: ""}`,
			message:   "[default] must be a string and not empty",
			namespace: base,
		},
		{
			name:      "numeric default",
			src:       `{default: 8080}`,
			message:   "[default] must be a string and not empty",
			namespace: base,
		},
		{
			name:      "enum not an array",
			src:       `{default: a, enum: a}`,
			message:   "[enum] must be an array",
			namespace: base,
		},
		{
			name:      "default outside enum",
			src:       `{default: c, enum: [a, b]}`,
			message:   `[default] "c" is not a valid value. (Valid values: ["a", "b"])`,
			namespace: base.Append("enum", "default"),
		},
		{
			name:      "empty enum item",
			src:       `{default: a, enum: [a, ""]}`,
			message:   "[enum[1]] must be a string and not empty",
			namespace: base,
		},
		{
			name:      "description not a string",
			src:       `{default: a, description: [d]}`,
			message:   "[description] must be null or a string",
			namespace: base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVariable(server, "v", parse(t, tt.src), r)
			nsErr := requireNsError(t, err)
			assert.Equal(t, tt.message, nsErr.Message)
			assert.Equal(t, tt.namespace, nsErr.Namespace)
		})
	}

	_, err = NewVariable(server, "", parse(t, `{default: a}`), r)
	nsErr := requireNsError(t, err)
	assert.Equal(t, "[name] must be a string and not empty", nsErr.Message)
}
