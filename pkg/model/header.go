package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Header is a response header
type Header struct {
	parent   *Response
	name     string
	data     raw.Value
	resolver Resolver
}

// NewHeader validates data as the header name of parent
func NewHeader(parent *Response, name string, data raw.Value, r Resolver) (*Header, error) {
	h := &Header{parent: parent, name: name, data: data, resolver: r}

	data, err := deref(h, data, r)
	if err != nil {
		return nil, err
	}
	h.data = data

	if h.name == "" {
		return nil, nserror.NotAStringOrEmpty(h, "name")
	}
	if err := validateSchemaHolder(h, h.data); err != nil {
		return nil, err
	}
	return h, nil
}

// Name returns the header name
func (h *Header) Name() string { return h.name }

// Description returns the description, or ""
func (h *Header) Description() string { return stringOf(h.data, "description") }

// Schema returns the schema serialized as JSON
func (h *Header) Schema() (string, error) {
	schema, err := h.RawSchema()
	if err != nil {
		return "", err
	}
	return schema.JSON(), nil
}

// RawSchema returns the schema, following and memoizing a $ref
func (h *Header) RawSchema() (raw.Value, error) {
	return resolveSchema(h, h.data, h.resolver)
}

// Example returns the example serialized as JSON, or ""
func (h *Header) Example() string { return exampleOf(h.data) }

// Parent returns the owning response
func (h *Header) Parent() *Response { return h.parent }

// Raw returns the (dereferenced) raw data behind the node
func (h *Header) Raw() raw.Value { return h.data }

func (h *Header) Namespace() nserror.Namespace {
	return h.parent.Namespace().Append("header: " + h.name)
}
