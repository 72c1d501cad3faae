package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// ContentParent is a node that owns content entries: a Response or an
// Operation (through its request body)
type ContentParent interface {
	nserror.Namespaced
	contentParent()
}

// Content describes the payload carried under one mimetype
type Content struct {
	parent   ContentParent
	mimetype string
	data     raw.Value
	resolver Resolver
}

// NewContent validates data as the mimetype entry of parent
func NewContent(parent ContentParent, mimetype string, data raw.Value, r Resolver) (*Content, error) {
	c := &Content{parent: parent, mimetype: mimetype, data: data, resolver: r}

	data, err := deref(c, data, r)
	if err != nil {
		return nil, err
	}
	c.data = data

	if c.mimetype == "" {
		return nil, nserror.NotAStringOrEmpty(c, "mimetype")
	}
	if err := validateSchemaHolder(c, c.data); err != nil {
		return nil, err
	}
	return c, nil
}

// validateSchemaHolder checks the shape shared by contents and headers
func validateSchemaHolder(n nserror.Namespaced, data raw.Value) error {
	m, err := asObject(n, data)
	if err != nil {
		return err
	}
	if err := nullableString(n, m, "description"); err != nil {
		return err
	}
	return requireObject(n, m, "schema")
}

// Mimetype returns the media type, e.g. "application/json"
func (c *Content) Mimetype() string { return c.mimetype }

// Description returns the description, or ""
func (c *Content) Description() string { return stringOf(c.data, "description") }

// Schema returns the schema serialized as JSON
func (c *Content) Schema() (string, error) {
	schema, err := c.RawSchema()
	if err != nil {
		return "", err
	}
	return schema.JSON(), nil
}

// RawSchema returns the schema, following and memoizing a $ref
func (c *Content) RawSchema() (raw.Value, error) {
	return resolveSchema(c, c.data, c.resolver)
}

// Example returns the example serialized as JSON, or ""
func (c *Content) Example() string { return exampleOf(c.data) }

// Parent returns the owning Response or Operation
func (c *Content) Parent() ContentParent { return c.parent }

// Raw returns the (dereferenced) raw data behind the node
func (c *Content) Raw() raw.Value { return c.data }

func (c *Content) Namespace() nserror.Namespace {
	return c.parent.Namespace().Append("content: " + c.mimetype)
}

func buildContents(parent ContentParent, m *raw.Map, r Resolver) ([]*Content, error) {
	keys := m.Keys()
	contents := make([]*Content, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		content, err := NewContent(parent, key, v, r)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, nil
}
