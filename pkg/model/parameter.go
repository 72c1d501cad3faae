package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// ParameterParent is a node that owns parameters: a Path or an Operation
type ParameterParent interface {
	nserror.Namespaced
	parameterParent()
}

// Parameter is an item of a parameters array
type Parameter struct {
	parent   ParameterParent
	data     raw.Value
	resolver Resolver
}

// NewParameter validates data as a parameter of parent
func NewParameter(parent ParameterParent, data raw.Value, r Resolver) (*Parameter, error) {
	p := &Parameter{parent: parent, data: data, resolver: r}

	data, err := deref(p, data, r)
	if err != nil {
		return nil, err
	}
	p.data = data

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parameter) validate() error {
	m, err := asObject(p, p.data)
	if err != nil {
		return err
	}

	if name, _ := m.Get("name"); name.IsNull() || name.Text() == "" {
		return nserror.MissingMandatoryProperty(p, "name")
	}

	in, _ := m.Get("in")
	if in.IsNull() {
		return nserror.MissingMandatoryProperty(p, "in")
	}
	if err := requireEnum(p, "in", in.Text(), locationNames(), "ParameterIn"); err != nil {
		return err
	}

	required, _ := m.Get("required")
	if required.IsNull() {
		return nserror.MissingMandatoryProperty(p, "required")
	}
	if required.Kind() != raw.KindBool {
		return nserror.TypeMismatch(p, "required", required.Kind().String(), "boolean")
	}

	return requireObject(p, m, "schema")
}

// Name returns the parameter name
func (p *Parameter) Name() string { return crumb(p.data.Get("name")) }

// In returns where the parameter is carried
func (p *Parameter) In() Location { return Location(stringOf(p.data, "in")) }

// Required reports the required flag
func (p *Parameter) Required() bool {
	b, _ := p.data.Get("required").AsBool()
	return b
}

// Schema returns the schema serialized as JSON
func (p *Parameter) Schema() (string, error) {
	schema, err := p.RawSchema()
	if err != nil {
		return "", err
	}
	return schema.JSON(), nil
}

// RawSchema returns the schema, following and memoizing a $ref
func (p *Parameter) RawSchema() (raw.Value, error) {
	return resolveSchema(p, p.data, p.resolver)
}

// Example returns the example serialized as JSON, or ""
func (p *Parameter) Example() string { return exampleOf(p.data) }

// Parent returns the owning Path or Operation
func (p *Parameter) Parent() ParameterParent { return p.parent }

// Raw returns the (dereferenced) raw data behind the node
func (p *Parameter) Raw() raw.Value { return p.data }

func (p *Parameter) Namespace() nserror.Namespace {
	return p.parent.Namespace().Append("parameter: " + p.Name())
}
