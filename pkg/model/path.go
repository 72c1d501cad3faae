package model

import (
	"strings"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Path is one entry of the paths map
type Path struct {
	parent   *Specification
	path     string
	data     raw.Value
	resolver Resolver
}

// NewPath validates data as the path item stored under path
func NewPath(parent *Specification, path string, data raw.Value, r Resolver) (*Path, error) {
	p := &Path{parent: parent, path: path, data: data, resolver: r}

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

func (p *Path) validate() error {
	if !strings.HasPrefix(p.path, "/") {
		return nserror.New(p, "every path must start with a /")
	}

	m, err := asObject(p, p.data)
	if err != nil {
		return err
	}
	if err := optionalObjectArray(p, m, "parameters"); err != nil {
		return err
	}

	keys := m.Keys()
	hasMethod := false
	others := 0
	for _, key := range keys {
		if key != "parameters" {
			others++
		}
	}
	if others == 0 {
		return nserror.New(p, "every path needs to contain at least one method")
	}
	for _, key := range keys {
		switch {
		case IsValidMethod(key):
			hasMethod = true
		case key == "parameters", key == "summary", key == "description":
		default:
			return nserror.UnexpectedProperty(p, key)
		}
	}

	if err := nullableString(p, m, "description"); err != nil {
		return err
	}
	if err := nullableString(p, m, "summary"); err != nil {
		return err
	}
	if !hasMethod {
		return nserror.New(p, "every path needs to contain at least one method")
	}
	return nil
}

// Path returns the path string, e.g. "/pets/{id}"
func (p *Path) Path() string { return p.path }

// Summary returns the summary, or ""
func (p *Path) Summary() string { return stringOf(p.data, "summary") }

// Description returns the description, or ""
func (p *Path) Description() string { return stringOf(p.data, "description") }

// Methods builds one Operation per recognized method key
func (p *Path) Methods() ([]*Operation, error) {
	return buildOperations(p, p.data, p.resolver)
}

// Parameters builds the path-level parameters in document order
func (p *Path) Parameters() ([]*Parameter, error) {
	return buildParameters(p, p.data, p.resolver)
}

// Parent returns the owning specification
func (p *Path) Parent() *Specification { return p.parent }

// Raw returns the (dereferenced) raw data behind the node
func (p *Path) Raw() raw.Value { return p.data }

func (p *Path) Namespace() nserror.Namespace {
	return p.parent.Namespace().Append("path: " + p.path)
}

func (p *Path) parameterParent() {}
func (p *Path) operationParent() {}

func buildOperations(parent OperationParent, data raw.Value, r Resolver) ([]*Operation, error) {
	m, ok := data.AsMap()
	if !ok {
		return nil, nil
	}
	var ops []*Operation
	for _, key := range m.Keys() {
		if !IsValidMethod(key) {
			continue
		}
		v, _ := m.Get(key)
		op, err := NewOperation(parent, Method(key), v, r)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func buildParameters(parent ParameterParent, data raw.Value, r Resolver) ([]*Parameter, error) {
	items, _ := data.Get("parameters").AsSeq()
	params := make([]*Parameter, 0, len(items))
	for _, item := range items {
		param, err := NewParameter(parent, item, r)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}
