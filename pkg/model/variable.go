package model

import (
	"fmt"
	"strings"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Variable substitutes a {placeholder} of its server's url
type Variable struct {
	parent   *Server
	name     string
	data     raw.Value
	resolver Resolver
}

// NewVariable validates data as the variable name of parent
func NewVariable(parent *Server, name string, data raw.Value, r Resolver) (*Variable, error) {
	v := &Variable{parent: parent, name: name, data: data, resolver: r}
	if name == "" {
		return nil, nserror.NotAStringOrEmpty(v, "name")
	}

	data, err := deref(v, data, r)
	if err != nil {
		return nil, err
	}
	v.data = data

	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Variable) validate() error {
	m, err := asObject(v, v.data)
	if err != nil {
		return err
	}

	url := v.parent.URL()
	if !strings.Contains(url, "{"+v.name+"}") {
		return nserror.MissingPlaceholder(v, "server url", url, v.name)
	}

	def, _ := m.Get("default")
	if def.IsNull() {
		return nserror.MissingMandatoryProperty(v, "default")
	}
	defStr, ok := def.AsString()
	if !ok || defStr == "" {
		return nserror.NotAStringOrEmpty(v, "default")
	}

	if err := v.validateEnum(m, defStr); err != nil {
		return err
	}
	return nullableString(v, m, "description")
}

func (v *Variable) validateEnum(m *raw.Map, def string) error {
	enum, _ := m.Get("enum")
	if enum.IsNull() {
		return nil
	}
	items, ok := enum.AsSeq()
	if !ok {
		return nserror.NotAnArray(v, "enum")
	}

	allowed := make([]string, len(items))
	found := false
	for i, item := range items {
		allowed[i] = item.Text()
		if s, ok := item.AsString(); ok && s == def {
			found = true
		}
	}
	if !found {
		ns := v.Namespace().Append("enum", "default")
		return nserror.InvalidEnumValue(ns, "default", def, allowed, "")
	}

	for i, item := range items {
		if s, ok := item.AsString(); !ok || s == "" {
			return nserror.NotAStringOrEmpty(v, fmt.Sprintf("enum[%d]", i))
		}
	}
	return nil
}

// Name returns the placeholder name
func (v *Variable) Name() string { return v.name }

// Default returns the default substitution
func (v *Variable) Default() string { return stringOf(v.data, "default") }

// Enum returns the allowed values, or nil when unrestricted
func (v *Variable) Enum() []string {
	items, ok := v.data.Get("enum").AsSeq()
	if !ok {
		return nil
	}
	values := make([]string, len(items))
	for i, item := range items {
		values[i] = item.Text()
	}
	return values
}

// Description returns the description, or ""
func (v *Variable) Description() string { return stringOf(v.data, "description") }

// Parent returns the owning server
func (v *Variable) Parent() *Server { return v.parent }

// Raw returns the (dereferenced) raw data behind the node
func (v *Variable) Raw() raw.Value { return v.data }

func (v *Variable) Namespace() nserror.Namespace {
	return v.parent.Namespace().Append("variable: " + v.name)
}
