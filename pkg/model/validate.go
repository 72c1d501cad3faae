package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Resolver follows $ref pointers on behalf of nodes
type Resolver interface {
	Resolve(origin nserror.Namespaced, ref raw.Value) (raw.Value, error)
}

// deref replaces data with the target of its $ref, if it has one. The
// node's namespace must already be usable.
func deref(n nserror.Namespaced, data raw.Value, r Resolver) (raw.Value, error) {
	ref, ok := data.Ref()
	if !ok {
		return data, nil
	}
	return r.Resolve(n, ref)
}

func asObject(n nserror.Namespaced, data raw.Value) (*raw.Map, error) {
	m, ok := data.AsMap()
	if !ok {
		return nil, nserror.NotAnObject(n)
	}
	return m, nil
}

func requireString(n nserror.Namespaced, m *raw.Map, property string) (string, error) {
	v, _ := m.Get(property)
	s, ok := v.AsString()
	if !ok || s == "" {
		return "", nserror.NotAStringOrEmpty(n, property)
	}
	return s, nil
}

func nullableString(n nserror.Namespaced, m *raw.Map, property string) error {
	v, _ := m.Get(property)
	if v.IsNull() {
		return nil
	}
	if _, ok := v.AsString(); !ok {
		return nserror.NotNullOrString(n, property)
	}
	return nil
}

func requireObject(n nserror.Namespaced, m *raw.Map, property string) error {
	v, _ := m.Get(property)
	if v.IsNull() {
		return nserror.MissingMandatoryProperty(n, property)
	}
	if v.Kind() != raw.KindMap {
		return nserror.TypeMismatch(n, property, v.Kind().String(), "object")
	}
	return nil
}

// optionalRecord accepts an absent value or a map whose values are all maps
func optionalRecord(n nserror.Namespaced, m *raw.Map, property string) error {
	v, _ := m.Get(property)
	if v.IsNull() {
		return nil
	}
	return recordOfObjects(n, v, property)
}

// requireRecord is optionalRecord for a mandatory, non-empty map
func requireRecord(n nserror.Namespaced, m *raw.Map, property string) error {
	v, _ := m.Get(property)
	if v.IsNull() {
		return nserror.MissingMandatoryProperty(n, property)
	}
	if err := recordOfObjects(n, v, property); err != nil {
		return err
	}
	if rec, _ := v.AsMap(); rec.Len() == 0 {
		return nserror.MissingMandatoryProperty(n, property)
	}
	return nil
}

func recordOfObjects(n nserror.Namespaced, v raw.Value, property string) error {
	rec, ok := v.AsMap()
	if !ok {
		return nserror.NotARecord(n, property, "object")
	}
	var err error
	rec.Range(func(_ string, item raw.Value) bool {
		if item.Kind() != raw.KindMap {
			err = nserror.NotARecord(n, property, "object")
			return false
		}
		return true
	})
	return err
}

func optionalObjectArray(n nserror.Namespaced, m *raw.Map, property string) error {
	v, _ := m.Get(property)
	if v.IsNull() {
		return nil
	}
	items, ok := v.AsSeq()
	if !ok {
		return nserror.NotAnArray(n, property)
	}
	for _, item := range items {
		if item.Kind() != raw.KindMap {
			return nserror.ArrayItemWrongType(n, property, item.Kind().String(), "object")
		}
	}
	return nil
}

func requireEnum(n nserror.Namespaced, property, value string, allowed []string, enumName string) error {
	for _, a := range allowed {
		if a == value {
			return nil
		}
	}
	return nserror.InvalidEnumValue(n, property, value, allowed, enumName)
}

// stringOf returns the string stored under property, or ""
func stringOf(data raw.Value, property string) string {
	s, _ := data.Get(property).AsString()
	return s
}

// crumb renders an identifier taken from raw data for use in a namespace
func crumb(v raw.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.Text()
}

// exampleOf serializes the example entry, or returns "" when absent
func exampleOf(data raw.Value) string {
	v := data.Get("example")
	if v.IsNull() {
		return ""
	}
	return v.JSON()
}

// resolveSchema returns the schema entry of data, following a $ref and
// storing the result back onto data so later reads skip the walk
func resolveSchema(n nserror.Namespaced, data raw.Value, r Resolver) (raw.Value, error) {
	m, ok := data.AsMap()
	if !ok {
		return raw.Null(), nil
	}
	schema, _ := m.Get("schema")
	ref, ok := schema.Ref()
	if !ok {
		return schema, nil
	}
	resolved, err := r.Resolve(n, ref)
	if err != nil {
		return raw.Value{}, err
	}
	m.Set("schema", resolved)
	return resolved, nil
}

// entries returns the key/value pairs of the map stored under property
func entries(data raw.Value, property string) ([]string, *raw.Map) {
	m, ok := data.Get(property).AsMap()
	if !ok {
		return nil, nil
	}
	return m.Keys(), m
}
