// Package model materializes typed, validated views over raw specification
// documents. Nodes validate their own data when constructed and build
// their children again on every call to a collection getter, so a child
// always reflects the current raw tree.
package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// OpenAPIVersions lists the accepted values of the openapi field
var OpenAPIVersions = []string{"3.0.0", "3.0.1", "3.0.2", "3.0.3"}

// Specification is the root node of one document
type Specification struct {
	id       string
	data     raw.Value
	resolver Resolver
}

// NewSpecification validates data as the root of document id
func NewSpecification(id string, data raw.Value, r Resolver) (*Specification, error) {
	s := &Specification{id: id, data: data, resolver: r}
	if id == "" {
		return nil, nserror.NotAStringOrEmpty(s, "id")
	}

	data, err := deref(s, data, r)
	if err != nil {
		return nil, err
	}
	s.data = data

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Specification) validate() error {
	m, err := asObject(s, s.data)
	if err != nil {
		return err
	}

	openapi, _ := m.Get("openapi")
	if openapi.IsNull() {
		return nserror.MissingMandatoryProperty(s, "openapi")
	}
	if err := requireEnum(s, "openapi", openapi.Text(), OpenAPIVersions, "openapi"); err != nil {
		return err
	}

	info, _ := m.Get("info")
	if info.IsNull() {
		return nserror.MissingMandatoryProperty(s, "info")
	}
	infoMap, ok := info.AsMap()
	if !ok {
		return nserror.TypeMismatch(s, "info", info.Kind().String(), "object")
	}
	if _, err := requireString(s, infoMap, "title"); err != nil {
		return nserror.NotAStringOrEmpty(s, "info.title")
	}
	if err := nullableString(s, infoMap, "description"); err != nil {
		return nserror.NotNullOrString(s, "info.description")
	}
	if version, _ := infoMap.Get("version"); !version.IsNull() && !version.IsScalar() {
		return nserror.NotNullOrString(s, "info.version")
	}

	paths, _ := m.Get("paths")
	if isEmpty(paths) {
		return nserror.MissingMandatoryProperty(s, "paths")
	}
	if err := recordOfObjects(s, paths, "paths"); err != nil {
		return nserror.NotARecord(s, "paths", "Object")
	}

	return optionalObjectArray(s, m, "servers")
}

func isEmpty(v raw.Value) bool {
	if m, ok := v.AsMap(); ok {
		return m.Len() == 0
	}
	if items, ok := v.AsSeq(); ok {
		return len(items) == 0
	}
	return v.IsNull()
}

// ID returns the document id
func (s *Specification) ID() string { return s.id }

// OpenAPI returns the version tag
func (s *Specification) OpenAPI() string {
	return s.data.Get("openapi").Text()
}

// Title returns info.title
func (s *Specification) Title() string {
	return stringOf(s.data.Get("info"), "title")
}

// Version returns info.version as written, or ""
func (s *Specification) Version() string {
	return crumb(s.data.Get("info").Get("version"))
}

// Name is the title, followed by the version when one is set
func (s *Specification) Name() string {
	if version := s.Version(); version != "" {
		return s.Title() + " " + version
	}
	return s.Title()
}

// Description returns info.description, or ""
func (s *Specification) Description() string {
	return stringOf(s.data.Get("info"), "description")
}

// Servers builds the servers in document order
func (s *Specification) Servers() ([]*Server, error) {
	items, _ := s.data.Get("servers").AsSeq()
	servers := make([]*Server, 0, len(items))
	for _, item := range items {
		server, err := NewServer(s, item, s.resolver)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}
	return servers, nil
}

// Paths builds one Path per key of the paths map
func (s *Specification) Paths() ([]*Path, error) {
	keys, m := entries(s.data, "paths")
	paths := make([]*Path, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		path, err := NewPath(s, key, v, s.resolver)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Raw returns the (dereferenced) raw data behind the node
func (s *Specification) Raw() raw.Value { return s.data }

// Namespace is the single crumb holding the document id
func (s *Specification) Namespace() nserror.Namespace {
	return nserror.Namespace{s.id}
}
