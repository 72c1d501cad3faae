package model

import (
	"strings"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Server is an entry of the servers array
type Server struct {
	parent   *Specification
	data     raw.Value
	resolver Resolver
}

// NewServer validates data as a server of parent
func NewServer(parent *Specification, data raw.Value, r Resolver) (*Server, error) {
	s := &Server{parent: parent, data: data, resolver: r}

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

func (s *Server) validate() error {
	m, err := asObject(s, s.data)
	if err != nil {
		return err
	}

	url, _ := m.Get("url")
	if url.IsNull() {
		return nserror.MissingMandatoryProperty(s, "url")
	}
	str, ok := url.AsString()
	if !ok || (!strings.HasPrefix(str, "http://") && !strings.HasPrefix(str, "https://")) {
		return nserror.New(s, "[url] must be a string that starts with http:// or https://")
	}

	if err := nullableString(s, m, "description"); err != nil {
		return err
	}
	return optionalRecord(s, m, "variables")
}

// URL returns the server url, which may hold {placeholders}
func (s *Server) URL() string { return stringOf(s.data, "url") }

// Description returns the description, or ""
func (s *Server) Description() string { return stringOf(s.data, "description") }

// Variables builds one Variable per entry of the variables map
func (s *Server) Variables() ([]*Variable, error) {
	keys, m := entries(s.data, "variables")
	variables := make([]*Variable, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		variable, err := NewVariable(s, key, v, s.resolver)
		if err != nil {
			return nil, err
		}
		variables = append(variables, variable)
	}
	return variables, nil
}

// Parent returns the owning specification
func (s *Server) Parent() *Specification { return s.parent }

// Raw returns the (dereferenced) raw data behind the node
func (s *Server) Raw() raw.Value { return s.data }

func (s *Server) Namespace() nserror.Namespace {
	return s.parent.Namespace().Append("server: " + crumb(s.data.Get("url")))
}
