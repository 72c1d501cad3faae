// Package resolver follows local $ref pointers inside raw documents
package resolver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

var (
	errRefPrefix   = errors.New(`$ref must start with "#/"`)
	errUnknownSpec = errors.New("unknown spec")
)

// DocumentSource provides raw documents by id
type DocumentSource interface {
	Get(id string) (raw.Value, bool)
}

// Resolver resolves "#/a/b/c" pointers against the document that owns the
// referring node. Results are not memoized.
type Resolver struct {
	docs DocumentSource
}

// New creates a resolver over docs
func New(docs DocumentSource) *Resolver {
	return &Resolver{docs: docs}
}

// Resolve follows ref relative to the document named by the first crumb of
// origin's namespace and returns the raw value it points at
func (r *Resolver) Resolve(origin nserror.Namespaced, ref raw.Value) (raw.Value, error) {
	refStr, ok := ref.AsString()
	if !ok {
		return raw.Value{}, nserror.RefNotAString(origin)
	}
	return r.ResolveString(origin, refStr)
}

// ResolveString is Resolve for a ref already known to be a string
func (r *Resolver) ResolveString(origin nserror.Namespaced, ref string) (raw.Value, error) {
	v, err := r.follow(origin.Namespace().DocumentID(), ref)
	if err != nil {
		return raw.Value{}, nserror.InvalidRef(origin, ref, err)
	}
	return v, nil
}

func (r *Resolver) follow(docID, ref string) (raw.Value, error) {
	segments := strings.Split(ref, "/")
	if segments[0] != "#" {
		return raw.Value{}, errRefPrefix
	}

	root, ok := r.docs.Get(docID)
	if !ok {
		return raw.Value{}, errUnknownSpec
	}

	current := root
	for _, segment := range segments[1:] {
		next, ok := step(current, unescape(segment))
		if !ok {
			return raw.Value{}, fmt.Errorf("Invalid path: Cannot find %s", segment)
		}
		current = next
	}
	return current, nil
}

// step descends one level. Null entries count as missing.
func step(base raw.Value, segment string) (raw.Value, bool) {
	switch base.Kind() {
	case raw.KindMap:
		m, _ := base.AsMap()
		v, ok := m.Get(segment)
		if !ok || v.IsNull() {
			return raw.Value{}, false
		}
		return v, true
	case raw.KindSeq:
		items, _ := base.AsSeq()
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(items) || items[idx].IsNull() {
			return raw.Value{}, false
		}
		return items[idx], true
	default:
		return raw.Value{}, false
	}
}

// unescape decodes a JSON pointer token (~1 is "/", ~0 is "~")
func unescape(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}
