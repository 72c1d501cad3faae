package nserror

import "strings"

// Namespace is the breadcrumb trail from a document root to a node. The
// first element is always the document id.
type Namespace []string

// Namespaced is implemented by everything that can report its location
type Namespaced interface {
	Namespace() Namespace
}

// Append returns a new namespace with crumb added; ns is left untouched
func (ns Namespace) Append(crumbs ...string) Namespace {
	out := make(Namespace, 0, len(ns)+len(crumbs))
	out = append(out, ns...)
	return append(out, crumbs...)
}

// DocumentID returns the first crumb, or "" for an empty namespace
func (ns Namespace) DocumentID() string {
	if len(ns) == 0 {
		return ""
	}
	return ns[0]
}

// String joins the crumbs with " > "
func (ns Namespace) String() string {
	return strings.Join(ns, " > ")
}

// Namespace lets a bare Namespace be passed where a Namespaced is expected
func (ns Namespace) Namespace() Namespace {
	return ns
}
