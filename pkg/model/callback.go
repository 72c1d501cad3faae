package model

import (
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Callback is a named set of out-of-band requests an operation may issue
type Callback struct {
	parent   *Operation
	name     string
	data     raw.Value
	resolver Resolver
}

// NewCallback validates data as the callback name of parent
func NewCallback(parent *Operation, name string, data raw.Value, r Resolver) (*Callback, error) {
	c := &Callback{parent: parent, name: name, data: data, resolver: r}

	data, err := deref(c, data, r)
	if err != nil {
		return nil, err
	}
	c.data = data

	if c.name == "" {
		return nil, nserror.NotAStringOrEmpty(c, "name")
	}
	if _, err := asObject(c, c.data); err != nil {
		return nil, err
	}
	return c, nil
}

// Name returns the callback name
func (c *Callback) Name() string { return c.name }

// URLs builds one CallbackURL per url expression
func (c *Callback) URLs() ([]*CallbackURL, error) {
	m, ok := c.data.AsMap()
	if !ok {
		return nil, nil
	}
	keys := m.Keys()
	urls := make([]*CallbackURL, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		u, err := NewCallbackURL(c, key, v, c.resolver)
		if err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// Parent returns the owning operation
func (c *Callback) Parent() *Operation { return c.parent }

// Raw returns the (dereferenced) raw data behind the node
func (c *Callback) Raw() raw.Value { return c.data }

func (c *Callback) Namespace() nserror.Namespace {
	return c.parent.Namespace().Append("callback: " + c.name)
}

// CallbackURL is a runtime expression of a callback and its operations
type CallbackURL struct {
	parent   *Callback
	url      string
	data     raw.Value
	resolver Resolver
}

// NewCallbackURL validates data as the entry for expression url of parent
func NewCallbackURL(parent *Callback, url string, data raw.Value, r Resolver) (*CallbackURL, error) {
	u := &CallbackURL{parent: parent, url: url, data: data, resolver: r}

	data, err := deref(u, data, r)
	if err != nil {
		return nil, err
	}
	u.data = data

	if u.url == "" {
		return nil, nserror.NotAStringOrEmpty(u, "url")
	}
	if _, err := asObject(u, u.data); err != nil {
		return nil, err
	}
	return u, nil
}

// URL returns the url expression, e.g. "{$request.body#/callbackUrl}"
func (u *CallbackURL) URL() string { return u.url }

// Methods builds one Operation per recognized method key
func (u *CallbackURL) Methods() ([]*Operation, error) {
	return buildOperations(u, u.data, u.resolver)
}

// Parent returns the owning callback
func (u *CallbackURL) Parent() *Callback { return u.parent }

// Raw returns the (dereferenced) raw data behind the node
func (u *CallbackURL) Raw() raw.Value { return u.data }

func (u *CallbackURL) Namespace() nserror.Namespace {
	return u.parent.Namespace().Append("url: " + u.url)
}

func (u *CallbackURL) operationParent() {}
