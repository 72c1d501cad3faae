package model

import (
	"fmt"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// OperationParent is a node that owns operations: a Path or a CallbackURL
type OperationParent interface {
	nserror.Namespaced
	operationParent()
}

// Operation is the method-keyed entry of a path or callback url
type Operation struct {
	parent   OperationParent
	method   Method
	data     raw.Value
	resolver Resolver
}

// NewOperation validates data as the method entry of parent
func NewOperation(parent OperationParent, method Method, data raw.Value, r Resolver) (*Operation, error) {
	o := &Operation{parent: parent, method: method, data: data, resolver: r}

	data, err := deref(o, data, r)
	if err != nil {
		return nil, err
	}
	o.data = data

	if err := o.validate(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Operation) validate() error {
	if err := requireEnum(o, "method", string(o.method), methodNames(), "ApiMethod"); err != nil {
		return err
	}

	m, err := asObject(o, o.data)
	if err != nil {
		return err
	}
	if _, err := requireString(o, m, "operationId"); err != nil {
		return err
	}
	if err := nullableString(o, m, "summary"); err != nil {
		return err
	}
	if err := nullableString(o, m, "description"); err != nil {
		return err
	}
	if err := requireRecord(o, m, "responses"); err != nil {
		return err
	}
	if err := optionalObjectArray(o, m, "parameters"); err != nil {
		return err
	}
	if body := requestBodyContent(o.data); !body.IsNull() {
		if err := recordOfObjects(o, body, "requestBody"); err != nil {
			return err
		}
	}
	return optionalRecord(o, m, "callbacks")
}

// requestBodyContent returns the mimetype map of the request body, which
// may be written flat or wrapped in a content entry
func requestBodyContent(data raw.Value) raw.Value {
	body := data.Get("requestBody")
	if content := body.Get("content"); content.Kind() == raw.KindMap {
		return content
	}
	return body
}

// Method returns the method the operation is bound to
func (o *Operation) Method() Method { return o.method }

// OperationID returns the operationId
func (o *Operation) OperationID() string { return stringOf(o.data, "operationId") }

// Summary returns the summary, or ""
func (o *Operation) Summary() string { return stringOf(o.data, "summary") }

// Description returns the description, or ""
func (o *Operation) Description() string { return stringOf(o.data, "description") }

// Parameters builds the operation-level parameters in document order
func (o *Operation) Parameters() ([]*Parameter, error) {
	return buildParameters(o, o.data, o.resolver)
}

// RequestBody builds one Content per request body mimetype
func (o *Operation) RequestBody() ([]*Content, error) {
	body, ok := requestBodyContent(o.data).AsMap()
	if !ok {
		return nil, nil
	}
	return buildContents(o, body, o.resolver)
}

// Responses builds one Response per status code
func (o *Operation) Responses() ([]*Response, error) {
	keys, m := entries(o.data, "responses")
	responses := make([]*Response, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		response, err := NewResponse(o, key, v, o.resolver)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, nil
}

// Callbacks builds one Callback per named callback
func (o *Operation) Callbacks() ([]*Callback, error) {
	keys, m := entries(o.data, "callbacks")
	callbacks := make([]*Callback, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		callback, err := NewCallback(o, key, v, o.resolver)
		if err != nil {
			return nil, err
		}
		callbacks = append(callbacks, callback)
	}
	return callbacks, nil
}

// Parent returns the owning Path or CallbackURL
func (o *Operation) Parent() OperationParent { return o.parent }

// Raw returns the (dereferenced) raw data behind the node
func (o *Operation) Raw() raw.Value { return o.data }

func (o *Operation) Namespace() nserror.Namespace {
	id := crumb(o.data.Get("operationId"))
	return o.parent.Namespace().Append(fmt.Sprintf("method: %s (%s)", id, o.method))
}

func (o *Operation) parameterParent() {}
func (o *Operation) contentParent()   {}
