package model

import (
	"strconv"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// Response is the entry of a responses map for one status code
type Response struct {
	parent   *Operation
	key      string
	code     int
	data     raw.Value
	resolver Resolver
}

// NewResponse validates data as the response for status code key
func NewResponse(parent *Operation, key string, data raw.Value, r Resolver) (*Response, error) {
	res := &Response{parent: parent, key: key, data: data, resolver: r}

	data, err := deref(res, data, r)
	if err != nil {
		return nil, err
	}
	res.data = data

	code, ok := parseStatusCode(key)
	if !ok {
		return nil, nserror.New(res, "code must be a number or an integer serialized as string")
	}
	res.code = code

	if err := res.validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// parseStatusCode accepts unsigned decimal keys only, so the code always
// prints back as the key it came from
func parseStatusCode(key string) (int, bool) {
	if key == "" || len(key) > 3 {
		return 0, false
	}
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	code, err := strconv.Atoi(key)
	return code, err == nil
}

func (res *Response) validate() error {
	m, err := asObject(res, res.data)
	if err != nil {
		return err
	}
	if err := nullableString(res, m, "summary"); err != nil {
		return err
	}
	if err := nullableString(res, m, "description"); err != nil {
		return err
	}
	if err := optionalRecord(res, m, "content"); err != nil {
		return err
	}
	return optionalRecord(res, m, "headers")
}

// Code returns the numeric status code
func (res *Response) Code() int { return res.code }

// Summary returns the summary, or ""
func (res *Response) Summary() string { return stringOf(res.data, "summary") }

// Description returns the description, or ""
func (res *Response) Description() string { return stringOf(res.data, "description") }

// Contents builds one Content per mimetype
func (res *Response) Contents() ([]*Content, error) {
	_, m := entries(res.data, "content")
	if m == nil {
		return nil, nil
	}
	return buildContents(res, m, res.resolver)
}

// Headers builds one Header per header name
func (res *Response) Headers() ([]*Header, error) {
	keys, m := entries(res.data, "headers")
	headers := make([]*Header, 0, len(keys))
	for _, key := range keys {
		v, _ := m.Get(key)
		header, err := NewHeader(res, key, v, res.resolver)
		if err != nil {
			return nil, err
		}
		headers = append(headers, header)
	}
	return headers, nil
}

// Parent returns the owning operation
func (res *Response) Parent() *Operation { return res.parent }

// Raw returns the (dereferenced) raw data behind the node
func (res *Response) Raw() raw.Value { return res.data }

func (res *Response) Namespace() nserror.Namespace {
	return res.parent.Namespace().Append("response: " + res.key)
}

func (res *Response) contentParent() {}
