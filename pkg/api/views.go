package api

import (
	"encoding/json"

	"specgraph/pkg/model"
	"specgraph/pkg/raw"
)

// Views are the JSON shapes served for the node model. Building a view
// materializes every node below it, so a view either renders a fully valid
// subtree or fails with the first validation or resolution error.

type specSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OpenAPI     string `json:"openapi"`
	Description string `json:"description,omitempty"`
}

type specView struct {
	specSummary
	Title   string       `json:"title"`
	Version string       `json:"version,omitempty"`
	Servers []serverView `json:"servers"`
	Paths   []pathView   `json:"paths"`
}

type serverView struct {
	URL         string         `json:"url"`
	Description string         `json:"description,omitempty"`
	Variables   []variableView `json:"variables,omitempty"`
}

type variableView struct {
	Name        string   `json:"name"`
	Default     string   `json:"default"`
	Enum        []string `json:"enum,omitempty"`
	Description string   `json:"description,omitempty"`
}

type pathView struct {
	Path        string          `json:"path"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  []parameterView `json:"parameters,omitempty"`
	Operations  []operationView `json:"operations"`
}

type operationView struct {
	Method      string          `json:"method"`
	OperationID string          `json:"operationId"`
	Summary     string          `json:"summary,omitempty"`
	Description string          `json:"description,omitempty"`
	Parameters  []parameterView `json:"parameters,omitempty"`
	RequestBody []contentView   `json:"requestBody,omitempty"`
	Responses   []responseView  `json:"responses"`
	Callbacks   []callbackView  `json:"callbacks,omitempty"`
}

type parameterView struct {
	Name     string          `json:"name"`
	In       string          `json:"in"`
	Required bool            `json:"required"`
	Schema   raw.Value       `json:"schema"`
	Example  json.RawMessage `json:"example,omitempty"`
}

type responseView struct {
	Code        int           `json:"code"`
	Summary     string        `json:"summary,omitempty"`
	Description string        `json:"description,omitempty"`
	Contents    []contentView `json:"contents,omitempty"`
	Headers     []headerView  `json:"headers,omitempty"`
}

type contentView struct {
	Mimetype    string          `json:"mimetype"`
	Description string          `json:"description,omitempty"`
	Schema      raw.Value       `json:"schema"`
	Example     json.RawMessage `json:"example,omitempty"`
}

type headerView struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      raw.Value       `json:"schema"`
	Example     json.RawMessage `json:"example,omitempty"`
}

type callbackView struct {
	Name string            `json:"name"`
	URLs []callbackURLView `json:"urls"`
}

type callbackURLView struct {
	URL        string          `json:"url"`
	Operations []operationView `json:"operations"`
}

func example(s string) json.RawMessage {
	if s == "" {
		return nil
	}
	return json.RawMessage(s)
}

func summarize(spec *model.Specification) specSummary {
	return specSummary{
		ID:          spec.ID(),
		Name:        spec.Name(),
		OpenAPI:     spec.OpenAPI(),
		Description: spec.Description(),
	}
}

func newSpecView(spec *model.Specification) (*specView, error) {
	servers, err := spec.Servers()
	if err != nil {
		return nil, err
	}
	view := &specView{
		specSummary: summarize(spec),
		Title:       spec.Title(),
		Version:     spec.Version(),
		Servers:     make([]serverView, 0, len(servers)),
	}

	for _, s := range servers {
		vars, err := s.Variables()
		if err != nil {
			return nil, err
		}
		sv := serverView{URL: s.URL(), Description: s.Description()}
		for _, v := range vars {
			sv.Variables = append(sv.Variables, variableView{
				Name:        v.Name(),
				Default:     v.Default(),
				Enum:        v.Enum(),
				Description: v.Description(),
			})
		}
		view.Servers = append(view.Servers, sv)
	}

	if view.Paths, err = newPathViews(spec); err != nil {
		return nil, err
	}
	return view, nil
}

func newPathViews(spec *model.Specification) ([]pathView, error) {
	paths, err := spec.Paths()
	if err != nil {
		return nil, err
	}
	views := make([]pathView, 0, len(paths))
	for _, p := range paths {
		pv := pathView{Path: p.Path(), Summary: p.Summary(), Description: p.Description()}
		if pv.Parameters, err = newParameterViews(p.Parameters()); err != nil {
			return nil, err
		}
		if pv.Operations, err = newOperationViews(p.Methods()); err != nil {
			return nil, err
		}
		views = append(views, pv)
	}
	return views, nil
}

func newOperationViews(ops []*model.Operation, err error) ([]operationView, error) {
	if err != nil {
		return nil, err
	}
	views := make([]operationView, 0, len(ops))
	for _, op := range ops {
		ov := operationView{
			Method:      string(op.Method()),
			OperationID: op.OperationID(),
			Summary:     op.Summary(),
			Description: op.Description(),
		}
		if ov.Parameters, err = newParameterViews(op.Parameters()); err != nil {
			return nil, err
		}
		if ov.RequestBody, err = newContentViews(op.RequestBody()); err != nil {
			return nil, err
		}
		if ov.Responses, err = newResponseViews(op); err != nil {
			return nil, err
		}
		if ov.Callbacks, err = newCallbackViews(op); err != nil {
			return nil, err
		}
		views = append(views, ov)
	}
	return views, nil
}

func newParameterViews(params []*model.Parameter, err error) ([]parameterView, error) {
	if err != nil {
		return nil, err
	}
	var views []parameterView
	for _, p := range params {
		schema, err := p.RawSchema()
		if err != nil {
			return nil, err
		}
		views = append(views, parameterView{
			Name:     p.Name(),
			In:       string(p.In()),
			Required: p.Required(),
			Schema:   schema,
			Example:  example(p.Example()),
		})
	}
	return views, nil
}

func newContentViews(contents []*model.Content, err error) ([]contentView, error) {
	if err != nil {
		return nil, err
	}
	var views []contentView
	for _, c := range contents {
		schema, err := c.RawSchema()
		if err != nil {
			return nil, err
		}
		views = append(views, contentView{
			Mimetype:    c.Mimetype(),
			Description: c.Description(),
			Schema:      schema,
			Example:     example(c.Example()),
		})
	}
	return views, nil
}

func newResponseViews(op *model.Operation) ([]responseView, error) {
	responses, err := op.Responses()
	if err != nil {
		return nil, err
	}
	views := make([]responseView, 0, len(responses))
	for _, res := range responses {
		rv := responseView{Code: res.Code(), Summary: res.Summary(), Description: res.Description()}
		if rv.Contents, err = newContentViews(res.Contents()); err != nil {
			return nil, err
		}

		headers, err := res.Headers()
		if err != nil {
			return nil, err
		}
		for _, h := range headers {
			schema, err := h.RawSchema()
			if err != nil {
				return nil, err
			}
			rv.Headers = append(rv.Headers, headerView{
				Name:        h.Name(),
				Description: h.Description(),
				Schema:      schema,
				Example:     example(h.Example()),
			})
		}
		views = append(views, rv)
	}
	return views, nil
}

func newCallbackViews(op *model.Operation) ([]callbackView, error) {
	callbacks, err := op.Callbacks()
	if err != nil {
		return nil, err
	}
	var views []callbackView
	for _, cb := range callbacks {
		urls, err := cb.URLs()
		if err != nil {
			return nil, err
		}
		cv := callbackView{Name: cb.Name(), URLs: make([]callbackURLView, 0, len(urls))}
		for _, u := range urls {
			ops, err := newOperationViews(u.Methods())
			if err != nil {
				return nil, err
			}
			cv.URLs = append(cv.URLs, callbackURLView{URL: u.URL(), Operations: ops})
		}
		views = append(views, cv)
	}
	return views, nil
}
