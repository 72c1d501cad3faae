package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"specgraph/pkg/nserror"
)

// HandlerFunc represents a route handler function
type HandlerFunc func(ctx *fasthttp.RequestCtx) error

// errBadRequest marks errors caused by a malformed request
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type route struct {
	pattern  string
	segments []string
	handler  HandlerFunc
}

// Router dispatches requests to handlers by method and path pattern.
// Pattern segments written as {name} match any single path segment and
// are exposed to handlers through ctx.UserValue(name).
type Router struct {
	routes map[string][]route
	logger *zap.Logger
}

// NewRouter creates an empty router
func NewRouter(logger *zap.Logger) (*Router, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	return &Router{
		routes: make(map[string][]route),
		logger: logger,
	}, nil
}

// Handle registers handler for method and pattern. Routes are matched in
// registration order.
func (r *Router) Handle(method, pattern string, handler HandlerFunc) {
	r.routes[method] = append(r.routes[method], route{
		pattern:  pattern,
		segments: splitPath(pattern),
		handler:  handler,
	})

	r.logger.Debug("Route registered",
		zap.String("method", method),
		zap.String("pattern", pattern),
	)
}

// Handler is the main FastHTTP handler
func (r *Router) Handler(ctx *fasthttp.RequestCtx) {
	method := string(ctx.Method())
	path := string(ctx.Path())

	rt, params, found := r.findRoute(method, path)
	if !found {
		if r.pathExists(path) {
			r.handleMethodNotAllowed(ctx)
			return
		}
		r.handleNotFound(ctx)
		return
	}

	ctx.SetUserValue(keyRoute, rt.pattern)
	for name, value := range params {
		ctx.SetUserValue(name, value)
	}

	if err := rt.handler(ctx); err != nil {
		r.handleError(ctx, err)
		return
	}

	r.logger.Debug("Request handled",
		zap.String("method", method),
		zap.String("route", rt.pattern),
		zap.Int("status", ctx.Response.StatusCode()),
	)
}

// Routes returns the number of registered routes
func (r *Router) Routes() int {
	total := 0
	for _, routes := range r.routes {
		total += len(routes)
	}
	return total
}

func (r *Router) findRoute(method, path string) (route, map[string]string, bool) {
	segments := splitPath(path)
	for _, rt := range r.routes[method] {
		if params, ok := matchSegments(rt.segments, segments); ok {
			return rt, params, true
		}
	}
	return route{}, nil, false
}

func (r *Router) pathExists(path string) bool {
	segments := splitPath(path)
	for _, routes := range r.routes {
		for _, rt := range routes {
			if _, ok := matchSegments(rt.segments, segments); ok {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, path []string) (map[string]string, bool) {
	if len(pattern) != len(path) {
		return nil, false
	}

	var params map[string]string
	for i, part := range pattern {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			if path[i] == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[strings.Trim(part, "{}")] = path[i]
			continue
		}
		if part != path[i] {
			return nil, false
		}
	}
	return params, true
}

func (r *Router) handleNotFound(ctx *fasthttp.RequestCtx) {
	writeJSONError(ctx, fasthttp.StatusNotFound, "Not Found", map[string]any{
		"message": fmt.Sprintf("Endpoint %s %s not found", ctx.Method(), ctx.Path()),
	})
}

func (r *Router) handleMethodNotAllowed(ctx *fasthttp.RequestCtx) {
	writeJSONError(ctx, fasthttp.StatusMethodNotAllowed, "Method Not Allowed", map[string]any{
		"message": fmt.Sprintf("Method %s is not allowed on %s", ctx.Method(), ctx.Path()),
	})
}

// handleError maps a handler error onto a status code and JSON body
func (r *Router) handleError(ctx *fasthttp.RequestCtx, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String("method", string(ctx.Method())),
		zap.String("path", string(ctx.Path())),
	}

	var (
		nsErr      *nserror.Error
		resolveErr *nserror.ResolveError
	)
	switch {
	case errors.Is(err, nserror.ErrNotFound):
		writeJSONError(ctx, fasthttp.StatusNotFound, err.Error(), nil)
		r.logger.Debug("Spec not found", fields...)

	case errors.As(err, &nsErr):
		writeJSONError(ctx, fasthttp.StatusUnprocessableEntity, nsErr.Message, map[string]any{
			"namespace": nsErr.Namespace.String(),
			"code":      nsErr.Code,
		})
		r.logger.Info("Spec failed validation", append(fields, zap.Stringer("namespace", nsErr.Namespace))...)

	case errors.As(err, &resolveErr):
		writeJSONError(ctx, fasthttp.StatusUnprocessableEntity, resolveErr.Error(), map[string]any{
			"namespace": resolveErr.Namespace.String(),
		})
		r.logger.Info("Reference could not be resolved", append(fields, zap.Stringer("namespace", resolveErr.Namespace))...)

	case errors.Is(err, errBadRequest):
		writeJSONError(ctx, fasthttp.StatusBadRequest, err.Error(), nil)
		r.logger.Debug("Bad request", fields...)

	default:
		writeJSONError(ctx, fasthttp.StatusInternalServerError, "Internal Server Error", map[string]any{
			"message": err.Error(),
		})
		r.logger.Error("Handler error", fields...)
	}
}
