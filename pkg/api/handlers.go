package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"specgraph/pkg/model"
	"specgraph/pkg/notifications"
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// SpecSource is the query surface the handlers read from
type SpecSource interface {
	GetSpecByID(id string) (*model.Specification, error)
	GetAllSpecs() ([]*model.Specification, error)
	ResolveRef(ns nserror.Namespace, ref string) (raw.Value, error)
	IDs() []string
}

// NotificationSource exposes change notifications, both the retained ones
// and a live subscription
type NotificationSource interface {
	Recent() []notifications.Notification
	Metrics() notifications.Metrics
	Subscribe(buffer int) (<-chan notifications.Notification, func())
}

const streamBuffer = 32

// streamHeartbeat is the interval of keep-alive comments on idle streams.
// A failed heartbeat is how a dropped client is noticed.
var streamHeartbeat = 15 * time.Second

// ResolveRequest is the body of POST /resolve
type ResolveRequest struct {
	Namespace []string `json:"namespace"`
	Ref       string   `json:"ref"`
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(data)
	return nil
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

// ListSpecsHandler serves the summaries of every loaded spec
func ListSpecsHandler(specs SpecSource) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		all, err := specs.GetAllSpecs()
		if err != nil {
			return err
		}
		summaries := make([]specSummary, 0, len(all))
		for _, s := range all {
			summaries = append(summaries, summarize(s))
		}
		return writeJSON(ctx, fasthttp.StatusOK, summaries)
	}
}

// GetSpecHandler serves the fully materialized spec named by {id}
func GetSpecHandler(specs SpecSource) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		spec, err := specs.GetSpecByID(pathParam(ctx, "id"))
		if err != nil {
			return err
		}
		view, err := newSpecView(spec)
		if err != nil {
			return err
		}
		return writeJSON(ctx, fasthttp.StatusOK, view)
	}
}

// GetPathsHandler serves the materialized paths of the spec named by {id}
func GetPathsHandler(specs SpecSource) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		spec, err := specs.GetSpecByID(pathParam(ctx, "id"))
		if err != nil {
			return err
		}
		paths, err := newPathViews(spec)
		if err != nil {
			return err
		}
		return writeJSON(ctx, fasthttp.StatusOK, paths)
	}
}

// ResolveHandler follows a $ref relative to the document named by the
// first namespace crumb and serves the raw target
func ResolveHandler(specs SpecSource, logger *zap.Logger) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		var req ResolveRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			return badRequest("invalid JSON body: %v", err)
		}
		if len(req.Namespace) == 0 || req.Namespace[0] == "" {
			return badRequest("namespace must start with a document id")
		}
		if req.Ref == "" {
			return badRequest("ref is required")
		}

		ns := nserror.Namespace(req.Namespace)
		value, err := specs.ResolveRef(ns, req.Ref)
		if err != nil {
			return err
		}

		logger.Debug("Resolved reference",
			zap.Stringer("namespace", ns),
			zap.String("ref", req.Ref),
		)
		return writeJSON(ctx, fasthttp.StatusOK, value)
	}
}

// NotificationsHandler serves the retained change notifications
func NotificationsHandler(source NotificationSource) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		recent := []notifications.Notification{}
		if source != nil {
			recent = source.Recent()
		}
		return writeJSON(ctx, fasthttp.StatusOK, recent)
	}
}

// NotificationStreamHandler streams notifications as server-sent events.
// The subscription ends when the client goes away, the hub closes or done
// is closed. done is read per request since it changes across restarts.
func NotificationStreamHandler(source NotificationSource, done func() <-chan struct{}, logger *zap.Logger) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		stop := done()
		requestID := requestID(ctx)

		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetContentType("text/event-stream")
		ctx.Response.Header.Set("Cache-Control", "no-cache")
		ctx.Response.Header.Set("X-Accel-Buffering", "no")

		ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
			events, unsubscribe := source.Subscribe(streamBuffer)
			defer unsubscribe()

			logger.Debug("Notification stream opened", zap.String("request_id", requestID))
			defer logger.Debug("Notification stream closed", zap.String("request_id", requestID))

			if err := writeComment(w, "connected"); err != nil {
				return
			}

			heartbeat := time.NewTicker(streamHeartbeat)
			defer heartbeat.Stop()
			for {
				select {
				case <-stop:
					return
				case n, ok := <-events:
					if !ok {
						return
					}
					if err := writeEvent(w, n); err != nil {
						return
					}
				case <-heartbeat.C:
					if err := writeComment(w, "keep-alive"); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

func writeEvent(w *bufio.Writer, n notifications.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", n.ID, n.Event, data)
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	fmt.Fprintf(w, ": %s\n\n", text)
	return w.Flush()
}

// HealthCheckHandler provides a simple health check endpoint
func HealthCheckHandler(specs SpecSource, started time.Time) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		return writeJSON(ctx, fasthttp.StatusOK, map[string]any{
			"status":    "healthy",
			"service":   "specgraph",
			"specs":     len(specs.IDs()),
			"uptime":    time.Since(started).Round(time.Second).String(),
			"timestamp": ctx.Time().Unix(),
		})
	}
}

// MetricsHandler serves the request counters and notification hub counters
func MetricsHandler(collector *DefaultMetricsCollector, source NotificationSource) HandlerFunc {
	return func(ctx *fasthttp.RequestCtx) error {
		body := collector.GetMetrics()
		if source != nil {
			body["notifications"] = source.Metrics()
		}
		return writeJSON(ctx, fasthttp.StatusOK, body)
	}
}
