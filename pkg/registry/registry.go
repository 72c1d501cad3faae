// Package registry is the query surface over loaded documents. Every call
// builds fresh nodes from the current raw trees.
package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"specgraph/pkg/model"
	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
	"specgraph/pkg/resolver"
)

// Documents is the raw document store the registry reads from
type Documents interface {
	resolver.DocumentSource
	IDs() []string
	Checksums() map[string]string
	Load(ctx context.Context, dir string) error
}

// Report is the outcome of validating one document
type Report struct {
	ID  string
	Err error
}

// Registry materializes specifications on demand
type Registry struct {
	docs           Documents
	resolver       *resolver.Resolver
	dir            string
	validateOnLoad bool
	logger         *zap.Logger
}

// Options configures a registry
type Options struct {
	// Dir is the spec directory passed to the store on Reload
	Dir string

	// ValidateOnLoad walks every document after each Reload and fails the
	// reload on the first invalid one
	ValidateOnLoad bool
}

// New creates a registry over docs
func New(docs Documents, opts Options, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		docs:           docs,
		resolver:       resolver.New(docs),
		dir:            opts.Dir,
		validateOnLoad: opts.ValidateOnLoad,
		logger:         logger.With(zap.String("component", "registry")),
	}
}

// Reload replaces the loaded documents with the current directory contents
func (r *Registry) Reload(ctx context.Context) error {
	start := time.Now()
	if err := r.docs.Load(ctx, r.dir); err != nil {
		return err
	}

	if r.validateOnLoad {
		for _, report := range r.ValidateAll() {
			if report.Err != nil {
				return fmt.Errorf("document %s is invalid: %w", report.ID, report.Err)
			}
		}
	}

	r.logger.Info("Registry reloaded",
		zap.Int("documents", len(r.docs.IDs())),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// GetSpecByID builds the specification of document id
func (r *Registry) GetSpecByID(id string) (*model.Specification, error) {
	data, ok := r.docs.Get(id)
	if !ok {
		return nil, &nserror.NotFoundError{ID: id}
	}
	return model.NewSpecification(id, data, r.resolver)
}

// GetAllSpecs builds every loaded specification, ordered by id. The first
// invalid document fails the call.
func (r *Registry) GetAllSpecs() ([]*model.Specification, error) {
	ids := r.docs.IDs()
	specs := make([]*model.Specification, 0, len(ids))
	for _, id := range ids {
		spec, err := r.GetSpecByID(id)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ResolveRef follows ref relative to the document named by the first
// crumb of ns
func (r *Registry) ResolveRef(ns nserror.Namespace, ref string) (raw.Value, error) {
	return r.resolver.ResolveString(ns, ref)
}

// ValidateAll builds and fully walks every loaded document
func (r *Registry) ValidateAll() []Report {
	ids := r.docs.IDs()
	reports := make([]Report, 0, len(ids))
	for _, id := range ids {
		reports = append(reports, Report{ID: id, Err: r.Validate(id)})
	}
	return reports
}

// Validate builds and fully walks document id
func (r *Registry) Validate(id string) error {
	spec, err := r.GetSpecByID(id)
	if err != nil {
		return err
	}
	return model.ValidateTree(spec)
}

// Dir returns the spec directory
func (r *Registry) Dir() string { return r.dir }

// IDs returns the loaded document ids
func (r *Registry) IDs() []string { return r.docs.IDs() }

// Checksums maps every loaded document id to its content checksum
func (r *Registry) Checksums() map[string]string { return r.docs.Checksums() }
