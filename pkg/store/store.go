// Package store keeps the raw documents of a spec directory in memory,
// keyed by document id.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"specgraph/pkg/nserror"
	"specgraph/pkg/raw"
)

// DefaultInclude matches YAML and JSON documents at the top of the directory
var DefaultInclude = []string{"*.yaml", "*.yml", "*.json"}

// Options selects which files of a directory are documents
type Options struct {
	// Include are doublestar patterns relative to the directory
	Include []string

	// Exclude patterns win over Include
	Exclude []string
}

// Document is a loaded file
type Document struct {
	ID       string
	Path     string
	Data     raw.Value
	Checksum string // sha256 of the file content
	LoadedAt time.Time
}

// Store is the raw document store. Its only mutation is a full Load.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	opts   Options
	logger *zap.Logger
}

// New creates an empty store
func New(opts Options, logger *zap.Logger) *Store {
	if len(opts.Include) == 0 {
		opts.Include = DefaultInclude
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		docs:   make(map[string]*Document),
		opts:   opts,
		logger: logger.With(zap.String("component", "store")),
	}
}

// DocumentID derives the id of the document stored at path: its base name
// without extension
func DocumentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Get returns the raw tree of document id
func (s *Store) Get(id string) (raw.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return raw.Value{}, false
	}
	return doc.Data, true
}

// Document returns the loaded document id with its metadata
func (s *Store) Document(id string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	return doc, ok
}

// IDs returns the loaded document ids, sorted
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Checksums maps every loaded document id to its content checksum
func (s *Store) Checksums() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sums := make(map[string]string, len(s.docs))
	for id, doc := range s.docs {
		sums[id] = doc.Checksum
	}
	return sums
}

// Len returns the number of loaded documents
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Load reads and parses every document in dir in parallel and replaces
// the store contents. The first failure cancels the remaining reads, drops
// the failing document from the store and is returned as a
// *nserror.LoadError.
func (s *Store) Load(ctx context.Context, dir string) error {
	start := time.Now()

	files, err := s.Discover(dir)
	if err != nil {
		return err
	}

	seen := make(map[string]string, len(files))
	for _, f := range files {
		id := DocumentID(f)
		if prev, ok := seen[id]; ok {
			return s.fail(dir, &nserror.LoadError{
				ID:    id,
				Path:  f,
				Cause: fmt.Errorf("document id %q is already used by %s", id, prev),
			})
		}
		seen[id] = f
	}

	docs := make([]*Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := readDocument(f)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return s.fail(dir, err)
	}

	next := make(map[string]*Document, len(docs))
	for _, doc := range docs {
		next[doc.ID] = doc
	}

	s.mu.Lock()
	s.docs = next
	s.mu.Unlock()

	s.logger.Info("Documents loaded",
		zap.String("dir", dir),
		zap.Int("count", len(next)),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

// fail drops the document named by a load error so no stale copy of it
// survives the failed load
func (s *Store) fail(dir string, err error) error {
	var loadErr *nserror.LoadError
	if errors.As(err, &loadErr) {
		s.mu.Lock()
		delete(s.docs, loadErr.ID)
		s.mu.Unlock()
	}
	s.logger.Error("Failed to load documents",
		zap.String("dir", dir),
		zap.Error(err),
	)
	return err
}

// Discover lists the files of dir matching the store's patterns, sorted
func (s *Store) Discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat spec directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("spec path %s is not a directory", dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if matchAny(s.opts.Include, rel) && !matchAny(s.opts.Exclude, rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan spec directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether path, relative to the spec directory, names a
// document
func (s *Store) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	return matchAny(s.opts.Include, rel) && !matchAny(s.opts.Exclude, rel)
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}

func readDocument(path string) (*Document, error) {
	id := DocumentID(path)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &nserror.LoadError{ID: id, Path: path, Cause: err}
	}
	data, err := raw.Parse(content)
	if err != nil {
		return nil, &nserror.LoadError{ID: id, Path: path, Cause: err}
	}

	sum := sha256.Sum256(content)
	return &Document{
		ID:       id,
		Path:     path,
		Data:     data,
		Checksum: hex.EncodeToString(sum[:]),
		LoadedAt: time.Now(),
	}, nil
}
