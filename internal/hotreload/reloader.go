package hotreload

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"specgraph/pkg/config"
	"specgraph/pkg/notifications"
)

// Reload types
const (
	ReloadConfig = "config"
	ReloadSpecs  = "specs"
)

// SpecReloader reloads the documents of the spec directory
type SpecReloader interface {
	Reload(ctx context.Context) error
	Checksums() map[string]string
}

// ServerRestarter applies a new configuration to a running server
type ServerRestarter interface {
	Restart(newConfig *config.Config) error
}

// Publisher receives change notifications
type Publisher interface {
	Publish(n notifications.Notification)
}

// Options wires the optional collaborators of a HotReloader
type Options struct {
	// ConfigPath is watched when hotreload.watch_config is set
	ConfigPath string

	// Server is restarted after a configuration change
	Server ServerRestarter

	// Publisher is told about created, updated and deleted documents
	Publisher Publisher

	// Matches reports whether a path relative to the spec directory is a
	// document. Every file is a document when nil.
	Matches func(rel string) bool
}

// ReloadResult represents the result of a reload operation
type ReloadResult struct {
	Success    bool
	Duration   time.Duration
	Error      error
	Timestamp  time.Time
	ReloadType string
	Changes    []notifications.Notification
}

// HotReloader reloads documents when the spec directory changes and
// restarts the server when the configuration file changes
type HotReloader struct {
	specs      SpecReloader
	opts       Options
	specDir    string
	configPath string
	watcher    *FileWatcher
	logger     *zap.Logger
	reloadChan chan FileEvent
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnce   sync.Once
	wg         sync.WaitGroup

	// mu serializes reloads
	mu            sync.Mutex
	reloading     atomic.Bool
	currentConfig *config.Config
	config        *config.HotReloadConfig

	totalReloads   atomic.Int64
	successReloads atomic.Int64
	failedReloads  atomic.Int64
	lastReloadTime atomic.Value // time.Time
}

// NewHotReloader creates a hot reloader for the spec directory of cfg
func NewHotReloader(cfg *config.Config, specs SpecReloader, opts Options, logger *zap.Logger) (*HotReloader, error) {
	if cfg == nil {
		return nil, fmt.Errorf("current config cannot be nil")
	}
	if specs == nil {
		return nil, fmt.Errorf("spec reloader cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	specDir, err := filepath.Abs(cfg.Specs.Dir)
	if err != nil {
		return nil, fmt.Errorf("invalid spec directory: %w", err)
	}
	configPath := ""
	if opts.ConfigPath != "" {
		if configPath, err = filepath.Abs(opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
	}

	debounceDelay := cfg.HotReload.DebounceDelay
	if debounceDelay <= 0 {
		debounceDelay = 500 * time.Millisecond
	}

	watcher, err := NewFileWatcher(logger.With(zap.String("component", "file_watcher")), debounceDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	hr := &HotReloader{
		specs:         specs,
		opts:          opts,
		specDir:       specDir,
		configPath:    configPath,
		watcher:       watcher,
		logger:        logger.With(zap.String("component", "hot_reloader")),
		reloadChan:    make(chan FileEvent, 10),
		ctx:           ctx,
		cancel:        cancel,
		currentConfig: cfg,
		config:        &cfg.HotReload,
	}
	hr.lastReloadTime.Store(time.Time{})
	return hr, nil
}

// Start starts watching. It is a no-op when hot reload is disabled.
func (hr *HotReloader) Start() error {
	if !hr.config.Enabled {
		hr.logger.Info("Hot reload is disabled")
		return nil
	}

	hr.logger.Info("Starting hot reload system",
		zap.String("config_path", hr.configPath),
		zap.String("spec_dir", hr.specDir),
		zap.Bool("watch_config", hr.config.WatchConfig),
		zap.Bool("watch_specs", hr.config.WatchSpecs),
		zap.Duration("debounce_delay", hr.config.DebounceDelay),
	)

	if hr.config.WatchConfig && hr.configPath != "" {
		// watch the directory so editors that replace the file are seen
		if err := hr.watcher.AddPath(filepath.Dir(hr.configPath)); err != nil {
			return fmt.Errorf("failed to watch config file: %w", err)
		}
	}
	if hr.config.WatchSpecs {
		if err := hr.watcher.AddTree(hr.specDir); err != nil {
			return fmt.Errorf("failed to watch spec directory: %w", err)
		}
	}

	hr.watcher.Start(hr.classify, hr.onFileEvent)

	hr.wg.Add(1)
	go hr.processReloads()

	hr.logger.Info("Hot reload system started successfully")
	return nil
}

// Stop stops watching and waits for an in-flight reload to finish
func (hr *HotReloader) Stop() error {
	var err error
	hr.stopOnce.Do(func() {
		hr.logger.Info("Stopping hot reload system...")
		hr.cancel()
		err = hr.watcher.Stop()
		hr.wg.Wait()
		hr.logger.Info("Hot reload system stopped")
	})
	return err
}

// classify maps a changed path onto the reload it requires
func (hr *HotReloader) classify(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	if hr.config.WatchConfig && hr.configPath != "" && abs == hr.configPath {
		return ReloadConfig, true
	}

	if !hr.config.WatchSpecs {
		return "", false
	}
	rel, err := filepath.Rel(hr.specDir, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	if hr.opts.Matches != nil && !hr.opts.Matches(rel) {
		return "", false
	}
	return ReloadSpecs, true
}

func (hr *HotReloader) onFileEvent(event FileEvent) {
	select {
	case hr.reloadChan <- event:
	case <-hr.ctx.Done():
	default:
		hr.logger.Warn("Reload channel full, dropping event",
			zap.String("path", event.Path),
			zap.String("operation", event.Operation),
		)
	}
}

func (hr *HotReloader) processReloads() {
	defer hr.wg.Done()
	for {
		select {
		case <-hr.ctx.Done():
			return
		case event := <-hr.reloadChan:
			hr.handleReloadEvent(event)
		}
	}
}

func (hr *HotReloader) handleReloadEvent(event FileEvent) {
	kind, ok := hr.classify(event.Path)
	if !ok {
		return
	}

	hr.logger.Info("Processing file change event",
		zap.String("path", event.Path),
		zap.String("operation", event.Operation),
		zap.String("type", kind),
	)

	var result ReloadResult
	switch kind {
	case ReloadConfig:
		result = hr.reloadConfig()
	default:
		result = hr.reloadSpecs()
	}
	hr.record(result)
}

// reloadSpecs reloads the documents and publishes one notification per
// document that appeared, changed or disappeared. Notifications are
// published even when the reload fails, since a failed load still drops the
// failing document.
func (hr *HotReloader) reloadSpecs() ReloadResult {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	hr.reloading.Store(true)
	defer hr.reloading.Store(false)

	start := time.Now()
	result := ReloadResult{ReloadType: ReloadSpecs, Timestamp: start}

	before := hr.specs.Checksums()
	err := hr.specs.Reload(hr.ctx)
	result.Changes = diff(before, hr.specs.Checksums())

	if hr.opts.Publisher != nil {
		for _, n := range result.Changes {
			hr.opts.Publisher.Publish(n)
		}
	}

	result.Duration = time.Since(start)
	if err != nil {
		result.Error = fmt.Errorf("failed to reload specs: %w", err)
		return result
	}
	result.Success = true
	return result
}

// reloadConfig loads and validates the configuration file and restarts the
// server with it. The spec directory of a running process never changes.
func (hr *HotReloader) reloadConfig() ReloadResult {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	hr.reloading.Store(true)
	defer hr.reloading.Store(false)

	start := time.Now()
	result := ReloadResult{ReloadType: ReloadConfig, Timestamp: start}

	newConfig, err := config.LoadConfig(hr.configPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to load new config: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	if newConfig.Specs.Dir != hr.currentConfig.Specs.Dir {
		hr.logger.Warn("Spec directory changes need a restart",
			zap.String("current", hr.currentConfig.Specs.Dir),
			zap.String("configured", newConfig.Specs.Dir),
		)
	}

	if hr.opts.Server != nil {
		if err := hr.opts.Server.Restart(newConfig); err != nil {
			result.Error = fmt.Errorf("failed to restart server with new config: %w", err)
			result.Duration = time.Since(start)
			return result
		}
	}

	hr.currentConfig = newConfig
	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// diff compares two id -> checksum snapshots
func diff(before, after map[string]string) []notifications.Notification {
	ids := make([]string, 0, len(before)+len(after))
	for id := range before {
		ids = append(ids, id)
	}
	for id := range after {
		if _, ok := before[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	var changes []notifications.Notification
	for _, id := range ids {
		old, had := before[id]
		cur, has := after[id]
		switch {
		case !had && has:
			changes = append(changes, notifications.ForDocument(notifications.EventCreated, id))
		case had && !has:
			changes = append(changes, notifications.ForDocument(notifications.EventDeleted, id))
		case old != cur:
			changes = append(changes, notifications.ForDocument(notifications.EventUpdated, id))
		}
	}
	return changes
}

func (hr *HotReloader) record(result ReloadResult) {
	fields := []zap.Field{
		zap.String("type", result.ReloadType),
		zap.Duration("duration", result.Duration),
		zap.Bool("success", result.Success),
		zap.Int("changes", len(result.Changes)),
	}
	if result.Error != nil {
		hr.logger.Error("Reload failed", append(fields, zap.Error(result.Error))...)
	} else {
		hr.logger.Info("Reload completed successfully", fields...)
	}

	hr.totalReloads.Add(1)
	if result.Success {
		hr.successReloads.Add(1)
	} else {
		hr.failedReloads.Add(1)
	}
	hr.lastReloadTime.Store(result.Timestamp)
}

// ReloadSpecs manually triggers a document reload
func (hr *HotReloader) ReloadSpecs() error {
	result := hr.reloadSpecs()
	hr.record(result)
	return result.Error
}

// ReloadConfig manually triggers a configuration reload
func (hr *HotReloader) ReloadConfig() error {
	if hr.configPath == "" {
		return fmt.Errorf("no configuration file to reload")
	}
	result := hr.reloadConfig()
	hr.record(result)
	return result.Error
}

// CurrentConfig returns the configuration applied last
func (hr *HotReloader) CurrentConfig() *config.Config {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	return hr.currentConfig
}

// GetMetrics returns hot reload metrics
func (hr *HotReloader) GetMetrics() map[string]any {
	return map[string]any{
		"enabled":         hr.config.Enabled,
		"total_reloads":   hr.totalReloads.Load(),
		"success_reloads": hr.successReloads.Load(),
		"failed_reloads":  hr.failedReloads.Load(),
		"last_reload":     hr.lastReloadTime.Load().(time.Time),
		"reloading":       hr.reloading.Load(),
	}
}

// IsReloading returns true if a reload is currently in progress
func (hr *HotReloader) IsReloading() bool {
	return hr.reloading.Load()
}
