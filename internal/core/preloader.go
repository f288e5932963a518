package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sliink/extloader/internal/model"
)

// Preloader imports a batch of apps and registers their extensions
type Preloader interface {
	Preload(ctx context.Context, apps []model.AppConfig, registries *ExtensionRegistries) error
}

// EventPublisher publishes system events
type EventPublisher interface {
	Publish(event Event)
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}

// preloadTask is the memoised result of preloading one app.
// done is closed once result is set.
type preloadTask struct {
	done   chan struct{}
	result model.PluginPreloadResult
}

// PluginPreloader is the default Preloader. Every app is preloaded at most
// once per memo entry, however many batches ask for it.
type PluginPreloader struct {
	importer    model.Importer
	events      EventPublisher
	concurrency int
	ttl         time.Duration
	timeout     time.Duration
	cache       *ttlcache.Cache[string, *preloadTask]
	BaseComponent
}

// PreloaderOption configures a PluginPreloader
type PreloaderOption func(*PluginPreloader)

// WithConcurrency limits the number of apps preloaded at the same time.
// Values below one mean no limit.
func WithConcurrency(n int) PreloaderOption {
	return func(p *PluginPreloader) {
		p.concurrency = n
	}
}

// WithPreloadTTL lets memoised preloads expire. Zero keeps them forever.
func WithPreloadTTL(ttl time.Duration) PreloaderOption {
	return func(p *PluginPreloader) {
		p.ttl = ttl
	}
}

// WithImportTimeout bounds each import. Zero means no timeout.
func WithImportTimeout(timeout time.Duration) PreloaderOption {
	return func(p *PluginPreloader) {
		p.timeout = timeout
	}
}

// WithPreloadEvents publishes per-app results to the given publisher
func WithPreloadEvents(events EventPublisher) PreloaderOption {
	return func(p *PluginPreloader) {
		if events != nil {
			p.events = events
		}
	}
}

// NewPluginPreloader creates a preloader importing apps through importer
func NewPluginPreloader(importer model.Importer, opts ...PreloaderOption) *PluginPreloader {
	p := &PluginPreloader{
		importer:      importer,
		events:        nopPublisher{},
		BaseComponent: NewBaseComponent("preloader", "Plugin Preloader"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.cache = ttlcache.New[string, *preloadTask](
		ttlcache.WithTTL[string, *preloadTask](p.ttl),
	)
	return p
}

// Initialize prepares the preloader for operation
func (p *PluginPreloader) Initialize() bool {
	if p.importer == nil {
		p.log.Error(nil, "Preloader has no importer")
		p.SetStatus(model.StatusError)
		return false
	}
	p.SetStatus(model.StatusInitialized)
	return true
}

// Start begins preloader operation
func (p *PluginPreloader) Start() bool {
	p.SetStatus(model.StatusRunning)
	return true
}

// Stop halts preloader operation and forgets every memoised preload
func (p *PluginPreloader) Stop() bool {
	p.cache.DeleteAll()
	p.SetStatus(model.StatusStopped)
	return true
}

// Forget drops the memoised preload of an app so it is imported again next time
func (p *PluginPreloader) Forget(pluginID string) {
	p.cache.Delete(pluginID)
}

// Preloaded reports whether a preload of the app is memoised
func (p *PluginPreloader) Preloaded(pluginID string) bool {
	return p.cache.Has(pluginID)
}

// Preload imports every app and registers its extensions. A failing app does
// not stop the others; the returned error joins all per-app failures.
func (p *PluginPreloader) Preload(ctx context.Context, apps []model.AppConfig, registries *ExtensionRegistries) error {
	if len(apps) == 0 {
		return nil
	}

	errs := make([]error, len(apps))

	var g errgroup.Group
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}
	for i, app := range apps {
		i, app := i, app
		g.Go(func() error {
			errs[i] = p.preloadOnce(ctx, app, registries)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (p *PluginPreloader) preloadOnce(ctx context.Context, app model.AppConfig, registries *ExtensionRegistries) error {
	task := &preloadTask{done: make(chan struct{})}
	item, found := p.cache.GetOrSet(app.ID, task)
	if found {
		existing := item.Value()
		select {
		case <-existing.done:
			return existing.result.Err
		case <-ctx.Done():
			return fmt.Errorf("waiting for preload of %s: %w", app.ID, ctx.Err())
		}
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				task.result = model.PluginPreloadResult{
					PluginID: app.ID,
					Version:  app.Version,
					Err:      fmt.Errorf("preloading %s panicked: %v", app.ID, r),
				}
			}
			close(task.done)
		}()
		task.result = p.preload(ctx, app, registries)
	}()

	if task.result.Err != nil {
		p.log.Error(task.result.Err, "Failed to preload plugin", "pluginId", app.ID, "path", app.Path, "version", app.Version)
		p.events.Publish(NewEvent(model.EventPluginPreloadFailed, p.ID(), task.result))
	} else {
		p.log.V(1).Info("Preloaded plugin", "pluginId", app.ID, "registered", task.result.Registered)
		p.events.Publish(NewEvent(model.EventPluginPreloaded, p.ID(), task.result))
	}
	return task.result.Err
}

func (p *PluginPreloader) preload(ctx context.Context, app model.AppConfig, registries *ExtensionRegistries) model.PluginPreloadResult {
	result := model.PluginPreloadResult{PluginID: app.ID, Version: app.Version}

	plugin, err := p.importApp(ctx, app)
	if err != nil {
		result.Err = err
		return result
	}

	result.Registered, err = registries.Register(app, plugin.Extensions())
	if err != nil {
		result.Err = fmt.Errorf("registering extensions of %s: %w", app.ID, err)
	}
	return result
}

func (p *PluginPreloader) importApp(ctx context.Context, app model.AppConfig) (model.AppPlugin, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	plugin, err := p.importer.Import(ctx, app)
	if err != nil {
		return nil, fmt.Errorf("importing %s: %w", app.ID, err)
	}
	if plugin == nil {
		return nil, fmt.Errorf("importing %s: importer returned no plugin", app.ID)
	}
	if err := plugin.Init(ctx, app); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", app.ID, err)
	}
	return plugin, nil
}
