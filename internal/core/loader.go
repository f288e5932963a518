package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/sliink/extloader/internal/model"
)

// Resolver maps plugin IDs to app configurations
type Resolver interface {
	Resolve(pluginIDs []string) ([]model.AppConfig, error)
}

// PluginLoader dispatches preload batches in the background and tracks
// whether any of them is still in flight.
//
// LoadAppPlugins never blocks and never reports errors. Overlapping batches
// are neither serialised nor cancelled; IsLoading stays true until the last
// of them settles.
type PluginLoader struct {
	resolver   Resolver
	preloader  Preloader
	registries *ExtensionRegistries
	events     EventPublisher
	baseCtx    context.Context

	mutex    sync.Mutex
	inflight int
	idle     chan struct{}
	loading  *atomic.Bool

	BaseComponent
}

// LoaderOption configures a PluginLoader
type LoaderOption func(*PluginLoader)

// WithLoaderEvents publishes batch events to the given publisher
func WithLoaderEvents(events EventPublisher) LoaderOption {
	return func(l *PluginLoader) {
		if events != nil {
			l.events = events
		}
	}
}

// WithBaseContext sets the context batches run under
func WithBaseContext(ctx context.Context) LoaderOption {
	return func(l *PluginLoader) {
		if ctx != nil {
			l.baseCtx = ctx
		}
	}
}

// NewPluginLoader creates an idle loader preloading into registries
func NewPluginLoader(resolver Resolver, preloader Preloader, registries *ExtensionRegistries, opts ...LoaderOption) *PluginLoader {
	l := &PluginLoader{
		resolver:      resolver,
		preloader:     preloader,
		registries:    registries,
		events:        nopPublisher{},
		baseCtx:       context.Background(),
		loading:       atomic.NewBool(false),
		BaseComponent: NewBaseComponent("plugin_loader", "Plugin Loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Initialize prepares the loader for operation
func (l *PluginLoader) Initialize() bool {
	if l.resolver == nil || l.preloader == nil || l.registries == nil {
		l.log.Error(nil, "Plugin loader is missing a collaborator")
		l.SetStatus(model.StatusError)
		return false
	}
	l.SetStatus(model.StatusInitialized)
	return true
}

// Start begins loader operation
func (l *PluginLoader) Start() bool {
	l.SetStatus(model.StatusRunning)
	return true
}

// Stop halts loader operation. Batches already in flight keep running.
func (l *PluginLoader) Stop() bool {
	l.SetStatus(model.StatusStopped)
	return true
}

// LoadAppPlugins preloads the given apps in the background. IDs that
// resolve to nothing leave the loader untouched.
func (l *PluginLoader) LoadAppPlugins(pluginIDs []string) {
	apps, err := l.resolver.Resolve(pluginIDs)
	if err != nil {
		l.log.Error(err, "Failed to resolve app plugins", "pluginIds", pluginIDs)
		return
	}
	if len(apps) == 0 {
		return
	}

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}
	batchID := uuid.NewString()

	l.begin()
	l.log.Info("Preloading app plugins", "batch", batchID, "pluginIds", ids)
	l.events.Publish(NewEvent(model.EventPreloadStarted, l.ID(), model.BatchStarted{BatchID: batchID, PluginIDs: ids}))

	go l.run(batchID, ids, apps)
}

// IsLoading reports whether any preload batch is in flight
func (l *PluginLoader) IsLoading() bool {
	return l.loading.Load()
}

// State returns the current loader state
func (l *PluginLoader) State() model.LoaderState {
	if l.IsLoading() {
		return model.LoaderLoading
	}
	return model.LoaderIdle
}

// InFlight returns the number of batches that have not settled yet
func (l *PluginLoader) InFlight() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.inflight
}

// Wait blocks until no batch is in flight or ctx is done
func (l *PluginLoader) Wait(ctx context.Context) error {
	l.mutex.Lock()
	if l.inflight == 0 {
		l.mutex.Unlock()
		return nil
	}
	idle := l.idle
	l.mutex.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *PluginLoader) begin() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.inflight == 0 {
		l.idle = make(chan struct{})
	}
	l.inflight++
	l.loading.Store(true)
}

func (l *PluginLoader) settle() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.inflight--
	if l.inflight == 0 {
		l.loading.Store(false)
		close(l.idle)
	}
}

func (l *PluginLoader) run(batchID string, ids []string, apps []model.AppConfig) {
	start := time.Now()
	err := l.preload(apps)
	l.settle()

	settled := model.BatchSettled{BatchID: batchID, PluginIDs: ids, Duration: time.Since(start), Err: err}
	if err != nil {
		// Failures are reported per plugin by the preloader
		l.log.V(1).Info("Preload batch settled with errors", "batch", batchID, "duration", settled.Duration, "error", err.Error())
	} else {
		l.log.Info("Preload batch settled", "batch", batchID, "duration", settled.Duration)
	}
	l.events.Publish(NewEvent(model.EventPreloadSettled, l.ID(), settled))
}

func (l *PluginLoader) preload(apps []model.AppConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("preload panicked: %v", r)
			l.log.Error(err, "Preload batch failed")
		}
	}()

	return l.preloader.Preload(l.baseCtx, apps, l.registries)
}
