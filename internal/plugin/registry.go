package plugin

import (
	"context"

	"github.com/sliink/extloader/internal/model"
)

// Importer imports apps that name a module from the factory and every
// other app from its manifest
type Importer struct {
	factory   *PluginFactory
	manifests *ManifestImporter
}

// NewImporter creates an importer over a factory and a manifest importer.
// Either may be nil, in which case apps needing it fail to import.
func NewImporter(factory *PluginFactory, manifests *ManifestImporter) *Importer {
	return &Importer{factory: factory, manifests: manifests}
}

// Import fetches the registration code of an app plugin
func (i *Importer) Import(ctx context.Context, config model.AppConfig) (model.AppPlugin, error) {
	if config.Module != "" {
		if i.factory == nil {
			return nil, ErrUnknownModule
		}
		return i.factory.Import(ctx, config)
	}

	if i.manifests == nil {
		return nil, ErrManifestNotFound
	}
	return i.manifests.Import(ctx, config)
}
