package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sliink/extloader/internal/model"
)

// ErrManifestNotFound is returned when an app directory holds no manifest
var ErrManifestNotFound = errors.New("plugin manifest not found")

// ManifestFiles are the manifest names looked up in an app directory, in order.
// yaml.v3 reads JSON manifests as well.
var ManifestFiles = []string{"plugin.json", "plugin.yaml", "plugin.yml"}

// Manifest is the on-disk description of an app plugin
type Manifest struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Version    string             `yaml:"version"`
	Extensions ManifestExtensions `yaml:"extensions"`
}

// ManifestExtensions lists the extensions a manifest contributes.
// Functions need code and cannot be declared in a manifest.
type ManifestExtensions struct {
	AddedLinks        []model.AddedLinkConfig        `yaml:"added_links"`
	AddedComponents   []model.AddedComponentConfig   `yaml:"added_components"`
	ExposedComponents []model.ExposedComponentConfig `yaml:"exposed_components"`
}

// ManifestPlugin is an app plugin described entirely by its manifest
type ManifestPlugin struct {
	BasePlugin
	manifest Manifest
}

// Init registers every extension listed in the manifest
func (p *ManifestPlugin) Init(ctx context.Context, config model.AppConfig) error {
	if err := p.BasePlugin.Init(ctx, config); err != nil {
		return err
	}

	for _, link := range p.manifest.Extensions.AddedLinks {
		p.AddLink(link)
	}
	for _, component := range p.manifest.Extensions.AddedComponents {
		p.AddComponent(component)
	}
	for _, component := range p.manifest.Extensions.ExposedComponents {
		p.ExposeComponent(component)
	}
	return nil
}

// Manifest returns the parsed manifest
func (p *ManifestPlugin) Manifest() Manifest {
	return p.manifest
}

// ManifestImporter imports app plugins from manifests on disk
type ManifestImporter struct {
	root string
}

// NewManifestImporter creates a manifest importer. Relative app paths are
// resolved against root.
func NewManifestImporter(root string) *ManifestImporter {
	return &ManifestImporter{root: root}
}

// Import reads the manifest in the app's directory
func (m *ManifestImporter) Import(ctx context.Context, config model.AppConfig) (model.AppPlugin, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config.Path == "" {
		return nil, fmt.Errorf("%w: app %s has no path", ErrManifestNotFound, config.ID)
	}

	dir := config.Path
	if !filepath.IsAbs(dir) && m.root != "" {
		dir = filepath.Join(m.root, dir)
	}

	manifest, file, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	if manifest.ID != "" && manifest.ID != config.ID {
		return nil, fmt.Errorf("manifest %s declares id %q, expected %q", file, manifest.ID, config.ID)
	}

	name := manifest.Name
	if name == "" {
		name = config.Name
	}
	return &ManifestPlugin{
		BasePlugin: NewBasePlugin(config.ID, name),
		manifest:   manifest,
	}, nil
}

func readManifest(dir string) (Manifest, string, error) {
	for _, name := range ManifestFiles {
		file := filepath.Join(dir, name)
		data, err := os.ReadFile(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Manifest{}, file, fmt.Errorf("reading manifest %s: %w", file, err)
		}

		var manifest Manifest
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return Manifest{}, file, fmt.Errorf("parsing manifest %s: %w", file, err)
		}
		return manifest, file, nil
	}
	return Manifest{}, "", fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
}
