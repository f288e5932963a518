package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/extloader/internal/model"
)

const yamlManifest = `
id: acme-logs-app
name: Logs
version: 1.4.0
extensions:
  added_links:
    - title: Open in Logs
      path: /a/acme-logs-app/explore
      targets: [grafana/dashboard/panel/menu]
  added_components:
    - title: Log volume
      component: LogVolumePanel
      targets: [grafana/explore/toolbar/action]
  exposed_components:
    - id: acme-logs-app/log-table/v1
      title: Log table
      component: LogTable
`

const jsonManifest = `{
  "id": "acme-json-app",
  "name": "JSON App",
  "extensions": {
    "added_links": [
      {"title": "Open", "path": "/a/acme-json-app/", "targets": ["grafana/dashboard/panel/menu"]}
    ]
  }
}`

func writeManifest(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	return dir
}

func TestManifestImporter(t *testing.T) {
	importer := NewManifestImporter("")

	t.Run("Imports YAML manifest", func(t *testing.T) {
		dir := writeManifest(t, "plugin.yaml", yamlManifest)
		config := model.AppConfig{ID: "acme-logs-app", Path: dir}

		app, err := importer.Import(context.Background(), config)
		require.NoError(t, err)
		assert.Equal(t, "Logs", app.Name())

		require.NoError(t, app.Init(context.Background(), config))
		ext := app.Extensions()
		require.Len(t, ext.AddedLinks, 1)
		assert.Equal(t, []string{panelMenu}, ext.AddedLinks[0].Targets)
		require.Len(t, ext.AddedComponents, 1)
		assert.Equal(t, "LogVolumePanel", ext.AddedComponents[0].Component)
		require.Len(t, ext.ExposedComponents, 1)
		assert.Equal(t, "acme-logs-app/log-table/v1", ext.ExposedComponents[0].ID)
		assert.Empty(t, ext.AddedFunctions)

		assert.Equal(t, "1.4.0", app.(*ManifestPlugin).Manifest().Version)
	})

	t.Run("Imports JSON manifest", func(t *testing.T) {
		dir := writeManifest(t, "plugin.json", jsonManifest)
		config := model.AppConfig{ID: "acme-json-app", Path: dir}

		app, err := importer.Import(context.Background(), config)
		require.NoError(t, err)
		require.NoError(t, app.Init(context.Background(), config))
		assert.Len(t, app.Extensions().AddedLinks, 1)
	})

	t.Run("Resolves relative paths against root", func(t *testing.T) {
		dir := writeManifest(t, "plugin.yaml", yamlManifest)
		rooted := NewManifestImporter(filepath.Dir(dir))

		_, err := rooted.Import(context.Background(), model.AppConfig{ID: "acme-logs-app", Path: filepath.Base(dir)})
		assert.NoError(t, err)
	})

	t.Run("Missing manifest", func(t *testing.T) {
		_, err := importer.Import(context.Background(), model.AppConfig{ID: "app-a", Path: t.TempDir()})
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("Missing path", func(t *testing.T) {
		_, err := importer.Import(context.Background(), model.AppConfig{ID: "app-a"})
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})

	t.Run("Mismatched id", func(t *testing.T) {
		dir := writeManifest(t, "plugin.yaml", yamlManifest)
		_, err := importer.Import(context.Background(), model.AppConfig{ID: "other-app", Path: dir})
		assert.ErrorContains(t, err, "declares id")
	})

	t.Run("Malformed manifest", func(t *testing.T) {
		dir := writeManifest(t, "plugin.yaml", "id: [unterminated")
		_, err := importer.Import(context.Background(), model.AppConfig{ID: "app-a", Path: dir})
		assert.ErrorContains(t, err, "parsing manifest")
	})
}

func TestImporter(t *testing.T) {
	factory := NewPluginFactory()
	factory.Register("alpha", newTestCreator("Alpha"))
	dir := writeManifest(t, "plugin.yaml", yamlManifest)

	importer := NewImporter(factory, NewManifestImporter(""))

	t.Run("Apps with a module come from the factory", func(t *testing.T) {
		app, err := importer.Import(context.Background(), model.AppConfig{ID: "app-a", Module: "alpha", Path: dir})
		require.NoError(t, err)
		assert.Equal(t, "Alpha", app.Name())
	})

	t.Run("Other apps come from their manifest", func(t *testing.T) {
		app, err := importer.Import(context.Background(), model.AppConfig{ID: "acme-logs-app", Path: dir})
		require.NoError(t, err)
		assert.IsType(t, &ManifestPlugin{}, app)
	})

	t.Run("Missing sources fail", func(t *testing.T) {
		empty := NewImporter(nil, nil)
		_, err := empty.Import(context.Background(), model.AppConfig{ID: "app-a", Module: "alpha"})
		assert.ErrorIs(t, err, ErrUnknownModule)
		_, err = empty.Import(context.Background(), model.AppConfig{ID: "app-a"})
		assert.ErrorIs(t, err, ErrManifestNotFound)
	})
}
