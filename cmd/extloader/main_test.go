package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/extloader/internal/model"
	"github.com/sliink/extloader/internal/plugin/apps"
)

const testConfigYAML = `
loader:
  concurrency: 2
  timeout: 5s
apps:
  - id: incident-app
    module: incident
  - id: acme-app
    path: acme
`

const acmeManifest = `
id: acme-app
name: Acme
extensions:
  added_links:
    - title: Open in Acme
      path: /a/acme-app/home
      targets:
        - grafana/dashboard/panel/menu
`

func writeTestSetup(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "acme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme", "plugin.yaml"), []byte(acmeManifest), 0o644))

	file := filepath.Join(dir, "extloader.yaml")
	require.NoError(t, os.WriteFile(file, []byte(testConfigYAML), 0o644))
	return file
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadCommand(t *testing.T) {
	file := writeTestSetup(t)

	t.Run("JSON output", func(t *testing.T) {
		out, err := execute(t, "load", "--config", file, "--json", "incident-app", "acme-app")
		require.NoError(t, err)

		var snapshot model.RegistriesSnapshot
		require.NoError(t, json.Unmarshal([]byte(out), &snapshot), out)

		links := snapshot.AddedLinks[apps.PanelMenu]
		require.Len(t, links, 2)
		owners := []string{links[0].PluginID, links[1].PluginID}
		assert.ElementsMatch(t, []string{"incident-app", "acme-app"}, owners)
		assert.Contains(t, snapshot.ExposedComponents, "incident-app/declare-incident/v1")
	})

	t.Run("Text output", func(t *testing.T) {
		out, err := execute(t, "load", "--config", file, "acme-app")
		require.NoError(t, err)
		assert.Contains(t, out, "Added links (1)")
		assert.Contains(t, out, "Open in Acme")
		assert.NotContains(t, out, "Declare incident")
	})

	t.Run("Unknown apps are ignored", func(t *testing.T) {
		out, err := execute(t, "load", "--config", file, "nope")
		require.NoError(t, err)
		assert.Contains(t, out, "Added links (0)")
	})

	t.Run("Requires an app", func(t *testing.T) {
		_, err := execute(t, "load", "--config", file)
		assert.Error(t, err)
	})

	t.Run("Missing configuration file", func(t *testing.T) {
		_, err := execute(t, "load", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "acme-app")
		assert.ErrorContains(t, err, "failed to load configuration")
	})
}

func TestLoadCommandStartsCore(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "extloader.yaml")
	config := `
apps:
  - id: incident-app
    module: incident
    preload: true
  - id: logs-app
    module: logs
`
	require.NoError(t, os.WriteFile(file, []byte(config), 0o644))

	out, err := execute(t, "load", "--config", file, "--json", "logs-app")
	require.NoError(t, err)

	var snapshot model.RegistriesSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot), out)
	assert.Contains(t, snapshot.ExposedComponents, "incident-app/declare-incident/v1", "preload apps load on start")
	assert.Len(t, snapshot.AddedComponents[apps.ExploreToolbar], 1)
}

func TestNewCore(t *testing.T) {
	configFile = writeTestSetup(t)
	t.Cleanup(func() { configFile = "" })

	config, log, err := setup()
	require.NoError(t, err)

	c, err := newCore(config, log)
	require.NoError(t, err)
	defer c.Stop()

	_, exists := c.GetAppRegistry().GetApp("acme-app")
	assert.True(t, exists)
	assert.False(t, c.IsLoading())
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", serve.Name())

	load, _, err := cmd.Find([]string{"load"})
	require.NoError(t, err)
	assert.NotNil(t, load.Flags().Lookup("json"))
	assert.NotNil(t, load.InheritedFlags().Lookup("api-port"), "API flags are inherited")
}
