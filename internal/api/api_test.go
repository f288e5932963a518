package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/extloader/internal/core"
	"github.com/sliink/extloader/internal/model"
	"github.com/sliink/extloader/internal/plugin"
	"github.com/sliink/extloader/internal/plugin/apps"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() map[string]interface{} {
	return map[string]interface{}{
		"apps": []interface{}{
			map[string]interface{}{"id": "incident-app", "module": apps.IncidentModule, "version": "1.0.0"},
			map[string]interface{}{"id": "logs-app", "module": apps.LogsModule, "version": "2.1.0"},
			map[string]interface{}{"id": "broken-app", "module": "missing"},
		},
	}
}

func newTestAPI(t *testing.T) (*API, *core.Core) {
	t.Helper()

	config := core.NewConfigManager()
	require.NoError(t, config.SetConfig("", testConfig()))

	factory := plugin.NewPluginFactory()
	apps.RegisterStandardApps(factory)

	c := core.NewCore(
		core.WithConfigManager(config),
		core.WithImporter(plugin.NewImporter(factory, nil)),
		core.WithLogger(logr.Discard()),
	)
	require.True(t, c.Initialize())
	t.Cleanup(func() { c.Stop() })

	return NewAPI(c, 8080, "localhost"), c
}

func serve(a *API, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func loadAndWait(t *testing.T, a *API, c *core.Core, ids ...string) {
	t.Helper()

	rec := serve(a, http.MethodPost, "/apps/load", LoadRequest{PluginIDs: ids})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, c.Loader().Wait(ctx))
}

func TestHealthAndStatus(t *testing.T) {
	a, _ := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]interface{}](t, rec)["status"])

	rec = serve(a, http.MethodGet, "/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	status := decode[model.HealthStatus](t, rec)
	assert.Contains(t, status.Components, "plugin_loader")
}

func TestApps(t *testing.T) {
	a, _ := newTestAPI(t)

	t.Run("List", func(t *testing.T) {
		rec := serve(a, http.MethodGet, "/apps", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]model.AppConfig](t, rec), 3)
	})

	t.Run("Get", func(t *testing.T) {
		rec := serve(a, http.MethodGet, "/apps/logs-app", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		app := decode[model.AppConfig](t, rec)
		assert.Equal(t, "2.1.0", app.Version)
		assert.Equal(t, apps.LogsModule, app.Module)
	})

	t.Run("Unknown app", func(t *testing.T) {
		rec := serve(a, http.MethodGet, "/apps/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLoadApps(t *testing.T) {
	t.Run("Loading registers extensions", func(t *testing.T) {
		a, c := newTestAPI(t)
		loadAndWait(t, a, c, "incident-app", "logs-app", "unknown-app")

		rec := serve(a, http.MethodGet, "/extensions/links?extension_point_id="+apps.PanelMenu, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		links := decode[[]model.AddedLink](t, rec)
		require.Len(t, links, 2)
		owners := []string{links[0].PluginID, links[1].PluginID}
		assert.ElementsMatch(t, []string{"incident-app", "logs-app"}, owners)

		rec = serve(a, http.MethodGet, "/extensions/components?extension_point_id="+apps.ExploreToolbar, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		components := decode[[]model.AddedComponent](t, rec)
		require.Len(t, components, 1)
		assert.Equal(t, "LogVolumePanel", components[0].Component)

		rec = serve(a, http.MethodGet, "/extensions/functions?extension_point_id="+apps.AlertingActions, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		functions := decode[[]model.AddedFunction](t, rec)
		require.Len(t, functions, 1)
		assert.Equal(t, "Incident severity", functions[0].Title)

		rec = serve(a, http.MethodGet, "/extensions/exposed?id=incident-app/declare-incident/v1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "incident-app", decode[model.ExposedComponent](t, rec).PluginID)

		rec = serve(a, http.MethodGet, "/extensions", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		snapshot := decode[map[string]json.RawMessage](t, rec)
		assert.Contains(t, snapshot, "added_links")
		assert.Contains(t, snapshot, "exposed_components")
	})

	t.Run("Failed app does not block the batch", func(t *testing.T) {
		a, c := newTestAPI(t)
		loadAndWait(t, a, c, "broken-app", "logs-app")

		rec := serve(a, http.MethodGet, "/loader", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		status := decode[LoaderStatus](t, rec)
		assert.Equal(t, model.LoaderIdle, status.State)
		assert.False(t, status.IsLoading)
		assert.Equal(t, 0, status.InFlight)
		assert.Equal(t, []string{"logs-app"}, status.Plugins)
	})

	t.Run("Empty request is rejected", func(t *testing.T) {
		a, _ := newTestAPI(t)

		rec := serve(a, http.MethodPost, "/apps/load", LoadRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = serve(a, http.MethodPost, "/apps/load", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestExtensionQueries(t *testing.T) {
	a, _ := newTestAPI(t)

	for _, path := range []string{"/extensions/links", "/extensions/components", "/extensions/functions", "/extensions/exposed"} {
		rec := serve(a, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := serve(a, http.MethodGet, "/extensions/exposed?id=nope/v1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(a, http.MethodGet, "/extensions/links?extension_point_id="+apps.PanelMenu, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.AddedLink](t, rec))
}

func TestConfig(t *testing.T) {
	a, c := newTestAPI(t)

	rec := serve(a, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[map[string]interface{}](t, rec), "apps")

	t.Run("Update reloads apps", func(t *testing.T) {
		loadAndWait(t, a, c, "incident-app")
		require.Equal(t, []string{"incident-app"}, c.Registries().PluginIDs())

		update := map[string]interface{}{
			"apps": []interface{}{
				map[string]interface{}{"id": "logs-app", "module": apps.LogsModule},
			},
		}
		rec := serve(a, http.MethodPut, "/config", update)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		_, exists := c.GetAppRegistry().GetApp("incident-app")
		assert.False(t, exists)
		assert.Empty(t, c.Registries().PluginIDs())
	})

	t.Run("Invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/config", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Duplicate apps are rejected", func(t *testing.T) {
		update := map[string]interface{}{
			"apps": []interface{}{
				map[string]interface{}{"id": "logs-app"},
				map[string]interface{}{"id": "logs-app"},
			},
		}
		rec := serve(a, http.MethodPut, "/config", update)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUninitializedCore(t *testing.T) {
	a := NewAPI(core.NewCore(), 8080, "localhost")

	for _, path := range []string{"/apps", "/apps/app-a", "/loader", "/extensions"} {
		rec := serve(a, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}

	rec := serve(a, http.MethodPost, "/apps/load", LoadRequest{PluginIDs: []string{"app-a"}})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, decode[LoadResponse](t, rec).IsLoading)
}

func TestStopWithoutStart(t *testing.T) {
	a, _ := newTestAPI(t)
	assert.NoError(t, a.Stop(context.Background()))
}
