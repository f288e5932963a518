// Package apps contains the app plugins built into extloader.
package apps

import (
	"github.com/sliink/extloader/internal/model"
	"github.com/sliink/extloader/internal/plugin"
)

// Extension points the built-in apps contribute to
const (
	PanelMenu       = "grafana/dashboard/panel/menu"
	ExploreToolbar  = "grafana/explore/toolbar/action"
	AlertingActions = "grafana/alerting/instance/action"
)

// RegisterStandardApps registers every built-in app module with the factory
func RegisterStandardApps(factory *plugin.PluginFactory) {
	factory.Register(IncidentModule, func(config model.AppConfig) model.AppPlugin {
		return NewIncidentApp(config.ID)
	})
	factory.Register(LogsModule, func(config model.AppConfig) model.AppPlugin {
		return NewLogsApp(config.ID)
	})
}
