package apps

import (
	"context"
	"fmt"

	"github.com/sliink/extloader/internal/model"
	"github.com/sliink/extloader/internal/plugin"
)

// LogsModule is the module name of the logs app
const LogsModule = "logs"

// LogsApp opens queries in a dedicated logs view
type LogsApp struct {
	plugin.BasePlugin
}

// NewLogsApp creates the logs app registered under id
func NewLogsApp(id string) *LogsApp {
	return &LogsApp{
		BasePlugin: plugin.NewBasePlugin(id, "Logs"),
	}
}

// Init registers the logs extensions
func (a *LogsApp) Init(ctx context.Context, config model.AppConfig) error {
	if err := a.BasePlugin.Init(ctx, config); err != nil {
		return err
	}

	a.AddLink(model.AddedLinkConfig{
		Title:   "Open in Logs",
		Path:    fmt.Sprintf("/a/%s/explore", a.ID()),
		Icon:    "gf-logs",
		Targets: []string{PanelMenu, ExploreToolbar},
	})
	a.AddComponent(model.AddedComponentConfig{
		Title:     "Log volume",
		Component: "LogVolumePanel",
		Targets:   []string{ExploreToolbar},
	})
	return nil
}
