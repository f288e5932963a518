package apps

import (
	"context"
	"fmt"

	"github.com/sliink/extloader/internal/model"
	"github.com/sliink/extloader/internal/plugin"
)

// IncidentModule is the module name of the incident app
const IncidentModule = "incident"

// IncidentApp lets users declare incidents from panels and alerts
type IncidentApp struct {
	plugin.BasePlugin
}

// NewIncidentApp creates the incident app registered under id
func NewIncidentApp(id string) *IncidentApp {
	return &IncidentApp{
		BasePlugin: plugin.NewBasePlugin(id, "Incident"),
	}
}

// Init registers the incident extensions
func (a *IncidentApp) Init(ctx context.Context, config model.AppConfig) error {
	if err := a.BasePlugin.Init(ctx, config); err != nil {
		return err
	}

	a.AddLink(model.AddedLinkConfig{
		Title:       "Declare incident",
		Description: "Declare an incident from this panel",
		Path:        fmt.Sprintf("/a/%s/incidents/new", a.ID()),
		Category:    "Incident",
		Icon:        "fire",
		Targets:     []string{PanelMenu, AlertingActions},
	})
	a.ExposeComponent(model.ExposedComponentConfig{
		ID:          a.ID() + "/declare-incident/v1",
		Title:       "Declare incident form",
		Description: "Form for declaring an incident",
		Component:   "DeclareIncidentForm",
	})
	a.AddFunction(model.AddedFunctionConfig{
		Title:       "Incident severity",
		Description: "Maps an alert state to an incident severity",
		Targets:     []string{AlertingActions},
		Fn:          severity,
	})
	return nil
}

func severity(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected one alert state, got %d arguments", len(args))
	}
	state, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("alert state must be a string, got %T", args[0])
	}

	switch state {
	case "alerting":
		return "critical", nil
	case "pending":
		return "minor", nil
	default:
		return "none", nil
	}
}
