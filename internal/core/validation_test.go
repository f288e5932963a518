package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/extloader/internal/model"
)

const panelMenu = "grafana/dashboard/panel/menu"

func validLink(appID string) model.AddedLinkConfig {
	return model.AddedLinkConfig{
		Title:   "Open in app",
		Path:    "/a/" + appID + "/explore",
		Targets: []string{panelMenu},
	}
}

func validFunction() model.AddedFunctionConfig {
	return model.AddedFunctionConfig{
		Title:   "Format",
		Targets: []string{panelMenu},
		Fn:      func(args ...any) (any, error) { return len(args), nil },
	}
}

func TestValidationStageValidate(t *testing.T) {
	app := newTestApp("app-a", false)

	t.Run("Nil stage passes", func(t *testing.T) {
		var stage *ValidationStage
		assert.NoError(t, stage.Validate(app, validLink("app-a")))
	})

	t.Run("Chain stops at first failing stage", func(t *testing.T) {
		var secondCalled bool
		stage := &ValidationStage{
			Name:  "first",
			Check: func(model.AppConfig, model.Extension) error { return errors.New("boom") },
			NextStage: &ValidationStage{
				Name: "second",
				Check: func(model.AppConfig, model.Extension) error {
					secondCalled = true
					return nil
				},
			},
		}

		err := stage.Validate(app, validLink("app-a"))
		assert.ErrorIs(t, err, ErrInvalidExtension)
		assert.Contains(t, err.Error(), "first")
		assert.False(t, secondCalled)
	})
}

func TestValidationPipelineStages(t *testing.T) {
	t.Run("Default pipeline has standard stages", func(t *testing.T) {
		p := NewDefaultValidationPipeline(false)
		assert.Equal(t, []string{"title", "shape", "targets"}, p.Stages())
	})

	t.Run("Strict pipeline also checks declarations", func(t *testing.T) {
		p := NewDefaultValidationPipeline(true)
		assert.Equal(t, []string{"title", "shape", "targets", "declared"}, p.Stages())
	})

	t.Run("Empty pipeline accepts everything", func(t *testing.T) {
		p := NewValidationPipeline()
		assert.NoError(t, p.Validate(newTestApp("app-a", false), model.AddedLinkConfig{}))
	})

	t.Run("Nil extension is rejected", func(t *testing.T) {
		p := NewValidationPipeline()
		assert.ErrorIs(t, p.Validate(newTestApp("app-a", false), nil), ErrInvalidExtension)
	})
}

func TestDefaultValidators(t *testing.T) {
	app := newTestApp("app-a", false)
	p := NewDefaultValidationPipeline(false)

	testCases := []struct {
		name    string
		ext     model.Extension
		wantErr bool
	}{
		{name: "Valid link", ext: validLink("app-a")},
		{name: "Link without title", ext: model.AddedLinkConfig{Path: "/a/app-a/x", Targets: []string{panelMenu}}, wantErr: true},
		{name: "Link outside app path", ext: model.AddedLinkConfig{Title: "x", Path: "/a/app-b/x", Targets: []string{panelMenu}}, wantErr: true},
		{name: "Link without targets", ext: model.AddedLinkConfig{Title: "x", Path: "/a/app-a/x"}, wantErr: true},
		{name: "Link with blank target", ext: model.AddedLinkConfig{Title: "x", Path: "/a/app-a/x", Targets: []string{" "}}, wantErr: true},
		{name: "Valid component", ext: model.AddedComponentConfig{Title: "c", Component: "Panel", Targets: []string{panelMenu}}},
		{name: "Component without reference", ext: model.AddedComponentConfig{Title: "c", Targets: []string{panelMenu}}, wantErr: true},
		{name: "Valid exposed component", ext: model.ExposedComponentConfig{ID: "app-a/widget/v1", Title: "Widget", Component: "Widget"}},
		{name: "Exposed component without prefix", ext: model.ExposedComponentConfig{ID: "widget/v1", Title: "Widget", Component: "Widget"}, wantErr: true},
		{name: "Exposed component with bare prefix", ext: model.ExposedComponentConfig{ID: "app-a/", Title: "Widget", Component: "Widget"}, wantErr: true},
		{name: "Exposed component without title", ext: model.ExposedComponentConfig{ID: "app-a/widget/v1", Component: "Widget"}, wantErr: true},
		{name: "Valid function", ext: validFunction()},
		{name: "Function without callable", ext: model.AddedFunctionConfig{Title: "f", Targets: []string{panelMenu}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Validate(app, tc.ext)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidExtension)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDeclared(t *testing.T) {
	app := newTestApp("app-a", false)
	app.Extensions = model.ExtensionsMeta{
		AddedLinks:        []model.ExtensionMeta{{Title: "Open in app", Targets: []string{panelMenu}}},
		ExposedComponents: []model.ExtensionMeta{{ID: "app-a/widget/v1"}},
	}
	p := NewDefaultValidationPipeline(true)

	t.Run("Declared link passes", func(t *testing.T) {
		require.NoError(t, p.Validate(app, validLink("app-a")))
	})

	t.Run("Declared exposed component passes", func(t *testing.T) {
		ext := model.ExposedComponentConfig{ID: "app-a/widget/v1", Title: "Widget", Component: "Widget"}
		require.NoError(t, p.Validate(app, ext))
	})

	t.Run("Undeclared function fails", func(t *testing.T) {
		err := p.Validate(app, validFunction())
		assert.ErrorIs(t, err, ErrInvalidExtension)
		assert.Contains(t, err.Error(), "declared")
	})
}
