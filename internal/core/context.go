package core

import "context"

// Loader is the view of the plugin loader handed to consumers
type Loader interface {
	LoadAppPlugins(pluginIDs []string)
	IsLoading() bool
}

type loaderKey struct{}

type nopLoader struct{}

func (nopLoader) LoadAppPlugins([]string) {}

func (nopLoader) IsLoading() bool { return false }

// WithLoader returns a copy of ctx carrying the loader
func WithLoader(ctx context.Context, loader Loader) context.Context {
	return context.WithValue(ctx, loaderKey{}, loader)
}

// LoaderFrom returns the loader carried by ctx, or a loader that never loads
// anything when there is none.
func LoaderFrom(ctx context.Context) Loader {
	if loader, ok := ctx.Value(loaderKey{}).(Loader); ok && loader != nil {
		return loader
	}
	return nopLoader{}
}
