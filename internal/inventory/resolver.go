package inventory

import (
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/registry"
)

// DefaultServiceResolver builds inventory services backed by the registry client.
type DefaultServiceResolver struct {
	HTTPClient          registry.HTTPClient
	ClientConfiguration registry.ClientConfiguration
	EnvironmentLookup   registry.EnvironmentLookup
	FileReader          registry.FileReader
	TokenResolver       registry.TokenResolver
}

// Resolve creates an inventory executor using configured collaborators or sensible defaults.
func (resolver *DefaultServiceResolver) Resolve(logger *zap.Logger) (Executor, error) {
	registryClient, clientError := registry.NewClient(logger, resolver.HTTPClient, resolver.ClientConfiguration)
	if clientError != nil {
		return nil, clientError
	}

	resolvedTokenResolver := resolver.TokenResolver
	if resolvedTokenResolver == nil {
		resolvedTokenResolver = registry.NewTokenResolver(resolver.EnvironmentLookup, resolver.FileReader)
	}

	return NewService(Dependencies{
		Logger:        logger,
		Registry:      registryClient,
		TokenResolver: resolvedTokenResolver,
	})
}
