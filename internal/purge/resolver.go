package purge

import (
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/inventory"
	"github.com/temirov/pkgsweep/internal/registry"
)

// DefaultServiceResolver builds deletion engines backed by the registry client.
type DefaultServiceResolver struct {
	HTTPClient          registry.HTTPClient
	ClientConfiguration registry.ClientConfiguration
	EnvironmentLookup   registry.EnvironmentLookup
	FileReader          registry.FileReader
	TokenResolver       registry.TokenResolver
}

// Resolve creates a deletion engine wired to the observer using configured collaborators or sensible defaults.
func (resolver *DefaultServiceResolver) Resolve(logger *zap.Logger, observer Observer) (Engine, error) {
	registryClient, clientError := registry.NewClient(logger, resolver.HTTPClient, resolver.ClientConfiguration)
	if clientError != nil {
		return nil, clientError
	}

	resolvedTokenResolver := resolver.TokenResolver
	if resolvedTokenResolver == nil {
		resolvedTokenResolver = registry.NewTokenResolver(resolver.EnvironmentLookup, resolver.FileReader)
	}

	inventoryService, inventoryError := inventory.NewService(inventory.Dependencies{
		Logger:        logger,
		Registry:      registryClient,
		TokenResolver: resolvedTokenResolver,
	})
	if inventoryError != nil {
		return nil, inventoryError
	}

	return NewService(Dependencies{
		Logger:        logger,
		Resolver:      inventoryService,
		Registry:      registryClient,
		TokenResolver: resolvedTokenResolver,
		Observer:      observer,
	})
}
