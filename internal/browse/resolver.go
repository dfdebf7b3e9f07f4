package browse

import (
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/inventory"
	"github.com/temirov/pkgsweep/internal/purge"
	"github.com/temirov/pkgsweep/internal/registry"
)

// DefaultServiceResolver builds the browser services backed by the registry client.
type DefaultServiceResolver struct {
	HTTPClient          registry.HTTPClient
	ClientConfiguration registry.ClientConfiguration
	EnvironmentLookup   registry.EnvironmentLookup
	FileReader          registry.FileReader
	TokenResolver       registry.TokenResolver
}

// Resolve creates the package lister, version lister, and deleter the browser consumes.
func (resolver *DefaultServiceResolver) Resolve(logger *zap.Logger) (Services, error) {
	registryClient, clientError := registry.NewClient(logger, resolver.HTTPClient, resolver.ClientConfiguration)
	if clientError != nil {
		return Services{}, clientError
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
		return Services{}, inventoryError
	}

	purgeService, purgeError := purge.NewService(purge.Dependencies{
		Logger:        logger,
		Resolver:      inventoryService,
		Registry:      registryClient,
		TokenResolver: resolvedTokenResolver,
	})
	if purgeError != nil {
		return Services{}, purgeError
	}

	return Services{
		Packages: inventoryService,
		Versions: inventoryService,
		Deleter:  purgeService,
	}, nil
}
