package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	registryGatewayNotConfiguredMessageConstant = "registry gateway not configured"
	tokenResolverNotConfiguredMessageConstant   = "token resolver not configured"
	versionFilterInvalidTemplateConstant        = "version filter %q is not a numeric version identifier"
	packagesResolvedLogMessageConstant          = "resolved packages"
	versionsResolvedLogMessageConstant          = "resolved versions"
	listedCountLogFieldNameConstant             = "listed"
	matchedCountLogFieldNameConstant            = "matched"
	packageNameLogFieldNameConstant             = "package"
)

var (
	// ErrRegistryGatewayNotConfigured indicates the service was built without a registry gateway.
	ErrRegistryGatewayNotConfigured = errors.New(registryGatewayNotConfiguredMessageConstant)
	// ErrTokenResolverNotConfigured indicates the service was built without a token resolver.
	ErrTokenResolverNotConfigured = errors.New(tokenResolverNotConfiguredMessageConstant)
)

// VersionFilterError reports a version filter that is neither a wildcard nor a numeric identifier.
type VersionFilterError struct {
	Filter string
}

// Error describes the unusable filter.
func (filterError VersionFilterError) Error() string {
	return fmt.Sprintf(versionFilterInvalidTemplateConstant, filterError.Filter)
}

// RegistryGateway captures the registry read operations the service needs.
type RegistryGateway interface {
	ListPackages(executionContext context.Context, credentials registry.Credentials) ([]registry.Package, error)
	ListVersions(executionContext context.Context, credentials registry.Credentials, packageName string) ([]registry.Version, error)
	GetVersion(executionContext context.Context, credentials registry.Credentials, packageName string, versionID int64) (registry.Version, error)
}

// Dependencies wires collaborators into the inventory service.
type Dependencies struct {
	Logger        *zap.Logger
	Registry      RegistryGateway
	TokenResolver registry.TokenResolver
}

// PackageQuery carries the owner scope and name filters for package resolution.
type PackageQuery struct {
	Owner          string
	OwnerType      registry.OwnerType
	TokenSource    registry.TokenSource
	GroupFilter    string
	ArtifactFilter string
}

// VersionQuery identifies one package and an optional version filter.
type VersionQuery struct {
	Owner         string
	OwnerType     registry.OwnerType
	TokenSource   registry.TokenSource
	PackageName   string
	VersionFilter string
}

// Service resolves package and version inventories from the registry.
type Service struct {
	logger        *zap.Logger
	registry      RegistryGateway
	tokenResolver registry.TokenResolver
}

// NewService validates dependencies and builds an inventory service.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Registry == nil {
		return nil, ErrRegistryGatewayNotConfigured
	}
	if dependencies.TokenResolver == nil {
		return nil, ErrTokenResolverNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:        logger,
		registry:      dependencies.Registry,
		tokenResolver: dependencies.TokenResolver,
	}, nil
}

// ResolvePackages lists every package in the owner scope and keeps the ones
// whose full name matches the group and artifact filters. Registry order is
// preserved.
func (service *Service) ResolvePackages(executionContext context.Context, query PackageQuery) ([]registry.Package, error) {
	credentials, credentialsError := registry.ResolveCredentials(executionContext, service.tokenResolver, query.Owner, query.OwnerType, query.TokenSource)
	if credentialsError != nil {
		return nil, credentialsError
	}

	packagePattern, patternError := filter.NewPackagePattern(normalizeFilter(query.GroupFilter), normalizeFilter(query.ArtifactFilter))
	if patternError != nil {
		return nil, patternError
	}

	listedPackages, listError := service.registry.ListPackages(executionContext, credentials)
	if listError != nil {
		return nil, listError
	}

	matchingPackages := make([]registry.Package, 0, len(listedPackages))
	for _, candidatePackage := range listedPackages {
		if packagePattern.Matches(candidatePackage.Name) {
			matchingPackages = append(matchingPackages, candidatePackage)
		}
	}

	service.logger.Debug(
		packagesResolvedLogMessageConstant,
		zap.Int(listedCountLogFieldNameConstant, len(listedPackages)),
		zap.Int(matchedCountLogFieldNameConstant, len(matchingPackages)),
	)

	return matchingPackages, nil
}

// ResolveVersions lists every version of the queried package when the filter
// is the wildcard, or addresses one version directly by its identifier.
func (service *Service) ResolveVersions(executionContext context.Context, query VersionQuery) ([]registry.Version, error) {
	credentials, credentialsError := registry.ResolveCredentials(executionContext, service.tokenResolver, query.Owner, query.OwnerType, query.TokenSource)
	if credentialsError != nil {
		return nil, credentialsError
	}

	versionFilter := normalizeFilter(query.VersionFilter)
	if filter.IsWildcard(versionFilter) {
		listedVersions, listError := service.registry.ListVersions(executionContext, credentials, query.PackageName)
		if listError != nil {
			return nil, listError
		}

		service.logger.Debug(
			versionsResolvedLogMessageConstant,
			zap.String(packageNameLogFieldNameConstant, query.PackageName),
			zap.Int(listedCountLogFieldNameConstant, len(listedVersions)),
		)

		return listedVersions, nil
	}

	versionIdentifier, parseError := strconv.ParseInt(versionFilter, 10, 64)
	if parseError != nil {
		return nil, VersionFilterError{Filter: versionFilter}
	}

	version, getError := service.registry.GetVersion(executionContext, credentials, query.PackageName, versionIdentifier)
	if getError != nil {
		return nil, getError
	}

	return []registry.Version{version}, nil
}

func normalizeFilter(filterValue string) string {
	trimmedValue := strings.TrimSpace(filterValue)
	if len(trimmedValue) == 0 {
		return filter.WildcardToken
	}
	return trimmedValue
}
