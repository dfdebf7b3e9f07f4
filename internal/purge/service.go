package purge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/inventory"
	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	inventoryResolverNotConfiguredMessageConstant = "inventory resolver not configured"
	deletionGatewayNotConfiguredMessageConstant   = "deletion gateway not configured"
	tokenResolverNotConfiguredMessageConstant     = "token resolver not configured"
	nameParseErrorTemplateConstant                = "package name %q cannot be split into group and artifact"
	parentPackageNotFoundTemplateConstant         = "package %q not found in owner scope"
	batchFailureTemplateConstant                  = "%d of %d deletions failed"
	packageNameSeparatorConstant                  = "."
	deletionCompletedLogMessageConstant           = "deletion completed"
	deletionFailedLogMessageConstant              = "deletion failed"
	scopeLogFieldNameConstant                     = "scope"
	packageLogFieldNameConstant                   = "package"
	versionIdentifierLogFieldNameConstant         = "version_id"
	dryRunLogFieldNameConstant                    = "dry_run"
)

// Deletion engine dependency sentinels.
var (
	ErrInventoryResolverNotConfigured = errors.New(inventoryResolverNotConfiguredMessageConstant)
	ErrDeletionGatewayNotConfigured   = errors.New(deletionGatewayNotConfiguredMessageConstant)
	ErrTokenResolverNotConfigured     = errors.New(tokenResolverNotConfiguredMessageConstant)
)

// NameParseError reports a package name lacking the group.artifact separator required by the last-version collapse.
type NameParseError struct {
	PackageName string
}

// Error describes the unsplittable package name.
func (parseError NameParseError) Error() string {
	return fmt.Sprintf(nameParseErrorTemplateConstant, parseError.PackageName)
}

// DeletionScope identifies whether an attempt removed a whole package or one version.
type DeletionScope string

// Deletion scope enumerations.
const (
	PackageDeletionScope DeletionScope = "package"
	VersionDeletionScope DeletionScope = "version"
)

// DeletionResult describes one attempted deletion together with its outcome.
type DeletionResult struct {
	Scope       DeletionScope
	PackageName string
	Group       string
	Artifact    string
	Version     *registry.Version
	DryRun      bool
	Err         error
}

// BatchSummary totals the deletion attempts of one batch.
type BatchSummary struct {
	Attempted int
	Failed    int
}

// Observer receives each deletion result the moment the attempt completes.
type Observer func(result DeletionResult)

// InventoryResolver resolves the packages and versions a batch will delete.
type InventoryResolver interface {
	ResolvePackages(executionContext context.Context, query inventory.PackageQuery) ([]registry.Package, error)
	ResolveVersions(executionContext context.Context, query inventory.VersionQuery) ([]registry.Version, error)
}

// DeletionGateway issues package and version deletions against the registry.
type DeletionGateway interface {
	DeletePackage(executionContext context.Context, credentials registry.Credentials, packageName string) error
	DeleteVersion(executionContext context.Context, credentials registry.Credentials, packageName string, versionID int64) error
}

// Dependencies configure the deletion engine.
type Dependencies struct {
	Logger        *zap.Logger
	Resolver      InventoryResolver
	Registry      DeletionGateway
	TokenResolver registry.TokenResolver
	Observer      Observer
}

// Service executes package and version deletion batches sequentially.
type Service struct {
	logger        *zap.Logger
	resolver      InventoryResolver
	registry      DeletionGateway
	tokenResolver registry.TokenResolver
	observer      Observer
}

// NewService validates the dependencies and builds the deletion engine.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.Resolver == nil {
		return nil, ErrInventoryResolverNotConfigured
	}
	if dependencies.Registry == nil {
		return nil, ErrDeletionGatewayNotConfigured
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
		resolver:      dependencies.Resolver,
		registry:      dependencies.Registry,
		tokenResolver: dependencies.TokenResolver,
		observer:      dependencies.Observer,
	}, nil
}

// PackageDeletionOptions configure one bulk package deletion batch.
type PackageDeletionOptions struct {
	Owner          string
	OwnerType      registry.OwnerType
	TokenSource    registry.TokenSource
	GroupFilter    string
	ArtifactFilter string
	DryRun         bool
}

// VersionDeletionOptions configure one version deletion batch.
type VersionDeletionOptions struct {
	Owner          string
	OwnerType      registry.OwnerType
	TokenSource    registry.TokenSource
	GroupFilter    string
	ArtifactFilter string
	VersionFilter  string
	DryRun         bool
}

// SingleVersionOptions scope the one-row deletion the interactive browser issues.
type SingleVersionOptions struct {
	Owner       string
	OwnerType   registry.OwnerType
	TokenSource registry.TokenSource
	PackageName string
	Version     registry.Version
}

// DeletePackages removes every package matching the filters, best effort, and reports partial failure through the returned error.
func (service *Service) DeletePackages(executionContext context.Context, options PackageDeletionOptions) (BatchSummary, error) {
	credentials, credentialsError := registry.ResolveCredentials(executionContext, service.tokenResolver, options.Owner, options.OwnerType, options.TokenSource)
	if credentialsError != nil {
		return BatchSummary{}, credentialsError
	}

	matchingPackages, resolutionError := service.resolver.ResolvePackages(executionContext, inventory.PackageQuery{
		Owner:          options.Owner,
		OwnerType:      options.OwnerType,
		TokenSource:    options.TokenSource,
		GroupFilter:    options.GroupFilter,
		ArtifactFilter: options.ArtifactFilter,
	})
	if resolutionError != nil {
		return BatchSummary{}, resolutionError
	}

	summary := BatchSummary{}
	for _, matchedPackage := range matchingPackages {
		attemptedResult := service.attemptPackageDeletion(executionContext, credentials, DeletionResult{
			Scope:       PackageDeletionScope,
			PackageName: matchedPackage.Name,
			DryRun:      options.DryRun,
		})
		summary = recordOutcome(summary, attemptedResult)
	}

	return summary, summary.failureError()
}

// DeleteVersions removes every matching version per matching package, collapsing the deletion of a package's last version into a whole-package deletion.
func (service *Service) DeleteVersions(executionContext context.Context, options VersionDeletionOptions) (BatchSummary, error) {
	credentials, credentialsError := registry.ResolveCredentials(executionContext, service.tokenResolver, options.Owner, options.OwnerType, options.TokenSource)
	if credentialsError != nil {
		return BatchSummary{}, credentialsError
	}

	matchingPackages, resolutionError := service.resolver.ResolvePackages(executionContext, inventory.PackageQuery{
		Owner:          options.Owner,
		OwnerType:      options.OwnerType,
		TokenSource:    options.TokenSource,
		GroupFilter:    options.GroupFilter,
		ArtifactFilter: options.ArtifactFilter,
	})
	if resolutionError != nil {
		return BatchSummary{}, resolutionError
	}

	summary := BatchSummary{}
	for _, matchedPackage := range matchingPackages {
		// Snapshot taken once per package before any deletion; not re-read afterwards.
		lastVersionRemaining := matchedPackage.VersionCount == 1

		matchingVersions, versionsError := service.resolver.ResolveVersions(executionContext, inventory.VersionQuery{
			Owner:         options.Owner,
			OwnerType:     options.OwnerType,
			TokenSource:   options.TokenSource,
			PackageName:   matchedPackage.Name,
			VersionFilter: options.VersionFilter,
		})
		if versionsError != nil {
			return summary, versionsError
		}

		for versionIndex := range matchingVersions {
			resolvedVersion := matchingVersions[versionIndex]

			if lastVersionRemaining {
				groupName, artifactName, splitError := splitPackageName(matchedPackage.Name)
				if splitError != nil {
					return summary, splitError
				}

				attemptedResult := service.attemptPackageDeletion(executionContext, credentials, DeletionResult{
					Scope:       PackageDeletionScope,
					PackageName: matchedPackage.Name,
					Group:       groupName,
					Artifact:    artifactName,
					Version:     &resolvedVersion,
					DryRun:      options.DryRun,
				})
				summary = recordOutcome(summary, attemptedResult)
				continue
			}

			attemptedResult := service.attemptVersionDeletion(executionContext, credentials, DeletionResult{
				Scope:       VersionDeletionScope,
				PackageName: matchedPackage.Name,
				Version:     &resolvedVersion,
				DryRun:      options.DryRun,
			})
			summary = recordOutcome(summary, attemptedResult)
		}
	}

	return summary, summary.failureError()
}

// DeleteSingleVersion removes one version of one package, re-reading the package first so the collapse decision uses a fresh version count; the attempt outcome travels in the returned result.
func (service *Service) DeleteSingleVersion(executionContext context.Context, options SingleVersionOptions) (DeletionResult, error) {
	credentials, credentialsError := registry.ResolveCredentials(executionContext, service.tokenResolver, options.Owner, options.OwnerType, options.TokenSource)
	if credentialsError != nil {
		return DeletionResult{}, credentialsError
	}

	parentPackage, parentError := service.resolveParentPackage(executionContext, options)
	if parentError != nil {
		return DeletionResult{}, parentError
	}

	targetVersion := options.Version
	if parentPackage.VersionCount == 1 {
		groupName, artifactName, splitError := splitPackageName(parentPackage.Name)
		if splitError != nil {
			return DeletionResult{}, splitError
		}

		return service.attemptPackageDeletion(executionContext, credentials, DeletionResult{
			Scope:       PackageDeletionScope,
			PackageName: parentPackage.Name,
			Group:       groupName,
			Artifact:    artifactName,
			Version:     &targetVersion,
		}), nil
	}

	return service.attemptVersionDeletion(executionContext, credentials, DeletionResult{
		Scope:       VersionDeletionScope,
		PackageName: parentPackage.Name,
		Version:     &targetVersion,
	}), nil
}

func (service *Service) resolveParentPackage(executionContext context.Context, options SingleVersionOptions) (registry.Package, error) {
	matchingPackages, resolutionError := service.resolver.ResolvePackages(executionContext, inventory.PackageQuery{
		Owner:          options.Owner,
		OwnerType:      options.OwnerType,
		TokenSource:    options.TokenSource,
		GroupFilter:    filter.WildcardToken,
		ArtifactFilter: filter.WildcardToken,
	})
	if resolutionError != nil {
		return registry.Package{}, resolutionError
	}

	for _, candidatePackage := range matchingPackages {
		if candidatePackage.Name == options.PackageName {
			return candidatePackage, nil
		}
	}

	return registry.Package{}, fmt.Errorf(parentPackageNotFoundTemplateConstant, options.PackageName)
}

func (service *Service) attemptPackageDeletion(executionContext context.Context, credentials registry.Credentials, result DeletionResult) DeletionResult {
	if !result.DryRun {
		result.Err = service.registry.DeletePackage(executionContext, credentials, result.PackageName)
	}

	service.logResult(result)
	service.emit(result)
	return result
}

func (service *Service) attemptVersionDeletion(executionContext context.Context, credentials registry.Credentials, result DeletionResult) DeletionResult {
	if !result.DryRun {
		result.Err = service.registry.DeleteVersion(executionContext, credentials, result.PackageName, result.Version.ID)
	}

	service.logResult(result)
	service.emit(result)
	return result
}

func (service *Service) logResult(result DeletionResult) {
	logFields := []zap.Field{
		zap.String(scopeLogFieldNameConstant, string(result.Scope)),
		zap.String(packageLogFieldNameConstant, result.PackageName),
		zap.Bool(dryRunLogFieldNameConstant, result.DryRun),
	}
	if result.Version != nil {
		logFields = append(logFields, zap.Int64(versionIdentifierLogFieldNameConstant, result.Version.ID))
	}

	if result.Err != nil {
		service.logger.Warn(deletionFailedLogMessageConstant, append(logFields, zap.Error(result.Err))...)
		return
	}
	service.logger.Debug(deletionCompletedLogMessageConstant, logFields...)
}

func (service *Service) emit(result DeletionResult) {
	if service.observer == nil {
		return
	}
	service.observer(result)
}

func (summary BatchSummary) failureError() error {
	if summary.Failed == 0 {
		return nil
	}
	return fmt.Errorf(batchFailureTemplateConstant, summary.Failed, summary.Attempted)
}

func recordOutcome(summary BatchSummary, result DeletionResult) BatchSummary {
	summary.Attempted++
	if result.Err != nil {
		summary.Failed++
	}
	return summary
}

func splitPackageName(packageName string) (string, string, error) {
	separatorIndex := strings.LastIndex(packageName, packageNameSeparatorConstant)
	if separatorIndex < 0 {
		return "", "", NameParseError{PackageName: packageName}
	}
	return packageName[:separatorIndex], packageName[separatorIndex+1:], nil
}
