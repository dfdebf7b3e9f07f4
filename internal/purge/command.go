package purge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/registry"
	"github.com/temirov/pkgsweep/internal/render"
	"github.com/temirov/pkgsweep/internal/utils"
)

const (
	deleteCommandUseConstant                     = "delete [group] [artifact]"
	deleteCommandShortDescriptionConstant        = "Delete every package matching the group and artifact filters"
	deleteCommandLongDescriptionConstant         = "delete removes whole packages whose group.artifact name matches the wildcard filters; failures are reported per package and do not stop the batch."
	deleteCommandErrorTemplateConstant           = "package deletion failed: %w"
	deleteVersionCommandUseConstant              = "deleteVersion <group> <artifact>"
	deleteVersionCommandShortDescriptionConstant = "Delete matching versions, collapsing a package's last version into a package deletion"
	deleteVersionCommandLongDescriptionConstant  = "deleteVersion removes the matching versions of every matching package; when a package has exactly one version left the whole package is deleted instead so no empty package remains."
	deleteVersionCommandErrorTemplateConstant    = "version deletion failed: %w"
	ownerFlagNameConstant                        = "owner"
	ownerFlagDescriptionConstant                 = "User or organization that owns the packages"
	ownerTypeFlagNameConstant                    = "owner-type"
	ownerTypeFlagDescriptionConstant             = "Owner type: user or org"
	tokenSourceFlagNameConstant                  = "token-source"
	tokenSourceFlagDescriptionConstant           = "Token source (env:NAME or file:/path)"
	versionFlagNameConstant                      = "version"
	versionFlagDescriptionConstant               = "Numeric version identifier; % targets every version"
	dryRunFlagNameConstant                       = "dry-run"
	dryRunFlagDescriptionConstant                = "Resolve and report deletions without issuing them"
	ownerTypeParseErrorTemplateConstant          = "invalid owner type: %w"
	tokenSourceParseErrorTemplateConstant        = "invalid token source: %w"
	defaultTokenSourceValueConstant              = "env:PKGSWEEP_TOKEN"
	groupArgumentIndexConstant                   = 0
	artifactArgumentIndexConstant                = 1
	deleteCommandArgumentLimitConstant           = 2
	deleteVersionCommandArgumentCountConstant    = 2
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the registry settings commands resolve against.
type ConfigurationProvider func() registry.Settings

// Engine executes deletion batches.
type Engine interface {
	DeletePackages(executionContext context.Context, options PackageDeletionOptions) (BatchSummary, error)
	DeleteVersions(executionContext context.Context, options VersionDeletionOptions) (BatchSummary, error)
}

// ServiceResolver creates deletion engines bound to an observer.
type ServiceResolver interface {
	Resolve(logger *zap.Logger, observer Observer) (Engine, error)
}

// CommandBuilder assembles the delete and deleteVersion commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	HTTPClient            registry.HTTPClient
	EnvironmentLookup     registry.EnvironmentLookup
	FileReader            registry.FileReader
	TokenResolver         registry.TokenResolver
}

// BuildDeleteCommand constructs the whole-package deletion command.
func (builder *CommandBuilder) BuildDeleteCommand() (*cobra.Command, error) {
	deleteCommand := &cobra.Command{
		Use:   deleteCommandUseConstant,
		Short: deleteCommandShortDescriptionConstant,
		Long:  deleteCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(deleteCommandArgumentLimitConstant),
		RunE:  builder.runDelete,
	}

	registerScopeFlags(deleteCommand)
	deleteCommand.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

	return deleteCommand, nil
}

// BuildDeleteVersionCommand constructs the version deletion command.
func (builder *CommandBuilder) BuildDeleteVersionCommand() (*cobra.Command, error) {
	deleteVersionCommand := &cobra.Command{
		Use:   deleteVersionCommandUseConstant,
		Short: deleteVersionCommandShortDescriptionConstant,
		Long:  deleteVersionCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(deleteVersionCommandArgumentCountConstant),
		RunE:  builder.runDeleteVersion,
	}

	registerScopeFlags(deleteVersionCommand)
	deleteVersionCommand.Flags().String(versionFlagNameConstant, filter.WildcardToken, versionFlagDescriptionConstant)
	deleteVersionCommand.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

	return deleteVersionCommand, nil
}

func (builder *CommandBuilder) runDelete(command *cobra.Command, arguments []string) error {
	scope, scopeError := builder.parseScope(command)
	if scopeError != nil {
		return scopeError
	}

	dryRunValue, dryRunFlagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunFlagError != nil {
		return dryRunFlagError
	}

	logger := builder.resolveLogger()
	engine, engineError := builder.resolveEngine(logger, scope.settings, newRenderingObserver(command.OutOrStdout()))
	if engineError != nil {
		return engineError
	}

	deletionOptions := PackageDeletionOptions{
		Owner:          scope.owner,
		OwnerType:      scope.ownerType,
		TokenSource:    scope.tokenSource,
		GroupFilter:    argumentOrWildcard(arguments, groupArgumentIndexConstant),
		ArtifactFilter: argumentOrWildcard(arguments, artifactArgumentIndexConstant),
		DryRun:         dryRunValue,
	}

	if _, batchError := engine.DeletePackages(command.Context(), deletionOptions); batchError != nil {
		return fmt.Errorf(deleteCommandErrorTemplateConstant, batchError)
	}
	return nil
}

func (builder *CommandBuilder) runDeleteVersion(command *cobra.Command, arguments []string) error {
	scope, scopeError := builder.parseScope(command)
	if scopeError != nil {
		return scopeError
	}

	versionFilterValue, versionFlagError := command.Flags().GetString(versionFlagNameConstant)
	if versionFlagError != nil {
		return versionFlagError
	}

	dryRunValue, dryRunFlagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunFlagError != nil {
		return dryRunFlagError
	}

	logger := builder.resolveLogger()
	engine, engineError := builder.resolveEngine(logger, scope.settings, newRenderingObserver(command.OutOrStdout()))
	if engineError != nil {
		return engineError
	}

	deletionOptions := VersionDeletionOptions{
		Owner:          scope.owner,
		OwnerType:      scope.ownerType,
		TokenSource:    scope.tokenSource,
		GroupFilter:    arguments[groupArgumentIndexConstant],
		ArtifactFilter: arguments[artifactArgumentIndexConstant],
		VersionFilter:  versionFilterValue,
		DryRun:         dryRunValue,
	}

	if _, batchError := engine.DeleteVersions(command.Context(), deletionOptions); batchError != nil {
		return fmt.Errorf(deleteVersionCommandErrorTemplateConstant, batchError)
	}
	return nil
}

type commandScope struct {
	owner       string
	ownerType   registry.OwnerType
	tokenSource registry.TokenSource
	settings    registry.Settings
}

func (builder *CommandBuilder) parseScope(command *cobra.Command) (commandScope, error) {
	settings := builder.resolveSettings()

	ownerFlagValue, ownerFlagError := command.Flags().GetString(ownerFlagNameConstant)
	if ownerFlagError != nil {
		return commandScope{}, ownerFlagError
	}
	ownerValue := selectStringValue(ownerFlagValue, settings.Owner)

	ownerTypeFlagValue, ownerTypeFlagError := command.Flags().GetString(ownerTypeFlagNameConstant)
	if ownerTypeFlagError != nil {
		return commandScope{}, ownerTypeFlagError
	}
	ownerTypeValue := selectStringValue(ownerTypeFlagValue, settings.OwnerType)
	parsedOwnerType, ownerTypeParseError := registry.ParseOwnerType(ownerTypeValue)
	if ownerTypeParseError != nil {
		return commandScope{}, fmt.Errorf(ownerTypeParseErrorTemplateConstant, ownerTypeParseError)
	}

	tokenSourceFlagValue, tokenSourceFlagError := command.Flags().GetString(tokenSourceFlagNameConstant)
	if tokenSourceFlagError != nil {
		return commandScope{}, tokenSourceFlagError
	}
	tokenSourceValue := selectStringValue(tokenSourceFlagValue, settings.TokenSource)
	if len(strings.TrimSpace(tokenSourceValue)) == 0 {
		tokenSourceValue = defaultTokenSourceValueConstant
	}
	parsedTokenSource, tokenParseError := registry.ParseTokenSource(tokenSourceValue)
	if tokenParseError != nil {
		return commandScope{}, fmt.Errorf(tokenSourceParseErrorTemplateConstant, tokenParseError)
	}

	return commandScope{
		owner:       ownerValue,
		ownerType:   parsedOwnerType,
		tokenSource: parsedTokenSource,
		settings:    settings,
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveSettings() registry.Settings {
	settings := registry.DefaultSettings()
	if builder.ConfigurationProvider != nil {
		settings = builder.ConfigurationProvider()
	}
	return settings.Sanitize()
}

func (builder *CommandBuilder) resolveEngine(logger *zap.Logger, settings registry.Settings, observer Observer) (Engine, error) {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver.Resolve(logger, observer)
	}

	defaultResolver := &DefaultServiceResolver{
		HTTPClient:          builder.HTTPClient,
		ClientConfiguration: settings.ClientConfiguration(),
		EnvironmentLookup:   builder.EnvironmentLookup,
		FileReader:          builder.FileReader,
		TokenResolver:       builder.TokenResolver,
	}

	return defaultResolver.Resolve(logger, observer)
}

func newRenderingObserver(outputWriter io.Writer) Observer {
	flushingWriter := utils.NewFlushingWriter(outputWriter)
	return func(result DeletionResult) {
		_ = render.WriteDeletionRecord(flushingWriter, deletionRecordFromResult(result))
	}
}

func deletionRecordFromResult(result DeletionResult) render.DeletionRecord {
	record := render.DeletionRecord{
		Scope:       render.PackageDeletionScope,
		PackageName: result.PackageName,
		DryRun:      result.DryRun,
		Failure:     result.Err,
	}
	if result.Scope == VersionDeletionScope {
		record.Scope = render.VersionDeletionScope
	}
	if result.Version != nil {
		record.VersionID = result.Version.ID
		record.VersionName = result.Version.Name
	}
	return record
}

func registerScopeFlags(command *cobra.Command) {
	command.Flags().String(ownerFlagNameConstant, "", ownerFlagDescriptionConstant)
	command.Flags().String(ownerTypeFlagNameConstant, "", ownerTypeFlagDescriptionConstant)
	command.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)
}

func argumentOrWildcard(arguments []string, argumentIndex int) string {
	if argumentIndex < len(arguments) {
		return arguments[argumentIndex]
	}
	return filter.WildcardToken
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}

	return strings.TrimSpace(configurationValue)
}
