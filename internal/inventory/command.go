package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/registry"
	"github.com/temirov/pkgsweep/internal/render"
)

const (
	packagesCommandUseConstant              = "packages [group] [artifact]"
	packagesCommandShortDescriptionConstant = "List packages matching the group and artifact filters"
	packagesCommandLongDescriptionConstant  = "packages lists every package in the owner scope whose group.artifact name matches the wildcard filters; % matches any sequence of characters."
	packagesCommandErrorTemplateConstant    = "packages listing failed: %w"
	versionsCommandUseConstant              = "versions <package-name>"
	versionsCommandShortDescriptionConstant = "List versions of one package"
	versionsCommandLongDescriptionConstant  = "versions lists the versions of the named package, optionally narrowed to one numeric version identifier."
	versionsCommandErrorTemplateConstant    = "versions listing failed: %w"
	ownerFlagNameConstant                   = "owner"
	ownerFlagDescriptionConstant            = "User or organization that owns the packages"
	ownerTypeFlagNameConstant               = "owner-type"
	ownerTypeFlagDescriptionConstant        = "Owner type: user or org"
	tokenSourceFlagNameConstant             = "token-source"
	tokenSourceFlagDescriptionConstant      = "Token source (env:NAME or file:/path)"
	versionFlagNameConstant                 = "version"
	versionFlagDescriptionConstant          = "Numeric version identifier; % lists every version"
	showPackageNameFlagNameConstant         = "show-pkg-name"
	showPackageNameFlagDescriptionConstant  = "Prefix each line with the package name"
	rawFlagNameConstant                     = "raw"
	rawFlagDescriptionConstant              = "Emit tab-separated rows without headers"
	ownerTypeParseErrorTemplateConstant     = "invalid owner type: %w"
	tokenSourceParseErrorTemplateConstant   = "invalid token source: %w"
	defaultTokenSourceValueConstant         = "env:PKGSWEEP_TOKEN"
	groupArgumentIndexConstant              = 0
	artifactArgumentIndexConstant           = 1
	packageNameArgumentIndexConstant        = 0
	packagesPositionalArgumentLimitConstant = 2
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the registry settings commands resolve against.
type ConfigurationProvider func() registry.Settings

// Executor resolves package and version inventories.
type Executor interface {
	ResolvePackages(executionContext context.Context, query PackageQuery) ([]registry.Package, error)
	ResolveVersions(executionContext context.Context, query VersionQuery) ([]registry.Version, error)
}

// ServiceResolver creates inventory executors for the commands.
type ServiceResolver interface {
	Resolve(logger *zap.Logger) (Executor, error)
}

// CommandBuilder assembles the packages and versions listing commands.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	HTTPClient            registry.HTTPClient
	EnvironmentLookup     registry.EnvironmentLookup
	FileReader            registry.FileReader
	TokenResolver         registry.TokenResolver
}

// BuildPackagesCommand constructs the packages listing command.
func (builder *CommandBuilder) BuildPackagesCommand() (*cobra.Command, error) {
	packagesCommand := &cobra.Command{
		Use:   packagesCommandUseConstant,
		Short: packagesCommandShortDescriptionConstant,
		Long:  packagesCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(packagesPositionalArgumentLimitConstant),
		RunE:  builder.runPackages,
	}

	registerScopeFlags(packagesCommand)
	registerRenderFlags(packagesCommand)

	return packagesCommand, nil
}

// BuildVersionsCommand constructs the versions listing command.
func (builder *CommandBuilder) BuildVersionsCommand() (*cobra.Command, error) {
	versionsCommand := &cobra.Command{
		Use:   versionsCommandUseConstant,
		Short: versionsCommandShortDescriptionConstant,
		Long:  versionsCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runVersions,
	}

	registerScopeFlags(versionsCommand)
	registerRenderFlags(versionsCommand)
	versionsCommand.Flags().String(versionFlagNameConstant, filter.WildcardToken, versionFlagDescriptionConstant)

	return versionsCommand, nil
}

func (builder *CommandBuilder) runPackages(command *cobra.Command, arguments []string) error {
	scope, scopeError := builder.parseScope(command)
	if scopeError != nil {
		return scopeError
	}

	renderOptions, renderOptionsError := parseRenderOptions(command)
	if renderOptionsError != nil {
		return renderOptionsError
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.resolveService(logger, scope.settings)
	if serviceError != nil {
		return serviceError
	}

	packageQuery := PackageQuery{
		Owner:          scope.owner,
		OwnerType:      scope.ownerType,
		TokenSource:    scope.tokenSource,
		GroupFilter:    argumentOrWildcard(arguments, groupArgumentIndexConstant),
		ArtifactFilter: argumentOrWildcard(arguments, artifactArgumentIndexConstant),
	}

	matchingPackages, resolutionError := service.ResolvePackages(command.Context(), packageQuery)
	if resolutionError != nil {
		return fmt.Errorf(packagesCommandErrorTemplateConstant, resolutionError)
	}

	return render.WritePackages(command.OutOrStdout(), matchingPackages, renderOptions)
}

func (builder *CommandBuilder) runVersions(command *cobra.Command, arguments []string) error {
	scope, scopeError := builder.parseScope(command)
	if scopeError != nil {
		return scopeError
	}

	renderOptions, renderOptionsError := parseRenderOptions(command)
	if renderOptionsError != nil {
		return renderOptionsError
	}

	versionFilterValue, versionFlagError := command.Flags().GetString(versionFlagNameConstant)
	if versionFlagError != nil {
		return versionFlagError
	}

	logger := builder.resolveLogger()
	service, serviceError := builder.resolveService(logger, scope.settings)
	if serviceError != nil {
		return serviceError
	}

	packageName := arguments[packageNameArgumentIndexConstant]
	versionQuery := VersionQuery{
		Owner:         scope.owner,
		OwnerType:     scope.ownerType,
		TokenSource:   scope.tokenSource,
		PackageName:   packageName,
		VersionFilter: versionFilterValue,
	}

	matchingVersions, resolutionError := service.ResolveVersions(command.Context(), versionQuery)
	if resolutionError != nil {
		return fmt.Errorf(versionsCommandErrorTemplateConstant, resolutionError)
	}

	return render.WriteVersions(command.OutOrStdout(), packageName, matchingVersions, renderOptions)
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

func (builder *CommandBuilder) resolveService(logger *zap.Logger, settings registry.Settings) (Executor, error) {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver.Resolve(logger)
	}

	defaultResolver := &DefaultServiceResolver{
		HTTPClient:          builder.HTTPClient,
		ClientConfiguration: settings.ClientConfiguration(),
		EnvironmentLookup:   builder.EnvironmentLookup,
		FileReader:          builder.FileReader,
		TokenResolver:       builder.TokenResolver,
	}

	return defaultResolver.Resolve(logger)
}

func registerScopeFlags(command *cobra.Command) {
	command.Flags().String(ownerFlagNameConstant, "", ownerFlagDescriptionConstant)
	command.Flags().String(ownerTypeFlagNameConstant, "", ownerTypeFlagDescriptionConstant)
	command.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)
}

func registerRenderFlags(command *cobra.Command) {
	command.Flags().Bool(showPackageNameFlagNameConstant, false, showPackageNameFlagDescriptionConstant)
	command.Flags().Bool(rawFlagNameConstant, false, rawFlagDescriptionConstant)
}

func parseRenderOptions(command *cobra.Command) (render.Options, error) {
	showPackageNameValue, showPackageNameFlagError := command.Flags().GetBool(showPackageNameFlagNameConstant)
	if showPackageNameFlagError != nil {
		return render.Options{}, showPackageNameFlagError
	}

	rawValue, rawFlagError := command.Flags().GetBool(rawFlagNameConstant)
	if rawFlagError != nil {
		return render.Options{}, rawFlagError
	}

	return render.Options{ShowPackageName: showPackageNameValue, Raw: rawValue}, nil
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
