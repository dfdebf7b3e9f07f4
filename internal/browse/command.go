package browse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/inventory"
	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	browseCommandUseConstant              = "browse [package-name]"
	browseCommandShortDescriptionConstant = "Browse package versions interactively"
	browseCommandLongDescriptionConstant  = "browse opens a terminal listing of the matched packages' versions; r reloads the listing, d deletes the selected version, q quits."
	browseCommandErrorTemplateConstant    = "browse failed: %w"
	notATerminalMessageConstant           = "browse requires an interactive terminal"
	noMatchingPackagesTemplateConstant    = "no packages matched %q"
	ownerFlagNameConstant                 = "owner"
	ownerFlagDescriptionConstant          = "User or organization that owns the packages"
	ownerTypeFlagNameConstant             = "owner-type"
	ownerTypeFlagDescriptionConstant      = "Owner type: user or org"
	tokenSourceFlagNameConstant           = "token-source"
	tokenSourceFlagDescriptionConstant    = "Token source (env:NAME or file:/path)"
	ownerTypeParseErrorTemplateConstant   = "invalid owner type: %w"
	tokenSourceParseErrorTemplateConstant = "invalid token source: %w"
	defaultTokenSourceValueConstant       = "env:PKGSWEEP_TOKEN"
	noColorEnvironmentVariableConstant    = "NO_COLOR"
	packageNameArgumentIndexConstant      = 0
	browseCommandArgumentLimitConstant    = 1
)

// ErrNotATerminal reports that browse was launched without an interactive terminal attached.
var ErrNotATerminal = errors.New(notATerminalMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the registry settings commands resolve against.
type ConfigurationProvider func() registry.Settings

// TerminalChecker reports whether the process is attached to an interactive terminal.
type TerminalChecker func() bool

// PackageLister resolves the packages whose versions the browser lists.
type PackageLister interface {
	ResolvePackages(executionContext context.Context, query inventory.PackageQuery) ([]registry.Package, error)
}

// Services bundles the collaborators the browse command wires into the model.
type Services struct {
	Packages PackageLister
	Versions VersionLister
	Deleter  VersionDeleter
}

// ServiceResolver creates the services backing the browser.
type ServiceResolver interface {
	Resolve(logger *zap.Logger) (Services, error)
}

// CommandBuilder assembles the browse command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       ServiceResolver
	HTTPClient            registry.HTTPClient
	EnvironmentLookup     registry.EnvironmentLookup
	FileReader            registry.FileReader
	TokenResolver         registry.TokenResolver
	TerminalChecker       TerminalChecker
	ProgramOptions        []tea.ProgramOption
}

// BuildBrowseCommand constructs the interactive browse command.
func (builder *CommandBuilder) BuildBrowseCommand() (*cobra.Command, error) {
	browseCommand := &cobra.Command{
		Use:   browseCommandUseConstant,
		Short: browseCommandShortDescriptionConstant,
		Long:  browseCommandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(browseCommandArgumentLimitConstant),
		RunE:  builder.runBrowse,
	}

	registerScopeFlags(browseCommand)

	return browseCommand, nil
}

func (builder *CommandBuilder) runBrowse(command *cobra.Command, arguments []string) error {
	if !builder.resolveTerminalChecker()() {
		return ErrNotATerminal
	}

	scope, scopeError := builder.parseScope(command)
	if scopeError != nil {
		return scopeError
	}

	logger := builder.resolveLogger()
	services, servicesError := builder.resolveServices(logger, scope.settings)
	if servicesError != nil {
		return servicesError
	}

	requestedName := filter.WildcardToken
	if packageNameArgumentIndexConstant < len(arguments) {
		requestedName = arguments[packageNameArgumentIndexConstant]
	}

	matchedPackages, resolutionError := services.Packages.ResolvePackages(command.Context(), inventory.PackageQuery{
		Owner:          scope.owner,
		OwnerType:      scope.ownerType,
		TokenSource:    scope.tokenSource,
		GroupFilter:    filter.WildcardToken,
		ArtifactFilter: filter.WildcardToken,
	})
	if resolutionError != nil {
		return fmt.Errorf(browseCommandErrorTemplateConstant, resolutionError)
	}

	browsedNames := selectBrowsedPackageNames(matchedPackages, requestedName)
	if len(browsedNames) == 0 {
		return fmt.Errorf(noMatchingPackagesTemplateConstant, requestedName)
	}

	lipgloss.SetColorProfile(colorProfile())

	browserModel := NewModel(ModelConfiguration{
		ExecutionContext: command.Context(),
		Lister:           services.Versions,
		Deleter:          services.Deleter,
		Owner:            scope.owner,
		OwnerType:        scope.ownerType,
		TokenSource:      scope.tokenSource,
		PackageNames:     browsedNames,
	})

	program := tea.NewProgram(browserModel, builder.ProgramOptions...)
	if _, runError := program.Run(); runError != nil {
		return fmt.Errorf(browseCommandErrorTemplateConstant, runError)
	}
	return nil
}

func selectBrowsedPackageNames(packages []registry.Package, requestedName string) []string {
	browsedNames := make([]string, 0, len(packages))
	for _, candidatePackage := range packages {
		if requestedName != filter.WildcardToken && candidatePackage.Name != requestedName {
			continue
		}
		browsedNames = append(browsedNames, candidatePackage.Name)
	}
	return browsedNames
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

func (builder *CommandBuilder) resolveServices(logger *zap.Logger, settings registry.Settings) (Services, error) {
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

func (builder *CommandBuilder) resolveTerminalChecker() TerminalChecker {
	if builder.TerminalChecker != nil {
		return builder.TerminalChecker
	}
	return func() bool {
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func colorProfile() termenv.Profile {
	if len(os.Getenv(noColorEnvironmentVariableConstant)) > 0 {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

func registerScopeFlags(command *cobra.Command) {
	command.Flags().String(ownerFlagNameConstant, "", ownerFlagDescriptionConstant)
	command.Flags().String(ownerTypeFlagNameConstant, "", ownerTypeFlagDescriptionConstant)
	command.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}

	return strings.TrimSpace(configurationValue)
}
