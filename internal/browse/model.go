package browse

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/temirov/pkgsweep/internal/filter"
	"github.com/temirov/pkgsweep/internal/inventory"
	"github.com/temirov/pkgsweep/internal/purge"
	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	browserTitleTemplateConstant         = "VERSIONS: %s"
	packageNameJoinSeparatorConstant     = ", "
	rowTemplateConstant                  = "%s  %s  %s"
	selectedCursorConstant               = "> "
	unselectedCursorConstant             = "  "
	helpLineConstant                     = "j/k move · r reload · d delete · q quit"
	loadingStatusConstant                = "loading versions..."
	emptyListingStatusConstant           = "no versions found"
	loadedStatusTemplateConstant         = "%d versions listed"
	deletedVersionStatusTemplateConstant = "deleted version %s of %s"
	collapsedStatusTemplateConstant      = "deleted package %s (last version)"
	deletionFailedStatusTemplateConstant = "deletion failed: %s"
	reloadFailedStatusTemplateConstant   = "reload failed: %s"
	rowTimestampLayoutConstant           = time.RFC3339
	quitKeyConstant                      = "q"
	interruptKeyConstant                 = "ctrl+c"
	moveUpKeyConstant                    = "k"
	moveUpArrowKeyConstant               = "up"
	moveDownKeyConstant                  = "j"
	moveDownArrowKeyConstant             = "down"
	reloadKeyConstant                    = "r"
	deleteKeyConstant                    = "d"
	defaultListHeightConstant            = 20
	viewChromeLineCountConstant          = 5
	minimumListHeightConstant            = 1
)

// VersionRow pairs one version with its parent package name for display.
type VersionRow struct {
	PackageName string
	Version     registry.Version
}

// VersionLister resolves the versions the browser displays.
type VersionLister interface {
	ResolveVersions(executionContext context.Context, query inventory.VersionQuery) ([]registry.Version, error)
}

// VersionDeleter removes one version, collapsing a package's last version into a package deletion.
type VersionDeleter interface {
	DeleteSingleVersion(executionContext context.Context, options purge.SingleVersionOptions) (purge.DeletionResult, error)
}

// VersionsLoadedMessage delivers reloaded rows to the model.
type VersionsLoadedMessage struct {
	Rows      []VersionRow
	LoadError error
}

// DeletionCompletedMessage delivers the outcome of a delete-selected action.
type DeletionCompletedMessage struct {
	Result        purge.DeletionResult
	DeletionError error
}

// ModelConfiguration wires the browser model to its collaborators and owner scope.
type ModelConfiguration struct {
	ExecutionContext context.Context
	Lister           VersionLister
	Deleter          VersionDeleter
	Owner            string
	OwnerType        registry.OwnerType
	TokenSource      registry.TokenSource
	PackageNames     []string
}

// Model is the bubbletea state for the interactive version browser.
type Model struct {
	executionContext context.Context
	lister           VersionLister
	deleter          VersionDeleter
	owner            string
	ownerType        registry.OwnerType
	tokenSource      registry.TokenSource
	packageNames     []string

	Rows            []VersionRow
	SelectedIndex   int
	ListOffset      int
	ListHeight      int
	StatusLine      string
	StatusIsFailure bool
	loading         bool
}

// NewModel builds a browser model; the initial version load runs from Init.
func NewModel(configuration ModelConfiguration) *Model {
	executionContext := configuration.ExecutionContext
	if executionContext == nil {
		executionContext = context.Background()
	}

	return &Model{
		executionContext: executionContext,
		lister:           configuration.Lister,
		deleter:          configuration.Deleter,
		owner:            configuration.Owner,
		ownerType:        configuration.OwnerType,
		tokenSource:      configuration.TokenSource,
		packageNames:     configuration.PackageNames,
		ListHeight:       defaultListHeightConstant,
		StatusLine:       loadingStatusConstant,
		loading:          true,
	}
}

// Init starts the first version load.
func (model *Model) Init() tea.Cmd {
	return model.reloadCommand()
}

// Update handles key presses, window sizing, and load or deletion outcomes.
func (model *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch typedMessage := message.(type) {
	case tea.KeyMsg:
		return model.handleKey(typedMessage)

	case tea.WindowSizeMsg:
		model.ListHeight = typedMessage.Height - viewChromeLineCountConstant
		if model.ListHeight < minimumListHeightConstant {
			model.ListHeight = minimumListHeightConstant
		}
		model.ensureVisible()

	case VersionsLoadedMessage:
		model.loading = false
		if typedMessage.LoadError != nil {
			model.StatusLine = fmt.Sprintf(reloadFailedStatusTemplateConstant, typedMessage.LoadError)
			model.StatusIsFailure = true
			return model, nil
		}
		model.Rows = typedMessage.Rows
		model.clampSelection()
		model.StatusLine = fmt.Sprintf(loadedStatusTemplateConstant, len(model.Rows))
		model.StatusIsFailure = false

	case DeletionCompletedMessage:
		return model, model.applyDeletionOutcome(typedMessage)
	}

	return model, nil
}

func (model *Model) handleKey(keyMessage tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keyMessage.String() {
	case quitKeyConstant, interruptKeyConstant:
		return model, tea.Quit

	case moveUpKeyConstant, moveUpArrowKeyConstant:
		if model.SelectedIndex > 0 {
			model.SelectedIndex--
			model.ensureVisible()
		}

	case moveDownKeyConstant, moveDownArrowKeyConstant:
		if model.SelectedIndex < len(model.Rows)-1 {
			model.SelectedIndex++
			model.ensureVisible()
		}

	case reloadKeyConstant:
		if !model.loading {
			model.loading = true
			model.StatusLine = loadingStatusConstant
			model.StatusIsFailure = false
			return model, model.reloadCommand()
		}

	case deleteKeyConstant:
		if !model.loading {
			deleteCommand := model.deleteSelectedCommand()
			if deleteCommand != nil {
				model.loading = true
				return model, deleteCommand
			}
		}
	}

	return model, nil
}

// View renders the title, the visible row window, the status line, and the key help.
func (model *Model) View() string {
	var viewBuilder strings.Builder

	title := fmt.Sprintf(browserTitleTemplateConstant, strings.Join(model.packageNames, packageNameJoinSeparatorConstant))
	viewBuilder.WriteString(titleStyle.Render(title))
	viewBuilder.WriteString("\n\n")

	if len(model.Rows) == 0 {
		viewBuilder.WriteString(helpStyle.Render(emptyListingStatusConstant))
		viewBuilder.WriteString("\n")
	}

	windowStart := model.ListOffset
	windowEnd := model.ListOffset + model.ListHeight
	if windowEnd > len(model.Rows) {
		windowEnd = len(model.Rows)
	}
	if windowStart > windowEnd {
		windowStart = windowEnd
	}

	for rowIndex := windowStart; rowIndex < windowEnd; rowIndex++ {
		viewBuilder.WriteString(model.renderRow(rowIndex))
		viewBuilder.WriteString("\n")
	}

	viewBuilder.WriteString("\n")
	statusStyle := successStatusStyle
	if model.StatusIsFailure {
		statusStyle = failureStatusStyle
	}
	viewBuilder.WriteString(statusStyle.Render(model.StatusLine))
	viewBuilder.WriteString("\n")
	viewBuilder.WriteString(helpStyle.Render(helpLineConstant))

	return viewBuilder.String()
}

func (model *Model) renderRow(rowIndex int) string {
	row := model.Rows[rowIndex]
	rowText := fmt.Sprintf(
		rowTemplateConstant,
		row.PackageName,
		row.Version.Name,
		row.Version.UpdatedAt.Format(rowTimestampLayoutConstant),
	)

	if rowIndex == model.SelectedIndex {
		return selectedRowStyle.Render(selectedCursorConstant + rowText)
	}
	return rowStyle.Render(unselectedCursorConstant + rowText)
}

func (model *Model) reloadCommand() tea.Cmd {
	return func() tea.Msg {
		reloadedRows := make([]VersionRow, 0)
		for _, packageName := range model.packageNames {
			resolvedVersions, resolutionError := model.lister.ResolveVersions(model.executionContext, inventory.VersionQuery{
				Owner:         model.owner,
				OwnerType:     model.ownerType,
				TokenSource:   model.tokenSource,
				PackageName:   packageName,
				VersionFilter: filter.WildcardToken,
			})
			if resolutionError != nil {
				return VersionsLoadedMessage{LoadError: resolutionError}
			}
			for _, resolvedVersion := range resolvedVersions {
				reloadedRows = append(reloadedRows, VersionRow{PackageName: packageName, Version: resolvedVersion})
			}
		}
		return VersionsLoadedMessage{Rows: reloadedRows}
	}
}

func (model *Model) deleteSelectedCommand() tea.Cmd {
	selectedRow, rowSelected := model.selectedRow()
	if !rowSelected {
		return nil
	}

	return func() tea.Msg {
		result, deletionError := model.deleter.DeleteSingleVersion(model.executionContext, purge.SingleVersionOptions{
			Owner:       model.owner,
			OwnerType:   model.ownerType,
			TokenSource: model.tokenSource,
			PackageName: selectedRow.PackageName,
			Version:     selectedRow.Version,
		})
		return DeletionCompletedMessage{Result: result, DeletionError: deletionError}
	}
}

func (model *Model) applyDeletionOutcome(message DeletionCompletedMessage) tea.Cmd {
	model.loading = false

	if message.DeletionError != nil {
		model.StatusLine = fmt.Sprintf(deletionFailedStatusTemplateConstant, message.DeletionError)
		model.StatusIsFailure = true
		return nil
	}

	result := message.Result
	switch {
	case result.Err != nil:
		model.StatusLine = fmt.Sprintf(deletionFailedStatusTemplateConstant, result.Err)
		model.StatusIsFailure = true
	case result.Scope == purge.PackageDeletionScope:
		model.StatusLine = fmt.Sprintf(collapsedStatusTemplateConstant, result.PackageName)
		model.StatusIsFailure = false
	default:
		versionName := ""
		if result.Version != nil {
			versionName = result.Version.Name
		}
		model.StatusLine = fmt.Sprintf(deletedVersionStatusTemplateConstant, versionName, result.PackageName)
		model.StatusIsFailure = false
	}

	// Every deletion attempt ends with a reload of the listing.
	model.loading = true
	return model.reloadCommand()
}

func (model *Model) ensureVisible() {
	if model.ListHeight <= 0 {
		return
	}
	if model.SelectedIndex < model.ListOffset {
		model.ListOffset = model.SelectedIndex
	} else if model.SelectedIndex >= model.ListOffset+model.ListHeight {
		model.ListOffset = model.SelectedIndex - model.ListHeight + 1
	}
}

func (model *Model) clampSelection() {
	if model.SelectedIndex >= len(model.Rows) {
		model.SelectedIndex = len(model.Rows) - 1
	}
	if model.SelectedIndex < 0 {
		model.SelectedIndex = 0
	}
	maximumOffset := len(model.Rows) - model.ListHeight
	if maximumOffset < 0 {
		maximumOffset = 0
	}
	if model.ListOffset > maximumOffset {
		model.ListOffset = maximumOffset
	}
	model.ensureVisible()
}

func (model *Model) selectedRow() (VersionRow, bool) {
	if model.SelectedIndex < 0 || model.SelectedIndex >= len(model.Rows) {
		return VersionRow{}, false
	}
	return model.Rows[model.SelectedIndex], true
}
