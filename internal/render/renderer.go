package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	timestampLayoutConstant              = time.RFC3339
	tabSeparatorRuneConstant             = '\t'
	columnSeparatorConstant              = "\t"
	tabwriterMinimumCellWidthConstant    = 0
	tabwriterTabWidthConstant            = 8
	tabwriterCellPaddingConstant         = 2
	tabwriterPaddingCharacterConstant    = ' '
	tabwriterFormattingFlagsConstant     = 0
	packageColumnHeaderConstant          = "PACKAGE"
	identifierColumnHeaderConstant       = "ID"
	nameColumnHeaderConstant             = "NAME"
	versionCountColumnHeaderConstant     = "VERSIONS"
	updatedColumnHeaderConstant          = "UPDATED"
	urlColumnHeaderConstant              = "URL"
	deletionPackageLineTemplateConstant  = "package %s: %s\n"
	deletionVersionLineTemplateConstant  = "version %d (%s) of %s: %s\n"
	deletedOutcomeLabelConstant          = "deleted"
	dryRunOutcomeLabelConstant           = "dry-run"
	failedOutcomeTemplateConstant        = "failed: %s"
)

// Options adjust listing layout.
type Options struct {
	ShowPackageName bool
	Raw             bool
}

// DeletionScope identifies whether a deletion removed a whole package or one version.
type DeletionScope string

// Deletion scope enumerations.
const (
	PackageDeletionScope DeletionScope = "package"
	VersionDeletionScope DeletionScope = "version"
)

// DeletionRecord describes one attempted deletion for reporting.
type DeletionRecord struct {
	Scope       DeletionScope
	PackageName string
	VersionID   int64
	VersionName string
	DryRun      bool
	Failure     error
}

// WritePackages renders one line per package record.
func WritePackages(outputWriter io.Writer, packages []registry.Package, options Options) error {
	rows := make([][]string, 0, len(packages))
	for _, packageRecord := range packages {
		row := []string{
			strconv.FormatInt(packageRecord.ID, 10),
			packageRecord.Name,
			strconv.FormatInt(packageRecord.VersionCount, 10),
			packageRecord.UpdatedAt.Format(timestampLayoutConstant),
			packageRecord.URL,
		}
		if options.ShowPackageName {
			row = append([]string{packageRecord.Name}, row...)
		}
		rows = append(rows, row)
	}

	headerColumns := []string{
		identifierColumnHeaderConstant,
		nameColumnHeaderConstant,
		versionCountColumnHeaderConstant,
		updatedColumnHeaderConstant,
		urlColumnHeaderConstant,
	}
	if options.ShowPackageName {
		headerColumns = append([]string{packageColumnHeaderConstant}, headerColumns...)
	}

	if options.Raw {
		return writeRawRows(outputWriter, rows)
	}
	return writeTabularRows(outputWriter, headerColumns, rows)
}

// WriteVersions renders one line per version record of the named package.
func WriteVersions(outputWriter io.Writer, packageName string, versions []registry.Version, options Options) error {
	rows := make([][]string, 0, len(versions))
	for _, versionRecord := range versions {
		row := []string{
			strconv.FormatInt(versionRecord.ID, 10),
			versionRecord.Name,
			versionRecord.UpdatedAt.Format(timestampLayoutConstant),
		}
		if options.ShowPackageName {
			row = append([]string{packageName}, row...)
		}
		rows = append(rows, row)
	}

	headerColumns := []string{
		identifierColumnHeaderConstant,
		nameColumnHeaderConstant,
		updatedColumnHeaderConstant,
	}
	if options.ShowPackageName {
		headerColumns = append([]string{packageColumnHeaderConstant}, headerColumns...)
	}

	if options.Raw {
		return writeRawRows(outputWriter, rows)
	}
	return writeTabularRows(outputWriter, headerColumns, rows)
}

// WriteDeletionRecord renders one outcome line for an attempted deletion.
func WriteDeletionRecord(outputWriter io.Writer, record DeletionRecord) error {
	outcomeLabel := deletedOutcomeLabelConstant
	switch {
	case record.Failure != nil:
		outcomeLabel = fmt.Sprintf(failedOutcomeTemplateConstant, record.Failure)
	case record.DryRun:
		outcomeLabel = dryRunOutcomeLabelConstant
	}

	if record.Scope == PackageDeletionScope {
		_, writeError := fmt.Fprintf(outputWriter, deletionPackageLineTemplateConstant, record.PackageName, outcomeLabel)
		return writeError
	}

	_, writeError := fmt.Fprintf(outputWriter, deletionVersionLineTemplateConstant, record.VersionID, record.VersionName, record.PackageName, outcomeLabel)
	return writeError
}

func writeTabularRows(outputWriter io.Writer, headerColumns []string, rows [][]string) error {
	tabularWriter := tabwriter.NewWriter(
		outputWriter,
		tabwriterMinimumCellWidthConstant,
		tabwriterTabWidthConstant,
		tabwriterCellPaddingConstant,
		tabwriterPaddingCharacterConstant,
		tabwriterFormattingFlagsConstant,
	)

	if writeError := writeColumnLine(tabularWriter, headerColumns); writeError != nil {
		return writeError
	}
	for _, row := range rows {
		if writeError := writeColumnLine(tabularWriter, row); writeError != nil {
			return writeError
		}
	}

	return tabularWriter.Flush()
}

func writeColumnLine(outputWriter io.Writer, columns []string) error {
	_, writeError := fmt.Fprintln(outputWriter, strings.Join(columns, columnSeparatorConstant))
	return writeError
}

func writeRawRows(outputWriter io.Writer, rows [][]string) error {
	csvWriter := csv.NewWriter(outputWriter)
	csvWriter.Comma = tabSeparatorRuneConstant
	for _, row := range rows {
		if writeError := csvWriter.Write(row); writeError != nil {
			return writeError
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
