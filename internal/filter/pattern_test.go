package filter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pkgsweep/internal/filter"
)

const (
	parseSingleWildcardCaseNameConstant   = "single_wildcard"
	parseLiteralOnlyCaseNameConstant      = "literal_only"
	parseMixedTokensCaseNameConstant      = "mixed_tokens"
	parseAdjacentWildcardCaseNameConstant = "adjacent_wildcards"
	parseEmptyPatternCaseNameConstant     = "empty_pattern"
)

func TestParsePattern(testInstance *testing.T) {
	testCases := []struct {
		name           string
		patternText    string
		expectedTokens []filter.Token
	}{
		{
			name:           parseSingleWildcardCaseNameConstant,
			patternText:    "%",
			expectedTokens: []filter.Token{{Kind: filter.TokenKindWildcard}},
		},
		{
			name:           parseLiteralOnlyCaseNameConstant,
			patternText:    "com.acme",
			expectedTokens: []filter.Token{{Kind: filter.TokenKindLiteral, Literal: "com.acme"}},
		},
		{
			name:        parseMixedTokensCaseNameConstant,
			patternText: "com.%x",
			expectedTokens: []filter.Token{
				{Kind: filter.TokenKindLiteral, Literal: "com."},
				{Kind: filter.TokenKindWildcard},
				{Kind: filter.TokenKindLiteral, Literal: "x"},
			},
		},
		{
			name:        parseAdjacentWildcardCaseNameConstant,
			patternText: "%%",
			expectedTokens: []filter.Token{
				{Kind: filter.TokenKindWildcard},
				{Kind: filter.TokenKindWildcard},
			},
		},
		{
			name:           parseEmptyPatternCaseNameConstant,
			patternText:    "",
			expectedTokens: []filter.Token{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedPattern := filter.ParsePattern(testCase.patternText)
			require.Equal(testInstance, testCase.expectedTokens, parsedPattern.Tokens())
		})
	}
}

func TestIsWildcard(testInstance *testing.T) {
	testCases := []struct {
		name       string
		filterText string
		expected   bool
	}{
		{name: "bare_wildcard", filterText: "%", expected: true},
		{name: "padded_wildcard", filterText: " % ", expected: true},
		{name: "double_wildcard", filterText: "%%", expected: false},
		{name: "literal", filterText: "1.2.3", expected: false},
		{name: "empty", filterText: "", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, filter.IsWildcard(testCase.filterText))
		})
	}
}

func TestPackagePatternMatches(testInstance *testing.T) {
	testCases := []struct {
		name             string
		groupPattern     string
		artifactPattern  string
		matchingNames    []string
		nonMatchingNames []string
	}{
		{
			name:            "wildcard_defaults_match_everything",
			groupPattern:    "%",
			artifactPattern: "%",
			matchingNames:   []string{"com.acme.lib", "org.example.tool", "a.b"},
		},
		{
			name:             "literal_filters_match_exactly",
			groupPattern:     "com.acme",
			artifactPattern:  "lib",
			matchingNames:    []string{"com.acme.lib"},
			nonMatchingNames: []string{"com.acme.libx", "xcom.acme.lib", "com.acme.lib.extra", "comxacme.lib"},
		},
		{
			name:             "group_literal_artifact_wildcard",
			groupPattern:     "com.acme",
			artifactPattern:  "%",
			matchingNames:    []string{"com.acme.lib", "com.acme.util", "com.acme.sub.lib"},
			nonMatchingNames: []string{"com.acme", "org.acme.lib"},
		},
		{
			name:             "artifact_prefix_wildcard",
			groupPattern:     "com.acme",
			artifactPattern:  "lib%",
			matchingNames:    []string{"com.acme.lib", "com.acme.libx", "com.acme.lib-core"},
			nonMatchingNames: []string{"com.acme.core-lib"},
		},
		{
			name:             "regex_metacharacters_stay_literal",
			groupPattern:     "com.acme+plus",
			artifactPattern:  "lib[1]",
			matchingNames:    []string{"com.acme+plus.lib[1]"},
			nonMatchingNames: []string{"com.acmeeplus.lib1", "com.acme+plus.lib1"},
		},
		{
			name:             "dot_in_literal_never_matches_other_characters",
			groupPattern:     "com.acme",
			artifactPattern:  "lib",
			matchingNames:    []string{"com.acme.lib"},
			nonMatchingNames: []string{"comAacme.lib", "com-acme.lib"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			packagePattern, compileError := filter.NewPackagePattern(testCase.groupPattern, testCase.artifactPattern)
			require.NoError(testInstance, compileError)

			for _, matchingName := range testCase.matchingNames {
				require.True(testInstance, packagePattern.Matches(matchingName), "expected %q to match %s", matchingName, packagePattern.String())
			}

			for _, nonMatchingName := range testCase.nonMatchingNames {
				require.False(testInstance, packagePattern.Matches(nonMatchingName), "expected %q not to match %s", nonMatchingName, packagePattern.String())
			}
		})
	}
}

func TestPackagePatternNilSafety(testInstance *testing.T) {
	var packagePattern *filter.PackagePattern
	require.False(testInstance, packagePattern.Matches("com.acme.lib"))
	require.Empty(testInstance, packagePattern.String())
}
