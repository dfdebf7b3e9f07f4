package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	tokenSourceEnvironmentNameConstant  = "REGISTRY_TOKEN"
	tokenSourceFilePathConstant         = "/secrets/registry-token"
	tokenSourceEnvironmentValueConstant = "environment-token-value"
	tokenSourceFileValueConstant        = "file-token-value\n"
	tokenSourceFileTrimmedConstant      = "file-token-value"
	tokenSourceReadFailureConstant      = "permission denied"
)

func TestParseTokenSource(testInstance *testing.T) {
	testCases := []struct {
		name           string
		sourceValue    string
		expectedSource registry.TokenSource
		expectError    bool
	}{
		{
			name:           "bare_name_defaults_to_environment",
			sourceValue:    tokenSourceEnvironmentNameConstant,
			expectedSource: registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
		},
		{
			name:           "environment_prefix",
			sourceValue:    "env:" + tokenSourceEnvironmentNameConstant,
			expectedSource: registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
		},
		{
			name:           "file_prefix",
			sourceValue:    "file:" + tokenSourceFilePathConstant,
			expectedSource: registry.TokenSource{Kind: registry.TokenSourceKindFile, Reference: tokenSourceFilePathConstant},
		},
		{
			name:           "padded_declaration",
			sourceValue:    "  env: " + tokenSourceEnvironmentNameConstant + "  ",
			expectedSource: registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
		},
		{name: "empty_declaration", sourceValue: "", expectError: true},
		{name: "environment_without_name", sourceValue: "env:", expectError: true},
		{name: "file_without_path", sourceValue: "file:", expectError: true},
		{name: "unsupported_kind", sourceValue: "vault:secret/token", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedSource, parseError := registry.ParseTokenSource(testCase.sourceValue)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedSource, parsedSource)
		})
	}
}

func TestResolveToken(testInstance *testing.T) {
	testCases := []struct {
		name              string
		source            registry.TokenSource
		environmentValues map[string]string
		fileContents      map[string]string
		fileError         error
		expectedToken     string
		expectError       bool
	}{
		{
			name:              "environment_token",
			source:            registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
			environmentValues: map[string]string{tokenSourceEnvironmentNameConstant: tokenSourceEnvironmentValueConstant},
			expectedToken:     tokenSourceEnvironmentValueConstant,
		},
		{
			name:        "environment_variable_missing",
			source:      registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
			expectError: true,
		},
		{
			name:              "environment_variable_blank",
			source:            registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: tokenSourceEnvironmentNameConstant},
			environmentValues: map[string]string{tokenSourceEnvironmentNameConstant: "   "},
			expectError:       true,
		},
		{
			name:          "file_token_trimmed",
			source:        registry.TokenSource{Kind: registry.TokenSourceKindFile, Reference: tokenSourceFilePathConstant},
			fileContents:  map[string]string{tokenSourceFilePathConstant: tokenSourceFileValueConstant},
			expectedToken: tokenSourceFileTrimmedConstant,
		},
		{
			name:        "file_read_failure",
			source:      registry.TokenSource{Kind: registry.TokenSourceKindFile, Reference: tokenSourceFilePathConstant},
			fileError:   errors.New(tokenSourceReadFailureConstant),
			expectError: true,
		},
		{
			name:         "file_empty",
			source:       registry.TokenSource{Kind: registry.TokenSourceKindFile, Reference: tokenSourceFilePathConstant},
			fileContents: map[string]string{tokenSourceFilePathConstant: "  \n"},
			expectError:  true,
		},
		{
			name:        "unsupported_kind",
			source:      registry.TokenSource{Kind: registry.TokenSourceKind("vault"), Reference: "secret/token"},
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			environmentLookup := func(key string) (string, bool) {
				value, found := testCase.environmentValues[key]
				return value, found
			}
			fileReader := func(path string) ([]byte, error) {
				if testCase.fileError != nil {
					return nil, testCase.fileError
				}
				contents, found := testCase.fileContents[path]
				if !found {
					return nil, errors.New(tokenSourceReadFailureConstant)
				}
				return []byte(contents), nil
			}

			resolver := registry.NewTokenResolver(environmentLookup, fileReader)
			resolvedToken, resolutionError := resolver.ResolveToken(context.Background(), testCase.source)
			if testCase.expectError {
				require.Error(testInstance, resolutionError)
				return
			}
			require.NoError(testInstance, resolutionError)
			require.Equal(testInstance, testCase.expectedToken, resolvedToken)
		})
	}
}
