package purge_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/pkgsweep/internal/purge"
	"github.com/temirov/pkgsweep/internal/registry"
)

const (
	commandTestOwnerConstant           = "acme-team"
	commandTestConfiguredOwnerConstant = "configured-owner"
)

type engineStub struct {
	observer        purge.Observer
	packageOptions  []purge.PackageDeletionOptions
	versionOptions  []purge.VersionDeletionOptions
	packageResults  []purge.DeletionResult
	versionResults  []purge.DeletionResult
	packagesSummary purge.BatchSummary
	versionsSummary purge.BatchSummary
	packagesError   error
	versionsError   error
}

func (stub *engineStub) DeletePackages(executionContext context.Context, options purge.PackageDeletionOptions) (purge.BatchSummary, error) {
	stub.packageOptions = append(stub.packageOptions, options)
	for _, result := range stub.packageResults {
		if stub.observer != nil {
			stub.observer(result)
		}
	}
	return stub.packagesSummary, stub.packagesError
}

func (stub *engineStub) DeleteVersions(executionContext context.Context, options purge.VersionDeletionOptions) (purge.BatchSummary, error) {
	stub.versionOptions = append(stub.versionOptions, options)
	for _, result := range stub.versionResults {
		if stub.observer != nil {
			stub.observer(result)
		}
	}
	return stub.versionsSummary, stub.versionsError
}

type purgeServiceResolverStub struct {
	engine       *engineStub
	resolveError error
	observers    []purge.Observer
}

func (stub *purgeServiceResolverStub) Resolve(logger *zap.Logger, observer purge.Observer) (purge.Engine, error) {
	stub.observers = append(stub.observers, observer)
	if stub.resolveError != nil {
		return nil, stub.resolveError
	}
	stub.engine.observer = observer
	return stub.engine, nil
}

func buildPurgeCommandBuilder(engine *engineStub, configuration registry.Settings) *purge.CommandBuilder {
	return &purge.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() registry.Settings { return configuration },
		ServiceResolver:       &purgeServiceResolverStub{engine: engine},
	}
}

func TestDeleteCommandForwardsOptions(testInstance *testing.T) {
	configuredSettings := registry.DefaultSettings()
	configuredSettings.Owner = commandTestConfiguredOwnerConstant

	testCases := []struct {
		name            string
		arguments       []string
		configuration   registry.Settings
		expectedOptions purge.PackageDeletionOptions
	}{
		{
			name:          "missing_filters_default_to_wildcards",
			arguments:     []string{"--owner", commandTestOwnerConstant},
			configuration: registry.DefaultSettings(),
			expectedOptions: purge.PackageDeletionOptions{
				Owner:          commandTestOwnerConstant,
				OwnerType:      registry.UserOwnerType,
				TokenSource:    registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: "PKGSWEEP_TOKEN"},
				GroupFilter:    "%",
				ArtifactFilter: "%",
			},
		},
		{
			name:          "positional_filters_and_dry_run_forward",
			arguments:     []string{"com.acme", "lib%", "--owner", commandTestOwnerConstant, "--dry-run"},
			configuration: registry.DefaultSettings(),
			expectedOptions: purge.PackageDeletionOptions{
				Owner:          commandTestOwnerConstant,
				OwnerType:      registry.UserOwnerType,
				TokenSource:    registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: "PKGSWEEP_TOKEN"},
				GroupFilter:    "com.acme",
				ArtifactFilter: "lib%",
				DryRun:         true,
			},
		},
		{
			name:          "configuration_supplies_owner",
			arguments:     []string{},
			configuration: configuredSettings,
			expectedOptions: purge.PackageDeletionOptions{
				Owner:          commandTestConfiguredOwnerConstant,
				OwnerType:      registry.UserOwnerType,
				TokenSource:    registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: "PKGSWEEP_TOKEN"},
				GroupFilter:    "%",
				ArtifactFilter: "%",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			engine := &engineStub{}
			builder := buildPurgeCommandBuilder(engine, testCase.configuration)

			deleteCommand, buildError := builder.BuildDeleteCommand()
			require.NoError(subTest, buildError)

			outputBuffer := &bytes.Buffer{}
			deleteCommand.SetOut(outputBuffer)
			deleteCommand.SetErr(outputBuffer)
			deleteCommand.SetContext(context.Background())
			deleteCommand.SetArgs(testCase.arguments)

			require.NoError(subTest, deleteCommand.Execute())
			require.Len(subTest, engine.packageOptions, 1)
			require.Equal(subTest, testCase.expectedOptions, engine.packageOptions[0])
		})
	}
}

func TestDeleteCommandStreamsDeletionLines(testInstance *testing.T) {
	deletionFailure := errors.New("DeletePackage request returned status 500: boom")
	engine := &engineStub{
		packageResults: []purge.DeletionResult{
			{Scope: purge.PackageDeletionScope, PackageName: "com.acme.lib"},
			{Scope: purge.PackageDeletionScope, PackageName: "com.acme.util", Err: deletionFailure},
		},
		packagesSummary: purge.BatchSummary{Attempted: 2, Failed: 1},
		packagesError:   errors.New("1 of 2 deletions failed"),
	}
	builder := buildPurgeCommandBuilder(engine, registry.DefaultSettings())

	deleteCommand, buildError := builder.BuildDeleteCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	deleteCommand.SetOut(outputBuffer)
	deleteCommand.SetErr(&bytes.Buffer{})
	deleteCommand.SetContext(context.Background())
	deleteCommand.SetArgs([]string{"--owner", commandTestOwnerConstant})

	executionError := deleteCommand.Execute()
	require.Error(testInstance, executionError)
	require.ErrorContains(testInstance, executionError, "package deletion failed")
	require.ErrorContains(testInstance, executionError, "1 of 2 deletions failed")

	expectedOutput := "package com.acme.lib: deleted\n" +
		"package com.acme.util: failed: DeletePackage request returned status 500: boom\n"
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
}

func TestDeleteVersionCommandForwardsOptions(testInstance *testing.T) {
	engine := &engineStub{}
	builder := buildPurgeCommandBuilder(engine, registry.DefaultSettings())

	deleteVersionCommand, buildError := builder.BuildDeleteVersionCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	deleteVersionCommand.SetOut(outputBuffer)
	deleteVersionCommand.SetErr(outputBuffer)
	deleteVersionCommand.SetContext(context.Background())
	deleteVersionCommand.SetArgs([]string{"com.acme", "lib", "--owner", commandTestOwnerConstant, "--version", "7781", "--dry-run"})

	require.NoError(testInstance, deleteVersionCommand.Execute())
	require.Len(testInstance, engine.versionOptions, 1)
	require.Equal(testInstance, purge.VersionDeletionOptions{
		Owner:          commandTestOwnerConstant,
		OwnerType:      registry.UserOwnerType,
		TokenSource:    registry.TokenSource{Kind: registry.TokenSourceKindEnvironment, Reference: "PKGSWEEP_TOKEN"},
		GroupFilter:    "com.acme",
		ArtifactFilter: "lib",
		VersionFilter:  "7781",
		DryRun:         true,
	}, engine.versionOptions[0])
}

func TestDeleteVersionCommandRendersScopedLines(testInstance *testing.T) {
	engine := &engineStub{
		versionResults: []purge.DeletionResult{
			{Scope: purge.VersionDeletionScope, PackageName: "com.acme.lib", Version: &registry.Version{ID: 7781, Name: "1.0.3"}},
			{Scope: purge.PackageDeletionScope, PackageName: "com.acme.util", Version: &registry.Version{ID: 7790, Name: "2.0.0"}, DryRun: true},
		},
		versionsSummary: purge.BatchSummary{Attempted: 2, Failed: 0},
	}
	builder := buildPurgeCommandBuilder(engine, registry.DefaultSettings())

	deleteVersionCommand, buildError := builder.BuildDeleteVersionCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	deleteVersionCommand.SetOut(outputBuffer)
	deleteVersionCommand.SetErr(&bytes.Buffer{})
	deleteVersionCommand.SetContext(context.Background())
	deleteVersionCommand.SetArgs([]string{"com.acme", "%", "--owner", commandTestOwnerConstant})

	require.NoError(testInstance, deleteVersionCommand.Execute())

	expectedOutput := "version 7781 (1.0.3) of com.acme.lib: deleted\n" +
		"package com.acme.util: dry-run\n"
	require.Equal(testInstance, expectedOutput, outputBuffer.String())
}

func TestDeleteVersionCommandRequiresGroupAndArtifact(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "no_arguments", arguments: []string{}},
		{name: "missing_artifact", arguments: []string{"com.acme"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			engine := &engineStub{}
			builder := buildPurgeCommandBuilder(engine, registry.DefaultSettings())

			deleteVersionCommand, buildError := builder.BuildDeleteVersionCommand()
			require.NoError(subTest, buildError)

			outputBuffer := &bytes.Buffer{}
			deleteVersionCommand.SetOut(outputBuffer)
			deleteVersionCommand.SetErr(outputBuffer)
			deleteVersionCommand.SetContext(context.Background())
			deleteVersionCommand.SetArgs(testCase.arguments)

			require.Error(subTest, deleteVersionCommand.Execute())
			require.Empty(subTest, engine.versionOptions)
		})
	}
}

func TestDeleteCommandReportsResolverFailures(testInstance *testing.T) {
	builder := &purge.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: registry.DefaultSettings,
		ServiceResolver:       &purgeServiceResolverStub{resolveError: errors.New("client construction failed")},
	}

	deleteCommand, buildError := builder.BuildDeleteCommand()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	deleteCommand.SetOut(outputBuffer)
	deleteCommand.SetErr(outputBuffer)
	deleteCommand.SetContext(context.Background())
	deleteCommand.SetArgs([]string{"--owner", commandTestOwnerConstant})

	require.ErrorContains(testInstance, deleteCommand.Execute(), "client construction failed")
}
