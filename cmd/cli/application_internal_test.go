package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/pkgsweep/internal/registry"
	"github.com/temirov/pkgsweep/internal/utils"
)

const (
	applicationTestOwnerConstant                      = "acme-team"
	applicationTestTokenConstant                      = "secret-token"
	applicationTestTokenVariableConstant              = "PKGSWEEP_TOKEN"
	applicationTestConfigurationFileConstant          = "config.yaml"
	applicationTestConfigurationTemplateConstant      = "common:\n  log_level: error\n  log_format: structured\nregistry:\n  owner: %s\n  owner_type: user\n  token_source: env:%s\n  service_base_url: %s\n"
	applicationTestLibraryPackageConstant             = "com.acme.lib"
	applicationTestUtilityPackageConstant             = "com.acme.util"
	applicationTestGroupFilterConstant                = "com.acme"
	applicationTestUtilityArtifactConstant            = "util"
	applicationTestWildcardArgumentConstant           = "%"
	applicationTestPackagesArgumentConstant           = "packages"
	applicationTestDeleteArgumentConstant             = "delete"
	applicationTestDeleteVersionArgumentConstant      = "deleteVersion"
	applicationTestConfigFlagConstant                 = "--config"
	applicationTestLogLevelFlagConstant               = "--log-level"
	applicationTestInvalidLogLevelConstant            = "verbose"
	applicationTestMissingConfigurationFileConstant   = "absent.yaml"
	applicationTestPackagesPathConstant               = "/users/acme-team/packages"
	applicationTestPackagePathTemplateConstant        = "/users/acme-team/packages/maven/%s"
	applicationTestVersionsPathTemplateConstant       = "/users/acme-team/packages/maven/%s/versions"
	applicationTestVersionPathTemplateConstant        = "/users/acme-team/packages/maven/%s/versions/%d"
	applicationTestCallTemplateConstant               = "%s %s"
	applicationTestTimestampConstant                  = "2024-03-01T10:00:00Z"
	applicationTestPackageURLTemplateConstant         = "https://registry.example/packages/%d"
	applicationTestPageParameterConstant              = "page"
	applicationTestPackageTypeParameterConstant       = "package_type"
	applicationTestFirstPageValueConstant             = "1"
	applicationTestAuthorizationHeaderConstant        = "Authorization"
	applicationTestAuthorizationTemplateConstant      = "Bearer %s"
	applicationTestFailureBodyConstant                = `{"message":"internal error"}`
	applicationTestVersionsHeaderConstant             = "VERSIONS"
	applicationTestFirstVersionNameConstant           = "2.1.0"
	applicationTestSecondVersionNameConstant          = "2.2.0"
	applicationTestFirstVersionIdentifierConstant     = int64(9944)
	applicationTestSecondVersionIdentifierConstant    = int64(9945)
	applicationTestPackageDeletedLineTemplateConstant = "package %s: deleted\n"
	applicationTestVersionDeletedLineTemplateConstant = "version %d (%s) of %s: deleted\n"
	applicationTestFailedLineTemplateConstant         = "package %s: failed: DeletePackage request returned status %d"
	applicationTestBatchFailureFragmentConstant       = "1 of 2 deletions failed"
	applicationTestUnsupportedLevelFragmentConstant   = "unsupported log level: verbose"
	applicationTestLoadFailureFragmentConstant        = "unable to load configuration"
	applicationTestLibraryVersionCountConstant        = int64(3)
)

type recordedRegistryCall struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
}

type registryCallRecorder struct {
	mutex sync.Mutex
	calls []recordedRegistryCall
}

func (recorder *registryCallRecorder) record(request *http.Request) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.calls = append(recorder.calls, recordedRegistryCall{
		Method:        request.Method,
		Path:          request.URL.Path,
		Query:         request.URL.Query(),
		Authorization: request.Header.Get(applicationTestAuthorizationHeaderConstant),
	})
}

func (recorder *registryCallRecorder) recordedCalls() []recordedRegistryCall {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return append([]recordedRegistryCall(nil), recorder.calls...)
}

func (recorder *registryCallRecorder) callSignatures() []string {
	signatures := []string{}
	for _, recordedCall := range recorder.recordedCalls() {
		signatures = append(signatures, applicationTestCallSignature(recordedCall.Method, recordedCall.Path))
	}
	return signatures
}

type registryServerFixture struct {
	recorder *registryCallRecorder
	server   *httptest.Server
}

func startRegistryServer(testInstance *testing.T, packagesListing []registry.Package, versionsByPackage map[string][]registry.Version, failingDeletePaths map[string]int) *registryServerFixture {
	testInstance.Helper()

	recorder := &registryCallRecorder{}
	handler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorder.record(request)

		if request.Method == http.MethodDelete {
			if failureStatus, failureConfigured := failingDeletePaths[request.URL.Path]; failureConfigured {
				writer.WriteHeader(failureStatus)
				_, _ = writer.Write([]byte(applicationTestFailureBodyConstant))
				return
			}
			writer.WriteHeader(http.StatusNoContent)
			return
		}

		if request.URL.Query().Get(applicationTestPageParameterConstant) != applicationTestFirstPageValueConstant {
			writeJSONResponse(writer, []registry.Package{})
			return
		}

		if request.URL.Path == applicationTestPackagesPathConstant {
			writeJSONResponse(writer, packagesListing)
			return
		}

		for packageName, packageVersions := range versionsByPackage {
			if request.URL.Path == applicationTestVersionsPath(packageName) {
				writeJSONResponse(writer, packageVersions)
				return
			}
		}

		writer.WriteHeader(http.StatusNotFound)
	})

	fixture := &registryServerFixture{
		recorder: recorder,
		server:   httptest.NewServer(handler),
	}
	testInstance.Cleanup(fixture.server.Close)
	return fixture
}

func writeJSONResponse(writer http.ResponseWriter, payload any) {
	_ = json.NewEncoder(writer).Encode(payload)
}

func applicationTestPackagePath(packageName string) string {
	return fmt.Sprintf(applicationTestPackagePathTemplateConstant, packageName)
}

func applicationTestVersionsPath(packageName string) string {
	return fmt.Sprintf(applicationTestVersionsPathTemplateConstant, packageName)
}

func applicationTestVersionPath(packageName string, versionIdentifier int64) string {
	return fmt.Sprintf(applicationTestVersionPathTemplateConstant, packageName, versionIdentifier)
}

func applicationTestCallSignature(method string, path string) string {
	return fmt.Sprintf(applicationTestCallTemplateConstant, method, path)
}

func applicationTestAuthorization() string {
	return fmt.Sprintf(applicationTestAuthorizationTemplateConstant, applicationTestTokenConstant)
}

func applicationTestPackages(testInstance *testing.T, utilityVersionCount int64) []registry.Package {
	testInstance.Helper()

	updatedAt, parseError := time.Parse(time.RFC3339, applicationTestTimestampConstant)
	require.NoError(testInstance, parseError)

	return []registry.Package{
		{
			ID:           11,
			Name:         applicationTestLibraryPackageConstant,
			PackageType:  registry.DefaultPackageType,
			VersionCount: applicationTestLibraryVersionCountConstant,
			URL:          fmt.Sprintf(applicationTestPackageURLTemplateConstant, 11),
			UpdatedAt:    updatedAt,
		},
		{
			ID:           12,
			Name:         applicationTestUtilityPackageConstant,
			PackageType:  registry.DefaultPackageType,
			VersionCount: utilityVersionCount,
			URL:          fmt.Sprintf(applicationTestPackageURLTemplateConstant, 12),
			UpdatedAt:    updatedAt,
		},
	}
}

func writeApplicationConfiguration(testInstance *testing.T, serviceBaseURL string) string {
	testInstance.Helper()

	configurationContent := fmt.Sprintf(
		applicationTestConfigurationTemplateConstant,
		applicationTestOwnerConstant,
		applicationTestTokenVariableConstant,
		serviceBaseURL,
	)
	configurationPath := filepath.Join(testInstance.TempDir(), applicationTestConfigurationFileConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))
	return configurationPath
}

func executeApplication(testInstance *testing.T, arguments ...string) (string, error) {
	testInstance.Helper()

	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs(arguments)

	executionError := application.Execute()
	return outputBuffer.String(), executionError
}

func TestApplicationListsPackagesEndToEnd(testInstance *testing.T) {
	testInstance.Setenv(applicationTestTokenVariableConstant, applicationTestTokenConstant)

	fixture := startRegistryServer(testInstance, applicationTestPackages(testInstance, 1), nil, nil)
	configurationPath := writeApplicationConfiguration(testInstance, fixture.server.URL)

	output, executionError := executeApplication(
		testInstance,
		applicationTestPackagesArgumentConstant,
		applicationTestConfigFlagConstant,
		configurationPath,
	)

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, applicationTestVersionsHeaderConstant)
	require.Contains(testInstance, output, applicationTestLibraryPackageConstant)
	require.Contains(testInstance, output, applicationTestUtilityPackageConstant)

	recordedCalls := fixture.recorder.recordedCalls()
	require.NotEmpty(testInstance, recordedCalls)

	firstCall := recordedCalls[0]
	require.Equal(testInstance, http.MethodGet, firstCall.Method)
	require.Equal(testInstance, applicationTestPackagesPathConstant, firstCall.Path)
	require.Equal(testInstance, registry.DefaultPackageType, firstCall.Query.Get(applicationTestPackageTypeParameterConstant))
	require.Equal(testInstance, applicationTestAuthorization(), firstCall.Authorization)
}

func TestApplicationDeleteVersionEndToEnd(testInstance *testing.T) {
	testCases := []struct {
		name                string
		utilityVersionCount int64
		utilityVersions     []registry.Version
		expectedCalls       []string
		forbiddenCalls      []string
		expectedOutputLines []string
	}{
		{
			name:                "collapses_last_version_into_package_deletion",
			utilityVersionCount: 1,
			utilityVersions: []registry.Version{
				{ID: applicationTestFirstVersionIdentifierConstant, Name: applicationTestFirstVersionNameConstant},
			},
			expectedCalls: []string{
				applicationTestCallSignature(http.MethodDelete, applicationTestPackagePath(applicationTestUtilityPackageConstant)),
			},
			forbiddenCalls: []string{
				applicationTestCallSignature(http.MethodDelete, applicationTestVersionPath(applicationTestUtilityPackageConstant, applicationTestFirstVersionIdentifierConstant)),
			},
			expectedOutputLines: []string{
				fmt.Sprintf(applicationTestPackageDeletedLineTemplateConstant, applicationTestUtilityPackageConstant),
			},
		},
		{
			name:                "deletes_each_matching_version",
			utilityVersionCount: 3,
			utilityVersions: []registry.Version{
				{ID: applicationTestFirstVersionIdentifierConstant, Name: applicationTestFirstVersionNameConstant},
				{ID: applicationTestSecondVersionIdentifierConstant, Name: applicationTestSecondVersionNameConstant},
			},
			expectedCalls: []string{
				applicationTestCallSignature(http.MethodDelete, applicationTestVersionPath(applicationTestUtilityPackageConstant, applicationTestFirstVersionIdentifierConstant)),
				applicationTestCallSignature(http.MethodDelete, applicationTestVersionPath(applicationTestUtilityPackageConstant, applicationTestSecondVersionIdentifierConstant)),
			},
			forbiddenCalls: []string{
				applicationTestCallSignature(http.MethodDelete, applicationTestPackagePath(applicationTestUtilityPackageConstant)),
			},
			expectedOutputLines: []string{
				fmt.Sprintf(applicationTestVersionDeletedLineTemplateConstant, applicationTestFirstVersionIdentifierConstant, applicationTestFirstVersionNameConstant, applicationTestUtilityPackageConstant),
				fmt.Sprintf(applicationTestVersionDeletedLineTemplateConstant, applicationTestSecondVersionIdentifierConstant, applicationTestSecondVersionNameConstant, applicationTestUtilityPackageConstant),
			},
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Setenv(applicationTestTokenVariableConstant, applicationTestTokenConstant)

			fixture := startRegistryServer(
				subTest,
				applicationTestPackages(subTest, testCase.utilityVersionCount),
				map[string][]registry.Version{applicationTestUtilityPackageConstant: testCase.utilityVersions},
				nil,
			)
			configurationPath := writeApplicationConfiguration(subTest, fixture.server.URL)

			output, executionError := executeApplication(
				subTest,
				applicationTestDeleteVersionArgumentConstant,
				applicationTestGroupFilterConstant,
				applicationTestUtilityArtifactConstant,
				applicationTestConfigFlagConstant,
				configurationPath,
			)
			require.NoError(subTest, executionError)

			recordedSignatures := fixture.recorder.callSignatures()
			for _, expectedCall := range testCase.expectedCalls {
				require.Contains(subTest, recordedSignatures, expectedCall)
			}
			for _, forbiddenCall := range testCase.forbiddenCalls {
				require.NotContains(subTest, recordedSignatures, forbiddenCall)
			}
			for _, expectedLine := range testCase.expectedOutputLines {
				require.Contains(subTest, output, expectedLine)
			}
		})
	}
}

func TestApplicationDeleteReportsPartialBatchFailure(testInstance *testing.T) {
	testInstance.Setenv(applicationTestTokenVariableConstant, applicationTestTokenConstant)

	failingDeletePaths := map[string]int{
		applicationTestPackagePath(applicationTestLibraryPackageConstant): http.StatusInternalServerError,
	}
	fixture := startRegistryServer(testInstance, applicationTestPackages(testInstance, 1), nil, failingDeletePaths)
	configurationPath := writeApplicationConfiguration(testInstance, fixture.server.URL)

	output, executionError := executeApplication(
		testInstance,
		applicationTestDeleteArgumentConstant,
		applicationTestGroupFilterConstant,
		applicationTestWildcardArgumentConstant,
		applicationTestConfigFlagConstant,
		configurationPath,
	)

	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), applicationTestBatchFailureFragmentConstant)
	require.Contains(testInstance, output, fmt.Sprintf(applicationTestFailedLineTemplateConstant, applicationTestLibraryPackageConstant, http.StatusInternalServerError))
	require.Contains(testInstance, output, fmt.Sprintf(applicationTestPackageDeletedLineTemplateConstant, applicationTestUtilityPackageConstant))

	recordedSignatures := fixture.recorder.callSignatures()
	require.Contains(testInstance, recordedSignatures, applicationTestCallSignature(http.MethodDelete, applicationTestPackagePath(applicationTestLibraryPackageConstant)))
	require.Contains(testInstance, recordedSignatures, applicationTestCallSignature(http.MethodDelete, applicationTestPackagePath(applicationTestUtilityPackageConstant)))
}

func TestApplicationRejectsInvalidLogLevelFlag(testInstance *testing.T) {
	_, executionError := executeApplication(
		testInstance,
		applicationTestPackagesArgumentConstant,
		applicationTestLogLevelFlagConstant,
		applicationTestInvalidLogLevelConstant,
	)

	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), applicationTestUnsupportedLevelFragmentConstant)
}

func TestApplicationFailsWhenExplicitConfigurationFileMissing(testInstance *testing.T) {
	missingPath := filepath.Join(testInstance.TempDir(), applicationTestMissingConfigurationFileConstant)

	_, executionError := executeApplication(
		testInstance,
		applicationTestPackagesArgumentConstant,
		applicationTestConfigFlagConstant,
		missingPath,
	)

	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), applicationTestLoadFailureFragmentConstant)
}

func TestApplicationInitializeConfigurationAppliesDefaults(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	require.Equal(testInstance, string(utils.LogLevelInfo), application.configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatStructured), application.configuration.Common.LogFormat)
	require.Equal(testInstance, registry.DefaultSettings(), application.configuration.Registry)
}

func TestApplicationPersistentFlagsOverrideConfiguredLogging(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, string(utils.LogLevelDebug)))
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logFormatFlagNameConstant, string(utils.LogFormatConsole)))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))
	require.Equal(testInstance, string(utils.LogLevelDebug), application.configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatConsole), application.configuration.Common.LogFormat)
}
