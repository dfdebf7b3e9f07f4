package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultServiceBaseURLConstant           = "https://api.github.com"
	defaultPackageTypeConstant              = "maven"
	defaultPageSizeConstant                 = 100
	firstPageNumberConstant                 = 1
	baseURLTrailingSlashCutsetConstant      = "/"
	acceptHeaderNameConstant                = "Accept"
	acceptHeaderValueConstant               = "application/vnd.github+json"
	authorizationHeaderNameConstant         = "Authorization"
	bearerTokenTemplateConstant             = "Bearer %s"
	packageTypeQueryParameterConstant       = "package_type"
	pageQueryParameterConstant              = "page"
	perPageQueryParameterConstant           = "per_page"
	packagesCollectionURLTemplateConstant   = "%s/%s/%s/packages?%s"
	packageResourceURLTemplateConstant      = "%s/%s/%s/packages/%s/%s"
	versionsCollectionURLTemplateConstant   = "%s/%s/%s/packages/%s/%s/versions?%s"
	versionResourceURLTemplateConstant      = "%s/%s/%s/packages/%s/%s/versions/%d"
	invalidBaseURLTemplateConstant          = "service base URL %q is not valid"
	requiredValueMessageConstant            = "value required"
	ownerFieldNameConstant                  = "owner"
	tokenFieldNameConstant                  = "token"
	packageNameFieldNameConstant            = "package name"
	statusErrorTemplateConstant             = "%s request returned status %d: %s"
	transportErrorTemplateConstant          = "%s request failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	requestLogMessageConstant               = "issuing registry request"
	retryLogMessageConstant                 = "retrying registry request after transport failure"
	operationLogFieldNameConstant           = "operation"
	httpMethodLogFieldNameConstant          = "method"
	requestURLLogFieldNameConstant          = "url"
	attemptLogFieldNameConstant             = "attempt"
	listPackagesOperationNameConstant       = OperationName("ListPackages")
	listVersionsOperationNameConstant       = OperationName("ListVersions")
	getVersionOperationNameConstant         = OperationName("GetVersion")
	deletePackageOperationNameConstant      = OperationName("DeletePackage")
	deleteVersionOperationNameConstant      = OperationName("DeleteVersion")
)

// DefaultServiceBaseURL is the registry endpoint used when none is configured.
const DefaultServiceBaseURL = defaultServiceBaseURLConstant

// DefaultPackageType is the package type managed when none is configured.
const DefaultPackageType = defaultPackageTypeConstant

// DefaultPageSize is the pagination size used when none is configured.
const DefaultPageSize = defaultPageSizeConstant

// OperationName identifies a registry API operation for error reporting.
type OperationName string

// HTTPClient abstracts the HTTP transport used for registry calls.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientConfiguration adjusts registry endpoints, pagination, and transport retries.
type ClientConfiguration struct {
	BaseURL       string
	PackageType   string
	PageSize      int
	RetryAttempts int
}

// Client coordinates REST calls against the packages registry.
type Client struct {
	logger        *zap.Logger
	httpClient    HTTPClient
	configuration ClientConfiguration
}

// StatusError reports a non-success response with the registry's own status and body.
type StatusError struct {
	Operation  OperationName
	StatusCode int
	Body       string
}

// Error describes the response failure.
func (statusError StatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.Body)
}

// TransportError wraps failures where no response was received.
type TransportError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (transportError TransportError) Error() string {
	return fmt.Sprintf(transportErrorTemplateConstant, transportError.Operation, transportError.Cause)
}

// Unwrap exposes the underlying cause.
func (transportError TransportError) Unwrap() error {
	return transportError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// NewClient constructs a registry client with normalized configuration.
func NewClient(logger *zap.Logger, httpClient HTTPClient, configuration ClientConfiguration) (*Client, error) {
	resolvedLogger := logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}

	resolvedHTTPClient := httpClient
	if resolvedHTTPClient == nil {
		resolvedHTTPClient = http.DefaultClient
	}

	normalizedConfiguration, normalizationError := normalizeConfiguration(configuration)
	if normalizationError != nil {
		return nil, normalizationError
	}

	return &Client{
		logger:        resolvedLogger,
		httpClient:    resolvedHTTPClient,
		configuration: normalizedConfiguration,
	}, nil
}

func normalizeConfiguration(configuration ClientConfiguration) (ClientConfiguration, error) {
	normalized := configuration

	trimmedBaseURL := strings.TrimSpace(configuration.BaseURL)
	if len(trimmedBaseURL) == 0 {
		trimmedBaseURL = defaultServiceBaseURLConstant
	}
	normalized.BaseURL = strings.TrimRight(trimmedBaseURL, baseURLTrailingSlashCutsetConstant)

	parsedBaseURL, parseError := url.Parse(normalized.BaseURL)
	if parseError != nil || len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
		return ClientConfiguration{}, fmt.Errorf(invalidBaseURLTemplateConstant, configuration.BaseURL)
	}

	trimmedPackageType := strings.TrimSpace(configuration.PackageType)
	if len(trimmedPackageType) == 0 {
		trimmedPackageType = defaultPackageTypeConstant
	}
	normalized.PackageType = trimmedPackageType

	if normalized.PageSize <= 0 {
		normalized.PageSize = defaultPageSizeConstant
	}
	if normalized.RetryAttempts < 0 {
		normalized.RetryAttempts = 0
	}

	return normalized, nil
}

// ListPackages retrieves every package of the configured type in the owner scope.
// Pages are requested starting at one and concatenated in registry order until
// the registry returns an empty page.
func (client *Client) ListPackages(executionContext context.Context, credentials Credentials) ([]Package, error) {
	if validationError := validateCredentials(credentials); validationError != nil {
		return nil, validationError
	}

	collectedPackages := make([]Package, 0, client.configuration.PageSize)
	pageNumber := firstPageNumberConstant
	for {
		requestURL := client.packagesCollectionURL(credentials, pageNumber)
		var pagePackages []Package
		requestError := client.executeJSONRequest(executionContext, http.MethodGet, requestURL, credentials.Token, listPackagesOperationNameConstant, &pagePackages)
		if requestError != nil {
			return nil, requestError
		}
		if len(pagePackages) == 0 {
			return collectedPackages, nil
		}
		collectedPackages = append(collectedPackages, pagePackages...)
		pageNumber++
	}
}

// ListVersions retrieves every version of the named package in registry order.
func (client *Client) ListVersions(executionContext context.Context, credentials Credentials, packageName string) ([]Version, error) {
	if validationError := validateCredentials(credentials); validationError != nil {
		return nil, validationError
	}
	if validationError := validatePackageName(packageName); validationError != nil {
		return nil, validationError
	}

	collectedVersions := make([]Version, 0, client.configuration.PageSize)
	pageNumber := firstPageNumberConstant
	for {
		requestURL := client.versionsCollectionURL(credentials, packageName, pageNumber)
		var pageVersions []Version
		requestError := client.executeJSONRequest(executionContext, http.MethodGet, requestURL, credentials.Token, listVersionsOperationNameConstant, &pageVersions)
		if requestError != nil {
			return nil, requestError
		}
		if len(pageVersions) == 0 {
			return collectedVersions, nil
		}
		collectedVersions = append(collectedVersions, pageVersions...)
		pageNumber++
	}
}

// GetVersion retrieves a single version record addressed by its identifier.
func (client *Client) GetVersion(executionContext context.Context, credentials Credentials, packageName string, versionID int64) (Version, error) {
	if validationError := validateCredentials(credentials); validationError != nil {
		return Version{}, validationError
	}
	if validationError := validatePackageName(packageName); validationError != nil {
		return Version{}, validationError
	}

	requestURL := client.versionResourceURL(credentials, packageName, versionID)
	var version Version
	requestError := client.executeJSONRequest(executionContext, http.MethodGet, requestURL, credentials.Token, getVersionOperationNameConstant, &version)
	if requestError != nil {
		return Version{}, requestError
	}
	return version, nil
}

// DeletePackage removes the named package and every version it owns.
func (client *Client) DeletePackage(executionContext context.Context, credentials Credentials, packageName string) error {
	if validationError := validateCredentials(credentials); validationError != nil {
		return validationError
	}
	if validationError := validatePackageName(packageName); validationError != nil {
		return validationError
	}

	requestURL := client.packageResourceURL(credentials, packageName)
	_, requestError := client.executeRequest(executionContext, http.MethodDelete, requestURL, credentials.Token, deletePackageOperationNameConstant)
	return requestError
}

// DeleteVersion removes a single version addressed by its identifier.
func (client *Client) DeleteVersion(executionContext context.Context, credentials Credentials, packageName string, versionID int64) error {
	if validationError := validateCredentials(credentials); validationError != nil {
		return validationError
	}
	if validationError := validatePackageName(packageName); validationError != nil {
		return validationError
	}

	requestURL := client.versionResourceURL(credentials, packageName, versionID)
	_, requestError := client.executeRequest(executionContext, http.MethodDelete, requestURL, credentials.Token, deleteVersionOperationNameConstant)
	return requestError
}

func (client *Client) packagesCollectionURL(credentials Credentials, pageNumber int) string {
	return fmt.Sprintf(
		packagesCollectionURLTemplateConstant,
		client.configuration.BaseURL,
		credentials.OwnerType.PathSegment(),
		url.PathEscape(credentials.Owner),
		client.paginationQuery(pageNumber, true),
	)
}

func (client *Client) packageResourceURL(credentials Credentials, packageName string) string {
	return fmt.Sprintf(
		packageResourceURLTemplateConstant,
		client.configuration.BaseURL,
		credentials.OwnerType.PathSegment(),
		url.PathEscape(credentials.Owner),
		client.configuration.PackageType,
		url.PathEscape(packageName),
	)
}

func (client *Client) versionsCollectionURL(credentials Credentials, packageName string, pageNumber int) string {
	return fmt.Sprintf(
		versionsCollectionURLTemplateConstant,
		client.configuration.BaseURL,
		credentials.OwnerType.PathSegment(),
		url.PathEscape(credentials.Owner),
		client.configuration.PackageType,
		url.PathEscape(packageName),
		client.paginationQuery(pageNumber, false),
	)
}

func (client *Client) versionResourceURL(credentials Credentials, packageName string, versionID int64) string {
	return fmt.Sprintf(
		versionResourceURLTemplateConstant,
		client.configuration.BaseURL,
		credentials.OwnerType.PathSegment(),
		url.PathEscape(credentials.Owner),
		client.configuration.PackageType,
		url.PathEscape(packageName),
		versionID,
	)
}

func (client *Client) paginationQuery(pageNumber int, includePackageType bool) string {
	queryParameters := url.Values{}
	if includePackageType {
		queryParameters.Set(packageTypeQueryParameterConstant, client.configuration.PackageType)
	}
	queryParameters.Set(pageQueryParameterConstant, strconv.Itoa(pageNumber))
	queryParameters.Set(perPageQueryParameterConstant, strconv.Itoa(client.configuration.PageSize))
	return queryParameters.Encode()
}

func (client *Client) executeJSONRequest(executionContext context.Context, method string, requestURL string, token string, operation OperationName, target any) error {
	responseBody, requestError := client.executeRequest(executionContext, method, requestURL, token, operation)
	if requestError != nil {
		return requestError
	}
	if decodeError := json.Unmarshal(responseBody, target); decodeError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodeError}
	}
	return nil
}

// executeRequest issues one HTTP call, re-issuing it only when the transport
// itself fails before a response arrives. Responses of any status are final.
func (client *Client) executeRequest(executionContext context.Context, method string, requestURL string, token string, operation OperationName) ([]byte, error) {
	var lastTransportError error
	for attemptIndex := 0; attemptIndex <= client.configuration.RetryAttempts; attemptIndex++ {
		request, requestCreationError := http.NewRequestWithContext(executionContext, method, requestURL, nil)
		if requestCreationError != nil {
			return nil, TransportError{Operation: operation, Cause: requestCreationError}
		}
		request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
		request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, token))

		client.logger.Debug(
			requestLogMessageConstant,
			zap.String(operationLogFieldNameConstant, string(operation)),
			zap.String(httpMethodLogFieldNameConstant, method),
			zap.String(requestURLLogFieldNameConstant, requestURL),
			zap.Int(attemptLogFieldNameConstant, attemptIndex+1),
		)

		response, requestError := client.httpClient.Do(request)
		if requestError != nil {
			lastTransportError = requestError
			if attemptIndex < client.configuration.RetryAttempts {
				client.logger.Warn(
					retryLogMessageConstant,
					zap.String(operationLogFieldNameConstant, string(operation)),
					zap.Error(requestError),
				)
			}
			continue
		}

		responseBody, readError := io.ReadAll(response.Body)
		_ = response.Body.Close()
		if readError != nil {
			return nil, TransportError{Operation: operation, Cause: readError}
		}

		if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
			return nil, StatusError{
				Operation:  operation,
				StatusCode: response.StatusCode,
				Body:       strings.TrimSpace(string(responseBody)),
			}
		}

		return responseBody, nil
	}

	return nil, TransportError{Operation: operation, Cause: lastTransportError}
}

func validateCredentials(credentials Credentials) error {
	if len(strings.TrimSpace(credentials.Owner)) == 0 {
		return InvalidInputError{FieldName: ownerFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(credentials.Token)) == 0 {
		return InvalidInputError{FieldName: tokenFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func validatePackageName(packageName string) error {
	if len(strings.TrimSpace(packageName)) == 0 {
		return InvalidInputError{FieldName: packageNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}
