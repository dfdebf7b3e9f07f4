package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	tokenSourceSeparatorConstant               = ":"
	environmentTokenSourceKindValueConstant    = "env"
	fileTokenSourceKindValueConstant           = "file"
	tokenSourceMissingErrorMessageConstant     = "token source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	tokenFilePathMissingErrorMessageConstant   = "token file path must be provided"
	environmentLookupNilErrorMessageConstant   = "environment lookup function not configured"
	fileReaderNilErrorMessageConstant          = "file reader function not configured"
	environmentTokenMissingTemplateConstant    = "environment variable %s is not set"
	tokenFileReadErrorTemplateConstant         = "unable to read token file %s: %w"
	tokenFileEmptyErrorTemplateConstant        = "token file %s is empty"
	unsupportedTokenSourceTemplateConstant     = "unsupported token source type %q"
	tokenResolverNilErrorMessageConstant       = "token resolver not configured"
)

// TokenSourceKind enumerates the supported token retrieval mechanisms.
type TokenSourceKind string

// Token source kind enumerations.
const (
	TokenSourceKindEnvironment TokenSourceKind = TokenSourceKind(environmentTokenSourceKindValueConstant)
	TokenSourceKindFile        TokenSourceKind = TokenSourceKind(fileTokenSourceKindValueConstant)
)

// TokenSource specifies where a registry credential token lives.
type TokenSource struct {
	Kind      TokenSourceKind
	Reference string
}

// TokenResolver materializes authentication tokens from configured sources.
type TokenResolver interface {
	ResolveToken(resolutionContext context.Context, source TokenSource) (string, error)
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// NewTokenResolver creates a token resolver with optional dependency overrides.
func NewTokenResolver(environmentLookup EnvironmentLookup, fileReader FileReader) TokenResolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	return &tokenResolver{
		environmentLookup: resolvedEnvironmentLookup,
		fileReader:        resolvedFileReader,
	}
}

// ParseTokenSource interprets declarations such as env:NAME or file:/path.
// A bare value without a kind prefix is treated as an environment variable name.
func ParseTokenSource(sourceValue string) (TokenSource, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return TokenSource{}, errors.New(tokenSourceMissingErrorMessageConstant)
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return TokenSource{
			Kind:      TokenSourceKindEnvironment,
			Reference: trimmedValue,
		}, nil
	}

	sourceKind := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])

	switch sourceKind {
	case environmentTokenSourceKindValueConstant:
		if len(reference) == 0 {
			return TokenSource{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return TokenSource{Kind: TokenSourceKindEnvironment, Reference: reference}, nil
	case fileTokenSourceKindValueConstant:
		if len(reference) == 0 {
			return TokenSource{}, errors.New(tokenFilePathMissingErrorMessageConstant)
		}
		return TokenSource{Kind: TokenSourceKindFile, Reference: reference}, nil
	default:
		return TokenSource{}, fmt.Errorf(unsupportedTokenSourceTemplateConstant, sourceKind)
	}
}

// ResolveCredentials materializes call credentials by resolving the token source.
func ResolveCredentials(resolutionContext context.Context, resolver TokenResolver, owner string, ownerType OwnerType, source TokenSource) (Credentials, error) {
	if resolver == nil {
		return Credentials{}, errors.New(tokenResolverNilErrorMessageConstant)
	}

	token, tokenError := resolver.ResolveToken(resolutionContext, source)
	if tokenError != nil {
		return Credentials{}, tokenError
	}

	return Credentials{Owner: owner, OwnerType: ownerType, Token: token}, nil
}

type tokenResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
}

func (resolver *tokenResolver) ResolveToken(resolutionContext context.Context, source TokenSource) (string, error) {
	switch source.Kind {
	case TokenSourceKindEnvironment:
		if resolver.environmentLookup == nil {
			return "", errors.New(environmentLookupNilErrorMessageConstant)
		}
		value, found := resolver.environmentLookup(source.Reference)
		if !found {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, source.Reference)
		}
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceKindFile:
		if resolver.fileReader == nil {
			return "", errors.New(fileReaderNilErrorMessageConstant)
		}
		contents, readError := resolver.fileReader(source.Reference)
		if readError != nil {
			return "", fmt.Errorf(tokenFileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(tokenFileEmptyErrorTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	default:
		return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Kind)
	}
}
