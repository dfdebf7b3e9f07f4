package filter

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	wildcardTokenTextConstant           = "%"
	wildcardExpressionConstant          = ".*"
	nameSeparatorExpressionConstant     = `\.`
	anchoredExpressionTemplateConstant  = "^%s%s%s$"
	patternCompileErrorTemplateConstant = "unable to compile package pattern: %w"
)

// WildcardToken matches any sequence of characters inside a filter.
const WildcardToken = wildcardTokenTextConstant

// TokenKind distinguishes literal pattern text from wildcard tokens.
type TokenKind string

// Token kind enumerations.
const (
	TokenKindLiteral  TokenKind = "literal"
	TokenKindWildcard TokenKind = "wildcard"
)

// Token is one element of a parsed wildcard pattern.
type Token struct {
	Kind    TokenKind
	Literal string
}

// Pattern is the parsed form of a user-supplied wildcard filter.
type Pattern struct {
	tokens []Token
}

// ParsePattern splits filter text into literal and wildcard tokens. Every
// string parses; there is no malformed pattern syntax.
func ParsePattern(patternText string) Pattern {
	tokens := make([]Token, 0, 4)
	remaining := patternText
	for len(remaining) > 0 {
		wildcardIndex := strings.Index(remaining, wildcardTokenTextConstant)
		if wildcardIndex < 0 {
			tokens = append(tokens, Token{Kind: TokenKindLiteral, Literal: remaining})
			break
		}
		if wildcardIndex > 0 {
			tokens = append(tokens, Token{Kind: TokenKindLiteral, Literal: remaining[:wildcardIndex]})
		}
		tokens = append(tokens, Token{Kind: TokenKindWildcard})
		remaining = remaining[wildcardIndex+len(wildcardTokenTextConstant):]
	}
	return Pattern{tokens: tokens}
}

// Tokens exposes the parsed token sequence.
func (pattern Pattern) Tokens() []Token {
	duplicatedTokens := make([]Token, len(pattern.tokens))
	copy(duplicatedTokens, pattern.tokens)
	return duplicatedTokens
}

func (pattern Pattern) expressionFragment() string {
	var fragmentBuilder strings.Builder
	for _, token := range pattern.tokens {
		switch token.Kind {
		case TokenKindWildcard:
			fragmentBuilder.WriteString(wildcardExpressionConstant)
		default:
			fragmentBuilder.WriteString(regexp.QuoteMeta(token.Literal))
		}
	}
	return fragmentBuilder.String()
}

// IsWildcard reports whether the filter text is exactly the wildcard token.
func IsWildcard(filterText string) bool {
	return strings.TrimSpace(filterText) == wildcardTokenTextConstant
}

// PackagePattern is an anchored predicate over full group.artifact names.
type PackagePattern struct {
	expression *regexp.Regexp
}

// NewPackagePattern compiles group and artifact filters into one anchored
// expression matching the full dot-joined package name.
func NewPackagePattern(groupPattern string, artifactPattern string) (*PackagePattern, error) {
	groupFragment := ParsePattern(groupPattern).expressionFragment()
	artifactFragment := ParsePattern(artifactPattern).expressionFragment()
	expressionText := fmt.Sprintf(anchoredExpressionTemplateConstant, groupFragment, nameSeparatorExpressionConstant, artifactFragment)

	expression, compileError := regexp.Compile(expressionText)
	if compileError != nil {
		return nil, fmt.Errorf(patternCompileErrorTemplateConstant, compileError)
	}

	return &PackagePattern{expression: expression}, nil
}

// Matches reports whether the package name satisfies the compiled pattern.
func (packagePattern *PackagePattern) Matches(packageName string) bool {
	if packagePattern == nil || packagePattern.expression == nil {
		return false
	}
	return packagePattern.expression.MatchString(packageName)
}

// String exposes the compiled expression for diagnostics.
func (packagePattern *PackagePattern) String() string {
	if packagePattern == nil || packagePattern.expression == nil {
		return ""
	}
	return packagePattern.expression.String()
}
