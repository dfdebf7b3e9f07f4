// Package filter converts user-supplied wildcard filters into anchored
// predicates over dot-joined package names.
//
// A filter is parsed into a token sequence (literal text or the % wildcard)
// and compiled into a single regular expression of the form ^group\.artifact$.
// Literal text is fully escaped, so regular-expression metacharacters inside
// package names carry no special meaning.
package filter
