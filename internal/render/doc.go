// Package render turns resolved packages, versions, and deletion outcomes
// into line-oriented CLI output: aligned tabular columns by default, or
// tab-separated passthrough rows in raw mode.
package render
