// Package inventory resolves package and version listings from the registry
// and provides the packages and versions commands. Package resolution lists
// the full owner scope and filters names client-side with compiled wildcard
// patterns; version resolution either lists every version of one package or
// addresses a single version by its numeric identifier.
package inventory
