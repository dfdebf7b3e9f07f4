// Package registry provides a typed HTTP client for the GitHub-style
// packages REST API: paginated package and version listings, single-version
// lookups, and package or version deletions scoped to a user or organization
// owner. Credentials are resolved from declarative token sources and attached
// as bearer headers on every request.
package registry
