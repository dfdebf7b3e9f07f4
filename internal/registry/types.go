package registry

import "time"

// Package describes one package record returned by the registry.
type Package struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	PackageType  string    `json:"package_type"`
	VersionCount int64     `json:"version_count"`
	Visibility   string    `json:"visibility"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Version describes one version owned by exactly one package.
type Version struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Credentials carries the owner scope and bearer token for registry calls.
type Credentials struct {
	Owner     string
	OwnerType OwnerType
	Token     string
}
