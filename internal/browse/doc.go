// Package browse renders an interactive terminal listing of package versions
// with reload and delete-selected actions backed by the inventory and purge
// services.
package browse
