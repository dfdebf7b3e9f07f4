// Package purge deletes registry packages and versions in bulk, collapsing
// the deletion of a package's last remaining version into a whole-package
// deletion and streaming per-item outcomes as they complete.
package purge
