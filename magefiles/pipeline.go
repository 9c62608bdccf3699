//go:build mage

package main

import "github.com/magefile/mage/mg"

// Sync refreshes stale cache entries and renders records that are new or
// missing fields. Values already written to a record are left alone.
func Sync() error {
	if err := runCLI("sync"); err != nil {
		return err
	}
	return runCLI("materialize")
}

// Refresh refetches every publication regardless of cache age and
// re-derives the fetched fields of every record from the new metadata.
func Refresh() error {
	if err := runCLI("fetch", "--force"); err != nil {
		return err
	}
	return runCLI("materialize", "--refresh")
}

// Index rebuilds the SQLite index from the cache and exports it.
func Index() error {
	if err := runCLI("index", "build"); err != nil {
		return err
	}
	return runCLI("index", "export", "--format", "all")
}

// Site runs the full pre-build pipeline: sync then index.
func Site() {
	mg.SerialDeps(Sync, Index)
}
