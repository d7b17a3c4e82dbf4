// Package buildcache records what each sprite folder produced so later builds
// can skip unchanged folders and tooling can list or clear past results.
//
// Store persists entries in SQLite; Memory keeps them in process for tests
// and uncached runs. Both satisfy Cache and overwrite on Set.
package buildcache
