// Package options resolves the per-folder sprite configuration.
//
// Caller options mark unset values explicitly (empty tag, nil slices, nil
// pointers). Resolve applies two merge strategies: the tag, import list,
// nesting flag and manifest options are replaced wholesale when the caller
// sets them, while encoder options are merged field by field so unset
// defaults survive. The encoder's output base name is always derived from the
// folder's output path and never taken from the caller.
package options
