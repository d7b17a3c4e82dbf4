// Package pipeline drives a build: it scans the source tree, finds folders
// carrying the sprite tag, and runs each through the transform on a bounded
// worker pool.
//
// Pipeline is also the host the transform writes through. It maps source
// folders to output paths (tag blocks stripped from every segment), writes
// files atomically, and registers outputs in the scanned asset tree.
//
// Folders whose inputs and resolved options hash to the signature stored in
// the build cache, and whose recorded outputs still exist, are skipped. A
// file lock in the output root keeps concurrent builds apart.
package pipeline
