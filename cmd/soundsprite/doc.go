// Package main hosts the soundsprite CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the sprite pipeline
// for `build`, and exposes build cache maintenance, configuration scaffolding
// and an external dependency check. The work itself lives in the internal
// packages; commands here only wire and render.
package main
