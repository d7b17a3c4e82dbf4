// Package manifest models the sprite manifest emitted by the audio encoder and
// reconciles the encoder's raw output into the pipeline's output layout.
//
// The manifest is kept as a semi-structured JSON object: only the resources
// list has a fixed shape, everything else is passed through in its original
// key order. Reconcile computes the final manifest path (renaming it when the
// configured extension differs from the encoder's ".json"), rewrites resources
// to bare filenames, applies an optional transform hook, and renders the final
// bytes. Writing the bytes and removing a renamed raw manifest is left to the
// emitter.
package manifest
