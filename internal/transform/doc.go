// Package transform runs the audio sprite transform for one tagged folder:
// resolve options, collect sources, encode, reconcile the manifest and emit.
//
// Prepare does the side-effect-free work and returns a Job so callers can
// inspect the resolved configuration and inputs (for example to decide a
// cached skip) before any file is written. Job.Run performs the remaining
// steps strictly in order.
package transform
