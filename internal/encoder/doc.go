// Package encoder invokes the external audio sprite encoder and returns the
// manifest it produced.
//
// CLI shells out to the audiosprite binary; Func adapts an in-process
// implementation. Every encoder failure is tagged with ErrEncoder so callers
// can classify it with errors.Is.
package encoder
