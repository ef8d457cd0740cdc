// Package fingerprint derives the content-addressed cache key for a rendered
// feed: a digest over the entry, the render mode, and the identity of every
// source file (path, duration, modification time). Any change to the source
// inventory changes the fingerprint and forces a rebuild.
package fingerprint
