// Package engine coordinates rendered feed requests.
//
// A request names a library entry and a render mode. The engine snapshots
// the entry's source layout, derives the render fingerprint, and asks the
// cache for the artifact, supplying a build function that plans segments
// and drives the media tool only on a miss. All mode availability rules
// live here as well.
package engine
