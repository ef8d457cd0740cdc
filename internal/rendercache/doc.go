// Package rendercache owns rendered feed artifacts.
//
// The cache maps render fingerprints to artifact directories on disk,
// indexed in SQLite so artifacts survive restarts. GetOrBuild guarantees at
// most one in-flight build per fingerprint: concurrent requests for the same
// key share a single build and all receive its result or its error, while
// distinct fingerprints build independently. Failed builds leave no trace,
// so the next request starts fresh.
//
// Eviction is size-, free-space-, and age-based, oldest access first, and
// never touches the artifact a caller just requested.
package rendercache
