// Package services holds cross-cutting service conventions: the sentinel
// error taxonomy shared by the render engine and its callers, and context
// carriers for entry, mode, and correlation identifiers.
package services
