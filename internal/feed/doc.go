// Package feed flattens render artifacts into the item lists feed
// documents are built from. Document text formatting (RSS/XML) is the
// consumer's concern; this package only fixes the item ordering, titles,
// media paths, and output-relative chapter offsets.
package feed
