// Package feature holds the per-sample inputs of cross-sample alignment:
// detected peaks, the isotope patterns they are grouped into, and the
// feature lists that carry them from the extraction step.
//
// Values in this package are treated as immutable once built. The alignment
// engine references patterns but never modifies them.
package feature
