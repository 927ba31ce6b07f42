// Package align consolidates isotope patterns detected independently in
// several samples into one aligned feature table.
//
// Samples are folded in one at a time, in caller order. Each sample's
// patterns are scored against the master rows built so far, assigned
// greedily best-fit first, and the leftovers start new master rows. Once all
// samples are in, every master row expands into one output row per isotope
// position.
//
// The engine is sequential: each sample's assignments depend on the row
// centroids left behind by every earlier sample.
package align
