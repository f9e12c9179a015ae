// Package configtree models a daemon configuration document as an explicit
// tagged tree: scalars, ordered lists, and string-keyed maps.
//
// The tree distinguishes "caller never specified this" (Unset) from
// "caller specified empty" (an empty string, zero, or empty collection).
// Prune removes the former recursively so the serialized document carries
// only explicitly set values and the daemon's own defaults apply everywhere
// else.
//
// Marshal renders a pruned tree to YAML with map keys in insertion order,
// so rebuilding the same document always produces byte-identical output.
package configtree
