// Package materialize turns a pruned configuration document into the
// on-disk artifact the daemon reads.
//
// Secrets are kept out of the document: the serialized text carries ${NAME}
// placeholders, and Render substitutes values from a separate NAME=value
// bindings file at write time. The destination file is created and chmodded
// to 0600 before any substituted content is written, so there is no window
// in which another local user can read secret values.
//
// Unbound placeholders pass through verbatim — failing on genuinely missing
// values is the daemon's own job.
package materialize
