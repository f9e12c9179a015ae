// Package daemoncfg is the typed option schema for the managed daemon's
// configuration.
//
// Load(path) parses the operator-written spec file (YAML) and validates the
// constraints needed to lower it at all: unique job names, known schemes,
// non-empty target groups. ToNode() lowers the spec into a configtree
// document where every unspecified field is an unset node, so after pruning
// the rendered artifact carries only what the operator actually wrote.
//
// Watch(ctx, path, onChange) follows the spec file with fsnotify and hands
// each successfully parsed revision to onChange, keeping the previous spec
// on parse failure. It handles the rename→create pattern used by
// atomic-save editors by re-adding the watch after each change.
package daemoncfg
