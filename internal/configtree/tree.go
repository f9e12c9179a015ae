package configtree

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	// KindUnset marks a value the caller never specified. Unset nodes are
	// removed by Prune so the daemon's own defaults apply.
	KindUnset Kind = iota
	KindScalar
	KindList
	KindMap
)

// Node is one value in a configuration document: a scalar, an ordered list
// of nodes, or a string-keyed mapping. Map keys keep insertion order so the
// serialized document is deterministic and reads in the order it was built.
type Node struct {
	kind   Kind
	scalar any
	list   []*Node
	keys   []string
	fields map[string]*Node
}

// Unset returns the sentinel for "caller did not specify this value".
// It is distinct from an explicit empty string, zero, or empty collection.
func Unset() *Node { return &Node{kind: KindUnset} }

// String returns a scalar string node. An empty string is an explicit value
// and survives pruning.
func String(v string) *Node { return &Node{kind: KindScalar, scalar: v} }

// Int returns a scalar integer node.
func Int(v int) *Node { return &Node{kind: KindScalar, scalar: v} }

// Bool returns a scalar boolean node.
func Bool(v bool) *Node { return &Node{kind: KindScalar, scalar: v} }

// Float returns a scalar float node.
func Float(v float64) *Node { return &Node{kind: KindScalar, scalar: v} }

// List returns a list node holding items in the given order.
// List() with no items is an explicitly empty list.
func List(items ...*Node) *Node {
	return &Node{kind: KindList, list: items}
}

// Map returns an empty mapping node. Map() with no subsequent Set calls is
// an explicitly empty map.
func Map() *Node {
	return &Node{kind: KindMap, fields: map[string]*Node{}}
}

// Set binds key to child in a mapping node and returns the node so calls
// chain. Setting an existing key replaces its value without changing the
// key's position. Calling Set on a non-map node panics: building a document
// with the wrong shape is a programming error, not a runtime condition.
func (n *Node) Set(key string, child *Node) *Node {
	if n.kind != KindMap {
		panic(fmt.Sprintf("configtree: Set on %v node", n.kind))
	}
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
	return n
}

// Append adds items to a list node and returns the node.
func (n *Node) Append(items ...*Node) *Node {
	if n.kind != KindList {
		panic(fmt.Sprintf("configtree: Append on %v node", n.kind))
	}
	n.list = append(n.list, items...)
	return n
}

// Kind reports the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Scalar returns the value of a scalar node, or nil for any other kind.
func (n *Node) Scalar() any {
	if n.kind != KindScalar {
		return nil
	}
	return n.scalar
}

// Len returns the number of items in a list or keys in a map, 0 otherwise.
func (n *Node) Len() int {
	switch n.kind {
	case KindList:
		return len(n.list)
	case KindMap:
		return len(n.keys)
	default:
		return 0
	}
}

// Items returns the items of a list node.
func (n *Node) Items() []*Node { return n.list }

// Keys returns the keys of a map node in insertion order.
func (n *Node) Keys() []string { return n.keys }

// Get returns the child bound to key, or nil if absent or not a map.
func (n *Node) Get(key string) *Node {
	if n.kind != KindMap {
		return nil
	}
	return n.fields[key]
}

// MarshalYAML serializes the node. Maps are emitted in insertion order.
// Marshaling an unset node is an error: callers must Prune first.
func (n *Node) MarshalYAML() (any, error) {
	switch n.kind {
	case KindScalar:
		return n.scalar, nil
	case KindList:
		return n.list, nil
	case KindMap:
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range n.keys {
			key := &yaml.Node{}
			key.SetString(k)
			val := &yaml.Node{}
			if err := val.Encode(n.fields[k]); err != nil {
				return nil, fmt.Errorf("configtree: encode key %q: %w", k, err)
			}
			out.Content = append(out.Content, key, val)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("configtree: marshal of unset node (document not pruned)")
	}
}

// Marshal renders a pruned document as YAML.
func Marshal(n *Node) ([]byte, error) {
	data, err := yaml.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("configtree: marshal: %w", err)
	}
	return data, nil
}

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
