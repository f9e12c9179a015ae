package configtree

// Prune returns a copy of the document with every unset entry removed: unset
// map values are dropped from their parent, unset list items are dropped in
// place, and the walk recurses into surviving lists and maps.
//
// Explicit empty values are kept: an empty string, a zero, or a collection
// the caller built empty all survive. A collection that only becomes empty
// because pruning removed all of its entries is dropped from its parent —
// pruning never introduces empties the caller did not write.
//
// Prune is a pure function and idempotent. A document that prunes away
// entirely yields nil.
func Prune(n *Node) *Node {
	out, keep := prune(n)
	if !keep {
		return nil
	}
	return out
}

func prune(n *Node) (*Node, bool) {
	switch n.kind {
	case KindUnset:
		return nil, false

	case KindScalar:
		return &Node{kind: KindScalar, scalar: n.scalar}, true

	case KindList:
		out := &Node{kind: KindList}
		for _, item := range n.list {
			if p, keep := prune(item); keep {
				out.list = append(out.list, p)
			}
		}
		if len(out.list) == 0 && len(n.list) > 0 {
			return nil, false
		}
		return out, true

	case KindMap:
		out := &Node{kind: KindMap, fields: map[string]*Node{}}
		for _, k := range n.keys {
			if p, keep := prune(n.fields[k]); keep {
				out.keys = append(out.keys, k)
				out.fields[k] = p
			}
		}
		if len(out.keys) == 0 && len(n.keys) > 0 {
			return nil, false
		}
		return out, true

	default:
		return nil, false
	}
}
