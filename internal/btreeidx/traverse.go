package btreeidx

import "btreeidx/internal/bufmgr"

// findLeaf descends from root to the leaf that would contain key,
// following the path-vector approach spec.md §9 prescribes in place
// of parent pointers: the caller gets the full root-to-leaf chain of
// page IDs back and re-pins each ancestor from scratch if a split
// cascade needs to revisit it, instead of trusting a stored parent
// link that a concurrent structural change could invalidate.
//
// At each non-leaf, the child chosen for a separator key equal to the
// search key is the one to its right (childAt, below) — equality
// descends right, per spec.md §9, so that a separator value promoted
// up from a leaf split always routes lookups for that exact value to
// the leaf holding it.
//
// Every page visited is unpinned before findLeaf returns; the caller
// re-pins the leaf (and, on insert, any ancestor on the returned path)
// as needed.
func findLeaf(mgr *bufmgr.Manager, root PageID, key Key) (leaf PageID, path []PageID, err error) {
	path = []PageID{}
	cur := root
	for {
		p, perr := pinPage(mgr, cur)
		if perr != nil {
			return 0, nil, perr
		}
		if p.isLeafPage() {
			_ = p.unpin()
			return cur, path, nil
		}
		path = append(path, cur)
		node := p.asNode()
		next := childAt(node, key)
		_ = p.unpin()
		cur = next
	}
}

// childAt returns the child pointer to follow for key, applying the
// equality-descends-right rule: the first separator strictly greater
// than key determines the branch; a separator equal to key routes to
// the child on its right.
func childAt(n nodeView, key Key) PageID {
	i := 0
	for i < n.length() && n.key(i) <= key {
		i++
	}
	return n.child(i)
}
