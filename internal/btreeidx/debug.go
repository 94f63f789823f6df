package btreeidx

import (
	"fmt"
	"io"
	"strings"
)

// DebugDump writes a human-readable shape of the tree to w: one line
// per page, indented by depth, leaves showing their key range and
// non-leaves showing their separator keys. It never pins more than one
// page at a time and takes no locks beyond the normal pin/unpin
// discipline, so it is safe to call between operations but not
// concurrently with one (spec.md's Non-goals exclude concurrent
// access entirely).
func (idx *Index) DebugDump(w io.Writer) error {
	if err := idx.checkOpen(); err != nil {
		return err
	}
	return idx.dumpPage(w, idx.root, 0)
}

func (idx *Index) dumpPage(w io.Writer, id PageID, depth int) error {
	p, err := pinPage(idx.mgr, id)
	if err != nil {
		return err
	}
	indent := strings.Repeat("  ", depth)

	if p.isLeafPage() {
		lv := p.asLeaf()
		n := lv.length()
		keys := make([]string, n)
		for i := 0; i < n; i++ {
			keys[i] = fmt.Sprintf("%d", lv.key(i))
		}
		fmt.Fprintf(w, "%sleaf page=%d n=%d keys=[%s]\n", indent, id, n, strings.Join(keys, " "))
		return p.unpin()
	}

	nv := p.asNode()
	n := nv.length()
	children := make([]PageID, n+1)
	keys := make([]Key, n)
	for i := 0; i < n; i++ {
		keys[i] = nv.key(i)
	}
	for i := 0; i <= n; i++ {
		children[i] = nv.child(i)
	}
	if err := p.unpin(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%snode page=%d n=%d keys=%v\n", indent, id, n, keys)
	for _, child := range children {
		if err := idx.dumpPage(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
