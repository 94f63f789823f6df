package btreeidx

// Insert adds one (key, rid) entry, per spec.md §4.3. It finds the
// target leaf via the path vector, inserts in sorted order, and if
// the leaf is full, splits it and cascades the split upward along the
// path, re-pinning each ancestor in turn rather than following a
// stored parent pointer. A cascade that reaches the root promotes a
// new one.
func (idx *Index) Insert(key Key, rid RID) error {
	if err := idx.checkOpen(); err != nil {
		return err
	}
	leafID, path, err := findLeaf(idx.mgr, idx.root, key)
	if err != nil {
		return err
	}

	leaf, err := pinPage(idx.mgr, leafID)
	if err != nil {
		return err
	}

	n := leaf.asLeaf().length()
	if n < idx.leafCap {
		insertIntoLeaf(leaf, key, rid)
		leaf.markDirty()
		return leaf.unpin()
	}

	sepKey, rightID, err := idx.splitLeaf(leaf, key, rid)
	if err != nil {
		_ = leaf.unpin()
		return err
	}
	if err := leaf.unpin(); err != nil {
		return err
	}

	return idx.propagateSplit(path, leafID, sepKey, rightID)
}

// insertIntoLeaf inserts (key, rid) into a non-full, already-pinned
// leaf, keeping entries sorted by key.
func insertIntoLeaf(leaf *pin, key Key, rid RID) {
	data := leaf.bytes()
	n := int(length(data))
	i := 0
	for i < n && leafKeyAt(data, i) <= key {
		i++
	}
	shiftLeafRight(data, i, n)
	setLeafEntry(data, i, key, rid)
	setLength(data, uint32(n+1))
}

// splitLeaf splits a full, pinned leaf after conceptually inserting
// (key, rid), leaving the lower half in leaf and writing the upper
// half to a freshly allocated right sibling. It returns the separator
// key to promote (leaf-copies-up: that key also remains the first key
// of the new right leaf, per spec.md §9) and the new leaf's page ID.
func (idx *Index) splitLeaf(leaf *pin, key Key, rid RID) (Key, PageID, error) {
	data := leaf.bytes()
	n := int(length(data))

	keys := make([]Key, 0, n+1)
	rids := make([]RID, 0, n+1)
	inserted := false
	for i := 0; i < n; i++ {
		k, r := leafKeyAt(data, i), leafRIDAt(data, i)
		if !inserted && key <= k {
			keys = append(keys, key)
			rids = append(rids, rid)
			inserted = true
		}
		keys = append(keys, k)
		rids = append(rids, r)
	}
	if !inserted {
		keys = append(keys, key)
		rids = append(rids, rid)
	}

	mid := (len(keys) + 1) / 2

	right, err := allocPinned(idx.mgr)
	if err != nil {
		return 0, 0, err
	}
	rdata := right.bytes()
	initLeaf(rdata)
	setRightSib(rdata, rightSib(data))
	for i := mid; i < len(keys); i++ {
		setLeafEntry(rdata, i-mid, keys[i], rids[i])
	}
	setLength(rdata, uint32(len(keys)-mid))
	right.markDirty()
	if err := right.unpin(); err != nil {
		return 0, 0, err
	}

	for i := 0; i < mid; i++ {
		setLeafEntry(data, i, keys[i], rids[i])
	}
	setLength(data, uint32(mid))
	setRightSib(data, right.id)

	return keys[mid], right.id, nil
}

// propagateSplit inserts (sepKey, rightID) — the separator produced by
// splitting the page at leftID — into leftID's parent, which is the
// last entry of path. If path is empty, leftID was the root and a new
// root is promoted. A parent split cascades recursively up the
// remaining path.
func (idx *Index) propagateSplit(path []PageID, leftID PageID, sepKey Key, rightID PageID) error {
	if len(path) == 0 {
		return idx.promoteRoot(leftID, sepKey, rightID)
	}

	parentID := path[len(path)-1]
	rest := path[:len(path)-1]

	parent, err := pinPage(idx.mgr, parentID)
	if err != nil {
		return err
	}

	node := parent.asNode()
	at := findChildIndex(node, leftID)

	if node.length() < idx.nodeCap {
		insertIntoNode(parent, at, sepKey, rightID)
		parent.markDirty()
		return parent.unpin()
	}

	newSep, newRightID, err := idx.splitNode(parent, at, sepKey, rightID)
	if err != nil {
		_ = parent.unpin()
		return err
	}
	if err := parent.unpin(); err != nil {
		return err
	}

	return idx.propagateSplit(rest, parentID, newSep, newRightID)
}

// findChildIndex returns the position of childID among node's n+1
// child pointers.
func findChildIndex(node nodeView, childID PageID) int {
	for i := 0; i <= node.length(); i++ {
		if node.child(i) == childID {
			return i
		}
	}
	return node.length()
}

// insertIntoNode inserts a (key, child) pair into a non-full, pinned
// non-leaf page: key goes at index at, child at index at+1, the
// existing separator-child the new child splits off from stays at
// index at.
func insertIntoNode(parent *pin, at int, key Key, child PageID) {
	data := parent.bytes()
	n := int(length(data))
	shiftNonLeafRight(data, at, n)
	setNonLeafKey(data, at, key)
	setNonLeafChild(data, at+1, child)
	setLength(data, uint32(n+1))
}

// splitNode splits a full, pinned non-leaf page after conceptually
// inserting (key, child) at index at (at+1 for the child), lifting
// the median key up rather than copying it (spec.md §9: non-leaves
// lift up, leaves copy up). The median key is removed from both
// halves; it is the caller's job to insert it into the grandparent.
func (idx *Index) splitNode(parent *pin, at int, key Key, child PageID) (Key, PageID, error) {
	data := parent.bytes()
	n := int(length(data))

	oldKeys := make([]Key, n)
	for i := 0; i < n; i++ {
		oldKeys[i] = nonLeafKeyAt(data, i)
	}
	oldChildren := make([]PageID, n+1)
	for i := 0; i <= n; i++ {
		oldChildren[i] = nonLeafChild(data, i)
	}

	keys := make([]Key, 0, n+1)
	keys = append(keys, oldKeys[:at]...)
	keys = append(keys, key)
	keys = append(keys, oldKeys[at:]...)

	children := make([]PageID, 0, n+2)
	children = append(children, oldChildren[:at+1]...)
	children = append(children, child)
	children = append(children, oldChildren[at+1:]...)

	mid := len(keys) / 2
	medianKey := keys[mid]

	leftKeys, leftChildren := keys[:mid], children[:mid+1]
	rightKeys, rightChildren := keys[mid+1:], children[mid+1:]

	right, err := allocPinned(idx.mgr)
	if err != nil {
		return 0, 0, err
	}
	rdata := right.bytes()
	initNonLeaf(rdata, rightChildren[0])
	for i, k := range rightKeys {
		setNonLeafKey(rdata, i, k)
		setNonLeafChild(rdata, i+1, rightChildren[i+1])
	}
	setLength(rdata, uint32(len(rightKeys)))
	right.markDirty()
	if err := right.unpin(); err != nil {
		return 0, 0, err
	}

	setNonLeafChild(data, 0, leftChildren[0])
	for i, k := range leftKeys {
		setNonLeafKey(data, i, k)
		setNonLeafChild(data, i+1, leftChildren[i+1])
	}
	setLength(data, uint32(len(leftKeys)))

	return medianKey, right.id, nil
}

// promoteRoot handles a split cascade that reached the root: it
// allocates a fresh non-leaf page with leftID and rightID as its two
// children and sepKey as the sole separator, then makes that page the
// tree's new root. Per spec.md §4.3, this is the only way the tree
// grows a level.
func (idx *Index) promoteRoot(leftID PageID, sepKey Key, rightID PageID) error {
	newRoot, err := allocPinned(idx.mgr)
	if err != nil {
		return err
	}
	data := newRoot.bytes()
	initNonLeaf(data, leftID)
	setNonLeafKey(data, 0, sepKey)
	setNonLeafChild(data, 1, rightID)
	setLength(data, 1)
	newRoot.markDirty()
	if err := newRoot.unpin(); err != nil {
		return err
	}
	return idx.setRoot(newRoot.id)
}
