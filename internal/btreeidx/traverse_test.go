package btreeidx

import "testing"

func TestFindLeafDescendsToCorrectChild(t *testing.T) {
	mgr := newTestMgr(t)

	left, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initLeaf(left.bytes())
	setLeafEntry(left.bytes(), 0, 1, RID{PageNo: 1})
	setLength(left.bytes(), 1)
	if err := left.unpin(); err != nil {
		t.Fatalf("unpin failed: %v", err)
	}

	right, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initLeaf(right.bytes())
	setLeafEntry(right.bytes(), 0, 10, RID{PageNo: 2})
	setLength(right.bytes(), 1)
	if err := right.unpin(); err != nil {
		t.Fatalf("unpin failed: %v", err)
	}

	root, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initNonLeaf(root.bytes(), left.id)
	setNonLeafKey(root.bytes(), 0, 10)
	setNonLeafChild(root.bytes(), 1, right.id)
	setLength(root.bytes(), 1)
	if err := root.unpin(); err != nil {
		t.Fatalf("unpin failed: %v", err)
	}

	leafID, path, err := findLeaf(mgr, root.id, 5)
	if err != nil {
		t.Fatalf("findLeaf failed: %v", err)
	}
	if leafID != left.id {
		t.Fatalf("key 5: got leaf %d, want %d", leafID, left.id)
	}
	if len(path) != 1 || path[0] != root.id {
		t.Fatalf("expected path [%d], got %v", root.id, path)
	}

	// Equality descends right: a search for the separator key itself
	// lands in the right child, the same leaf a leaf split's copied-up
	// separator would land in.
	leafID, _, err = findLeaf(mgr, root.id, 10)
	if err != nil {
		t.Fatalf("findLeaf failed: %v", err)
	}
	if leafID != right.id {
		t.Fatalf("key 10: got leaf %d, want %d (equality-descends-right)", leafID, right.id)
	}

	leafID, _, err = findLeaf(mgr, root.id, 999)
	if err != nil {
		t.Fatalf("findLeaf failed: %v", err)
	}
	if leafID != right.id {
		t.Fatalf("key 999: got leaf %d, want %d", leafID, right.id)
	}
}
