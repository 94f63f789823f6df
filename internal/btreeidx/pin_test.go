package btreeidx

import (
	"errors"
	"path/filepath"
	"testing"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/pagestore"
)

func newTestMgr(t *testing.T) *bufmgr.Manager {
	t.Helper()
	store, err := pagestore.Open(filepath.Join(t.TempDir(), "pin.dat"))
	if err != nil {
		t.Fatalf("pagestore.Open failed: %v", err)
	}
	return bufmgr.New(store, 16)
}

func TestAllocPinnedThenPinPageSeesWrites(t *testing.T) {
	mgr := newTestMgr(t)

	p, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initLeaf(p.bytes())
	setLeafEntry(p.bytes(), 0, 42, RID{PageNo: 1, SlotNo: 2})
	setLength(p.bytes(), 1)
	p.markDirty()
	if err := p.unpin(); err != nil {
		t.Fatalf("unpin failed: %v", err)
	}

	reread, err := pinPage(mgr, p.id)
	if err != nil {
		t.Fatalf("pinPage failed: %v", err)
	}
	lv := reread.asLeaf()
	if lv.length() != 1 || lv.key(0) != 42 {
		t.Fatalf("expected key 42 at slot 0, got length=%d key=%d", lv.length(), lv.key(0))
	}
	if err := reread.unpin(); err != nil {
		t.Fatalf("unpin failed: %v", err)
	}
}

func TestPinPageOnMissingPageReturnsPageNotFound(t *testing.T) {
	mgr := newTestMgr(t)
	if _, err := pinPage(mgr, 99); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound pinning a nonexistent page, got %v", err)
	}
}

func TestIsLeafPageReflectsInitKind(t *testing.T) {
	mgr := newTestMgr(t)

	leaf, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initLeaf(leaf.bytes())
	if !leaf.isLeafPage() {
		t.Fatalf("expected a freshly initialized leaf page to report isLeafPage() == true")
	}
	_ = leaf.unpin()

	node, err := allocPinned(mgr)
	if err != nil {
		t.Fatalf("allocPinned failed: %v", err)
	}
	initNonLeaf(node.bytes(), leaf.id)
	if node.isLeafPage() {
		t.Fatalf("expected a freshly initialized non-leaf page to report isLeafPage() == false")
	}
	_ = node.unpin()
}
