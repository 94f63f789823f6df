package btreeidx

import "testing"

func TestLeafAndNodeCapacityFitOnePage(t *testing.T) {
	const pageSize = 4096
	lc := LeafCapacity(pageSize)
	nc := NodeCapacity(pageSize)
	if lc <= 0 || nc <= 0 {
		t.Fatalf("expected positive capacities, got leaf=%d node=%d", lc, nc)
	}
	if headerSize+lc*leafEntry > pageSize {
		t.Fatalf("leaf capacity %d overflows page size", lc)
	}
	if headerSize+nodeFixed+nc*nodeEntry > pageSize {
		t.Fatalf("node capacity %d overflows page size", nc)
	}
}

func TestLeafEntryRoundTrip(t *testing.T) {
	p := make([]byte, 4096)
	initLeaf(p)
	setLeafEntry(p, 0, 7, RID{PageNo: 3, SlotNo: 9})
	setLength(p, 1)

	if got := leafKeyAt(p, 0); got != 7 {
		t.Fatalf("key: got %d want 7", got)
	}
	if got := leafRIDAt(p, 0); got != (RID{PageNo: 3, SlotNo: 9}) {
		t.Fatalf("rid: got %+v", got)
	}
}

func TestShiftLeafRightMakesRoom(t *testing.T) {
	p := make([]byte, 4096)
	initLeaf(p)
	setLeafEntry(p, 0, 1, RID{PageNo: 1})
	setLeafEntry(p, 1, 2, RID{PageNo: 2})
	setLength(p, 2)

	shiftLeafRight(p, 1, 2)
	setLeafEntry(p, 1, 15, RID{PageNo: 15})
	setLength(p, 3)

	if k := leafKeyAt(p, 0); k != 1 {
		t.Fatalf("slot 0: got %d want 1", k)
	}
	if k := leafKeyAt(p, 1); k != 15 {
		t.Fatalf("slot 1: got %d want 15", k)
	}
	if k := leafKeyAt(p, 2); k != 2 {
		t.Fatalf("slot 2: got %d want 2", k)
	}
}

func TestNonLeafChildRoundTrip(t *testing.T) {
	p := make([]byte, 4096)
	initNonLeaf(p, 10)
	setNonLeafKey(p, 0, 5)
	setNonLeafChild(p, 1, 11)
	setLength(p, 1)

	if c := nonLeafChild(p, 0); c != 10 {
		t.Fatalf("child 0: got %d want 10", c)
	}
	if k := nonLeafKeyAt(p, 0); k != 5 {
		t.Fatalf("key 0: got %d want 5", k)
	}
	if c := nonLeafChild(p, 1); c != 11 {
		t.Fatalf("child 1: got %d want 11", c)
	}
}
