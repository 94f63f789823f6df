package relation

import (
	"path/filepath"
	"testing"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/btreeidx"
	"btreeidx/internal/pagestore"
)

func openTestHeap(t *testing.T) *Heap {
	t.Helper()
	store, err := pagestore.Open(filepath.Join(t.TempDir(), "rel.dat"))
	if err != nil {
		t.Fatalf("pagestore.Open failed: %v", err)
	}
	mgr := bufmgr.New(store, 16)
	return NewHeap(mgr)
}

func TestInsertAndReadRecordRoundTrip(t *testing.T) {
	h := openTestHeap(t)

	rid, err := h.InsertRecord([]byte("hello"))
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	got, err := h.ReadRecord(rid)
	if err != nil {
		t.Fatalf("ReadRecord failed: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestInsertManyRecordsSpansPages(t *testing.T) {
	h := openTestHeap(t)

	var rids []RID
	for i := 0; i < 2000; i++ {
		rid, err := h.InsertRecord([]byte("record-payload"))
		if err != nil {
			t.Fatalf("InsertRecord %d failed: %v", i, err)
		}
		rids = append(rids, rid)
	}

	pages := map[uint32]bool{}
	for _, r := range rids {
		pages[r.PageNo] = true
	}
	if len(pages) < 2 {
		t.Fatalf("expected records to span multiple heap pages, got %d page(s)", len(pages))
	}

	for _, r := range rids {
		data, err := h.ReadRecord(r)
		if err != nil {
			t.Fatalf("ReadRecord(%+v) failed: %v", r, err)
		}
		if string(data) != "record-payload" {
			t.Fatalf("ReadRecord(%+v) = %q", r, data)
		}
	}
}

func TestScannerYieldsEveryRecordThenEndOfRelation(t *testing.T) {
	h := openTestHeap(t)
	want := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	for _, rec := range want {
		if _, err := h.InsertRecord(rec); err != nil {
			t.Fatalf("InsertRecord failed: %v", err)
		}
	}

	s := NewScanner(h)
	var got [][]byte
	for {
		rec, _, err := s.Next()
		if err != nil {
			if err == btreeidx.ErrEndOfRelation {
				break
			}
			t.Fatalf("Scanner.Next failed: %v", err)
		}
		got = append(got, rec)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if string(got[i]) != string(want[i]) {
			t.Fatalf("record %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestInt32CodecExtractsLittleEndianKey(t *testing.T) {
	record := make([]byte, 12)
	record[4], record[5], record[6], record[7] = 0x2a, 0, 0, 0 // 42 at offset 4

	key, err := (Int32Codec{}).ExtractKey(record, 4)
	if err != nil {
		t.Fatalf("ExtractKey failed: %v", err)
	}
	if key != 42 {
		t.Fatalf("got %d, want 42", key)
	}

	if _, err := (Int32Codec{}).ExtractKey(record, 20); err == nil {
		t.Fatalf("expected error for out-of-range offset")
	}
}
