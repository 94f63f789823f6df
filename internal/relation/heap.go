// Package relation is the relation-scanner external collaborator from
// spec.md §1, made concrete: a minimal slotted-page heap file good
// enough to build and scan a relation an Index is built over, plus a
// tuple codec that reads the indexed attribute out of its raw bytes.
// None of this is part of the B+-tree engine itself — btreeidx only
// ever sees it through the RecordSource and Codec interfaces.
package relation

import (
	"github.com/pkg/errors"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/idxlog"
	"btreeidx/internal/pagestore"
)

// Page header layout (16 bytes), adapted from the slotted heap page
// format this package is grounded on:
//
//	offset 0    magic     [4]byte "RHP1"
//	offset 4    pageID    uint32
//	offset 8    numSlots  uint16
//	offset 10   freeStart uint16
//	offset 12-15 reserved
//
// The slot directory grows backward from the end of the page: slot i
// occupies bytes [PageSize-(i+1)*4, PageSize-i*4), holding (offset
// uint16, length uint16). A tombstoned slot has offset 0xFFFF.
const (
	heapMagic       = "RHP1"
	heapHeaderSize  = 16
	slotSize        = 4
	tombstoneOffset = 0xFFFF
)

var errNoSpace = errors.New("relation: page full")

// RID addresses a record in a Heap by (page, slot). It has the same
// shape as btreeidx.RID, which Scanner yields, but is a distinct type
// returned by the Heap API.
type RID struct {
	PageNo uint32
	SlotNo uint16
}

// Heap is an append-biased slotted-page relation file: InsertRecord
// always tries the most recently allocated page before asking the
// store for a new one.
type Heap struct {
	mgr  *bufmgr.Manager
	last pagestore.PageID
}

// NewHeap wraps an already-open buffer manager as a heap file. The
// file may be empty (no heap pages yet, only the store's reserved
// page 0) or may already contain data from a previous run.
func NewHeap(mgr *bufmgr.Manager) *Heap {
	var last pagestore.PageID
	if n := mgr.PageCount(); n > 1 {
		last = pagestore.PageID(n - 1)
	}
	return &Heap{mgr: mgr, last: last}
}

// InsertRecord appends data as one record, allocating a new heap page
// when the current one has no room left.
func (h *Heap) InsertRecord(data []byte) (RID, error) {
	if h.last == 0 {
		id, err := h.allocPage()
		if err != nil {
			return RID{}, err
		}
		h.last = id
	}

	slot, err := h.tryInsert(h.last, data)
	if err == nil {
		return RID{PageNo: uint32(h.last), SlotNo: slot}, nil
	}
	if errors.Cause(err) != errNoSpace {
		return RID{}, err
	}

	id, err := h.allocPage()
	if err != nil {
		return RID{}, err
	}
	h.last = id
	slot, err = h.tryInsert(h.last, data)
	if err != nil {
		return RID{}, err
	}
	return RID{PageNo: uint32(h.last), SlotNo: slot}, nil
}

func (h *Heap) allocPage() (pagestore.PageID, error) {
	id, f, err := h.mgr.AllocPage()
	if err != nil {
		return 0, errors.Wrap(err, "relation: alloc heap page")
	}
	initHeapPage(f.Data, uint32(id))
	idxlog.Get().Debug().Uint32("page", uint32(id)).Msg("relation: new heap page")
	return id, h.mgr.UnpinPage(id, true)
}

func (h *Heap) tryInsert(id pagestore.PageID, data []byte) (uint16, error) {
	f, err := h.mgr.ReadPage(id)
	if err != nil {
		return 0, errors.Wrap(err, "relation: read heap page")
	}
	slot, ok := insertRow(f.Data, data)
	if !ok {
		_ = h.mgr.UnpinPage(id, false)
		return 0, errNoSpace
	}
	if err := h.mgr.UnpinPage(id, true); err != nil {
		return 0, err
	}
	return slot, nil
}

// ReadRecord returns a copy of the record at rid.
func (h *Heap) ReadRecord(rid RID) ([]byte, error) {
	f, err := h.mgr.ReadPage(pagestore.PageID(rid.PageNo))
	if err != nil {
		return nil, errors.Wrap(err, "relation: read heap page")
	}
	defer func() { _ = h.mgr.UnpinPage(pagestore.PageID(rid.PageNo), false) }()

	rec, ok := readRow(f.Data, rid.SlotNo)
	if !ok {
		return nil, errors.Errorf("relation: slot %d on page %d is empty", rid.SlotNo, rid.PageNo)
	}
	out := make([]byte, len(rec))
	copy(out, rec)
	return out, nil
}

func initHeapPage(p []byte, pageID uint32) {
	copy(p[0:4], heapMagic)
	putU32(p[4:8], pageID)
	putU16(p[8:10], 0)
	putU16(p[10:12], heapHeaderSize)
}

func numSlots(p []byte) uint16      { return u16(p[8:10]) }
func setNumSlots(p []byte, n uint16) { putU16(p[8:10], n) }
func freeStart(p []byte) uint16     { return u16(p[10:12]) }
func setFreeStart(p []byte, off uint16) { putU16(p[10:12], off) }

func slotPos(i uint16) int { return pagestore.PageSize - int(i+1)*slotSize }

func getSlot(p []byte, i uint16) (uint16, uint16) {
	pos := slotPos(i)
	return u16(p[pos : pos+2]), u16(p[pos+2 : pos+4])
}

func setSlot(p []byte, i uint16, off, length uint16) {
	pos := slotPos(i)
	putU16(p[pos:pos+2], off)
	putU16(p[pos+2:pos+4], length)
}

// insertRow places data into the first reusable tombstoned slot, or
// appends a new slot, returning the slot index. ok is false if the
// page has no room for data plus (if needed) a new slot entry.
func insertRow(p []byte, data []byte) (uint16, bool) {
	n := numSlots(p)
	start := freeStart(p)

	var reuse = -1
	for i := uint16(0); i < n; i++ {
		off, length := getSlot(p, i)
		if off == tombstoneOffset && length == 0 {
			reuse = int(i)
			break
		}
	}

	needed := len(data)
	if reuse < 0 {
		needed += slotSize
	}
	freeEnd := pagestore.PageSize - int(n)*slotSize
	if int(start)+needed > freeEnd {
		return 0, false
	}

	copy(p[start:int(start)+len(data)], data)

	var slot uint16
	if reuse >= 0 {
		slot = uint16(reuse)
	} else {
		slot = n
		setNumSlots(p, n+1)
	}
	setSlot(p, slot, start, uint16(len(data)))
	setFreeStart(p, start+uint16(len(data)))
	return slot, true
}

func readRow(p []byte, slot uint16) ([]byte, bool) {
	if slot >= numSlots(p) {
		return nil, false
	}
	off, length := getSlot(p, slot)
	if off == tombstoneOffset || length == 0 {
		return nil, false
	}
	return p[off : off+length], true
}
