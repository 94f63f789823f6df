package btreeidx

import "encoding/binary"

// Page layout (spec.md §3). Every page — leaf or non-leaf — starts with
// a 12-byte header:
//
//	offset 0    isLeaf      uint8 (0 or 1)
//	offset 1-3  unused
//	offset 4-7  length      uint32
//	offset 8-11 rightSib    uint32 (leaf only; sentinel 0 = no successor)
//
// A leaf body holds `length` (key, rid) pairs sorted by key:
//
//	offset 12 + i*leafEntry              key  int32
//	offset 12 + i*leafEntry + 4          rid  PageNo uint32, SlotNo uint16
//
// A non-leaf body holds children[0] followed by `length` (key, child)
// pairs:
//
//	offset 12                            children[0]  uint32
//	offset 16 + i*nodeEntry               key         int32
//	offset 16 + i*nodeEntry + 4           child        uint32
const (
	headerSize  = 12
	ridSize     = 6 // PageNo uint32 + SlotNo uint16
	keySize     = 4
	childSize   = 4
	leafEntry   = keySize + ridSize
	nodeEntry   = keySize + childSize
	nodeFixed   = childSize // children[0], stored before the first (key,child) pair
)

// LeafCapacity returns the maximum number of (key, rid) pairs a leaf
// page of the given size can hold.
func LeafCapacity(pageSize int) int {
	return (pageSize - headerSize) / leafEntry
}

// NodeCapacity returns the maximum number of keys a non-leaf page of
// the given size can hold (it always has one more child than key).
func NodeCapacity(pageSize int) int {
	return (pageSize - headerSize - nodeFixed) / nodeEntry
}

func isLeaf(p []byte) bool { return p[0] == 1 }

func setLeaf(p []byte, leaf bool) {
	if leaf {
		p[0] = 1
	} else {
		p[0] = 0
	}
}

func length(p []byte) uint32 { return binary.LittleEndian.Uint32(p[4:8]) }

func setLength(p []byte, n uint32) { binary.LittleEndian.PutUint32(p[4:8], n) }

func rightSib(p []byte) PageID { return PageID(binary.LittleEndian.Uint32(p[8:12])) }

func setRightSib(p []byte, id PageID) { binary.LittleEndian.PutUint32(p[8:12], uint32(id)) }

func leafKeyAt(p []byte, i int) Key {
	off := headerSize + i*leafEntry
	return int32(binary.LittleEndian.Uint32(p[off : off+4]))
}

func leafRIDAt(p []byte, i int) RID {
	off := headerSize + i*leafEntry + keySize
	return RID{
		PageNo: binary.LittleEndian.Uint32(p[off : off+4]),
		SlotNo: binary.LittleEndian.Uint16(p[off+4 : off+6]),
	}
}

func setLeafEntry(p []byte, i int, k Key, rid RID) {
	off := headerSize + i*leafEntry
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(k))
	binary.LittleEndian.PutUint32(p[off+4:off+8], rid.PageNo)
	binary.LittleEndian.PutUint16(p[off+8:off+10], rid.SlotNo)
}

// shiftLeafRight moves entries [from, n) one slot to the right, making
// room to insert at index `from`. n is the length before the shift.
func shiftLeafRight(p []byte, from, n int) {
	if from >= n {
		return
	}
	src := headerSize + from*leafEntry
	dst := src + leafEntry
	count := (n - from) * leafEntry
	copy(p[dst:dst+count], p[src:src+count])
}

func nonLeafChild(p []byte, i int) PageID {
	if i == 0 {
		return PageID(binary.LittleEndian.Uint32(p[headerSize : headerSize+4]))
	}
	off := headerSize + nodeFixed + (i-1)*nodeEntry + keySize
	return PageID(binary.LittleEndian.Uint32(p[off : off+4]))
}

func setNonLeafChild(p []byte, i int, id PageID) {
	if i == 0 {
		binary.LittleEndian.PutUint32(p[headerSize:headerSize+4], uint32(id))
		return
	}
	off := headerSize + nodeFixed + (i-1)*nodeEntry + keySize
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(id))
}

func nonLeafKeyAt(p []byte, i int) Key {
	off := headerSize + nodeFixed + i*nodeEntry
	return int32(binary.LittleEndian.Uint32(p[off : off+4]))
}

func setNonLeafKey(p []byte, i int, k Key) {
	off := headerSize + nodeFixed + i*nodeEntry
	binary.LittleEndian.PutUint32(p[off:off+4], uint32(k))
}

// shiftNonLeafRight moves keys [from, n) and children [from+1, n+1)
// one slot to the right, making room to insert a (key, child) pair at
// index `from`. n is the length before the shift.
func shiftNonLeafRight(p []byte, from, n int) {
	for i := n; i > from; i-- {
		setNonLeafKey(p, i, nonLeafKeyAt(p, i-1))
		setNonLeafChild(p, i+1, nonLeafChild(p, i))
	}
}

// initLeaf resets p to an empty leaf page with no sibling.
func initLeaf(p []byte) {
	setLeaf(p, true)
	setLength(p, 0)
	setRightSib(p, 0)
}

// initNonLeaf resets p to an empty non-leaf page with a single child.
func initNonLeaf(p []byte, firstChild PageID) {
	setLeaf(p, false)
	setLength(p, 0)
	setNonLeafChild(p, 0, firstChild)
}
