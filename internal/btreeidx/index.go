package btreeidx

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"btreeidx/internal/bufmgr"
	"btreeidx/internal/pagestore"
)

// metaPageID is the page the index metadata always lives on. Page 0
// of any pagestore.Store is reserved (spec.md's external pagestore
// collaborator); the index's first AllocPage call therefore always
// lands on page 1 for a freshly created file, which this package
// relies on as a convention rather than storing a pointer to it.
const metaPageID PageID = 1

// maxRelationName bounds the relation name stored in the metadata
// page, matching the fixed-width name field of the Minibase-lineage
// IndexMetaInfo this format descends from (see original_source).
const maxRelationName = 20

// metaLayout: relationName [20]byte, attrByteOffset int32,
// attrType uint8, pad[3], rootPageNo uint32.
const (
	metaNameOff   = 0
	metaOffsetOff = maxRelationName
	metaTypeOff   = metaOffsetOff + 4
	metaRootOff   = metaTypeOff + 4
)

// Codec is the tuple-codec external collaborator from spec.md §1: it
// interprets the indexed attribute's raw bytes, at a fixed offset
// inside a relation record, as this index's key type.
type Codec interface {
	ExtractKey(record []byte, offset int) (Key, error)
}

// RecordSource is the relation-scanner external collaborator: it
// yields every record in a relation once, as (record bytes, rid)
// pairs, and reports exhaustion with ErrEndOfRelation.
type RecordSource interface {
	Next() (record []byte, rid RID, err error)
}

// Index is a disk-resident B+-tree secondary index over one integer
// attribute of a relation, per spec.md in full. It holds no relation
// data itself — only keys and RecordIds pointing back into the
// relation the caller scans and codes independently.
type Index struct {
	mgr *bufmgr.Manager

	relationName string
	attrOffset   int
	attrType     AttrType

	root PageID

	leafCap int
	nodeCap int

	scan   *scan
	closed bool
}

// Option customizes an Index at Open time. The only current use is
// overriding the page-derived capacities for small-scale testing of
// the split cascade (spec.md §8, scenario S3/S4 choose a four-entry
// leaf capacity to force splits without thousands of inserts).
type Option func(*Index)

// WithCapacities overrides the leaf and non-leaf fanout that Open
// would otherwise derive from pagestore.PageSize. Both values apply
// for the lifetime of the Index; they are not persisted, so reopening
// the same file without the same override reverts to the page-size
// derived default.
func WithCapacities(leafCap, nodeCap int) Option {
	return func(idx *Index) {
		idx.leafCap = leafCap
		idx.nodeCap = nodeCap
	}
}

// Open opens an existing index file's metadata, or — if the
// underlying pagestore has no metadata page yet — bulk-builds a new
// one from source, per spec.md §4.5/§4.6. source and codec may be nil
// when reopening an existing index; they are required for a fresh
// build.
func Open(mgr *bufmgr.Manager, relationName string, attrOffset int, attrType AttrType, codec Codec, source RecordSource, opts ...Option) (*Index, error) {
	if len(relationName) > maxRelationName {
		return nil, errors.Errorf("btreeidx: relation name %q is %d bytes, exceeds the %d-byte metadata field", relationName, len(relationName), maxRelationName)
	}
	idx := &Index{
		mgr:          mgr,
		relationName: relationName,
		attrOffset:   attrOffset,
		attrType:     attrType,
		leafCap:      LeafCapacity(pagestore.PageSize),
		nodeCap:      NodeCapacity(pagestore.PageSize),
	}
	for _, o := range opts {
		o(idx)
	}

	metaPin, err := pinPage(mgr, metaPageID)
	switch {
	case err == nil:
		m := readMeta(metaPin.bytes())
		if uerr := metaPin.unpin(); uerr != nil {
			return nil, uerr
		}
		if m.RelationName != relationName || m.AttrByteOffset != attrOffset || m.AttrType != attrType {
			return nil, ErrBadIndexInfo
		}
		idx.root = m.RootPageNo
		return idx, nil

	case errors.Is(err, ErrPageNotFound):
		return idx.bulkBuild(codec, source)

	default:
		return nil, err
	}
}

// bulkBuild creates a fresh metadata page and an empty root leaf, then
// inserts every record source yields, per spec.md §4.5.
func (idx *Index) bulkBuild(codec Codec, source RecordSource) (*Index, error) {
	if codec == nil || source == nil {
		return nil, errors.New("btreeidx: open: codec and record source are required to build a new index")
	}

	metaPin, err := allocPinned(idx.mgr)
	if err != nil {
		return nil, err
	}
	if metaPin.id != metaPageID {
		_ = metaPin.unpin()
		return nil, errors.Errorf("btreeidx: open: expected metadata on page %d, got %d", metaPageID, metaPin.id)
	}

	rootPin, err := allocPinned(idx.mgr)
	if err != nil {
		_ = metaPin.unpin()
		return nil, err
	}
	initLeaf(rootPin.bytes())
	rootPin.markDirty()
	idx.root = rootPin.id
	if err := rootPin.unpin(); err != nil {
		_ = metaPin.unpin()
		return nil, err
	}

	writeMeta(metaPin.bytes(), IndexMetaInfo{
		RelationName:   idx.relationName,
		AttrByteOffset: idx.attrOffset,
		AttrType:       idx.attrType,
		RootPageNo:     idx.root,
	})
	metaPin.markDirty()
	if err := metaPin.unpin(); err != nil {
		return nil, err
	}

	for {
		record, rid, err := source.Next()
		if err != nil {
			if errors.Is(err, ErrEndOfRelation) {
				break
			}
			return nil, err
		}
		key, err := codec.ExtractKey(record, idx.attrOffset)
		if err != nil {
			return nil, err
		}
		if err := idx.Insert(key, rid); err != nil {
			return nil, err
		}
	}

	if err := idx.mgr.FlushFile(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Close ends any active scan, then flushes every dirty page belonging
// to this index's file and marks it closed, per spec.md §4.6. It is
// idempotent and safe to call whether or not a scan is active.
func (idx *Index) Close() error {
	if err := idx.EndScan(); err != nil && !errors.Is(err, ErrScanNotInitialized) {
		return err
	}
	idx.closed = true
	return idx.mgr.FlushFile()
}

// checkOpen rejects operations on an Index after Close.
func (idx *Index) checkOpen() error {
	if idx.closed {
		return errors.New("btreeidx: index is closed")
	}
	return nil
}

// setRoot persists a new root page number to the metadata page and
// flushes immediately — spec.md §5 requires metadata updates to reach
// disk before the triggering operation (here, a root promotion)
// returns.
func (idx *Index) setRoot(newRoot PageID) error {
	idx.root = newRoot

	metaPin, err := pinPage(idx.mgr, metaPageID)
	if err != nil {
		return err
	}
	m := readMeta(metaPin.bytes())
	m.RootPageNo = newRoot
	writeMeta(metaPin.bytes(), m)
	metaPin.markDirty()
	if err := metaPin.unpin(); err != nil {
		return err
	}
	return idx.mgr.FlushFile()
}

// IndexMetaInfo is the decoded form of the metadata page: the
// relation name and attribute this index was built over, its declared
// key type, and the current root page. Reopening an index re-derives
// everything else (capacities, in-memory scan state) from scratch.
type IndexMetaInfo struct {
	RelationName   string
	AttrByteOffset int
	AttrType       AttrType
	RootPageNo     PageID
}

func readMeta(data []byte) IndexMetaInfo {
	nameBytes := data[metaNameOff : metaNameOff+maxRelationName]
	end := 0
	for end < len(nameBytes) && nameBytes[end] != 0 {
		end++
	}
	return IndexMetaInfo{
		RelationName:   string(nameBytes[:end]),
		AttrByteOffset: int(int32(binary.LittleEndian.Uint32(data[metaOffsetOff : metaOffsetOff+4]))),
		AttrType:       AttrType(data[metaTypeOff]),
		RootPageNo:     PageID(binary.LittleEndian.Uint32(data[metaRootOff : metaRootOff+4])),
	}
}

func writeMeta(data []byte, m IndexMetaInfo) {
	nameBytes := data[metaNameOff : metaNameOff+maxRelationName]
	for i := range nameBytes {
		nameBytes[i] = 0
	}
	copy(nameBytes, m.RelationName)
	binary.LittleEndian.PutUint32(data[metaOffsetOff:metaOffsetOff+4], uint32(int32(m.AttrByteOffset)))
	data[metaTypeOff] = byte(m.AttrType)
	binary.LittleEndian.PutUint32(data[metaRootOff:metaRootOff+4], uint32(m.RootPageNo))
}
