// Package bufmgr is the buffer manager external collaborator from
// spec.md §1: it is the only thing that ever touches pagestore
// directly. The core btreeidx engine uses only four of its operations
// — AllocPage, ReadPage, UnpinPage, FlushFile; the package also
// exports PageCount, PinnedCount and Close. It is backed by
// a fixed-capacity frame pool with CLOCK replacement, grounded on
// tuannm99-novasql's internal/bufferpool.Pool.
package bufmgr

import (
	"sync"

	"github.com/pkg/errors"

	"btreeidx/internal/idxlog"
	"btreeidx/internal/pagestore"
)

// ErrNoFreeFrame is returned when every frame in the pool is pinned and
// a new page must be loaded.
var ErrNoFreeFrame = errors.New("bufmgr: no free frame available (all pinned)")

// ErrPageNotFound surfaces pagestore.ErrPageNotFound unchanged, per
// spec.md §7.
var ErrPageNotFound = pagestore.ErrPageNotFound

// Frame holds one page's bytes plus the bookkeeping the pool needs to
// decide eviction and flush order.
type Frame struct {
	PageID pagestore.PageID
	Data   []byte
	dirty  bool
	pin    int32
	ref    bool
}

// Manager is a fixed-size buffer pool bound to one pagestore.Store.
type Manager struct {
	store *pagestore.Store

	mu        sync.Mutex
	frames    []*Frame
	pageTable map[pagestore.PageID]int
	clockHand int
}

// New creates a buffer manager with the given frame capacity over
// store. capacity <= 0 falls back to idxconfig.DefaultBufferPoolCapacity's
// value (callers typically pass that directly).
func New(store *pagestore.Store, capacity int) *Manager {
	if capacity <= 0 {
		capacity = 128
	}
	return &Manager{
		store:     store,
		frames:    make([]*Frame, capacity),
		pageTable: make(map[pagestore.PageID]int),
	}
}

// AllocPage asks the paged file store for a new page and returns it
// pinned, ready for the caller to initialize and unpin dirty.
func (m *Manager) AllocPage() (pagestore.PageID, *Frame, error) {
	id, err := m.store.AllocPage()
	if err != nil {
		return 0, nil, errors.Wrap(err, "bufmgr: alloc page")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx, err := m.placeLocked(id)
	if err != nil {
		return 0, nil, err
	}
	f := m.frames[idx]
	f.pin++
	f.ref = true
	idxlog.Get().Debug().Uint32("page", uint32(id)).Msg("bufmgr: alloc")
	return id, f, nil
}

// ReadPage pins page id, loading it from the store if it is not
// already resident.
func (m *Manager) ReadPage(id pagestore.PageID) (*Frame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.pageTable[id]; ok {
		f := m.frames[idx]
		f.pin++
		f.ref = true
		return f, nil
	}

	idx, err := m.placeLocked(id)
	if err != nil {
		return nil, err
	}
	f := m.frames[idx]
	f.pin++
	f.ref = true
	return f, nil
}

// UnpinPage decrements the pin count for page id and marks it dirty if
// requested. Every successful Pin (AllocPage/ReadPage) must be matched
// by exactly one UnpinPage — see spec.md §5.
func (m *Manager) UnpinPage(id pagestore.PageID, dirty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.pageTable[id]
	if !ok {
		return errors.Errorf("bufmgr: unpin page %d: not resident", id)
	}
	f := m.frames[idx]
	if dirty {
		f.dirty = true
	}
	if f.pin == 0 {
		return errors.Errorf("bufmgr: unpin page %d: already unpinned", id)
	}
	f.pin--
	return nil
}

// FlushFile writes every dirty frame back through the store and syncs
// it to stable storage. Spec.md §5 requires metadata-page updates to
// be flushed before the triggering operation returns.
func (m *Manager) FlushFile() error {
	m.mu.Lock()
	dirty := make([]*Frame, 0)
	for _, f := range m.frames {
		if f != nil && f.dirty {
			dirty = append(dirty, f)
		}
	}
	m.mu.Unlock()

	for _, f := range dirty {
		if err := m.store.WritePage(f.PageID, f.Data); err != nil {
			return errors.Wrapf(err, "bufmgr: flush page %d", f.PageID)
		}
		f.dirty = false
	}
	if err := m.store.Flush(); err != nil {
		return errors.Wrap(err, "bufmgr: flush")
	}
	return nil
}

// PageCount reports the number of pages in the underlying store,
// including the reserved page 0. Callers that need to enumerate every
// page of a file (relation.Scanner, for instance) use this to bound
// their walk instead of tracking allocations themselves.
func (m *Manager) PageCount() uint32 {
	return m.store.PageCount()
}

// PinnedCount reports how many frames currently have a non-zero pin
// count. A correctly-behaved caller always reaches zero before Close —
// see spec.md §4.6.
func (m *Manager) PinnedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.frames {
		if f != nil && f.pin > 0 {
			n++
		}
	}
	return n
}

// Close flushes and closes the underlying store. It is a programming
// defect to call Close with any page still pinned; Close surfaces that
// as an error rather than silently dropping data.
func (m *Manager) Close() error {
	if n := m.PinnedCount(); n > 0 {
		return errors.Errorf("bufmgr: close: %d page(s) still pinned", n)
	}
	if err := m.FlushFile(); err != nil {
		return err
	}
	return m.store.Close()
}

// placeLocked finds or makes room for page id and loads it from the
// store. Caller must hold m.mu.
func (m *Manager) placeLocked(id pagestore.PageID) (int, error) {
	for i, f := range m.frames {
		if f == nil {
			data, err := m.store.ReadPage(id)
			if err != nil {
				return 0, errors.Wrapf(err, "bufmgr: load page %d", id)
			}
			m.frames[i] = &Frame{PageID: id, Data: data}
			m.pageTable[id] = i
			return i, nil
		}
	}

	victim, err := m.pickVictimLocked()
	if err != nil {
		return 0, err
	}
	f := m.frames[victim]
	if f.dirty {
		if err := m.store.WritePage(f.PageID, f.Data); err != nil {
			return 0, errors.Wrapf(err, "bufmgr: evict flush page %d", f.PageID)
		}
	}
	delete(m.pageTable, f.PageID)

	data, err := m.store.ReadPage(id)
	if err != nil {
		return 0, errors.Wrapf(err, "bufmgr: load page %d", id)
	}
	f.PageID = id
	f.Data = data
	f.dirty = false
	f.pin = 0
	f.ref = false
	m.pageTable[id] = victim
	return victim, nil
}

// pickVictimLocked runs one CLOCK sweep looking for an unpinned,
// not-recently-used frame. Caller must hold m.mu.
func (m *Manager) pickVictimLocked() (int, error) {
	n := len(m.frames)
	if n == 0 {
		return 0, ErrNoFreeFrame
	}
	for scanned := 0; scanned < 2*n; scanned++ {
		idx := m.clockHand
		m.clockHand = (m.clockHand + 1) % n
		f := m.frames[idx]
		if f == nil || f.pin != 0 {
			continue
		}
		if !f.ref {
			return idx, nil
		}
		f.ref = false
	}
	return 0, ErrNoFreeFrame
}
