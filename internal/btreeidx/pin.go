package btreeidx

import (
	"github.com/pkg/errors"

	"btreeidx/internal/bufmgr"
)

// pin is the scoped page-acquisition guard from spec.md §4.1: every
// caller that pins a page must reach exactly one matching unpin, on
// every exit path including error returns. Wrapping bufmgr.Frame here
// keeps that discipline local to one call site instead of repeated at
// every traversal/insert/scan callback.
type pin struct {
	mgr   *bufmgr.Manager
	id    PageID
	frame *bufmgr.Frame
	dirty bool
}

// pinPage pins an existing page for reading or writing. A missing page
// surfaces as ErrPageNotFound; any other buffer-manager failure (no
// free frame, a failed eviction write) surfaces as ErrIoError — spec.md
// §7 wants both kinds distinguishable.
func pinPage(mgr *bufmgr.Manager, id PageID) (*pin, error) {
	f, err := mgr.ReadPage(id)
	if err != nil {
		if errors.Is(err, bufmgr.ErrPageNotFound) {
			return nil, errors.Wrap(ErrPageNotFound, err.Error())
		}
		return nil, errors.Wrap(ErrIoError, err.Error())
	}
	return &pin{mgr: mgr, id: id, frame: f}, nil
}

// allocPinned asks the buffer manager for a fresh page, already
// pinned, and returns it as a pin so callers use the same guard for
// new and existing pages.
func allocPinned(mgr *bufmgr.Manager) (*pin, error) {
	id, f, err := mgr.AllocPage()
	if err != nil {
		return nil, errors.Wrap(ErrIoError, err.Error())
	}
	return &pin{mgr: mgr, id: id, frame: f}, nil
}

// markDirty records that this pin's page was modified; unpin() will
// pass that along to the buffer manager.
func (p *pin) markDirty() { p.dirty = true }

// bytes exposes the raw page buffer for the page.go accessors.
func (p *pin) bytes() []byte { return p.frame.Data }

// asLeaf is the typed view used once a caller has established, via
// isLeaf(p.bytes()), that this page is a leaf.
func (p *pin) asLeaf() leafView { return leafView{p} }

// asNode is the typed view for non-leaf pages.
func (p *pin) asNode() nodeView { return nodeView{p} }

func (p *pin) isLeafPage() bool { return isLeaf(p.bytes()) }

// unpin releases the pin, propagating any markDirty call. Call sites
// invoke it explicitly on every exit path after a successful pin/alloc,
// including early error returns, so the balanced-pin invariant
// (spec.md §5) holds.
func (p *pin) unpin() error {
	return p.mgr.UnpinPage(p.id, p.dirty)
}

// leafView is a pin known to hold a leaf page.
type leafView struct{ p *pin }

func (l leafView) length() int          { return int(length(l.p.bytes())) }
func (l leafView) key(i int) Key        { return leafKeyAt(l.p.bytes(), i) }
func (l leafView) rid(i int) RID        { return leafRIDAt(l.p.bytes(), i) }
func (l leafView) rightSibling() PageID { return rightSib(l.p.bytes()) }

// nodeView is a pin known to hold a non-leaf page.
type nodeView struct{ p *pin }

func (n nodeView) length() int        { return int(length(n.p.bytes())) }
func (n nodeView) key(i int) Key      { return nonLeafKeyAt(n.p.bytes(), i) }
func (n nodeView) child(i int) PageID { return nonLeafChild(n.p.bytes(), i) }
