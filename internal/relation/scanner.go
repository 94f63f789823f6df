package relation

import (
	"btreeidx/internal/btreeidx"
	"btreeidx/internal/pagestore"
)

// Scanner walks every heap page of a relation file once, in page then
// slot order, and implements btreeidx.RecordSource for bulk build.
type Scanner struct {
	h       *Heap
	page    pagestore.PageID
	slot    uint16
	nPages  uint32
}

// NewScanner starts a scan from the first heap page (page 1; page 0
// is the store's reserved page).
func NewScanner(h *Heap) *Scanner {
	return &Scanner{h: h, page: 1, slot: 0, nPages: h.mgr.PageCount()}
}

// Next returns the next (record, rid) pair, or btreeidx.ErrEndOfRelation
// once every heap page has been walked.
func (s *Scanner) Next() ([]byte, btreeidx.RID, error) {
	for {
		if uint32(s.page) >= s.nPages {
			return nil, btreeidx.RID{}, btreeidx.ErrEndOfRelation
		}

		f, err := s.h.mgr.ReadPage(s.page)
		if err != nil {
			return nil, btreeidx.RID{}, err
		}
		n := numSlots(f.Data)
		if s.slot >= n {
			if err := s.h.mgr.UnpinPage(s.page, false); err != nil {
				return nil, btreeidx.RID{}, err
			}
			s.page++
			s.slot = 0
			continue
		}

		rec, ok := readRow(f.Data, s.slot)
		rid := btreeidx.RID{PageNo: uint32(s.page), SlotNo: s.slot}
		s.slot++
		if !ok {
			if err := s.h.mgr.UnpinPage(s.page, false); err != nil {
				return nil, btreeidx.RID{}, err
			}
			continue
		}

		out := make([]byte, len(rec))
		copy(out, rec)
		if err := s.h.mgr.UnpinPage(s.page, false); err != nil {
			return nil, btreeidx.RID{}, err
		}
		return out, rid, nil
	}
}
