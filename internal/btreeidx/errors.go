package btreeidx

import "github.com/pkg/errors"

// Public error kinds from spec.md §7. Callers compare with errors.Is;
// internal wrapping (via github.com/pkg/errors) is free to add context
// as long as one of these sentinels is in the chain.
var (
	// ErrBadIndexInfo: opened an existing index whose stored attribute
	// type or offset conflicts with the caller's declaration.
	ErrBadIndexInfo = errors.New("btreeidx: bad index info")

	// ErrBadOpcodes: start_scan called with operators outside the
	// allowed {GT,GTE} x {LT,LTE} sets.
	ErrBadOpcodes = errors.New("btreeidx: bad opcodes")

	// ErrBadScanRange: low > high.
	ErrBadScanRange = errors.New("btreeidx: bad scan range")

	// ErrNoSuchKeyFound: scan initialization found no entry satisfying
	// both bounds.
	ErrNoSuchKeyFound = errors.New("btreeidx: no such key found")

	// ErrScanNotInitialized: scan_next/end_scan called without an
	// active scan.
	ErrScanNotInitialized = errors.New("btreeidx: scan not initialized")

	// ErrIndexScanCompleted: scan_next called after exhaustion.
	ErrIndexScanCompleted = errors.New("btreeidx: index scan completed")

	// ErrEndOfRelation is the internal signal a RecordSource returns at
	// exhaustion during bulk build; recovered locally, never returned
	// to the caller of Open.
	ErrEndOfRelation = errors.New("btreeidx: end of relation")

	// ErrPageNotFound and ErrIoError are surfaced from the buffer
	// manager unchanged (spec.md §7).
	ErrPageNotFound = errors.New("btreeidx: page not found")
	ErrIoError      = errors.New("btreeidx: io error")
)
