package relation

import (
	"github.com/pkg/errors"

	"btreeidx/internal/btreeidx"
)

// Int32Codec implements btreeidx.Codec for the only attribute type
// the index supports: a signed 32-bit integer stored little-endian at
// a fixed byte offset inside the record.
type Int32Codec struct{}

// ExtractKey reads a little-endian int32 out of record at offset.
func (Int32Codec) ExtractKey(record []byte, offset int) (btreeidx.Key, error) {
	if offset < 0 || offset+4 > len(record) {
		return 0, errors.Errorf("relation: attribute offset %d out of range for %d-byte record", offset, len(record))
	}
	v := uint32(record[offset]) | uint32(record[offset+1])<<8 | uint32(record[offset+2])<<16 | uint32(record[offset+3])<<24
	return int32(v), nil
}
