package relation

import "encoding/binary"

func u16(b []byte) uint16       { return binary.LittleEndian.Uint16(b) }
func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
