package asset

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed length of a binary glTF header.
const HeaderSize = 12

// Magic is the ASCII "glTF" signature every binary glTF container starts with.
var Magic = [4]byte{0x67, 0x6C, 0x54, 0x46}

var (
	ErrShortHeader = errors.New("glb header too short")
	ErrBadMagic    = errors.New("glb magic mismatch")
	ErrBadVersion  = errors.New("unsupported glb version")
)

// Header is the decoded 12-byte GLB preamble.
type Header struct {
	Version uint32
	Length  uint32
}

// HasMagic reports whether b starts with the glTF signature.
func HasMagic(b []byte) bool {
	if len(b) < len(Magic) {
		return false
	}
	return b[0] == Magic[0] && b[1] == Magic[1] && b[2] == Magic[2] && b[3] == Magic[3]
}

// ParseHeader checks the signature and, when all 12 bytes are present, decodes
// the little-endian version and total length. Only version 2 is accepted.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < len(Magic) {
		return Header{}, ErrShortHeader
	}
	if !HasMagic(b) {
		return Header{}, ErrBadMagic
	}
	if len(b) < HeaderSize {
		return Header{}, nil
	}
	h := Header{
		Version: binary.LittleEndian.Uint32(b[4:8]),
		Length:  binary.LittleEndian.Uint32(b[8:12]),
	}
	if h.Version != 2 {
		return h, ErrBadVersion
	}
	return h, nil
}
