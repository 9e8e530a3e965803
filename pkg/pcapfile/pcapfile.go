// Package pcapfile codecs the classic libpcap capture-file format: a
// 24-byte global header followed by a stream of 16-byte record headers each
// immediately followed by that record's captured bytes. All integer fields
// are little-endian, per the format's de facto convention; no structural
// overlay of memory is used, only explicit field-by-field conversion.
package pcapfile

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

const (
	// MagicMicros selects microsecond-resolution fractional timestamps.
	MagicMicros uint32 = 0xA1B2C3D4
	// MagicNanos selects nanosecond-resolution fractional timestamps.
	MagicNanos uint32 = 0xA1B23C4D

	VersionMajor = 2
	VersionMinor = 4

	LinkTypeEthernet uint32 = 1 // DLT_EN10MB

	GlobalHeaderLen = 24
	RecordHeaderLen = 16
)

// GlobalHeader is the file-level header every capture file begins with.
type GlobalHeader struct {
	Magic    uint32
	ThisZone int32
	SigFigs  uint32
	SnapLen  uint32
	LinkType uint32
}

// NanosPrecision reports whether this file's fractional field is
// nanosecond-scaled rather than microsecond-scaled.
func (h GlobalHeader) NanosPrecision() bool { return h.Magic == MagicNanos }

// ReadGlobalHeader reads and validates a 24-byte global header: one of the
// two recognised magics, version 2.4, Ethernet link type.
func ReadGlobalHeader(r io.Reader) (GlobalHeader, error) {
	var buf [GlobalHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return GlobalHeader{}, errors.Wrap(err, "read pcap global header")
	}

	h := GlobalHeader{
		Magic:    binary.LittleEndian.Uint32(buf[0:4]),
		ThisZone: int32(binary.LittleEndian.Uint32(buf[8:12])),
		SigFigs:  binary.LittleEndian.Uint32(buf[12:16]),
		SnapLen:  binary.LittleEndian.Uint32(buf[16:20]),
		LinkType: binary.LittleEndian.Uint32(buf[20:24]),
	}
	if h.Magic != MagicMicros && h.Magic != MagicNanos {
		return GlobalHeader{}, errors.Newf("pcapfile: unrecognised magic 0x%08X", h.Magic)
	}
	major := binary.LittleEndian.Uint16(buf[4:6])
	minor := binary.LittleEndian.Uint16(buf[6:8])
	if major != VersionMajor || minor != VersionMinor {
		return GlobalHeader{}, errors.Newf("pcapfile: unsupported version %d.%d", major, minor)
	}
	if h.LinkType != LinkTypeEthernet {
		return GlobalHeader{}, errors.Newf("pcapfile: unsupported link type %d", h.LinkType)
	}
	return h, nil
}

// WriteGlobalHeader writes h as a 24-byte global header, filling in the
// fixed version fields.
func WriteGlobalHeader(w io.Writer, h GlobalHeader) error {
	var buf [GlobalHeaderLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], VersionMajor)
	binary.LittleEndian.PutUint16(buf[6:8], VersionMinor)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(h.ThisZone))
	binary.LittleEndian.PutUint32(buf[12:16], h.SigFigs)
	binary.LittleEndian.PutUint32(buf[16:20], h.SnapLen)
	binary.LittleEndian.PutUint32(buf[20:24], h.LinkType)
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "write pcap global header")
}

// RecordHeader precedes every captured frame's bytes.
type RecordHeader struct {
	Sec     uint32
	Frac    uint32 // microseconds or nanoseconds, per the file's magic
	CapLen  uint32
	OrigLen uint32
}

// ReadRecordHeader reads a 16-byte record header. A clean end of file comes
// back as io.EOF unwrapped, so callers can distinguish it from a truncated
// stream with errors.Is.
func ReadRecordHeader(r io.Reader) (RecordHeader, error) {
	var buf [RecordHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return RecordHeader{}, err
	}
	return RecordHeader{
		Sec:     binary.LittleEndian.Uint32(buf[0:4]),
		Frac:    binary.LittleEndian.Uint32(buf[4:8]),
		CapLen:  binary.LittleEndian.Uint32(buf[8:12]),
		OrigLen: binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// WriteRecordHeader writes a 16-byte record header.
func WriteRecordHeader(w io.Writer, h RecordHeader) error {
	var buf [RecordHeaderLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Sec)
	binary.LittleEndian.PutUint32(buf[4:8], h.Frac)
	binary.LittleEndian.PutUint32(buf[8:12], h.CapLen)
	binary.LittleEndian.PutUint32(buf[12:16], h.OrigLen)
	_, err := w.Write(buf[:])
	return errors.Wrap(err, "write pcap record header")
}
