// Package keyframe decodes the two on-wire keyframe payload layouts a
// Fusion-class tap emits: the native Exablaze layout and the
// Arista-compatible layout. All multi-byte fields are big-endian.
package keyframe

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const (
	// EtherType is the EtherType a native keyframe appears under when not
	// encapsulated in an IPv4 packet. Compat keyframes are only recognised
	// inside IPv4.
	EtherType = 0x88B5

	// IPProtocol is the IPv4 protocol number keyframes use when
	// encapsulated (depends on the Fusion firmware version).
	IPProtocol = 253

	// NativePayloadLen is the size of the native keyframe payload.
	NativePayloadLen = 40

	// CompatPayloadLen is the size of the compat keyframe payload.
	//
	// spec.md states "58-byte payload" in prose but enumerates fields that
	// sum to 62 bytes (7*8 + 2+2+1+1), matching original_source's packed
	// compat_keyframe struct exactly. The enumerated layout and the
	// original implementation are treated as authoritative over the
	// inconsistent prose count.
	CompatPayloadLen = 62

	nativeMagic   = 0x45584B46 // ASCII "EXKF", big-endian decode of 0x45,0x58,0x4B,0x46
	nativeVersion = 1
	legacyMagic   = 1
	legacyVersion = 0
)

// ErrUnsupported is returned when a candidate keyframe payload doesn't
// validate: unrecognised magic/version for native, or skew != 1/1 for
// compat.
var ErrUnsupported = errors.New("unsupported keyframe layout")

// Native is the decoded native (Exablaze) keyframe payload.
type Native struct {
	UTCNanos uint64
	Counter  uint64
	FreqHz   uint64
	LastSync uint64
}

// ParseNative decodes a 40-byte native keyframe payload.
func ParseNative(b []byte) (Native, error) {
	if len(b) < NativePayloadLen {
		return Native{}, errors.Wrap(ErrUnsupported, "short native keyframe payload")
	}
	magic := binary.BigEndian.Uint32(b[0:4])
	version := b[4]

	valid := (version == nativeVersion && magic == nativeMagic) ||
		(version == legacyVersion && magic == legacyMagic)
	if !valid {
		return Native{}, ErrUnsupported
	}

	return Native{
		UTCNanos: binary.BigEndian.Uint64(b[8:16]),
		Counter:  binary.BigEndian.Uint64(b[16:24]),
		FreqHz:   binary.BigEndian.Uint64(b[24:32]),
		LastSync: binary.BigEndian.Uint64(b[32:40]),
	}, nil
}

// Compat is the decoded Arista-compatible keyframe payload.
type Compat struct {
	ASICTime  uint64
	UTCNanos  uint64
	LastSync  uint64
	Timestamp uint64
	DropCount uint64
	DeviceID  uint16
	Port      uint16
	FCSType   uint8
}

// ParseCompat decodes a 62-byte compat keyframe payload. Only accepted if
// the skew ratio is exactly 1/1.
func ParseCompat(b []byte) (Compat, error) {
	if len(b) < CompatPayloadLen {
		return Compat{}, errors.Wrap(ErrUnsupported, "short compat keyframe payload")
	}

	skewNum := binary.BigEndian.Uint64(b[24:32])
	skewDenom := binary.BigEndian.Uint64(b[32:40])
	if skewNum != 1 || skewDenom != 1 {
		return Compat{}, ErrUnsupported
	}

	return Compat{
		ASICTime:  binary.BigEndian.Uint64(b[0:8]),
		UTCNanos:  binary.BigEndian.Uint64(b[8:16]),
		LastSync:  binary.BigEndian.Uint64(b[16:24]),
		Timestamp: binary.BigEndian.Uint64(b[40:48]),
		DropCount: binary.BigEndian.Uint64(b[48:56]),
		DeviceID:  binary.BigEndian.Uint16(b[56:58]),
		Port:      binary.BigEndian.Uint16(b[58:60]),
		FCSType:   b[60],
	}, nil
}
