// Package record defines the value types exchanged between the Source,
// Processor, and Sink stages: the raw capture record and the computed-time
// record the processor derives from it.
package record

import "github.com/exaflow/retime/pkg/pstime"

// ReadStatus is the status a Source reports for one Next call. Negative
// values are terminal for the stream; ok and again allow the driver to
// keep pulling.
type ReadStatus int

const (
	StatusOverflow ReadStatus = -3 // live-capture ring was lapped; frame lost
	StatusError    ReadStatus = -2 // unrecoverable parse/IO error
	StatusEOF      ReadStatus = -1 // end of stream; terminal
	StatusOK       ReadStatus = 0  // record populated
	StatusAgain    ReadStatus = 1  // transient no-data (live only); retry
)

func (s ReadStatus) String() string {
	switch s {
	case StatusOverflow:
		return "overflow"
	case StatusError:
		return "error"
	case StatusEOF:
		return "eof"
	case StatusOK:
		return "ok"
	case StatusAgain:
		return "again"
	default:
		return "unknown"
	}
}

// Fatal reports whether this status is terminal for the stream.
func (s ReadStatus) Fatal() bool { return s < StatusOK }

// LinkType is the link-layer type of a captured frame. Only Ethernet is
// supported by the processor; other values are accepted by a Source and
// rejected downstream.
type LinkType int

const LinkTypeEthernet LinkType = 1 // DLT_EN10MB

// Raw is a single record pulled from a Source: the frame metadata and the
// host clock time at which it was captured. The payload itself lives in
// the caller-provided scratch buffer, not in this struct.
type Raw struct {
	Status       ReadStatus
	LinkType     LinkType
	CapturedLen  uint32
	OriginalLen  uint32
	ClockTime    pstime.Time
	IsRealTime   bool
}

// Truncated reports whether fewer bytes were captured than the frame
// actually had on the wire.
func (r Raw) Truncated() bool { return r.CapturedLen < r.OriginalLen }

// Status is the status a Processor reports for one Process call. Negative
// values are fatal for the stream; positive values are recoverable
// per-record conditions the driver skips; zero is ok (possibly qualified
// by IsKeyframe/FixedFCS).
type Status int

const (
	StatusUnsupportedKeyframe Status = -3
	StatusUnsupportedLinkType Status = -2
	StatusUnspecified         Status = -1
	StatusComputedOK          Status = 0
	StatusTooShort            Status = 1
	StatusTruncated           Status = 2
	StatusNoFCS               Status = 3
	StatusTimeZero            Status = 4
	StatusTimeMissing         Status = 5
	StatusMissingKeyframe     Status = 6
	StatusUnknownFormat       Status = 7
)

func (s Status) String() string {
	switch s {
	case StatusUnsupportedKeyframe:
		return "unsupported_keyframe"
	case StatusUnsupportedLinkType:
		return "unsupported_linktype"
	case StatusUnspecified:
		return "unspecified"
	case StatusComputedOK:
		return "ok"
	case StatusTooShort:
		return "record_too_short"
	case StatusTruncated:
		return "record_truncated"
	case StatusNoFCS:
		return "record_no_fcs"
	case StatusTimeZero:
		return "record_time_zero"
	case StatusTimeMissing:
		return "record_time_missing"
	case StatusMissingKeyframe:
		return "missing_recent_keyframe"
	case StatusUnknownFormat:
		return "unknown_format"
	default:
		return "unknown"
	}
}

// Fatal reports whether this status is terminal for the stream.
func (s Status) Fatal() bool { return s < StatusComputedOK }

// Computed is what the Processor derives from a Raw record: the absolute
// hardware time plus status/qualifier flags.
type Computed struct {
	Status     Status
	IsKeyframe bool
	FixedFCS   bool
	HWTime     pstime.Time
	DeviceID   int // -1 when absent
	Port       int // -1 when absent
}

// NewComputed returns a Computed record carrying the given status and no
// device/port identity, matching record_time_t's default constructor.
func NewComputed(status Status) Computed {
	return Computed{Status: status, DeviceID: -1, Port: -1}
}
