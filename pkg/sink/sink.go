// Package sink implements the three Computed-record consumers: a
// capture-file writer, a text writer, and (domain-stack enrichment) an
// MCAP writer, selected by a factory keyed on the destination name.
package sink

import (
	"strings"

	"github.com/exaflow/retime/pkg/record"
)

// Writer consumes one (raw, frame, computed) triple per Write call. The
// return value matches spec.md §4.3's write contract: 0 wrote, >0
// intentionally skipped, <0 unrecoverable write failure.
type Writer interface {
	Write(raw record.Raw, frame []byte, computed record.Computed) int
	Close() error
}

// Options configures whichever concrete Writer the destination selects.
// Fields not applicable to a given variant are ignored.
type Options struct {
	WriteKeyframes bool
	Nanos          bool // capture-file writer: nanosecond vs microsecond magic

	DatePattern   string // text writer: strftime-style pattern for integer seconds
	ShowClockTime bool   // text writer: also print raw clock time and hw_time-clock_time diff
	HexDump       bool   // text writer: 16-byte/row hex+ASCII dump
}

// New opens dest as a capture-file writer if it ends in ".pcap", an MCAP
// writer if it ends in ".mcap", and a text writer otherwise (including the
// conventional "-" for stdout).
func New(dest string, opts Options) (Writer, error) {
	switch {
	case strings.HasSuffix(dest, ".pcap"):
		return newCaptureWriter(dest, opts)
	case strings.HasSuffix(dest, ".mcap"):
		return newMCAPWriter(dest, opts)
	default:
		return newTextWriter(dest, opts)
	}
}
