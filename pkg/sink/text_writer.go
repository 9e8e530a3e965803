package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/internal/strftime"
	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// textWriter renders one human-readable line per record: the reconstructed
// hardware time, optionally the raw clock time and their difference, the
// device:port identity, and an optional hex dump of the frame.
type textWriter struct {
	out            io.WriteCloser
	w              *bufio.Writer
	datePattern    string
	showClockTime  bool
	hexDump        bool
	writeKeyframes bool
}

func newTextWriter(dest string, opts Options) (*textWriter, error) {
	var out io.WriteCloser
	if dest == "" || dest == "-" {
		out = nopCloser{os.Stdout}
	} else {
		f, err := os.Create(dest)
		if err != nil {
			return nil, errors.Wrapf(err, "create text output %q", dest)
		}
		out = f
	}

	pattern := opts.DatePattern
	if pattern == "" {
		pattern = "%Y-%m-%d %H:%M:%S"
	}

	return &textWriter{
		out:            out,
		w:              bufio.NewWriter(out),
		datePattern:    pattern,
		showClockTime:  opts.ShowClockTime,
		hexDump:        opts.HexDump,
		writeKeyframes: opts.WriteKeyframes,
	}, nil
}

func fractionalDigits(t pstime.Time) string {
	switch t.Precision {
	case pstime.PrecisionMicros:
		return fmt.Sprintf("%06d", t.Psec/1_000_000)
	case pstime.PrecisionPicos:
		return fmt.Sprintf("%012d", t.Psec)
	default:
		return fmt.Sprintf("%09d", t.Psec/1_000)
	}
}

func (w *textWriter) Write(raw record.Raw, frame []byte, computed record.Computed) int {
	if computed.HWTime.IsZero() {
		return 1
	}
	if computed.IsKeyframe && !w.writeKeyframes {
		return 1
	}

	ts := time.Unix(computed.HWTime.Sec, 0).UTC()
	line := strftime.Format(ts, w.datePattern) + "." + fractionalDigits(computed.HWTime)

	if w.showClockTime {
		diff := computed.HWTime.Sub(raw.ClockTime)
		line += fmt.Sprintf(" clock=%.9f diff=%+.9f", raw.ClockTime.Float64(), diff.Float64())
	}

	if computed.DeviceID >= 0 && computed.Port >= 0 {
		line += fmt.Sprintf(" %d:%d", computed.DeviceID, computed.Port)
	}

	if _, err := fmt.Fprintln(w.w, line); err != nil {
		return -1
	}

	if w.hexDump {
		if err := writeHexDump(w.w, frame); err != nil {
			return -1
		}
	}
	return 0
}

func writeHexDump(out io.Writer, data []byte) error {
	for off := 0; off < len(data); off += 16 {
		row := data[off:min(off+16, len(data))]
		if _, err := fmt.Fprintf(out, "%08x  ", off); err != nil {
			return err
		}
		for i := 0; i < 16; i++ {
			if i > 0 && i%4 == 0 {
				if _, err := fmt.Fprint(out, " "); err != nil {
					return err
				}
			}
			if i < len(row) {
				if _, err := fmt.Fprintf(out, "%02x ", row[i]); err != nil {
					return err
				}
			} else {
				if _, err := fmt.Fprint(out, "   "); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprint(out, " |"); err != nil {
			return err
		}
		for _, b := range row {
			if b >= 0x20 && b < 0x7f {
				if _, err := fmt.Fprintf(out, "%c", b); err != nil {
					return err
				}
			} else if _, err := fmt.Fprint(out, "."); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(out, "|"); err != nil {
			return err
		}
	}
	return nil
}

func (w *textWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.out.Close()
		return err
	}
	return w.out.Close()
}
