package sink

import (
	"bufio"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/pkg/pcapfile"
	"github.com/exaflow/retime/pkg/record"
)

// captureWriter writes Computed records back out as a classic-pcap capture
// file, preserving the original frame bytes under the reconstructed time.
type captureWriter struct {
	f              *os.File
	w              *bufio.Writer
	nanos          bool
	writeKeyframes bool
}

func newCaptureWriter(path string, opts Options) (*captureWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "sink: create capture file")
	}
	bw := bufio.NewWriterSize(f, 64*1024)

	magic := pcapfile.MagicMicros
	if opts.Nanos {
		magic = pcapfile.MagicNanos
	}
	gh := pcapfile.GlobalHeader{Magic: magic, SnapLen: 0xFFFF, LinkType: pcapfile.LinkTypeEthernet}
	if err := pcapfile.WriteGlobalHeader(bw, gh); err != nil {
		f.Close()
		return nil, err
	}

	return &captureWriter{f: f, w: bw, nanos: opts.Nanos, writeKeyframes: opts.WriteKeyframes}, nil
}

func (w *captureWriter) Write(raw record.Raw, frame []byte, computed record.Computed) int {
	if computed.HWTime.IsZero() {
		return 1
	}
	if computed.IsKeyframe && !w.writeKeyframes {
		return 1
	}

	var frac uint32
	if w.nanos {
		frac = uint32(computed.HWTime.Psec / 1_000)
	} else {
		frac = uint32(computed.HWTime.Psec / 1_000_000)
	}

	rh := pcapfile.RecordHeader{
		Sec:     uint32(computed.HWTime.Sec),
		Frac:    frac,
		CapLen:  uint32(len(frame)),
		OrigLen: raw.OriginalLen,
	}
	if err := pcapfile.WriteRecordHeader(w.w, rh); err != nil {
		return -1
	}
	if _, err := w.w.Write(frame); err != nil {
		return -1
	}
	return 0
}

func (w *captureWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
