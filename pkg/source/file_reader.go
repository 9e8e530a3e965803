package source

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/pkg/pcapfile"
	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
)

// fileReader reads Raw records from a classic-pcap capture file.
type fileReader struct {
	f   *os.File
	buf *bufio.Reader
	hdr pcapfile.GlobalHeader
}

func newFileReader(path string) (*fileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "source: open capture file")
	}
	br := bufio.NewReaderSize(f, 64*1024)
	hdr, err := pcapfile.ReadGlobalHeader(br)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "source: read capture file header")
	}
	return &fileReader{f: f, buf: br, hdr: hdr}, nil
}

func (r *fileReader) Next(buf []byte) (record.Raw, record.ReadStatus) {
	rh, err := pcapfile.ReadRecordHeader(r.buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return record.Raw{}, record.StatusEOF
		}
		return record.Raw{}, record.StatusError
	}
	if rh.CapLen > uint32(len(buf)) {
		return record.Raw{}, record.StatusError
	}
	if _, err := io.ReadFull(r.buf, buf[:rh.CapLen]); err != nil {
		return record.Raw{}, record.StatusError
	}

	// Open question (b) in spec.md §9: a nanos-magic file is assumed to
	// store nanoseconds in Frac, a micros-magic file microseconds. A
	// malformed file advertising the wrong magic for its own fractional
	// values silently produces a wrong sub-second time; this is accepted
	// as documented, not guarded against.
	var psec uint64
	var prec pstime.Precision
	if r.hdr.NanosPrecision() {
		psec = uint64(rh.Frac) * 1_000
		prec = pstime.PrecisionNanos
	} else {
		psec = uint64(rh.Frac) * 1_000_000
		prec = pstime.PrecisionMicros
	}

	raw := record.Raw{
		Status:      record.StatusOK,
		LinkType:    record.LinkTypeEthernet,
		CapturedLen: rh.CapLen,
		OriginalLen: rh.OrigLen,
		ClockTime:   pstime.New(int64(rh.Sec), psec, prec),
		IsRealTime:  false,
	}
	return raw, record.StatusOK
}

func (r *fileReader) Close() error {
	return r.f.Close()
}
