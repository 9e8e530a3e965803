package source

import (
	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
)

// liveReader reassembles Raw records from a Device's chunked delivery,
// tracking the ring's generation counter to detect lapping (overflow) and
// capping output at the caller's buffer size (truncation).
type liveReader struct {
	dev        Device
	generation uint32
	started    bool
	assembled  []byte
	promisc    bool
}

func newLiveReader(spec string, opts Options) (*liveReader, error) {
	ifname, _, _ := splitDevicePort(spec)

	dev, err := newAFPacketDevice(ifname)
	if err != nil {
		return nil, errors.Wrap(err, "source: acquire live device")
	}

	if opts.Promiscuous {
		if err := dev.SetPromiscuous(true); err != nil {
			dev.Close()
			return nil, errors.Wrap(err, "source: enable promiscuous mode")
		}
	}

	return &liveReader{dev: dev, promisc: opts.Promiscuous}, nil
}

// newLiveReaderWithDevice bypasses device acquisition; used by tests to
// drive the reassembly loop against a fake Device.
func newLiveReaderWithDevice(dev Device) *liveReader {
	return &liveReader{dev: dev}
}

func (r *liveReader) Next(buf []byte) (record.Raw, record.ReadStatus) {
	for {
		chunk, err := r.dev.Receive()
		if err != nil {
			if errors.Is(err, ErrAgain) {
				return record.Raw{}, record.StatusAgain
			}
			return record.Raw{}, record.StatusError
		}

		if r.started && chunk.Generation >= r.generation+2 {
			r.generation = chunk.Generation
			r.assembled = r.assembled[:0]
			return record.Raw{}, record.StatusOverflow
		}
		r.generation = chunk.Generation
		r.started = true

		r.assembled = append(r.assembled, chunk.Data...)
		if !chunk.Final {
			continue
		}

		capLen := len(r.assembled)
		origLen := capLen
		if capLen > len(buf) {
			capLen = len(buf)
			origLen = capLen + 1 // signals truncation without claiming a fabricated real length
		}
		copy(buf, r.assembled[:capLen])
		r.assembled = r.assembled[:0]

		raw := record.Raw{
			Status:      record.StatusOK,
			LinkType:    record.LinkTypeEthernet,
			CapturedLen: uint32(capLen),
			OriginalLen: uint32(origLen),
			ClockTime:   pstime.FromNanos(chunk.ClockNanos),
			IsRealTime:  true,
		}
		return raw, record.StatusOK
	}
}

func (r *liveReader) Close() error {
	if r.promisc {
		_ = r.dev.SetPromiscuous(false)
	}
	return r.dev.Close()
}
