package driver_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/driver"
	"github.com/exaflow/retime/pkg/process"
	"github.com/exaflow/retime/pkg/record"
)

type fakeSource struct {
	raws    []record.Raw
	frames  [][]byte
	statuse []record.ReadStatus
	i       int
}

func (f *fakeSource) Next(buf []byte) (record.Raw, record.ReadStatus) {
	if f.i >= len(f.raws) {
		return record.Raw{}, record.StatusEOF
	}
	raw, frame, status := f.raws[f.i], f.frames[f.i], f.statuse[f.i]
	f.i++
	copy(buf, frame)
	raw.CapturedLen = uint32(len(frame))
	return raw, status
}

func (f *fakeSource) Close() error { return nil }

type fakeSink struct {
	writes int
}

func (s *fakeSink) Write(record.Raw, []byte, record.Computed) int {
	s.writes++
	return 0
}
func (s *fakeSink) Close() error { return nil }

func nativeKeyframeFrame() []byte {
	payload := make([]byte, 40)
	copy(payload[0:4], []byte("EXKF"))
	payload[4] = 1 // version
	binary.BigEndian.PutUint64(payload[8:16], 1_700_000_000*1_000_000_000)
	binary.BigEndian.PutUint64(payload[16:24], 0)           // counter
	binary.BigEndian.PutUint64(payload[24:32], 350_000_000) // freq Hz
	binary.BigEndian.PutUint64(payload[32:40], 0)           // last sync

	frame := make([]byte, 14+len(payload))
	frame[12], frame[13] = 0x88, 0xB5
	copy(frame[14:], payload)
	return frame
}

func TestDriverRunWritesComputedRecords(t *testing.T) {
	frame := nativeKeyframeFrame()
	src := &fakeSource{
		raws:    []record.Raw{{LinkType: record.LinkTypeEthernet}},
		frames:  [][]byte{frame},
		statuse: []record.ReadStatus{record.StatusOK},
	}
	sk := &fakeSink{}
	d := &driver.Driver{
		Source:    src,
		Processor: process.New(process.DefaultOptions()),
		Sink:      sk,
	}

	err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, driver.ExitCode(err))
	require.Equal(t, 1, sk.writes)
}

func TestDriverRunStopsOnReadFault(t *testing.T) {
	src := &fakeSource{
		raws:    []record.Raw{{}},
		frames:  [][]byte{{0}},
		statuse: []record.ReadStatus{record.StatusError},
	}
	d := &driver.Driver{
		Source:    src,
		Processor: process.New(process.DefaultOptions()),
		Sink:      &fakeSink{},
	}

	err := d.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 2, driver.ExitCode(err))
}

func TestDriverRunHonorsCount(t *testing.T) {
	frame := nativeKeyframeFrame()
	src := &fakeSource{
		raws:    []record.Raw{{LinkType: record.LinkTypeEthernet}, {LinkType: record.LinkTypeEthernet}},
		frames:  [][]byte{frame, frame},
		statuse: []record.ReadStatus{record.StatusOK, record.StatusOK},
	}
	sk := &fakeSink{}
	d := &driver.Driver{
		Source:    src,
		Processor: process.New(process.DefaultOptions()),
		Sink:      sk,
		Count:     1,
	}

	err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sk.writes)
}
