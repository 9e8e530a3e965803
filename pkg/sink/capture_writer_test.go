package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/pcapfile"
	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
	"github.com/exaflow/retime/pkg/sink"
)

func TestCaptureWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")
	w, err := sink.New(path, sink.Options{Nanos: true})
	require.NoError(t, err)

	frame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	raw := record.Raw{OriginalLen: uint32(len(frame))}
	computed := record.Computed{HWTime: pstime.New(1_700_000_000, 123_456_789_000, pstime.PrecisionNanos)}

	require.Equal(t, 0, w.Write(raw, frame, computed))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gh, err := pcapfile.ReadGlobalHeader(f)
	require.NoError(t, err)
	require.True(t, gh.NanosPrecision())

	rh, err := pcapfile.ReadRecordHeader(f)
	require.NoError(t, err)
	require.Equal(t, uint32(1_700_000_000), rh.Sec)
	require.Equal(t, uint32(123_456_789), rh.Frac)
	require.Equal(t, uint32(len(frame)), rh.CapLen)
}

func TestCaptureWriterSkipsUncomputed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")
	w, err := sink.New(path, sink.Options{})
	require.NoError(t, err)
	defer w.Close()

	require.Equal(t, 1, w.Write(record.Raw{}, nil, record.Computed{}))
}

func TestCaptureWriterSuppressesKeyframes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")
	w, err := sink.New(path, sink.Options{WriteKeyframes: false})
	require.NoError(t, err)
	defer w.Close()

	computed := record.Computed{
		HWTime:     pstime.New(1, 0, pstime.PrecisionNanos),
		IsKeyframe: true,
	}
	require.Equal(t, 1, w.Write(record.Raw{}, []byte{1}, computed))
}
