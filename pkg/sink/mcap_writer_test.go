package sink_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
	"github.com/exaflow/retime/pkg/sink"
)

func TestMCAPWriterWritesMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mcap")
	w, err := sink.New(path, sink.Options{})
	require.NoError(t, err)

	raw := record.Raw{LinkType: record.LinkTypeEthernet}
	computed := record.Computed{
		HWTime:   pstime.Time{Sec: 1_700_000_000, Psec: 0, Precision: pstime.PrecisionNanos},
		DeviceID: 1,
		Port:     2,
	}
	require.Equal(t, 0, w.Write(raw, []byte{1, 2, 3}, computed))
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "retime.ComputedRecord")
	require.Contains(t, string(data), "hw_time_sec")
}

func TestMCAPWriterSkipsUncomputed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mcap")
	w, err := sink.New(path, sink.Options{})
	require.NoError(t, err)
	defer w.Close()

	require.Equal(t, 1, w.Write(record.Raw{}, nil, record.Computed{}))
}
