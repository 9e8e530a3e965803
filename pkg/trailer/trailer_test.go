package trailer_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/trailer"
)

// T1 from spec.md §8.
func TestParseT1(t *testing.T) {
	b, err := hex.DecodeString("DEADBEEF" + "01" + "02" + "64FDD200" + "8000000000" + "00")
	require.NoError(t, err)
	require.Len(t, b, trailer.Len)

	ts := trailer.Parse(b)
	require.Equal(t, uint8(1), ts.DeviceID)
	require.Equal(t, uint8(2), ts.Port)
	require.Equal(t, uint32(0x64FDD200), ts.Sec)
	require.Equal(t, uint64(500_000_000_000), ts.FracPicos)
}

func TestSeconds32BigEndian(t *testing.T) {
	b := []byte{0x00, 0x00, 0x00, 0x2A}
	require.Equal(t, uint32(42), trailer.Seconds32(b))
}
