package pcapfile_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/pcapfile"
)

// Capture-file round-trip, spec.md §8 invariant 5.
func TestRoundTripNanos(t *testing.T) {
	var buf bytes.Buffer

	gh := pcapfile.GlobalHeader{Magic: pcapfile.MagicNanos, SnapLen: 0xFFFF, LinkType: pcapfile.LinkTypeEthernet}
	require.NoError(t, pcapfile.WriteGlobalHeader(&buf, gh))

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	rh := pcapfile.RecordHeader{Sec: 1_700_000_000, Frac: 123_456_789, CapLen: uint32(len(payload)), OrigLen: uint32(len(payload))}
	require.NoError(t, pcapfile.WriteRecordHeader(&buf, rh))
	_, err := buf.Write(payload)
	require.NoError(t, err)

	gotHdr, err := pcapfile.ReadGlobalHeader(&buf)
	require.NoError(t, err)
	require.True(t, gotHdr.NanosPrecision())
	require.Equal(t, pcapfile.LinkTypeEthernet, gotHdr.LinkType)

	gotRH, err := pcapfile.ReadRecordHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, uint32(1_700_000_000), gotRH.Sec)
	require.Equal(t, uint32(123_456_789), gotRH.Frac)

	gotPayload := make([]byte, gotRH.CapLen)
	_, err = io.ReadFull(&buf, gotPayload)
	require.NoError(t, err)
	require.Equal(t, payload, gotPayload)
}

func TestReadGlobalHeaderRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	gh := pcapfile.GlobalHeader{Magic: 0xDEADBEEF, LinkType: pcapfile.LinkTypeEthernet}
	require.NoError(t, pcapfile.WriteGlobalHeader(&buf, gh))

	_, err := pcapfile.ReadGlobalHeader(&buf)
	require.Error(t, err)
}

func TestReadRecordHeaderEOF(t *testing.T) {
	var buf bytes.Buffer
	_, err := pcapfile.ReadRecordHeader(&buf)
	require.ErrorIs(t, err, io.EOF)
}
