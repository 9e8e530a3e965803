package fcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/fcs"
)

func TestSelfCheckResidue(t *testing.T) {
	bodies := [][]byte{
		[]byte("hello, exablaze"),
		{0, 0, 0, 0},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	for _, body := range bodies {
		sum := fcs.Checksum(body)
		full := append(append([]byte{}, body...), byte(sum), byte(sum>>8), byte(sum>>16), byte(sum>>24))
		require.Equal(t, fcs.GoodResidue, fcs.Checksum(full))
		assert.True(t, fcs.Valid(full))
	}
}

func TestRewriteFixesFCS(t *testing.T) {
	body := []byte("ethernet frame body")
	frame := append(append([]byte{}, body...), 0xde, 0xad, 0xbe, 0xef)

	changed := fcs.Rewrite(frame)
	assert.True(t, changed)
	assert.True(t, fcs.Valid(frame))

	changedAgain := fcs.Rewrite(frame)
	assert.False(t, changedAgain)
}
