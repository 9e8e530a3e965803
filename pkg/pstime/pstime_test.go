package pstime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/pkg/pstime"
)

func TestFromNanosRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 999, 1_000_000_000, 1_694_420_480_000_000_000, 1 << 62}
	for _, ns := range cases {
		got := pstime.FromNanos(ns).Ns()
		require.Equal(t, int64(ns), got, "ns=%d", ns)
	}
}

func TestSubBorrows(t *testing.T) {
	a := pstime.Time{Sec: 10, Psec: 500, Precision: pstime.PrecisionPicos}
	b := pstime.Time{Sec: 9, Psec: 900_000_000_000, Precision: pstime.PrecisionNanos}

	diff := a.Sub(b)
	assert.Equal(t, int64(0), diff.Sec)
	assert.Equal(t, uint64(100_000_000_500), diff.Psec)
	assert.Equal(t, pstime.PrecisionNanos, diff.Precision)
}

func TestLessTotalOrder(t *testing.T) {
	a := pstime.Time{Sec: 1, Psec: 5}
	b := pstime.Time{Sec: 1, Psec: 6}
	c := pstime.Time{Sec: 2, Psec: 0}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(a))
}

func TestIsZero(t *testing.T) {
	assert.True(t, pstime.Time{}.IsZero())
	assert.False(t, pstime.Time{Sec: 1}.IsZero())
	assert.False(t, pstime.Time{Psec: 1}.IsZero())
}
