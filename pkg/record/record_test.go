package record_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exaflow/retime/pkg/record"
)

func TestStatusFatalPartition(t *testing.T) {
	fatal := []record.Status{
		record.StatusUnsupportedKeyframe,
		record.StatusUnsupportedLinkType,
		record.StatusUnspecified,
	}
	recoverable := []record.Status{
		record.StatusTooShort,
		record.StatusTruncated,
		record.StatusNoFCS,
		record.StatusTimeZero,
		record.StatusTimeMissing,
		record.StatusMissingKeyframe,
		record.StatusUnknownFormat,
	}
	for _, s := range fatal {
		assert.True(t, s.Fatal(), s.String())
	}
	assert.False(t, record.StatusComputedOK.Fatal())
	for _, s := range recoverable {
		assert.False(t, s.Fatal(), s.String())
	}
}

func TestReadStatusFatalPartition(t *testing.T) {
	assert.True(t, record.StatusOverflow.Fatal())
	assert.True(t, record.StatusError.Fatal())
	assert.True(t, record.StatusEOF.Fatal())
	assert.False(t, record.StatusOK.Fatal())
	assert.False(t, record.StatusAgain.Fatal())
}

func TestRawTruncated(t *testing.T) {
	r := record.Raw{CapturedLen: 10, OriginalLen: 20}
	assert.True(t, r.Truncated())
	r.OriginalLen = 10
	assert.False(t, r.Truncated())
}

func TestNewComputedDefaultsDeviceAbsent(t *testing.T) {
	c := record.NewComputed(record.StatusTimeMissing)
	assert.Equal(t, -1, c.DeviceID)
	assert.Equal(t, -1, c.Port)
}
