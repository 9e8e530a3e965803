package strftime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/exaflow/retime/internal/strftime"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2023, 9, 11, 8, 21, 20, 0, time.UTC)
	require.Equal(t, "2023-09-11 08:21:20", strftime.Format(ts, "%Y-%m-%d %H:%M:%S"))
}

func TestFormatLiteralPercent(t *testing.T) {
	ts := time.Date(2023, 9, 11, 8, 21, 20, 0, time.UTC)
	require.Equal(t, "100%", strftime.Format(ts, "100%%"))
}
