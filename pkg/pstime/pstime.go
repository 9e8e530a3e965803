// Package pstime implements the picosecond-resolution time value used
// throughout retime: a (seconds, picoseconds) pair with an attached decimal
// precision, mirroring the pstime_t type the Exablaze capture tools use to
// avoid floating point drift when reconstructing hardware time.
package pstime

const (
	PicosPerSec = uint64(1_000_000_000_000)
	nanosPerSec = int64(1_000_000_000)
)

// Precision is the number of significant fractional decimal digits a Time
// carries: 6 for microsecond-derived values, 9 for nanosecond-derived
// values, 12 for the trailer's fixed-point fractional field.
type Precision uint8

const (
	PrecisionMicros Precision = 6
	PrecisionNanos  Precision = 9
	PrecisionPicos  Precision = 12
)

// Time is a (seconds since Unix epoch, picoseconds within that second) pair.
// Psec is always kept in [0, PicosPerSec).
type Time struct {
	Sec       int64
	Psec      uint64
	Precision Precision
}

// New builds a Time, normalizing an out-of-range Psec into Sec the way a
// borrow/carry would during arithmetic.
func New(sec int64, psec uint64, precision Precision) Time {
	sec += int64(psec / PicosPerSec)
	psec %= PicosPerSec
	return Time{Sec: sec, Psec: psec, Precision: precision}
}

// IsZero reports whether the time is unset (the zero value).
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Psec == 0
}

// Less reports whether t sorts before rhs under total (Sec, Psec) ordering.
func (t Time) Less(rhs Time) bool {
	if t.Sec != rhs.Sec {
		return t.Sec < rhs.Sec
	}
	return t.Psec < rhs.Psec
}

// minPrecision is the precision rule for derived values: the minimum of the
// operands', since that's the coarsest resolution either side can vouch for.
func minPrecision(a, b Precision) Precision {
	if a < b {
		return a
	}
	return b
}

// Sub returns the signed delta t - rhs, borrowing a second when necessary to
// keep Psec within range, exactly as pstime_t::operator- does.
func (t Time) Sub(rhs Time) Time {
	prec := minPrecision(t.Precision, rhs.Precision)
	if t.Psec < rhs.Psec {
		return Time{Sec: t.Sec - rhs.Sec - 1, Psec: PicosPerSec + t.Psec - rhs.Psec, Precision: prec}
	}
	return Time{Sec: t.Sec - rhs.Sec, Psec: t.Psec - rhs.Psec, Precision: prec}
}

// Ns returns the time as nanoseconds since the epoch (or, for a delta, as a
// signed nanosecond offset). Fractional picoseconds below 1ns are truncated.
func (t Time) Ns() int64 {
	return t.Sec*nanosPerSec + int64(t.Psec/1000)
}

// Float64 renders the time as fractional seconds, matching pstime_t's
// explicit double conversion operator.
func (t Time) Float64() float64 {
	return float64(t.Sec) + float64(t.Psec)/float64(PicosPerSec)
}

// FromNanos converts a nanosecond count since the epoch into a Time with
// nanosecond precision. Only non-negative counts are meaningful here: the
// device tick/keyframe arithmetic that feeds this never produces negative
// nanosecond offsets.
func FromNanos(ns uint64) Time {
	sec := int64(ns / uint64(nanosPerSec))
	psec := (ns % uint64(nanosPerSec)) * 1000
	return Time{Sec: sec, Psec: psec, Precision: PrecisionNanos}
}
