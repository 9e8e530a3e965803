// Package process implements the reconstruction engine: turning a raw
// captured Ethernet frame plus the processor's running clock calibration
// into an absolute hardware timestamp.
package process

import (
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/exaflow/retime/pkg/fcs"
	"github.com/exaflow/retime/pkg/keyframe"
	"github.com/exaflow/retime/pkg/pstime"
	"github.com/exaflow/retime/pkg/record"
	"github.com/exaflow/retime/pkg/trailer"
)

// Mode selects which on-wire timestamp scheme the processor expects a data
// frame to carry.
type Mode int

const (
	// ModeAuto tries the trailer scheme first, then the 32-bit scheme, and
	// latches onto whichever one first succeeds.
	ModeAuto Mode = iota
	ModeTrailer
	Mode32Bit
)

// Options configures a Processor. The zero value selects auto-detect mode
// and auto-detect offset with FCS repair off; DefaultOptions turns FCS
// repair on.
type Options struct {
	Mode Mode

	// Offset, if non-zero, pins the timestamp footer's offset from the end
	// of the frame (4 or 8 for Mode32Bit, 16 or 20 for ModeTrailer) instead
	// of letting the processor discover it from the first data frame. If
	// Mode is ModeAuto and Offset is set, the implied mode (32-bit for 4/8,
	// trailer for 16/20) is latched immediately.
	Offset int

	// FixFCS recomputes and rewrites the frame's trailing FCS when the
	// 32-bit timestamp scheme overwrote it (offset 4). DefaultOptions sets
	// it to true.
	FixFCS bool

	// UseClockTimes bypasses on-wire timestamp reconstruction for data
	// frames and reports the host capture clock time as HWTime. Keyframes
	// are still recognised, update the calibration, and report their own
	// UTC time. Used when a capture has no usable timestamp stream.
	UseClockTimes bool
}

// DefaultOptions returns the zero-ish Options a bare CLI invocation uses:
// auto mode, auto offset, FCS repair enabled.
func DefaultOptions() Options {
	return Options{Mode: ModeAuto, FixFCS: true}
}

// calibration is the state a keyframe binds: a device tick counter value
// tied to a UTC instant, the device's tick frequency, and whether the
// counter uses compat (31-bit) or native (32-bit) wraparound arithmetic.
type calibration struct {
	utcNanos  uint64
	counter   uint64
	freqHz    uint64
	compat    bool
	clockTime pstime.Time
}

func newCalibration() calibration {
	return calibration{freqHz: 350_000_000}
}

func (c calibration) unset() bool {
	return c.utcNanos == 0 && c.counter == 0
}

const missingKeyframeWindowNs = 5_000_000_000 // 5s
const offsetHeuristicToleranceNs = 10_000_000 // 10ms
const weekSeconds = int64(7 * 24 * 3600)

const ethernetHeaderLen = 14

// Processor reconstructs hardware time for a stream of frames pulled from a
// single Source, maintaining the clock calibration and mode/offset latches
// across calls. A Processor is not safe for concurrent use.
type Processor struct {
	opts Options

	cal calibration

	mode        Mode
	modeLatched bool

	offset        int
	offsetLatched bool
}

// New returns a Processor configured by opts.
func New(opts Options) *Processor {
	p := &Processor{opts: opts, cal: newCalibration(), mode: opts.Mode}

	if opts.Mode != ModeAuto {
		p.modeLatched = true
	}
	if opts.Offset != 0 {
		p.offset = opts.Offset
		p.offsetLatched = true
		if opts.Mode == ModeAuto {
			switch opts.Offset {
			case 4, 8:
				p.mode = Mode32Bit
			case 16, 20:
				p.mode = ModeTrailer
			}
			p.modeLatched = true
		}
	}
	return p
}

// Process derives a Computed record from raw and its captured bytes in buf.
// buf must hold exactly raw.CapturedLen bytes; a 32-bit-scheme FCS repair
// mutates it in place.
func (p *Processor) Process(raw record.Raw, buf []byte) record.Computed {
	if raw.LinkType != record.LinkTypeEthernet {
		return record.NewComputed(record.StatusUnsupportedLinkType)
	}
	if len(buf) < ethernetHeaderLen || raw.CapturedLen < ethernetHeaderLen {
		return record.NewComputed(record.StatusTooShort)
	}
	if raw.Truncated() {
		return record.NewComputed(record.StatusTruncated)
	}

	frame := buf[:raw.CapturedLen]

	if res, ok := p.tryKeyframe(raw, frame); ok {
		return res
	}

	if p.opts.UseClockTimes {
		res := record.NewComputed(record.StatusComputedOK)
		res.HWTime = raw.ClockTime
		return res
	}

	return p.processDataFrame(raw, frame)
}

// tryKeyframe checks whether frame is a native or compat keyframe and, if
// so, rebinds the running calibration and returns the ok/keyframe result.
// ok is false for any frame that isn't a recognisable keyframe candidate at
// all (the caller should fall through to data-frame handling); a candidate
// that fails its own validation comes back as StatusUnsupportedKeyframe
// with ok true.
func (p *Processor) tryKeyframe(raw record.Raw, frame []byte) (record.Computed, bool) {
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return record.Computed{}, false
	}
	rest := frame[ethernetHeaderLen:]

	if uint16(eth.EthernetType) == keyframe.EtherType {
		if len(rest) < keyframe.NativePayloadLen {
			return record.Computed{}, false
		}
		kf, err := keyframe.ParseNative(rest[:keyframe.NativePayloadLen])
		if err != nil {
			return record.NewComputed(record.StatusUnsupportedKeyframe), true
		}
		return p.acceptNative(raw, kf), true
	}

	if eth.EthernetType != layers.EthernetTypeIPv4 {
		return record.Computed{}, false
	}
	if len(rest) < 20 || rest[0] != 0x45 {
		return record.Computed{}, false
	}
	ip := &layers.IPv4{}
	if err := ip.DecodeFromBytes(rest, gopacket.NilDecodeFeedback); err != nil {
		return record.Computed{}, false
	}
	if uint8(ip.Protocol) != keyframe.IPProtocol || ip.TTL != 64 ||
		!ip.SrcIP.Equal(net.IPv4zero) || !ip.DstIP.Equal(net.IPv4bcast) {
		return record.Computed{}, false
	}

	switch len(ip.Payload) {
	case keyframe.NativePayloadLen:
		kf, err := keyframe.ParseNative(ip.Payload)
		if err != nil {
			return record.NewComputed(record.StatusUnsupportedKeyframe), true
		}
		return p.acceptNative(raw, kf), true
	case keyframe.CompatPayloadLen:
		kf, err := keyframe.ParseCompat(ip.Payload)
		if err != nil {
			return record.NewComputed(record.StatusUnsupportedKeyframe), true
		}
		return p.acceptCompat(raw, kf), true
	default:
		return record.Computed{}, false
	}
}

func (p *Processor) acceptNative(raw record.Raw, kf keyframe.Native) record.Computed {
	p.cal = calibration{
		utcNanos:  kf.UTCNanos,
		counter:   kf.Counter,
		freqHz:    kf.FreqHz,
		compat:    false,
		clockTime: raw.ClockTime,
	}
	return p.keyframeResult(kf.UTCNanos)
}

func (p *Processor) acceptCompat(raw record.Raw, kf keyframe.Compat) record.Computed {
	freq := p.cal.freqHz
	if freq == 0 {
		freq = 350_000_000
	}
	p.cal = calibration{
		utcNanos:  kf.UTCNanos,
		counter:   kf.ASICTime,
		freqHz:    freq,
		compat:    true,
		clockTime: raw.ClockTime,
	}
	return p.keyframeResult(kf.UTCNanos)
}

func (p *Processor) keyframeResult(utcNanos uint64) record.Computed {
	res := record.NewComputed(record.StatusComputedOK)
	res.IsKeyframe = true
	res.HWTime = pstime.FromNanos(utcNanos)
	return res
}

// processDataFrame dispatches a non-keyframe frame to the trailer or
// 32-bit timestamp path per the latched (or auto-detecting) mode.
func (p *Processor) processDataFrame(raw record.Raw, frame []byte) record.Computed {
	if p.modeLatched {
		if p.mode == ModeTrailer {
			return p.processTrailer(raw, frame)
		}
		return p.process32Bit(raw, frame)
	}

	trailerRes := p.processTrailer(raw, frame)
	if trailerRes.Status == record.StatusComputedOK {
		p.mode = ModeTrailer
		p.modeLatched = true
		return trailerRes
	}

	bitRes := p.process32Bit(raw, frame)
	if bitRes.Status == record.StatusComputedOK {
		p.mode = Mode32Bit
		p.modeLatched = true
		return bitRes
	}

	// Both offset heuristics ran to completion and neither found a
	// candidate offset that fit: this frame matches no known timestamp
	// scheme, as opposed to a more specific failure (missing keyframe,
	// too short) that would apply the same way under either scheme.
	if trailerRes.Status == record.StatusTimeMissing && bitRes.Status == record.StatusTimeMissing {
		return record.NewComputed(record.StatusUnknownFormat)
	}
	return bitRes
}

func (p *Processor) calibrationFresh(raw record.Raw) bool {
	if p.cal.unset() {
		return false
	}
	elapsed := raw.ClockTime.Sub(p.cal.clockTime).Ns()
	return elapsed >= 0 && elapsed <= missingKeyframeWindowNs
}

// process32Bit handles a data frame under the 32-bit tick-counter scheme: a
// plain big-endian tick value at a one-time-latched offset from the end of
// the frame, either overwriting the trailing FCS (offset 4) or sitting
// ahead of a preserved one (offset 8).
func (p *Processor) process32Bit(raw record.Raw, frame []byte) record.Computed {
	if !p.calibrationFresh(raw) {
		return record.NewComputed(record.StatusMissingKeyframe)
	}

	capturedLen := len(frame)
	offset := p.offset

	if !p.offsetLatched {
		if capturedLen < 8 {
			return record.NewComputed(record.StatusNoFCS)
		}
		actualNs := uint64(raw.ClockTime.Sub(p.cal.clockTime).Ns())

		tick4 := trailer.Seconds32(frame[capturedLen-4:])
		tick8 := trailer.Seconds32(frame[capturedLen-8 : capturedLen-4])
		proj4 := ticksToNanos(p.tickDelta(tick4), p.cal.freqHz)
		proj8 := ticksToNanos(p.tickDelta(tick8), p.cal.freqHz)

		within4 := absDiffU64(proj4, actualNs) <= offsetHeuristicToleranceNs
		within8 := absDiffU64(proj8, actualNs) <= offsetHeuristicToleranceNs
		crcValid := fcs.Valid(frame)

		switch {
		case within4 && !crcValid:
			offset = 4
		case within8 && crcValid:
			offset = 8
		default:
			return record.NewComputed(record.StatusTimeMissing)
		}
	}

	if capturedLen < offset {
		return record.NewComputed(record.StatusTooShort)
	}

	if offset == 8 && !fcs.Valid(frame) {
		return record.NewComputed(record.StatusNoFCS)
	}

	tick := trailer.Seconds32(frame[capturedLen-offset : capturedLen-offset+4])
	if tick == 0 {
		return record.NewComputed(record.StatusTimeZero)
	}

	nanos := p.cal.utcNanos + ticksToNanos(p.tickDelta(tick), p.cal.freqHz)

	res := record.NewComputed(record.StatusComputedOK)
	res.HWTime = pstime.FromNanos(nanos)

	if offset == 4 && p.opts.FixFCS {
		res.FixedFCS = fcs.Rewrite(frame)
	}

	if !p.offsetLatched {
		p.offset = offset
		p.offsetLatched = true
	}
	return res
}

// processTrailer handles a data frame under the fixed 16-byte trailer
// scheme, latched at offset 16 (trailer is the last bytes of the frame) or
// offset 20 (a preserved 4-byte FCS follows the trailer).
func (p *Processor) processTrailer(raw record.Raw, frame []byte) record.Computed {
	capturedLen := len(frame)
	if capturedLen < trailer.Len {
		return record.NewComputed(record.StatusTooShort)
	}

	offset := p.offset
	if !p.offsetLatched {
		ref := raw.ClockTime.Sec
		if raw.IsRealTime {
			ref = time.Now().Unix()
		}

		found := false
		for _, candidate := range [2]int{16, 20} {
			if capturedLen < candidate {
				continue
			}
			block := frame[capturedLen-candidate : capturedLen-candidate+trailer.Len]
			ts := trailer.Parse(block)
			if absInt64(int64(ts.Sec)-ref) <= weekSeconds {
				offset = candidate
				found = true
				break
			}
		}
		if !found {
			return record.NewComputed(record.StatusTimeMissing)
		}
	}

	if capturedLen < offset {
		return record.NewComputed(record.StatusTooShort)
	}

	block := frame[capturedLen-offset : capturedLen-offset+trailer.Len]
	ts := trailer.Parse(block)

	res := record.NewComputed(record.StatusComputedOK)
	res.HWTime = pstime.Time{Sec: int64(ts.Sec), Psec: ts.FracPicos, Precision: pstime.PrecisionPicos}
	res.DeviceID = int(ts.DeviceID)
	res.Port = int(ts.Port)

	if !p.offsetLatched {
		p.offset = offset
		p.offsetLatched = true
	}
	return res
}
