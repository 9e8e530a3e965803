package source

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket/afpacket"
	"golang.org/x/sys/unix"
)

// ErrAgain is returned by Device.Receive when no frame is available yet.
var ErrAgain = errors.New("source: no data available")

// Chunk is one piece of the live ring's chunked delivery: a device may hand
// frames back across several chunks sharing a generation counter, with the
// final chunk (Final true) carrying the fully assembled frame's resolved
// capture time. The concrete afpacket-backed Device below always returns a
// single final chunk per receive, but liveReader's reassembly loop is
// written generally so a future multi-chunk device plugs in unchanged.
type Chunk struct {
	Data       []byte
	Generation uint32
	Final      bool
	ClockNanos uint64
}

// Device is the live-NIC collaborator interface from spec.md §6: a
// frame-at-a-time receive distinguishing overflow/truncation, a
// promiscuous-mode toggle, and (folded into Receive, since this backend's
// tick domain is already the kernel's own capture clock) a
// tick-to-nanosecond converter.
type Device interface {
	Receive() (Chunk, error)
	SetPromiscuous(enable bool) error
	Close() error
}

// afpacketDevice adapts an AF_PACKET socket (via gopacket/afpacket) to
// Device. One socket receive is treated as exactly one ring "final chunk":
// AF_PACKET hands back whole frames, so there is no partial-chunk case to
// reassemble against real hardware, even though the reassembly loop above
// it is written to support one.
type afpacketDevice struct {
	tp         *afpacket.TPacket
	ifaceName  string
	generation uint32
}

func newAFPacketDevice(ifaceName string) (*afpacketDevice, error) {
	tp, err := afpacket.NewTPacket(afpacket.OptInterface(ifaceName))
	if err != nil {
		return nil, errors.Wrap(err, "source: open AF_PACKET socket")
	}
	return &afpacketDevice{tp: tp, ifaceName: ifaceName}, nil
}

func (d *afpacketDevice) Receive() (Chunk, error) {
	data, ci, err := d.tp.ZeroCopyReadPacketData()
	if err != nil {
		if errors.Is(err, afpacket.ErrTimeout) {
			return Chunk{}, ErrAgain
		}
		return Chunk{}, errors.Wrap(err, "source: AF_PACKET receive")
	}

	d.generation++
	buf := make([]byte, len(data))
	copy(buf, data)

	ts := ci.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return Chunk{
		Data:       buf,
		Generation: d.generation,
		Final:      true,
		ClockNanos: uint64(ts.UnixNano()),
	}, nil
}

func (d *afpacketDevice) SetPromiscuous(enable bool) error {
	return setInterfacePromiscuous(d.ifaceName, enable)
}

func (d *afpacketDevice) Close() error {
	d.tp.Close()
	return nil
}

// setInterfacePromiscuous flips IFF_PROMISC on ifaceName using a plain
// ioctl on a throwaway control socket, independent of the capture socket
// itself, so it works the same way regardless of which Device backend is
// capturing.
func setInterfacePromiscuous(ifaceName string, enable bool) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return errors.Wrap(err, "source: open control socket")
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(ifaceName)
	if err != nil {
		return errors.Wrap(err, "source: build ifreq")
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return errors.Wrap(err, "source: SIOCGIFFLAGS")
	}

	flags := ifr.Uint16()
	if enable {
		flags |= unix.IFF_PROMISC
	} else {
		flags &^= unix.IFF_PROMISC
	}
	ifr.SetUint16(flags)

	if err := unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr); err != nil {
		return errors.Wrap(err, "source: SIOCSIFFLAGS")
	}
	return nil
}
