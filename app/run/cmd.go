// Package run implements retime's single root command: wire a Source, a
// Processor, and a Sink from flags and hand them to the driver loop.
package run

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/exaflow/retime/pkg/cli"
	"github.com/exaflow/retime/pkg/driver"
	"github.com/exaflow/retime/pkg/process"
	"github.com/exaflow/retime/pkg/sink"
	"github.com/exaflow/retime/pkg/source"
)

type runner struct {
	readSpec  string
	writeSpec string
	count     int
	verbose   int
	datePat   string
	emitAll   bool
	format    string
	offset    int
	noPromisc bool
	noFixFCS  bool
	useClock  bool
	nanos     bool
	showClock bool
	hexDump   bool
}

// NewCommand builds the retime root command.
func NewCommand() *cobra.Command {
	s := &runner{datePat: "%Y-%m-%d %H:%M:%S"}

	cmd := &cobra.Command{
		Use:   "retime",
		Short: "Reconstruct absolute hardware time for Exablaze/Fusion-captured Ethernet frames.",
		Long: `retime reads Ethernet frames carrying hardware timestamps from an
Exablaze/Fusion-class tap, reconstructs absolute wall-clock time per packet
from the embedded keyframe/trailer/32-bit timestamp stream, and emits
retimed packets as a capture file, a text dump, or an MCAP log.`,
		RunE: cli.WithContext(s.run),
	}

	flags := cmd.Flags()
	flags.StringVarP(&s.readSpec, "read", "r", "", "capture file path, or live interface (ifname or ifname:port)")
	flags.StringVarP(&s.writeSpec, "write", "w", "-", `destination: ".pcap"/".mcap" suffix selects that sink, otherwise text ("-" for stdout)`)
	flags.IntVarP(&s.count, "count", "c", 0, "stop after this many records (0 = unbounded)")
	flags.CountVarP(&s.verbose, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVarP(&s.datePat, "date", "d", s.datePat, "strftime-style pattern for the text sink's integer-seconds field")
	flags.BoolVarP(&s.emitAll, "all", "a", false, "also emit keyframe records (suppressed by default)")
	flags.StringVar(&s.format, "format", "auto", "timestamp scheme: auto | 32bit | trailer")
	flags.IntVarP(&s.offset, "offset", "o", 0, "pin the timestamp footer offset (4 | 8 for 32bit, 16 | 20 for trailer)")
	flags.BoolVarP(&s.noPromisc, "no-promisc", "p", false, "do not enable promiscuous mode on a live interface")
	flags.BoolVar(&s.noFixFCS, "no-fix-fcs", false, "do not recompute the FCS the 32-bit scheme overwrote")
	flags.BoolVar(&s.useClock, "use-clock-times", false, "report the capture clock time instead of reconstructing hardware time")
	flags.BoolVar(&s.nanos, "nanos", false, "capture-file sink: use nanosecond-precision magic instead of microsecond")
	flags.BoolVar(&s.showClock, "show-clock", false, "text sink: also print the raw clock time and its difference from hw_time")
	flags.BoolVar(&s.hexDump, "hex-dump", false, "text sink: also print a hex dump of each record's frame")

	if err := cmd.MarkFlagRequired("read"); err != nil {
		return nil
	}

	return cmd
}

func (s *runner) processorMode() (process.Mode, error) {
	switch s.format {
	case "auto":
		return process.ModeAuto, nil
	case "32bit":
		return process.Mode32Bit, nil
	case "trailer":
		return process.ModeTrailer, nil
	default:
		return process.ModeAuto, errors.Newf("unrecognised --format %q", s.format)
	}
}

func (s *runner) run(ctx context.Context, input cli.Input) error {
	mode, err := s.processorMode()
	if err != nil {
		return err
	}

	src, err := source.New(s.readSpec, source.Options{Promiscuous: !s.noPromisc})
	if err != nil {
		return errors.Wrap(err, "open source")
	}
	defer src.Close()

	snk, err := sink.New(s.writeSpec, sink.Options{
		WriteKeyframes: s.emitAll,
		Nanos:          s.nanos,
		DatePattern:    s.datePat,
		ShowClockTime:  s.showClock,
		HexDump:        s.hexDump,
	})
	if err != nil {
		return errors.Wrap(err, "open sink")
	}
	defer snk.Close()

	proc := process.New(process.Options{
		Mode:          mode,
		Offset:        s.offset,
		FixFCS:        !s.noFixFCS,
		UseClockTimes: s.useClock,
	})

	d := &driver.Driver{
		Source:    src,
		Processor: proc,
		Sink:      snk,
		Logger:    input.Logger,
		Count:     s.count,
	}

	return d.Run(ctx)
}
