// Package driver implements the single-threaded pull loop that ties a
// Source, a Processor, and a Sink together: allocate one scratch buffer,
// pull a record, process it, write it, repeat until eof, a signal, or the
// configured record count is reached.
package driver

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/pkg/process"
	"github.com/exaflow/retime/pkg/record"
	"github.com/exaflow/retime/pkg/sink"
	"github.com/exaflow/retime/pkg/source"
)

// FaultKind partitions a Run failure into the exit-code buckets the CLI
// maps to process exit status.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultRead
	FaultProcess
	FaultWrite
)

// Fault wraps an error with the stage that produced it, so the caller can
// translate it into spec.md §6's exit-code table without string matching.
type Fault struct {
	Kind FaultKind
	err  error
}

func (f *Fault) Error() string { return f.err.Error() }
func (f *Fault) Unwrap() error { return f.err }

func newFault(kind FaultKind, err error) *Fault { return &Fault{Kind: kind, err: err} }

// Driver owns one Source/Processor/Sink triple and the scratch buffer they
// share.
type Driver struct {
	Source     source.Reader
	Processor  *process.Processor
	Sink       sink.Writer
	Logger     *slog.Logger
	Count      int // 0 = unbounded
	ScratchLen int // 0 = default 65536
}

// Run pulls records until the source reaches eof, a fatal fault occurs, the
// configured count is exhausted, or SIGINT/SIGTERM is delivered.
func (d *Driver) Run(ctx context.Context) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	scratchLen := d.ScratchLen
	if scratchLen == 0 {
		scratchLen = 65536
	}
	buf := make([]byte, scratchLen)

	notifyCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	processed := 0
	for {
		select {
		case <-notifyCtx.Done():
			logger.Info("stopping: signal received")
			return nil
		default:
		}

		if d.Count > 0 && processed >= d.Count {
			logger.Info("stopping: record count reached", "count", d.Count)
			return nil
		}

		raw, status := d.Source.Next(buf)
		if status == record.StatusAgain {
			continue
		}
		if status == record.StatusEOF {
			logger.Info("stopping: end of stream")
			return nil
		}
		if status.Fatal() {
			err := errors.Newf("source read fault: %s", status)
			logger.Error("read fault", "status", status.String())
			return newFault(FaultRead, err)
		}

		frame := buf[:raw.CapturedLen]
		computed := d.Processor.Process(raw, frame)

		if computed.Status.Fatal() {
			err := errors.Newf("processor fault: %s", computed.Status)
			logger.Error("processing fault", "status", computed.Status.String())
			return newFault(FaultProcess, err)
		}

		processed++

		if computed.Status != record.StatusComputedOK {
			logger.Debug("skipping record", "status", computed.Status.String(), "frame", hex.EncodeToString(frame))
			continue
		}

		result := d.Sink.Write(raw, frame, computed)
		if result < 0 {
			err := errors.New("sink write fault")
			logger.Error("write fault")
			return newFault(FaultWrite, err)
		}
		if result > 0 {
			logger.Debug("sink skipped record")
		}
	}
}

// ExitCode maps a Run error (nil or a *Fault) to spec.md §6's exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var f *Fault
	if errors.As(err, &f) {
		switch f.Kind {
		case FaultRead:
			return 2
		case FaultProcess:
			return 3
		case FaultWrite:
			return 4
		}
	}
	return 1
}
