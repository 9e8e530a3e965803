// Package source implements the two Raw-record producers: a capture-file
// reader and a live-NIC reader, selected by a factory keyed on the source
// name the way the teacher's reader/writer constructors are.
package source

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/exaflow/retime/pkg/record"
)

// Reader is the pull-chain's leaf stage: one Raw record per Next call, its
// payload copied into the caller-owned buf.
type Reader interface {
	Next(buf []byte) (record.Raw, record.ReadStatus)
	Close() error
}

// Options configures a live-NIC Reader. Ignored by the capture-file reader.
type Options struct {
	Promiscuous bool
}

// New opens spec as a capture-file reader if it names an existing file or
// ends in ".pcap", and as a live-NIC reader otherwise (spec is then an
// interface name, optionally "ifname:port").
func New(spec string, opts Options) (Reader, error) {
	if spec == "" {
		return nil, errors.New("source: empty source specification")
	}
	if looksLikeCaptureFile(spec) {
		return newFileReader(spec)
	}
	return newLiveReader(spec, opts)
}

func looksLikeCaptureFile(spec string) bool {
	if strings.HasSuffix(spec, ".pcap") {
		return true
	}
	info, err := os.Stat(spec)
	return err == nil && info.Mode().IsRegular()
}

// splitDevicePort accepts both a bare interface name and the legacy
// "ifname:port" form, per original_source/record_reader.cpp's
// parse_device_port.
func splitDevicePort(spec string) (ifname string, port int, hasPort bool) {
	idx := strings.LastIndexByte(spec, ':')
	if idx < 0 {
		return spec, 0, false
	}
	portStr := spec[idx+1:]
	n := 0
	for _, c := range portStr {
		if c < '0' || c > '9' {
			return spec, 0, false
		}
		n = n*10 + int(c-'0')
	}
	if portStr == "" {
		return spec, 0, false
	}
	return spec[:idx], n, true
}
