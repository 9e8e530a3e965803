package sink

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/foxglove/mcap/go/mcap"

	"github.com/exaflow/retime/pkg/record"
)

// mcapRecord is the JSON message body written to each channel. Field names
// are stable across releases since they're part of the on-disk schema.
type mcapRecord struct {
	HWTimeSec   int64  `json:"hw_time_sec"`
	HWTimePsec  uint64 `json:"hw_time_psec"`
	Status      string `json:"status"`
	IsKeyframe  bool   `json:"is_keyframe"`
	FixedFCS    bool   `json:"fixed_fcs"`
	DeviceID    int    `json:"device_id,omitempty"`
	Port        int    `json:"port,omitempty"`
	CapturedLen int    `json:"captured_len"`
}

const computedRecordSchema = `{
  "type": "object",
  "properties": {
    "hw_time_sec": {"type": "integer"},
    "hw_time_psec": {"type": "integer"},
    "status": {"type": "string"},
    "is_keyframe": {"type": "boolean"},
    "fixed_fcs": {"type": "boolean"},
    "device_id": {"type": "integer"},
    "port": {"type": "integer"},
    "captured_len": {"type": "integer"}
  }
}`

// mcapWriter writes one JSON-encoded channel message per record, one
// channel per link type, following the teacher's mutex-guarded
// lazy-channel-table pattern with a JSON schema in place of protobuf.
type mcapWriter struct {
	mu             sync.Mutex
	f              *os.File
	writer         *mcap.Writer
	schemaID       uint16
	nextChanID     uint16
	channels       map[record.LinkType]uint16
	writeKeyframes bool
}

func newMCAPWriter(path string, opts Options) (*mcapWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sink: create mcap file %q", path)
	}

	w, err := mcap.NewWriter(f, &mcap.WriterOptions{
		Chunked:     true,
		ChunkSize:   2 * 1024 * 1024,
		Compression: mcap.CompressionZSTD,
	})
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "sink: create mcap writer")
	}

	if err := w.WriteHeader(&mcap.Header{Library: "retime"}); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "sink: write mcap header")
	}

	schemaID := uint16(1)
	if err := w.WriteSchema(&mcap.Schema{
		ID:       schemaID,
		Name:     "retime.ComputedRecord",
		Encoding: "jsonschema",
		Data:     []byte(computedRecordSchema),
	}); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "sink: write mcap schema")
	}

	return &mcapWriter{
		f:              f,
		writer:         w,
		schemaID:       schemaID,
		nextChanID:     1,
		channels:       make(map[record.LinkType]uint16),
		writeKeyframes: opts.WriteKeyframes,
	}, nil
}

func (w *mcapWriter) ensureChannel(lt record.LinkType) (uint16, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if id, ok := w.channels[lt]; ok {
		return id, nil
	}

	w.nextChanID++
	chID := w.nextChanID
	topic := fmt.Sprintf("/retime/linktype/%d", lt)

	if err := w.writer.WriteChannel(&mcap.Channel{
		ID:              chID,
		SchemaID:        w.schemaID,
		Topic:           topic,
		MessageEncoding: "json",
	}); err != nil {
		return 0, errors.Wrapf(err, "sink: write mcap channel (topic=%s)", topic)
	}

	w.channels[lt] = chID
	return chID, nil
}

func (w *mcapWriter) Write(raw record.Raw, frame []byte, computed record.Computed) int {
	if computed.HWTime.IsZero() {
		return 1
	}
	if computed.IsKeyframe && !w.writeKeyframes {
		return 1
	}

	chanID, err := w.ensureChannel(raw.LinkType)
	if err != nil {
		return -1
	}

	rec := mcapRecord{
		HWTimeSec:   computed.HWTime.Sec,
		HWTimePsec:  computed.HWTime.Psec,
		Status:      computed.Status.String(),
		IsKeyframe:  computed.IsKeyframe,
		FixedFCS:    computed.FixedFCS,
		DeviceID:    computed.DeviceID,
		Port:        computed.Port,
		CapturedLen: len(frame),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return -1
	}

	logTime := uint64(computed.HWTime.Ns())

	w.mu.Lock()
	err = w.writer.WriteMessage(&mcap.Message{
		ChannelID:   chanID,
		LogTime:     logTime,
		PublishTime: logTime,
		Data:        data,
	})
	w.mu.Unlock()
	if err != nil {
		return -1
	}
	return 0
}

func (w *mcapWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.writer.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
