package bag

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// maxLineBytes bounds a single JSONL record. Compressed camera frames run
// to a few MB once base64 encoded.
const maxLineBytes = 32 * 1024 * 1024

// jsonlHeader is the optional first line of a clip file carrying the topic
// catalog up front.
type jsonlHeader struct {
	Topics map[string]string `json:"topics"`
}

// jsonlRecord is one message line. Structured payloads use "data" (raw
// JSON), binary payloads use "blob" (base64 via encoding/json).
type jsonlRecord struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type,omitempty"`
	TsNs    int64           `json:"ts_ns"`
	Data    json.RawMessage `json:"data,omitempty"`
	Blob    []byte          `json:"blob,omitempty"`
}

// JSONLReader reads clips stored as newline-delimited JSON. It implements
// Reader.
type JSONLReader struct {
	closer  io.Closer
	scanner *bufio.Scanner
	topics  map[string]string
	next    *Record
	err     error
}

// OpenJSONL opens a clip file written in the JSONL clip format.
func OpenJSONL(path string) (*JSONLReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "JSONLReader", "OpenJSONL", "open clip")
	}
	return NewJSONLReader(f), nil
}

// NewJSONLReader wraps an arbitrary stream in the JSONL clip format. The
// stream is closed by Close when it implements io.Closer.
func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	jr := &JSONLReader{
		scanner: scanner,
		topics:  make(map[string]string),
	}
	if c, ok := r.(io.Closer); ok {
		jr.closer = c
	}
	jr.advance()
	return jr
}

// advance scans forward to the next record line, consuming an optional
// header and skipping blank lines.
func (jr *JSONLReader) advance() {
	jr.next = nil
	for jr.scanner.Scan() {
		line := jr.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var hdr jsonlHeader
		if err := json.Unmarshal(line, &hdr); err == nil && len(hdr.Topics) > 0 {
			for name, typ := range hdr.Topics {
				jr.topics[name] = typ
			}
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			jr.err = errors.WrapInvalid(err, "JSONLReader", "advance", "parse record line")
			return
		}
		if rec.Channel == "" {
			jr.err = errors.WrapInvalid(errors.ErrDecodeFailed, "JSONLReader", "advance", "record without channel")
			return
		}

		payload := []byte(rec.Data)
		if len(payload) == 0 {
			payload = rec.Blob
		}

		typ := rec.Type
		if typ == "" {
			typ = jr.topics[rec.Channel]
		} else {
			jr.topics[rec.Channel] = typ
		}

		jr.next = &Record{
			Channel:      rec.Channel,
			Payload:      payload,
			EventTimeNs:  rec.TsNs,
			DeclaredType: typ,
		}
		return
	}
	if err := jr.scanner.Err(); err != nil {
		jr.err = errors.Wrap(err, "JSONLReader", "advance", "scan clip")
	}
}

// HasNext reports whether another record is available. A pending parse
// error also reports true so ReadNext can surface it.
func (jr *JSONLReader) HasNext() bool {
	return jr.next != nil || jr.err != nil
}

// ReadNext returns the next record. Calling past the end returns
// ErrSourceExhausted.
func (jr *JSONLReader) ReadNext() (Record, error) {
	if jr.err != nil {
		return Record{}, jr.err
	}
	if jr.next == nil {
		return Record{}, errors.ErrSourceExhausted
	}
	rec := *jr.next
	jr.advance()
	return rec, nil
}

// TopicCatalog returns the channel to declared-type mapping seen so far.
func (jr *JSONLReader) TopicCatalog() map[string]string {
	out := make(map[string]string, len(jr.topics))
	for name, typ := range jr.topics {
		out[name] = typ
	}
	return out
}

// Close releases the underlying stream.
func (jr *JSONLReader) Close() error {
	if jr.closer != nil {
		return jr.closer.Close()
	}
	return nil
}
