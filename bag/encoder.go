package bag

import (
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// Encoder serializes a closed episode's messages into a single blob.
// A real bag container writer slots in here; the default ClipEncoder keeps
// the JSONL clip format so seeded episodes stay inspectable with standard
// tooling.
type Encoder interface {
	Encode(records []Record) ([]byte, error)
	ContentType() string
}

// ClipEncoder writes episodes in the JSONL clip format: a topic catalog
// header followed by one record per line. Output of Encode round-trips
// through NewJSONLReader.
type ClipEncoder struct{}

// Encode serializes records with their (already remapped) timestamps.
func (ClipEncoder) Encode(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	topics := make(map[string]string)
	for _, rec := range records {
		if rec.DeclaredType != "" {
			topics[rec.Channel] = rec.DeclaredType
		}
	}
	if len(topics) > 0 {
		if err := enc.Encode(jsonlHeader{Topics: topics}); err != nil {
			return nil, errors.Wrap(err, "ClipEncoder", "Encode", "write header")
		}
	}

	for _, rec := range records {
		line := jsonlRecord{
			Channel: rec.Channel,
			Type:    rec.DeclaredType,
			TsNs:    rec.EventTimeNs,
		}
		if json.Valid(rec.Payload) && utf8.Valid(rec.Payload) {
			line.Data = json.RawMessage(rec.Payload)
		} else {
			line.Blob = rec.Payload
		}
		if err := enc.Encode(line); err != nil {
			return nil, errors.Wrap(err, "ClipEncoder", "Encode", "write record")
		}
	}
	return buf.Bytes(), nil
}

// ContentType identifies the JSONL clip format.
func (ClipEncoder) ContentType() string {
	return "application/x-ndjson"
}
