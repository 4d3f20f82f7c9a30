package flatten

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// Batch accumulates flattened rows for one entry until the pipeline
// flushes it as a single JSON array record. The batch timestamp is the
// last row's timestamp, so a flushed batch sorts at the end of the span
// it covers.
type Batch struct {
	Entry   string
	channel string
	rows    [][]byte
	lastTs  int64
}

// NewBatch creates an empty batch for an entry.
func NewBatch(entry string) *Batch {
	return &Batch{Entry: entry}
}

// Add appends a row. Rows must arrive in non-decreasing timestamp order.
func (b *Batch) Add(row *Row) error {
	encoded, err := json.Marshal(row.Fields)
	if err != nil {
		return errors.WrapInvalid(err, "flatten", "Add", "encode row for "+b.Entry)
	}
	if b.channel == "" {
		b.channel = row.Channel
	}
	b.rows = append(b.rows, encoded)
	b.lastTs = row.TsNs
	return nil
}

// Len returns the number of buffered rows.
func (b *Batch) Len() int {
	return len(b.rows)
}

// LastTsNs returns the timestamp of the most recent row, 0 when empty.
func (b *Batch) LastTsNs() int64 {
	return b.lastTs
}

// Payload renders the buffered rows as a compact JSON array.
func (b *Batch) Payload() []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range b.rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(row)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

// Labels describes the batch for the store record.
func (b *Batch) Labels() map[string]string {
	channel := b.channel
	if channel == "" {
		channel = "unknown"
	}
	return map[string]string{
		"rows":  strconv.Itoa(len(b.rows)),
		"topic": channel,
		"type":  "json_batch",
	}
}

// Reset clears the batch for reuse after a flush.
func (b *Batch) Reset() {
	b.rows = b.rows[:0]
	b.channel = ""
	b.lastTs = 0
}
