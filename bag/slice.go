package bag

import "github.com/reductstore/ros-reductstore-demo/errors"

// SliceReader serves records from memory. Used by tests and by callers
// that already hold a decoded clip.
type SliceReader struct {
	records []Record
	topics  map[string]string
	pos     int
}

// NewSliceReader creates a reader over the given records. The topics map
// may be nil; the catalog is then derived from record declared types.
func NewSliceReader(records []Record, topics map[string]string) *SliceReader {
	if topics == nil {
		topics = make(map[string]string)
		for _, rec := range records {
			if rec.DeclaredType != "" {
				topics[rec.Channel] = rec.DeclaredType
			}
		}
	}
	return &SliceReader{records: records, topics: topics}
}

// HasNext reports whether another record is available.
func (sr *SliceReader) HasNext() bool {
	return sr.pos < len(sr.records)
}

// ReadNext returns the next record.
func (sr *SliceReader) ReadNext() (Record, error) {
	if sr.pos >= len(sr.records) {
		return Record{}, errors.ErrSourceExhausted
	}
	rec := sr.records[sr.pos]
	sr.pos++
	return rec, nil
}

// TopicCatalog returns the channel to declared-type mapping.
func (sr *SliceReader) TopicCatalog() map[string]string {
	return sr.topics
}

// Close is a no-op for in-memory readers.
func (sr *SliceReader) Close() error {
	return nil
}
