package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffImageContentType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00}, "image/png"},
		{"truncated jpeg magic", []byte{0xff, 0xd8}, ""},
		{"arbitrary bytes", []byte{0x00, 0x01, 0x02, 0x03}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffImageContentType(tt.data))
		})
	}
}
