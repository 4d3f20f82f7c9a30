package pipeline

import "bytes"

// Content types written by the pipeline.
const (
	contentTypeJSON  = "application/json"
	contentTypeOctet = "application/octet-stream"
	contentTypeJPEG  = "image/jpeg"
	contentTypePNG   = "image/png"
)

var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
)

// sniffImageContentType identifies a JPEG or PNG payload by its magic
// bytes. It returns "" for anything else; unsupported image formats are
// skipped rather than stored with a wrong content type.
func sniffImageContentType(data []byte) string {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return contentTypeJPEG
	case bytes.HasPrefix(data, pngMagic):
		return contentTypePNG
	default:
		return ""
	}
}
