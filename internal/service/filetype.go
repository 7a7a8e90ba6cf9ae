package service

import "bytes"

// Content types accepted for uploads. The client's Content-Type header is
// ignored; the type is decided from the leading bytes of the file.
const (
	TypePDF  = "application/pdf"
	TypePNG  = "image/png"
	TypeJPEG = "image/jpeg"
)

var signatures = []struct {
	contentType string
	magic       []byte
}{
	{TypePDF, []byte("%PDF-")},
	{TypePNG, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{TypeJPEG, []byte{0xFF, 0xD8, 0xFF}},
}

// sniff returns the content type of data, or "" when it is none of the
// accepted formats.
func sniff(data []byte) string {
	for _, s := range signatures {
		if bytes.HasPrefix(data, s.magic) {
			return s.contentType
		}
	}
	return ""
}
