package telemetry

// sanitize.go prepares raw upload bytes for CSV parsing. Telemetry exports
// frequently arrive from Windows tooling with a UTF-8 BOM, and downlink
// corruption can leave invalid byte sequences in the middle of a file; both
// would otherwise poison the header row or individual cells.

import (
	"bytes"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte order mark, if present.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode replacement
// character so the parsed cells are always valid strings. Valid input is
// returned unchanged without copying.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	out := make([]byte, 0, len(data)+utf8.UTFMax)
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, utf8.RuneError)
			i++
			continue
		}
		out = append(out, data[i:i+size]...)
		i += size
	}
	return out
}
