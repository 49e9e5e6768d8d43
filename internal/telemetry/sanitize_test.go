package telemetry

import (
	"bytes"
	"testing"
)

func TestStripBOM(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"with BOM", []byte{0xEF, 0xBB, 0xBF, 'a', 'b'}, []byte("ab")},
		{"without BOM", []byte("ab"), []byte("ab")},
		{"empty", []byte{}, []byte{}},
		{"BOM only", []byte{0xEF, 0xBB, 0xBF}, []byte{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripBOM(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("stripBOM(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []byte
	}{
		{"valid ascii unchanged", []byte("hello"), []byte("hello")},
		{"valid multibyte unchanged", []byte("höhe 世界"), []byte("höhe 世界")},
		{"invalid start byte", []byte{0x80}, []byte("�")},
		{"truncated sequence", []byte{'a', 0xC3}, []byte("a�")},
		{"mixed", []byte("ab\x80cd"), []byte("ab�cd")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeUTF8(tt.input); !bytes.Equal(got, tt.want) {
				t.Errorf("sanitizeUTF8(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
