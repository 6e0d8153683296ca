package ics

import (
	"bytes"
	"testing"
)

func TestSwapBytes(t *testing.T) {
	tests := []struct {
		name  string
		width int
		in    []byte
		want  []byte
	}{
		{"width 1 is a no-op", 1, []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"width 2", 2, []byte{1, 2, 3, 4}, []byte{2, 1, 4, 3}},
		{"width 4", 4, []byte{1, 2, 3, 4, 5, 6, 7, 8}, []byte{4, 3, 2, 1, 8, 7, 6, 5}},
		{"width 8", 8,
			[]byte{1, 2, 3, 4, 5, 6, 7, 8},
			[]byte{8, 7, 6, 5, 4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := append([]byte(nil), tt.in...)
			swapBytes(buf, tt.width)
			if !bytes.Equal(buf, tt.want) {
				t.Errorf("got %v, want %v", buf, tt.want)
			}
		})
	}
}

func TestSwapBytes_Involution(t *testing.T) {
	for _, width := range []int{2, 4, 8} {
		buf := make([]byte, 64)
		for i := range buf {
			buf[i] = byte(i * 7)
		}
		orig := append([]byte(nil), buf...)
		swapBytes(buf, width)
		swapBytes(buf, width)
		if !bytes.Equal(buf, orig) {
			t.Errorf("width %d: double swap is not the identity", width)
		}
	}
}

func TestSwapBytes_ComplexSwapsPerComponent(t *testing.T) {
	// A Complex64 element is two float32 components; the swap pass must
	// reverse each 4-byte component, not the whole 8-byte element.
	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	swapBytes(buf, Complex64.swapWidth())
	want := []byte{4, 3, 2, 1, 8, 7, 6, 5}
	if !bytes.Equal(buf, want) {
		t.Errorf("got %v, want %v", buf, want)
	}
}
