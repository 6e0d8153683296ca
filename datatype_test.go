package ics

import (
	"testing"

	"github.com/anntzer/go-libics/errors"
)

var allDataTypes = []DataType{
	Uint8, Int8, Uint16, Int16, Uint32, Int32,
	Float32, Float64, Complex64, Complex128,
}

func TestDataType_NativeRoundTrip(t *testing.T) {
	for _, dt := range allDataTypes {
		code, err := dt.toNative("test")
		if err != nil {
			t.Fatalf("%s: toNative: %v", dt, err)
		}
		back, err := dataTypeFromNative("test", code)
		if err != nil {
			t.Fatalf("%s: fromNative(%d): %v", dt, code, err)
		}
		if back != dt {
			t.Errorf("%s: round trip yielded %s", dt, back)
		}
	}
}

func TestDataType_FromNative_OutOfRange(t *testing.T) {
	// Includes code 0 (Ics_unknown) and codes beyond the documented set.
	for _, code := range []int32{0, -1, 11, 99} {
		_, err := dataTypeFromNative("test", code)
		if !errors.IsKind(err, errors.KindUnsupported) {
			t.Errorf("fromNative(%d): got %v, want unsupported", code, err)
		}
	}
}

func TestDataType_Properties(t *testing.T) {
	tests := []struct {
		dt     DataType
		size   int
		domain Domain
		signed bool
		swap   int
	}{
		{Uint8, 1, DomainInteger, false, 1},
		{Int8, 1, DomainInteger, true, 1},
		{Uint16, 2, DomainInteger, false, 2},
		{Int16, 2, DomainInteger, true, 2},
		{Uint32, 4, DomainInteger, false, 4},
		{Int32, 4, DomainInteger, true, 4},
		{Float32, 4, DomainFloat, true, 4},
		{Float64, 8, DomainFloat, true, 8},
		{Complex64, 8, DomainComplex, true, 4},
		{Complex128, 16, DomainComplex, true, 8},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			if got := tt.dt.Size(); got != tt.size {
				t.Errorf("Size() = %d, want %d", got, tt.size)
			}
			if got := tt.dt.Domain(); got != tt.domain {
				t.Errorf("Domain() = %d, want %d", got, tt.domain)
			}
			if got := tt.dt.Signed(); got != tt.signed {
				t.Errorf("Signed() = %v, want %v", got, tt.signed)
			}
			// Complex types swap per scalar component, not per element.
			if got := tt.dt.swapWidth(); got != tt.swap {
				t.Errorf("swapWidth() = %d, want %d", got, tt.swap)
			}
		})
	}
}

func TestDataType_Invalid(t *testing.T) {
	var dt DataType
	if dt.Valid() {
		t.Error("zero DataType must be invalid")
	}
	if _, err := dt.toNative("test"); !errors.IsKind(err, errors.KindInvalidArgument) {
		t.Errorf("toNative of invalid type: got %v, want invalid_argument", err)
	}
}
