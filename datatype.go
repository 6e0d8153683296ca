package ics

import (
	"github.com/anntzer/go-libics/engine"
	"github.com/anntzer/go-libics/errors"
)

// DataType identifies the element type of the pixel data. The zero value is
// invalid.
type DataType int

const (
	Uint8 DataType = iota + 1
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
	Complex64
	Complex128
)

// Domain is the numeric domain of a DataType.
type Domain int

const (
	DomainInteger Domain = iota
	DomainFloat
	DomainComplex
)

type typeInfo struct {
	name   string
	native int32
	size   int // element width in bytes
	domain Domain
	signed bool
}

// The supported type set, in native code order. fromNative fails for any
// code outside this table; it is never extended implicitly.
var typeTable = map[DataType]typeInfo{
	Uint8:      {"Uint8", engine.TypeCodeUint8, 1, DomainInteger, false},
	Int8:       {"Int8", engine.TypeCodeSint8, 1, DomainInteger, true},
	Uint16:     {"Uint16", engine.TypeCodeUint16, 2, DomainInteger, false},
	Int16:      {"Int16", engine.TypeCodeSint16, 2, DomainInteger, true},
	Uint32:     {"Uint32", engine.TypeCodeUint32, 4, DomainInteger, false},
	Int32:      {"Int32", engine.TypeCodeSint32, 4, DomainInteger, true},
	Float32:    {"Float32", engine.TypeCodeReal32, 4, DomainFloat, true},
	Float64:    {"Float64", engine.TypeCodeReal64, 8, DomainFloat, true},
	Complex64:  {"Complex64", engine.TypeCodeComplex32, 8, DomainComplex, true},
	Complex128: {"Complex128", engine.TypeCodeComplex64, 16, DomainComplex, true},
}

var dataTypeByNative = func() map[int32]DataType {
	m := make(map[int32]DataType, len(typeTable))
	for t, info := range typeTable {
		m[info.native] = t
	}
	return m
}()

// Valid reports whether t is in the supported type set.
func (t DataType) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

func (t DataType) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return "DataType(invalid)"
}

// Size returns the element width in bytes.
func (t DataType) Size() int {
	return typeTable[t].size
}

// Domain returns the numeric domain of t.
func (t DataType) Domain() Domain {
	return typeTable[t].domain
}

// Signed reports whether t is a signed type. Float and complex types are
// signed.
func (t DataType) Signed() bool {
	return typeTable[t].signed
}

// swapWidth is the word width of the byte-order swap pass. Complex elements
// are stored as two scalars, so they swap per component.
func (t DataType) swapWidth() int {
	info := typeTable[t]
	if info.domain == DomainComplex {
		return info.size / 2
	}
	return info.size
}

// toNative returns the native Ics_DataType code for t.
func (t DataType) toNative(op string) (int32, error) {
	info, ok := typeTable[t]
	if !ok {
		return 0, errors.InvalidArgument(op, "invalid data type %d", int(t))
	}
	return info.native, nil
}

// dataTypeFromNative maps a native type code to a DataType. Codes outside
// the supported set fail with an unsupported error, never a silent wrong
// value.
func dataTypeFromNative(op string, code int32) (DataType, error) {
	t, ok := dataTypeByNative[code]
	if !ok {
		return 0, errors.Unsupported(op, "native data type code %d is not supported", code)
	}
	return t, nil
}
