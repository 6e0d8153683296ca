package errors

// Code is a native libics status code (the C Ics_Error enumeration).
//
// The values mirror the libics 1.6 header. They are library-version
// dependent; a build against a different libics only needs to touch this
// file and the KindOf table below.
type Code int32

const (
	CodeOk Code = iota
	CodeFSizeConflict
	CodeOutputNotFilled
	CodeAlloc
	CodeBitsVsSizeConflict
	CodeBlockNotAllowed
	CodeBufferTooSmall
	CodeCompressionProblem
	CodeCorruptedStream
	CodeDecompressionProblem
	CodeDuplicateData
	CodeEmptyField
	CodeEndOfHistory
	CodeEndOfStream
	CodeFailWriteLine
	CodeFCloseIcs
	CodeFCloseIds
	CodeFCopyIds
	CodeFOpenIcs
	CodeFOpenIds
	CodeFReadIcs
	CodeFReadIds
	CodeFTempMoveIcs
	CodeFWriteIcs
	CodeFWriteIds
	CodeIllegalROI
	CodeIllIcsToken
	CodeIllParameter
	CodeIllParameterNr
	CodeLineOverflow
	CodeMissBits
	CodeMissCat
	CodeMissingData
	CodeMissLayoutSubBlock
	CodeMissParamLabel
	CodeMissSensorSubBlock
	CodeMissSubCat
	CodeNoLayout
	CodeNoScilType
	CodeNotIcsFile
	CodeNotValidAction
	CodeTooManyChans
	CodeTooManyDims
	CodeUnknownCompression
	CodeUnknownDataType
	CodeWrongZlibVersion
)

// kindByCode is the static translation table from native status codes to
// error kinds. It is exhaustive over the documented Ics_Error set; codes
// introduced by future library versions fall through to KindInternal with
// the raw code preserved on the Error.
var kindByCode = map[Code]Kind{
	CodeFSizeConflict:        KindFormat,
	CodeOutputNotFilled:      KindFormat,
	CodeAlloc:                KindOutOfMemory,
	CodeBitsVsSizeConflict:   KindInvalidArgument,
	CodeBlockNotAllowed:      KindState,
	CodeBufferTooSmall:       KindInvalidArgument,
	CodeCompressionProblem:   KindFormat,
	CodeCorruptedStream:      KindFormat,
	CodeDecompressionProblem: KindFormat,
	CodeDuplicateData:        KindState,
	CodeEmptyField:           KindInvalidArgument,
	CodeEndOfHistory:         KindState,
	CodeEndOfStream:          KindIO,
	CodeFailWriteLine:        KindIO,
	CodeFCloseIcs:            KindIO,
	CodeFCloseIds:            KindIO,
	CodeFCopyIds:             KindIO,
	CodeFOpenIcs:             KindFileNotFound,
	CodeFOpenIds:             KindFileNotFound,
	CodeFReadIcs:             KindIO,
	CodeFReadIds:             KindIO,
	CodeFTempMoveIcs:         KindIO,
	CodeFWriteIcs:            KindIO,
	CodeFWriteIds:            KindIO,
	CodeIllegalROI:           KindInvalidArgument,
	CodeIllIcsToken:          KindFormat,
	CodeIllParameter:         KindInvalidArgument,
	CodeIllParameterNr:       KindInvalidArgument,
	CodeLineOverflow:         KindFormat,
	CodeMissBits:             KindFormat,
	CodeMissCat:              KindFormat,
	CodeMissingData:          KindFormat,
	CodeMissLayoutSubBlock:   KindFormat,
	CodeMissParamLabel:       KindFormat,
	CodeMissSensorSubBlock:   KindFormat,
	CodeMissSubCat:           KindFormat,
	CodeNoLayout:             KindState,
	CodeNoScilType:           KindFormat,
	CodeNotIcsFile:           KindFormat,
	CodeNotValidAction:       KindState,
	CodeTooManyChans:         KindInvalidArgument,
	CodeTooManyDims:          KindInvalidArgument,
	CodeUnknownCompression:   KindUnsupported,
	CodeUnknownDataType:      KindUnsupported,
	CodeWrongZlibVersion:     KindUnsupported,
}

// KindOf maps a native status code to its error kind. Unknown codes map to
// KindInternal.
func KindOf(code Code) Kind {
	if k, ok := kindByCode[code]; ok {
		return k
	}
	return KindInternal
}
