// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

// ErrorInfo is the decoded form of the device's error register: the raw
// code plus its human-readable name. Code 0 means no error.
type ErrorInfo struct {
	Code    ErrorCode
	Message string
}

// Ok returns true when the info reports no error
func (e ErrorInfo) Ok() bool {
	return e.Code == ErrorNone
}

// NoError returns an ErrorInfo reporting a clear error register
func NoError() ErrorInfo {
	return ErrorInfo{Code: ErrorNone, Message: ErrorNone.String()}
}

// String returns the human-readable name for an error code
func (c ErrorCode) String() string {
	switch c {
	case ErrorNone:
		return "no error"
	case ErrorTimeout:
		return "timeout"
	case ErrorMissingPacket:
		return "missing packet"
	case ErrorBadChecksum:
		return "bad checksum"
	case ErrorInvalidType:
		return "invalid frame type"
	case ErrorBadSequence:
		return "bad sequence number"
	case ErrorMissingSync:
		return "missing sync byte"
	case ErrorBadLength:
		return "bad length"
	case ErrorBadCommand:
		return "bad command"
	case ErrorBadData:
		return "bad data"
	case ErrorBadEscape:
		return "bad escape sequence"
	case ErrorOverflow:
		return "overflow"
	case ErrorNotImplemented:
		return "not implemented"
	case ErrorBadLogin:
		return "bad login"
	default:
		return "unknown error"
	}
}

// DecodeError decodes the first payload byte of an ERR frame payload into
// an ErrorInfo. An empty payload decodes as no error.
func DecodeError(payload []byte) ErrorInfo {
	if len(payload) == 0 {
		return NoError()
	}
	code := ErrorCode(payload[0])
	return ErrorInfo{Code: code, Message: code.String()}
}
