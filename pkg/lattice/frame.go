// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

import "time"

// Frame represents a decoded Lattice protocol frame
type Frame struct {
	flags     uint8
	seq       uint8
	length    uint8
	dest      uint8
	cmd       uint8
	payload   []byte // data bytes after the command byte
	crc       uint16
	timestamp time.Time
}

// Flags returns the frame's type flags (top 3 bits of the flags+seq byte)
func (f *Frame) Flags() uint8 {
	return f.flags
}

// Seq returns the frame's 5-bit sequence number
func (f *Frame) Seq() uint8 {
	return f.seq
}

// Length returns the frame's length byte (command byte + payload)
func (f *Frame) Length() uint8 {
	return f.length
}

// Dest returns the frame's destination byte (always broadcast in practice)
func (f *Frame) Dest() uint8 {
	return f.dest
}

// Cmd returns the frame's command byte
func (f *Frame) Cmd() uint8 {
	return f.cmd
}

// Payload returns the frame's data bytes, excluding the command byte
func (f *Frame) Payload() []byte {
	return f.payload
}

// CRC returns the frame's checksum as read from the wire
func (f *Frame) CRC() uint16 {
	return f.crc
}

// Timestamp returns the frame's decode timestamp
func (f *Frame) Timestamp() time.Time {
	return f.timestamp
}

// IsLast returns true if this frame ends its logical message
func (f *Frame) IsLast() bool {
	return f.flags == FlagLastFrame
}

// IsError returns true if this frame carries the device's ERR command
func (f *Frame) IsError() bool {
	return f.cmd == CmdErr
}

// ErrorInfo returns the error reported by an ERR frame. For any other
// frame, or an ERR frame with an empty payload, it reports ErrorNone.
func (f *Frame) ErrorInfo() ErrorInfo {
	if !f.IsError() || len(f.payload) == 0 {
		return ErrorInfo{Code: ErrorNone, Message: ErrorNone.String()}
	}
	code := ErrorCode(f.payload[0])
	return ErrorInfo{Code: code, Message: code.String()}
}
