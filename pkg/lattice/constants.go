// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

// Package lattice implements the Lattice serial link protocol spoken by the
// Luxcube LED-cube controller.
//
// Lattice is a binary protocol carrying sync-delimited, byte-stuffed,
// CRC-checked frames. Logical messages larger than one frame are split
// across several frames carrying a 5-bit sequence number and a last-frame
// flag. This package provides frame encoding/decoding, message
// fragmentation, CRC validation and frame formatting; session handling
// lives in pkg/cube.
package lattice

// Protocol framing bytes
const (
	SyncByte = 0x16
	EscByte  = 0x1B

	// Escape sequences: a literal sync or escape byte inside frame content
	// is transmitted as EscByte followed by one of these.
	EscSync = EscByte + 1
	EscEsc  = EscByte + 2
)

// Frame type flags (top 3 bits of the flags+sequence byte)
const (
	FlagLastFrame = 0x60 // end of logical message
	FlagMoreData  = 0x40 // more frames follow

	SeqMask   = 0x1F // low 5 bits carry the sequence number
	SeqModulo = 32
)

// Frame size limits
const (
	MaxFramePayload = 50 // command byte + up to 49 data bytes
	DestBroadcast   = 0x00
)

// CRC-16-CCITT (XModem) configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0x0000
)

// Command bytes
const (
	CmdLogin  = 0
	CmdLogout = 1
	CmdReset  = 10
	CmdInfo   = 11
	CmdVers   = 12
	CmdErr    = 20
	CmdAck    = 25
	CmdPing   = 60
	CmdFlip   = 80
	CmdFrame  = 81
)

// INFO query selectors (first data byte of an INFO command)
const (
	InfoName        = 0
	InfoDescription = 1
	InfoCopyright   = 2
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateFlags
	stateLength
	stateDest
	statePayload
	stateCRC1
	stateCRC2
	stateTail
)

// ErrorCode represents the device's error register values, reported in the
// first payload byte of an ERR frame.
type ErrorCode uint8

// Error code values
const (
	ErrorNone           ErrorCode = 0
	ErrorTimeout        ErrorCode = 1
	ErrorMissingPacket  ErrorCode = 2
	ErrorBadChecksum    ErrorCode = 3
	ErrorInvalidType    ErrorCode = 4
	ErrorBadSequence    ErrorCode = 5
	ErrorMissingSync    ErrorCode = 6
	ErrorBadLength      ErrorCode = 7
	ErrorBadCommand     ErrorCode = 8
	ErrorBadData        ErrorCode = 9
	ErrorBadEscape      ErrorCode = 10
	ErrorOverflow       ErrorCode = 11
	ErrorNotImplemented ErrorCode = 12
	ErrorBadLogin       ErrorCode = 13
)
