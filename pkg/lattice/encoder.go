// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

import "fmt"

// EncodeFrame builds a complete wire-formatted Lattice frame around the
// given payload (command byte + data). The sequence number is masked to 5
// bits; last marks the frame as the end of its logical message.
//
// Returns an error only when the payload exceeds MaxFramePayload. The
// packetizer guarantees the bound, so hitting this from Packetize output
// indicates a bug, not a runtime condition.
func EncodeFrame(payload []byte, seq uint8, last bool) ([]byte, error) {
	if len(payload) > MaxFramePayload {
		return nil, fmt.Errorf("frame payload too large: %d bytes (max %d)", len(payload), MaxFramePayload)
	}

	flags := uint8(FlagMoreData)
	if last {
		flags = FlagLastFrame
	}

	// Build the unescaped frame body: flags+seq, length, dest, payload.
	// This is what gets CRC'd and byte-stuffed.
	body := make([]byte, 0, 3+len(payload)+2)
	body = append(body, flags|(seq&SeqMask))
	body = append(body, uint8(len(payload)))
	body = append(body, DestBroadcast)
	body = append(body, payload...)

	// CRC over the unescaped body, appended big-endian
	crc := CalculateCRC(body)
	body = append(body, byte(crc>>8), byte(crc&0xFF))

	// Apply byte stuffing to the body (never to the sync delimiters)
	stuffed := stuffBytes(body)

	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, SyncByte)
	frame = append(frame, stuffed...)
	frame = append(frame, SyncByte)

	return frame, nil
}

// stuffBytes applies byte stuffing to escape special bytes.
// A sync byte becomes ESC,EscSync; an escape byte becomes ESC,EscEsc.
func stuffBytes(data []byte) []byte {
	// Pre-allocate with extra space for potential escapes
	result := make([]byte, 0, len(data)*2)

	for _, b := range data {
		switch b {
		case SyncByte:
			result = append(result, EscByte, EscSync)
		case EscByte:
			result = append(result, EscByte, EscEsc)
		default:
			result = append(result, b)
		}
	}

	return result
}

// UnstuffBytes removes byte stuffing from escaped data.
// This is the inverse of stuffBytes.
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false

	for _, b := range data {
		if escapeNext {
			switch b {
			case EscSync:
				result = append(result, SyncByte)
			case EscEsc:
				result = append(result, EscByte)
			default:
				return nil, fmt.Errorf("bad escape sequence: 0x%02X after ESC", b)
			}
			escapeNext = false
		} else if b == EscByte {
			escapeNext = true
		} else {
			result = append(result, b)
		}
	}

	if escapeNext {
		return nil, fmt.Errorf("incomplete escape sequence at end of data")
	}

	return result, nil
}
