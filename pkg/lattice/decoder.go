// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

import (
	"fmt"
	"time"
)

// FrameError is a decode-level protocol failure, tagged with the error code
// the device would report for the same condition. Callers that track a
// last-error register can feed the code straight into it.
type FrameError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *FrameError) Error() string {
	return e.Message
}

func frameErrorf(code ErrorCode, format string, args ...interface{}) *FrameError {
	return &FrameError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Decoder implements the Lattice frame decoder state machine.
//
// Bytes before the first sync byte are discarded, so the decoder
// resynchronizes after noise or a partial frame. Escaping is undone
// symmetrically with EncodeFrame on every field between the sync
// delimiters.
type Decoder struct {
	state      int
	body       []byte // unescaped flags..payload bytes, CRC'd on completion
	escapeNext bool
	frame      *Frame
	rawBuffer  []byte // accumulate raw bytes including framing
}

// NewDecoder creates a new frame decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:     stateIdle,
		body:      make([]byte, 0, MaxFramePayload+3),
		rawBuffer: make([]byte, 0, (MaxFramePayload+7)*2),
	}
}

// Reset resets the decoder state to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.body = d.body[:0]
	d.escapeNext = false
	d.frame = nil
	d.rawBuffer = d.rawBuffer[:0]
}

// RawBytes returns the raw bytes of the frame being decoded, including
// framing, since the last reset. Bytes seen while idle are not retained.
func (d *Decoder) RawBytes() []byte {
	return d.rawBuffer
}

// DecodeByte processes a single byte through the decoder state machine.
// Returns a completed frame, or nil if the frame is incomplete.
// Returns an error if decoding fails; the decoder resets itself and keeps
// scanning for the next sync byte on subsequent calls.
func (d *Decoder) DecodeByte(b byte) (*Frame, error) {
	// Noise before a frame starts is dropped, not buffered, so an idle
	// sync-less stream cannot grow the raw buffer
	if d.state != stateIdle || b == SyncByte {
		d.rawBuffer = append(d.rawBuffer, b)
	}

	// A raw sync byte is always framing: legal sync bytes inside frame
	// content arrive escaped.
	if b == SyncByte && !d.escapeNext {
		switch d.state {
		case stateIdle:
			d.state = stateFlags
			return nil, nil
		case stateTail:
			frame := d.frame
			crc := CalculateCRC(d.body)
			d.Reset()
			if frame.crc != crc {
				return nil, frameErrorf(ErrorBadChecksum,
					"CRC mismatch: expected 0x%04X, got 0x%04X", crc, frame.crc)
			}
			frame.timestamp = time.Now()
			return frame, nil
		default:
			// Frame truncated; treat this sync as the head of the next one
			state := d.state
			d.Reset()
			d.state = stateFlags
			return nil, frameErrorf(ErrorMissingSync, "unexpected sync byte in state %d", state)
		}
	}

	// Handle byte stuffing
	if b == EscByte && !d.escapeNext {
		d.escapeNext = true
		return nil, nil
	}
	if d.escapeNext {
		d.escapeNext = false
		switch b {
		case EscSync:
			b = SyncByte
		case EscEsc:
			b = EscByte
		default:
			d.Reset()
			return nil, frameErrorf(ErrorBadEscape, "bad escape sequence: 0x%02X after ESC", b)
		}
	}

	switch d.state {
	case stateIdle:
		// Waiting for a sync byte
		return nil, nil

	case stateFlags:
		flags := b & ^uint8(SeqMask)
		if flags != FlagLastFrame && flags != FlagMoreData {
			d.Reset()
			return nil, frameErrorf(ErrorInvalidType, "invalid frame type: 0x%02X", flags)
		}
		d.frame = &Frame{flags: flags, seq: b & SeqMask}
		d.body = append(d.body, b)
		d.state = stateLength
		return nil, nil

	case stateLength:
		if b == 0 || b > MaxFramePayload {
			d.Reset()
			return nil, frameErrorf(ErrorBadLength, "invalid length: %d (max %d)", b, MaxFramePayload)
		}
		d.frame.length = b
		d.body = append(d.body, b)
		d.state = stateDest
		return nil, nil

	case stateDest:
		d.frame.dest = b
		d.body = append(d.body, b)
		d.frame.payload = make([]byte, 0, d.frame.length-1)
		d.state = statePayload
		return nil, nil

	case statePayload:
		d.body = append(d.body, b)
		if len(d.body) == 4 {
			// First payload byte is the command
			d.frame.cmd = b
		} else {
			d.frame.payload = append(d.frame.payload, b)
		}
		if len(d.body)-3 >= int(d.frame.length) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.frame.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.frame.crc |= uint16(b)
		d.state = stateTail
		return nil, nil

	case stateTail:
		d.Reset()
		return nil, frameErrorf(ErrorMissingSync, "expected trailing sync byte, got 0x%02X", b)

	default:
		d.Reset()
		return nil, frameErrorf(ErrorInvalidType, "invalid decoder state: %d", d.state)
	}
}

// DecodeFrame decodes one complete frame from a byte slice. Convenience
// wrapper over the state machine for callers holding a full frame in memory.
func DecodeFrame(data []byte) (*Frame, error) {
	d := NewDecoder()
	for _, b := range data {
		frame, err := d.DecodeByte(b)
		if err != nil {
			return nil, err
		}
		if frame != nil {
			return frame, nil
		}
	}
	return nil, fmt.Errorf("incomplete frame: %d bytes consumed without a complete frame", len(data))
}
