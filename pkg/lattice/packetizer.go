// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Mara Vesely, Luxcube

package lattice

// Packetize splits a logical message (command byte + data) into one or more
// wire-ready frames. The command byte is prepended to the data, the result
// is sliced into chunks of at most MaxFramePayload bytes, and each chunk is
// encoded with a sequence number starting at 0 and incrementing modulo 32.
// Only the final frame carries the last-frame flag, so the receiver can
// reassemble by concatenating payloads until it sees it.
func Packetize(cmd uint8, data []byte) ([][]byte, error) {
	message := make([]byte, 0, 1+len(data))
	message = append(message, cmd)
	message = append(message, data...)

	frames := make([][]byte, 0, (len(message)+MaxFramePayload-1)/MaxFramePayload)
	seq := uint8(0)

	for len(message) > 0 {
		n := len(message)
		if n > MaxFramePayload {
			n = MaxFramePayload
		}
		chunk := message[:n]
		message = message[n:]

		frame, err := EncodeFrame(chunk, seq, len(message) == 0)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
		seq = (seq + 1) % SeqModulo
	}

	return frames, nil
}
