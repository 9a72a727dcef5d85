package lattice

import (
	"bytes"
	"testing"
)

// decodeAll runs a byte stream through a fresh decoder and returns every
// completed frame
func decodeAll(t *testing.T, frames [][]byte) []*Frame {
	t.Helper()
	d := NewDecoder()
	var out []*Frame
	for _, wire := range frames {
		for _, b := range wire {
			f, err := d.DecodeByte(b)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if f != nil {
				out = append(out, f)
			}
		}
	}
	return out
}

func TestPacketize_SingleFrame(t *testing.T) {
	frames, err := Packetize(CmdPing, nil)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}

	decoded := decodeAll(t, frames)
	if len(decoded) != 1 {
		t.Fatalf("expected 1 decoded frame, got %d", len(decoded))
	}
	if decoded[0].Cmd() != CmdPing {
		t.Errorf("cmd mismatch: got 0x%02X, want PING", decoded[0].Cmd())
	}
	if !decoded[0].IsLast() {
		t.Error("single frame must carry the last-frame flag")
	}
	if decoded[0].Seq() != 0 {
		t.Errorf("seq must start at 0, got %d", decoded[0].Seq())
	}
}

func TestPacketize_Fragmentation(t *testing.T) {
	tests := []struct {
		name       string
		dataLen    int
		wantFrames int
	}{
		{name: "exactly one frame", dataLen: MaxFramePayload - 1, wantFrames: 1},
		{name: "one byte over", dataLen: MaxFramePayload, wantFrames: 2},
		{name: "framebuffer sized", dataLen: 96, wantFrames: 2},
		{name: "many frames", dataLen: 10 * MaxFramePayload, wantFrames: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.dataLen)
			for i := range data {
				data[i] = byte(i)
			}

			frames, err := Packetize(CmdFrame, data)
			if err != nil {
				t.Fatalf("Packetize failed: %v", err)
			}
			if len(frames) != tt.wantFrames {
				t.Fatalf("expected %d frames, got %d", tt.wantFrames, len(frames))
			}

			decoded := decodeAll(t, frames)
			if len(decoded) != tt.wantFrames {
				t.Fatalf("expected %d decoded frames, got %d", tt.wantFrames, len(decoded))
			}

			// Reassemble: cmd byte from the first frame, then all payloads
			// in order, must reproduce the logical message exactly.
			var message []byte
			message = append(message, decoded[0].Cmd())
			message = append(message, decoded[0].Payload()...)
			for _, f := range decoded[1:] {
				// Continuation frames carry raw data; their first payload
				// byte lands in Cmd() because the wire format has no
				// per-frame header distinction.
				message = append(message, f.Cmd())
				message = append(message, f.Payload()...)
			}

			want := append([]byte{CmdFrame}, data...)
			if !bytes.Equal(message, want) {
				t.Errorf("reassembled message mismatch: got %d bytes, want %d", len(message), len(want))
			}

			// Exactly the final frame carries the last-frame flag
			for i, f := range decoded {
				wantLast := i == len(decoded)-1
				if f.IsLast() != wantLast {
					t.Errorf("frame %d last flag = %v, want %v", i, f.IsLast(), wantLast)
				}
			}
		})
	}
}

func TestPacketize_SequenceNumbers(t *testing.T) {
	// 40 frames worth of data forces a wrap from 31 back to 0
	data := make([]byte, 40*MaxFramePayload-1)

	frames, err := Packetize(CmdFrame, data)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}
	if len(frames) != 40 {
		t.Fatalf("expected 40 frames, got %d", len(frames))
	}

	decoded := decodeAll(t, frames)
	for i, f := range decoded {
		want := uint8(i % SeqModulo)
		if f.Seq() != want {
			t.Errorf("frame %d seq = %d, want %d", i, f.Seq(), want)
		}
	}
}

func TestPacketize_NoFrameExceedsCap(t *testing.T) {
	data := make([]byte, 500)
	frames, err := Packetize(CmdFrame, data)
	if err != nil {
		t.Fatalf("Packetize failed: %v", err)
	}

	for i, f := range decodeAll(t, frames) {
		if int(f.Length()) > MaxFramePayload {
			t.Errorf("frame %d length %d exceeds cap %d", i, f.Length(), MaxFramePayload)
		}
	}
}
