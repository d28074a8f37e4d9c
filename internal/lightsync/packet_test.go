package lightsync

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestSyncPacketEncodeLayout(t *testing.T) {
	pkt := &SyncPacket{
		SenderID:  7,
		Seq:       0x01020304,
		Timestamp: time.UnixMicro(0x1122334455),
		Bass:      1.0,
		Mid:       0.5,
		Treble:    0.0,
	}

	buf := pkt.Encode()
	if len(buf) != PacketSize {
		t.Fatalf("packet size = %d, want %d", len(buf), PacketSize)
	}
	if buf[0] != 'B' || buf[1] != 'R' {
		t.Errorf("magic = %c%c, want BR", buf[0], buf[1])
	}
	if buf[2] != ProtocolVersion {
		t.Errorf("version = 0x%02x, want 0x%02x", buf[2], ProtocolVersion)
	}
	if buf[3] != 7 {
		t.Errorf("senderID = %d, want 7", buf[3])
	}
	if !bytes.Equal(buf[4:8], []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("seq bytes = % x, want 01 02 03 04", buf[4:8])
	}
	// 1.0 as big-endian float32
	if !bytes.Equal(buf[16:20], []byte{0x3f, 0x80, 0x00, 0x00}) {
		t.Errorf("bass bytes = % x, want 3f 80 00 00", buf[16:20])
	}
}

func TestSyncPacketRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  SyncPacket
	}{
		{
			name: "typical frame",
			pkt: SyncPacket{
				SenderID:  1,
				Seq:       42,
				Timestamp: time.UnixMicro(1700000000123456),
				Bass:      0.8,
				Mid:       0.1,
				Treble:    0.1,
			},
		},
		{
			name: "zero levels",
			pkt:  SyncPacket{SenderID: 0, Seq: 1, Timestamp: time.UnixMicro(0)},
		},
		{
			name: "max sequence",
			pkt: SyncPacket{
				SenderID:  255,
				Seq:       0xffffffff,
				Timestamp: time.UnixMicro(9999999999999),
				Bass:      1, Mid: 1, Treble: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := DecodeSyncPacket(tt.pkt.Encode())
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if dec.SenderID != tt.pkt.SenderID || dec.Seq != tt.pkt.Seq {
				t.Errorf("identity fields = %d/%d, want %d/%d",
					dec.SenderID, dec.Seq, tt.pkt.SenderID, tt.pkt.Seq)
			}
			if !dec.Timestamp.Equal(tt.pkt.Timestamp) {
				t.Errorf("timestamp = %v, want %v", dec.Timestamp, tt.pkt.Timestamp)
			}
			// Levels pass through a float32 on the wire
			const eps = 1e-6
			if diff(dec.Bass, tt.pkt.Bass) > eps || diff(dec.Mid, tt.pkt.Mid) > eps ||
				diff(dec.Treble, tt.pkt.Treble) > eps {
				t.Errorf("levels = %v/%v/%v, want %v/%v/%v",
					dec.Bass, dec.Mid, dec.Treble, tt.pkt.Bass, tt.pkt.Mid, tt.pkt.Treble)
			}
		})
	}
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestDecodeSyncPacketRejectsMalformed(t *testing.T) {
	valid := (&SyncPacket{Seq: 1, Timestamp: time.Now()}).Encode()

	tests := []struct {
		name    string
		buf     []byte
		wantErr error
	}{
		{name: "truncated", buf: valid[:10], wantErr: ErrTruncated},
		{name: "empty", buf: nil, wantErr: ErrTruncated},
		{name: "bad magic", buf: corrupt(valid, 0, 'X'), wantErr: ErrBadMagic},
		{name: "bad version", buf: corrupt(valid, 2, 0x99), wantErr: ErrBadVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeSyncPacket(tt.buf); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("oversized", func(t *testing.T) {
		if _, err := DecodeSyncPacket(append(valid, 0x00)); err == nil {
			t.Error("oversized datagram accepted")
		}
	})
}

func corrupt(buf []byte, idx int, v byte) []byte {
	out := make([]byte, len(buf))
	copy(out, buf)
	out[idx] = v
	return out
}
