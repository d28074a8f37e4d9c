package protocol

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestBuildAutonomousEffect(t *testing.T) {
	tests := []struct {
		name    string
		colors  []RGB
		speed   byte
		want    []byte
		wantErr error
	}{
		{
			// Capture-verified reference vector: red/green/blue at speed 0x30
			name: "three colour reference capture",
			colors: []RGB{
				{R: 255, G: 0, B: 0},
				{R: 0, G: 255, B: 0},
				{R: 0, G: 0, B: 255},
			},
			speed: 0x30,
			want: []byte{
				0x00, 0x52, 0x04, 0x03, 0x30,
				0xff, 0xff, 0x00, 0x00,
				0xff, 0x00, 0xff, 0x00,
				0xff, 0x00, 0x00, 0xff,
			},
		},
		{
			name:   "single colour",
			colors: []RGB{{R: 0x10, G: 0x20, B: 0x30}},
			speed:  0x01,
			want:   []byte{0x00, 0x52, 0x04, 0x01, 0x01, 0xff, 0x10, 0x20, 0x30},
		},
		{
			name:    "empty effect rejected",
			colors:  nil,
			speed:   0x30,
			wantErr: ErrEmptyEffect,
		},
		{
			name:    "zero speed rejected",
			colors:  []RGB{{R: 1, G: 2, B: 3}},
			speed:   0x00,
			wantErr: ErrInvalidSpeed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildAutonomousEffect(tt.colors, tt.speed)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("packet = % x, want % x", got, tt.want)
			}
		})
	}
}

func TestBuildAutonomousEffectEmptyForAnySpeed(t *testing.T) {
	for _, speed := range []byte{0x00, 0x01, 0x30, 0x80, 0xff} {
		if _, err := BuildAutonomousEffect([]RGB{}, speed); !errors.Is(err, ErrEmptyEffect) {
			t.Errorf("speed 0x%02x: error = %v, want ErrEmptyEffect", speed, err)
		}
	}
}

func TestBuildAutonomousEffectTooManyColors(t *testing.T) {
	colors := make([]RGB, 256)
	if _, err := BuildAutonomousEffect(colors, 0x30); !errors.Is(err, ErrTooManyColors) {
		t.Errorf("error = %v, want ErrTooManyColors", err)
	}

	// 255 stops is the limit, not over it
	pkt, err := BuildAutonomousEffect(colors[:255], 0x30)
	if err != nil {
		t.Fatalf("255 stops: unexpected error: %v", err)
	}
	if pkt[3] != 0xff {
		t.Errorf("count byte = 0x%02x, want 0xff", pkt[3])
	}
	if len(pkt) != 5+4*255 {
		t.Errorf("packet length = %d, want %d", len(pkt), 5+4*255)
	}
}

func TestSpeedTableHoldDuration(t *testing.T) {
	table := DefaultSpeedTable
	if err := table.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}

	tests := []struct {
		name  string
		speed byte
		want  time.Duration
	}{
		{name: "calibrated low end", speed: 0x01, want: 16 * time.Millisecond},
		{name: "calibrated midpoint", speed: 0x80, want: 2 * time.Second},
		{name: "calibrated top", speed: 0xff, want: 3980 * time.Millisecond},
		{name: "below table clamps", speed: 0x00, want: 16 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.HoldDuration(tt.speed); got != tt.want {
				t.Errorf("HoldDuration(0x%02x) = %v, want %v", tt.speed, got, tt.want)
			}
		})
	}

	t.Run("interpolation is monotonic", func(t *testing.T) {
		prev := table.HoldDuration(0x01)
		for speed := 2; speed <= 0xff; speed++ {
			cur := table.HoldDuration(byte(speed))
			if cur < prev {
				t.Fatalf("HoldDuration(0x%02x) = %v < HoldDuration(0x%02x) = %v",
					speed, cur, speed-1, prev)
			}
			prev = cur
		}
	})

	t.Run("interpolated point lies between neighbours", func(t *testing.T) {
		got := table.HoldDuration(0x60) // between 0x40 and 0x80
		if got <= 1050*time.Millisecond || got >= 2*time.Second {
			t.Errorf("HoldDuration(0x60) = %v, want between 1.05s and 2s", got)
		}
	})
}

func TestSpeedTableValidate(t *testing.T) {
	tests := []struct {
		name    string
		table   SpeedTable
		wantErr bool
	}{
		{name: "empty", table: SpeedTable{}, wantErr: true},
		{
			name: "non-increasing speed",
			table: SpeedTable{
				{Speed: 0x10, Hold: 100 * time.Millisecond},
				{Speed: 0x10, Hold: 200 * time.Millisecond},
			},
			wantErr: true,
		},
		{
			name: "non-increasing hold",
			table: SpeedTable{
				{Speed: 0x10, Hold: 200 * time.Millisecond},
				{Speed: 0x20, Hold: 100 * time.Millisecond},
			},
			wantErr: true,
		},
		{
			name: "valid two point",
			table: SpeedTable{
				{Speed: 0x01, Hold: 16 * time.Millisecond},
				{Speed: 0x80, Hold: 2 * time.Second},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
