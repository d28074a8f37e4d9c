package config

import (
	"fmt"
	"time"

	"github.com/lumenjack/brsync/internal/protocol"
)

// Node roles
const (
	RoleMaster   = "master"   // Has the microphone; analyzes and broadcasts
	RoleFollower = "follower" // No audio path; follows the sync feed
)

// Config is the entire configuration file for one node.
type Config struct {
	Version int    `yaml:"version"`
	Role    string `yaml:"role"`

	// NodeID identifies this node in sync packets (master only)
	NodeID byte `yaml:"node_id"`

	Mesh    MeshConfig    `yaml:"mesh"`
	Audio   AudioConfig   `yaml:"audio"`
	Color   ColorConfig   `yaml:"color"`
	Sync    SyncConfig    `yaml:"sync"`
	Monitor MonitorConfig `yaml:"monitor,omitempty"`
	Effects EffectsConfig `yaml:"effects,omitempty"`
}

// MeshConfig holds BRMesh addressing and pairing material.
type MeshConfig struct {
	// Target address for colour/power commands; a light or a group
	AddrHi int `yaml:"addr_hi"`
	AddrLo int `yaml:"addr_lo"`

	// Colour command mode: "direct", "rainbow" or "complementary"
	Mode string `yaml:"mode"`

	// Pairing material, hex-encoded ("aabbccddeeff" etc.). Optional -
	// only `brsync pair` needs it.
	DeviceID string `yaml:"device_id,omitempty"`
	LightID  string `yaml:"light_id,omitempty"`
	MeshKey  string `yaml:"mesh_key,omitempty"`
}

// AudioConfig tunes the spectral analyzer.
type AudioConfig struct {
	SampleRate      int           `yaml:"sample_rate"`
	WindowSize      int           `yaml:"window_size"`
	FPS             int           `yaml:"fps"`
	BassMaxHz       float64       `yaml:"bass_max_hz"`
	MidMaxHz        float64       `yaml:"mid_max_hz"`
	TrebleMaxHz     float64       `yaml:"treble_max_hz"`
	Attack          float64       `yaml:"attack"`
	Decay           float64       `yaml:"decay"`
	SilenceTimeout  time.Duration `yaml:"silence_timeout"`
	SilenceHalfLife time.Duration `yaml:"silence_half_life"`
}

// ColorConfig tunes the intensity-to-RGB mapping.
type ColorConfig struct {
	RedGain    float64 `yaml:"red_gain"`
	GreenGain  float64 `yaml:"green_gain"`
	BlueGain   float64 `yaml:"blue_gain"`
	Gamma      float64 `yaml:"gamma"`
	Brightness float64 `yaml:"brightness"`
}

// SyncConfig tunes the master/follower sync protocol.
type SyncConfig struct {
	// GroupAddr is the multicast group (or unicast peer) "host:port"
	GroupAddr string `yaml:"group_addr"`

	SilenceTimeout  time.Duration `yaml:"silence_timeout"`
	SilenceHalfLife time.Duration `yaml:"silence_half_life"`

	// Discover, when true, lets followers find the master's group
	// address via mDNS instead of GroupAddr
	Discover bool `yaml:"discover"`
}

// MonitorConfig controls the optional local WebSocket frame feed.
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"` // default 127.0.0.1:7879
}

// EffectsConfig carries the effect speed calibration table. Empty means
// the compiled-in capture points.
type EffectsConfig struct {
	SpeedTable protocol.SpeedTable `yaml:"speed_table,omitempty"`
}

// Default returns the compiled-in configuration: a master node at 22.05
// kHz / 10 fps targeting group address 00:01 in direct mode.
func Default() *Config {
	return &Config{
		Version: 1,
		Role:    RoleMaster,
		NodeID:  1,
		Mesh: MeshConfig{
			AddrHi: 0x00,
			AddrLo: 0x01,
			Mode:   "direct",
		},
		Audio: AudioConfig{
			SampleRate:      22050,
			WindowSize:      256,
			FPS:             10,
			BassMaxHz:       500,
			MidMaxHz:        2000,
			TrebleMaxHz:     8000,
			Attack:          0.3,
			Decay:           0.85,
			SilenceTimeout:  500 * time.Millisecond,
			SilenceHalfLife: 300 * time.Millisecond,
		},
		Color: ColorConfig{
			RedGain:    1.0,
			GreenGain:  1.0,
			BlueGain:   1.0,
			Gamma:      1.0,
			Brightness: 1.0,
		},
		Sync: SyncConfig{
			GroupAddr:       "239.255.77.77:7878",
			SilenceTimeout:  400 * time.Millisecond,
			SilenceHalfLife: 300 * time.Millisecond,
		},
		Monitor: MonitorConfig{
			Enabled: false,
			Addr:    "127.0.0.1:7879",
		},
	}
}

// Validate checks cross-field consistency before the pipeline starts.
func (c *Config) Validate() error {
	if c.Role != RoleMaster && c.Role != RoleFollower {
		return fmt.Errorf("role must be %q or %q, got %q", RoleMaster, RoleFollower, c.Role)
	}
	if _, err := protocol.NewAddress(c.Mesh.AddrHi, c.Mesh.AddrLo); err != nil {
		return fmt.Errorf("mesh address: %w", err)
	}
	if _, err := c.Mesh.ModeByte(); err != nil {
		return err
	}
	if len(c.Effects.SpeedTable) > 0 {
		if err := c.Effects.SpeedTable.Validate(); err != nil {
			return fmt.Errorf("speed table: %w", err)
		}
	}
	return nil
}

// Address returns the validated mesh target address.
func (c *Config) Address() (protocol.Address, error) {
	return protocol.NewAddress(c.Mesh.AddrHi, c.Mesh.AddrLo)
}

// ModeByte maps the configured mode name to its wire byte.
func (m MeshConfig) ModeByte() (byte, error) {
	switch m.Mode {
	case "direct", "":
		return protocol.ModeDirect, nil
	case "rainbow":
		return protocol.ModeRainbow, nil
	case "complementary":
		return protocol.ModeComplementary, nil
	default:
		return 0, fmt.Errorf("unknown colour mode %q", m.Mode)
	}
}

// SpeedTable returns the configured calibration table, falling back to
// the compiled-in capture points.
func (c *Config) SpeedTable() protocol.SpeedTable {
	if len(c.Effects.SpeedTable) > 0 {
		return c.Effects.SpeedTable
	}
	return protocol.DefaultSpeedTable
}
