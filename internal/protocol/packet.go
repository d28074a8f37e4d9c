package protocol

import (
	"errors"
	"fmt"
)

// Command opcodes (from BLE advertisement captures of the vendor app)
const (
	OpcodePower = 0x43 // Power / brightness command
	OpcodeColor = 0x93 // Colour command
)

// Colour command modes (captured values; any other byte is rejected)
const (
	ModeDirect        = 0xff // Render the RGB triple as-is
	ModeRainbow       = 0xf8 // Hue rotation seeded from the RGB triple
	ModeComplementary = 0xc1 // Alternate colour and complement
)

// Fixed field widths
const (
	PacketSize   = 12 // Every command packet is exactly 12 bytes
	DeviceIDSize = 6  // Pairing: device identifier width
	LightIDSize  = 2  // Pairing: assigned light identifier width
	MeshKeySize  = 4  // Pairing: mesh key width
	addrMarker   = 0x04
	fullOn       = 0x80 // Brightness byte for "full default on"
)

// ManufacturerID is the BLE manufacturer identifier carried out-of-band in
// pairing advertisements. It does not appear inside the 12-byte packet.
const ManufacturerID = 0xf0ff

// Validation errors. Constructors never correct malformed input; a wrong
// byte on the mesh is worse than a visible failure.
var (
	ErrInvalidAddress      = errors.New("address component out of byte range")
	ErrInvalidMode         = errors.New("invalid colour mode")
	ErrInvalidChannelValue = errors.New("colour channel out of byte range")
	ErrInvalidBrightness   = errors.New("brightness out of byte range")
	ErrInvalidLength       = errors.New("invalid field length")
)

// Address is the 2-byte device or group identifier targeted by a command.
// The protocol reserves no values; any byte pair is addressable.
type Address struct {
	Hi byte
	Lo byte
}

// NewAddress builds an Address from wider integers, validating byte range.
// Inputs already typed as byte cannot fail; this exists for callers parsing
// user input or config values.
func NewAddress(hi, lo int) (Address, error) {
	if hi < 0 || hi > 0xff {
		return Address{}, fmt.Errorf("%w: hi=%d", ErrInvalidAddress, hi)
	}
	if lo < 0 || lo > 0xff {
		return Address{}, fmt.Errorf("%w: lo=%d", ErrInvalidAddress, lo)
	}
	return Address{Hi: byte(hi), Lo: byte(lo)}, nil
}

// String returns the address in capture notation (e.g. "00:05")
func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x", a.Hi, a.Lo)
}

// ValidMode reports whether mode is one of the three captured mode bytes.
func ValidMode(mode byte) bool {
	switch mode {
	case ModeDirect, ModeRainbow, ModeComplementary:
		return true
	}
	return false
}

// EncodePower constructs a power/brightness command packet.
//
// Layout (capture-verified):
//
//	[0]     0x43        Opcode (OpcodePower)
//	[1]     addrHi      Target address high byte
//	[2]     addrLo      Target address low byte
//	[3]     0x04        Address marker (constant in all captures)
//	[4]     brightness  0x80 = full default on, 0x00 = off
//	[5-11]  zeros       Padding to 12 bytes
//
// When on is false the brightness byte is forced to 0x00 regardless of the
// supplied value - "off" always zeroes brightness.
//
// brightness is validated to byte range; values outside [0,255] return
// ErrInvalidBrightness.
func EncodePower(addr Address, on bool, brightness int) ([]byte, error) {
	if brightness < 0 || brightness > 0xff {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBrightness, brightness)
	}

	pkt := make([]byte, PacketSize)
	pkt[0] = OpcodePower
	pkt[1] = addr.Hi
	pkt[2] = addr.Lo
	pkt[3] = addrMarker
	if on {
		pkt[4] = byte(brightness)
	}
	// pkt[4] stays 0x00 when off; padding is zero-filled by make()

	return pkt, nil
}

// EncodePowerOn is shorthand for full default brightness (0x80 per captures).
func EncodePowerOn(addr Address) ([]byte, error) {
	return EncodePower(addr, true, fullOn)
}

// EncodeColor constructs a colour command packet.
//
// Layout (capture-verified):
//
//	[0]     0x93    Opcode (OpcodeColor)
//	[1]     addrHi  Target address high byte
//	[2]     addrLo  Target address low byte
//	[3]     0x04    Address marker
//	[4]     mode    ModeDirect / ModeRainbow / ModeComplementary
//	[5]     r
//	[6]     g
//	[7]     b
//	[8-11]  zeros   Padding to 12 bytes
//
// r, g, b are validated to byte range; no clamping is performed - an
// out-of-range channel is a caller error (ErrInvalidChannelValue). Any mode
// byte outside the three captured values returns ErrInvalidMode.
func EncodeColor(addr Address, mode byte, r, g, b int) ([]byte, error) {
	if !ValidMode(mode) {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMode, mode)
	}
	for _, ch := range [3]int{r, g, b} {
		if ch < 0 || ch > 0xff {
			return nil, fmt.Errorf("%w: %d", ErrInvalidChannelValue, ch)
		}
	}

	pkt := make([]byte, PacketSize)
	pkt[0] = OpcodeColor
	pkt[1] = addr.Hi
	pkt[2] = addr.Lo
	pkt[3] = addrMarker
	pkt[4] = mode
	pkt[5] = byte(r)
	pkt[6] = byte(g)
	pkt[7] = byte(b)

	return pkt, nil
}

// ColorCommand is the decoded form of a colour command packet.
type ColorCommand struct {
	Addr Address
	Mode byte
	R    byte
	G    byte
	B    byte
}

// DecodeColor parses a colour command packet back into its fields.
// Inverse of EncodeColor; round-trips exactly. Used by tests and by the
// debug transport to annotate outgoing traffic.
func DecodeColor(pkt []byte) (*ColorCommand, error) {
	if len(pkt) != PacketSize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(pkt), PacketSize)
	}
	if pkt[0] != OpcodeColor {
		return nil, fmt.Errorf("not a colour command: opcode 0x%02x", pkt[0])
	}
	if !ValidMode(pkt[4]) {
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMode, pkt[4])
	}
	return &ColorCommand{
		Addr: Address{Hi: pkt[1], Lo: pkt[2]},
		Mode: pkt[4],
		R:    pkt[5],
		G:    pkt[6],
		B:    pkt[7],
	}, nil
}

// EncodePairing constructs a pairing packet.
//
// Layout: plain concatenation in fixed order -
//
//	[0-5]   deviceID  6-byte device identifier
//	[6-7]   lightID   2-byte identifier assigned to the light
//	[8-11]  meshKey   4-byte shared mesh key
//
// Each field must have exactly its documented width; anything else returns
// ErrInvalidLength. The pairing handshake beyond this fixed layout is not
// decoded and stays out of scope.
func EncodePairing(deviceID, lightID, meshKey []byte) ([]byte, error) {
	if len(deviceID) != DeviceIDSize {
		return nil, fmt.Errorf("%w: deviceID is %d bytes, want %d", ErrInvalidLength, len(deviceID), DeviceIDSize)
	}
	if len(lightID) != LightIDSize {
		return nil, fmt.Errorf("%w: lightID is %d bytes, want %d", ErrInvalidLength, len(lightID), LightIDSize)
	}
	if len(meshKey) != MeshKeySize {
		return nil, fmt.Errorf("%w: meshKey is %d bytes, want %d", ErrInvalidLength, len(meshKey), MeshKeySize)
	}

	pkt := make([]byte, 0, PacketSize)
	pkt = append(pkt, deviceID...)
	pkt = append(pkt, lightID...)
	pkt = append(pkt, meshKey...)
	return pkt, nil
}
