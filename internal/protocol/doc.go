// Package protocol implements the BRMesh lighting command codec.
//
// This package constructs and validates the binary command packets understood
// by BRMesh Bluetooth-mesh lights. The layouts were reverse-engineered from
// BLE advertisement captures of the vendor app; every constructor reproduces
// the captured byte sequences exactly. Wrong bytes silently change what a
// light does, so malformed input is always an error, never corrected.
//
// # Command Layouts
//
// All commands are fixed 12-byte packets, zero padded:
//
//	Power:   43 <addrHi> <addrLo> 04 <brightness> 00 00 00 00 00 00 00
//	Color:   93 <addrHi> <addrLo> 04 <mode> <r> <g> <b> 00 00 00 00
//	Pairing: <deviceID:6> <lightID:2> <meshKey:4>
//
// The autonomous effect command is variable length:
//
//	00 52 04 <count> <speed> {ff <r> <g> <b>} x count
//
// Once sent, the light cycles the colour stops on its own at the rate implied
// by <speed>; no further host interaction is needed.
//
// # Colour Modes
//
// The colour command mode byte selects how the light renders the RGB triple:
//
//	0xff direct        - show the RGB value as-is
//	0xf8 rainbow       - rotate hues seeded from the RGB value
//	0xc1 complementary - alternate between the colour and its complement
//
// # Usage Example
//
//	addr, err := protocol.NewAddress(0x00, 0x01)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pkt, err := protocol.EncodeColor(addr, protocol.ModeDirect, 255, 0, 64)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// hand pkt to the BLE transport
//
// All constructors are pure functions with no shared state; they are safe for
// concurrent use.
package protocol
