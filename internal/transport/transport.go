package transport

import (
	"context"

	"github.com/lumenjack/brsync/internal/logging"
	"github.com/lumenjack/brsync/internal/protocol"
)

// Transport pushes a raw command packet toward the mesh. Delivery is
// best-effort; retries, if any, are the transport's concern. The periodic
// re-emission cadence already re-sends colour state every cycle, so the
// pipeline never retries on its own.
type Transport interface {
	Send(ctx context.Context, pkt []byte) error
}

// Debug logs every packet instead of sending it, annotating colour
// commands with their decoded fields. It stands in until a real BLE
// transport is plugged behind the interface.
type Debug struct{}

// Send hex-dumps the packet through the structured logger.
func (Debug) Send(_ context.Context, pkt []byte) error {
	if cmd, err := protocol.DecodeColor(pkt); err == nil {
		logging.LogPacket("colour command -> "+cmd.Addr.String(), pkt)
		return nil
	}
	logging.LogPacket("mesh command", pkt)
	return nil
}
