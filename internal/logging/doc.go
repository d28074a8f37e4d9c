// Package logging provides structured logging for brsync.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the pipeline. It provides both general logging
// functions and specialized functions for protocol-specific logging needs.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (packet hex dumps, per-frame levels)
//   - Info: Normal operations (pipeline start/stop, role selection, discovery)
//   - Warn: Non-fatal issues (stale sync frames, silence timeouts)
//   - Error: Fatal issues (startup failures, socket errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Sync frame accepted",
//	    zap.Uint32("seq", frame.Seq),
//	    zap.Float64("bass", frame.Bass),
//	)
//
// # Specialized Logging
//
// Mesh packet logging:
//
//	logging.LogPacket("color command", pkt)
//
// Sync frame logging:
//
//	logging.LogSyncFrame("broadcast", senderID, seq, bass, mid, treble)
//
// # Configuration
//
// Logging is silent by default so one-shot CLI commands produce clean output.
// Set BRSYNC_LOG_LEVEL (debug, info, warn, error) or initialize explicitly:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
