// Package monitor exposes the live frame feed over a local WebSocket.
//
// This package implements an optional debugging endpoint that streams every
// analysis frame as a JSON object. It is read-only: clients observe the
// bass/mid/treble levels the pipeline is acting on, they cannot influence
// the pipeline. The endpoint is disabled by default and binds to loopback.
//
// # Wire Format
//
// Each frame is a single WebSocket text message:
//
//	{"seq":412,"timestamp_us":1756590000123456,"bass":0.82,"mid":0.11,"treble":0.07}
//
// # Delivery Semantics
//
// Frames are delivered with drop-old semantics per client. A slow client
// sees the newest frame, never a growing backlog; the pipeline is never
// blocked by a reader.
//
// # Usage Example
//
//	srv, err := monitor.New(monitor.Config{Addr: "127.0.0.1:7879"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pipe.AddSink(srv)
//	go srv.Run(ctx)
//
// Then connect with any WebSocket client:
//
//	websocat ws://127.0.0.1:7879/frames
package monitor
