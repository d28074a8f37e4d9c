// Package discovery provides mDNS-based discovery of the master sync node.
//
// This package implements multicast DNS service discovery so follower nodes
// can locate a running master without manual address configuration. The
// master advertises its UDP sync service as "_brsync._udp"; followers browse
// for that service type and read the sync group address from the TXT records.
//
// # Discovery Process
//
//  1. The master registers "_brsync._udp" on startup, carrying its node ID
//     and the sync group address in TXT records
//  2. Followers broadcast mDNS queries on the local network
//  3. Responses are filtered to brsync masters and parsed into Node values
//  4. The follower joins the advertised sync group
//
// Manual sync address configuration bypasses discovery entirely.
//
// # TXT Records
//
// The master advertises:
//   - node: numeric sender ID of the master (e.g. "1")
//   - group: UDP sync group address (e.g. "239.255.77.77:7878")
//   - ver: sync protocol version
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Nodes must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
//
// # Thread Safety
//
// This package is safe for concurrent use. Multiple discovery sessions can
// run simultaneously without interference.
package discovery
