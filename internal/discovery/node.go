package discovery

import (
	"fmt"
	"strconv"
	"time"
)

// Node represents a discovered master node on the network
type Node struct {
	// Instance is the mDNS instance name (e.g., "brsync-1")
	Instance string

	// Hostname is the mDNS hostname of the machine running the master
	Hostname string

	// IP is the IPv4 address the master answered from
	IP string

	// Port is the advertised mDNS service port
	Port int

	// Metadata contains the TXT record data
	// Expected keys: "node", "group", "ver"
	Metadata map[string]string

	// DiscoveredAt is when the node was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("brsync master %s (%s) at %s:%d", n.Instance, n.Hostname, n.IP, n.Port)
}

// GroupAddr returns the advertised UDP sync group address, or empty string
// if the master did not advertise one.
func (n *Node) GroupAddr() string {
	return n.GetMetadata("group")
}

// SenderID returns the advertised node ID, or 0 if absent or malformed.
func (n *Node) SenderID() byte {
	v, err := strconv.ParseUint(n.GetMetadata("node"), 10, 8)
	if err != nil {
		return 0
	}
	return byte(v)
}

// GetMetadata retrieves a TXT record value by key, or returns empty string if not found
func (n *Node) GetMetadata(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}
