package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/lumenjack/brsync/internal/logging"
)

const (
	// ServiceType is the mDNS service type a master advertises
	ServiceType = "_brsync._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for master discovery
	DefaultScanTimeout = 5 * time.Second
)

// Announcement describes the service a master registers.
type Announcement struct {
	SenderID  byte   // this node's sync sender ID
	GroupAddr string // UDP sync group the master broadcasts to
	Port      int    // advertised service port (the sync group port)
}

// Announcer keeps the master's mDNS registration alive.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers the master's sync service. The registration stays
// active until Shutdown is called.
func Announce(a Announcement) (*Announcer, error) {
	instance := fmt.Sprintf("brsync-%d", a.SenderID)
	txt := []string{
		fmt.Sprintf("node=%d", a.SenderID),
		fmt.Sprintf("group=%s", a.GroupAddr),
		"ver=1",
	}
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, a.Port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Registered sync service",
		zap.String("instance", instance),
		zap.String("group", a.GroupAddr),
	)
	return &Announcer{server: server}, nil
}

// Shutdown withdraws the mDNS registration.
func (a *Announcer) Shutdown() {
	a.server.Shutdown()
}

// Scanner handles mDNS master discovery
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForMasters discovers all master nodes on the local network
// Returns a list of discovered nodes or an error
func (s *Scanner) ScanForMasters() ([]*Node, error) {
	return s.ScanForMastersWithContext(context.Background())
}

// ScanForMastersWithContext discovers masters with a custom context
func (s *Scanner) ScanForMastersWithContext(ctx context.Context) ([]*Node, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	nodes := make([]*Node, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			node := parseServiceEntry(entry)
			if node != nil {
				nodes = append(nodes, node)
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Browse closes the entries channel when the context completes
	<-done

	return nodes, nil
}

// WaitForMaster waits for the first master to appear
// Returns the node or an error if none is found within the timeout
func (s *Scanner) WaitForMaster() (*Node, error) {
	return s.WaitForMasterWithContext(context.Background())
}

// WaitForMasterWithContext waits for the first master with a custom context
func (s *Scanner) WaitForMasterWithContext(ctx context.Context) (*Node, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	nodeChan := make(chan *Node, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			node := parseServiceEntry(entry)
			if node != nil {
				select {
				case nodeChan <- node:
				default:
				}
				cancel() // found one, stop browsing
				return
			}
		}
	}()

	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case node := <-nodeChan:
		return node, nil
	case <-ctx.Done():
		select {
		case node := <-nodeChan:
			return node, nil
		default:
		}
		return nil, fmt.Errorf("no master found within timeout")
	}
}

// parseServiceEntry converts a zeroconf service entry to a Node
// Returns nil if the entry does not carry a usable sync group address
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Node {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	// Parse TXT records into metadata; records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	node := &Node{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}

	// A master without a group address is useless to a follower
	if node.GroupAddr() == "" {
		return nil
	}
	return node
}

// ScanForMasters is a convenience function to scan with a custom timeout
func ScanForMasters(timeout time.Duration) ([]*Node, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForMasters()
}

// FindMaster searches for the first master with the default timeout
func FindMaster() (*Node, error) {
	scanner := NewScanner()
	return scanner.WaitForMaster()
}
