package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type controllers advertise
	ServiceType = "_domoticz._tcp"

	// HTTPServiceType is browsed as well when Scanner.IncludeHTTP is set.
	// Many controller installs only announce a generic web service.
	HTTPServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// HardwareIndexKey is the TXT key carrying the DomoCAN gateway index
	HardwareIndexKey = "hid"

	// DefaultScanTimeout is the default timeout for controller discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry advertises no port
	DefaultPort = 8080
)

// Scanner handles mDNS controller discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration

	// IncludeHTTP also browses generic _http._tcp services
	IncludeHTTP bool
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ServiceTypes returns the service types the scanner browses
func (s *Scanner) ServiceTypes() []string {
	if s.IncludeHTTP {
		return []string{ServiceType, HTTPServiceType}
	}
	return []string{ServiceType}
}

// Scan discovers controllers on the local network
func (s *Scanner) Scan() ([]*Controller, error) {
	return s.ScanWithContext(context.Background())
}

// ScanWithContext discovers controllers until the timeout or ctx ends.
// Results are de-duplicated by address and sorted by instance name.
func (s *Scanner) ScanWithContext(ctx context.Context) ([]*Controller, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu    sync.Mutex
		found = make(map[string]*Controller)
	)

	for _, service := range s.ServiceTypes() {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)
		go func() {
			for entry := range entries {
				c := s.parseServiceEntry(entry)
				if c == nil {
					continue
				}
				mu.Lock()
				if _, seen := found[c.BaseURL()]; !seen {
					found[c.BaseURL()] = c
				}
				mu.Unlock()
			}
		}()

		if err := resolver.Browse(ctx, service, ServiceDomain, entries); err != nil {
			return nil, fmt.Errorf("failed to browse for %s services: %w", service, err)
		}
	}

	// Wait for context to complete (timeout or cancellation)
	<-ctx.Done()

	mu.Lock()
	controllers := make([]*Controller, 0, len(found))
	for _, c := range found {
		controllers = append(controllers, c)
	}
	mu.Unlock()
	sortControllers(controllers)
	return controllers, nil
}

func sortControllers(controllers []*Controller) {
	sort.Slice(controllers, func(i, j int) bool {
		if controllers[i].Instance != controllers[j].Instance {
			return controllers[i].Instance < controllers[j].Instance
		}
		return controllers[i].BaseURL() < controllers[j].BaseURL()
	})
}

// parseServiceEntry converts a zeroconf service entry to a Controller.
// Returns nil if the entry carries no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Controller {
	if entry == nil {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}

	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	instance := entry.Instance
	if instance == "" {
		instance = strings.TrimSuffix(entry.HostName, ".")
	}

	return &Controller{
		Instance:     instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan for controllers with a custom timeout
func Scan(timeout time.Duration) ([]*Controller, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan()
}
