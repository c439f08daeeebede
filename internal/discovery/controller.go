package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Controller represents a home-automation controller found on the network
type Controller struct {
	// Instance is the advertised service instance name (e.g., "Domoticz")
	Instance string

	// Host is the mDNS hostname (e.g., "pi-domo.local.")
	Host string

	// IP is the preferred address, IPv4 when one is advertised
	IP string

	// Port is the HTTP port (typically 8080)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "path=/", "version=2024.7", "hid=3"
	Metadata map[string]string

	// DiscoveredAt is when the controller answered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the controller
func (c *Controller) String() string {
	return fmt.Sprintf("%s (%s) at %s", c.Instance, c.Host, net.JoinHostPort(c.IP, strconv.Itoa(c.Port)))
}

// BaseURL returns the HTTP base URL for the controller
func (c *Controller) BaseURL() string {
	return "http://" + net.JoinHostPort(c.IP, strconv.Itoa(c.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (c *Controller) GetMetadata(key string) string {
	if c.Metadata == nil {
		return ""
	}
	return c.Metadata[key]
}

// HardwareIndex returns the DomoCAN gateway index advertised in the TXT
// record, if any
func (c *Controller) HardwareIndex() (int, bool) {
	v := c.GetMetadata(HardwareIndexKey)
	if v == "" {
		return 0, false
	}
	hid, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return hid, true
}
