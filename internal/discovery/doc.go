// Package discovery locates home-automation controllers on the local
// network over multicast DNS.
//
// Controllers are browsed as "_domoticz._tcp" services, and optionally as
// generic "_http._tcp" services. The domocan-sim simulator advertises the
// former, including a "hid" TXT key naming its DomoCAN gateway index.
//
// # Usage Example
//
//	controllers, err := discovery.Scan(3 * time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, c := range controllers {
//	    fmt.Printf("%s -> %s\n", c.Instance, c.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Controllers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
