package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNoController is returned by Resolve when neither a flag nor the
// registry selects a controller
var ErrNoController = errors.New("no controller selected (use --url, --controller or 'controllers use')")

// Flags carries the command-line selection. Zero values mean "not set".
type Flags struct {
	URL           string
	HardwareIndex int
	Controller    string
	Timeout       time.Duration
}

// Target is a fully resolved controller endpoint
type Target struct {
	// Name is the registry entry used, empty for --url
	Name           string
	URL            string
	HardwareIndex  int
	Timeout        time.Duration
	NotifyDuration time.Duration
	ScanTimeout    time.Duration
}

// Resolve merges flags over the registry. An explicit URL wins over any
// saved controller; otherwise the named, default or only controller is used.
func (r *Registry) Resolve(f Flags) (Target, error) {
	prefs := r.prefs()
	t := Target{
		Timeout:        prefs.Timeout(),
		NotifyDuration: prefs.NotifyDuration(),
		ScanTimeout:    prefs.DiscoverDuration(),
	}
	if f.Timeout > 0 {
		t.Timeout = f.Timeout
	}
	if f.HardwareIndex < 0 {
		return t, fmt.Errorf("invalid hardware index %d", f.HardwareIndex)
	}

	if f.URL != "" {
		u, err := NormalizeURL(f.URL)
		if err != nil {
			return t, err
		}
		t.URL = u
		t.HardwareIndex = DefaultHardwareIndex
		if f.HardwareIndex > 0 {
			t.HardwareIndex = f.HardwareIndex
		}
		return t, nil
	}

	name := f.Controller
	if name == "" {
		name = prefs.DefaultController
	}
	if name == "" && len(r.Controllers) == 1 {
		name = r.ControllerNames()[0]
	}
	if name == "" {
		return t, ErrNoController
	}

	c := r.GetController(name)
	if c == nil {
		return t, fmt.Errorf("unknown controller %q", name)
	}
	t.Name = name
	t.URL = c.URL
	t.HardwareIndex = c.HardwareIndex
	if t.HardwareIndex <= 0 {
		t.HardwareIndex = DefaultHardwareIndex
	}
	if f.HardwareIndex > 0 {
		t.HardwareIndex = f.HardwareIndex
	}
	return t, nil
}

// NormalizeURL adds a missing http scheme and drops trailing slashes
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("controller URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid controller URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid controller URL %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid controller URL %q: missing host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
