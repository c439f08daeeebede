package config

import (
	"fmt"
	"sort"
	"time"
)

// DefaultHardwareIndex is the gateway used when neither a flag nor the
// registry names one
const DefaultHardwareIndex = 1

// Registry represents the entire user configuration file.
// This stores the known controllers and application preferences.
type Registry struct {
	Version     int                    `yaml:"version"`
	Controllers map[string]*Controller `yaml:"controllers,omitempty"` // Keyed by short name
	Preferences *Preferences           `yaml:"preferences,omitempty"`
}

// Controller is a saved controller endpoint and the DomoCAN gateway on it
type Controller struct {
	URL           string    `yaml:"url"`
	HardwareIndex int       `yaml:"hardware_index"`
	Nickname      string    `yaml:"nickname,omitempty"`
	LastUsed      time.Time `yaml:"last_used,omitempty"`
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultController string `yaml:"default_controller,omitempty"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`  // HTTP timeout per command
	NotifyMillis      int    `yaml:"notify_millis"`    // How long panel notifications stay visible
	DiscoverTimeout   int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
}

func defaultPreferences() *Preferences {
	return &Preferences{
		TimeoutSeconds:  10,
		NotifyMillis:    2500,
		DiscoverTimeout: 5,
	}
}

// Timeout returns the command timeout
func (p *Preferences) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// NotifyDuration returns how long panel notifications stay visible
func (p *Preferences) NotifyDuration() time.Duration {
	return time.Duration(p.NotifyMillis) * time.Millisecond
}

// DiscoverDuration returns the mDNS scan timeout
func (p *Preferences) DiscoverDuration() time.Duration {
	return time.Duration(p.DiscoverTimeout) * time.Second
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Controllers: make(map[string]*Controller),
		Preferences: defaultPreferences(),
	}
}

// GetController retrieves a controller by name.
// Returns nil if the controller doesn't exist in the registry.
func (r *Registry) GetController(name string) *Controller {
	return r.Controllers[name]
}

// EnsureController ensures a controller entry exists in the registry.
// Returns the entry (existing or newly created).
func (r *Registry) EnsureController(name string) *Controller {
	if r.Controllers == nil {
		r.Controllers = make(map[string]*Controller)
	}

	if c, exists := r.Controllers[name]; exists {
		return c
	}

	c := &Controller{HardwareIndex: DefaultHardwareIndex}
	r.Controllers[name] = c
	return c
}

// SetController stores the URL and gateway index under name. The URL is
// normalized first.
func (r *Registry) SetController(name, rawURL string, hid int) (*Controller, error) {
	if name == "" {
		return nil, fmt.Errorf("controller name is required")
	}
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	if hid < 0 {
		return nil, fmt.Errorf("invalid hardware index %d", hid)
	}
	if hid == 0 {
		hid = DefaultHardwareIndex
	}

	c := r.EnsureController(name)
	c.URL = u
	c.HardwareIndex = hid
	return c, nil
}

// RemoveController deletes name and clears it as the default. It reports
// whether the controller existed.
func (r *Registry) RemoveController(name string) bool {
	if _, ok := r.Controllers[name]; !ok {
		return false
	}
	delete(r.Controllers, name)
	if r.Preferences != nil && r.Preferences.DefaultController == name {
		r.Preferences.DefaultController = ""
	}
	return true
}

// SetDefault makes name the controller used when no flag selects one
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.Controllers[name]; !ok {
		return fmt.Errorf("unknown controller %q", name)
	}
	r.prefs().DefaultController = name
	return nil
}

// TouchController records that name was just used.
func (r *Registry) TouchController(name string) {
	if c, ok := r.Controllers[name]; ok {
		c.LastUsed = time.Now()
	}
}

// ControllerNames returns the registered names in sorted order
func (r *Registry) ControllerNames() []string {
	names := make([]string, 0, len(r.Controllers))
	for name := range r.Controllers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) prefs() *Preferences {
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	return r.Preferences
}
