// Package config provides user configuration management for domocan-cfg.
//
// This package manages a YAML-based configuration file that stores the
// controllers an operator works with (base URL and DomoCAN gateway index)
// and application preferences. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/domocan/config.yaml or $HOME/.config/domocan/config.yaml
//   - macOS: $HOME/.config/domocan/config.yaml
//   - Windows: %LOCALAPPDATA%\domocan\config.yaml
//
// DOMOCAN_CONFIG overrides the location.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := registry.SetController("hall", "192.168.1.10:8080", 3); err != nil {
//	    log.Fatal(err)
//	}
//	_ = registry.SetDefault("hall")
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Merge command-line flags over the saved selection
//	target, err := registry.Resolve(config.Flags{HardwareIndex: 2})
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
