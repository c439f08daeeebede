package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/domocan/internal/discovery"
	"github.com/muurk/domocan/internal/ui"
)

// discoveredController is the structured form of a scan result
type discoveredController struct {
	Instance string            `json:"instance" yaml:"instance"`
	URL      string            `json:"url" yaml:"url"`
	Hardware int               `json:"hid,omitempty" yaml:"hid,omitempty"`
	Host     string            `json:"host" yaml:"host"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func newScanCmd(o *rootOptions) *cobra.Command {
	var (
		scanTimeout time.Duration
		includeHTTP bool
		save        bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for controllers on the network",
		Long: `Scan for home-automation controllers using mDNS/DNS-SD discovery.

Controllers announce themselves as ` + discovery.ServiceType + `. Some installs only
announce a generic web server; --http also browses ` + discovery.HTTPServiceType + `.`,
		Example: `  # Scan with the configured timeout (default 5s)
  domocan-cfg scan

  # Longer scan that also looks at plain web servers
  domocan-cfg scan --scan-timeout 15s --http

  # Remember everything that answered
  domocan-cfg scan --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := discovery.NewScanner()
			scanner.IncludeHTTP = includeHTTP
			scanner.Timeout = o.registry.Preferences.DiscoverDuration()
			if scanTimeout > 0 {
				scanner.Timeout = scanTimeout
			}
			if scanner.Timeout <= 0 {
				scanner.Timeout = discovery.DefaultScanTimeout
			}

			if !o.printer.Structured() {
				o.printer.Println(ui.MutedStyle.Render(fmt.Sprintf("Scanning for controllers (timeout: %s)...", scanner.Timeout)))
			}
			found, err := scanner.ScanWithContext(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			data := make([]discoveredController, 0, len(found))
			rows := make([][]string, 0, len(found))
			for _, c := range found {
				hid, _ := c.HardwareIndex()
				data = append(data, discoveredController{
					Instance: c.Instance,
					URL:      c.BaseURL(),
					Hardware: hid,
					Host:     c.Host,
					Metadata: c.Metadata,
				})
				hidText := "-"
				if hid > 0 {
					hidText = strconv.Itoa(hid)
				}
				rows = append(rows, []string{c.Instance, c.BaseURL(), hidText, c.Host})
			}

			if save && len(found) > 0 {
				for _, d := range data {
					if _, err := o.registry.SetController(controllerName(d.Instance), d.URL, d.Hardware); err != nil {
						return err
					}
				}
				if err := o.registry.SaveTo(o.configPath); err != nil {
					return err
				}
			}

			return o.printer.PrintTable(
				[]string{"Instance", "URL", "Hardware", "Host"}, rows, data,
				"No controllers found. Check that the controller is running and mDNS (UDP 5353) is not blocked, or pass --url.",
			)
		},
	}
	cmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 0, "How long to browse (default from config, 5s)")
	cmd.Flags().BoolVar(&includeHTTP, "http", false, "Also browse "+discovery.HTTPServiceType)
	cmd.Flags().BoolVar(&save, "save", false, "Save every controller found to the config file")
	return cmd
}

// controllerName derives a registry key from an mDNS instance name
func controllerName(instance string) string {
	name := strings.ToLower(strings.TrimSpace(instance))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	name = strings.Trim(name, "-")
	if name == "" {
		return "controller"
	}
	return name
}

// savedController is the structured form of a registry entry
type savedController struct {
	Name     string `json:"name" yaml:"name"`
	URL      string `json:"url" yaml:"url"`
	Hardware int    `json:"hid" yaml:"hid"`
	Nickname string `json:"nickname,omitempty" yaml:"nickname,omitempty"`
	Default  bool   `json:"default" yaml:"default"`
	LastUsed string `json:"last_used,omitempty" yaml:"last_used,omitempty"`
}

func newControllersCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "controllers",
		Aliases: []string{"controller", "ctl"},
		Short:   "Manage saved controllers",
		Long: `Manage the controllers saved in the configuration file.

A saved controller remembers the base URL and the DomoCAN gateway index,
so commands can select it with --controller or use the default.`,
	}
	cmd.AddCommand(
		newControllersListCmd(o),
		newControllersAddCmd(o),
		newControllersUseCmd(o),
		newControllersRemoveCmd(o),
	)
	return cmd
}

func newControllersListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved controllers",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dflt := o.registry.Preferences.DefaultController
			names := o.registry.ControllerNames()

			data := make([]savedController, 0, len(names))
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				c := o.registry.GetController(name)
				s := savedController{
					Name:     name,
					URL:      c.URL,
					Hardware: c.HardwareIndex,
					Nickname: c.Nickname,
					Default:  name == dflt,
				}
				if !c.LastUsed.IsZero() {
					s.LastUsed = c.LastUsed.Format(time.RFC3339)
				}
				data = append(data, s)

				marker := ""
				if s.Default {
					marker = "*"
				}
				rows = append(rows, []string{marker, name, c.URL, strconv.Itoa(c.HardwareIndex), c.Nickname})
			}

			return o.printer.PrintTable(
				[]string{" ", "Name", "URL", "Hardware", "Nickname"}, rows, data,
				"No saved controllers. Add one with 'domocan-cfg controllers add <name> <url>'.",
			)
		},
	}
}

func newControllersAddCmd(o *rootOptions) *cobra.Command {
	var (
		nickname   string
		makeDefault bool
	)
	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Save a controller",
		Example: `  domocan-cfg controllers add hall 192.168.1.10:8080 --hid 3 --default
  domocan-cfg controllers add shop https://shop.example --nickname "Shop floor"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			c, err := o.registry.SetController(name, args[1], o.hid)
			if err != nil {
				return err
			}
			if nickname != "" {
				c.Nickname = nickname
			}
			if makeDefault || len(o.registry.Controllers) == 1 {
				if err := o.registry.SetDefault(name); err != nil {
					return err
				}
			}
			if err := o.registry.SaveTo(o.configPath); err != nil {
				return err
			}

			result := ui.NewSuccessResult("Controller saved",
				ui.Param{Key: "Name", Value: name},
				ui.Param{Key: "URL", Value: c.URL},
				ui.Param{Key: "Hardware", Value: strconv.Itoa(c.HardwareIndex)},
				ui.Param{Key: "Default", Value: strconv.FormatBool(o.registry.Preferences.DefaultController == name)},
			)
			return o.printer.PrintResult(result, savedController{
				Name:     name,
				URL:      c.URL,
				Hardware: c.HardwareIndex,
				Nickname: c.Nickname,
				Default:  o.registry.Preferences.DefaultController == name,
			})
		},
	}
	cmd.Flags().StringVar(&nickname, "nickname", "", "Free-form description")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default controller")
	return cmd
}

func newControllersUseCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Make a saved controller the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.registry.SetDefault(args[0]); err != nil {
				return err
			}
			if err := o.registry.SaveTo(o.configPath); err != nil {
				return err
			}
			result := ui.NewSuccessResult("Default controller changed", ui.Param{Key: "Name", Value: args[0]})
			return o.printer.PrintResult(result, map[string]string{"default_controller": args[0]})
		},
	}
}

func newControllersRemoveCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Forget a saved controller",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !o.registry.RemoveController(args[0]) {
				return fmt.Errorf("unknown controller %q", args[0])
			}
			if err := o.registry.SaveTo(o.configPath); err != nil {
				return err
			}
			result := ui.NewSuccessResult("Controller removed", ui.Param{Key: "Name", Value: args[0]})
			return o.printer.PrintResult(result, map[string]string{"removed": args[0]})
		},
	}
}
