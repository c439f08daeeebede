// Domocan-cfg manages the DomoCAN node table of a home-automation controller.
//
// It provides an interactive node panel, controller discovery and direct
// commands to list, add, update, delete and clear the nodes registered
// under a DomoCAN gateway. The tool talks to the controller's json.htm
// command endpoint over HTTP.
//
// Usage:
//
//	domocan-cfg [command] [flags]
//
// Running without arguments launches the interactive panel.
// See 'domocan-cfg --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/config"
	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/nodeapi"
	"github.com/muurk/domocan/internal/ui"
	"github.com/muurk/domocan/internal/version"
)

func main() {
	err := newRootCmd().Execute()
	logging.Sync()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// reportedError marks an error whose failure box was already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// rootOptions holds the persistent flags and per-run state shared by all
// commands
type rootOptions struct {
	url        string
	hid        int
	controller string
	format     string
	logLevel   string
	timeout    time.Duration

	configPath string
	registry   *config.Registry
	printer    *ui.Printer
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "domocan-cfg",
		Short: "DomoCAN Node Configuration Utility",
		Long: `A standalone utility for managing DomoCAN nodes on a home-automation controller.

Provides controller discovery, an interactive node panel and direct
commands for the node table of a DomoCAN gateway.

If no command is specified, the interactive panel will launch automatically.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: run the panel when no subcommand is provided
			return runPanel(cmd, o, false)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&o.url, "url", "", "Controller base URL (e.g. http://192.168.1.10:8080)")
	flags.IntVar(&o.hid, "hid", 0, "DomoCAN gateway hardware index (default from config, else 1)")
	flags.StringVarP(&o.controller, "controller", "c", "", "Saved controller name")
	flags.StringVarP(&o.format, "format", "o", "table", "Output format (table, json, yaml)")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
	flags.DurationVar(&o.timeout, "timeout", 0, "Controller request timeout (default from config, 10s)")

	rootCmd.AddCommand(
		newPanelCmd(o),
		newListCmd(o),
		newAddCmd(o),
		newUpdateCmd(o),
		newDeleteCmd(o),
		newClearCmd(o),
		newImportCmd(o),
		newTypesCmd(o),
		newScanCmd(o),
		newControllersCmd(o),
		newVersionCmd(o),
	)
	return rootCmd
}

// setup initializes logging, output and the controller registry
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if err := logging.Initialize(o.logLevel); err != nil {
		return err
	}
	o.logger = logging.Named("cli")

	format, err := ui.ParseFormat(o.format)
	if err != nil {
		return err
	}
	o.printer = ui.NewPrinter(cmd.OutOrStdout(), format)

	o.configPath, err = config.GetConfigPath()
	if err != nil {
		return err
	}
	o.registry, err = config.LoadRegistryFrom(o.configPath)
	if err != nil {
		return err
	}

	o.logger.Debug("Command starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("config", o.configPath),
	)
	return nil
}

// flags returns the controller selection given on the command line
func (o *rootOptions) flags() config.Flags {
	return config.Flags{
		URL:           o.url,
		HardwareIndex: o.hid,
		Controller:    o.controller,
		Timeout:       o.timeout,
	}
}

// target resolves the controller and gateway to talk to
func (o *rootOptions) target() (config.Target, error) {
	return o.registry.Resolve(o.flags())
}

// client builds the HTTP node service for t
func (o *rootOptions) client(t config.Target) *nodeapi.Client {
	c := nodeapi.NewClientWithURL(t.URL)
	c.SetTimeout(t.Timeout)
	c.SetLogger(logging.Named("nodeapi"))
	return c
}

// save writes the registry back, recording t as used. A failed write is
// logged and does not fail the command.
func (o *rootOptions) save(t config.Target) {
	if t.Name != "" {
		o.registry.TouchController(t.Name)
	}
	if err := o.registry.SaveTo(o.configPath); err != nil {
		o.logger.Warn("Failed to save config", zap.String("path", o.configPath), zap.Error(err))
	}
}

// fail prints a failure box with troubleshooting tips to stderr and marks
// the error as reported
func (o *rootOptions) fail(cmd *cobra.Command, title string, err error) error {
	o.logger.Warn(title, zap.Error(err))

	p := ui.NewPrinter(cmd.ErrOrStderr(), ui.FormatTable)
	p.PrintError(title, errors.New(nodeapi.ShortMessage(err)), troubleshooting(err)...)
	return &reportedError{err: err}
}

// troubleshooting extracts the bullet points of nodeapi.TroubleshootingHint
func troubleshooting(err error) []string {
	var tips []string
	for _, line := range strings.Split(nodeapi.TroubleshootingHint(err), "\n") {
		if tip, ok := strings.CutPrefix(strings.TrimSpace(line), "• "); ok {
			tips = append(tips, tip)
		}
	}
	return tips
}

func newVersionCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.printer.Structured() {
				return o.printer.Encode(version.Get())
			}
			o.printer.Println(fmt.Sprintf("domocan-cfg %s", version.Full()))
			return nil
		},
	}
}
