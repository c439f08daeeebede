// Domocan-sim is a simulated home-automation controller for DomoCAN tooling.
//
// It serves the json.htm node commands (list, add, update, remove, clear)
// from in-memory node tables, one per DomoCAN gateway, and can announce
// itself over mDNS so that 'domocan-cfg scan' finds it.
//
// Usage:
//
//	domocan-sim serve [flags]
//
// See 'domocan-sim serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/domocan/internal/controller"
	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "domocan-sim",
	Short: "Simulated DomoCAN controller",
	Long: `A standalone controller simulator answering the json.htm DomoCAN node
commands over plain HTTP.

Node tables live in memory and are lost on exit. Use --seed to start with
a known set of nodes.

Note: For node management, use the separate 'domocan-cfg' utility.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host      string
	port      int
	hardware  []int
	advertise bool
	instance  string
	seedPath  string
	logLevel  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated controller",
	Long: `Start the simulated controller.

Every --hid registers one DomoCAN gateway. Commands for other hardware
indices are rejected the way a real controller rejects them.`,
	Example: `  # Serve gateway 1 on port 8080
  domocan-sim serve

  # Two gateways, announced over mDNS
  domocan-sim serve --hid 1 --hid 3 --advertise --instance "Test bench"

  # Start with nodes exported by domocan-cfg
  domocan-sim serve --seed nodes.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8080, "HTTP port (0 picks a free port)")
	serveCmd.Flags().IntSliceVar(&hardware, "hid", []int{controller.DefaultHardwareIndex}, "DomoCAN gateway hardware index (repeatable)")
	serveCmd.Flags().BoolVar(&advertise, "advertise", false, "Announce the controller over mDNS")
	serveCmd.Flags().StringVar(&instance, "instance", "", "mDNS instance name (default \"DomoCAN simulator\")")
	serveCmd.Flags().StringVar(&seedPath, "seed", "", "YAML or JSON file of nodes to load at startup")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

// seedNode is one entry of a --seed file. Entries without hid go to the
// first gateway.
type seedNode struct {
	Hardware   int    `yaml:"hid"`
	Name       string `yaml:"name"`
	DeviceType int    `yaml:"devtype"`
	BusID      string `yaml:"dcanid"`
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	logger := logging.Named("simulator")

	for _, hid := range hardware {
		if hid <= 0 {
			return fmt.Errorf("invalid hardware index %d", hid)
		}
	}

	srv := controller.New(&controller.Config{
		Host:      host,
		Port:      port,
		Hardware:  hardware,
		Advertise: advertise,
		Instance:  instance,
		LogLevel:  logLevel,
	}, logger)

	if seedPath != "" {
		count, err := loadSeed(srv.Store(), seedPath)
		if err != nil {
			return err
		}
		logger.Info("Seeded node tables", zap.String("file", seedPath), zap.Int("nodes", count))
	}

	return srv.Start(cmd.Context())
}

// loadSeed adds the nodes of path to store and returns how many were new
func loadSeed(store *controller.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read seed file: %w", err)
	}
	var entries []seedNode
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	fallback := controller.DefaultHardwareIndex
	if hw := store.Hardware(); len(hw) > 0 {
		fallback = hw[0]
	}

	count := 0
	for i, e := range entries {
		hid := e.Hardware
		if hid == 0 {
			hid = fallback
		}
		_, created, err := store.Add(hid, e.Name, e.DeviceType, e.BusID)
		if err != nil {
			return count, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		if created {
			count++
		}
	}
	return count, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "domocan-sim %s\n", version.Full())
	},
}
