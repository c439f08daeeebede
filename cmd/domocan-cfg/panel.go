package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/config"
	"github.com/muurk/domocan/internal/controller"
	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/panel"
	"github.com/muurk/domocan/internal/ui"
)

// demoNodes seed the in-process controller started by --demo
var demoNodes = []struct {
	name    string
	devType devicetype.Code
	busID   string
}{
	{"Entrance coin slot", devicetype.CoinSender1, "12"},
	{"Laundry counter", devicetype.CoinCounter, "20"},
	{"Laundry total", devicetype.CoinCounterTotal, "21"},
	{"Dryer relays", devicetype.RelayModule5, "30"},
}

func newPanelCmd(o *rootOptions) *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Launch the interactive node panel",
		Long: `Launch an interactive terminal panel for the node table of a gateway.

The panel lists the nodes, fills the form when a row is selected and
offers add, update, delete and clear actions. Without a controller
selection it starts by searching the network for controllers.

With --demo the panel runs against a simulated controller seeded with
a few nodes, which is handy for trying the tool out.`,
		Example: `  # Panel for the default controller
  domocan-cfg
  domocan-cfg panel

  # Panel for a specific controller and gateway
  domocan-cfg panel --url 192.168.1.10:8080 --hid 3

  # Try it without a controller
  domocan-cfg panel --demo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd, o, demo)
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "Run against a simulated controller")
	return cmd
}

func runPanel(cmd *cobra.Command, o *rootOptions, demo bool) error {
	if !ui.IsTerminal() {
		return errors.New("the panel needs an interactive terminal; use 'list', 'add', 'update' or 'delete' in scripts")
	}

	t, err := o.target()
	switch {
	case demo:
		sim, err := startDemoController(t.HardwareIndex)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = sim.Shutdown(ctx)
		}()
		t = config.Target{
			URL:            sim.BaseURL(),
			HardwareIndex:  demoHardware(t.HardwareIndex),
			Timeout:        t.Timeout,
			NotifyDuration: t.NotifyDuration,
			ScanTimeout:    t.ScanTimeout,
		}
	case errors.Is(err, config.ErrNoController):
		// Let the operator pick one
		o.logger.Debug("No controller selected, starting with discovery")
	case err != nil:
		return err
	}

	opts := panel.Options{
		BaseURL:        t.URL,
		HardwareIndex:  t.HardwareIndex,
		Timeout:        t.Timeout,
		ScanTimeout:    t.ScanTimeout,
		NotifyDuration: t.NotifyDuration,
		Logger:         logging.Named("panel"),
	}
	if t.Name != "" {
		opts.Label = fmt.Sprintf("%s (%s)", t.Name, t.URL)
	}
	if demo {
		opts.Label = "Simulated controller " + t.URL
	}
	if opts.HardwareIndex == 0 {
		opts.HardwareIndex = config.DefaultHardwareIndex
	}

	if err := panel.Run(opts); err != nil {
		return err
	}

	if t.Name != "" {
		o.save(t)
	}
	return nil
}

func demoHardware(hid int) int {
	if hid <= 0 {
		return config.DefaultHardwareIndex
	}
	return hid
}

// startDemoController serves a seeded simulator on a free loopback port
func startDemoController(hid int) (*controller.Server, error) {
	hid = demoHardware(hid)
	sim := controller.New(&controller.Config{
		Host:     "127.0.0.1",
		Hardware: []int{hid},
	}, logging.Named("simulator"))

	for _, n := range demoNodes {
		if _, _, err := sim.Store().Add(hid, n.name, n.devType, n.busID); err != nil {
			return nil, err
		}
	}

	if err := sim.Listen(); err != nil {
		return nil, err
	}
	go func() {
		if err := sim.Serve(); err != nil {
			logging.Error("Simulated controller stopped", zap.Error(err))
		}
	}()
	return sim, nil
}
