package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/domocan/internal/config"
	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/nodeapi"
	"github.com/muurk/domocan/internal/nodes"
	"github.com/muurk/domocan/internal/ui"
)

// actionResult is the structured answer of mutating commands
type actionResult struct {
	Status   string `json:"status" yaml:"status"`
	Action   string `json:"action" yaml:"action"`
	Hardware int    `json:"hid" yaml:"hid"`
	ID       string `json:"idx,omitempty" yaml:"idx,omitempty"`
	Count    int    `json:"count,omitempty" yaml:"count,omitempty"`
}

func targetParams(t config.Target) []ui.Param {
	params := []ui.Param{{Key: "Controller", Value: t.URL}}
	if t.Name != "" {
		params[0].Value = fmt.Sprintf("%s (%s)", t.URL, t.Name)
	}
	return append(params, ui.Param{Key: "Hardware", Value: strconv.Itoa(t.HardwareIndex)})
}

func nodeRows(list []nodeapi.Node) [][]string {
	rows := make([][]string, 0, len(list))
	for _, n := range list {
		r := nodes.RowFromNode(n)
		rows = append(rows, []string{r.ID, r.Name, r.TypeLabel, r.BusID})
	}
	return rows
}

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the nodes of a DomoCAN gateway",
		Example: `  # List nodes of the default controller
  domocan-cfg list

  # List nodes of gateway 3 as YAML
  domocan-cfg list --url 192.168.1.10:8080 --hid 3 --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := o.target()
			if err != nil {
				return err
			}
			list, err := o.client(t).List(t.HardwareIndex)
			if err != nil {
				return o.fail(cmd, "Failed to load nodes", err)
			}
			o.save(t)
			return o.printer.PrintTable(
				[]string{"Idx", "Name", "Type", "DomoCAN ID"},
				nodeRows(list), list,
				fmt.Sprintf("No nodes registered on hardware %d.", t.HardwareIndex),
			)
		},
	}
}

// nodeFlags are the editable fields shared by add and update
type nodeFlags struct {
	name    string
	devType string
	busID   string
}

func (f *nodeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Node name")
	cmd.Flags().StringVarP(&f.devType, "type", "t", "", "Device type code or label (see 'domocan-cfg types')")
	cmd.Flags().StringVarP(&f.busID, "dcanid", "d", "", "DomoCAN bus ID")
}

func newAddCmd(o *rootOptions) *cobra.Command {
	f := &nodeFlags{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new node",
		Example: `  domocan-cfg add --name "Front door" --type 1 --dcanid 12
  domocan-cfg add -n Gate -t "Relay Module 5 Channels" -d 9 --hid 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(f.name)
			busID := strings.TrimSpace(f.busID)
			if name == "" {
				return fmt.Errorf("%s (--name)", nodes.MsgNameRequired)
			}
			if busID == "" {
				return fmt.Errorf("%s (--dcanid)", nodes.MsgBusIDRequired)
			}
			devType := devicetype.CoinSender05
			if f.devType != "" {
				var err error
				if devType, err = devicetype.Parse(f.devType); err != nil {
					return err
				}
			}

			t, err := o.target()
			if err != nil {
				return err
			}
			if err := o.client(t).Add(t.HardwareIndex, name, devType, busID); err != nil {
				return o.fail(cmd, "Failed to add node", err)
			}
			o.save(t)

			result := ui.NewSuccessResult("Node added", append(targetParams(t),
				ui.Param{Key: "Name", Value: name},
				ui.Param{Key: "Type", Value: typeText(devType)},
				ui.Param{Key: "DomoCAN ID", Value: busID},
			)...)
			return o.printer.PrintResult(result, actionResult{Status: "OK", Action: "add", Hardware: t.HardwareIndex})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(o *rootOptions) *cobra.Command {
	f := &nodeFlags{}
	cmd := &cobra.Command{
		Use:   "update <idx>",
		Short: "Rewrite an existing node",
		Long: `Rewrite the node with the given index.

Fields that are not given keep their current value.`,
		Example: `  domocan-cfg update 4 --name "Back door"
  domocan-cfg update 4 --type "Coin Counter" --dcanid 21`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			t, err := o.target()
			if err != nil {
				return err
			}
			client := o.client(t)

			list, err := client.List(t.HardwareIndex)
			if err != nil {
				return o.fail(cmd, "Failed to load nodes", err)
			}
			var current *nodeapi.Node
			for i := range list {
				if list[i].ID == id {
					current = &list[i]
					break
				}
			}
			if current == nil {
				return o.fail(cmd, "Failed to update node", nodeapi.NewNotFoundError(nodeapi.CmdUpdateNode, id))
			}

			updated := *current
			if cmd.Flags().Changed("name") {
				updated.Name = strings.TrimSpace(f.name)
			}
			if cmd.Flags().Changed("dcanid") {
				updated.BusID = strings.TrimSpace(f.busID)
			}
			if cmd.Flags().Changed("type") {
				if updated.DeviceType, err = devicetype.Parse(f.devType); err != nil {
					return err
				}
			}
			if updated.Name == "" {
				return fmt.Errorf("%s (--name)", nodes.MsgNameRequired)
			}
			if updated.BusID == "" {
				return fmt.Errorf("%s (--dcanid)", nodes.MsgNodeIDRequired)
			}

			if err := client.Update(t.HardwareIndex, id, updated.Name, updated.DeviceType, updated.BusID); err != nil {
				return o.fail(cmd, "Failed to update node", err)
			}
			o.save(t)

			result := ui.NewSuccessResult("Node updated", append(targetParams(t),
				ui.Param{Key: "Idx", Value: id},
				ui.Param{Key: "Name", Value: updated.Name},
				ui.Param{Key: "Type", Value: typeText(updated.DeviceType)},
				ui.Param{Key: "DomoCAN ID", Value: updated.BusID},
			)...)
			return o.printer.PrintResult(result, actionResult{Status: "OK", Action: "update", Hardware: t.HardwareIndex, ID: id})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <idx>",
		Aliases: []string{"rm", "remove"},
		Short:   "Remove a node",
		Example: `  domocan-cfg delete 4
  domocan-cfg delete 4 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			t, err := o.target()
			if err != nil {
				return err
			}

			if !yes && !ui.ConfirmYesNo(cmd.InOrStdin(), cmd.ErrOrStderr(), nodes.ConfirmDelete) {
				return nil
			}

			if err := o.client(t).Delete(t.HardwareIndex, id); err != nil {
				return o.fail(cmd, "Failed to delete node", err)
			}
			o.save(t)

			result := ui.NewSuccessResult("Node deleted", append(targetParams(t), ui.Param{Key: "Idx", Value: id})...)
			return o.printer.PrintResult(result, actionResult{Status: "OK", Action: "delete", Hardware: t.HardwareIndex, ID: id})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newClearCmd(o *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every node of a gateway",
		Long: `Remove every node registered under the DomoCAN gateway.

This action can not be undone. Without --yes you are asked to type
"I AGREE" first.`,
		Example: `  domocan-cfg clear --hid 3
  domocan-cfg clear --controller hall --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := o.target()
			if err != nil {
				return err
			}
			client := o.client(t)

			list, err := client.List(t.HardwareIndex)
			if err != nil {
				return o.fail(cmd, "Failed to load nodes", err)
			}

			if !yes {
				o.printer.PrintHeader("Clear all nodes", cmd.CommandPath(), targetParams(t)...)
				c := ui.ClearAllConfirmation(t.URL, t.HardwareIndex, len(list))
				if !ui.ConfirmDangerousOperation(cmd.InOrStdin(), cmd.ErrOrStderr(), c) {
					return nil
				}
			}

			if err := client.ClearAll(t.HardwareIndex); err != nil {
				return o.fail(cmd, "Failed to clear nodes", err)
			}
			o.save(t)

			result := ui.NewSuccessResult("All nodes cleared", append(targetParams(t),
				ui.Param{Key: "Removed", Value: strconv.Itoa(len(list))},
			)...)
			return o.printer.PrintResult(result, actionResult{Status: "OK", Action: "clear", Hardware: t.HardwareIndex, Count: len(list)})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the typed confirmation")
	return cmd
}

func newImportCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add the nodes listed in a YAML or JSON file",
		Long: `Add every node listed in a file produced by 'list --format yaml'
or 'list --format json'. Node indices in the file are ignored; the
controller assigns new ones. Nodes identical to an existing one are
skipped by the controller.`,
		Example: `  domocan-cfg list --hid 1 --format yaml > nodes.yaml
  domocan-cfg import nodes.yaml --hid 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := readNodeFile(args[0])
			if err != nil {
				return err
			}

			t, err := o.target()
			if err != nil {
				return err
			}
			client := o.client(t)

			added := 0
			for _, n := range list {
				if err := client.Add(t.HardwareIndex, n.Name, n.DeviceType, n.BusID); err != nil {
					return o.fail(cmd, fmt.Sprintf("Import stopped at %q after %d node(s)", n.Name, added), err)
				}
				added++
			}
			o.save(t)

			result := ui.NewSuccessResult("Nodes imported", append(targetParams(t),
				ui.Param{Key: "File", Value: args[0]},
				ui.Param{Key: "Sent", Value: strconv.Itoa(added)},
			)...)
			return o.printer.PrintResult(result, actionResult{Status: "OK", Action: "import", Hardware: t.HardwareIndex, Count: added})
		},
	}
	return cmd
}

// readNodeFile decodes a node list. JSON is valid YAML, so one decoder
// serves both formats.
func readNodeFile(path string) ([]nodeapi.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var list []nodeapi.Node
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for i, n := range list {
		if strings.TrimSpace(n.Name) == "" || strings.TrimSpace(n.BusID) == "" {
			return nil, fmt.Errorf("%s: entry %d needs a name and a dcanid", path, i+1)
		}
	}
	return list, nil
}

func newTypesCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the known DomoCAN device types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options := devicetype.Options()
			rows := make([][]string, 0, len(options))
			for _, opt := range options {
				rows = append(rows, []string{strconv.Itoa(opt.Code), opt.Label})
			}
			return o.printer.PrintTable([]string{"Code", "Label"}, rows, options, "No device types.")
		},
	}
}

func typeText(code devicetype.Code) string {
	if label, ok := devicetype.Label(code); ok {
		return fmt.Sprintf("%d - %s", code, label)
	}
	return strconv.Itoa(code)
}
