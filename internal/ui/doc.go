// Package ui provides terminal output components for the domocan-cfg CLI.
//
// Unlike the interactive panel, these components follow a "run once and
// exit" pattern: they render output compellingly but don't require user
// interaction, apart from the typed confirmation of dangerous operations.
//
// # Components
//
//   - Header: command banner showing operation name and parameters
//   - Result: success/failure/warning boxes with ordered details
//   - Confirmation: typed "I AGREE" prompt before clearing a gateway
//   - Printer: listings as a lipgloss table, JSON or YAML
//
// # Usage Pattern
//
//	p := ui.NewPrinter(os.Stdout, ui.FormatTable)
//	p.PrintHeader("Add node", "domocan-cfg add", ui.Param{Key: "Hardware", Value: "3"})
//	_ = p.PrintTable([]string{"Idx", "Name"}, rows, nodes, "No nodes.")
//
// With --format json or yaml the printer skips headers and boxes and
// encodes the underlying data instead, so output can be piped.
//
// # Logging Integration
//
// This package expects logging to be controlled via the DOMOCAN_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, allowing
// the curated UI output to be displayed cleanly.
package ui
