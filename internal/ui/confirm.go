package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AgreePhrase is what the operator types to confirm a dangerous operation
const AgreePhrase = "I AGREE"

// Confirmation describes a dangerous operation
type Confirmation struct {
	Title      string
	Warnings   []string
	Disclaimer string
	Width      int
}

// ConfirmDangerousOperation displays a warning box on out and reads one
// line from in. It returns true only when the operator typed AgreePhrase.
func ConfirmDangerousOperation(in io.Reader, out io.Writer, c Confirmation) bool {
	width := c.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	width = clampWidth(width)

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)),
		"",
	}

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range c.Warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	if c.Disclaimer != "" {
		disclaimerStyle := lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true).
			Width(width - 12).
			PaddingLeft(3)
		lines = append(lines, disclaimerStyle.Render(c.Disclaimer), "")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(out, box)
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(fmt.Sprintf("To proceed, type %q and press Enter: ", AgreePhrase)))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	if strings.TrimSpace(input) == AgreePhrase {
		return true
	}

	_, _ = fmt.Fprintln(out, MutedStyle.Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ClearAllConfirmation is the confirmation shown before removing every
// node of a gateway
func ClearAllConfirmation(controller string, hid, count int) Confirmation {
	return Confirmation{
		Title: "CLEAR ALL NODES",
		Warnings: []string{
			fmt.Sprintf("All %d node(s) of hardware %d on %s will be deleted", count, hid, controller),
			"Devices created from these nodes stop receiving updates",
			"This action can not be undone",
		},
		Disclaimer: "Export the table first with 'domocan-cfg list --format yaml' " +
			"if you may need to restore it.",
	}
}

// ConfirmYesNo asks question on out and reads one line from in. Only "y"
// or "yes" (any case) confirm.
func ConfirmYesNo(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(question+" [y/N]: "))
	input, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		_, _ = fmt.Fprintln(out, MutedStyle.Render("  Operation cancelled."))
		return false
	}
}
