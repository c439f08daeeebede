package panel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/domocan/internal/config"
	"github.com/muurk/domocan/internal/discovery"
)

// Messages for async operations
type scanStartMsg struct{}
type scanCompleteMsg struct {
	controllers []*discovery.Controller
	err         error
}

// Target is a controller gateway the operator picked
type Target struct {
	BaseURL       string
	HardwareIndex int
	Label         string
}

// pickerKeyMap defines key bindings for the controller list
type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Rescan key.Binding
	Manual key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Rescan, k.Manual, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter},
		{k.Rescan, k.Manual, k.Quit},
	}
}

// manualKeyMap defines key bindings for manual URL entry
type manualKeyMap struct {
	Next    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k manualKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k manualKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Confirm, k.Cancel}}
}

// controllerItem wraps a Controller for use with bubbles/list
type controllerItem struct {
	controller *discovery.Controller
}

func (c controllerItem) FilterValue() string {
	return c.controller.Instance + " " + c.controller.IP + " " + c.controller.Host
}

func (c controllerItem) Title() string {
	return c.controller.Instance
}

func (c controllerItem) Description() string {
	desc := c.controller.BaseURL()
	if hid, ok := c.controller.HardwareIndex(); ok {
		desc += fmt.Sprintf(" · hardware %d", hid)
	}
	return desc
}

// PickerModel lets the operator choose a controller found over mDNS or
// typed in by hand
type PickerModel struct {
	Scanning   bool
	List       list.Model
	Err        error
	ManualMode bool
	URLInput   textinput.Model
	HIDInput   textinput.Model
	Spinner    spinner.Model

	ScanTimeout   time.Duration
	DefaultHID    int
	scanStartTime time.Time

	// Selected is set once the operator confirmed a target
	Selected *Target

	Width  int
	Height int

	Help       help.Model
	Keys       pickerKeyMap
	ManualKeys manualKeyMap
}

// NewPickerModel creates the controller picker. defaultHID is used for
// controllers that do not advertise their gateway index.
func NewPickerModel(scanTimeout time.Duration, defaultHID int) PickerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	urlInput := textinput.New()
	urlInput.Placeholder = "http://192.168.1.10:8080"
	urlInput.CharLimit = 200
	urlInput.Width = 40

	hidInput := textinput.New()
	hidInput.Placeholder = strconv.Itoa(defaultHID)
	hidInput.CharLimit = 6
	hidInput.Width = 8

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, MinTerminalWidth-4, 12)
	l.Title = "Controllers"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = TitleStyle

	if scanTimeout <= 0 {
		scanTimeout = discovery.DefaultScanTimeout
	}

	return PickerModel{
		List:        l,
		URLInput:    urlInput,
		HIDInput:    hidInput,
		Spinner:     s,
		ScanTimeout: scanTimeout,
		DefaultHID:  defaultHID,
		Help:        help.New(),
		Keys: pickerKeyMap{
			Up: key.NewBinding(
				key.WithKeys("up", "k"),
				key.WithHelp("↑/k", "move up"),
			),
			Down: key.NewBinding(
				key.WithKeys("down", "j"),
				key.WithHelp("↓/j", "move down"),
			),
			Enter: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "open"),
			),
			Rescan: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "rescan"),
			),
			Manual: key.NewBinding(
				key.WithKeys("m"),
				key.WithHelp("m", "enter URL"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q"),
				key.WithHelp("q", "quit"),
			),
		},
		ManualKeys: manualKeyMap{
			Next: key.NewBinding(
				key.WithKeys("tab"),
				key.WithHelp("tab", "next field"),
			),
			Confirm: key.NewBinding(
				key.WithKeys("enter"),
				key.WithHelp("enter", "open"),
			),
			Cancel: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "cancel"),
			),
		},
	}
}

// Init starts scanning immediately
func (m PickerModel) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return scanStartMsg{} },
		scanControllers(m.ScanTimeout),
		m.Spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.ManualMode {
			return m.updateManualMode(msg)
		}
		return m.updateNormalMode(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.List.SetSize(msg.Width-4, msg.Height-10)

	case scanStartMsg:
		m.Scanning = true
		m.scanStartTime = time.Now()

	case scanCompleteMsg:
		m.Scanning = false
		m.Err = msg.err
		items := make([]list.Item, len(msg.controllers))
		for i, c := range msg.controllers {
			items[i] = controllerItem{controller: c}
		}
		cmd = m.List.SetItems(items)
		return m, cmd

	case spinner.TickMsg:
		if !m.Scanning {
			return m, nil
		}
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m PickerModel) updateNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Let the list own the keyboard while filtering
	if m.List.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.Keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.Keys.Enter):
			if item, ok := m.List.SelectedItem().(controllerItem); ok {
				m.Selected = m.targetFor(item.controller)
			}
			return m, nil

		case key.Matches(msg, m.Keys.Rescan):
			if m.Scanning {
				return m, nil
			}
			m.Err = nil
			return m, tea.Batch(
				m.List.SetItems(nil),
				func() tea.Msg { return scanStartMsg{} },
				scanControllers(m.ScanTimeout),
				m.Spinner.Tick,
			)

		case key.Matches(msg, m.Keys.Manual):
			m.ManualMode = true
			m.URLInput.SetValue("")
			m.HIDInput.SetValue("")
			m.HIDInput.Blur()
			return m, m.URLInput.Focus()
		}
	}

	var cmd tea.Cmd
	m.List, cmd = m.List.Update(msg)
	return m, cmd
}

func (m PickerModel) updateManualMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.ManualKeys.Cancel):
		m.ManualMode = false
		m.URLInput.Blur()
		m.HIDInput.Blur()
		m.Err = nil
		return m, nil

	case key.Matches(msg, m.ManualKeys.Next):
		if m.URLInput.Focused() {
			m.URLInput.Blur()
			return m, m.HIDInput.Focus()
		}
		m.HIDInput.Blur()
		return m, m.URLInput.Focus()

	case key.Matches(msg, m.ManualKeys.Confirm):
		target, err := m.manualTarget()
		if err != nil {
			m.Err = err
			return m, nil
		}
		m.Err = nil
		m.ManualMode = false
		m.Selected = target
		return m, nil
	}

	if m.HIDInput.Focused() {
		m.HIDInput, cmd = m.HIDInput.Update(msg)
	} else {
		m.URLInput, cmd = m.URLInput.Update(msg)
	}
	return m, cmd
}

// manualTarget validates the typed URL and hardware index
func (m PickerModel) manualTarget() (*Target, error) {
	base, err := config.NormalizeURL(m.URLInput.Value())
	if err != nil {
		return nil, err
	}

	hid := m.DefaultHID
	if v := strings.TrimSpace(m.HIDInput.Value()); v != "" {
		hid, err = strconv.Atoi(v)
		if err != nil || hid < 0 {
			return nil, fmt.Errorf("invalid hardware index %q", v)
		}
	}

	return &Target{BaseURL: base, HardwareIndex: hid, Label: base}, nil
}

func (m PickerModel) targetFor(c *discovery.Controller) *Target {
	hid, ok := c.HardwareIndex()
	if !ok {
		hid = m.DefaultHID
	}
	return &Target{
		BaseURL:       c.BaseURL(),
		HardwareIndex: hid,
		Label:         fmt.Sprintf("%s (%s)", c.Instance, c.BaseURL()),
	}
}

// View renders the picker screen
func (m PickerModel) View() string {
	var content, helpText string
	switch {
	case m.ManualMode:
		content = m.renderManualEntry()
		helpText = m.Help.View(m.ManualKeys)
	case m.Scanning:
		content = m.renderScanning()
		helpText = m.Help.View(m.Keys)
	default:
		content = m.renderResults()
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(content, helpText, m.Width, m.Height)
}

func (m PickerModel) renderScanning() string {
	elapsed := time.Since(m.scanStartTime).Round(time.Second)
	width := m.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		TitleStyle.Render(fmt.Sprintf("%s SEARCHING FOR CONTROLLERS", m.Spinner.View())),
		SubtitleStyle.Render("Browsing "+discovery.ServiceType+" on the local network..."),
		"",
		SubtitleStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
	)
	return lipgloss.Place(width-4, 0, lipgloss.Center, lipgloss.Top, content)
}

func (m PickerModel) renderResults() string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case m.Err != nil:
		b.WriteString(RenderToast(fmt.Sprintf("Scan failed: %v", m.Err), true))
		b.WriteString("\n\n")
		b.WriteString("  Press 'm' to enter the controller URL by hand.\n")
	case len(m.List.Items()) == 0:
		warning := lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
		b.WriteString("  ")
		b.WriteString(warning.Render("⚠ No controllers found on your network"))
		b.WriteString("\n\n")
		b.WriteString("  Troubleshooting:\n")
		b.WriteString("    • Check that the controller is running\n")
		b.WriteString("    • mDNS (UDP 5353) must not be blocked\n")
		b.WriteString("    • Press 'm' to enter the URL by hand\n")
	default:
		b.WriteString(m.List.View())
	}
	return b.String()
}

func (m PickerModel) renderManualEntry() string {
	var b strings.Builder

	b.WriteString(RenderSubtitle("Enter the controller address"))
	b.WriteString("\n\n")
	b.WriteString("  " + LabelStyle.Render("URL") + m.URLInput.View())
	b.WriteString("\n")
	b.WriteString("  " + LabelStyle.Render("Hardware") + m.HIDInput.View())
	b.WriteString("\n\n")
	if m.Err != nil {
		b.WriteString(RenderToast(m.Err.Error(), true))
		b.WriteString("\n")
	}
	return b.String()
}

// scanControllers returns a command that performs controller discovery
func scanControllers(timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		scanner := discovery.NewScanner()
		scanner.Timeout = timeout
		controllers, err := scanner.Scan()
		return scanCompleteMsg{controllers: controllers, err: err}
	}
}
