package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/nodeapi"
	"github.com/muurk/domocan/internal/nodes"
)

// Messages
type initializeMsg struct{}

type toastExpiredMsg struct {
	seq int
}

// formMode says what submitting the form does
type formMode int

const (
	formClosed formMode = iota
	formAdd
	formUpdate
)

// form fields in focus order
const (
	fieldName = iota
	fieldType
	fieldBusID
	fieldCount
)

// nodesKeyMap defines key bindings for browsing the node table
type nodesKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Clear   key.Binding
	Refresh key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k nodesKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Add, k.Edit, k.Delete, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k nodesKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Add, k.Edit, k.Delete, k.Clear},
		{k.Refresh, k.Back, k.Help, k.Quit},
	}
}

// formKeyMap defines key bindings while the form has focus
type formKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Cycle  key.Binding
	Submit key.Binding
	Cancel key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Cycle, k.Submit, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Cycle, k.Submit, k.Cancel}}
}

// confirmKeyMap defines key bindings for the confirmation modal
type confirmKeyMap struct {
	Yes key.Binding
	No  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k confirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Yes, k.No}
}

// FullHelp returns keybindings for the expanded help view
func (k confirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Yes, k.No}}
}

// NodesModel is the node table screen of one gateway
type NodesModel struct {
	// Controller being edited, for the title
	ControllerLabel string
	Hardware        nodes.HardwareContext

	VM      *nodes.ViewModel
	surface *surface

	// UI state
	Width  int
	Height int

	Table     table.Model
	NameInput textinput.Model
	BusInput  textinput.Model
	TypeCode  int

	Mode       formMode
	FocusField int

	ShowingHelp   bool
	CanGoBack     bool
	BackRequested bool

	tableVersion int
	formVersion  int
	toastSeen    int

	Help        help.Model
	Keys        nodesKeyMap
	FormKeys    formKeyMap
	ConfirmKeys confirmKeyMap
}

// NewNodesModel creates the node screen for gateway hw served by svc
func NewNodesModel(svc nodeapi.Service, hw nodes.HardwareContext, label string, logger *zap.Logger) NodesModel {
	s := newSurface()
	vm := nodes.NewViewModel(hw, svc, s.collaborators(), logger)

	columns := []table.Column{
		{Title: " ", Width: 2},
		{Title: "Idx", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Type", Width: 26},
		{Title: "DomoCAN ID", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(SubtleColor).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(TextColor).
		Background(PrimaryColor).
		Bold(false)
	t.SetStyles(styles)

	nameInput := textinput.New()
	nameInput.Placeholder = "Front door"
	nameInput.CharLimit = 100
	nameInput.Width = 30

	busInput := textinput.New()
	busInput.Placeholder = "12"
	busInput.CharLimit = 16
	busInput.Width = 12

	keys := nodesKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "u"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear all"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "controllers"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}

	formKeys := formKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Cycle: key.NewBinding(
			key.WithKeys("left", "right"),
			key.WithHelp("←/→", "device type"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}

	confirmKeys := confirmKeyMap{
		Yes: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n/esc", "no"),
		),
	}

	return NodesModel{
		ControllerLabel: label,
		Hardware:        hw,
		VM:              vm,
		surface:         s,
		Table:           t,
		NameInput:       nameInput,
		BusInput:        busInput,
		Mode:            formClosed,
		Help:            help.New(),
		Keys:            keys,
		FormKeys:        formKeys,
		ConfirmKeys:     confirmKeys,
	}
}

// SetNotifyDuration overrides how long notifications stay visible
func (m *NodesModel) SetNotifyDuration(d time.Duration) {
	if d > 0 {
		m.VM.NotifyDuration = d
	}
}

// Init schedules the first load
func (m NodesModel) Init() tea.Cmd {
	return func() tea.Msg { return initializeMsg{} }
}

// Update handles messages and updates the model
func (m NodesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resizeTable()
		return m, nil

	case initializeMsg:
		m.VM.Initialize()
		return m, m.sync()

	case toastExpiredMsg:
		m.surface.expire(msg.seq)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.surface.confirm != nil:
			return m.updateConfirm(msg)
		case m.ShowingHelp:
			// Any key closes the help modal
			m.ShowingHelp = false
			return m, nil
		case m.Mode != formClosed:
			return m.updateForm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}

	return m, nil
}

// updateBrowse handles keys while the table has focus
func (m NodesModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Back):
		if m.CanGoBack {
			m.BackRequested = true
		}
		return m, nil

	case key.Matches(msg, m.Keys.Help):
		m.ShowingHelp = true
		return m, nil

	case key.Matches(msg, m.Keys.Select):
		if row, ok := m.cursorRow(); ok {
			m.surface.table.activate(row.ID)
		}
		return m, m.sync()

	case key.Matches(msg, m.Keys.Add):
		m.openForm(formAdd)
		return m, textinput.Blink

	case key.Matches(msg, m.Keys.Edit):
		if !m.surface.updateEnabled {
			return m, nil
		}
		m.openForm(formUpdate)
		return m, textinput.Blink

	case key.Matches(msg, m.Keys.Delete):
		if id, ok := m.VM.Selection(); ok {
			m.VM.DeleteSelected(id)
		}
		return m, m.sync()

	case key.Matches(msg, m.Keys.Clear):
		m.VM.ClearAll()
		return m, m.sync()

	case key.Matches(msg, m.Keys.Refresh):
		m.VM.Refresh()
		return m, m.sync()
	}

	var cmd tea.Cmd
	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

// updateForm handles keys while the add/edit form has focus
func (m NodesModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.FormKeys.Cancel):
		m.closeForm()
		return m, nil

	case key.Matches(msg, m.FormKeys.Submit):
		return m.submitForm()

	case key.Matches(msg, m.FormKeys.Next):
		m.focus((m.FocusField + 1) % fieldCount)
		return m, nil

	case key.Matches(msg, m.FormKeys.Prev):
		m.focus((m.FocusField + fieldCount - 1) % fieldCount)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.FocusField {
	case fieldName:
		m.NameInput, cmd = m.NameInput.Update(msg)
	case fieldBusID:
		m.BusInput, cmd = m.BusInput.Update(msg)
	case fieldType:
		switch msg.String() {
		case "left", "h":
			m.cycleType(-1)
		case "right", "l", " ":
			m.cycleType(1)
		}
	}
	return m, cmd
}

// updateConfirm answers the pending confirmation
func (m NodesModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.ConfirmKeys.Yes):
		m.surface.answer(true)
		return m, m.sync()
	case key.Matches(msg, m.ConfirmKeys.No):
		m.surface.answer(false)
		return m, m.sync()
	}
	return m, nil
}

func (m *NodesModel) openForm(mode formMode) {
	m.Mode = mode
	m.Table.Blur()
	m.focus(fieldName)
}

func (m *NodesModel) closeForm() {
	m.Mode = formClosed
	m.NameInput.Blur()
	m.BusInput.Blur()
	m.Table.Focus()
}

func (m *NodesModel) focus(field int) {
	m.FocusField = field
	m.NameInput.Blur()
	m.BusInput.Blur()
	switch field {
	case fieldName:
		m.NameInput.Focus()
	case fieldBusID:
		m.BusInput.Focus()
	}
}

// submitForm sends the form to the view model. The form stays open when
// nothing was reloaded, so the operator can fix the input.
func (m NodesModel) submitForm() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.NameInput.Value())
	busID := strings.TrimSpace(m.BusInput.Value())
	devType := m.currentType()
	before := m.surface.table.version

	switch m.Mode {
	case formAdd:
		m.VM.SubmitAdd(name, devType, busID)
	case formUpdate:
		id, ok := m.VM.Selection()
		if !ok {
			m.closeForm()
			return m, nil
		}
		m.VM.SubmitUpdate(id, name, devType, busID)
	}

	if m.surface.table.version != before {
		m.closeForm()
	}
	return m, m.sync()
}

// currentType returns the type code shown in the selector, defaulting to
// the first catalog entry for a cleared form
func (m NodesModel) currentType() int {
	if m.TypeCode == devicetype.Unknown && len(m.surface.form.options) > 0 {
		return m.surface.form.options[0].Code
	}
	return m.TypeCode
}

func (m *NodesModel) cycleType(step int) {
	options := m.surface.form.options
	if len(options) == 0 {
		return
	}
	idx := -1
	for i, o := range options {
		if o.Code == m.currentType() {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Codes outside the catalog restart from the first entry
		m.TypeCode = options[0].Code
		return
	}
	idx = (idx + step + len(options)) % len(options)
	m.TypeCode = options[idx].Code
}

func (m NodesModel) cursorRow() (nodes.Row, bool) {
	rows := m.surface.table.rows
	c := m.Table.Cursor()
	if c < 0 || c >= len(rows) {
		return nodes.Row{}, false
	}
	return rows[c], true
}

// sync copies collaborator state into the bubbles components and schedules
// toast expiry
func (m *NodesModel) sync() tea.Cmd {
	rows := make([]table.Row, 0, len(m.surface.table.rows))
	for _, r := range m.surface.table.rows {
		marker := ""
		if id, ok := m.VM.Selection(); ok && id == r.ID {
			marker = "●"
		}
		rows = append(rows, table.Row{marker, r.ID, r.Name, r.TypeLabel, r.BusID})
	}
	m.Table.SetRows(rows)
	if m.surface.table.version != m.tableVersion {
		m.tableVersion = m.surface.table.version
		if m.Table.Cursor() >= len(rows) {
			m.Table.SetCursor(max(0, len(rows)-1))
		}
	}

	if m.surface.form.version != m.formVersion {
		m.formVersion = m.surface.form.version
		m.NameInput.SetValue(m.surface.form.name)
		m.BusInput.SetValue(m.surface.form.busID)
		m.TypeCode = m.surface.form.devType
	}

	if m.surface.toast != nil && m.surface.toast.seq != m.toastSeen {
		seq := m.surface.toast.seq
		m.toastSeen = seq
		return tea.Tick(m.surface.toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq: seq}
		})
	}
	return nil
}

func (m *NodesModel) resizeTable() {
	h := m.Height - 18 // header, form, toast and footer
	if h < 3 {
		h = 3
	}
	m.Table.SetHeight(h)
}

// IsBackRequested reports whether the operator asked to pick another controller
func (m NodesModel) IsBackRequested() bool {
	return m.BackRequested
}

// View renders the node screen
func (m NodesModel) View() string {
	if m.surface.confirm != nil {
		return RenderModal(m.renderConfirmContent(), m.Width, m.Height)
	}
	if m.ShowingHelp {
		return RenderModal(m.renderHelpContent(), m.Width, m.Height)
	}

	var helpText string
	if m.Mode != formClosed {
		helpText = m.Help.View(m.FormKeys)
	} else {
		helpText = m.Help.View(m.Keys)
	}
	return RenderApplicationContainer(m.renderContent(), helpText, m.Width, m.Height)
}

func (m NodesModel) renderContent() string {
	var b strings.Builder

	title := fmt.Sprintf("DomoCAN nodes · hardware %d", m.Hardware.ParentIndex)
	b.WriteString(RenderTitle(title))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle(m.ControllerLabel))
	b.WriteString("\n\n")

	switch {
	case m.surface.loading:
		b.WriteString(SpinnerStyle.Render("Loading nodes..."))
	case len(m.surface.table.rows) == 0:
		b.WriteString(RenderSubtitle("  No nodes registered. Press 'a' to add one."))
	default:
		b.WriteString(m.Table.View())
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.renderActions())

	if t := m.surface.toast; t != nil {
		b.WriteString("\n")
		b.WriteString(RenderToast(t.message, t.isError))
	}
	return b.String()
}

func (m NodesModel) renderForm() string {
	label := func(text string, field int) string {
		if m.Mode != formClosed && m.FocusField == field {
			return FocusedLabelStyle.Render(text)
		}
		return LabelStyle.Render(text)
	}

	typeText := devicetype.LabelOrBlank(m.currentType())
	if typeText == "" {
		typeText = fmt.Sprintf("code %d", m.currentType())
	}
	if m.Mode != formClosed && m.FocusField == fieldType {
		typeText = "◀ " + typeText + " ▶"
	}

	lines := []string{
		label("Name", fieldName) + m.NameInput.View(),
		label("Type", fieldType) + typeText,
		label("DomoCAN ID", fieldBusID) + m.BusInput.View(),
	}

	style := FormBoxStyle
	heading := "Node"
	switch m.Mode {
	case formAdd:
		style = ActiveFormBoxStyle
		heading = "Add node"
	case formUpdate:
		style = ActiveFormBoxStyle
		heading = "Update node"
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{SubtitleStyle.Render(heading)}, lines...)...))
}

func (m NodesModel) renderActions() string {
	action := func(text string, enabled bool) string {
		if enabled {
			return EnabledStyle.Render(text)
		}
		return DisabledStyle.Render(text)
	}
	return strings.Join([]string{
		action("[a] Add", true),
		action("[e] Update", m.surface.updateEnabled),
		action("[d] Delete", m.surface.deleteEnabled),
		action("[C] Clear all", true),
	}, "   ")
}

func (m NodesModel) renderConfirmContent() string {
	width := SafeModalWidth(56, m.Width)
	body := lipgloss.NewStyle().Width(width - 8).Render(m.surface.confirm.message)
	return ModalStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(WarningColor).Bold(true).Render("⚠ Please confirm"),
		"",
		body,
		"",
		m.Help.View(m.ConfirmKeys),
	))
}

func (m NodesModel) renderHelpContent() string {
	h := m.Help
	h.ShowAll = true
	return ModalStyle.BorderForeground(PrimaryColor).Render(lipgloss.JoinVertical(lipgloss.Left,
		RenderTitle("Keyboard shortcuts"),
		h.View(m.Keys),
		"",
		h.View(m.FormKeys),
		"",
		RenderSubtitle("Press any key to close"),
	))
}
