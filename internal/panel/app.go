package panel

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/controller"
	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/nodeapi"
	"github.com/muurk/domocan/internal/nodes"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenPicker Screen = "picker"
	ScreenNodes  Screen = "nodes"
)

// ServiceFactory builds the node service used for a picked target
type ServiceFactory func(target Target) nodeapi.Service

// Options configures the panel application
type Options struct {
	// BaseURL skips the picker when set
	BaseURL       string
	HardwareIndex int
	Label         string

	Timeout        time.Duration
	ScanTimeout    time.Duration
	NotifyDuration time.Duration

	Logger *zap.Logger

	// NewService overrides the HTTP client, mostly for tests
	NewService ServiceFactory
}

func (o Options) hardwareIndex() int {
	if o.HardwareIndex <= 0 {
		return controller.DefaultHardwareIndex
	}
	return o.HardwareIndex
}

func (o Options) service(target Target) nodeapi.Service {
	if o.NewService != nil {
		return o.NewService(target)
	}
	client := nodeapi.NewClientWithURL(target.BaseURL)
	if o.Timeout > 0 {
		client.SetTimeout(o.Timeout)
	}
	client.SetLogger(logging.OrNop(o.Logger))
	return client
}

// AppModel is the top-level coordinator model that manages screen transitions
type AppModel struct {
	CurrentScreen Screen

	PickerModel PickerModel
	NodesModel  NodesModel

	// Target is the controller gateway currently being edited
	Target *Target

	options       Options
	pickerStarted bool

	Width  int
	Height int
}

// NewAppModel creates the application. Without a base URL the operator
// first picks a controller from the network.
func NewAppModel(opts Options) AppModel {
	m := AppModel{options: opts}
	if opts.BaseURL == "" {
		m.CurrentScreen = ScreenPicker
		m.PickerModel = NewPickerModel(opts.ScanTimeout, opts.hardwareIndex())
		m.pickerStarted = true
		return m
	}

	label := opts.Label
	if label == "" {
		label = opts.BaseURL
	}
	target := Target{BaseURL: opts.BaseURL, HardwareIndex: opts.hardwareIndex(), Label: label}
	m.CurrentScreen = ScreenNodes
	m.Target = &target
	m.NodesModel = m.newNodesModel(target, false)
	return m
}

func (m AppModel) newNodesModel(target Target, canGoBack bool) NodesModel {
	hw := nodes.HardwareContext{ParentIndex: target.HardwareIndex}
	nm := NewNodesModel(m.options.service(target), hw, target.Label, m.options.Logger)
	nm.CanGoBack = canGoBack
	if m.options.NotifyDuration > 0 {
		nm.SetNotifyDuration(m.options.NotifyDuration)
	}
	nm.Width = m.Width
	nm.Height = m.Height
	nm.resizeTable()
	return nm
}

// Init initializes the current screen
func (m AppModel) Init() tea.Cmd {
	switch m.CurrentScreen {
	case ScreenPicker:
		return m.PickerModel.Init()
	case ScreenNodes:
		return m.NodesModel.Init()
	default:
		return nil
	}
}

// Update routes messages to the active screen and handles transitions
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.Width = size.Width
		m.Height = size.Height
	}
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.CurrentScreen {
	case ScreenPicker:
		updated, cmd := m.PickerModel.Update(msg)
		m.PickerModel = updated.(PickerModel)
		if m.PickerModel.Selected != nil {
			target := *m.PickerModel.Selected
			m.PickerModel.Selected = nil
			logging.Info("Controller selected",
				zap.String("url", target.BaseURL),
				zap.Int("hid", target.HardwareIndex))
			m.Target = &target
			m.CurrentScreen = ScreenNodes
			m.NodesModel = m.newNodesModel(target, true)
			return m, m.NodesModel.Init()
		}
		return m, cmd

	case ScreenNodes:
		updated, cmd := m.NodesModel.Update(msg)
		m.NodesModel = updated.(NodesModel)
		if m.NodesModel.IsBackRequested() {
			m.CurrentScreen = ScreenPicker
			m.Target = nil
			if !m.pickerStarted {
				m.pickerStarted = true
				m.PickerModel = NewPickerModel(m.options.ScanTimeout, m.options.hardwareIndex())
				m.PickerModel.Width, m.PickerModel.Height = m.Width, m.Height
				return m, m.PickerModel.Init()
			}
			m.PickerModel.Width, m.PickerModel.Height = m.Width, m.Height
			return m, nil
		}
		return m, cmd
	}

	return m, nil
}

// View renders the active screen
func (m AppModel) View() string {
	switch m.CurrentScreen {
	case ScreenPicker:
		return m.PickerModel.View()
	case ScreenNodes:
		return m.NodesModel.View()
	default:
		return "Unknown screen"
	}
}

// Run starts the panel on the alternate screen and blocks until the
// operator quits.
func Run(opts Options) error {
	p := tea.NewProgram(NewAppModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("panel: %w", err)
	}
	return nil
}
