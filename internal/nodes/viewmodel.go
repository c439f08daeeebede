package nodes

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/logging"
	"github.com/muurk/domocan/internal/nodeapi"
)

// Operator-facing messages
const (
	MsgNameRequired   = "Please enter a Name!"
	MsgBusIDRequired  = "Please enter a DomoCAN ID!"
	MsgNodeIDRequired = "Please enter a node ID!"
	MsgAddFailed      = "Problem Adding device!"
	MsgUpdateFailed   = "Problem Updating Node!"
	MsgDeleteFailed   = "Problem Deleting device!"
	MsgClearFailed    = "Problem Clearing devices!"
	MsgLoadFailed     = "Problem Loading devices!"

	ConfirmDelete   = "Are you sure to remove this device?"
	ConfirmClearAll = "Are you sure to delete ALL devices?\n\nThis action can not be undone!"
)

// DefaultNotifyDuration is how long error notifications stay visible
const DefaultNotifyDuration = 2500 * time.Millisecond

// State of the view model
type State int

const (
	// StateIdle means no call is in flight and the table shows the last refresh
	StateIdle State = iota
	// StateLoading means a refresh is in flight; the table is cleared
	StateLoading
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// HardwareContext identifies the gateway whose nodes are managed
type HardwareContext struct {
	ParentIndex int
}

// Row is the rendered form of a node
type Row struct {
	ID         string
	Name       string
	DeviceType int
	TypeLabel  string // blank for codes outside the catalog
	BusID      string
}

// RowFromNode projects n into a Row, resolving its type label
func RowFromNode(n nodeapi.Node) Row {
	return Row{
		ID:         n.ID,
		Name:       n.Name,
		DeviceType: n.DeviceType,
		TypeLabel:  devicetype.LabelOrBlank(n.DeviceType),
		BusID:      n.BusID,
	}
}

// ViewModel keeps a rendered node table in step with one gateway's node
// list on the controller. Every successful change is followed by exactly
// one full reload; local state is never patched.
//
// Calls are synchronous and a ViewModel belongs to one goroutine. An
// operation started while another is in flight, typically from a
// collaborator callback, is dropped. The mutex orders the busy flag and
// the state only; the node set and selection are not locked.
type ViewModel struct {
	hw     HardwareContext
	svc    nodeapi.Service
	ui     Collaborators
	logger *zap.Logger

	// NotifyDuration is passed to every notification
	NotifyDuration time.Duration

	mu   sync.Mutex
	busy bool

	state          State
	nodes          []nodeapi.Node
	selection      Selection
	actionsEnabled bool

	// generation invalidates row handlers installed by earlier refreshes
	generation uint64
}

// NewViewModel creates a view model for the gateway in hw. A nil logger
// disables logging.
func NewViewModel(hw HardwareContext, svc nodeapi.Service, ui Collaborators, logger *zap.Logger) *ViewModel {
	return &ViewModel{
		hw:             hw,
		svc:            svc,
		ui:             ui.withDefaults(),
		logger:         logging.OrNop(logger).With(zap.Int("hid", hw.ParentIndex)),
		NotifyDuration: DefaultNotifyDuration,
		state:          StateIdle,
	}
}

// Hardware returns the gateway this view model manages
func (vm *ViewModel) Hardware() HardwareContext {
	return vm.hw
}

// State returns the current state
func (vm *ViewModel) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Nodes returns a copy of the node set from the last refresh
func (vm *ViewModel) Nodes() []nodeapi.Node {
	out := make([]nodeapi.Node, len(vm.nodes))
	copy(out, vm.nodes)
	return out
}

// Node returns the node with id from the last refresh
func (vm *ViewModel) Node(id string) (nodeapi.Node, bool) {
	for _, n := range vm.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return nodeapi.Node{}, false
}

// Selection returns the selected node id, if any
func (vm *ViewModel) Selection() (string, bool) {
	return vm.selection.Current()
}

// ActionsEnabled reports whether update and delete are available
func (vm *ViewModel) ActionsEnabled() bool {
	return vm.actionsEnabled
}

// Initialize loads the device-type choices into the form and performs the
// first refresh
func (vm *ViewModel) Initialize() {
	vm.ui.Form.SetTypeOptions(devicetype.Options())
	vm.Refresh()
}

// Refresh reloads the node table from the controller
func (vm *ViewModel) Refresh() {
	if !vm.begin("refresh") {
		return
	}
	defer vm.end()

	vm.refresh()
}

// refresh must run inside begin/end
func (vm *ViewModel) refresh() {
	vm.setState(StateLoading)
	vm.setActions(false)
	vm.ui.Form.Clear()
	vm.selection.Deselect()
	vm.nodes = nil
	vm.ui.Table.Clear()
	vm.generation++

	start := time.Now()
	nodes, err := vm.svc.List(vm.hw.ParentIndex)
	if err != nil {
		vm.logger.Warn("Failed to load nodes", zap.Error(err))
		vm.notify(MsgLoadFailed)
		vm.setState(StateIdle)
		return
	}

	vm.nodes = nodes
	for _, n := range nodes {
		vm.ui.Table.AddRow(RowFromNode(n))
	}

	gen := vm.generation
	vm.ui.Table.OnRowActivated(func(id string) {
		if gen != vm.generation {
			return
		}
		vm.OnRowClicked(id)
	})

	vm.logger.Debug("Nodes loaded",
		zap.Int("count", len(nodes)),
		zap.Duration("took", time.Since(start)),
	)
	vm.setState(StateIdle)
}

// OnRowClicked toggles the selection of node id. Selecting a node enables
// update and delete and fills the form with its fields.
func (vm *ViewModel) OnRowClicked(id string) {
	if vm.isBusy() {
		return
	}

	if vm.selection.IsSelected(id) {
		vm.selection.Deselect()
		vm.ui.Form.Clear()
		vm.setActions(false)
		return
	}

	n, ok := vm.Node(id)
	if !ok {
		vm.logger.Debug("Ignoring click on unknown row", zap.String("idx", id))
		return
	}

	vm.selection.Deselect()
	vm.selection.Select(id)
	vm.setActions(true)
	vm.ui.Form.Fill(n.Name, n.BusID, n.DeviceType)
}

// SubmitAdd registers a new node and reloads the table
func (vm *ViewModel) SubmitAdd(name string, devType int, busID string) {
	if !vm.begin("add") {
		return
	}
	defer vm.end()

	if name == "" {
		vm.notify(MsgNameRequired)
		return
	}
	if busID == "" {
		vm.notify(MsgBusIDRequired)
		return
	}

	if err := vm.svc.Add(vm.hw.ParentIndex, name, devType, busID); err != nil {
		vm.logger.Warn("Failed to add node", zap.String("name", name), zap.Error(err))
		vm.notify(MsgAddFailed)
		return
	}
	vm.logger.Info("Node added", zap.String("name", name), zap.Int("devtype", devType), zap.String("dcanid", busID))
	vm.refresh()
}

// SubmitUpdate rewrites node id and reloads the table. It does nothing
// unless a node is selected.
func (vm *ViewModel) SubmitUpdate(id string, name string, devType int, busID string) {
	if !vm.actionsEnabled {
		return
	}
	if !vm.begin("update") {
		return
	}
	defer vm.end()

	if name == "" {
		vm.notify(MsgNameRequired)
		return
	}
	if busID == "" {
		vm.notify(MsgNodeIDRequired)
		return
	}

	if err := vm.svc.Update(vm.hw.ParentIndex, id, name, devType, busID); err != nil {
		vm.logger.Warn("Failed to update node", zap.String("idx", id), zap.Error(err))
		vm.notify(MsgUpdateFailed)
		return
	}
	vm.logger.Info("Node updated", zap.String("idx", id))
	vm.refresh()
}

// DeleteSelected removes node id after the operator confirms. It does
// nothing unless a node is selected.
func (vm *ViewModel) DeleteSelected(id string) {
	if !vm.actionsEnabled || vm.isBusy() {
		return
	}

	vm.ui.Confirmer.Confirm(ConfirmDelete, func(confirmed bool) {
		if !confirmed {
			return
		}
		if !vm.begin("delete") {
			return
		}
		defer vm.end()

		if err := vm.svc.Delete(vm.hw.ParentIndex, id); err != nil {
			vm.logger.Warn("Failed to delete node", zap.String("idx", id), zap.Error(err))
			vm.notify(MsgDeleteFailed)
			return
		}
		vm.logger.Info("Node deleted", zap.String("idx", id))
		vm.refresh()
	})
}

// ClearAll removes every node of the gateway after the operator confirms
func (vm *ViewModel) ClearAll() {
	if vm.isBusy() {
		return
	}

	vm.ui.Confirmer.Confirm(ConfirmClearAll, func(confirmed bool) {
		if !confirmed {
			return
		}
		if !vm.begin("clear") {
			return
		}
		defer vm.end()

		if err := vm.svc.ClearAll(vm.hw.ParentIndex); err != nil {
			vm.logger.Warn("Failed to clear nodes", zap.Error(err))
			vm.notify(MsgClearFailed)
			return
		}
		vm.logger.Info("All nodes cleared")
		vm.refresh()
	})
}

func (vm *ViewModel) begin(op string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.busy || vm.state == StateLoading {
		vm.logger.Debug("Operation dropped, another one is in flight", zap.String("op", op))
		return false
	}
	vm.busy = true
	return true
}

func (vm *ViewModel) end() {
	vm.mu.Lock()
	vm.busy = false
	vm.mu.Unlock()
}

func (vm *ViewModel) isBusy() bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.busy || vm.state == StateLoading
}

// setState releases the mutex before calling Busy, which may re-enter
func (vm *ViewModel) setState(s State) {
	vm.mu.Lock()
	vm.state = s
	vm.mu.Unlock()
	vm.ui.Busy.SetLoading(s == StateLoading)
}

func (vm *ViewModel) setActions(enabled bool) {
	vm.actionsEnabled = enabled
	vm.ui.Actions.SetUpdateEnabled(enabled)
	vm.ui.Actions.SetDeleteEnabled(enabled)
}

func (vm *ViewModel) notify(message string) {
	vm.ui.Notifier.Notify(message, vm.NotifyDuration, true)
}
