package nodes

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/muurk/domocan/internal/controller"
	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/nodeapi"
)

const testHID = 3

// fakeService is a nodeapi.Service backed by the simulator's store
type fakeService struct {
	store *controller.Store
	calls []string

	listErr   error
	addErr    error
	updateErr error
	deleteErr error
	clearErr  error
}

func newFakeService() *fakeService {
	return &fakeService{store: controller.NewStore(testHID)}
}

func (f *fakeService) List(parent int) ([]nodeapi.Node, error) {
	f.calls = append(f.calls, "list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.store.List(parent)
}

func (f *fakeService) Add(parent int, name string, devType int, busID string) error {
	f.calls = append(f.calls, "add")
	if f.addErr != nil {
		return f.addErr
	}
	_, _, err := f.store.Add(parent, name, devType, busID)
	return err
}

func (f *fakeService) Update(parent int, id string, name string, devType int, busID string) error {
	f.calls = append(f.calls, "update")
	if f.updateErr != nil {
		return f.updateErr
	}
	if err := f.store.Update(parent, id, name, devType, busID); err != nil {
		return nodeapi.NewNotFoundError(nodeapi.CmdUpdateNode, id)
	}
	return nil
}

func (f *fakeService) Delete(parent int, id string) error {
	f.calls = append(f.calls, "delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	_, err := f.store.Remove(parent, id)
	return err
}

func (f *fakeService) ClearAll(parent int) error {
	f.calls = append(f.calls, "clear")
	if f.clearErr != nil {
		return f.clearErr
	}
	_, err := f.store.Clear(parent)
	return err
}

func (f *fakeService) count(call string) int {
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

type notification struct {
	message  string
	duration time.Duration
	isError  bool
}

// recorder implements every collaborator and remembers what it was told
type recorder struct {
	rows        []Row
	tableClears int
	handler     func(id string)
	handlers    int

	formName    string
	formBusID   string
	formType    int
	formFilled  bool
	formClears  int
	typeOptions []devicetype.Option

	updateEnabled bool
	deleteEnabled bool

	loading      []bool
	confirms     []string
	answer       bool
	deferConfirm bool
	pending      func(bool)

	notes []notification
}

func (r *recorder) Clear() {
	r.rows = nil
	r.tableClears++
}

func (r *recorder) AddRow(row Row) { r.rows = append(r.rows, row) }

func (r *recorder) OnRowActivated(handler func(id string)) {
	r.handler = handler
	r.handlers++
}

func (r *recorder) Confirm(message string, then func(bool)) {
	r.confirms = append(r.confirms, message)
	if r.deferConfirm {
		r.pending = then
		return
	}
	then(r.answer)
}

func (r *recorder) Notify(message string, duration time.Duration, isError bool) {
	r.notes = append(r.notes, notification{message, duration, isError})
}

func (r *recorder) SetUpdateEnabled(enabled bool) { r.updateEnabled = enabled }
func (r *recorder) SetDeleteEnabled(enabled bool) { r.deleteEnabled = enabled }
func (r *recorder) SetLoading(loading bool)       { r.loading = append(r.loading, loading) }

// form is a separate type so Clear does not collide with the table's
type form struct{ r *recorder }

func (f form) Clear() {
	f.r.formName, f.r.formBusID, f.r.formType = "", "", 0
	f.r.formFilled = false
	f.r.formClears++
}

func (f form) Fill(name, busID string, devType int) {
	f.r.formName, f.r.formBusID, f.r.formType = name, busID, devType
	f.r.formFilled = true
}

func (f form) SetTypeOptions(options []devicetype.Option) { f.r.typeOptions = options }

func newTestViewModel(t *testing.T) (*ViewModel, *fakeService, *recorder) {
	t.Helper()

	svc := newFakeService()
	rec := &recorder{answer: true}
	vm := NewViewModel(HardwareContext{ParentIndex: testHID}, svc, Collaborators{
		Table:     rec,
		Confirmer: rec,
		Notifier:  rec,
		Form:      form{rec},
		Actions:   rec,
		Busy:      rec,
	}, zaptest.NewLogger(t))
	return vm, svc, rec
}

func seed(t *testing.T, svc *fakeService, nodes ...nodeapi.Node) {
	t.Helper()
	for _, n := range nodes {
		_, _, err := svc.store.Add(testHID, n.Name, n.DeviceType, n.BusID)
		require.NoError(t, err)
	}
}

func TestInitialize_ProjectsCatalogAndRefreshes(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "Door", DeviceType: 8, BusID: "A1"})

	vm.Initialize()

	assert.Equal(t, devicetype.Options(), rec.typeOptions)
	assert.Equal(t, 1, svc.count("list"))
	assert.Equal(t, StateIdle, vm.State())
	assert.Len(t, rec.rows, 1)
	assert.Equal(t, []bool{true, false}, rec.loading)
}

func TestRefresh_RendersTypeLabel(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "Front Door", DeviceType: 8, BusID: "A1"})

	vm.Refresh()

	require.Len(t, rec.rows, 1)
	assert.Equal(t, Row{ID: "1", Name: "Front Door", DeviceType: 8, TypeLabel: "Coin Counter", BusID: "A1"}, rec.rows[0])
	assert.Empty(t, rec.notes)
}

func TestRefresh_UnknownTypeRendersBlank(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "X", DeviceType: 99, BusID: "B2"})

	vm.Refresh()

	require.Len(t, rec.rows, 1)
	assert.Equal(t, "X", rec.rows[0].Name)
	assert.Equal(t, "", rec.rows[0].TypeLabel)
	assert.Equal(t, "B2", rec.rows[0].BusID)
	assert.Empty(t, rec.notes)
}

func TestRefresh_ClearsSelectionAndForm(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")
	require.True(t, vm.ActionsEnabled())

	vm.Refresh()

	_, selected := vm.Selection()
	assert.False(t, selected)
	assert.False(t, vm.ActionsEnabled())
	assert.False(t, rec.updateEnabled)
	assert.False(t, rec.deleteEnabled)
	assert.False(t, rec.formFilled)
}

func TestRefresh_FailureLeavesTableEmpty(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	require.Len(t, vm.Nodes(), 1)

	svc.listErr = nodeapi.NewTransportError(nodeapi.CmdGetNodes, "request failed", errors.New("refused"))
	vm.Refresh()

	assert.Empty(t, vm.Nodes())
	assert.Empty(t, rec.rows)
	assert.Equal(t, StateIdle, vm.State())
	require.Len(t, rec.notes, 1)
	assert.Equal(t, notification{MsgLoadFailed, DefaultNotifyDuration, true}, rec.notes[0])
	// No automatic retry
	assert.Equal(t, 2, svc.count("list"))
}

func TestRefresh_ReplacesRowHandler(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})

	vm.Refresh()
	stale := rec.handler
	vm.Refresh()
	assert.Equal(t, 2, rec.handlers)

	// A handler from an earlier refresh no longer reaches the view model
	stale("1")
	_, selected := vm.Selection()
	assert.False(t, selected)

	rec.handler("1")
	id, selected := vm.Selection()
	assert.True(t, selected)
	assert.Equal(t, "1", id)
}

func TestOnRowClicked_ToggleDeselects(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()

	vm.OnRowClicked("1")
	assert.True(t, rec.updateEnabled)
	assert.True(t, rec.deleteEnabled)

	vm.OnRowClicked("1")
	_, selected := vm.Selection()
	assert.False(t, selected)
	assert.False(t, vm.ActionsEnabled())
	assert.False(t, rec.updateEnabled)
	assert.False(t, rec.deleteEnabled)
	assert.False(t, rec.formFilled)
}

func TestOnRowClicked_SwitchesSelection(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc,
		nodeapi.Node{Name: "A", DeviceType: 1, BusID: "10"},
		nodeapi.Node{Name: "B", DeviceType: 10, BusID: "20"},
	)
	vm.Refresh()

	vm.OnRowClicked("1")
	vm.OnRowClicked("2")

	id, selected := vm.Selection()
	assert.True(t, selected)
	assert.Equal(t, "2", id)
	assert.True(t, rec.updateEnabled)
	assert.True(t, rec.deleteEnabled)
	assert.Equal(t, "B", rec.formName)
	assert.Equal(t, "20", rec.formBusID)
	assert.Equal(t, 10, rec.formType)
}

func TestOnRowClicked_UnknownIDIgnored(t *testing.T) {
	vm, _, rec := newTestViewModel(t)
	vm.Refresh()

	vm.OnRowClicked("42")

	_, selected := vm.Selection()
	assert.False(t, selected)
	assert.False(t, rec.updateEnabled)
}

func TestSubmitAdd_Validation(t *testing.T) {
	tests := []struct {
		name    string
		node    string
		busID   string
		message string
	}{
		{"empty name", "", "A1", MsgNameRequired},
		{"empty bus id", "Door", "", MsgBusIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm, svc, rec := newTestViewModel(t)
			seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
			vm.Refresh()
			before := vm.Nodes()
			calls := len(svc.calls)

			vm.SubmitAdd(tt.node, 8, tt.busID)

			assert.Len(t, svc.calls, calls, "no remote call expected")
			assert.Equal(t, before, vm.Nodes())
			require.Len(t, rec.notes, 1)
			assert.Equal(t, tt.message, rec.notes[0].message)
			assert.True(t, rec.notes[0].isError)
		})
	}
}

func TestSubmitAdd_RefreshesExactlyOnce(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	vm.Refresh()
	require.Equal(t, 1, svc.count("list"))

	vm.SubmitAdd("Front Door", 8, "A1")

	assert.Equal(t, 1, svc.count("add"))
	assert.Equal(t, 2, svc.count("list"))
	require.Len(t, rec.rows, 1)
	assert.Equal(t, "Coin Counter", rec.rows[0].TypeLabel)
	assert.Empty(t, rec.notes)
}

func TestSubmitAdd_FailureKeepsState(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")

	svc.addErr = nodeapi.NewValidationError(nodeapi.CmdAddNode, "controller rejected the node")
	vm.SubmitAdd("B", 2, "2")

	assert.Equal(t, 1, svc.count("list"))
	assert.Len(t, vm.Nodes(), 1)
	id, selected := vm.Selection()
	assert.True(t, selected)
	assert.Equal(t, "1", id)
	require.Len(t, rec.notes, 1)
	assert.Equal(t, MsgAddFailed, rec.notes[0].message)
}

func TestSubmitUpdate_GuardedWithoutSelection(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()

	vm.SubmitUpdate("1", "B", 2, "2")

	assert.Zero(t, svc.count("update"))
	assert.Empty(t, rec.notes)
}

func TestSubmitUpdate_ValidatesFreshBusID(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")

	vm.SubmitUpdate("1", "A", 1, "")

	assert.Zero(t, svc.count("update"))
	require.Len(t, rec.notes, 1)
	assert.Equal(t, MsgNodeIDRequired, rec.notes[0].message)

	vm.SubmitUpdate("1", "", 1, "1")
	require.Len(t, rec.notes, 2)
	assert.Equal(t, MsgNameRequired, rec.notes[1].message)
}

func TestSubmitUpdate_Success(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")

	vm.SubmitUpdate("1", "Relay", 11, "9")

	assert.Equal(t, 1, svc.count("update"))
	assert.Equal(t, 2, svc.count("list"))
	require.Len(t, rec.rows, 1)
	assert.Equal(t, Row{ID: "1", Name: "Relay", DeviceType: 11, TypeLabel: "Relay Module 5 Channels", BusID: "9"}, rec.rows[0])
	assert.False(t, vm.ActionsEnabled())
}

func TestSubmitUpdate_NotFound(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")

	// Someone else removed the node
	_, err := svc.store.Remove(testHID, "1")
	require.NoError(t, err)

	vm.SubmitUpdate("1", "B", 1, "1")

	require.Len(t, rec.notes, 1)
	assert.Equal(t, MsgUpdateFailed, rec.notes[0].message)
	assert.Len(t, vm.Nodes(), 1, "node set is only replaced by a successful refresh")
	assert.Equal(t, 1, svc.count("list"))
}

func TestDeleteSelected_GuardedWithoutSelection(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()

	vm.DeleteSelected("1")

	assert.Zero(t, svc.count("delete"))
	assert.Empty(t, rec.confirms)
}

func TestDeleteSelected_Confirmed(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc,
		nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"},
		nodeapi.Node{Name: "B", DeviceType: 2, BusID: "2"},
	)
	vm.Refresh()
	vm.OnRowClicked("1")

	vm.DeleteSelected("1")

	assert.Equal(t, []string{ConfirmDelete}, rec.confirms)
	assert.Equal(t, 1, svc.count("delete"))
	assert.Equal(t, 2, svc.count("list"))
	require.Len(t, vm.Nodes(), 1)
	assert.Equal(t, "B", vm.Nodes()[0].Name)
}

func TestDeleteSelected_Declined(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")
	rec.answer = false

	vm.DeleteSelected("1")

	assert.Zero(t, svc.count("delete"))
	assert.Equal(t, 1, svc.count("list"))
	assert.True(t, vm.ActionsEnabled())
}

func TestDeleteSelected_Failure(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")
	svc.deleteErr = nodeapi.NewNotFoundError(nodeapi.CmdRemoveNode, "1")

	vm.DeleteSelected("1")

	require.Len(t, rec.notes, 1)
	assert.Equal(t, MsgDeleteFailed, rec.notes[0].message)
	assert.Equal(t, 1, svc.count("list"))
}

func TestDeleteSelected_DeferredConfirmation(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	vm.OnRowClicked("1")
	rec.deferConfirm = true

	vm.DeleteSelected("1")
	assert.Zero(t, svc.count("delete"))
	require.NotNil(t, rec.pending)

	rec.pending(true)
	assert.Equal(t, 1, svc.count("delete"))
	assert.Empty(t, vm.Nodes())
}

func TestClearAll(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc,
		nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"},
		nodeapi.Node{Name: "B", DeviceType: 2, BusID: "2"},
	)
	vm.Refresh()

	vm.ClearAll()

	assert.Equal(t, []string{ConfirmClearAll}, rec.confirms)
	assert.Equal(t, 1, svc.count("clear"))
	assert.Equal(t, 2, svc.count("list"))
	assert.Empty(t, vm.Nodes())
	assert.Empty(t, rec.rows)
}

func TestClearAll_FailureIsNotified(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm.Refresh()
	svc.clearErr = errors.New("boom")

	vm.ClearAll()

	require.Len(t, rec.notes, 1)
	assert.Equal(t, MsgClearFailed, rec.notes[0].message)
	assert.Len(t, vm.Nodes(), 1)
}

func TestClearAll_Declined(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	vm.Refresh()
	rec.answer = false

	vm.ClearAll()

	assert.Zero(t, svc.count("clear"))
}

func TestNoDriftAfterMutations(t *testing.T) {
	vm, svc, _ := newTestViewModel(t)
	vm.Initialize()

	check := func() {
		t.Helper()
		remote, err := svc.store.List(testHID)
		require.NoError(t, err)
		assert.Equal(t, remote, vm.Nodes())
		_, selected := vm.Selection()
		assert.False(t, selected)
	}

	vm.SubmitAdd("A", 1, "1")
	check()
	vm.SubmitAdd("B", 8, "2")
	check()
	vm.SubmitAdd("C", 99, "3")
	check()

	vm.OnRowClicked("2")
	vm.SubmitUpdate("2", "B2", 9, "22")
	check()

	vm.OnRowClicked("1")
	vm.DeleteSelected("1")
	check()

	assert.Len(t, vm.Nodes(), 2)
}

func TestBusyGuardDropsNestedOperations(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})

	// A table that tries to start another refresh while rows are rendered
	reentrant := &reentrantTable{recorder: rec, vm: vm}
	vm.ui.Table = reentrant

	vm.Refresh()

	assert.Equal(t, 1, svc.count("list"))
	assert.Equal(t, 1, reentrant.attempts)
	assert.Equal(t, StateIdle, vm.State())

	// The guard is released afterwards
	vm.Refresh()
	assert.Equal(t, 2, svc.count("list"))
}

type reentrantTable struct {
	*recorder
	vm       *ViewModel
	attempts int
}

func (r *reentrantTable) AddRow(row Row) {
	r.recorder.AddRow(row)
	if r.attempts == 0 {
		r.attempts++
		r.vm.Refresh()
		r.vm.SubmitAdd("nested", 1, "9")
	}
}

func TestBusyIndicatorSeesLoadingAndCannotReenter(t *testing.T) {
	vm, svc, rec := newTestViewModel(t)
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})

	busy := &reentrantBusy{recorder: rec, vm: vm}
	vm.ui.Busy = busy

	vm.Refresh()

	assert.Equal(t, 1, svc.count("list"))
	assert.Equal(t, []State{StateLoading, StateIdle}, busy.seen)
	assert.Equal(t, []bool{true, false}, rec.loading)
	assert.Equal(t, StateIdle, vm.State())
}

// reentrantBusy starts a refresh from inside the loading indicator
type reentrantBusy struct {
	*recorder
	vm   *ViewModel
	seen []State
}

func (r *reentrantBusy) SetLoading(loading bool) {
	r.recorder.SetLoading(loading)
	r.seen = append(r.seen, r.vm.State())
	r.vm.Refresh()
}

func TestNilCollaboratorsAreTolerated(t *testing.T) {
	svc := newFakeService()
	seed(t, svc, nodeapi.Node{Name: "A", DeviceType: 1, BusID: "1"})
	vm := NewViewModel(HardwareContext{ParentIndex: testHID}, svc, Collaborators{}, nil)

	vm.Initialize()
	vm.OnRowClicked("1")
	vm.DeleteSelected("1")

	// The default confirmer declines
	assert.Zero(t, svc.count("delete"))
	assert.Len(t, vm.Nodes(), 1)
}

func TestSelection(t *testing.T) {
	var s Selection

	_, ok := s.Current()
	assert.False(t, ok)

	s.Select("4")
	id, ok := s.Current()
	assert.True(t, ok)
	assert.Equal(t, "4", id)
	assert.True(t, s.IsSelected("4"))
	assert.False(t, s.IsSelected("5"))

	s.Select("5")
	assert.False(t, s.IsSelected("4"))

	s.Deselect()
	assert.False(t, s.IsSelected("5"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "State(7)", State(7).String())
}
