package panel

import (
	"time"

	"github.com/muurk/domocan/internal/devicetype"
	"github.com/muurk/domocan/internal/nodes"
)

// tableState collects the rows the view model renders
type tableState struct {
	rows    []nodes.Row
	handler func(id string)
	version int
}

func (t *tableState) Clear() {
	t.rows = nil
	t.version++
}

func (t *tableState) AddRow(row nodes.Row) {
	t.rows = append(t.rows, row)
	t.version++
}

// OnRowActivated keeps only the latest handler
func (t *tableState) OnRowActivated(handler func(id string)) {
	t.handler = handler
}

// activate delivers a row activation to the registered handler
func (t *tableState) activate(id string) bool {
	if t.handler == nil {
		return false
	}
	t.handler(id)
	return true
}

// formState holds the add/edit form values
type formState struct {
	name    string
	busID   string
	devType int
	options []devicetype.Option
	version int
}

func (f *formState) Clear() {
	f.name, f.busID, f.devType = "", "", 0
	f.version++
}

func (f *formState) Fill(name, busID string, devType int) {
	f.name, f.busID, f.devType = name, busID, devType
	f.version++
}

func (f *formState) SetTypeOptions(options []devicetype.Option) {
	f.options = options
	f.version++
}

type toast struct {
	message string
	isError bool
	seq     int
}

type pendingConfirm struct {
	message string
	then    func(bool)
}

// surface implements every collaborator of the view model. It lives
// behind a pointer so bubbletea's value-copied models share one instance.
type surface struct {
	table tableState
	form  formState

	updateEnabled bool
	deleteEnabled bool
	loading       bool

	confirm *pendingConfirm

	toast         *toast
	toastSeq      int
	toastDuration time.Duration
}

func newSurface() *surface {
	return &surface{}
}

func (s *surface) collaborators() nodes.Collaborators {
	return nodes.Collaborators{
		Table:     &s.table,
		Confirmer: s,
		Notifier:  s,
		Form:      &s.form,
		Actions:   s,
		Busy:      s,
	}
}

// Confirm shows the confirmation modal; then runs when the operator answers
func (s *surface) Confirm(message string, then func(bool)) {
	s.confirm = &pendingConfirm{message: message, then: then}
}

// answer resolves the pending confirmation, if any
func (s *surface) answer(confirmed bool) {
	c := s.confirm
	if c == nil {
		return
	}
	s.confirm = nil
	c.then(confirmed)
}

func (s *surface) Notify(message string, duration time.Duration, isError bool) {
	s.toastSeq++
	s.toast = &toast{message: message, isError: isError, seq: s.toastSeq}
	s.toastDuration = duration
}

// expire hides the toast if it is still the one numbered seq
func (s *surface) expire(seq int) {
	if s.toast != nil && s.toast.seq == seq {
		s.toast = nil
	}
}

func (s *surface) SetUpdateEnabled(enabled bool) { s.updateEnabled = enabled }
func (s *surface) SetDeleteEnabled(enabled bool) { s.deleteEnabled = enabled }
func (s *surface) SetLoading(loading bool)       { s.loading = loading }
