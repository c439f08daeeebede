package nodes

import (
	"time"

	"github.com/muurk/domocan/internal/devicetype"
)

// Table renders node rows. OnRowActivated registers the single row handler,
// replacing any previous one.
type Table interface {
	Clear()
	AddRow(row Row)
	OnRowActivated(handler func(id string))
}

// Confirmer asks the operator a yes/no question. then may run before
// Confirm returns or at any later point.
type Confirmer interface {
	Confirm(message string, then func(confirmed bool))
}

// Notifier shows a transient message to the operator
type Notifier interface {
	Notify(message string, duration time.Duration, isError bool)
}

// Form is the add/edit form
type Form interface {
	Clear()
	Fill(name, busID string, devType int)
	SetTypeOptions(options []devicetype.Option)
}

// Actions toggles the controls that need a selected node
type Actions interface {
	SetUpdateEnabled(enabled bool)
	SetDeleteEnabled(enabled bool)
}

// Busy shows or hides the loading indicator
type Busy interface {
	SetLoading(loading bool)
}

// Collaborators bundles the surfaces the view model drives. Nil members
// are replaced with no-op implementations; a nil Confirmer declines every
// question.
type Collaborators struct {
	Table     Table
	Confirmer Confirmer
	Notifier  Notifier
	Form      Form
	Actions   Actions
	Busy      Busy
}

func (c Collaborators) withDefaults() Collaborators {
	if c.Table == nil {
		c.Table = nopTable{}
	}
	if c.Confirmer == nil {
		c.Confirmer = declineConfirmer{}
	}
	if c.Notifier == nil {
		c.Notifier = nopNotifier{}
	}
	if c.Form == nil {
		c.Form = nopForm{}
	}
	if c.Actions == nil {
		c.Actions = nopActions{}
	}
	if c.Busy == nil {
		c.Busy = nopBusy{}
	}
	return c
}

type nopTable struct{}

func (nopTable) Clear()                      {}
func (nopTable) AddRow(Row)                  {}
func (nopTable) OnRowActivated(func(string)) {}

type declineConfirmer struct{}

func (declineConfirmer) Confirm(_ string, then func(bool)) { then(false) }

type nopNotifier struct{}

func (nopNotifier) Notify(string, time.Duration, bool) {}

type nopForm struct{}

func (nopForm) Clear()                             {}
func (nopForm) Fill(string, string, int)           {}
func (nopForm) SetTypeOptions([]devicetype.Option) {}

type nopActions struct{}

func (nopActions) SetUpdateEnabled(bool) {}
func (nopActions) SetDeleteEnabled(bool) {}

type nopBusy struct{}

func (nopBusy) SetLoading(bool) {}
