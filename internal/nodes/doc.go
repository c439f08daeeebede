// Package nodes drives the node table of one DomoCAN gateway.
//
// ViewModel is the orchestrator: it owns the node set and the selection,
// talks to the controller through nodeapi.Service and pushes everything the
// operator sees through small collaborator interfaces (Table, Form,
// Actions, Confirmer, Notifier, Busy). The terminal panel implements those
// interfaces; tests use recording fakes.
//
// Reconciliation is always a full reload. After a successful add, update,
// delete or clear the view model lists the gateway again and replaces its
// node set wholesale, so the table never drifts from the controller.
// Failures are turned into notifications and never returned to the caller.
package nodes
