package nodeapi

// Service is the request/response contract with a DomoCAN controller.
// Every call blocks until the controller answers. Mutations are
// fire-and-confirm: callers re-read the list instead of patching local state.
type Service interface {
	// List returns the nodes registered under parent. Zero nodes is an
	// empty slice, not an error.
	List(parent int) ([]Node, error)

	// Add registers a new node; the controller assigns its id.
	Add(parent int, name string, devType int, busID string) error

	// Update rewrites the node with the given id.
	Update(parent int, id string, name string, devType int, busID string) error

	// Delete removes one node.
	Delete(parent int, id string) error

	// ClearAll removes every node under parent. Irreversible.
	ClearAll(parent int) error
}

var _ Service = (*Client)(nil)
