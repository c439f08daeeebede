package controller

import (
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/muurk/domocan/internal/nodeapi"
)

var (
	// ErrUnknownHardware is returned for a hardware index that is not a DomoCAN gateway
	ErrUnknownHardware = errors.New("unknown hardware index")

	// ErrNodeNotFound is returned when a node id does not exist under the hardware
	ErrNodeNotFound = errors.New("node not found")
)

// Store keeps the node table of every simulated gateway in memory.
// Node ids are unique across all gateways, like rows of a single table.
type Store struct {
	mu       sync.RWMutex
	nextID   int
	hardware map[int][]nodeapi.Node
}

// NewStore creates a store with the given gateways registered
func NewStore(hardware ...int) *Store {
	s := &Store{
		nextID:   1,
		hardware: make(map[int][]nodeapi.Node),
	}
	for _, hid := range hardware {
		s.hardware[hid] = nil
	}
	return s
}

// AddHardware registers a gateway. Registering twice is a no-op.
func (s *Store) AddHardware(hid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.hardware[hid]; !ok {
		s.hardware[hid] = nil
	}
}

// Hardware returns the registered gateway indices in ascending order
func (s *Store) Hardware() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]int, 0, len(s.hardware))
	for hid := range s.hardware {
		out = append(out, hid)
	}
	sort.Ints(out)
	return out
}

// List returns a copy of the nodes under hid in insertion order
func (s *Store) List(hid int) ([]nodeapi.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes, ok := s.hardware[hid]
	if !ok {
		return nil, ErrUnknownHardware
	}
	out := make([]nodeapi.Node, len(nodes))
	copy(out, nodes)
	return out, nil
}

// Add inserts a node and returns its id. An identical node (same name,
// type and bus id) under the same gateway is not duplicated: its existing
// id is returned with created == false.
func (s *Store) Add(hid int, name string, devType int, busID string) (id string, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, ok := s.hardware[hid]
	if !ok {
		return "", false, ErrUnknownHardware
	}
	for _, n := range nodes {
		if n.Name == name && n.DeviceType == devType && n.BusID == busID {
			return n.ID, false, nil
		}
	}

	id = strconv.Itoa(s.nextID)
	s.nextID++
	s.hardware[hid] = append(nodes, nodeapi.Node{
		ID:         id,
		Name:       name,
		DeviceType: devType,
		BusID:      busID,
	})
	return id, true, nil
}

// Update rewrites node id in place
func (s *Store) Update(hid int, id string, name string, devType int, busID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, ok := s.hardware[hid]
	if !ok {
		return ErrUnknownHardware
	}
	for i := range nodes {
		if nodes[i].ID == id {
			nodes[i].Name = name
			nodes[i].DeviceType = devType
			nodes[i].BusID = busID
			return nil
		}
	}
	return ErrNodeNotFound
}

// Remove deletes node id. removed is false when the id was already absent.
func (s *Store) Remove(hid int, id string) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, ok := s.hardware[hid]
	if !ok {
		return false, ErrUnknownHardware
	}
	for i := range nodes {
		if nodes[i].ID == id {
			s.hardware[hid] = append(nodes[:i:i], nodes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// Clear removes every node under hid and returns how many were removed
func (s *Store) Clear(hid int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodes, ok := s.hardware[hid]
	if !ok {
		return 0, ErrUnknownHardware
	}
	s.hardware[hid] = nil
	return len(nodes), nil
}
