package nodes

// Selection holds at most one selected node id
type Selection struct {
	id  string
	set bool
}

// Select makes id the only selected node
func (s *Selection) Select(id string) {
	s.id = id
	s.set = true
}

// Deselect clears the selection
func (s *Selection) Deselect() {
	s.id = ""
	s.set = false
}

// Current returns the selected id, if any
func (s *Selection) Current() (string, bool) {
	return s.id, s.set
}

// IsSelected reports whether id is the selected node
func (s *Selection) IsSelected(id string) bool {
	return s.set && s.id == id
}
