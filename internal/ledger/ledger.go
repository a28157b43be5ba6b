package ledger

// Ledger tracks identity keys of postings that have already been evaluated.
// Within one run a key is never evaluated twice; whether that holds across
// runs depends on the backend.
type Ledger interface {
	Seen(key string) (bool, error)
	Mark(key, board, url string) error
	Close() error
}

// Memory is a run-scoped ledger backed by a set.
type Memory struct {
	keys map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Seen(key string) (bool, error) {
	_, ok := m.keys[key]
	return ok, nil
}

func (m *Memory) Mark(key, _, _ string) error {
	m.keys[key] = struct{}{}
	return nil
}

func (m *Memory) Close() error { return nil }
