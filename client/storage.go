package client

// StateStorage holds tracked connection states. Implementations do not need
// to be goroutine safe; StateClient serializes all access.
type StateStorage interface {
	Get(connectionID string) (*ConnectionState, bool)
	Put(connectionID string, state *ConnectionState)
	Remove(connectionID string)
	List() []string
}

// MemoryStorage is the default map-backed StateStorage.
type MemoryStorage struct {
	connections map[string]*ConnectionState
}

// NewMemoryStorage creates an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{connections: make(map[string]*ConnectionState)}
}

func (m *MemoryStorage) Get(connectionID string) (*ConnectionState, bool) {
	s, ok := m.connections[connectionID]
	return s, ok
}

func (m *MemoryStorage) Put(connectionID string, state *ConnectionState) {
	m.connections[connectionID] = state
}

func (m *MemoryStorage) Remove(connectionID string) {
	delete(m.connections, connectionID)
}

func (m *MemoryStorage) List() []string {
	out := make([]string, 0, len(m.connections))
	for id := range m.connections {
		out = append(out, id)
	}
	return out
}
