package connection

import (
	"fmt"
	"sort"
	"sync"

	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/internal/logging"
)

// Factory constructs a fresh, unconnected adapter instance.
type Factory func(log *logging.Logger) Connection

// Registry maps protocol names to adapter factories so callers can construct
// connections by descriptor name.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	log       *logging.Logger
}

// NewRegistry creates an empty adapter registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		log:       log.Sub("registry"),
	}
}

// Register adds a factory under the protocol name its instances declare.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	r.log.Info().Str("protocol", name).Msg("adapter registered")
}

// New constructs an unconnected adapter for the named protocol.
func (r *Registry) New(name string) (Connection, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown protocol %q", name)
	}
	return f(r.log), nil
}

// Names returns the registered protocol names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs returns the protocol descriptor of every registered adapter, sorted
// by name.
func (r *Registry) Specs() []domain.Protocol {
	names := r.Names()
	specs := make([]domain.Protocol, 0, len(names))
	for _, name := range names {
		conn, err := r.New(name)
		if err != nil {
			continue
		}
		specs = append(specs, conn.ProtocolSpec())
	}
	return specs
}
