package client

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
)

// StateClient folds connection event streams into per-connection state.
// All methods are safe for concurrent use; accessors return snapshots that
// the caller owns.
type StateClient struct {
	mu      sync.RWMutex
	storage StateStorage
	log     *logging.Logger
}

// New creates a StateClient backed by in-memory storage.
func New(log *logging.Logger) *StateClient {
	return WithStorage(NewMemoryStorage(), log)
}

// WithStorage creates a StateClient over a caller-provided storage backend.
func WithStorage(storage StateStorage, log *logging.Logger) *StateClient {
	return &StateClient{
		storage: storage,
		log:     log.Sub("client"),
	}
}

// Track registers a new connection under a fresh id and returns the id.
func (c *StateClient) Track(protocolName string) string {
	connectionID := uuid.New().String()

	c.mu.Lock()
	c.storage.Put(connectionID, newConnectionState(connectionID, protocolName))
	c.mu.Unlock()

	c.log.Debug().Str("connection_id", connectionID).Str("protocol", protocolName).Msg("tracking connection")
	return connectionID
}

// Untrack forgets a connection and all of its state.
func (c *StateClient) Untrack(connectionID string) {
	c.mu.Lock()
	c.storage.Remove(connectionID)
	c.mu.Unlock()
}

// Process folds one event into the named connection's state. Events for
// untracked connections are ignored.
func (c *StateClient) Process(connectionID string, ev event.ConnectionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return
	}
	state.apply(ev)
}

// Follow consumes a subscription until its stream closes, folding every
// event into the named connection's state. It runs on its own goroutine;
// the returned channel closes when the stream ends.
func (c *StateClient) Follow(connectionID string, sub *connection.Subscription) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub.C {
			c.Process(connectionID, ev)
		}
		c.log.Debug().Str("connection_id", connectionID).Msg("event stream ended")
	}()
	return done
}

// Connection returns a snapshot of a tracked connection's state.
func (c *StateClient) Connection(connectionID string) (*ConnectionState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return nil, false
	}
	return state.clone(), true
}

// Channel returns a snapshot of one channel's state.
func (c *StateClient) Channel(connectionID, channelID string) (*ChannelState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return nil, false
	}
	cs, ok := state.Channels[channelID]
	if !ok {
		return nil, false
	}
	return cs.clone(), true
}

// User finds a profile by id, checking global users first and then every
// channel.
func (c *StateClient) User(connectionID, userID string) (domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return domain.Profile{}, false
	}
	if p, ok := state.GlobalUsers[userID]; ok {
		return p, true
	}
	for _, cs := range state.Channels {
		if p, ok := cs.Users[userID]; ok {
			return p, true
		}
	}
	return domain.Profile{}, false
}

// Messages returns a copy of one channel's message log, oldest first.
func (c *StateClient) Messages(connectionID, channelID string) []domain.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return nil
	}
	cs, ok := state.Channels[channelID]
	if !ok {
		return nil
	}
	out := make([]domain.Message, len(cs.Messages))
	copy(out, cs.Messages)
	return out
}

// Assets returns the assets visible in a channel, or the connection-global
// assets when channelID is empty.
func (c *StateClient) Assets(connectionID, channelID string) []domain.Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.storage.Get(connectionID)
	if !ok {
		return nil
	}

	var src map[string]domain.Asset
	if channelID == "" {
		src = state.GlobalAssets
	} else {
		cs, ok := state.Channels[channelID]
		if !ok {
			return nil
		}
		src = cs.Assets
	}

	out := make([]domain.Asset, 0, len(src))
	for _, a := range src {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connections lists tracked connection ids in stable order.
func (c *StateClient) Connections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := c.storage.List()
	sort.Strings(ids)
	return ids
}
