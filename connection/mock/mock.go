// Package mock implements a loopback connection for tests and harnesses:
// every event sent is published straight back onto the connection's own
// event stream.
package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
)

// ProtocolName is the descriptor name the mock adapter declares.
const ProtocolName = "mock"

// Conn is a loopback connection.Connection. Events passed to Send are
// echoed to every subscriber unchanged, including Update/Remove events whose
// ids were never introduced — callers testing that edge get their input
// back as-is.
type Conn struct {
	broker *connection.Broker
	log    *logging.Logger

	mu        sync.Mutex
	connected bool
	closed    bool
}

// New creates an unconnected mock connection.
func New(log *logging.Logger) *Conn {
	return &Conn{
		broker: connection.NewBroker(connection.DefaultBufferSize, log),
		log:    log.Sub("mock"),
	}
}

// Register adds the mock factory to a registry.
func Register(reg *connection.Registry) {
	reg.Register(ProtocolName, func(log *logging.Logger) connection.Connection {
		return New(log)
	})
}

// ProtocolSpec declares one optional display-name field and nothing else.
func (c *Conn) ProtocolSpec() domain.Protocol {
	return domain.Protocol{
		Name: ProtocolName,
		Auth: []domain.AuthField{
			{Name: "nick", Display: "Display name", Value: domain.FieldValue{Kind: domain.FieldText}},
		},
	}
}

// Connect validates auth and marks the loopback session established.
func (c *Conn) Connect(_ context.Context, auth []domain.AuthField) error {
	if err := connection.ValidateAuth(c.ProtocolSpec(), auth); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return connection.ErrProtocol("connection already disconnected")
	}
	if c.connected {
		return connection.ErrProtocol("connection already established")
	}
	c.connected = true

	if nick := domain.FieldString(auth, "nick"); nick != "" {
		c.broker.Publish(event.User(event.UserEvent{
			Op:     event.OpIdentify,
			UserID: nick,
		}))
	}
	c.broker.Publish(event.Status(event.StatusEvent{Op: event.OpConnected}))
	c.log.Debug().Msg("loopback connected")
	return nil
}

// Disconnect closes the event stream. Idempotent.
func (c *Conn) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.connected = false

	c.broker.Publish(event.Status(event.StatusEvent{Op: event.OpDisconnected}))
	c.broker.Close()
	c.log.Debug().Msg("loopback disconnected")
	return nil
}

// Send echoes the event back to subscribers. Chat messages without an id get
// one assigned, matching backends that allocate ids server-side.
func (c *Conn) Send(_ context.Context, ev event.ConnectionEvent) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return connection.ErrNetwork("not connected", nil)
	}

	if ev.Kind() == "" {
		return connection.ErrProtocol("empty event envelope")
	}
	if ev.Chat != nil && ev.Chat.Message != nil && ev.Chat.Message.ID == "" {
		msg := *ev.Chat.Message
		msg.ID = uuid.New().String()
		msg.Status = domain.StatusDelivered
		chat := *ev.Chat
		chat.Message = &msg
		ev = event.Chat(chat)
	}

	c.broker.Publish(ev)
	return nil
}

// Subscribe returns a fresh view of the loopback stream.
func (c *Conn) Subscribe() *connection.Subscription {
	return c.broker.Subscribe()
}
