// Package sockchat implements the Sock Chat protocol adapter over a
// WebSocket transport. Backend markup, packed colors and HTML-escaped text
// are run through the normalize package before events are published.
package sockchat

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
	"github.com/saikuru0/oshatori/normalize"
)

// ProtocolName is the descriptor name the Sock Chat adapter declares.
const ProtocolName = "sockchat"

// authMethod is the backend authentication scheme sent in the join packet.
const authMethod = "Misuzu"

const writeTimeout = 10 * time.Second

// Conn is a Sock Chat connection. One goroutine owns the WebSocket read
// side and is the sole publisher; writes are serialized by writeMu.
type Conn struct {
	log    *logging.Logger
	broker *connection.Broker

	mu        sync.Mutex
	connected bool
	dialing   bool
	closed    bool
	ws        *websocket.Conn
	uid       string
	pfp       string

	writeMu sync.Mutex
}

// New creates an unconnected Sock Chat adapter.
func New(log *logging.Logger) *Conn {
	return &Conn{
		log:    log.Sub("sockchat"),
		broker: connection.NewBroker(connection.DefaultBufferSize, log),
	}
}

// Register adds the Sock Chat factory to a registry.
func Register(reg *connection.Registry) {
	reg.Register(ProtocolName, func(log *logging.Logger) connection.Connection {
		return New(log)
	})
}

// ProtocolSpec declares the login shape: server URL, user token, user id and
// an optional profile-picture URL template using {uid}.
func (c *Conn) ProtocolSpec() domain.Protocol {
	return domain.Protocol{
		Name: ProtocolName,
		Auth: []domain.AuthField{
			{Name: "url", Display: "Sock Chat URL", Value: domain.FieldValue{Kind: domain.FieldText}, Required: true},
			{Name: "token", Display: "User token", Value: domain.FieldValue{Kind: domain.FieldPassword}, Required: true},
			{Name: "uid", Display: "User id", Value: domain.FieldValue{Kind: domain.FieldText}, Required: true},
			{Name: "pfp_url", Display: "Profile picture URL template ({uid} is substituted)", Value: domain.FieldValue{Kind: domain.FieldText}},
		},
	}
}

// Connect validates auth, dials the backend and starts the read loop.
func (c *Conn) Connect(ctx context.Context, auth []domain.AuthField) error {
	if err := connection.ValidateAuth(c.ProtocolSpec(), auth); err != nil {
		return err
	}

	rawURL := domain.FieldString(auth, "url")
	if _, err := url.Parse(rawURL); err != nil {
		return connection.ErrAuthField("url", "invalid URL: "+err.Error())
	}
	token := domain.FieldString(auth, "token")
	uid := domain.FieldString(auth, "uid")
	pfp := domain.FieldString(auth, "pfp_url")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return connection.ErrProtocol("connection already disconnected")
	}
	if c.connected || c.dialing {
		c.mu.Unlock()
		return connection.ErrProtocol("connection already established")
	}
	// Claim the dial before releasing the lock so a concurrent Connect
	// cannot race a second socket into c.ws.
	c.dialing = true
	c.mu.Unlock()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		c.mu.Lock()
		c.dialing = false
		c.mu.Unlock()
		return connection.ErrNetwork("dialing "+rawURL, err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return connection.ErrProtocol("connection already disconnected")
	}
	c.ws = ws
	c.uid = uid
	c.pfp = pfp
	c.dialing = false
	c.connected = true
	c.mu.Unlock()

	if err := c.write(encodeAuth(authMethod, token)); err != nil {
		c.teardown()
		return connection.ErrNetwork("sending auth", err)
	}

	c.log.Info().Str("url", rawURL).Str("uid", uid).Msg("connected")
	go c.readLoop(ws)
	return nil
}

// Disconnect closes the transport and the event stream. Idempotent.
func (c *Conn) Disconnect(context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	ws := c.ws
	c.mu.Unlock()

	if ws != nil {
		c.writeMu.Lock()
		ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		ws.Close()
	}

	c.broker.Close()
	c.log.Info().Msg("disconnected")
	return nil
}

// Send translates canonical events into wire packets. Only new chat
// messages and pings are expressible on this backend.
func (c *Conn) Send(_ context.Context, ev event.ConnectionEvent) error {
	c.mu.Lock()
	connected := c.connected
	uid := c.uid
	c.mu.Unlock()
	if !connected {
		return connection.ErrNetwork("not connected", nil)
	}

	switch {
	case ev.Chat != nil && ev.Chat.Op == event.OpNew && ev.Chat.Message != nil:
		text := ev.Chat.Message.Text()
		if text == "" {
			return connection.ErrProtocol("sock chat can only send text content")
		}
		if err := c.write(encodeMessage(uid, text)); err != nil {
			return connection.ErrNetwork("sending message", err)
		}
		return nil

	case ev.Status != nil && ev.Status.Op == event.OpPing:
		if err := c.write(encodePing(uid)); err != nil {
			return connection.ErrNetwork("sending ping", err)
		}
		return nil
	}

	return connection.ErrProtocol("%s/%s not supported by sock chat", ev.Kind(), ev.Op())
}

// Subscribe returns a fresh view of the event stream.
func (c *Conn) Subscribe() *connection.Subscription {
	return c.broker.Subscribe()
}

func (c *Conn) write(frame string) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return connection.ErrNetwork("not connected", nil)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return ws.WriteMessage(websocket.TextMessage, []byte(frame))
}

func (c *Conn) teardown() {
	c.mu.Lock()
	ws := c.ws
	c.ws = nil
	c.connected = false
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}

// readLoop is the adapter's single publisher: it decodes server packets,
// translates them and publishes until the transport fails or Disconnect
// runs. A failure that was not requested surfaces as a Disconnected status
// event before the stream closes.
func (c *Conn) readLoop(ws *websocket.Conn) {
	currentChannel := ""

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.mu.Lock()
			deliberate := c.closed
			c.mu.Unlock()

			if !deliberate {
				c.log.Warn().Err(err).Msg("read loop terminated")
				c.broker.Publish(event.Status(event.StatusEvent{
					Op:       event.OpDisconnected,
					Artifact: err.Error(),
				}))
				c.teardown()
				c.broker.Close()
			}
			return
		}

		for _, ev := range c.translate(decodePacket(string(raw)), &currentChannel) {
			c.broker.Publish(ev)
		}
	}
}

// translate maps one server packet to canonical events. currentChannel is
// owned by the read loop; forced switches update it.
func (c *Conn) translate(p packet, currentChannel *string) []event.ConnectionEvent {
	switch p.id {
	case srvPong:
		return []event.ConnectionEvent{event.Status(event.StatusEvent{
			Op:       event.OpPing,
			Artifact: p.field(0),
		})}

	case srvJoinAuth:
		return c.translateJoinAuth(p, currentChannel)

	case srvChatMessage:
		return []event.ConnectionEvent{event.Chat(event.ChatEvent{
			Op:        event.OpNew,
			ChannelID: *currentChannel,
			Message: &domain.Message{
				ID:        p.field(3),
				SenderID:  p.field(1),
				Content:   parseContent(p.field(2)),
				Timestamp: unixTime(p.field(0)),
				Type:      domain.TypeNormal,
				Status:    domain.StatusDelivered,
			},
		})}

	case srvUserDisconnect:
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:     event.OpRemove,
			UserID: p.field(0),
		})}

	case srvChannelEvent:
		return translateChannelEvent(p)

	case srvChannelSwitching:
		return c.translateSwitching(p, currentChannel)

	case srvMessageDeletion:
		return []event.ConnectionEvent{event.Chat(event.ChatEvent{
			Op:        event.OpRemove,
			ChannelID: *currentChannel,
			MessageID: p.field(0),
		})}

	case srvContextInfo:
		return c.translateContext(p, currentChannel)

	case srvContextClearing:
		return translateClearing(p, *currentChannel)

	case srvForcedDisconnect:
		return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
			Op:        event.OpKick,
			ChannelID: *currentChannel,
			Ban:       p.field(0) == "1",
		})}

	case srvUserUpdate:
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:     event.OpUpdate,
			UserID: p.field(0),
			User:   c.profile(p.field(0), p.field(1), p.field(2)),
		})}
	}

	c.log.Debug().Str("packet", p.id).Msg("unrecognized server packet")
	return nil
}

func (c *Conn) translateJoinAuth(p packet, currentChannel *string) []event.ConnectionEvent {
	switch p.field(0) {
	case "y":
		// Good auth: user id, name, color, perms, default channel.
		if ch := p.field(5); ch != "" {
			*currentChannel = ch
		}
		events := []event.ConnectionEvent{}
		if id := p.field(1); id != "" {
			events = append(events, event.User(event.UserEvent{
				Op:     event.OpIdentify,
				UserID: id,
			}))
		}
		return append(events, event.Status(event.StatusEvent{Op: event.OpConnected}))

	case "n":
		return []event.ConnectionEvent{event.Status(event.StatusEvent{
			Op:       event.OpDisconnected,
			Artifact: p.field(2) + ": " + p.field(1),
		})}

	default:
		// Another user joined: timestamp, user id, name, color, perms, seq.
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpNew,
			ChannelID: *currentChannel,
			User:      c.profile(p.field(1), p.field(2), p.field(3)),
		})}
	}
}

func translateChannelEvent(p packet) []event.ConnectionEvent {
	switch p.field(0) {
	case chanCreate:
		return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
			Op:      event.OpNew,
			Channel: &domain.Channel{ID: p.field(1), Type: domain.ChannelGroup},
		})}
	case chanUpdate:
		return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
			Op:        event.OpUpdate,
			ChannelID: p.field(1),
			Channel:   &domain.Channel{ID: p.field(2), Type: domain.ChannelGroup},
		})}
	case chanDelete:
		return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
			Op:        event.OpRemove,
			ChannelID: p.field(1),
		})}
	}
	return nil
}

func (c *Conn) translateSwitching(p packet, currentChannel *string) []event.ConnectionEvent {
	switch p.field(0) {
	case switchJoin:
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpNew,
			ChannelID: *currentChannel,
			User:      c.profile(p.field(1), p.field(2), p.field(3)),
		})}
	case switchDepart:
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpRemove,
			ChannelID: *currentChannel,
			UserID:    p.field(1),
		})}
	case switchForced:
		*currentChannel = p.field(1)
		return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
			Op:        event.OpSwitch,
			ChannelID: p.field(1),
		})}
	}
	return nil
}

func (c *Conn) translateContext(p packet, currentChannel *string) []event.ConnectionEvent {
	switch p.field(0) {
	case ctxUsers:
		// count, then [id, name, color, perms, visible] per user.
		count := p.intField(1)
		var events []event.ConnectionEvent
		for i := 0; i < count; i++ {
			base := 2 + i*5
			if p.field(base) == "" {
				break
			}
			events = append(events, event.User(event.UserEvent{
				Op:        event.OpNew,
				ChannelID: *currentChannel,
				User:      c.profile(p.field(base), p.field(base+1), p.field(base+2)),
			}))
		}
		return events

	case ctxMessage:
		return []event.ConnectionEvent{event.Chat(event.ChatEvent{
			Op:        event.OpNew,
			ChannelID: *currentChannel,
			Message: &domain.Message{
				ID:        p.field(7),
				SenderID:  p.field(2),
				Content:   parseContent(p.field(6)),
				Timestamp: unixTime(p.field(1)),
				Type:      domain.TypeNormal,
				Status:    domain.StatusDelivered,
			},
		})}

	case ctxChannels:
		// count, then [name, protected, temporary] per channel.
		count := p.intField(1)
		var events []event.ConnectionEvent
		for i := 0; i < count; i++ {
			base := 2 + i*3
			if p.field(base) == "" {
				break
			}
			events = append(events, event.Channel(event.ChannelEvent{
				Op:      event.OpNew,
				Channel: &domain.Channel{ID: p.field(base), Type: domain.ChannelGroup},
			}))
		}
		return events
	}
	return nil
}

func translateClearing(p packet, currentChannel string) []event.ConnectionEvent {
	mode := p.field(0)
	var events []event.ConnectionEvent
	if mode == clearMessages || mode == clearMessagesUser || mode == clearAll {
		events = append(events, event.Channel(event.ChannelEvent{
			Op:        event.OpWipe,
			ChannelID: currentChannel,
		}))
	}
	if mode == clearUsers || mode == clearMessagesUser || mode == clearAll {
		events = append(events, event.User(event.UserEvent{
			Op:        event.OpClearList,
			ChannelID: currentChannel,
		}))
	}
	if mode == clearChannels || mode == clearAll {
		events = append(events, event.Channel(event.ChannelEvent{
			Op: event.OpClearList,
		}))
	}
	return events
}

// profile builds a Profile from wire fields, applying the pfp template and
// decoding the packed color.
func (c *Conn) profile(id, username, color string) *domain.Profile {
	p := &domain.Profile{ID: id, Username: username}
	c.mu.Lock()
	pfp := c.pfp
	c.mu.Unlock()
	if pfp != "" && id != "" {
		p.Picture = strings.ReplaceAll(pfp, "{uid}", id)
	}
	if packed, err := strconv.ParseUint(color, 10, 32); err == nil {
		rgba := normalize.PackedToRGBA(uint32(packed))
		p.Color = &rgba
	}
	return p
}

// parseContent runs the full normalization pipeline: entity decoding first,
// then markup parsing.
func parseContent(raw string) []domain.Fragment {
	return normalize.BBCode(normalize.HTML(raw))
}

func unixTime(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}
