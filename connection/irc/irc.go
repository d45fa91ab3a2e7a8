// Package irc implements the IRC protocol adapter using the girc library.
package irc

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/girc"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
)

// ProtocolName is the descriptor name the IRC adapter declares.
const ProtocolName = "irc"

// maxLineLen is the chunk size for outbound messages; IRC lines cap at
// roughly 512 bytes including the command envelope.
const maxLineLen = 400

// Conn is an IRC connection.Connection. The girc client's internal loop is
// the adapter's I/O goroutine; its handlers are the sole event publishers.
type Conn struct {
	log    *logging.Logger
	broker *connection.Broker

	mu        sync.Mutex
	client    *girc.Client
	connected bool
	closed    bool
}

// New creates an unconnected IRC adapter.
func New(log *logging.Logger) *Conn {
	return &Conn{
		log:    log.Sub("irc"),
		broker: connection.NewBroker(connection.DefaultBufferSize, log),
	}
}

// Register adds the IRC factory to a registry.
func Register(reg *connection.Registry) {
	reg.Register(ProtocolName, func(log *logging.Logger) connection.Connection {
		return New(log)
	})
}

// ProtocolSpec declares server, nick and the optional password, TLS,
// port and autojoin fields.
func (c *Conn) ProtocolSpec() domain.Protocol {
	return domain.Protocol{
		Name: ProtocolName,
		Auth: []domain.AuthField{
			{Name: "server", Display: "Server host", Value: domain.FieldValue{Kind: domain.FieldText}, Required: true},
			{Name: "nick", Display: "Nickname", Value: domain.FieldValue{Kind: domain.FieldText}, Required: true},
			{Name: "port", Display: "Port", Value: domain.FieldValue{Kind: domain.FieldText}},
			{Name: "password", Display: "Server or SASL password", Value: domain.FieldValue{Kind: domain.FieldPassword}},
			{Name: "tls", Display: "Use TLS (true/false)", Value: domain.FieldValue{Kind: domain.FieldText}},
			{Name: "sasl", Display: "Use SASL PLAIN (true/false)", Value: domain.FieldValue{Kind: domain.FieldText}},
			{Name: "channels", Display: "Channels to join, comma separated", Value: domain.FieldValue{Kind: domain.FieldText}},
		},
	}
}

// Connect validates auth, builds the girc client and starts its loop.
// girc's Connect blocks for the life of the session, so it runs on the
// adapter's I/O goroutine; Connect itself returns once registration
// completes, the transport fails, or ctx expires. Loop termination after a
// successful connect surfaces as a Disconnected status.
func (c *Conn) Connect(ctx context.Context, auth []domain.AuthField) error {
	if err := connection.ValidateAuth(c.ProtocolSpec(), auth); err != nil {
		return err
	}

	server := domain.FieldString(auth, "server")
	nick := domain.FieldString(auth, "nick")
	password := domain.FieldString(auth, "password")
	useTLS := domain.FieldString(auth, "tls") == "true"
	useSASL := domain.FieldString(auth, "sasl") == "true"
	channels := splitChannels(domain.FieldString(auth, "channels"))

	port := 6667
	if useTLS {
		port = 6697
	}
	if raw := domain.FieldString(auth, "port"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 || p > 65535 {
			return connection.ErrAuthField("port", "not a valid port number")
		}
		port = p
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return connection.ErrProtocol("connection already disconnected")
	}
	if c.connected {
		c.mu.Unlock()
		return connection.ErrProtocol("connection already established")
	}

	cfg := girc.Config{
		Server: server,
		Port:   port,
		Nick:   nick,
		User:   nick,
		Name:   nick,
		SSL:    useTLS,
	}
	if useTLS {
		cfg.TLSConfig = &tls.Config{ServerName: server}
	}
	if useSASL && password != "" {
		cfg.SASL = &girc.SASLPlain{User: nick, Pass: password}
	} else if password != "" {
		cfg.ServerPass = password
	}

	client := girc.New(cfg)
	c.client = client
	c.connected = true
	c.mu.Unlock()

	ready := make(chan struct{})
	c.registerHandlers(client, channels, ready)

	c.log.Info().Str("server", server).Int("port", port).Str("nick", nick).Msg("connecting")

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Connect()
	}()

	// Block until registration completes; a transport failure before that
	// point is a synchronous connect error, not a stream event.
	select {
	case <-ready:
	case err := <-errCh:
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return connection.ErrNetwork("connecting to "+server, err)
	case <-ctx.Done():
		client.Close()
		<-errCh
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return connection.ErrTimeout("connecting to " + server)
	}

	go func() {
		err := <-errCh

		c.mu.Lock()
		deliberate := c.closed
		c.connected = false
		c.mu.Unlock()
		if deliberate {
			return
		}

		artifact := "connection closed"
		if err != nil {
			artifact = err.Error()
			c.log.Warn().Err(err).Msg("irc loop terminated")
		}
		c.broker.Publish(event.Status(event.StatusEvent{
			Op:       event.OpDisconnected,
			Artifact: artifact,
		}))
		c.broker.Close()
	}()

	return nil
}

// Disconnect quits the server and closes the event stream. Idempotent.
func (c *Conn) Disconnect(context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.connected = false
	client := c.client
	c.mu.Unlock()

	if client != nil {
		if client.IsConnected() {
			client.Quit("bye")
		}
		client.Close()
	}

	c.broker.Close()
	c.log.Info().Msg("disconnected")
	return nil
}

// Send maps canonical events to IRC commands: new chat messages, channel
// join/leave and pings. Everything else is a protocol violation.
func (c *Conn) Send(_ context.Context, ev event.ConnectionEvent) error {
	c.mu.Lock()
	client := c.client
	connected := c.connected
	c.mu.Unlock()
	if !connected || client == nil || !client.IsConnected() {
		return connection.ErrNetwork("not connected", nil)
	}

	switch {
	case ev.Chat != nil && ev.Chat.Op == event.OpNew && ev.Chat.Message != nil:
		target := ev.Chat.ChannelID
		if target == "" {
			return connection.ErrProtocol("irc requires a channel or nick target")
		}
		text := ev.Chat.Message.Text()
		if text == "" {
			return connection.ErrProtocol("irc can only send text content")
		}
		for _, line := range splitMessage(text, maxLineLen) {
			client.Cmd.Message(target, line)
		}
		return nil

	case ev.Channel != nil && ev.Channel.Op == event.OpJoin:
		client.Cmd.Join(ev.Channel.ChannelID)
		return nil

	case ev.Channel != nil && ev.Channel.Op == event.OpLeave:
		client.Cmd.Part(ev.Channel.ChannelID)
		return nil

	case ev.Status != nil && ev.Status.Op == event.OpPing:
		client.Cmd.Ping(ev.Status.Artifact)
		return nil
	}

	return connection.ErrProtocol("%s/%s not supported by irc", ev.Kind(), ev.Op())
}

// Subscribe returns a fresh view of the event stream.
func (c *Conn) Subscribe() *connection.Subscription {
	return c.broker.Subscribe()
}

func (c *Conn) registerHandlers(client *girc.Client, channels []string, ready chan struct{}) {
	var readyOnce sync.Once
	client.Handlers.Add(girc.CONNECTED, func(cl *girc.Client, _ girc.Event) {
		c.log.Info().Str("nick", cl.GetNick()).Msg("connected")
		c.broker.Publish(event.User(event.UserEvent{
			Op:     event.OpIdentify,
			UserID: cl.GetNick(),
		}))
		c.broker.Publish(event.Status(event.StatusEvent{Op: event.OpConnected}))
		for _, ch := range channels {
			cl.Cmd.Join(ch)
		}
		readyOnce.Do(func() { close(ready) })
	})

	forward := func(cl *girc.Client, e girc.Event) {
		for _, out := range translate(cl.GetNick(), e) {
			c.broker.Publish(out)
		}
	}
	for _, cmd := range []string{girc.PRIVMSG, girc.JOIN, girc.PART, girc.QUIT, girc.NICK, girc.KICK} {
		client.Handlers.Add(cmd, forward)
	}
}

// translate maps one inbound IRC event to zero or more canonical events.
// selfNick distinguishes this client's own activity from other users'.
func translate(selfNick string, e girc.Event) []event.ConnectionEvent {
	switch e.Command {
	case girc.PRIVMSG:
		if e.Source == nil || len(e.Params) == 0 {
			return nil
		}
		channelID := e.Params[0]
		msgType := domain.TypeNormal
		if e.Source.Name == selfNick {
			msgType = domain.TypeCurrentUser
		}
		if !e.IsFromChannel() {
			// Direct message: scope to a peer-named channel.
			channelID = e.Source.Name
		}

		body := e.Last()
		if e.IsAction() {
			body = e.StripAction()
			msgType = domain.TypeMeta
		}

		return []event.ConnectionEvent{event.Chat(event.ChatEvent{
			Op:        event.OpNew,
			ChannelID: channelID,
			Message: &domain.Message{
				ID:        uuid.New().String(),
				SenderID:  e.Source.Name,
				Content:   []domain.Fragment{domain.TextFragment{Text: body}},
				Timestamp: time.Now().UTC(),
				Type:      msgType,
				Status:    domain.StatusDelivered,
			},
		})}

	case girc.JOIN:
		if e.Source == nil || len(e.Params) == 0 {
			return nil
		}
		channelID := e.Params[0]
		if e.Source.Name == selfNick {
			return []event.ConnectionEvent{
				event.Channel(event.ChannelEvent{
					Op:      event.OpNew,
					Channel: &domain.Channel{ID: channelID, Name: channelID, Type: domain.ChannelGroup},
				}),
				event.Channel(event.ChannelEvent{
					Op:        event.OpJoin,
					ChannelID: channelID,
				}),
			}
		}
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpNew,
			ChannelID: channelID,
			User:      &domain.Profile{ID: e.Source.Name, Username: e.Source.Name},
		})}

	case girc.PART:
		if e.Source == nil || len(e.Params) == 0 {
			return nil
		}
		channelID := e.Params[0]
		if e.Source.Name == selfNick {
			return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
				Op:        event.OpLeave,
				ChannelID: channelID,
			})}
		}
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpRemove,
			ChannelID: channelID,
			UserID:    e.Source.Name,
		})}

	case girc.QUIT:
		if e.Source == nil {
			return nil
		}
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:     event.OpRemove,
			UserID: e.Source.Name,
		})}

	case girc.NICK:
		if e.Source == nil || len(e.Params) == 0 {
			return nil
		}
		newNick := e.Params[0]
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:     event.OpUpdate,
			UserID: e.Source.Name,
			User:   &domain.Profile{ID: newNick, Username: newNick},
		})}

	case girc.KICK:
		if len(e.Params) < 2 {
			return nil
		}
		channelID, target := e.Params[0], e.Params[1]
		if target == selfNick {
			return []event.ConnectionEvent{event.Channel(event.ChannelEvent{
				Op:        event.OpKick,
				ChannelID: channelID,
				Reason:    e.Last(),
			})}
		}
		return []event.ConnectionEvent{event.User(event.UserEvent{
			Op:        event.OpRemove,
			ChannelID: channelID,
			UserID:    target,
		})}
	}

	return nil
}

func splitChannels(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, ch := range strings.Split(raw, ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}

// splitMessage breaks text into IRC-safe chunks: one per line, long lines
// split at the byte boundary.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for len(line) > maxLen {
			chunks = append(chunks, line[:maxLen])
			line = line[maxLen:]
		}
		if line != "" {
			chunks = append(chunks, line)
		}
	}
	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
