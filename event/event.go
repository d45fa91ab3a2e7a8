// Package event defines the canonical event taxonomy every adapter publishes
// and consumes: five event sets (chat, user, channel, status, asset) wrapped
// in a ConnectionEvent envelope.
//
// An empty ChannelID on any event means connection-global scope, not an
// error. Update/Remove events must reference an id previously introduced by a
// New (or pre-existing at connect time); that ordering is the publishing
// adapter's responsibility — this package neither deduplicates nor reorders.
package event

import "github.com/saikuru0/oshatori/domain"

// Kind identifies which event set a ConnectionEvent carries.
type Kind string

const (
	KindChat    Kind = "chat"
	KindUser    Kind = "user"
	KindChannel Kind = "channel"
	KindStatus  Kind = "status"
	KindAsset   Kind = "asset"
)

// Op is the operation vocabulary shared by the event sets. Each set accepts
// a closed subset: chat uses new/update/remove; user adds clear_list and
// identify; channel adds join/leave/switch/kick/wipe/clear_list; asset adds
// clear_list; status uses ping/connected/disconnected only.
type Op string

const (
	OpNew       Op = "new"
	OpUpdate    Op = "update"
	OpRemove    Op = "remove"
	OpClearList Op = "clear_list"

	OpJoin   Op = "join"
	OpLeave  Op = "leave"
	OpSwitch Op = "switch"
	OpKick   Op = "kick"
	OpWipe   Op = "wipe"

	OpIdentify Op = "identify"

	OpPing         Op = "ping"
	OpConnected    Op = "connected"
	OpDisconnected Op = "disconnected"
)

// ChatEvent is a message-level change inside a channel (or connection-global
// when ChannelID is empty). Message is set for new/update; MessageID for
// update/remove.
type ChatEvent struct {
	Op        Op              `json:"op"`
	ChannelID string          `json:"channelId,omitempty"`
	MessageID string          `json:"messageId,omitempty"`
	Message   *domain.Message `json:"message,omitempty"`
}

// UserEvent is a change in the user list of a channel or of the whole
// connection. OpIdentify announces which user id the connection itself is.
type UserEvent struct {
	Op        Op              `json:"op"`
	ChannelID string          `json:"channelId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	User      *domain.Profile `json:"user,omitempty"`
}

// ChannelEvent is a change in the channel list or the caller's position in
// it. Channel is set for new/update; Reason and Ban only apply to kick.
type ChannelEvent struct {
	Op        Op              `json:"op"`
	ChannelID string          `json:"channelId,omitempty"`
	Channel   *domain.Channel `json:"channel,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	Ban       bool            `json:"ban,omitempty"`
}

// StatusEvent reports connection lifecycle transitions. Artifact carries a
// backend diagnostic (ping payload, disconnect reason).
type StatusEvent struct {
	Op       Op     `json:"op"`
	Artifact string `json:"artifact,omitempty"`
}

// AssetEvent is a change in the asset list (emotes, stickers) of a channel
// or of the whole connection.
type AssetEvent struct {
	Op        Op            `json:"op"`
	ChannelID string        `json:"channelId,omitempty"`
	AssetID   string        `json:"assetId,omitempty"`
	Asset     *domain.Asset `json:"asset,omitempty"`
}

// ConnectionEvent is the envelope published on a connection's event stream.
// Exactly one of the five fields is non-nil.
type ConnectionEvent struct {
	Chat    *ChatEvent    `json:"chat,omitempty"`
	User    *UserEvent    `json:"user,omitempty"`
	Channel *ChannelEvent `json:"channel,omitempty"`
	Status  *StatusEvent  `json:"status,omitempty"`
	Asset   *AssetEvent   `json:"asset,omitempty"`
}

// Chat wraps a ChatEvent in an envelope.
func Chat(e ChatEvent) ConnectionEvent { return ConnectionEvent{Chat: &e} }

// User wraps a UserEvent in an envelope.
func User(e UserEvent) ConnectionEvent { return ConnectionEvent{User: &e} }

// Channel wraps a ChannelEvent in an envelope.
func Channel(e ChannelEvent) ConnectionEvent { return ConnectionEvent{Channel: &e} }

// Status wraps a StatusEvent in an envelope.
func Status(e StatusEvent) ConnectionEvent { return ConnectionEvent{Status: &e} }

// Asset wraps an AssetEvent in an envelope.
func Asset(e AssetEvent) ConnectionEvent { return ConnectionEvent{Asset: &e} }

// Kind returns which event set the envelope carries, or "" for a zero
// envelope.
func (e ConnectionEvent) Kind() Kind {
	switch {
	case e.Chat != nil:
		return KindChat
	case e.User != nil:
		return KindUser
	case e.Channel != nil:
		return KindChannel
	case e.Status != nil:
		return KindStatus
	case e.Asset != nil:
		return KindAsset
	}
	return ""
}

// Op returns the carried event's operation, or "" for a zero envelope.
func (e ConnectionEvent) Op() Op {
	switch {
	case e.Chat != nil:
		return e.Chat.Op
	case e.User != nil:
		return e.User.Op
	case e.Channel != nil:
		return e.Channel.Op
	case e.Status != nil:
		return e.Status.Op
	case e.Asset != nil:
		return e.Asset.Op
	}
	return ""
}

// Scope returns the channel id the event applies to. Status events and
// channel-list clears are always connection-global. For channel events the
// scope is the channel being introduced or referenced.
func (e ConnectionEvent) Scope() string {
	switch {
	case e.Chat != nil:
		return e.Chat.ChannelID
	case e.User != nil:
		return e.User.ChannelID
	case e.Asset != nil:
		return e.Asset.ChannelID
	case e.Channel != nil:
		if e.Channel.Op == OpNew || e.Channel.Op == OpUpdate {
			if e.Channel.Channel != nil && e.Channel.ChannelID == "" {
				return e.Channel.Channel.ID
			}
		}
		return e.Channel.ChannelID
	}
	return ""
}
