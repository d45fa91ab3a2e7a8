// Package client tracks per-connection chat state by folding the canonical
// event stream into queryable snapshots.
package client

import (
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
)

// ConnectionStatus is the tracked lifecycle phase of a connection.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

// ChannelState is everything known about one channel: its descriptor, the
// users present, the message log and channel-scoped assets.
type ChannelState struct {
	Channel  domain.Channel
	Users    map[string]domain.Profile
	Messages []domain.Message
	Assets   map[string]domain.Asset
}

func newChannelState(ch domain.Channel) *ChannelState {
	return &ChannelState{
		Channel: ch,
		Users:   make(map[string]domain.Profile),
		Assets:  make(map[string]domain.Asset),
	}
}

func (cs *ChannelState) clone() *ChannelState {
	out := &ChannelState{
		Channel:  cs.Channel,
		Users:    make(map[string]domain.Profile, len(cs.Users)),
		Messages: make([]domain.Message, len(cs.Messages)),
		Assets:   make(map[string]domain.Asset, len(cs.Assets)),
	}
	for k, v := range cs.Users {
		out.Users[k] = v
	}
	copy(out.Messages, cs.Messages)
	for k, v := range cs.Assets {
		out.Assets[k] = v
	}
	return out
}

// ConnectionState is the full tracked state of one connection. Users and
// assets that arrive without a channel scope live in the global maps.
type ConnectionState struct {
	ConnectionID   string
	ProtocolName   string
	Status         ConnectionStatus
	Channels       map[string]*ChannelState
	CurrentChannel string
	GlobalUsers    map[string]domain.Profile
	GlobalAssets   map[string]domain.Asset
	CurrentUserID  string
}

func newConnectionState(connectionID, protocolName string) *ConnectionState {
	return &ConnectionState{
		ConnectionID: connectionID,
		ProtocolName: protocolName,
		Status:       StatusDisconnected,
		Channels:     make(map[string]*ChannelState),
		GlobalUsers:  make(map[string]domain.Profile),
		GlobalAssets: make(map[string]domain.Asset),
	}
}

func (s *ConnectionState) clone() *ConnectionState {
	out := &ConnectionState{
		ConnectionID:   s.ConnectionID,
		ProtocolName:   s.ProtocolName,
		Status:         s.Status,
		Channels:       make(map[string]*ChannelState, len(s.Channels)),
		CurrentChannel: s.CurrentChannel,
		GlobalUsers:    make(map[string]domain.Profile, len(s.GlobalUsers)),
		GlobalAssets:   make(map[string]domain.Asset, len(s.GlobalAssets)),
		CurrentUserID:  s.CurrentUserID,
	}
	for k, v := range s.Channels {
		out.Channels[k] = v.clone()
	}
	for k, v := range s.GlobalUsers {
		out.GlobalUsers[k] = v
	}
	for k, v := range s.GlobalAssets {
		out.GlobalAssets[k] = v
	}
	return out
}

// ensureChannel returns the channel's state, creating a group-typed
// placeholder when the channel has not been announced yet.
func (s *ConnectionState) ensureChannel(channelID string) *ChannelState {
	if cs, ok := s.Channels[channelID]; ok {
		return cs
	}
	cs := newChannelState(domain.Channel{ID: channelID, Type: domain.ChannelGroup})
	s.Channels[channelID] = cs
	return cs
}

// apply folds one event into the state. Events referencing unknown channels,
// users or messages are dropped rather than failing; adapters may emit
// updates for entities that predate the subscription.
func (s *ConnectionState) apply(ev event.ConnectionEvent) {
	switch {
	case ev.Status != nil:
		s.applyStatus(*ev.Status)
	case ev.Channel != nil:
		s.applyChannel(*ev.Channel)
	case ev.User != nil:
		s.applyUser(*ev.User)
	case ev.Chat != nil:
		s.applyChat(*ev.Chat)
	case ev.Asset != nil:
		s.applyAsset(*ev.Asset)
	}
}

func (s *ConnectionState) applyStatus(ev event.StatusEvent) {
	switch ev.Op {
	case event.OpConnected:
		s.Status = StatusConnected
	case event.OpDisconnected:
		s.Status = StatusDisconnected
	}
}

func (s *ConnectionState) applyChannel(ev event.ChannelEvent) {
	switch ev.Op {
	case event.OpNew:
		if ev.Channel == nil {
			return
		}
		if _, ok := s.Channels[ev.Channel.ID]; !ok {
			s.Channels[ev.Channel.ID] = newChannelState(*ev.Channel)
		}
	case event.OpUpdate:
		if ev.Channel == nil {
			return
		}
		if cs, ok := s.Channels[ev.ChannelID]; ok {
			cs.Channel = *ev.Channel
		}
	case event.OpRemove:
		delete(s.Channels, ev.ChannelID)
	case event.OpJoin:
		s.ensureChannel(ev.ChannelID)
	case event.OpLeave:
		if s.CurrentChannel == ev.ChannelID {
			s.CurrentChannel = ""
		}
	case event.OpSwitch:
		s.CurrentChannel = ev.ChannelID
	case event.OpKick:
		s.CurrentChannel = ""
	case event.OpWipe:
		if cs, ok := s.Channels[ev.ChannelID]; ok && ev.ChannelID != "" {
			cs.Messages = nil
		}
	case event.OpClearList:
		s.Channels = make(map[string]*ChannelState)
	}
}

func (s *ConnectionState) applyUser(ev event.UserEvent) {
	switch ev.Op {
	case event.OpNew:
		if ev.User == nil {
			return
		}
		if ev.ChannelID != "" {
			s.ensureChannel(ev.ChannelID).Users[ev.User.ID] = *ev.User
		} else {
			s.GlobalUsers[ev.User.ID] = *ev.User
		}
	case event.OpUpdate:
		if ev.User == nil {
			return
		}
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				cs.Users[ev.UserID] = *ev.User
			}
		} else {
			s.GlobalUsers[ev.UserID] = *ev.User
		}
	case event.OpRemove:
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				delete(cs.Users, ev.UserID)
			}
		} else {
			delete(s.GlobalUsers, ev.UserID)
		}
	case event.OpClearList:
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				cs.Users = make(map[string]domain.Profile)
			}
		} else {
			s.GlobalUsers = make(map[string]domain.Profile)
		}
	case event.OpIdentify:
		s.CurrentUserID = ev.UserID
	}
}

func (s *ConnectionState) applyChat(ev event.ChatEvent) {
	if ev.ChannelID == "" {
		return
	}
	switch ev.Op {
	case event.OpNew:
		if ev.Message == nil {
			return
		}
		cs := s.ensureChannel(ev.ChannelID)
		cs.Messages = append(cs.Messages, *ev.Message)
	case event.OpUpdate:
		if ev.Message == nil {
			return
		}
		cs, ok := s.Channels[ev.ChannelID]
		if !ok {
			return
		}
		for i := range cs.Messages {
			if cs.Messages[i].ID == ev.MessageID && ev.MessageID != "" {
				cs.Messages[i] = *ev.Message
				return
			}
		}
	case event.OpRemove:
		cs, ok := s.Channels[ev.ChannelID]
		if !ok {
			return
		}
		kept := cs.Messages[:0]
		for _, m := range cs.Messages {
			if m.ID != ev.MessageID || ev.MessageID == "" {
				kept = append(kept, m)
			}
		}
		cs.Messages = kept
	}
}

func (s *ConnectionState) applyAsset(ev event.AssetEvent) {
	switch ev.Op {
	case event.OpNew:
		if ev.Asset == nil {
			return
		}
		if ev.ChannelID != "" {
			s.ensureChannel(ev.ChannelID).Assets[ev.Asset.ID] = *ev.Asset
		} else {
			s.GlobalAssets[ev.Asset.ID] = *ev.Asset
		}
	case event.OpUpdate:
		if ev.Asset == nil {
			return
		}
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				cs.Assets[ev.AssetID] = *ev.Asset
			}
		} else {
			s.GlobalAssets[ev.AssetID] = *ev.Asset
		}
	case event.OpRemove:
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				delete(cs.Assets, ev.AssetID)
			}
		} else {
			delete(s.GlobalAssets, ev.AssetID)
		}
	case event.OpClearList:
		if ev.ChannelID != "" {
			if cs, ok := s.Channels[ev.ChannelID]; ok {
				cs.Assets = make(map[string]domain.Asset)
			}
		} else {
			s.GlobalAssets = make(map[string]domain.Asset)
		}
	}
}
