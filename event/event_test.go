package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saikuru0/oshatori/domain"
)

func TestEnvelopeKind(t *testing.T) {
	tests := []struct {
		name string
		ev   ConnectionEvent
		kind Kind
		op   Op
	}{
		{"chat", Chat(ChatEvent{Op: OpNew}), KindChat, OpNew},
		{"user", User(UserEvent{Op: OpIdentify, UserID: "7"}), KindUser, OpIdentify},
		{"channel", Channel(ChannelEvent{Op: OpSwitch, ChannelID: "#dev"}), KindChannel, OpSwitch},
		{"status", Status(StatusEvent{Op: OpConnected}), KindStatus, OpConnected},
		{"asset", Asset(AssetEvent{Op: OpClearList}), KindAsset, OpClearList},
		{"zero", ConnectionEvent{}, Kind(""), Op("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.ev.Kind())
			assert.Equal(t, tt.op, tt.ev.Op())
		})
	}
}

func TestEnvelopeScope(t *testing.T) {
	msg := &domain.Message{
		Content:   []domain.Fragment{domain.TextFragment{Text: "hi"}},
		Timestamp: time.Now().UTC(),
		Type:      domain.TypeNormal,
		Status:    domain.StatusDelivered,
	}

	tests := []struct {
		name  string
		ev    ConnectionEvent
		scope string
	}{
		{"chat scoped", Chat(ChatEvent{Op: OpNew, ChannelID: "#lounge", Message: msg}), "#lounge"},
		{"chat global", Chat(ChatEvent{Op: OpNew, Message: msg}), ""},
		{"channel new takes channel id", Channel(ChannelEvent{Op: OpNew, Channel: &domain.Channel{ID: "#dev", Type: domain.ChannelGroup}}), "#dev"},
		{"channel remove", Channel(ChannelEvent{Op: OpRemove, ChannelID: "#dev"}), "#dev"},
		{"channel clear list is global", Channel(ChannelEvent{Op: OpClearList}), ""},
		{"status is global", Status(StatusEvent{Op: OpPing, Artifact: "123"}), ""},
		{"user scoped", User(UserEvent{Op: OpNew, ChannelID: "#dev", User: &domain.Profile{ID: "1"}}), "#dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.scope, tt.ev.Scope())
		})
	}
}
