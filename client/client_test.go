package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saikuru0/oshatori/connection"
	"github.com/saikuru0/oshatori/domain"
	"github.com/saikuru0/oshatori/event"
	"github.com/saikuru0/oshatori/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.New(nil, "silent")
}

func textMessage(id, sender, text string) *domain.Message {
	return &domain.Message{
		ID:       id,
		SenderID: sender,
		Content:  []domain.Fragment{domain.TextFragment{Text: text}},
		Type:     domain.TypeNormal,
		Status:   domain.StatusDelivered,
	}
}

func TestTrackUntrack(t *testing.T) {
	c := New(testLogger())

	id := c.Track("mock")
	require.NotEmpty(t, id)

	state, ok := c.Connection(id)
	require.True(t, ok)
	assert.Equal(t, id, state.ConnectionID)
	assert.Equal(t, "mock", state.ProtocolName)
	assert.Equal(t, StatusDisconnected, state.Status)

	assert.Equal(t, []string{id}, c.Connections())

	c.Untrack(id)
	_, ok = c.Connection(id)
	assert.False(t, ok)
	assert.Empty(t, c.Connections())
}

func TestProcess_UntrackedConnectionIgnored(t *testing.T) {
	c := New(testLogger())
	c.Process("nope", event.Status(event.StatusEvent{Op: event.OpConnected}))
	_, ok := c.Connection("nope")
	assert.False(t, ok)
}

func TestStatusTransitions(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Status(event.StatusEvent{Op: event.OpConnected}))
	state, _ := c.Connection(id)
	assert.Equal(t, StatusConnected, state.Status)

	// Pings do not change the lifecycle phase.
	c.Process(id, event.Status(event.StatusEvent{Op: event.OpPing}))
	state, _ = c.Connection(id)
	assert.Equal(t, StatusConnected, state.Status)

	c.Process(id, event.Status(event.StatusEvent{Op: event.OpDisconnected}))
	state, _ = c.Connection(id)
	assert.Equal(t, StatusDisconnected, state.Status)
}

func TestChannelLifecycle(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Channel(event.ChannelEvent{
		Op:      event.OpNew,
		Channel: &domain.Channel{ID: "lounge", Name: "Lounge", Type: domain.ChannelGroup},
	}))
	cs, ok := c.Channel(id, "lounge")
	require.True(t, ok)
	assert.Equal(t, "Lounge", cs.Channel.Name)

	c.Process(id, event.Channel(event.ChannelEvent{
		Op:        event.OpUpdate,
		ChannelID: "lounge",
		Channel:   &domain.Channel{ID: "lounge", Name: "The Lounge", Type: domain.ChannelGroup},
	}))
	cs, _ = c.Channel(id, "lounge")
	assert.Equal(t, "The Lounge", cs.Channel.Name)

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpSwitch, ChannelID: "lounge"}))
	state, _ := c.Connection(id)
	assert.Equal(t, "lounge", state.CurrentChannel)

	// Leaving a different channel keeps the current one.
	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpLeave, ChannelID: "other"}))
	state, _ = c.Connection(id)
	assert.Equal(t, "lounge", state.CurrentChannel)

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpLeave, ChannelID: "lounge"}))
	state, _ = c.Connection(id)
	assert.Equal(t, "", state.CurrentChannel)

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpRemove, ChannelID: "lounge"}))
	_, ok = c.Channel(id, "lounge")
	assert.False(t, ok)
}

func TestChannelJoin_CreatesPlaceholder(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpJoin, ChannelID: "staff"}))

	cs, ok := c.Channel(id, "staff")
	require.True(t, ok)
	assert.Equal(t, "staff", cs.Channel.ID)
	assert.Equal(t, domain.ChannelGroup, cs.Channel.Type)
}

func TestKick_ClearsCurrentChannel(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpSwitch, ChannelID: "lounge"}))
	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpKick, ChannelID: "lounge", Reason: "spam"}))

	state, _ := c.Connection(id)
	assert.Equal(t, "", state.CurrentChannel)
}

func TestWipe_ClearsMessagesOnly(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpNew, ChannelID: "lounge", Message: textMessage("m1", "u1", "hi")}))
	c.Process(id, event.User(event.UserEvent{Op: event.OpNew, ChannelID: "lounge", User: &domain.Profile{ID: "u1", Username: "alice"}}))

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpWipe, ChannelID: "lounge"}))

	cs, ok := c.Channel(id, "lounge")
	require.True(t, ok)
	assert.Empty(t, cs.Messages)
	assert.Len(t, cs.Users, 1)
}

func TestChannelClearList(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpJoin, ChannelID: "a"}))
	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpJoin, ChannelID: "b"}))
	c.Process(id, event.Channel(event.ChannelEvent{Op: event.OpClearList}))

	state, _ := c.Connection(id)
	assert.Empty(t, state.Channels)
}

func TestUserScoping(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	// Channel-scoped user.
	c.Process(id, event.User(event.UserEvent{
		Op:        event.OpNew,
		ChannelID: "lounge",
		User:      &domain.Profile{ID: "u1", Username: "alice"},
	}))
	// Connection-global user.
	c.Process(id, event.User(event.UserEvent{
		Op:   event.OpNew,
		User: &domain.Profile{ID: "u2", Username: "bob"},
	}))

	state, _ := c.Connection(id)
	assert.Len(t, state.Channels["lounge"].Users, 1)
	assert.Len(t, state.GlobalUsers, 1)

	// Lookup resolves both scopes.
	p, ok := c.User(id, "u1")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
	p, ok = c.User(id, "u2")
	require.True(t, ok)
	assert.Equal(t, "bob", p.Username)
	_, ok = c.User(id, "u3")
	assert.False(t, ok)

	c.Process(id, event.User(event.UserEvent{
		Op:        event.OpUpdate,
		ChannelID: "lounge",
		UserID:    "u1",
		User:      &domain.Profile{ID: "u1", Username: "alice2"},
	}))
	p, _ = c.User(id, "u1")
	assert.Equal(t, "alice2", p.Username)

	c.Process(id, event.User(event.UserEvent{Op: event.OpRemove, ChannelID: "lounge", UserID: "u1"}))
	_, ok = c.User(id, "u1")
	assert.False(t, ok)

	c.Process(id, event.User(event.UserEvent{Op: event.OpClearList}))
	_, ok = c.User(id, "u2")
	assert.False(t, ok)
}

func TestIdentify(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.User(event.UserEvent{Op: event.OpIdentify, UserID: "u7"}))

	state, _ := c.Connection(id)
	assert.Equal(t, "u7", state.CurrentUserID)
}

func TestChatLog(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpNew, ChannelID: "lounge", Message: textMessage("m1", "u1", "first")}))
	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpNew, ChannelID: "lounge", Message: textMessage("m2", "u1", "second")}))

	msgs := c.Messages(id, "lounge")
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Text())
	assert.Equal(t, "second", msgs[1].Text())

	edited := textMessage("m1", "u1", "first, edited")
	edited.Status = domain.StatusEdited
	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpUpdate, ChannelID: "lounge", MessageID: "m1", Message: edited}))
	msgs = c.Messages(id, "lounge")
	assert.Equal(t, "first, edited", msgs[0].Text())
	assert.Equal(t, domain.StatusEdited, msgs[0].Status)

	// Updates for unknown ids leave the log untouched.
	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpUpdate, ChannelID: "lounge", MessageID: "zzz", Message: textMessage("zzz", "u1", "ghost")}))
	assert.Len(t, c.Messages(id, "lounge"), 2)

	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpRemove, ChannelID: "lounge", MessageID: "m1"}))
	msgs = c.Messages(id, "lounge")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m2", msgs[0].ID)

	// Channel-global chat events carry no log position.
	c.Process(id, event.Chat(event.ChatEvent{Op: event.OpNew, Message: textMessage("m3", "u1", "broadcast")}))
	assert.Len(t, c.Messages(id, "lounge"), 1)
}

func TestAssetScoping(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.Asset(event.AssetEvent{
		Op:    event.OpNew,
		Asset: &domain.Asset{Kind: domain.AssetEmote, ID: "wave", Pattern: ":wave:", URL: "https://cdn.example.com/wave.png"},
	}))
	c.Process(id, event.Asset(event.AssetEvent{
		Op:        event.OpNew,
		ChannelID: "lounge",
		Asset:     &domain.Asset{Kind: domain.AssetSticker, ID: "cat", URL: "https://cdn.example.com/cat.png"},
	}))

	global := c.Assets(id, "")
	require.Len(t, global, 1)
	assert.Equal(t, "wave", global[0].ID)

	scoped := c.Assets(id, "lounge")
	require.Len(t, scoped, 1)
	assert.Equal(t, "cat", scoped[0].ID)

	c.Process(id, event.Asset(event.AssetEvent{Op: event.OpRemove, AssetID: "wave"}))
	assert.Empty(t, c.Assets(id, ""))

	c.Process(id, event.Asset(event.AssetEvent{Op: event.OpClearList, ChannelID: "lounge"}))
	assert.Empty(t, c.Assets(id, "lounge"))
}

func TestSnapshotsAreCopies(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	c.Process(id, event.User(event.UserEvent{Op: event.OpNew, User: &domain.Profile{ID: "u1", Username: "alice"}}))

	state, _ := c.Connection(id)
	state.GlobalUsers["u1"] = domain.Profile{ID: "u1", Username: "mallory"}

	p, _ := c.User(id, "u1")
	assert.Equal(t, "alice", p.Username, "mutating a snapshot must not affect tracked state")
}

func TestFollow_DrainsStreamUntilClose(t *testing.T) {
	c := New(testLogger())
	id := c.Track("mock")

	broker := connection.NewBroker(connection.DefaultBufferSize, testLogger())
	done := c.Follow(id, broker.Subscribe())

	broker.Publish(event.Status(event.StatusEvent{Op: event.OpConnected}))
	broker.Publish(event.Chat(event.ChatEvent{Op: event.OpNew, ChannelID: "lounge", Message: textMessage("m1", "u1", "hi")}))
	broker.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("follower did not stop after stream close")
	}

	state, _ := c.Connection(id)
	assert.Equal(t, StatusConnected, state.Status)
	assert.Len(t, c.Messages(id, "lounge"), 1)
}
