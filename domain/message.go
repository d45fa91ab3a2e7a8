package domain

import "time"

// MessageStatus is the delivery lifecycle state of a message. It advances
// monotonically in normal operation; Failed is terminal for that delivery
// attempt.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusEdited    MessageStatus = "edited"
	StatusDeleted   MessageStatus = "deleted"
	StatusFailed    MessageStatus = "failed"
)

// MessageType classifies the origin of a message. Set once at creation.
type MessageType string

const (
	TypeCurrentUser MessageType = "current_user"
	TypeNormal      MessageType = "normal"
	TypeServer      MessageType = "server"
	TypeMeta        MessageType = "meta"
)

// Message is one chat message. Content order is the rendering order; the
// timestamp is always present and always UTC.
type Message struct {
	ID        string        `json:"id,omitempty"`
	SenderID  string        `json:"senderId,omitempty"`
	Content   []Fragment    `json:"content"`
	Timestamp time.Time     `json:"timestamp"`
	Type      MessageType   `json:"type"`
	Status    MessageStatus `json:"status"`
}

// Text concatenates the message's text fragments, ignoring media.
func (m Message) Text() string {
	var out string
	for _, f := range m.Content {
		if t, ok := f.(TextFragment); ok {
			out += t.Text
		}
	}
	return out
}

// Fragment is one atomic piece of message content. The set of variants is
// closed: Text, Image, Video, Audio, URL and AssetRef.
type Fragment interface {
	fragment()
}

// TextFragment is a run of plain text.
type TextFragment struct {
	Text string `json:"text"`
}

// ImageFragment references an image by URL. URL and MIME are required
// together.
type ImageFragment struct {
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

// VideoFragment references a video by URL.
type VideoFragment struct {
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

// AudioFragment references an audio clip by URL.
type AudioFragment struct {
	URL  string `json:"url"`
	MIME string `json:"mime"`
}

// URLFragment is a bare hyperlink.
type URLFragment struct {
	URL string `json:"url"`
}

// AssetRefFragment references a backend asset (emote, sticker) by id.
type AssetRefFragment struct {
	AssetID string `json:"assetId"`
}

func (TextFragment) fragment()     {}
func (ImageFragment) fragment()    {}
func (VideoFragment) fragment()    {}
func (AudioFragment) fragment()    {}
func (URLFragment) fragment()      {}
func (AssetRefFragment) fragment() {}
