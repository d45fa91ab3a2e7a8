// Package domain defines the canonical data model shared by every protocol
// adapter: accounts, profiles, messages, channels and protocol descriptors.
// All types are plain values — adapters and callers exchange copies, never
// shared mutable state.
package domain

// RGBA is a 4-byte red/green/blue/alpha color.
type RGBA [4]uint8

// Profile is the display identity of a user. Every field is independently
// optional; partial knowledge is valid and common (an empty string means the
// adapter does not know the value).
type Profile struct {
	ID          string `json:"id,omitempty"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Color       *RGBA  `json:"color,omitempty"`
	Picture     string `json:"picture,omitempty"`
}

// Account holds a user's credentials for one protocol, plus an optional
// private profile.
type Account struct {
	Protocol string      `json:"protocol"`
	Auth     []AuthField `json:"auth"`
	Private  *Profile    `json:"private,omitempty"`
}

// ChannelType describes the topology of a channel. Fixed at creation.
type ChannelType string

const (
	ChannelGroup     ChannelType = "group"
	ChannelDirect    ChannelType = "direct"
	ChannelBroadcast ChannelType = "broadcast"
)

// Channel is one chat surface. The ID is required and unique within a
// connection's lifetime; the name is optional.
type Channel struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Type ChannelType `json:"type"`
}

// Protocol is the static descriptor of a backend: its name and the ordered
// login fields a UI should prompt for. Returned by ProtocolSpec and never
// mutated.
type Protocol struct {
	Name string      `json:"name"`
	Auth []AuthField `json:"auth,omitempty"`
}
