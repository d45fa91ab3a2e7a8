package sockchat

import (
	"strconv"
	"strings"
)

// The Sock Chat wire format is line-oriented text: one packet per WebSocket
// text message, fields separated by tabs, the packet id first. This codec is
// private to the adapter; nothing outside this package sees wire bytes.

const fieldSep = "\t"

// Server packet ids.
const (
	srvPong             = "0"
	srvJoinAuth         = "1"
	srvChatMessage      = "2"
	srvUserDisconnect   = "3"
	srvChannelEvent     = "4"
	srvChannelSwitching = "5"
	srvMessageDeletion  = "6"
	srvContextInfo      = "7"
	srvContextClearing  = "8"
	srvForcedDisconnect = "9"
	srvUserUpdate       = "10"
)

// Channel event sub-ids (srvChannelEvent).
const (
	chanCreate = "0"
	chanUpdate = "1"
	chanDelete = "2"
)

// Channel switching sub-ids (srvChannelSwitching).
const (
	switchJoin   = "0"
	switchDepart = "1"
	switchForced = "2"
)

// Context information sub-ids (srvContextInfo).
const (
	ctxUsers    = "0"
	ctxMessage  = "1"
	ctxChannels = "2"
)

// Context clearing modes (srvContextClearing).
const (
	clearMessages     = "0"
	clearUsers        = "1"
	clearChannels     = "2"
	clearMessagesUser = "3"
	clearAll          = "4"
)

// Client packet ids.
const (
	cliPing    = "0"
	cliAuth    = "1"
	cliMessage = "2"
)

// packet is one decoded server packet: id plus positional fields.
type packet struct {
	id     string
	fields []string
}

func decodePacket(raw string) packet {
	parts := strings.Split(raw, fieldSep)
	return packet{id: parts[0], fields: parts[1:]}
}

// field returns the i-th field or "" when absent. Short packets are common
// across server versions, so lookups never panic.
func (p packet) field(i int) string {
	if i < 0 || i >= len(p.fields) {
		return ""
	}
	return p.fields[i]
}

func (p packet) intField(i int) int {
	n, err := strconv.Atoi(p.field(i))
	if err != nil {
		return 0
	}
	return n
}

func encodePacket(id string, fields ...string) string {
	return id + fieldSep + strings.Join(fields, fieldSep)
}

func encodePing(userID string) string {
	return encodePacket(cliPing, userID)
}

func encodeAuth(method, token string) string {
	return encodePacket(cliAuth, method, token)
}

func encodeMessage(userID, text string) string {
	// Tabs and newlines would split the packet; flatten them to spaces
	// before framing.
	text = strings.ReplaceAll(text, fieldSep, " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return encodePacket(cliMessage, userID, text)
}
