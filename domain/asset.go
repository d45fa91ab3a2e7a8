package domain

// AssetKind classifies a backend-provided asset.
type AssetKind string

const (
	AssetEmote   AssetKind = "emote"
	AssetSticker AssetKind = "sticker"
	AssetAudio   AssetKind = "audio"
	AssetCommand AssetKind = "command"
)

// Asset is a backend-provided reusable resource (emote, sticker, sound,
// command). Pattern is the backend's inline trigger syntax, used by the
// normalize package to lift matches into AssetRef fragments.
type Asset struct {
	Kind    AssetKind `json:"kind"`
	ID      string    `json:"id"`
	Pattern string    `json:"pattern,omitempty"`
	URL     string    `json:"url,omitempty"`
	MIME    string    `json:"mime,omitempty"`
}
