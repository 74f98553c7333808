package domain

// PlaybackState is the authoritative media reference plus transport status
// for a room. It is replaced wholesale on every mutation, never patched
// field-by-field, so url and time cannot silently drift apart.
type PlaybackState struct {
	URL     string  `json:"url"`
	Time    float64 `json:"time"`
	Playing bool    `json:"playing"`
}
