package domain

import "encoding/json"

// Message kinds from client.
const (
	KindJoinRoom        = "join-room"
	KindLoadVideo       = "load-video"
	KindPlayMusic       = "play-music"
	KindPauseMusic      = "pause-music"
	KindSeekMusic       = "seek-music"
	KindLeaveRoom       = "leave-room"
	KindPing            = "ping"
	KindSignalOffer     = "signal-offer"
	KindSignalAnswer    = "signal-answer"
	KindSignalCandidate = "signal-candidate"
)

// Message kinds to client.
const (
	KindUsersUpdate = "users-update"
	KindSyncMusic   = "sync-music"
	KindPeerJoined  = "peer-joined"
	KindPeerLeft    = "peer-left"
	KindPong        = "pong"
)

// Client -> server payloads.

type JoinRoomPayload struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId" validate:"required"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role,omitempty" validate:"omitempty,oneof=host peer"`
}

// PlaybackPayload is shared by load-video, play-music, pause-music and
// seek-music; the kinds differ only in fan-out.
type PlaybackPayload struct {
	Type    string  `json:"type"`
	RoomID  string  `json:"roomId" validate:"required"`
	URL     string  `json:"url" validate:"required"`
	Time    float64 `json:"time" validate:"gte=0"`
	Playing bool    `json:"playing"`
}

type LeaveRoomPayload struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId" validate:"required"`
}

// SignalPayload carries an opaque session-negotiation payload toward one
// named connection. The server never looks inside SDP or Candidate.
type SignalPayload struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId" validate:"required"`
	TargetID  string          `json:"targetId" validate:"required"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Server -> client messages.

type UsersUpdate struct {
	Type  string       `json:"type"`
	Users []MemberInfo `json:"users"`
}

type SyncMusic struct {
	Type string `json:"type"`
	PlaybackState
}

type PeerEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Role Role   `json:"role,omitempty"`
}

type SignalForward struct {
	Type      string          `json:"type"`
	From      string          `json:"from"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}
