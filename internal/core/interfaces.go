package core

import "github.com/avolkov/Tandem/internal/domain"

// Frame is a marshalled wire message.
type Frame []byte

// ConnID identifies one live connection. A new websocket gets a new ConnID.
type ConnID string

// SignalConnection abstracts the messaging transport of one member.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// RoomService is the core-facing API of a room. It owns the ordered
// membership list and the playback state but never closes transport
// resources. Membership changes never touch playback and vice versa.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []domain.MemberInfo
	Member(sid ConnID) (domain.Member, bool)

	Join(sid ConnID, m domain.Member, conn SignalConnection) []domain.MemberInfo
	Leave(sid ConnID) ([]domain.MemberInfo, domain.Member, bool)

	Playback() (domain.PlaybackState, bool)
	ApplyPlayback(s domain.PlaybackState) domain.PlaybackState

	Broadcast(f Frame) PublishResult
	BroadcastExcept(sid ConnID, f Frame) PublishResult
	SendTo(sid ConnID, f Frame) bool
}
