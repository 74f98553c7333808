package app

import "github.com/avolkov/Tandem/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose send buffer stayed full
// during a broadcast.
type Policy interface {
	OnBackpressure(room core.RoomService, sid core.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(room core.RoomService, sid core.ConnID) BackpressureAction {
	return KickMember
}
