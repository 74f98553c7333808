package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/avolkov/Tandem/internal/app"
	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return errors.New("backpressure")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// received decodes every captured frame into a generic map, in order.
func (c *fakeConn) received(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("bad outbound frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) lastOfKind(t *testing.T, kind string) map[string]any {
	t.Helper()
	var found map[string]any
	for _, m := range c.received(t) {
		if m["type"] == kind {
			found = m
		}
	}
	if found == nil {
		t.Fatalf("no %q frame received", kind)
	}
	return found
}

func newTestOrchestrator() *Orchestrator {
	return &Orchestrator{Rooms: app.NewRoomRegistry(), Policy: app.SimplePolicy{}}
}

func usersOf(t *testing.T, m map[string]any) []map[string]any {
	t.Helper()
	raw, ok := m["users"].([]any)
	if !ok {
		t.Fatalf("users-update without users: %v", m)
	}
	out := make([]map[string]any, len(raw))
	for i, u := range raw {
		out[i] = u.(map[string]any)
	}
	return out
}

func TestJoinBroadcastsRosterToWholeRoom(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}

	o.Join("A", a, "abcde", "Alice", "")
	users := usersOf(t, a.lastOfKind(t, domain.KindUsersUpdate))
	if len(users) != 1 || users[0]["id"] != "A" || users[0]["name"] != "Alice" {
		t.Fatalf("unexpected roster after first join: %v", users)
	}

	o.Join("B", b, "abcde", "Bob", "")
	for _, conn := range []*fakeConn{a, b} {
		users = usersOf(t, conn.lastOfKind(t, domain.KindUsersUpdate))
		if len(users) != 2 || users[0]["id"] != "A" || users[1]["id"] != "B" {
			t.Fatalf("unexpected roster after second join: %v", users)
		}
	}
}

func TestJoinNotifiesExistingMembersOfPeer(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}

	o.Join("A", a, "abcde", "Alice", domain.RoleHost)
	o.Join("B", b, "abcde", "Bob", domain.RolePeer)

	peer := a.lastOfKind(t, domain.KindPeerJoined)
	if peer["id"] != "B" || peer["role"] != "peer" {
		t.Errorf("unexpected peer-joined on host: %v", peer)
	}
	for _, m := range b.received(t) {
		if m["type"] == domain.KindPeerJoined {
			t.Error("joiner received its own peer-joined")
		}
	}
}

func TestJoinSendsPlaybackSnapshotToJoinerOnly(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}

	o.Join("A", a, "abcde", "Alice", "")
	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1", Time: 3, Playing: true})
	before := a.count()

	o.Join("B", b, "abcde", "Bob", "")

	snap := b.lastOfKind(t, domain.KindSyncMusic)
	if snap["url"] != "u1" || snap["time"] != 3.0 || snap["playing"] != true {
		t.Errorf("joiner got wrong snapshot: %v", snap)
	}
	// Existing member gets roster + peer-joined but no fresh sync-music.
	for _, m := range a.received(t)[before:] {
		if m["type"] == domain.KindSyncMusic {
			t.Error("existing member re-received sync-music on join")
		}
	}
}

func TestLoadVideoBroadcastsToSenderToo(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")
	o.Join("B", b, "abcde", "Bob", "")

	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1"})

	for _, conn := range []*fakeConn{a, b} {
		msg := conn.lastOfKind(t, domain.KindSyncMusic)
		if msg["url"] != "u1" || msg["time"] != 0.0 || msg["playing"] != false {
			t.Errorf("unexpected sync-music: %v", msg)
		}
	}
}

func TestPlayExcludesSender(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")
	o.Join("B", b, "abcde", "Bob", "")
	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1"})
	before := b.count()

	o.ApplyPlayback("B", domain.KindPlayMusic, "abcde", domain.PlaybackState{URL: "u1", Time: 12.5, Playing: true})

	msg := a.lastOfKind(t, domain.KindSyncMusic)
	if msg["url"] != "u1" || msg["time"] != 12.5 || msg["playing"] != true {
		t.Errorf("unexpected sync-music on other member: %v", msg)
	}
	if b.count() != before {
		t.Error("sender received its own transport-control broadcast")
	}
}

func TestPauseForcesPlayingFalse(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")
	o.Join("B", b, "abcde", "Bob", "")
	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1", Playing: true})

	o.ApplyPlayback("B", domain.KindPauseMusic, "abcde", domain.PlaybackState{URL: "u1", Time: 7, Playing: true})

	msg := a.lastOfKind(t, domain.KindSyncMusic)
	if msg["playing"] != false {
		t.Errorf("pause did not force playing=false: %v", msg)
	}
	room, ok := o.Rooms.Get("abcde")
	if !ok {
		t.Fatal("room vanished")
	}
	if pb, _ := room.Playback(); pb.Playing || pb.Time != 7 {
		t.Errorf("room state not last-writer: %+v", pb)
	}
}

func TestSeekPreservesPlayingFlag(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")
	o.Join("B", b, "abcde", "Bob", "")
	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1", Playing: true})

	o.ApplyPlayback("A", domain.KindSeekMusic, "abcde", domain.PlaybackState{URL: "u1", Time: 42, Playing: true})

	msg := b.lastOfKind(t, domain.KindSyncMusic)
	if msg["time"] != 42.0 || msg["playing"] != true {
		t.Errorf("seek mangled state: %v", msg)
	}
}

func TestPlaybackIsLastWriterWins(t *testing.T) {
	o := newTestOrchestrator()
	a := &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")

	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u1", Time: 5, Playing: true})
	o.ApplyPlayback("A", domain.KindLoadVideo, "abcde", domain.PlaybackState{URL: "u2", Time: 0, Playing: false})

	room, _ := o.Rooms.Get("abcde")
	pb, ok := room.Playback()
	if !ok || pb.URL != "u2" || pb.Time != 0 || pb.Playing {
		t.Errorf("expected wholesale replacement by last event, got %+v ok=%v", pb, ok)
	}
}

func TestTransportControlOnUnknownRoomIsDropped(t *testing.T) {
	o := newTestOrchestrator()
	o.ApplyPlayback("A", domain.KindPlayMusic, "ghost", domain.PlaybackState{URL: "u1"})
	if _, ok := o.Rooms.Get("ghost"); ok {
		t.Fatal("play-music created a room")
	}
}

func TestLoadVideoCreatesRoom(t *testing.T) {
	o := newTestOrchestrator()
	o.ApplyPlayback("A", domain.KindLoadVideo, "fresh", domain.PlaybackState{URL: "u1"})
	room, ok := o.Rooms.Get("fresh")
	if !ok {
		t.Fatal("load-video did not create the room")
	}
	if pb, ok := room.Playback(); !ok || pb.URL != "u1" {
		t.Errorf("room playback not set: %+v ok=%v", pb, ok)
	}
}

func TestLeaveBroadcastsToRemaining(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", domain.RoleHost)
	o.Join("B", b, "abcde", "Bob", domain.RolePeer)

	o.Leave("B", "abcde")

	users := usersOf(t, a.lastOfKind(t, domain.KindUsersUpdate))
	if len(users) != 1 || users[0]["id"] != "A" {
		t.Errorf("roster after leave wrong: %v", users)
	}
	left := a.lastOfKind(t, domain.KindPeerLeft)
	if left["id"] != "B" || left["role"] != "peer" {
		t.Errorf("peer-left wrong: %v", left)
	}
}

func TestDisconnectCoversEveryRoom(t *testing.T) {
	o := newTestOrchestrator()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	o.Join("A", a, "r1", "Alice", "")
	o.Join("A", a, "r2", "Alice", "")
	o.Join("B", b, "r1", "Bob", "")
	o.Join("C", c, "r2", "Cleo", "")

	bBefore, cBefore := b.count(), c.count()
	o.Disconnect("A")

	for name, conn := range map[string]*fakeConn{"B": b, "C": c} {
		users := usersOf(t, conn.lastOfKind(t, domain.KindUsersUpdate))
		if len(users) != 1 || users[0]["id"] != name {
			t.Errorf("%s roster after disconnect wrong: %v", name, users)
		}
	}
	// Exactly one users-update (plus one peer-left) per affected room.
	countKind := func(conn *fakeConn, from int, kind string) int {
		n := 0
		for _, m := range conn.received(t)[from:] {
			if m["type"] == kind {
				n++
			}
		}
		return n
	}
	if n := countKind(b, bBefore, domain.KindUsersUpdate); n != 1 {
		t.Errorf("B got %d users-update frames, expected 1", n)
	}
	if n := countKind(c, cBefore, domain.KindUsersUpdate); n != 1 {
		t.Errorf("C got %d users-update frames, expected 1", n)
	}
}

func TestRelayReachesTargetOnly(t *testing.T) {
	o := newTestOrchestrator()
	a, b, c := &fakeConn{}, &fakeConn{}, &fakeConn{}
	o.Join("A", a, "abcde", "Alice", domain.RoleHost)
	o.Join("B", b, "abcde", "Bob", domain.RolePeer)
	o.Join("C", c, "abcde", "Cleo", domain.RolePeer)
	aBefore, cBefore := a.count(), c.count()

	sdp := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	o.Relay("A", "abcde", domain.SignalPayload{Type: domain.KindSignalOffer, TargetID: "B", SDP: sdp})

	fwd := b.lastOfKind(t, domain.KindSignalOffer)
	if fwd["from"] != "A" {
		t.Errorf("forwarded offer missing sender tag: %v", fwd)
	}
	if fwd["sdp"].(map[string]any)["sdp"] != "v=0" {
		t.Errorf("sdp payload not forwarded verbatim: %v", fwd)
	}
	if a.count() != aBefore || c.count() != cBefore {
		t.Error("relay leaked beyond the named target")
	}
}

func TestRelayToAbsentTargetIsSilent(t *testing.T) {
	o := newTestOrchestrator()
	a := &fakeConn{}
	o.Join("A", a, "abcde", "Alice", "")
	before := a.count()

	o.Relay("A", "abcde", domain.SignalPayload{Type: domain.KindSignalOffer, TargetID: "ghost", SDP: json.RawMessage(`{}`)})
	o.Relay("A", "nosuchroom", domain.SignalPayload{Type: domain.KindSignalCandidate, TargetID: "A", Candidate: json.RawMessage(`{}`)})

	if a.count() != before {
		t.Error("relay to absent target produced outbound frames")
	}
}

func TestBackpressuredMemberIsKicked(t *testing.T) {
	o := newTestOrchestrator()
	a, b := &fakeConn{}, &fakeConn{full: true}
	o.Join("A", a, "abcde", "Alice", "")
	o.Join("B", b, "abcde", "Bob", "")

	room, _ := o.Rooms.Get("abcde")
	if room.MemberCount() != 1 {
		t.Fatalf("slow member not kicked, count=%d", room.MemberCount())
	}
	users := usersOf(t, a.lastOfKind(t, domain.KindUsersUpdate))
	if len(users) != 1 || users[0]["id"] != "A" {
		t.Errorf("roster after kick wrong: %v", users)
	}
}
