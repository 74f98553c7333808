package sync

import (
	"testing"
	"time"

	"github.com/avolkov/Tandem/internal/config"
	"github.com/avolkov/Tandem/internal/domain"
)

func newTestController() *SyncWSController {
	cfg := &config.Config{
		ReadLimit:    32768,
		PingPeriod:   54 * time.Second,
		JoinLimit:    10,
		JoinInterval: time.Minute,
	}
	return NewSyncWSController(nil, cfg)
}

func TestDecodeRejectsMissingRequiredFields(t *testing.T) {
	ctl := newTestController()

	var join domain.JoinRoomPayload
	if err := ctl.decode([]byte(`{"type":"join-room","name":"Alice"}`), &join); err == nil {
		t.Error("join without roomId accepted")
	}

	var pb domain.PlaybackPayload
	if err := ctl.decode([]byte(`{"type":"load-video","roomId":"abcde","time":0}`), &pb); err == nil {
		t.Error("load-video without url accepted")
	}

	var sig domain.SignalPayload
	if err := ctl.decode([]byte(`{"type":"signal-offer","roomId":"abcde","sdp":{}}`), &sig); err == nil {
		t.Error("signal without targetId accepted")
	}
}

func TestDecodeRejectsBadJSONAndBadRole(t *testing.T) {
	ctl := newTestController()

	var join domain.JoinRoomPayload
	if err := ctl.decode([]byte(`{"type":`), &join); err == nil {
		t.Error("truncated json accepted")
	}
	if err := ctl.decode([]byte(`{"type":"join-room","roomId":"abcde","role":"admin"}`), &join); err == nil {
		t.Error("unknown role accepted")
	}
}

func TestDecodeAcceptsValidPayloads(t *testing.T) {
	ctl := newTestController()

	var join domain.JoinRoomPayload
	if err := ctl.decode([]byte(`{"type":"join-room","roomId":"ABCDE","name":"Alice","role":"host"}`), &join); err != nil {
		t.Errorf("valid join rejected: %v", err)
	}
	if domain.NormalizeRoomID(join.RoomID) != "abcde" {
		t.Errorf("room id not normalized: %q", join.RoomID)
	}

	var pb domain.PlaybackPayload
	if err := ctl.decode([]byte(`{"type":"seek-music","roomId":"abcde","url":"u1","time":12.5,"playing":true}`), &pb); err != nil {
		t.Errorf("valid playback rejected: %v", err)
	}
	if pb.Time != 12.5 || !pb.Playing {
		t.Errorf("playback payload mangled: %+v", pb)
	}
}
