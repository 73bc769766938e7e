package realtime

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type sentEvent struct {
	Room    string
	Event   string
	Payload map[string]interface{}
}

type fakeEmitter struct {
	events []sentEvent
}

func (f *fakeEmitter) ToRoom(room, event string, payload interface{}) {
	m, _ := payload.(map[string]interface{})
	f.events = append(f.events, sentEvent{Room: room, Event: event, Payload: m})
}

func (f *fakeEmitter) toRoom(t *testing.T, room, event string) map[string]interface{} {
	t.Helper()
	for _, e := range f.events {
		if e.Room == room && e.Event == event {
			return e.Payload
		}
	}
	t.Fatalf("no %q event sent to room %q, got %v", event, room, f.events)
	return nil
}

type fakeConn struct {
	id      string
	joined  []string
	emitted []sentEvent
}

func (f *fakeConn) UserID() string { return f.id }

func (f *fakeConn) Emit(event string, payload interface{}) {
	m, _ := payload.(map[string]interface{})
	f.emitted = append(f.emitted, sentEvent{Event: event, Payload: m})
}

func (f *fakeConn) Join(room string) { f.joined = append(f.joined, room) }

func newTestRelay() (*Relay, *fakeEmitter) {
	emitter := &fakeEmitter{}
	r := NewRelay(emitter, zap.NewNop(), Options{})
	r.now = func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	return r, emitter
}

func TestJoinChat(t *testing.T) {
	r, _ := newTestRelay()
	conn := &fakeConn{id: "bob"}

	r.HandleJoinChat(conn, map[string]interface{}{"otherId": "alice"})

	if len(conn.joined) != 1 || conn.joined[0] != "chat:alice:bob" {
		t.Fatalf("joined rooms = %v, want [chat:alice:bob]", conn.joined)
	}
	if len(conn.emitted) != 1 || conn.emitted[0].Event != "joined" {
		t.Fatalf("emitted = %v, want single joined event", conn.emitted)
	}
	if got := conn.emitted[0].Payload["room"]; got != "chat:alice:bob" {
		t.Fatalf("joined room = %v, want chat:alice:bob", got)
	}
}

func TestJoinChatMissingPeer(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "bob"}

	r.HandleJoinChat(conn, map[string]interface{}{})

	if len(conn.joined) != 0 || len(conn.emitted) != 0 || len(emitter.events) != 0 {
		t.Fatalf("expected silent drop, joined=%v emitted=%v room=%v",
			conn.joined, conn.emitted, emitter.events)
	}
}

func TestMessageDeliveredToBothRooms(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleMessage(conn, map[string]interface{}{
		"to":   "bob",
		"text": "nap time photos are up",
		"meta": map[string]interface{}{"childId": "c1"},
	})

	for _, room := range []string{"chat:alice:bob", "user:bob"} {
		msg := emitter.toRoom(t, room, "message")
		if msg["from"] != "alice" || msg["to"] != "bob" {
			t.Fatalf("room %s envelope = %v", room, msg)
		}
		if msg["text"] != "nap time photos are up" {
			t.Fatalf("room %s text = %v", room, msg["text"])
		}
		if msg["createdAt"] != "2026-03-14T09:30:00Z" {
			t.Fatalf("room %s createdAt = %v", room, msg["createdAt"])
		}
		meta, _ := msg["meta"].(map[string]interface{})
		if meta["childId"] != "c1" {
			t.Fatalf("room %s meta = %v", room, msg["meta"])
		}
	}
}

func TestMessageMissingFieldsDropped(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleMessage(conn, map[string]interface{}{"text": "hi"})
	r.HandleMessage(conn, map[string]interface{}{"to": "bob"})

	if len(emitter.events) != 0 {
		t.Fatalf("expected no delivery, got %v", emitter.events)
	}
}

func TestTyping(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleTyping(conn, map[string]interface{}{"to": "bob", "isTyping": true})

	payload := emitter.toRoom(t, "user:bob", "userTyping")
	if payload["from"] != "alice" || payload["isTyping"] != true {
		t.Fatalf("userTyping payload = %v", payload)
	}
}

func TestTypingMissingFlagDropped(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleTyping(conn, map[string]interface{}{"to": "bob"})

	if len(emitter.events) != 0 {
		t.Fatalf("expected no delivery, got %v", emitter.events)
	}
}

func TestCallLifecycle(t *testing.T) {
	r, emitter := newTestRelay()
	caller := &fakeConn{id: "alice"}
	callee := &fakeConn{id: "bob"}

	r.HandleInitiateCall(caller, map[string]interface{}{"to": "bob", "callId": "call-1"})

	incoming := emitter.toRoom(t, "user:bob", "callIncoming")
	if incoming["callId"] != "call-1" || incoming["from"] != "alice" || incoming["status"] != "ringing" {
		t.Fatalf("callIncoming payload = %v", incoming)
	}
	entry, ok := r.calls.Get("alice")
	if !ok || entry.Status != CallInitiating || entry.PeerID != "bob" {
		t.Fatalf("caller entry = %+v ok=%v", entry, ok)
	}

	r.HandleAcceptCall(callee, map[string]interface{}{"callId": "call-1", "from": "alice"})

	accepted := emitter.toRoom(t, "user:alice", "callAccepted")
	if accepted["acceptedBy"] != "bob" || accepted["callId"] != "call-1" {
		t.Fatalf("callAccepted payload = %v", accepted)
	}
	entry, ok = r.calls.Get("bob")
	if !ok || entry.Status != CallAccepted {
		t.Fatalf("callee entry = %+v ok=%v", entry, ok)
	}

	r.HandleEndCall(callee, map[string]interface{}{"callId": "call-1", "to": "alice"})

	ended := emitter.toRoom(t, "user:alice", "callEnded")
	if ended["endedBy"] != "bob" {
		t.Fatalf("callEnded payload = %v", ended)
	}
	if _, ok := r.calls.Get("bob"); ok {
		t.Fatal("callee entry should be removed after endCall")
	}
	// The ender's peer keeps its own entry until it acts or disconnects.
	if _, ok := r.calls.Get("alice"); !ok {
		t.Fatal("caller entry should survive peer's endCall")
	}
}

func TestRejectCallClearsRejector(t *testing.T) {
	r, emitter := newTestRelay()
	callee := &fakeConn{id: "bob"}

	r.calls.Set("bob", CallEntry{CallID: "call-9", PeerID: "alice", Status: CallInitiating})
	r.HandleRejectCall(callee, map[string]interface{}{"callId": "call-9", "from": "alice"})

	rejected := emitter.toRoom(t, "user:alice", "callRejected")
	if rejected["rejectedBy"] != "bob" || rejected["callId"] != "call-9" {
		t.Fatalf("callRejected payload = %v", rejected)
	}
	if _, ok := r.calls.Get("bob"); ok {
		t.Fatal("rejector entry should be removed")
	}
}

func TestLaterCallOverwritesEarlier(t *testing.T) {
	r, _ := newTestRelay()
	caller := &fakeConn{id: "alice"}

	r.HandleInitiateCall(caller, map[string]interface{}{"to": "bob", "callId": "call-1"})
	r.HandleInitiateCall(caller, map[string]interface{}{"to": "carol", "callId": "call-2"})

	entry, ok := r.calls.Get("alice")
	if !ok || entry.CallID != "call-2" || entry.PeerID != "carol" {
		t.Fatalf("entry = %+v, want call-2 with carol", entry)
	}
	if r.calls.Len() != 1 {
		t.Fatalf("calls len = %d, want 1", r.calls.Len())
	}
}

func TestNegotiationRelay(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	offer := map[string]interface{}{"sdp": "v=0...", "type": "offer"}
	r.HandleNegotiation(conn, "offer", "offer", map[string]interface{}{
		"to": "bob", "offer": offer, "callId": "call-1",
	})

	payload := emitter.toRoom(t, "user:bob", "offer")
	if payload["from"] != "alice" || payload["callId"] != "call-1" {
		t.Fatalf("offer payload = %v", payload)
	}
	body, _ := payload["offer"].(map[string]interface{})
	if body["sdp"] != "v=0..." {
		t.Fatalf("offer body = %v, want passthrough", payload["offer"])
	}

	r.HandleNegotiation(conn, "iceCandidate", "candidate", map[string]interface{}{
		"to": "bob", "candidate": map[string]interface{}{"candidate": "candidate:1"},
	})
	ice := emitter.toRoom(t, "user:bob", "iceCandidate")
	if _, ok := ice["candidate"]; !ok {
		t.Fatalf("iceCandidate payload = %v", ice)
	}
}

func TestNegotiationMissingBodyDropped(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleNegotiation(conn, "answer", "answer", map[string]interface{}{"to": "bob"})

	if len(emitter.events) != 0 {
		t.Fatalf("expected no delivery, got %v", emitter.events)
	}
}

func TestMediaShareLifecycle(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "teacher-1"}

	r.HandleStartMediaShare(conn, map[string]interface{}{
		"to": "parent-1", "mediaId": "m-1", "type": "video",
		"metadata": map[string]interface{}{"durationSec": 12},
	})

	started := emitter.toRoom(t, "user:parent-1", "mediaShareStarted")
	if started["mediaId"] != "m-1" || started["type"] != "video" || started["status"] != "active" {
		t.Fatalf("mediaShareStarted payload = %v", started)
	}
	if _, ok := r.shares.Get("teacher-1"); !ok {
		t.Fatal("share entry should be recorded")
	}

	r.HandleMediaStreamChunk(conn, map[string]interface{}{
		"to": "parent-1", "mediaId": "m-1", "chunk": "base64data",
		"chunkIndex": float64(3), "totalChunks": float64(10),
	})
	chunk := emitter.toRoom(t, "user:parent-1", "mediaStreamChunk")
	if chunk["chunk"] != "base64data" || chunk["chunkIndex"] != 3 || chunk["totalChunks"] != 10 {
		t.Fatalf("mediaStreamChunk payload = %v", chunk)
	}

	r.HandleStopMediaShare(conn, map[string]interface{}{"to": "parent-1", "mediaId": "m-1"})
	stopped := emitter.toRoom(t, "user:parent-1", "mediaShareStopped")
	if stopped["from"] != "teacher-1" || stopped["mediaId"] != "m-1" {
		t.Fatalf("mediaShareStopped payload = %v", stopped)
	}
	if _, ok := r.shares.Get("teacher-1"); ok {
		t.Fatal("share entry should be removed after stop")
	}
}

func TestMediaChunkBypassesRegistry(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "teacher-1"}

	// Chunks are forwarded even without a recorded share.
	r.HandleMediaStreamChunk(conn, map[string]interface{}{
		"to": "parent-1", "mediaId": "m-1", "chunk": "data",
	})

	if len(emitter.events) != 1 {
		t.Fatalf("expected one forwarded chunk, got %v", emitter.events)
	}
}

func TestShareFile(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "teacher-1"}

	r.HandleShareFile(conn, map[string]interface{}{
		"to": "parent-1", "fileId": "f-1", "fileName": "menu.pdf",
		"fileSize": float64(2048), "mimeType": "application/pdf",
	})

	shared := emitter.toRoom(t, "user:parent-1", "fileShared")
	if shared["fileId"] != "f-1" || shared["fileName"] != "menu.pdf" {
		t.Fatalf("fileShared payload = %v", shared)
	}
	if data, ok := shared["fileData"]; !ok || data != nil {
		t.Fatalf("fileData = %v present=%v, want explicit nil", data, ok)
	}
}

func TestDisconnectClearsState(t *testing.T) {
	r, emitter := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleInitiateCall(conn, map[string]interface{}{"to": "bob", "callId": "call-1"})
	r.HandleStartMediaShare(conn, map[string]interface{}{"to": "bob", "mediaId": "m-1", "type": "audio"})
	before := len(emitter.events)

	r.HandleDisconnect("alice")

	if r.calls.Len() != 0 || r.shares.Len() != 0 {
		t.Fatalf("state not cleared: calls=%d shares=%d", r.calls.Len(), r.shares.Len())
	}
	if len(emitter.events) != before {
		t.Fatalf("disconnect must not notify peers, got %v", emitter.events[before:])
	}
}

func TestAckOnCorrelationID(t *testing.T) {
	r, _ := newTestRelay()
	conn := &fakeConn{id: "alice"}

	r.HandleMessage(conn, map[string]interface{}{
		"to": "bob", "text": "hi", "correlationId": "req-7",
	})

	if len(conn.emitted) != 1 || conn.emitted[0].Event != "ack" {
		t.Fatalf("emitted = %v, want single ack", conn.emitted)
	}
	ack := conn.emitted[0].Payload
	if ack["correlationId"] != "req-7" || ack["event"] != "message" || ack["ok"] != true {
		t.Fatalf("ack payload = %v", ack)
	}

	conn.emitted = nil
	r.HandleMessage(conn, map[string]interface{}{"correlationId": "req-8"})
	if len(conn.emitted) != 1 || conn.emitted[0].Payload["ok"] != false {
		t.Fatalf("emitted = %v, want failed ack", conn.emitted)
	}

	conn.emitted = nil
	r.HandleMessage(conn, map[string]interface{}{"to": "bob", "text": "hi"})
	if len(conn.emitted) != 0 {
		t.Fatalf("no ack expected without correlationId, got %v", conn.emitted)
	}
}
