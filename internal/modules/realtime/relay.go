package realtime

import (
	"time"

	"go.uber.org/zap"
)

// Emitter delivers an event to every connection in a room. Implemented by
// the socket.io hub in production and by fakes in tests.
type Emitter interface {
	ToRoom(room, event string, payload interface{})
}

// Conn is the relay's view of a single authenticated connection.
type Conn interface {
	UserID() string
	Emit(event string, payload interface{})
	Join(room string)
}

// Relay implements the chat, call-signaling and media-share event surface.
// It owns the per-user call and share tables; state lives only in process
// memory and is dropped on restart. Malformed payloads are discarded
// silently; a sender gets no error channel unless it opts into acks by
// sending a correlationId.
type Relay struct {
	calls  *CallTable
	shares *ShareTable
	emit   Emitter
	logger *zap.Logger
	now    func() time.Time
}

// Options tunes relay session-state lifetimes.
type Options struct {
	CallTTL  time.Duration
	ShareTTL time.Duration
}

func NewRelay(emit Emitter, logger *zap.Logger, opts Options) *Relay {
	if opts.CallTTL <= 0 {
		opts.CallTTL = 2 * time.Minute
	}
	if opts.ShareTTL <= 0 {
		opts.ShareTTL = 5 * time.Minute
	}
	return &Relay{
		calls:  NewCallTable(opts.CallTTL),
		shares: NewShareTable(opts.ShareTTL),
		emit:   emit,
		logger: logger,
		now:    time.Now,
	}
}

// sweep evicts stale call/share entries. Driven by the hub's janitor loop;
// tests call it directly.
func (r *Relay) sweep(now time.Time) {
	if n := r.calls.Sweep(now); n > 0 {
		r.logger.Debug("evicted stale call entries", zap.Int("count", n))
	}
	if n := r.shares.Sweep(now); n > 0 {
		r.logger.Debug("evicted stale share entries", zap.Int("count", n))
	}
}

// ActiveCalls returns the number of tracked call entries.
func (r *Relay) ActiveCalls() int { return r.calls.Len() }

// ActiveShares returns the number of tracked media share entries.
func (r *Relay) ActiveShares() int { return r.shares.Len() }

func (r *Relay) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// ack confirms an operation back to the sender when the payload opted in by
// carrying a correlationId. Without it the fire-and-forget path is kept.
func (r *Relay) ack(c Conn, payload map[string]interface{}, event string, ok bool) {
	correlationID := strField(payload, "correlationId")
	if correlationID == "" {
		return
	}
	c.Emit("ack", map[string]interface{}{
		"correlationId": correlationID,
		"event":         event,
		"ok":            ok,
	})
}

// HandleJoinChat joins the sender into the pairwise chat room with the given
// peer and confirms the room name back.
func (r *Relay) HandleJoinChat(c Conn, payload map[string]interface{}) {
	otherID := strField(payload, "otherId")
	if otherID == "" {
		r.ack(c, payload, "joinChat", false)
		return
	}

	room := PairRoom(c.UserID(), otherID)
	c.Join(room)
	c.Emit("joined", map[string]interface{}{"room": room})
	r.ack(c, payload, "joinChat", true)
}

// HandleMessage relays a chat message to the pairwise room and, for peers
// that have not joined it yet, to the recipient's presence room as well.
func (r *Relay) HandleMessage(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	text, hasText := payload["text"].(string)
	if to == "" || !hasText || text == "" {
		r.ack(c, payload, "message", false)
		return
	}

	meta := mapField(payload, "meta")
	message := map[string]interface{}{
		"from":      c.UserID(),
		"to":        to,
		"text":      text,
		"meta":      meta,
		"createdAt": r.timestamp(),
	}

	r.emit.ToRoom(PairRoom(c.UserID(), to), "message", message)
	r.emit.ToRoom(PresenceRoom(to), "message", message)
	r.ack(c, payload, "message", true)
}

// HandleTyping forwards a typing indicator to the peer, fire-and-forget.
func (r *Relay) HandleTyping(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	isTyping, hasTyping := boolField(payload, "isTyping")
	if to == "" || !hasTyping {
		return
	}

	r.emit.ToRoom(PresenceRoom(to), "userTyping", map[string]interface{}{
		"from":     c.UserID(),
		"isTyping": isTyping,
	})
}

// HandleInitiateCall records the caller's entry and rings the recipient.
// No check is made that the recipient is connected; an undelivered invite is
// not reported back.
func (r *Relay) HandleInitiateCall(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	callID := strField(payload, "callId")
	if to == "" || callID == "" {
		r.ack(c, payload, "initiateCall", false)
		return
	}

	r.calls.Set(c.UserID(), CallEntry{
		CallID:    callID,
		PeerID:    to,
		Status:    CallInitiating,
		UpdatedAt: r.now(),
	})

	r.emit.ToRoom(PresenceRoom(to), "callIncoming", map[string]interface{}{
		"callId":      callID,
		"from":        c.UserID(),
		"to":          to,
		"status":      "ringing",
		"initiatedAt": r.timestamp(),
	})
	r.logger.Debug("call initiated",
		zap.String("from", c.UserID()), zap.String("to", to), zap.String("callId", callID))
	r.ack(c, payload, "initiateCall", true)
}

// HandleAcceptCall records the acceptor's entry and notifies the caller.
func (r *Relay) HandleAcceptCall(c Conn, payload map[string]interface{}) {
	callID := strField(payload, "callId")
	from := strField(payload, "from")
	if callID == "" || from == "" {
		r.ack(c, payload, "acceptCall", false)
		return
	}

	r.calls.Set(c.UserID(), CallEntry{
		CallID:    callID,
		PeerID:    from,
		Status:    CallAccepted,
		UpdatedAt: r.now(),
	})

	r.emit.ToRoom(PresenceRoom(from), "callAccepted", map[string]interface{}{
		"callId":     callID,
		"acceptedBy": c.UserID(),
		"acceptedAt": r.timestamp(),
	})
	r.ack(c, payload, "acceptCall", true)
}

// HandleRejectCall drops the rejector's entry and notifies the caller.
func (r *Relay) HandleRejectCall(c Conn, payload map[string]interface{}) {
	callID := strField(payload, "callId")
	from := strField(payload, "from")
	if callID == "" || from == "" {
		r.ack(c, payload, "rejectCall", false)
		return
	}

	r.calls.Delete(c.UserID())

	r.emit.ToRoom(PresenceRoom(from), "callRejected", map[string]interface{}{
		"callId":     callID,
		"rejectedBy": c.UserID(),
		"rejectedAt": r.timestamp(),
	})
	r.ack(c, payload, "rejectCall", true)
}

// HandleEndCall drops the ender's entry and notifies the peer. Honored even
// without a prior accept; transitions are not validated.
func (r *Relay) HandleEndCall(c Conn, payload map[string]interface{}) {
	callID := strField(payload, "callId")
	to := strField(payload, "to")
	if callID == "" || to == "" {
		r.ack(c, payload, "endCall", false)
		return
	}

	r.calls.Delete(c.UserID())

	r.emit.ToRoom(PresenceRoom(to), "callEnded", map[string]interface{}{
		"callId":  callID,
		"endedBy": c.UserID(),
		"endedAt": r.timestamp(),
	})
	r.ack(c, payload, "endCall", true)
}

// HandleNegotiation relays a WebRTC negotiation payload (offer, answer or
// iceCandidate) verbatim to the peer. The field carrying the payload is
// named after the event; contents are not inspected.
func (r *Relay) HandleNegotiation(c Conn, event, field string, payload map[string]interface{}) {
	to := strField(payload, "to")
	body, hasBody := payload[field]
	if to == "" || !hasBody || body == nil {
		r.ack(c, payload, event, false)
		return
	}

	r.emit.ToRoom(PresenceRoom(to), event, map[string]interface{}{
		"from":  c.UserID(),
		field:   body,
		"callId": payload["callId"],
	})
	r.ack(c, payload, event, true)
}

// HandleStartMediaShare records the share entry and notifies the peer.
func (r *Relay) HandleStartMediaShare(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	mediaID := strField(payload, "mediaId")
	kind := strField(payload, "type")
	if to == "" || mediaID == "" || kind == "" {
		r.ack(c, payload, "startMediaShare", false)
		return
	}

	r.shares.Set(c.UserID(), ShareEntry{
		MediaID:   mediaID,
		PeerID:    to,
		Kind:      kind,
		Status:    ShareActive,
		UpdatedAt: r.now(),
	})

	r.emit.ToRoom(PresenceRoom(to), "mediaShareStarted", map[string]interface{}{
		"mediaId":   mediaID,
		"from":      c.UserID(),
		"to":        to,
		"type":      kind,
		"metadata":  mapField(payload, "metadata"),
		"startedAt": r.timestamp(),
		"status":    "active",
	})
	r.logger.Debug("media share started",
		zap.String("from", c.UserID()), zap.String("to", to),
		zap.String("mediaId", mediaID), zap.String("type", kind))
	r.ack(c, payload, "startMediaShare", true)
}

// HandleMediaStreamChunk forwards one chunk immediately. No buffering,
// reassembly or ordering is done here; the consumer reassembles using
// chunkIndex/totalChunks.
func (r *Relay) HandleMediaStreamChunk(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	mediaID := strField(payload, "mediaId")
	chunk, hasChunk := payload["chunk"]
	if to == "" || mediaID == "" || !hasChunk || chunk == nil {
		return
	}

	r.emit.ToRoom(PresenceRoom(to), "mediaStreamChunk", map[string]interface{}{
		"from":        c.UserID(),
		"mediaId":     mediaID,
		"chunk":       chunk,
		"chunkIndex":  intField(payload, "chunkIndex"),
		"totalChunks": intField(payload, "totalChunks"),
	})
}

// HandleStopMediaShare drops the share entry and notifies the peer.
func (r *Relay) HandleStopMediaShare(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	mediaID := strField(payload, "mediaId")
	if to == "" || mediaID == "" {
		r.ack(c, payload, "stopMediaShare", false)
		return
	}

	r.shares.Delete(c.UserID())

	r.emit.ToRoom(PresenceRoom(to), "mediaShareStopped", map[string]interface{}{
		"from":      c.UserID(),
		"mediaId":   mediaID,
		"stoppedAt": r.timestamp(),
	})
	r.ack(c, payload, "stopMediaShare", true)
}

// HandleShareFile emits a single-shot file share event. fileData may be
// omitted when the sender streams content through the chunk path instead.
func (r *Relay) HandleShareFile(c Conn, payload map[string]interface{}) {
	to := strField(payload, "to")
	fileID := strField(payload, "fileId")
	fileName := strField(payload, "fileName")
	if to == "" || fileID == "" || fileName == "" {
		r.ack(c, payload, "shareFile", false)
		return
	}

	var fileData interface{}
	if v, ok := payload["fileData"]; ok {
		fileData = v
	}

	r.emit.ToRoom(PresenceRoom(to), "fileShared", map[string]interface{}{
		"fileId":   fileID,
		"from":     c.UserID(),
		"to":       to,
		"fileName": fileName,
		"fileSize": payload["fileSize"],
		"mimeType": payload["mimeType"],
		"sharedAt": r.timestamp(),
		"fileData": fileData,
	})
	r.ack(c, payload, "shareFile", true)
}

// HandleDisconnect clears the user's call and share entries. The peer is
// not notified; its own entries stay until it acts or disconnects.
func (r *Relay) HandleDisconnect(userID string) {
	r.calls.Delete(userID)
	r.shares.Delete(userID)
	r.logger.Debug("relay state cleared", zap.String("user", userID))
}
