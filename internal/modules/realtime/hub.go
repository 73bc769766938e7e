package realtime

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"

	"github.com/littlenest/core/internal/middleware"
	"github.com/littlenest/core/internal/pkg/jwt"
	"github.com/littlenest/core/internal/pkg/response"
)

// Hub owns the socket.io server and bridges it to the Relay. Each Hub is an
// independent instance with its own call/share state.
type Hub struct {
	sio    *socketio.Server
	relay  *Relay
	logger *zap.Logger

	mu        sync.Mutex
	connected int
}

// socketConn adapts a live socket.io connection to the relay's Conn.
type socketConn struct {
	sock   *socketio.Socket
	userID string
}

func (s *socketConn) UserID() string { return s.userID }

func (s *socketConn) Emit(event string, payload interface{}) {
	_ = s.sock.Emit(event, payload)
}

func (s *socketConn) Join(room string) {
	s.sock.Join(socketio.Room(room))
}

// serverEmitter targets rooms on the root namespace.
type serverEmitter struct {
	sio *socketio.Server
}

func (e *serverEmitter) ToRoom(room, event string, payload interface{}) {
	e.sio.Of("/", nil).To(socketio.Room(room)).Emit(event, payload)
}

func NewHub(logger *zap.Logger, opts Options) *Hub {
	sio := socketio.NewServer(nil, nil)
	h := &Hub{
		sio:    sio,
		relay:  NewRelay(&serverEmitter{sio: sio}, logger, opts),
		logger: logger,
	}

	_ = sio.Of("/", nil).On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		h.accept(client)
	})

	return h
}

// Relay exposes the relay component, mainly for stats.
func (h *Hub) Relay() *Relay { return h.relay }

// ClientCount returns the number of authenticated connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// handshakeToken extracts the credential in precedence order: the auth
// object's token field, then the token query parameter, then an
// Authorization header.
func handshakeToken(client *socketio.Socket) string {
	hs := client.Handshake()
	if hs == nil {
		return ""
	}

	if auth, ok := hs.Auth.(map[string]interface{}); ok {
		if tok, ok := auth["token"].(string); ok && strings.TrimSpace(tok) != "" {
			return middleware.NormalizeToken(tok)
		}
	}

	if tok := firstValueFromMultiMap(hs.Query, "token"); tok != "" {
		return middleware.NormalizeToken(tok)
	}
	if tok := firstValueFromMultiMap(hs.Headers, "authorization"); tok != "" {
		return middleware.NormalizeToken(tok)
	}
	return ""
}

func firstValueFromMultiMap(values map[string][]string, key string) string {
	for k, list := range values {
		if !strings.EqualFold(strings.TrimSpace(k), key) || len(list) == 0 {
			continue
		}
		if v := strings.TrimSpace(list[0]); v != "" {
			return v
		}
	}
	return ""
}

// accept runs the connection gate and, on success, registers the event
// handlers for the client. A connection with a missing or invalid token is
// dropped immediately and never joins a room.
func (h *Hub) accept(client *socketio.Socket) {
	token := handshakeToken(client)
	if token == "" {
		h.logger.Debug("socket rejected, no token", zap.String("sid", string(client.Id())))
		_ = client.Emit("error", map[string]interface{}{"message": "authentication required"})
		client.Disconnect(true)
		return
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		h.logger.Debug("socket rejected, bad token",
			zap.String("sid", string(client.Id())), zap.Error(err))
		_ = client.Emit("error", map[string]interface{}{"message": "invalid token"})
		client.Disconnect(true)
		return
	}

	conn := &socketConn{sock: client, userID: claims.UserID}
	conn.Join(PresenceRoom(claims.UserID))
	h.mu.Lock()
	h.connected++
	h.mu.Unlock()
	h.logger.Info("socket connected",
		zap.String("sid", string(client.Id())), zap.String("user", claims.UserID))

	on := func(event string, fn func(Conn, map[string]interface{})) {
		_ = client.On(event, func(args ...any) {
			fn(conn, firstPayload(args...))
		})
	}

	on("joinChat", h.relay.HandleJoinChat)
	on("message", h.relay.HandleMessage)
	on("typing", h.relay.HandleTyping)

	on("initiateCall", h.relay.HandleInitiateCall)
	on("acceptCall", h.relay.HandleAcceptCall)
	on("rejectCall", h.relay.HandleRejectCall)
	on("endCall", h.relay.HandleEndCall)
	on("offer", func(c Conn, p map[string]interface{}) {
		h.relay.HandleNegotiation(c, "offer", "offer", p)
	})
	on("answer", func(c Conn, p map[string]interface{}) {
		h.relay.HandleNegotiation(c, "answer", "answer", p)
	})
	on("iceCandidate", func(c Conn, p map[string]interface{}) {
		h.relay.HandleNegotiation(c, "iceCandidate", "candidate", p)
	})

	on("startMediaShare", h.relay.HandleStartMediaShare)
	on("mediaStreamChunk", h.relay.HandleMediaStreamChunk)
	on("stopMediaShare", h.relay.HandleStopMediaShare)
	on("shareFile", h.relay.HandleShareFile)

	_ = client.On("disconnect", func(_ ...any) {
		h.relay.HandleDisconnect(claims.UserID)
		h.mu.Lock()
		if h.connected > 0 {
			h.connected--
		}
		h.mu.Unlock()
		h.logger.Info("socket disconnected",
			zap.String("sid", string(client.Id())), zap.String("user", claims.UserID))
	})
}

// Run drives the janitor loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.sio.Close(nil)
			return
		case now := <-ticker.C:
			h.relay.sweep(now)
		}
	}
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

// RegisterRoutes mounts the realtime stats endpoint under the API group.
func (h *Hub) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/realtime/stats", middleware.Auth(), func(c *gin.Context) {
		response.OK(c, gin.H{
			"connected":    h.ClientCount(),
			"activeCalls":  h.relay.ActiveCalls(),
			"activeShares": h.relay.ActiveShares(),
		})
	})
}
