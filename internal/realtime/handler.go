package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qius-alx/social-network/internal/auth"
	"github.com/qius-alx/social-network/internal/model"
)

const DefaultEventTimeout = 5 * time.Second

// Authenticator verifies a handshake token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Profile, error)
}

// HandlerOptions tunes the websocket endpoint. Zero values select defaults.
type HandlerOptions struct {
	SendBuffer   int
	EventTimeout time.Duration
	// AllowedOrigins lists browser origins permitted to connect. Empty or
	// "*" accepts any origin.
	AllowedOrigins []string
}

// Handler is the websocket endpoint. Authentication completes before the
// upgrade, so a rejected client gets a plain 401 and never a socket.
type Handler struct {
	core     *Core
	auth     Authenticator
	upgrader websocket.Upgrader
	opts     HandlerOptions
	logger   *slog.Logger
}

func NewHandler(core *Core, authn Authenticator, opts HandlerOptions, logger *slog.Logger) *Handler {
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = DefaultEventTimeout
	}
	h := &Handler{core: core, auth: authn, opts: opts, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	profile, err := h.auth.Authenticate(r.Context(), auth.HandshakeToken(r))
	if err != nil {
		h.logger.Debug("websocket handshake rejected",
			slog.String("remote", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		auth.WriteAuthError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	conn := NewConn(ws, *profile, h.opts.SendBuffer, h.logger)
	conn.Start()
	h.core.Connect(conn)
	defer func() {
		h.core.Disconnect(conn)
		conn.Close(websocket.CloseNormalClosure, "")
	}()

	base, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn.ReadLoop(func(frame []byte) {
		ctx, cancel := context.WithTimeout(base, h.opts.EventTimeout)
		defer cancel()
		h.core.Dispatch(ctx, conn, frame)
	})
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.opts.AllowedOrigins) == 0 || slices.Contains(h.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(h.opts.AllowedOrigins, origin)
}
