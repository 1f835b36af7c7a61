package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/bft-labs/canvasship/pkg/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StatusFunc returns the JSON-serialisable status document for /status.
type StatusFunc func() any

// NewServer returns the relay HTTP handler:
//
//	GET /healthz  liveness probe
//	GET /status   JSON status document
//	GET /ws       binary WebSocket stream of tunnel frames
func NewServer(broker *Broker, status StatusFunc, logger log.Logger) http.Handler {
	logger = log.OrNoop(logger)

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})

	router.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]any{"relay": broker.Stats()}
		if status != nil {
			doc["session"] = status()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			logger.Warn("encode status", log.Err(err))
		}
	})

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", log.Err(err))
			return
		}
		serveSubscriber(r.Context(), conn, broker, log.With(logger,
			log.String("request_id", middleware.GetReqID(r.Context())),
			log.String("remote", r.RemoteAddr),
		))
	})

	return router
}

// serveSubscriber streams frames to one WebSocket client until it goes away.
func serveSubscriber(ctx context.Context, conn *websocket.Conn, broker *Broker, logger log.Logger) {
	id, frames := broker.Subscribe()
	defer broker.Unsubscribe(id)
	defer conn.Close()

	logger.Info("relay subscriber connected", log.Int64("subscriber", id))
	defer logger.Info("relay subscriber disconnected", log.Int64("subscriber", id))

	// Reads only serve control frames and detect the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case payload, ok := <-frames:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, payload); err != nil {
				logger.Debug("relay write failed", log.Err(err))
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address.
func Serve(ctx context.Context, addr string, handler http.Handler, logger log.Logger, ready func(net.Addr)) error {
	logger = log.OrNoop(logger)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("relay listening", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
