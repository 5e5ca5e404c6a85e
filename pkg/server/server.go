// Package server provides the WebSocket streaming surface of the
// translation pipeline.
//
// Clients connect to the websocket path, send binary frames of 16-bit
// little-endian mono PCM, and receive pipeline events as JSON messages.
// Text frames carry control commands ("flush", "reset"). The server also
// exposes /health and Prometheus /metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naturally-translate/voice-bridge/pkg/audio"
	"github.com/naturally-translate/voice-bridge/pkg/pipeline"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the address to listen on (e.g., ":8080").
	Addr string

	// Path is the WebSocket endpoint path.
	Path string

	// ReadBufferSize is the WebSocket read buffer size.
	ReadBufferSize int

	// WriteBufferSize is the WebSocket write buffer size.
	WriteBufferSize int

	// MinChunkMs batches inbound PCM before pushing it through the
	// pipeline, so tiny client frames do not become tiny pipeline pushes.
	MinChunkMs int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Path:            "/v1/stream",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MinChunkMs:      100,
	}
}

// command is a client control message.
type command struct {
	Type string `json:"type"`
}

// Server streams pipeline events over WebSocket.
type Server struct {
	cfg      Config
	orch     *pipeline.Orchestrator
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New creates a server over an initialized orchestrator.
func New(cfg Config, orch *pipeline.Orchestrator) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	if cfg.MinChunkMs == 0 {
		cfg.MinChunkMs = DefaultConfig().MinChunkMs
	}
	return &Server{
		cfg:  cfg,
		orch: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the server's HTTP handler (also used by tests).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"state":  s.orch.State().String(),
		})
	})
	return mux
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: s.Handler()}
	log.Printf("[Server] listening on %s%s", s.cfg.Addr, s.cfg.Path)
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// handleWS runs one streaming session: binary PCM in, JSON events out.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sampleRate := queryInt(r, "sample_rate", 16000)
	channels := queryInt(r, "channels", 1)
	if sampleRate <= 0 || channels <= 0 {
		http.Error(w, "invalid sample_rate or channels", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Server] upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("[Server] session from %s (rate=%d, channels=%d)", r.RemoteAddr, sampleRate, channels)

	// Coalesce inbound frames so the pipeline sees chunks of at least
	// MinChunkMs; capacity gives headroom for slow processing turns.
	ring := audio.NewRingBuffer(sampleRate*channels, 10*s.cfg.MinChunkMs)
	minSamples := sampleRate * channels * s.cfg.MinChunkMs / 1000

	ctx := r.Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Server] read: %v", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			ring.Write(audio.BytesToFloat32(data))
			if ring.Size() < minSamples {
				continue
			}
			if err := s.process(ctx, conn, ring.Drain(), sampleRate, channels); err != nil {
				return
			}

		case websocket.TextMessage:
			var cmd command
			if err := json.Unmarshal(data, &cmd); err != nil {
				s.writeError(conn, fmt.Errorf("bad command: %w", err))
				continue
			}
			if err := s.handleCommand(ctx, conn, ring, &cmd, sampleRate, channels); err != nil {
				return
			}
		}
	}
}

// process pushes one chunk and relays its events.
func (s *Server) process(ctx context.Context, conn *websocket.Conn, samples []float32, sampleRate, channels int) error {
	if len(samples) == 0 {
		return nil
	}
	events, err := s.orch.ProcessAudio(ctx, samples, &pipeline.AudioMeta{
		SampleRate: sampleRate,
		Channels:   channels,
	})
	if err != nil {
		return s.writeError(conn, err)
	}
	return s.relay(conn, events)
}

// handleCommand executes one control command.
func (s *Server) handleCommand(ctx context.Context, conn *websocket.Conn, ring *audio.RingBuffer, cmd *command, sampleRate, channels int) error {
	switch cmd.Type {
	case "flush":
		// Push any remainder below the batch floor first.
		if err := s.process(ctx, conn, ring.Drain(), sampleRate, channels); err != nil {
			return err
		}
		events, err := s.orch.Flush(ctx)
		if err != nil {
			return s.writeError(conn, err)
		}
		return s.relay(conn, events)

	case "reset":
		ring.Clear()
		if err := s.orch.Reset(); err != nil {
			return s.writeError(conn, err)
		}
		return conn.WriteJSON(map[string]string{"type": "reset_ok"})

	default:
		return s.writeError(conn, fmt.Errorf("unknown command %q", cmd.Type))
	}
}

// relay drains one event sequence to the socket.
func (s *Server) relay(conn *websocket.Conn, events <-chan pipeline.Event) error {
	for ev := range events {
		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			return err
		}
	}
	return nil
}

// writeError reports a pipeline-level failure to the client. The session
// stays open; the client decides whether to continue.
func (s *Server) writeError(conn *websocket.Conn, err error) error {
	log.Printf("[Server] pipeline error: %v", err)
	return conn.WriteJSON(map[string]string{
		"type":    "server_error",
		"message": err.Error(),
	})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
