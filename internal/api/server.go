package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"time"

	"flowboard/internal/bus"
	"flowboard/internal/graph"
	"flowboard/internal/layout"
	"flowboard/internal/metrics"
	"flowboard/internal/monitor"
)

// Server owns the HTTP surface: publish, stream, graph, layout,
// activity, health, and metrics endpoints plus the board page.
type Server struct {
	bus     *bus.Bus
	graph   *graph.Graph
	hub     *monitor.Hub
	metrics *metrics.Registry
	layout  layout.Result
}

// NewServer wires the HTTP surface to its collaborators. The layout is
// computed once; the graph never changes at runtime.
func NewServer(b *bus.Bus, g *graph.Graph, hub *monitor.Hub, m *metrics.Registry) *Server {
	return &Server{
		bus:     b,
		graph:   g,
		hub:     hub,
		metrics: m,
		layout:  layout.Compute(g),
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Hostname  string `json:"hostname"`
	Timestamp string `json:"ts"`
}

type AckResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PublishRequest is the body of POST /api/bus/publish.
type PublishRequest struct {
	Session string          `json:"session"`
	Message string          `json:"message"`
	AgentID string          `json:"agentId"`
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	host, _ := os.Hostname()
	resp := HealthResponse{
		Status:    "ok",
		Service:   "flowboard",
		Hostname:  host,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) publishHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(AckResponse{OK: false, Error: "method not allowed"})
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(AckResponse{OK: false, Error: "invalid JSON"})
		return
	}

	err := s.bus.Publish(req.Session, bus.Event{
		Text:    req.Message,
		AgentID: req.AgentID,
		Status:  req.Status,
		Data:    req.Data,
	})
	if err != nil {
		if errors.Is(err, bus.ErrInvalidEvent) {
			if s.metrics != nil {
				s.metrics.PublishRejected.Inc()
			}
			w.WriteHeader(http.StatusBadRequest)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(AckResponse{OK: false, Error: err.Error()})
		return
	}

	_ = json.NewEncoder(w).Encode(AckResponse{OK: true})
}

// GraphResponse is the full static node/edge set.
type GraphResponse struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

func (s *Server) graphHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.graph == nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(AckResponse{OK: false, Error: "graph not loaded"})
		return
	}

	_ = json.NewEncoder(w).Encode(GraphResponse{
		Nodes: s.graph.Nodes,
		Edges: s.graph.Edges,
	})
}

func (s *Server) layoutHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.layout)
}

// ActivityResponse lists the node ids currently highlighted for a session.
type ActivityResponse struct {
	Session string   `json:"session"`
	Active  []string `json:"active"`
}

func (s *Server) activityHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session := r.URL.Query().Get("session")
	if session == "" {
		session = bus.DefaultSession
	}

	mon, err := s.hub.Get(session)
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(AckResponse{OK: false, Error: err.Error()})
		return
	}

	ids := mon.ActiveIDs()
	sort.Strings(ids)
	_ = json.NewEncoder(w).Encode(ActivityResponse{Session: session, Active: ids})
}

// Routes builds the request mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.boardHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/bus/publish", s.publishHandler)
	mux.HandleFunc("/api/bus/stream", s.streamHandler)
	mux.HandleFunc("/api/graph", s.graphHandler)
	mux.HandleFunc("/api/graph/layout", s.layoutHandler)
	mux.HandleFunc("/api/activity", s.activityHandler)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// ListenAndServe starts the API server on the given port, with TLS when
// cert and key are configured. It blocks until the server exits.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	mux := s.Routes()

	if IsTLSEnabled() {
		cfg := LoadTLSConfig()
		if cfg == nil {
			return errors.New("tls enabled but the key pair could not be loaded")
		}
		srv := &http.Server{Addr: addr, Handler: mux, TLSConfig: cfg}
		log.Printf("API listening on %s (TLS)\n", addr)
		return srv.ListenAndServeTLS("", "")
	}

	log.Printf("API listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}
