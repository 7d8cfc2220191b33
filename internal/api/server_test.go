package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flowboard/internal/bus"
	"flowboard/internal/graph"
	"flowboard/internal/layout"
	"flowboard/internal/metrics"
	"flowboard/internal/monitor"
)

func testGraph() *graph.Graph {
	return &graph.Graph{
		Version: 1,
		Nodes: []graph.Node{
			{ID: "workflow.orchestrate", Name: "Orchestrator", Path: "/api/workflow/orchestrate", Group: "orchestration"},
			{ID: "vision.analyze", Name: "Vision Analyze", Path: "/api/vision/analyze", Group: "analysis"},
			{ID: "veo.generate", Name: "Veo Generate", Path: "/api/veo/generate", Group: "generation"},
		},
		Edges: []graph.Edge{
			{From: "workflow.orchestrate", To: "vision.analyze"},
			{From: "vision.analyze", To: "ghost"},
		},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *bus.Bus, func()) {
	t.Helper()
	b := bus.New()
	g := testGraph()
	m := metrics.New(b)
	hub := monitor.NewHub(b, g, 0, 0, m)
	srv := NewServer(b, g, hub, m)

	ts := httptest.NewServer(srv.Routes())
	teardown := func() {
		ts.Close()
		hub.Stop()
		b.Shutdown()
	}
	return ts, b, teardown
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	var h HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if h.Status != "ok" || h.Service != "flowboard" {
		t.Errorf("unexpected health response: %+v", h)
	}
}

func TestPublishEndpoint(t *testing.T) {
	ts, b, teardown := newTestServer(t)
	defer teardown()

	sub, _ := b.Subscribe("s1")
	defer sub.Unsubscribe()

	resp := postJSON(t, ts.URL+"/api/bus/publish", PublishRequest{
		Session: "s1",
		AgentID: "vision.analyze",
		Status:  "running",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ack AckResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !ack.OK {
		t.Errorf("expected ok ack, got %+v", ack)
	}

	select {
	case e := <-sub.Events():
		if e.AgentID != "vision.analyze" {
			t.Errorf("expected agentId 'vision.analyze', got %q", e.AgentID)
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for published event")
	}
}

func TestPublishEndpointRejectsEmptyEvent(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp := postJSON(t, ts.URL+"/api/bus/publish", PublishRequest{Session: "s1", Status: "running"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	var ack AckResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ack.OK || ack.Error == "" {
		t.Errorf("expected error ack, got %+v", ack)
	}
}

func TestPublishEndpointRejectsBadJSON(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Post(ts.URL+"/api/bus/publish", "application/json", bytes.NewReader([]byte("{nope")))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPublishEndpointMethodNotAllowed(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/api/bus/publish")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestGraphEndpoint(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/api/graph")
	if err != nil {
		t.Fatalf("GET /api/graph failed: %v", err)
	}
	defer resp.Body.Close()

	var g GraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(g.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 2 {
		t.Errorf("expected the full edge set (dangling included), got %d", len(g.Edges))
	}
}

func TestLayoutEndpoint(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/api/graph/layout")
	if err != nil {
		t.Fatalf("GET /api/graph/layout failed: %v", err)
	}
	defer resp.Body.Close()

	var res layout.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	orch, ok := res.Positions["workflow.orchestrate"]
	if !ok {
		t.Fatal("expected a position for workflow.orchestrate")
	}
	analysis := res.Positions["vision.analyze"]
	if orch.X >= analysis.X {
		t.Errorf("orchestration lane (%f) should be left of analysis lane (%f)", orch.X, analysis.X)
	}

	// The dangling vision.analyze->ghost edge is omitted from layout.
	if len(res.Edges) != 1 {
		t.Errorf("expected 1 positioned edge, got %d", len(res.Edges))
	}
}

func TestActivityEndpoint(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp := postJSON(t, ts.URL+"/api/bus/publish", PublishRequest{
		Session: "s1",
		AgentID: "veo.generate",
	})
	resp.Body.Close()

	// Publishing before the monitor exists reaches no subscriber; the
	// first activity query creates the monitor, so publish again after.
	deadline := time.Now().Add(2 * time.Second)
	var active []string
	for time.Now().Before(deadline) {
		r, err := http.Get(ts.URL + "/api/activity?session=s1")
		if err != nil {
			t.Fatalf("GET /api/activity failed: %v", err)
		}
		var ar ActivityResponse
		if err := json.NewDecoder(r.Body).Decode(&ar); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		r.Body.Close()

		active = ar.Active
		if len(active) > 0 {
			break
		}

		resp := postJSON(t, ts.URL+"/api/bus/publish", PublishRequest{
			Session: "s1",
			AgentID: "veo.generate",
		})
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}

	if len(active) != 1 || active[0] != "veo.generate" {
		t.Errorf("expected active [veo.generate], got %v", active)
	}
}

func TestBoardPage(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type: %s", ct)
	}
}

func TestBoardPageEscapesEventText(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	page := string(body)

	// Event text and agent ids come from untrusted publishers and must
	// land in the DOM as text, never as markup.
	if strings.Contains(page, "innerHTML") {
		t.Error("event log must be rendered with textContent, not innerHTML")
	}
	if !strings.Contains(page, "textContent") {
		t.Error("expected textContent-based event rendering in the board page")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _, teardown := newTestServer(t)
	defer teardown()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
