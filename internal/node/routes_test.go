package node

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/edgewire/internal/auth"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func serve(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if body == "{" || strings.Contains(body, "over http") {
		req.Header.Set("Authorization", "Bearer t0k")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthReportsNodeState(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	a := startNode(t, "health-a", []string{"127.0.0.1:7999"}, "fail_fast", nil)

	w := serve(t, a.HTTPRouter(nil, nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status got=%d want=%d", w.Code, http.StatusOK)
	}
	var got struct {
		Status string `json:"status"`
		ID     string `json:"id"`
		Addr   string `json:"addr"`
		Peers  int    `json:"peers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if got.Status != "ok" || got.ID != "health-a" || got.Peers != 1 {
		t.Fatalf("unexpected health: %+v", got)
	}
	if got.Addr != a.Addr().String() {
		t.Fatalf("addr got=%s want=%s", got.Addr, a.Addr())
	}
}

func TestPeersListsConfiguredPeers(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	a := startNode(t, "peers-a", []string{"127.0.0.1:7998", "[::1]:7997"}, "fail_fast", nil)

	w := serve(t, a.HTTPRouter(nil, nil), http.MethodGet, "/peers", "")
	var got struct {
		Peers []string `json:"peers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode peers: %v", err)
	}
	if len(got.Peers) != 2 || got.Peers[0] != "127.0.0.1:7998" || got.Peers[1] != "[::1]:7997" {
		t.Fatalf("unexpected peers: %v", got.Peers)
	}
}

func TestBroadcastRoute(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	b := startNode(t, "route-b", nil, "fail_fast", nil)
	a := startNode(t, "route-a", []string{b.Addr().String()}, "fail_fast", nil)
	stream := subscribe(t, b.Node, KindData)
	router := a.HTTPRouter([]string{"http://localhost:3000"}, auth.StaticToken{Token: "t0k"})

	if w := serve(t, router, http.MethodPost, "/broadcast", `{"body":"x"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status got=%d want=%d", w.Code, http.StatusUnauthorized)
	}
	if w := serve(t, router, http.MethodPost, "/broadcast", "{"); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status got=%d want=%d", w.Code, http.StatusBadRequest)
	}
	if w := serve(t, router, http.MethodPost, "/broadcast", `{"body":"over http"}`); w.Code != http.StatusAccepted {
		t.Fatalf("broadcast status got=%d want=%d", w.Code, http.StatusAccepted)
	}
	ev := nextEvent(t, stream)
	if string(ev.Message.Body) != "over http" || ev.From != a.Addr() {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestMetricsRouteServesPrometheus(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	a := startNode(t, "metrics-a", nil, "fail_fast", nil)
	router := a.HTTPRouter(nil, nil)
	serve(t, router, http.MethodGet, "/health", "")

	w := serve(t, router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status got=%d want=%d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "edgewire_admin_request") {
		t.Fatalf("metrics output missing admin request series")
	}
}
