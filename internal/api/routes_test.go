package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/pooltable/internal/config"
	"github.com/playmatatu/pooltable/internal/game"
	"github.com/playmatatu/pooltable/internal/journal"
	"github.com/playmatatu/pooltable/internal/operators"
	"github.com/playmatatu/pooltable/internal/session"
	"github.com/playmatatu/pooltable/internal/ws"
)

func newTestRouter(t *testing.T) (*gin.Engine, *session.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Environment:     "development",
		FrontendURL:     "http://localhost:5173",
		JWTSecret:       "api-secret",
		TokenTTLMinutes: 5,
	}

	sim, err := game.NewSimulation(game.DefaultParams(), game.NewSeededRNG(11))
	if err != nil {
		t.Fatal(err)
	}
	sess := session.New(sim, session.Options{TableID: "main", TickRate: 240})
	hub := ws.NewHub(sess, ws.HubOptions{JWTSecret: cfg.JWTSecret})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)
	go hub.Run(ctx)

	router := gin.New()
	SetupRoutes(router, Deps{
		Config:    cfg,
		Params:    game.DefaultParams(),
		Session:   sess,
		Hub:       hub,
		Journal:   journal.New(nil),
		Operators: operators.NewStore(nil, string(hash)),
	})
	return router, sess
}

func do(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/v1/auth/token", "", gin.H{"name": operators.FallbackName, "token": "letmein"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("login response %s: %v", w.Body.String(), err)
	}
	return resp.Token
}

func TestHealthAndTable(t *testing.T) {
	router, sess := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d", w.Code)
	}

	w = do(router, http.MethodGet, "/api/v1/table", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("table: %d", w.Code)
	}
	if w.Header().Get("X-Table-ID") != "main" {
		t.Errorf("missing table header")
	}
	var body struct {
		Session  session.Info  `json:"session"`
		Snapshot game.Snapshot `json:"snapshot"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Snapshot.Pockets) != 6 || body.Session.TableID != "main" {
		t.Errorf("unexpected table body: %+v", body.Session)
	}
	if body.Session.RunID == "" || body.Session.RunID != sess.RunID() {
		t.Errorf("run id mismatch: %q vs %q", body.Session.RunID, sess.RunID())
	}

	w = do(router, http.MethodGet, "/api/v1/config", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("config: %d", w.Code)
	}
	var conf struct {
		Physics game.Params `json:"physics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &conf); err != nil || conf.Physics != game.DefaultParams() {
		t.Errorf("config physics mismatch: %v %+v", err, conf.Physics)
	}

	w = do(router, http.MethodGet, "/api/v1/table/captures", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("captures: %d", w.Code)
	}
}

func TestCommandsRequireOperator(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{"/api/v1/table/reset", "/api/v1/table/pause", "/api/v1/table/quit"} {
		if w := do(router, http.MethodPost, path, "", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: expected 401, got %d", path, w.Code)
		}
	}

	w := do(router, http.MethodPost, "/api/v1/auth/token", "", gin.H{"name": operators.FallbackName, "token": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", w.Code)
	}
	w = do(router, http.MethodPost, "/api/v1/auth/token", "", gin.H{"name": "x"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing token field: expected 400, got %d", w.Code)
	}
}

func TestOperatorResetAndPause(t *testing.T) {
	router, sess := newTestRouter(t)
	token := login(t, router)
	firstRun := sess.RunID()

	if w := do(router, http.MethodPost, "/api/v1/table/reset", token, nil); w.Code != http.StatusAccepted {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}
	waitFor(t, func() bool { return sess.RunID() != firstRun })

	if w := do(router, http.MethodPost, "/api/v1/table/pause", token, nil); w.Code != http.StatusAccepted {
		t.Fatalf("pause: %d", w.Code)
	}
	waitFor(t, func() bool { return sess.Snapshot().RunState == game.StatePaused })

	if w := do(router, http.MethodGet, "/api/v1/table/audit", token, nil); w.Code != http.StatusOK {
		t.Errorf("audit: %d", w.Code)
	}

	if w := do(router, http.MethodPost, "/api/v1/table/quit", token, nil); w.Code != http.StatusAccepted {
		t.Fatalf("quit: %d", w.Code)
	}
	select {
	case <-sess.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop")
	}
	if w := do(router, http.MethodPost, "/api/v1/table/reset", token, nil); w.Code != http.StatusGone {
		t.Errorf("reset after quit: expected 410, got %d", w.Code)
	}
}

func TestRunsWithoutJournal(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/table/runs?limit=5", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("runs: %d", w.Code)
	}
	var body struct {
		Runs    []interface{} `json:"runs"`
		Journal bool          `json:"journal"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Journal || len(body.Runs) != 0 {
		t.Errorf("expected an empty disabled journal, got %s", w.Body.String())
	}

	if w := do(router, http.MethodGet, "/api/v1/table/runs/nope", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
