package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/regulatech/compliancegpt/config"
	"github.com/regulatech/compliancegpt/internal/citation"
	"github.com/regulatech/compliancegpt/internal/session"
)

type fakeEngine struct {
	resp *citation.CitedResponse
}

func (f *fakeEngine) Query(ctx context.Context, question string, opts citation.QueryOptions) (*citation.CitedResponse, error) {
	return f.resp, nil
}

func (f *fakeEngine) Compare(ctx context.Context, question string, regulations []string, topK int) (*citation.CitedResponse, error) {
	return f.resp, nil
}

func newTestServer() *Server {
	return &Server{
		Config: &config.Config{Regulations: []string{"GDPR", "CCPA", "PCI-DSS"}},
		Engine: &fakeEngine{resp: &citation.CitedResponse{
			Answer:     "72 hours [1]",
			HasContext: true,
			Citations:  []citation.Citation{{CitationID: 1, Regulation: "GDPR"}},
			Metadata:   map[string]interface{}{"provider": "stub"},
		}},
		Sessions: session.NewInMemoryStore(),
		Logger:   log.New(io.Discard, "", 0),
	}
}

func doJSON(t *testing.T, e http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	e := newTestServer().NewEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/query", `{"question":"breach deadline?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp citation.CitedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "72 hours [1]" || len(resp.Citations) != 1 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestQueryEndpointRejectsEmptyQuestion(t *testing.T) {
	e := newTestServer().NewEcho()
	rec := doJSON(t, e, http.MethodPost, "/api/query", `{"question":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestCompareEndpointNeedsTwoRegulations(t *testing.T) {
	e := newTestServer().NewEcho()
	rec := doJSON(t, e, http.MethodPost, "/api/compare", `{"question":"deletion rights","regulations":["GDPR"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/compare", `{"question":"deletion rights","regulations":["GDPR","CCPA"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegulationsEndpoint(t *testing.T) {
	e := newTestServer().NewEcho()
	rec := doJSON(t, e, http.MethodGet, "/api/regulations", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		Regulations []string `json:"regulations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Regulations) != 3 {
		t.Errorf("regulations %v", out.Regulations)
	}
}

func TestSessionEndpoints(t *testing.T) {
	srv := newTestServer()
	e := srv.NewEcho()

	rec := doJSON(t, e, http.MethodPost, "/api/sessions", `{"label":"audit"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", rec.Code, rec.Body.String())
	}
	var sess session.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}

	rec = doJSON(t, e, http.MethodPost, "/api/query", `{"question":"breach?","session_id":"`+sess.ID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("query status %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/sessions/"+sess.ID+"/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("history status %d: %s", rec.Code, rec.Body.String())
	}
	var hist struct {
		History []session.QueryRecord `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.History) != 1 || hist.History[0].Question != "breach?" {
		t.Errorf("history wrong: %+v", hist.History)
	}

	rec = doJSON(t, e, http.MethodGet, "/api/sessions/nope/history", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session status %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newTestServer().NewEcho()
	if rec := doJSON(t, e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status %d", rec.Code)
	}
	if rec := doJSON(t, e, http.MethodGet, "/api/health", ""); rec.Code != http.StatusOK {
		t.Errorf("api health status %d", rec.Code)
	}
}

func TestAuthMiddlewareProtectsSessions(t *testing.T) {
	srv := newTestServer()
	srv.JWTSecret = []byte("test-secret")
	e := srv.NewEcho()

	rec := doJSON(t, e, http.MethodGet, "/api/sessions", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status %d, want 401", rec.Code)
	}

	token, err := SignJWT(srv.JWTSecret, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	out := httptest.NewRecorder()
	e.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("authenticated status %d: %s", out.Code, out.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	out = httptest.NewRecorder()
	e.ServeHTTP(out, req)
	if out.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token status %d, want 401", out.Code)
	}
}
