package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/ledger/internal/auth"
	"github.com/kiwari-pos/ledger/internal/enum"
	"github.com/kiwari-pos/ledger/internal/events"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/middleware"
	"github.com/shopspring/decimal"
)

const testJWTSecret = "test-secret-for-ledger"

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// --- Mock Saver ---

type mockSaver struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (m *mockSaver) Save(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockSaver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- Recording publisher ---

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// --- Fixtures ---

func intPtr(n int) *int { return &n }

// newTestLedger builds a small ledger:
//
//	1 Burger  price 100 cost 40 stock 5
//	2 Fries   price 50  cost 20 stock 10
//	3 Water   price 20  cost 0  untracked
func newTestLedger(opts ...ledger.Option) *ledger.Ledger {
	state := ledger.State{
		Categories: []ledger.Category{{Name: "MAINS", Active: true}, {Name: "DRINKS", Active: true}},
		Menu: []ledger.MenuItem{
			{ID: 1, Category: "MAINS", Name: "Burger", Price: decimal.NewFromInt(100), Cost: decimal.NewFromInt(40), Stock: intPtr(5), Status: enum.ItemStatusAvailable},
			{ID: 2, Category: "MAINS", Name: "Fries", Price: decimal.NewFromInt(50), Cost: decimal.NewFromInt(20), Stock: intPtr(10), Status: enum.ItemStatusAvailable},
			{ID: 3, Category: "DRINKS", Name: "Water", Price: decimal.NewFromInt(20), Cost: decimal.Zero, Status: enum.ItemStatusAvailable},
		},
		Settings:   ledger.DefaultSettings(),
		NextNumber: ledger.FirstOrderNumber,
	}
	opts = append([]ledger.Option{ledger.WithClock(func() time.Time { return testNow })}, opts...)
	return ledger.NewFromState(state, opts...)
}

func testClaims(role string) *auth.Claims {
	return &auth.Claims{
		UserID:   uuid.New(),
		Username: "priya",
		Role:     role,
	}
}

// routes is implemented by every handler.
type routes interface {
	RegisterRoutes(r chi.Router)
}

func setupRouter(h routes, mount string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route(mount, h.RegisterRoutes)
	return r
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()

	// Generate a real JWT token from claims
	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.Username, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// chiRouter mounts a handler without authentication, for public routes.
func chiRouter(h routes) *chi.Mux {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return serve(router, req)
}
