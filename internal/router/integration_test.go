//go:build integration

package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiwari-pos/ledger/internal/config"
	"github.com/kiwari-pos/ledger/internal/ledger"
	"github.com/kiwari-pos/ledger/internal/persist"
	"github.com/kiwari-pos/ledger/internal/router"
	"github.com/kiwari-pos/ledger/internal/users"
	"github.com/kiwari-pos/ledger/internal/ws"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestIntegrationFlow drives the API against PostgreSQL, then rebuilds the
// ledger from the database as a restarted server would.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	cfg := &config.Config{
		StoreDriver: persist.DriverPostgres,
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}

	// --- 1. Boot: empty database, bootstrap admin ---
	kv, closeStore, err := persist.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer closeStore()

	snap, err := persist.Load(ctx, kv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l := ledger.NewFromState(snap.Ledger)
	dir := users.NewDirectory(snap.Users)
	if _, err := dir.EnsureAdmin("admin", "admin123"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	saver := persist.NewSaver(kv, l, dir)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	server := httptest.NewServer(router.New(cfg, l, dir, saver, hub, hub))
	defer server.Close()

	// --- 2. Login ---
	var login map[string]interface{}
	call(t, server, "POST", "/auth/login", "", map[string]string{"username": "admin", "password": "admin123"}, http.StatusOK, &login)
	token := login["access_token"].(string)

	// --- 3. Add a category and an item ---
	call(t, server, "POST", "/categories", token, map[string]string{"name": "beverages"}, http.StatusCreated, nil)
	var item map[string]interface{}
	call(t, server, "POST", "/menu", token, map[string]interface{}{
		"category": "BEVERAGES", "name": "Cold coffee", "price": "80", "cost": "30", "stock": 4,
	}, http.StatusCreated, &item)
	itemPath := "/draft/items/" + jsonNumber(item["id"])

	// --- 4. Place one order, hold another ---
	call(t, server, "PUT", itemPath, token, map[string]int{"quantity": 3}, http.StatusOK, nil)
	var placed map[string]interface{}
	call(t, server, "POST", "/orders", token, nil, http.StatusCreated, &placed)
	if placed["total"] != "252.00" {
		t.Fatalf("placed total: got %v, want 252.00", placed["total"])
	}

	call(t, server, "PUT", itemPath, token, map[string]int{"quantity": 1}, http.StatusOK, nil)
	call(t, server, "POST", "/orders/hold", token, nil, http.StatusCreated, nil)

	// --- 5. Only one unit is left, so a second order of 2 is clamped ---
	var change map[string]interface{}
	call(t, server, "PUT", itemPath, token, map[string]int{"quantity": 2}, http.StatusOK, &change)
	applied := change["applied"].([]interface{})[0].(map[string]interface{})
	if applied["clamped"] != true || applied["quantity"] != float64(1) {
		t.Fatalf("expected clamp to 1, got %v", applied)
	}

	// --- 6. Restart: rebuild from the database ---
	snap, err = persist.Load(ctx, kv)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	restored := ledger.NewFromState(snap.Ledger)
	if got := restored.NextOrderNumber(); got != ledger.FirstOrderNumber+1 {
		t.Errorf("next order number: got %d, want %d", got, ledger.FirstOrderNumber+1)
	}
	if got := len(restored.Ongoing()); got != 2 {
		t.Errorf("ongoing orders: got %d, want 2 (placed + held)", got)
	}
	if _, err := users.NewDirectory(snap.Users).Authenticate("admin", "admin123"); err != nil {
		t.Errorf("admin should survive a restart: %v", err)
	}
	if len(restored.Draft().Items) != 0 {
		t.Error("the draft is not persisted")
	}
}

func call(t *testing.T, server *httptest.Server, method, path, token string, body interface{}, want int, out interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		t.Fatalf("%s %s: status %d, want %d (%v)", method, path, resp.StatusCode, want, e)
	}
	if w := resp.Header.Get("X-Ledger-Warning"); w != "" {
		t.Fatalf("%s %s: unexpected warning %q", method, path, w)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
}

func jsonNumber(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func setupPostgresContainer(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}
	return connStr, cleanup
}
