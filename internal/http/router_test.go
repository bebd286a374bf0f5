package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/config"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/notify"
	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:router_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath: "/api/v1",
		JWTSecret:   "router-test-secret",
		RoomTTL:     5 * time.Hour,
		RateRPS:     1000,
		RateBurst:   1000,
		CORS:        config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:    config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:        config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, newTestDB(t), notify.NewHub(), testConfig())
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body map[string]any, token string) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRegisterRoutes_Health_Metrics_Fallbacks(t *testing.T) {
	r := newRouter(t)

	// /health works
	w := getJSON(t, r, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = getJSON(t, r, "/metrics")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = getJSON(t, r, "/nope")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (POST /health)
	w = postJSON(t, r, "/health", map[string]any{}, "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST /health expected 405, got %d", w.Code)
	}
}

// TestRegisterRoutes_FullFlow drives the whole API against a real in-memory
// database: create a room, read it back, join it, submit an item with the
// joiner's credential, list the ledger, and aggregate the bill.
func TestRegisterRoutes_FullFlow(t *testing.T) {
	r := newRouter(t)

	// Create
	w := postJSON(t, r, "/api/v1/rooms", map[string]any{
		"group_names":          []string{"Family A", "Family B"},
		"num_groups":           2,
		"creator_name":         "alice",
		"creator_group_number": 1,
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create room = %d (%s)", w.Code, w.Body.String())
	}
	created := parse(t, w)
	code, _ := created["room_code"].(string)
	if len(code) != 5 {
		t.Fatalf("expected 5-digit code, got %q", code)
	}
	if created["token"] == "" {
		t.Fatalf("expected creator token")
	}

	// Public roster fetch
	w = getJSON(t, r, "/api/v1/rooms/"+code)
	if w.Code != http.StatusOK {
		t.Fatalf("get room = %d", w.Code)
	}

	// Join
	w = postJSON(t, r, "/api/v1/rooms/join", map[string]any{
		"room_code":    code,
		"name":         "bob",
		"group_number": 2,
	}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("join = %d (%s)", w.Code, w.Body.String())
	}
	joined := parse(t, w)
	token, _ := joined["token"].(string)
	if token == "" {
		t.Fatalf("expected join token")
	}

	// Add an item with bob's credential
	w = postJSON(t, r, "/api/v1/rooms/"+code+"/items", map[string]any{
		"name":          "Pasta",
		"price":         30.0,
		"group_numbers": []int{1, 2},
		"percentages":   []float64{60, 40},
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("add item = %d (%s)", w.Code, w.Body.String())
	}
	item := parse(t, w)
	if item["person_name"] != "bob" {
		t.Fatalf("expected person_name from credential, got %v", item["person_name"])
	}
	if names, _ := item["group_names"].([]any); len(names) != 2 || names[0] != "Family A" {
		t.Fatalf("expected frozen group-name snapshot, got %v", item["group_names"])
	}

	// Missing token is rejected
	w = postJSON(t, r, "/api/v1/rooms/"+code+"/items", map[string]any{
		"name": "Soup", "price": 5, "group_numbers": []int{1}, "percentages": []float64{100},
	}, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("add without token = %d, want 401", w.Code)
	}

	// List
	w = getJSON(t, r, "/api/v1/rooms/"+code+"/items")
	if w.Code != http.StatusOK {
		t.Fatalf("list items = %d", w.Code)
	}
	listed := parse(t, w)
	if items, _ := listed["items"].([]any); len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", listed["items"])
	}

	// Bill: 30×60% = 18, 30×40% = 12
	w = getJSON(t, r, "/api/v1/rooms/"+code+"/bill")
	if w.Code != http.StatusOK {
		t.Fatalf("bill = %d", w.Code)
	}
	bill := parse(t, w)
	bills, _ := bill["bills"].([]any)
	if len(bills) != 2 {
		t.Fatalf("expected 2 bill rows, got %v", bill["bills"])
	}
	first, _ := bills[0].(map[string]any)
	second, _ := bills[1].(map[string]any)
	if first["bill"] != float64(18) || second["bill"] != float64(12) {
		t.Fatalf("unexpected totals: %v / %v", first["bill"], second["bill"])
	}

	// Unknown room everywhere → 404
	w = getJSON(t, r, "/api/v1/rooms/00000/bill")
	if w.Code != http.StatusNotFound {
		t.Fatalf("bill for unknown room = %d, want 404", w.Code)
	}
}

func TestRegisterRoutes_PercentageMismatchCode(t *testing.T) {
	r := newRouter(t)

	w := postJSON(t, r, "/api/v1/rooms", map[string]any{
		"group_names":          []string{"Solo"},
		"creator_name":         "alice",
		"creator_group_number": 1,
	}, "")
	created := parse(t, w)
	code, _ := created["room_code"].(string)
	token, _ := created["token"].(string)

	w = postJSON(t, r, "/api/v1/rooms/"+code+"/items", map[string]any{
		"name": "Pasta", "price": 10, "group_numbers": []int{1}, "percentages": []float64{70},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if body := parse(t, w); body["code"] != "percentage_mismatch" {
		t.Fatalf("expected percentage_mismatch, got %v", body["code"])
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	RegisterRoutes(r, newTestDB(t), notify.NewHub(), cfg)

	// Allowed origin is echoed back with Vary: Origin
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected origin echo, got %q", got)
	}

	// Unlisted origin gets no ACAO header
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no ACAO for unlisted origin, got %q", got)
	}
}
