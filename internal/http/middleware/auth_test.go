package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/auth"
)

func authTestRouter(iss *auth.Issuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Header("X-Request-ID", "rid-auth"); c.Next() })
	r.GET("/whoami", BearerAuth(iss), func(c *gin.Context) {
		claims := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{
			"name":         claims.Name,
			"group_number": claims.GroupNumber,
			"room_code":    claims.RoomCode,
		})
	})
	return r
}

func TestBearerAuth_ValidToken(t *testing.T) {
	iss := auth.NewIssuer("auth-mw-secret")
	tok, err := iss.Issue("alice", 2, "54321", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := authTestRouter(iss)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["name"] != "alice" || body["room_code"] != "54321" || body["group_number"] != float64(2) {
		t.Fatalf("unexpected claims: %v", body)
	}
}

func TestBearerAuth_TokenQueryParam(t *testing.T) {
	iss := auth.NewIssuer("auth-mw-secret")
	tok, err := iss.Issue("bob", 1, "11111", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// EventSource clients cannot set headers; the token travels as a query
	// parameter instead.
	r := authTestRouter(iss)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami?token="+tok, nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via query token, got %d", w.Code)
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	iss := auth.NewIssuer("auth-mw-secret")
	other := auth.NewIssuer("some-other-secret")
	forged, _ := other.Issue("mallory", 1, "54321", time.Now().Add(time.Hour))

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + forged},
	}

	r := authTestRouter(iss)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body["code"] != "unauthorized" {
				t.Fatalf("expected code=unauthorized, got %v", body["code"])
			}
		})
	}
}

func TestClaimsFrom_NilWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := ClaimsFrom(c); got != nil {
		t.Fatalf("expected nil claims, got %+v", got)
	}
	if got := ParticipantKey(c); got != "" {
		t.Fatalf("expected empty participant key, got %q", got)
	}
}
