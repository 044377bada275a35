package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leadengine/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestRateLimitRejectsOverPolicy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := ratelimit.Policy{Action: "api_call", MaxRequests: 2, Window: time.Minute}
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", RateLimit(ratelimit.New(), p, nil), ok)

	for i, want := range []string{"1", "0"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, w.Code)
		}
		if got := w.Header().Get("X-RateLimit-Remaining"); got != want {
			t.Fatalf("request %d: remaining %q want %q", i+1, got, want)
		}
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", w.Code)
	}

	other := httptest.NewRequest(http.MethodGet, "/x", nil)
	other.RemoteAddr = "198.51.100.7:4000"
	if w := serve(r, other); w.Code != http.StatusOK {
		t.Fatalf("other client throttled: %d", w.Code)
	}
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	withRole := func(role string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if role != "" {
				c.Set("userRole", role)
			}
			c.Next()
		}
	}

	cases := []struct {
		role string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"viewer", http.StatusForbidden},
		{"Admin", http.StatusOK},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/x", withRole(tc.role), RequireRoles("admin"), ok)
		if w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Code != tc.want {
			t.Fatalf("role %q: status %d want %d", tc.role, w.Code, tc.want)
		}
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"":             "",
	}
	for in, want := range cases {
		if got := bearerToken(in); got != want {
			t.Fatalf("bearerToken(%q) = %q want %q", in, got, want)
		}
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", ok)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	if w := serve(r, req); w.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status = %d", w.Code)
	}
}
