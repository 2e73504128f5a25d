package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/aura-meetings/backend/internal/middleware"
)

func corsRouter(allowed string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CORS(allowed))
	r.GET("/meetings", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		allowed   string
		method    string
		origin    string
		wantCode  int
		wantAllow string
		wantVary  bool
	}{
		{"listed origin", "http://localhost:3000, https://app.example.com", http.MethodGet, "https://app.example.com", http.StatusOK, "https://app.example.com", true},
		{"unlisted origin", "https://app.example.com", http.MethodGet, "https://evil.example", http.StatusOK, "", false},
		{"wildcard", "*", http.MethodGet, "https://any.example", http.StatusOK, "*", false},
		{"empty config allows all", "", http.MethodGet, "https://any.example", http.StatusOK, "*", false},
		{"preflight", "https://app.example.com", http.MethodOptions, "https://app.example.com", http.StatusNoContent, "https://app.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/meetings", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			corsRouter(tt.allowed).ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", w.Code, tt.wantCode)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin: got %q, want %q", got, tt.wantAllow)
			}
			if got := w.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Errorf("Vary: Origin set = %v, want %v", got, tt.wantVary)
			}
		})
	}
}
