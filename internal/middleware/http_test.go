package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"olimpiad/internal/service"

	"github.com/gin-gonic/gin"
)

func TestHttpMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HttpMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestTraceMiddleware_PropagatesHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), TraceMiddleware())
	var seen string
	r.GET("/test", func(c *gin.Context) {
		seen = service.GetTraceID(c.Request.Context())
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Trace-ID", "trace-42")
	req.Header.Set("X-Request-ID", "req-7")
	r.ServeHTTP(w, req)

	if seen != "trace-42" {
		t.Errorf("context trace id = %q, want trace-42", seen)
	}
	if got := w.Header().Get("X-Trace-ID"); got != "trace-42" {
		t.Errorf("X-Trace-ID = %q", got)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-7" {
		t.Errorf("X-Request-ID = %q", got)
	}
}

func TestGinZapRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinZapRecovery())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCorsMiddleware_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorsMiddleware())
	r.POST("/api/features", func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/features", nil)
	req.Header.Set("Origin", "http://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

type stubParser struct {
	claims *service.UserClaims
}

func (p stubParser) ParseAccessToken(token string) (*service.UserClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return p.claims, nil
}

func TestJWTMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parser := stubParser{claims: &service.UserClaims{UserID: "admin", Username: "root", Role: "admin"}}

	tests := []struct {
		name     string
		enabled  bool
		header   string
		role     string
		wantCode int
		wantOp   string
	}{
		{"disabled passes anonymous", false, "", "admin", http.StatusOK, "anonymous"},
		{"missing token", true, "", "admin", http.StatusUnauthorized, ""},
		{"invalid token", true, "Bearer bad", "admin", http.StatusUnauthorized, ""},
		{"valid token", true, "Bearer good", "admin", http.StatusOK, "root"},
		{"wrong role", true, "Bearer good", "auditor", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			var op string
			r.POST("/x", JWTMiddleware(parser, tt.enabled), RequireRole(tt.role, tt.enabled), func(c *gin.Context) {
				op = service.GetOperator(c.Request.Context())
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), "POST", "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if op != tt.wantOp {
				t.Errorf("operator = %q, want %q", op, tt.wantOp)
			}
		})
	}
}
