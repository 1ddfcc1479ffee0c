package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/utils"
)

const testSecret = "middleware-secret"

func setupAuthRouter(blacklist *utils.TokenBlacklist) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", AuthRequired(testSecret, blacklist), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextEmailKey))
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	blacklist := utils.NewTokenBlacklist(nil)
	r := setupAuthRouter(blacklist)

	valid, err := utils.GenerateToken(testSecret, "ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	revoked, _ := utils.GenerateToken(testSecret, "bob@example.com", time.Hour)
	blacklist.Revoke(context.Background(), revoked, time.Now().Add(time.Hour))
	forged, _ := utils.GenerateToken("another-secret", "eve@example.com", time.Hour)
	expired, _ := utils.GenerateToken(testSecret, "old@example.com", -time.Minute)

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "cookie", cookie: valid, wantStatus: http.StatusOK, wantBody: "ada@example.com"},
		{name: "bearer header", header: "Bearer " + valid, wantStatus: http.StatusOK, wantBody: "ada@example.com"},
		{name: "missing", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized},
		{name: "revoked", cookie: revoked, wantStatus: http.StatusUnauthorized},
		{name: "forged", cookie: forged, wantStatus: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/private", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("Expected body %q, got %q", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// 4 per minute gives a burst of 2
	r.POST("/write", RateLimitMiddleware(4), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/write", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Unexpected status sequence %v", codes)
	}

	req := httptest.NewRequest("POST", "/write", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected a separate bucket per IP, got %d", w.Code)
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(60)
	l.now = func() time.Time { return clock }

	l.Allow("10.0.0.1")
	clock = clock.Add(time.Minute)
	l.Allow("10.0.0.2")
	if len(l.limiters) != 2 {
		t.Fatalf("Expected 2 buckets before the sweep interval, got %d", len(l.limiters))
	}

	// 10.0.0.1 idle past limiterIdle, 10.0.0.2 still fresh
	clock = clock.Add(limiterIdle - 30*time.Second)
	l.Allow("10.0.0.3")
	if _, ok := l.limiters["10.0.0.1"]; ok {
		t.Error("Expected idle bucket to be swept")
	}
	if len(l.limiters) != 2 {
		t.Errorf("Expected 2 buckets after the sweep, got %d", len(l.limiters))
	}
}
