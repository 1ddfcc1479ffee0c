package utils

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaforum/ama/config"
	"github.com/amaforum/ama/store/sqlstore"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("secret", "ada@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.Email != "ada@example.com" {
		t.Errorf("Expected email claim, got %q", claims.Email)
	}
	if claims.ID == "" {
		t.Error("Expected a token id")
	}

	if _, err := ParseToken("other-secret", token); err == nil {
		t.Error("Expected signature check to fail with another secret")
	}

	exp, ok := TokenExpiry(token)
	if !ok || time.Until(exp) <= 0 || time.Until(exp) > time.Hour {
		t.Errorf("Unexpected expiry %v (ok=%v)", exp, ok)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken("secret", "ada@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := ParseToken("secret", token); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestGenerateTokenValidation(t *testing.T) {
	if _, err := GenerateToken("", "a@example.com", time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
	if _, err := GenerateToken("secret", "  ", time.Hour); err == nil {
		t.Error("Expected error for empty email")
	}
	if _, ok := TokenExpiry("not-a-token"); ok {
		t.Error("Expected garbage token to have no expiry")
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query            string
		wantPage, wantSz int
	}{
		{query: "", wantPage: 1, wantSz: 10},
		{query: "pages=3&size=20", wantPage: 3, wantSz: 20},
		{query: "page=2&page_size=5", wantPage: 2, wantSz: 5},
		{query: "pages=4&page=2", wantPage: 4, wantSz: 10},
		{query: "pages=0", wantPage: 1, wantSz: 10},
		{query: "pages=-7", wantPage: 1, wantSz: 10},
		{query: "pages=abc&size=xyz", wantPage: 1, wantSz: 10},
		{query: "size=0", wantPage: 1, wantSz: 1},
		{query: "size=1000", wantPage: 1, wantSz: 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tt.query, nil)

			page, size := ParsePagination(c)
			if page != tt.wantPage || size != tt.wantSz {
				t.Errorf("Expected %d/%d, got %d/%d", tt.wantPage, tt.wantSz, page, size)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"a"}, 2, 10, 21)
	if p.Pagination.TotalPages != 3 {
		t.Errorf("Expected 3 pages, got %d", p.Pagination.TotalPages)
	}
	if empty := NewPage([]string{}, 1, 10, 0); empty.Pagination.TotalPages != 0 {
		t.Errorf("Expected 0 pages, got %d", empty.Pagination.TotalPages)
	}
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		price float64
		want  int64
	}{
		{price: 9.99, want: 999},
		{price: 10, want: 1000},
		{price: 0.1 + 0.2, want: 30},
		{price: 0, want: 0},
	}
	for _, tt := range tests {
		if got := MinorUnits(tt.price); got != tt.want {
			t.Errorf("MinorUnits(%v): expected %d, got %d", tt.price, tt.want, got)
		}
	}
}

func TestStripeProcessorDisabled(t *testing.T) {
	if NewStripeProcessor("") != nil {
		t.Error("Expected nil processor without a key")
	}
	var p *StripeProcessor
	if _, err := p.CreateIntent(context.Background(), 100, "usd"); err != ErrPaymentsDisabled {
		t.Errorf("Expected ErrPaymentsDisabled, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeText("  <b>Hello</b> <script>alert(1)</script>world's  "); got != "Hello world&#39;s" {
		t.Errorf("Unexpected SanitizeText result %q", got)
	}
	for _, in := range []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&lt;img src=x onerror=alert(1)&gt;",
	} {
		if got := SanitizeText(in); strings.ContainsAny(got, "<>") {
			t.Errorf("Expected escaped markup to stay escaped for %q, got %q", in, got)
		}
	}
	if got := Sanitize(`<p onclick="x()">hi</p>`); strings.Contains(got, "onclick") {
		t.Errorf("Expected event handler stripped, got %q", got)
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var c *Cache
	c.SetJSON(ctx, "k", 1)
	c.Invalidate(ctx)
	if _, ok := c.GetBytes(ctx, "k"); ok {
		t.Error("Expected miss from nil cache")
	}

	empty := NewCache(nil, 0)
	empty.SetJSON(ctx, "k", 1)
	if _, ok := empty.GetBytes(ctx, "k"); ok {
		t.Error("Expected miss from cache without client")
	}
}

func TestTokenBlacklistInMemory(t *testing.T) {
	ctx := context.Background()
	b := NewTokenBlacklist(nil)

	b.Revoke(ctx, "live", time.Now().Add(time.Hour))
	b.Revoke(ctx, "expired", time.Now().Add(-time.Minute))

	if !b.IsRevoked(ctx, "live") {
		t.Error("Expected live token to be revoked")
	}
	if b.IsRevoked(ctx, "expired") {
		t.Error("Expected already expired token to be ignored")
	}
	if b.IsRevoked(ctx, "unknown") {
		t.Error("Expected unknown token to pass")
	}
}

func TestNewRedisDisabled(t *testing.T) {
	rc, err := NewRedis(config.AppConfig{RedisEnabled: false})
	if rc != nil || err != nil {
		t.Errorf("Expected nil client and error when disabled, got %v %v", rc, err)
	}
}

func TestPruneSearchTags(t *testing.T) {
	s, err := sqlstore.Open("sqlite://file:utils_prune?mode=memory&cache=shared", "silent")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	_ = s.RecordSearchTag(ctx, "stale", now.Add(-10*24*time.Hour))
	_ = s.RecordSearchTag(ctx, "recent", now.Add(-time.Hour))

	n, err := PruneSearchTags(ctx, s, 7*24*time.Hour, now)
	if err != nil {
		t.Fatalf("PruneSearchTags failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 pruned tag, got %d", n)
	}
}

func TestStartSearchTagPruner(t *testing.T) {
	c, err := StartSearchTagPruner(config.AppConfig{SearchTagRetentionDays: 0}, nil)
	if c != nil || err != nil {
		t.Errorf("Expected disabled pruner, got %v %v", c, err)
	}

	if _, err := StartSearchTagPruner(config.AppConfig{SearchTagRetentionDays: 7, PruneSchedule: "not a schedule"}, nil); err == nil {
		t.Error("Expected invalid schedule to fail")
	}

	c, err = StartSearchTagPruner(config.AppConfig{SearchTagRetentionDays: 7, PruneSchedule: "@daily"}, nil)
	if err != nil || c == nil {
		t.Fatalf("Expected running pruner, got %v %v", c, err)
	}
	<-c.Stop().Done()
}
