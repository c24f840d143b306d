package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLimiterTake(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		ip       string
		at       time.Duration
		want     bool
		wantWait time.Duration
	}{
		{"first request", "1.1.1.1", 0, true, 0},
		{"second request", "1.1.1.1", 10 * time.Second, true, 0},
		{"over limit", "1.1.1.1", 20 * time.Second, false, 40 * time.Second},
		{"other client unaffected", "2.2.2.2", 20 * time.Second, true, 0},
		{"still in window", "1.1.1.1", 59 * time.Second, false, time.Second},
		{"new window", "1.1.1.1", 61 * time.Second, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl.now = func() time.Time { return start.Add(tt.at) }
			got, wait := rl.take(tt.ip)
			if got != tt.want || wait != tt.wantWait {
				t.Errorf("take(%s) = %v, %v; want %v, %v", tt.ip, got, wait, tt.want, tt.wantWait)
			}
		})
	}

	if n := rl.ActiveClients(); n != 2 {
		t.Errorf("ActiveClients() = %d, want 2", n)
	}

	rl.now = func() time.Time { return start.Add(90 * time.Second) }
	if n := rl.sweep(); n != 1 {
		t.Errorf("sweep() removed %d, want 1", n)
	}
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

func TestHandlerLimitsOnlyListedMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Hour})
	defer rl.Stop()
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return start }

	r := gin.New()
	r.Use(rl.Handler(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{"limited": true})
	}, http.MethodPost))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	do := func(method string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, "/x", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := do(http.MethodPost); w.Code != http.StatusCreated {
		t.Fatalf("first POST = %d", w.Code)
	}
	rl.now = func() time.Time { return start.Add(15 * time.Second) }
	w := do(http.MethodPost)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second POST = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "45" {
		t.Errorf("Retry-After = %q, want 45", got)
	}
	for i := 0; i < 3; i++ {
		if w := do(http.MethodGet); w.Code != http.StatusOK {
			t.Fatalf("GET %d = %d, want 200", i, w.Code)
		}
	}
	if hits := rl.GetMetrics().TotalHits; hits != 1 {
		t.Errorf("TotalHits = %d, want 1", hits)
	}
}
