package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("RATE_LIMIT_MAX", "2")
	t.Setenv("RATE_LIMIT_WINDOW_MS", "60000")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(actorContextKey, entities.Actor{ID: "nar-1", Role: entities.RoleNarocnik})
	})
	r.Use(RateLimit(ratelimit.New()))
	r.POST("/v1/inquiries", func(c *gin.Context) { c.Status(http.StatusCreated) })

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/inquiries", nil))
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit(); w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, w.Code)
		}
	}

	w := hit()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected a Retry-After header")
	}
}
