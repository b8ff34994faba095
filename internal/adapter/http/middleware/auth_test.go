package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mojster_trust/internal/domain/entities"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

func signToken(t *testing.T, secret, sub, role, tier string) string {
	t.Helper()
	claims := actorClaims{
		Role: role,
		Tier: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authTestRouter() (*gin.Engine, *entities.Actor) {
	r := gin.New()
	var seen entities.Actor
	r.GET("/protected", Auth(), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		seen = actor
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	t.Run("missing header", func(t *testing.T) {
		r, _ := authTestRouter()
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		r, _ := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other-secret", "nar-1", entities.RoleNarocnik, ""))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("valid token populates the actor", func(t *testing.T) {
		r, seen := authTestRouter()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "test-secret", "obr-1", entities.RoleObrtnik, "pro"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if seen.ID != "obr-1" || seen.Role != entities.RoleObrtnik || seen.Tier != "pro" {
			t.Fatalf("unexpected actor: %+v", *seen)
		}
	})
}
