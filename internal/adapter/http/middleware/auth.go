package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"mojster_trust/internal/domain/entities"
	"mojster_trust/pkg"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const actorContextKey = "actor"

var errUnauthorized = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or invalid bearer token", http.StatusUnauthorized)

type actorClaims struct {
	Role string `json:"role"`
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// Auth extracts the acting identity from the Authorization bearer token and
// stores it in the gin context. Tokens are HMAC-signed by the identity
// provider with the shared AUTH_JWT_SECRET; claims carried: sub, role, tier.
func Auth() gin.HandlerFunc {
	secret := []byte(os.Getenv("AUTH_JWT_SECRET"))
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}

		claims := &actorClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}

		c.Set(actorContextKey, entities.Actor{
			ID:   claims.Subject,
			Role: claims.Role,
			Tier: claims.Tier,
		})
		c.Next()
	}
}

// WithActor stores a fixed actor in the request context, bypassing token
// parsing. Handler tests use it in place of Auth.
func WithActor(actor entities.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor stored by Auth.
func ActorFromContext(c *gin.Context) (entities.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return entities.Actor{}, false
	}
	actor, ok := v.(entities.Actor)
	return actor, ok
}
