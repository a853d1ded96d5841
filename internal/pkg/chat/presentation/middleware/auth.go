package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	identity "spachat/internal/repository/port"
)

const principalKey = "spachat.principal"

// AnyKind accepts both staff and customer principals.
const AnyKind identity.PrincipalKind = 0

// Authenticate resolves the bearer token into a principal and stores it in
// the request context. Requests with no valid principal of the required
// kind are rejected with 401 and never retried.
func Authenticate(resolver identity.PrincipalResolver, kind identity.PrincipalKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := resolver.Resolve(c.Request.Context(), bearerToken(c))
		if err != nil {
			if !errors.Is(err, identity.ErrUnauthenticated) {
				log.Printf("auth: resolve: %v", err)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}
		if kind != AnyKind && p.Kind != kind {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// Principal returns the authenticated principal set by Authenticate.
func Principal(c *gin.Context) (identity.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return identity.Principal{}, false
	}
	p, ok := v.(identity.Principal)
	return p, ok
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
