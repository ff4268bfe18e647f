package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerKey = "owner_id"

// defaultOwner is used for static tokens configured without an owner prefix.
const defaultOwner = "default"

type AuthConfig struct {
	JWTSecret string
	// StaticTokens is a comma-separated list of "owner:token" or bare "token" entries.
	StaticTokens string
}

func parseStaticTokens(raw string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		owner, token, ok := strings.Cut(entry, ":")
		if !ok {
			owner, token = defaultOwner, entry
		}
		owner, token = strings.TrimSpace(owner), strings.TrimSpace(token)
		if owner != "" && token != "" {
			out[token] = owner
		}
	}
	return out
}

// AuthMiddleware accepts an HS256 JWT whose subject names the recruiter, or
// one of the static tokens. The recruiter id is stored on the gin context.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	staticTokens := parseStaticTokens(cfg.StaticTokens)
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if jwtSecret != "" {
			var claims jwt.RegisteredClaims
			_, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil && claims.Subject != "" {
				c.Set(ownerKey, claims.Subject)
				c.Next()
				return
			}
		}

		// static tokens
		if owner, ok := staticTokens[tokenStr]; ok {
			c.Set(ownerKey, owner)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

// OwnerID returns the authenticated recruiter.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
