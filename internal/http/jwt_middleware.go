package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"decision-ai/internal/service"
)

const viewerClaimsKey = "viewer_claims"

// ViewerAuthMiddleware valida el token de lectura (header Bearer o query ?token=) y guarda los claims.
func ViewerAuthMiddleware(tokens *service.ViewerTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = strings.TrimSpace(c.Query("token"))
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, service.ErrJWTExpired) {
				msg = "token expired"
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
			c.Abort()
			return
		}

		c.Set(viewerClaimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// GetViewerClaims obtiene los claims del lector desde el contexto.
func GetViewerClaims(c *gin.Context) (service.ViewerClaims, bool) {
	val, ok := c.Get(viewerClaimsKey)
	if !ok {
		return service.ViewerClaims{}, false
	}
	claims, ok := val.(service.ViewerClaims)
	return claims, ok
}
