// cmd/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// TokenVerifier checks a raw bearer token and returns its subject.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

type oidcVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func (v oidcVerifier) Verify(ctx context.Context, raw string) (string, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return "", err
	}
	return idToken.Subject, nil
}

// NewOIDCVerifier discovers issuerURL. An empty clientID skips the audience
// check.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (TokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	cfg := &oidc.Config{ClientID: clientID, SkipClientIDCheck: clientID == ""}
	return oidcVerifier{verifier: provider.Verifier(cfg)}, nil
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token subject under "user_id".
func RequireAuth(verifier TokenVerifier, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth"})
			return
		}

		tokenStr := strings.TrimPrefix(auth, "Bearer ")
		if tokenStr == auth {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid format"})
			return
		}

		subject, err := verifier.Verify(c.Request.Context(), tokenStr)
		if err != nil {
			log.Warn().Err(err).Msg("token verification failed")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("user_id", subject)
		c.Next()
	}
}
