package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lyra-backend-go/internal/core"
)

// Gin context keys set by this package.
const (
	ContextKeyClaims    = "authClaims"
	ContextKeyRequestID = "requestID"
)

// ErrorResponse mirrors api.ErrorResponse; it is redefined here to avoid an import cycle.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier verifies identity provider ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware verifies bearer tokens on every request.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. It panics on a nil verifier,
// since protected routes cannot be served without one.
func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken checks the Authorization header and stores the verified
// core.Claims under ContextKeyClaims.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Details: "Authorization header is missing"})
			return
		}

		scheme, idToken, ok := strings.Cut(authHeader, " ")
		idToken = strings.TrimSpace(idToken)
		if !ok || !strings.EqualFold(scheme, "Bearer") || idToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Details: "Authorization header format must be 'Bearer {token}'"})
			return
		}

		token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Warn("Rejected ID token", zap.String("request_id", c.GetString(ContextKeyRequestID)), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Details: "Invalid or expired authentication token"})
			return
		}

		c.Set(ContextKeyClaims, ClaimsFromToken(token))
		c.Next()
	}
}

// ClaimsFromToken extracts the identity attributes used for provisioning.
func ClaimsFromToken(token *auth.Token) core.Claims {
	claims := core.Claims{UID: token.UID, SignInMethod: token.Firebase.SignInProvider}
	if email, ok := token.Claims["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		claims.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		claims.PhotoURL = picture
	}
	return claims
}

// ClaimsFrom returns the verified claims stored by VerifyToken.
func ClaimsFrom(c *gin.Context) (core.Claims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return core.Claims{}, false
	}
	claims, ok := v.(core.Claims)
	return claims, ok
}
