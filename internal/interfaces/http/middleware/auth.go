package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/salestax/internal/infrastructure/auth"
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/erp/salestax/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	claimsKey           = "auth_claims"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate requires a valid bearer token. The token's organization
// becomes the request organization; a conflicting X-Organization-ID header
// is rejected.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHeader)
		if !strings.HasPrefix(header, bearerPrefix) || strings.TrimPrefix(header, bearerPrefix) == "" {
			abortAuth(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := tokens.Validate(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			logger.L(c.Request.Context()).Debug("rejected bearer token", zap.Error(err))
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token has expired"
			}
			abortAuth(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, msg)
			return
		}

		if raw := c.GetHeader(OrganizationHeader); raw != "" {
			if id, err := uuid.Parse(raw); err != nil || id.String() != claims.OrganizationID {
				abortAuth(c, http.StatusForbidden, dto.ErrCodeForbidden, "Organization does not match token")
				return
			}
		}

		c.Set(claimsKey, claims)
		setOrganization(c, claims.OrganizationID)
		c.Next()
	}
}

// RequireScope rejects callers whose token lacks scope.
// Without Authenticate in front of it every request is let through.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims != nil && !claims.HasScope(scope) {
			abortAuth(c, http.StatusForbidden, dto.ErrCodeForbidden, "Token lacks scope "+scope)
			return
		}
		c.Next()
	}
}

// GetClaims returns the claims set by Authenticate, or nil
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func abortAuth(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, logger.GetRequestID(c.Request.Context())))
}
