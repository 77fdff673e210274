package middleware

import (
	"github.com/erp/salestax/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrganizationHeader optionally names the calling organization. It only
// enriches logs, traces and rate limit keys; documents carry their own organization.
const OrganizationHeader = "X-Organization-ID"

const organizationKey = "organization_id"

// Organization copies a well-formed organization header into the request context.
// An organization already established by Authenticate takes precedence.
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetOrganizationID(c) != "" {
			c.Next()
			return
		}
		if id, err := uuid.Parse(c.GetHeader(OrganizationHeader)); err == nil {
			setOrganization(c, id.String())
		}
		c.Next()
	}
}

func setOrganization(c *gin.Context, id string) {
	c.Set(organizationKey, id)
	c.Request = c.Request.WithContext(logger.WithOrganizationID(c.Request.Context(), id))
}

// GetOrganizationID returns the organization set by Organization, or ""
func GetOrganizationID(c *gin.Context) string {
	return c.GetString(organizationKey)
}
