package admin

import (
	"github.com/vitrine-next/internal/constants"
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func currentAdminID(c *gin.Context) uint {
	return handlershared.OptionalContextUint(c, constants.ContextKeyAdminID)
}

func currentUsername(c *gin.Context) string {
	if value, ok := c.Get(constants.ContextKeyAdminName); ok {
		if name, ok := value.(string); ok {
			return name
		}
	}
	return ""
}
