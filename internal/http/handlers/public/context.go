package public

import (
	"github.com/vitrine-next/internal/constants"
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// optionalUserID 前台令牌可选，未登录返回 0
func optionalUserID(c *gin.Context) uint {
	return handlershared.OptionalContextUint(c, constants.ContextKeyUserID)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}
