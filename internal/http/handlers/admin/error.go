package admin

import (
	"github.com/vitrine-next/internal/authz"
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

var couponAdminErrorRules = []handlershared.MappedError{
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponCodeExists, Code: response.CodeConflict, Key: "error.coupon_code_exists"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_code_required"},
	{Target: service.ErrCouponCodeInvalid, Code: response.CodeBadRequest, Key: "error.coupon_code_invalid"},
	{Target: service.ErrCouponTypeInvalid, Code: response.CodeBadRequest, Key: "error.coupon_type_invalid"},
	{Target: service.ErrCouponValueInvalid, Code: response.CodeBadRequest, Key: "error.coupon_value_invalid"},
	{Target: service.ErrCouponLimitInvalid, Code: response.CodeBadRequest, Key: "error.coupon_limit_invalid"},
	{Target: service.ErrCouponWindowInvalid, Code: response.CodeBadRequest, Key: "error.coupon_window_invalid"},
}

var redemptionErrorRules = []handlershared.MappedError{
	{Target: service.ErrRedemptionInvalid, Code: response.CodeBadRequest, Key: "error.redemption_invalid"},
	{Target: service.ErrRedemptionNotFound, Code: response.CodeNotFound, Key: "error.redemption_not_found"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_code_required"},
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponUsageLimit, Code: response.CodeConflict, Key: "error.coupon_usage_limit"},
	{Target: service.ErrCouponPerUserLimit, Code: response.CodeConflict, Key: "error.coupon_per_user_limit"},
}

var authzErrorRules = []handlershared.MappedError{
	{Target: authz.ErrRoleRequired, Code: response.CodeBadRequest, Key: "error.role_invalid"},
	{Target: authz.ErrRoleReserved, Code: response.CodeBadRequest, Key: "error.role_invalid"},
	{Target: authz.ErrActionRequired, Code: response.CodeBadRequest, Key: "error.bad_request"},
	{Target: authz.ErrAdminRequired, Code: response.CodeBadRequest, Key: "error.bad_request"},
}

func respondCouponAdminError(c *gin.Context, err error, fallbackKey string) {
	handlershared.RespondMappedError(c, err, couponAdminErrorRules, response.CodeInternal, fallbackKey)
}

func respondRedemptionError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, redemptionErrorRules, response.CodeInternal, "error.redemption_failed")
}

func respondAuthzError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, authzErrorRules, response.CodeInternal, "error.authz_failed")
}
