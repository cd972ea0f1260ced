package public

import (
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/i18n"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
)

// couponRejectionRules 校验拒绝原因到响应的映射，未命中的按 500 处理
var couponRejectionRules = []handlershared.MappedError{
	{Target: service.ErrCouponNotFound, Code: response.CodeNotFound, Key: "error.coupon_not_found"},
	{Target: service.ErrCouponInactive, Code: response.CodeBadRequest, Key: "error.coupon_inactive"},
	{Target: service.ErrCouponNotStarted, Code: response.CodeBadRequest, Key: "error.coupon_not_started"},
	{Target: service.ErrCouponExpired, Code: response.CodeBadRequest, Key: "error.coupon_expired"},
	{Target: service.ErrCouponUsageLimit, Code: response.CodeBadRequest, Key: "error.coupon_usage_limit"},
	{Target: service.ErrCouponPerUserLimit, Code: response.CodeBadRequest, Key: "error.coupon_per_user_limit"},
	{Target: service.ErrCouponMinAmount, Code: response.CodeBadRequest, Key: "error.coupon_min_amount"},
	{Target: service.ErrCouponInvalid, Code: response.CodeBadRequest, Key: "error.coupon_code_required"},
	{Target: service.ErrCartValueInvalid, Code: response.CodeBadRequest, Key: "error.cart_value_invalid"},
}

// respondCouponRejection 最低消费提示需要带上门槛金额
func respondCouponRejection(c *gin.Context, validation *service.CouponValidation) {
	rule, ok := handlershared.MatchMappedError(validation.Reason, couponRejectionRules)
	if !ok {
		respondError(c, response.CodeInternal, "error.coupon_validate_failed", validation.Reason)
		return
	}
	if rule.Target == service.ErrCouponMinAmount {
		minValue := models.Money{}
		if validation.Coupon != nil && validation.Coupon.MinValue != nil {
			minValue = *validation.Coupon.MinValue
		}
		msg := i18n.Sprintf(i18n.ResolveLocale(c), rule.Key, minValue.String())
		handlershared.RespondErrorWithMsg(c, rule.Code, msg, nil)
		return
	}
	respondError(c, rule.Code, rule.Key, nil)
}
