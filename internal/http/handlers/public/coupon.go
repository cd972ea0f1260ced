package public

import (
	"context"

	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateCouponRequest 校验优惠券请求
type ValidateCouponRequest struct {
	Code      string        `json:"code"`
	CartValue *models.Money `json:"cartValue"`
}

// CouponView 前台可见的优惠券字段
type CouponView struct {
	Code        string       `json:"code"`
	Type        string       `json:"type"`
	Value       models.Money `json:"value"`
	Description string       `json:"description"`
}

// ValidateCoupon 校验优惠券并返回本单可抵扣金额（不核销）
func (h *Handler) ValidateCoupon(c *gin.Context) {
	var req ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if req.CartValue == nil {
		respondError(c, response.CodeBadRequest, "error.cart_value_invalid", nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.storeTimeout)
	defer cancel()

	validation, err := h.coupons.Validate(ctx, service.ValidateCouponInput{
		Code:      req.Code,
		CartValue: *req.CartValue,
		UserID:    optionalUserID(c),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_validate_failed", err)
		return
	}
	if !validation.Valid() {
		respondCouponRejection(c, validation)
		return
	}

	coupon := validation.Coupon
	response.Success(c, gin.H{
		"coupon": CouponView{
			Code:        coupon.Code,
			Type:        coupon.Type,
			Value:       coupon.Value,
			Description: coupon.Description,
		},
		"discount": validation.Discount,
	})
}
