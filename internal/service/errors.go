package service

import "errors"

// 优惠券业务规则错误：校验失败时作为 CouponValidation.Reason 返回，不属于系统异常
var (
	ErrCouponInvalid      = errors.New("coupon code is required")
	ErrCouponNotFound     = errors.New("coupon not found")
	ErrCouponInactive     = errors.New("coupon is inactive")
	ErrCouponNotStarted   = errors.New("coupon is not yet valid")
	ErrCouponExpired      = errors.New("coupon has expired")
	ErrCouponUsageLimit   = errors.New("coupon usage limit reached")
	ErrCouponPerUserLimit = errors.New("coupon per-user limit reached")
	ErrCouponMinAmount    = errors.New("cart value below coupon minimum")
	ErrCartValueInvalid   = errors.New("cart value must be a non-negative amount")
)

// 优惠券管理错误
var (
	ErrCouponCodeExists    = errors.New("coupon code already exists")
	ErrCouponCodeInvalid   = errors.New("coupon code format is invalid")
	ErrCouponTypeInvalid   = errors.New("coupon type is invalid")
	ErrCouponValueInvalid  = errors.New("coupon value is invalid")
	ErrCouponLimitInvalid  = errors.New("coupon usage limits are invalid")
	ErrCouponWindowInvalid = errors.New("coupon validity window is invalid")
)

// 核销错误
var (
	ErrRedemptionInvalid  = errors.New("redemption input is invalid")
	ErrRedemptionNotFound = errors.New("redemption not found")
)

// ErrCouponRecordCorrupt 库中记录无法参与计算，按系统异常处理
var ErrCouponRecordCorrupt = errors.New("coupon record is malformed")

var couponRejections = []error{
	ErrCouponInvalid,
	ErrCouponNotFound,
	ErrCouponInactive,
	ErrCouponNotStarted,
	ErrCouponExpired,
	ErrCouponUsageLimit,
	ErrCouponPerUserLimit,
	ErrCouponMinAmount,
	ErrCartValueInvalid,
	ErrRedemptionInvalid,
	ErrRedemptionNotFound,
}

// IsCouponRejection 判断是否为业务规则拒绝（不应重试）
func IsCouponRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range couponRejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
