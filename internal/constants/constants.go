package constants

// 优惠券类型常量
const (
	CouponTypePercentage   = "PERCENTAGE"
	CouponTypeFixed        = "FIXED"
	CouponTypeFreeShipping = "FREE_SHIPPING"
)

// 优惠券默认值
const (
	DefaultCouponMaxUsesPerUser = 1
	CouponCodeMaxLength         = 64
	CouponStatsTopLimit         = 5
)

// 校验结果标签（用于指标）
const (
	CouponResultValid        = "valid"
	CouponResultNotFound     = "not_found"
	CouponResultInactive     = "inactive"
	CouponResultNotStarted   = "not_started"
	CouponResultExpired      = "expired"
	CouponResultExhausted    = "exhausted"
	CouponResultPerUserLimit = "per_user_limit"
	CouponResultBelowMinimum = "below_minimum"
	CouponResultInvalid      = "invalid"
	CouponResultError        = "error"
)

// 核销结果标签
const (
	RedemptionResultRecorded = "recorded"
	RedemptionResultReplayed = "replayed"
	RedemptionResultRejected = "rejected"
	RedemptionResultRevoked  = "revoked"
	RedemptionResultError    = "error"
	RedemptionResultQueued   = "queued"
)

// 上下文键
const (
	ContextKeyRequestID  = "request_id"
	ContextKeyAdminID    = "admin_id"
	ContextKeyAdminName  = "username"
	ContextKeyAdminRoles = "admin_roles"
	ContextKeyAdminSuper = "admin_is_super"
	ContextKeyUserID     = "user_id"
)

// 缓存键
const (
	CacheKeyCouponStats = "coupon:stats:overview"
)

// 队列与任务
const (
	QueueDefault  = "default"
	QueueCritical = "critical"

	TaskCouponRedeem = "coupon:redeem"
	TaskCouponRevoke = "coupon:revoke"
)
