package repository

import (
	"time"

	"github.com/vitrine-next/internal/models"
)

// CouponListFilter 优惠券列表筛选
type CouponListFilter struct {
	Code     string
	Search   string
	Type     string
	Active   *bool
	Page     int
	PageSize int
}

// CouponRedemptionListFilter 核销记录筛选
type CouponRedemptionListFilter struct {
	CouponID uint
	UserID   uint
	OrderRef string
	Page     int
	PageSize int
}

// CouponCountSummary 优惠券数量汇总
type CouponCountSummary struct {
	Total  int64
	Active int64
}

// CouponRedemptionSummary 核销汇总
type CouponRedemptionSummary struct {
	Redemptions   int64        `gorm:"column:redemptions"`
	DiscountTotal models.Money `gorm:"column:discount_total"`
}

// CouponRedemptionAggregate 单个优惠券的核销聚合
type CouponRedemptionAggregate struct {
	CouponID      uint         `gorm:"column:coupon_id" json:"couponId"`
	Code          string       `gorm:"column:code" json:"code"`
	Redemptions   int64        `gorm:"column:redemptions" json:"redemptions"`
	DiscountTotal models.Money `gorm:"column:discount_total" json:"discountTotal"`
}

// AuthzAuditLogListFilter 权限审计筛选
type AuthzAuditLogListFilter struct {
	OperatorAdminID uint
	TargetAdminID   uint
	Action          string
	Role            string
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Page            int
	PageSize        int
}
