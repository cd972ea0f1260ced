package models

import "time"

// CouponRedemption 优惠券核销记录（按用户统计使用次数）
type CouponRedemption struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	CouponID  uint      `gorm:"index;uniqueIndex:idx_coupon_redemption_order;not null" json:"couponId"` // 优惠券ID
	Code      string    `gorm:"size:64;not null" json:"code"`                                          // 核销时的优惠码
	UserID    uint      `gorm:"index;not null;default:0" json:"userId"`                                // 用户ID（0 表示匿名）
	OrderRef  *string   `gorm:"size:128;uniqueIndex:idx_coupon_redemption_order" json:"orderRef"`      // 外部订单号
	Discount  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount"`                 // 优惠金额
	CreatedAt time.Time `gorm:"index" json:"createdAt"`                                                // 创建时间
}

// TableName 指定表名
func (CouponRedemption) TableName() string {
	return "coupon_redemptions"
}
