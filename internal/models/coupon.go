package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID             uint       `gorm:"primarykey" json:"id"`                               // 主键
	Code           string     `gorm:"uniqueIndex;size:64;not null" json:"code"`           // 优惠码（大写）
	Type           string     `gorm:"size:32;not null" json:"type"`                       // 类型（PERCENTAGE/FIXED/FREE_SHIPPING）
	Value          Money      `gorm:"type:decimal(20,2);not null;default:0" json:"value"` // 数值（百分比或固定金额）
	MinValue       *Money     `gorm:"type:decimal(20,2)" json:"minValue"`                 // 最低订单金额（空表示不限制）
	MaxUses        *int       `json:"maxUses"`                                            // 总使用上限（空表示不限制）
	UsedCount      int        `gorm:"not null;default:0" json:"usedCount"`                // 已使用次数
	MaxUsesPerUser *int       `json:"maxUsesPerUser"`                                     // 每人使用上限（空表示不限制）
	Active         bool       `gorm:"not null" json:"active"`                             // 是否启用
	StartsAt       *time.Time `gorm:"index" json:"startsAt"`                              // 生效时间（含）
	ExpiresAt      *time.Time `gorm:"index" json:"expiresAt"`                             // 失效时间（不含）
	Description    string     `gorm:"type:text" json:"description"`                       // 展示文案
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`                             // 创建时间
	UpdatedAt      time.Time  `json:"updatedAt"`                                          // 更新时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}

// BeforeSave 统一优惠码格式
func (c *Coupon) BeforeSave(tx *gorm.DB) error {
	c.Code = NormalizeCouponCode(c.Code)
	return nil
}

// NormalizeCouponCode 去除首尾空白并转为大写
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HasUsageCap 是否设置了总使用上限
func (c *Coupon) HasUsageCap() bool {
	return c.MaxUses != nil && *c.MaxUses > 0
}

// HasPerUserCap 是否设置了每人使用上限
func (c *Coupon) HasPerUserCap() bool {
	return c.MaxUsesPerUser != nil && *c.MaxUsesPerUser > 0
}

// HasMinValue 是否设置了最低订单金额
func (c *Coupon) HasMinValue() bool {
	return c.MinValue != nil
}
