package models

import (
	"errors"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/logger"

	"gorm.io/gorm"
)

// DemoCoupons 开发环境演示优惠券
func DemoCoupons(now time.Time) []Coupon {
	once := 1
	launchCap := 500
	freeShippingStart := now.Add(-24 * time.Hour)
	freeShippingEnd := now.AddDate(0, 1, 0)
	return []Coupon{
		{
			Code:           "BEMVINDO10",
			Type:           constants.CouponTypePercentage,
			Value:          MustMoney("10"),
			MaxUsesPerUser: &once,
			Active:         true,
			Description:    "10% de desconto na primeira compra",
		},
		{
			Code:        "SAVE20",
			Type:        constants.CouponTypePercentage,
			Value:       MustMoney("20"),
			MinValue:    MoneyPtr(MustMoney("50")),
			MaxUses:     &launchCap,
			Active:      true,
			Description: "20% de desconto em pedidos acima de R$ 50",
		},
		{
			Code:        "FRETEGRATIS",
			Type:        constants.CouponTypeFreeShipping,
			Value:       MustMoney("0"),
			StartsAt:    &freeShippingStart,
			ExpiresAt:   &freeShippingEnd,
			Active:      true,
			Description: "Frete grátis por tempo limitado",
		},
		{
			Code:        "DESCONTO15",
			Type:        constants.CouponTypeFixed,
			Value:       MustMoney("15"),
			MinValue:    MoneyPtr(MustMoney("100")),
			Active:      true,
			Description: "R$ 15 de desconto em pedidos acima de R$ 100",
		},
	}
}

// SeedCoupons 按优惠码写入，已存在的跳过，返回新建数量
func SeedCoupons(db *gorm.DB, coupons []Coupon) (int, error) {
	if db == nil {
		return 0, errors.New("database not initialized")
	}
	created := 0
	for i := range coupons {
		coupon := coupons[i]
		code := NormalizeCouponCode(coupon.Code)
		var existing Coupon
		err := db.Where("code = ?", code).First(&existing).Error
		if err == nil {
			logger.Infow("seed_coupon_exists", "code", code)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := db.Create(&coupon).Error; err != nil {
			return created, err
		}
		logger.Infow("seed_coupon_created", "code", code, "type", coupon.Type)
		created++
	}
	return created, nil
}
