package public

import (
	"time"

	"github.com/vitrine-next/internal/provider"
	"github.com/vitrine-next/internal/service"
)

// Handler 店铺前台接口，只依赖优惠券校验
type Handler struct {
	coupons      *service.CouponService
	storeTimeout time.Duration
}

// New 从容器取出前台需要的依赖
func New(c *provider.Container) *Handler {
	return &Handler{
		coupons:      c.CouponService,
		storeTimeout: c.Config.Coupon.StoreTimeout(),
	}
}
