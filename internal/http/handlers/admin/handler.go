package admin

import "github.com/vitrine-next/internal/provider"

// Handler 管理端接口：优惠券维护、核销台账与权限管理
type Handler struct {
	*provider.Container
}

func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
