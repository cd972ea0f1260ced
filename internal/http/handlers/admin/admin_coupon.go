package admin

import (
	"context"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/vitrine-next/internal/http/handlers/shared"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CouponRequest 创建/更新优惠券请求，更新为整体替换
type CouponRequest struct {
	Code           string        `json:"code"`
	Type           string        `json:"type"`
	Value          *models.Money `json:"value"`
	MinValue       *models.Money `json:"minValue"`
	MaxUses        *int          `json:"maxUses"`
	MaxUsesPerUser *int          `json:"maxUsesPerUser"`
	Active         *bool         `json:"active"`
	StartsAt       *time.Time    `json:"startsAt"`
	ExpiresAt      *time.Time    `json:"expiresAt"`
	Description    string        `json:"description"`
}

func (r CouponRequest) toInput() service.CouponInput {
	input := service.CouponInput{
		Code:           r.Code,
		Type:           r.Type,
		MinValue:       r.MinValue,
		MaxUses:        r.MaxUses,
		MaxUsesPerUser: r.MaxUsesPerUser,
		Active:         r.Active,
		StartsAt:       r.StartsAt,
		ExpiresAt:      r.ExpiresAt,
		Description:    r.Description,
	}
	if r.Value != nil {
		input.Value = *r.Value
	}
	return input
}

// SetCouponActiveRequest 启用/停用请求
type SetCouponActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *Handler) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.Config.Coupon.StoreTimeout())
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.CouponListFilter{
		Code:     c.Query("code"),
		Search:   c.Query("search"),
		Type:     strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.Active = &active
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()
	coupons, total, err := h.CouponAdminService.List(ctx, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, "coupons", coupons, response.NewPagination(page, pageSize, total))
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(c)
	defer cancel()
	coupon, err := h.CouponAdminService.Get(ctx, id)
	if err != nil {
		respondCouponAdminError(c, err, "error.coupon_fetch_failed")
		return
	}
	response.Success(c, gin.H{"coupon": coupon})
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ctx, cancel := h.storeContext(c)
	defer cancel()
	coupon, err := h.CouponAdminService.Create(ctx, req.toInput())
	if err != nil {
		respondCouponAdminError(c, err, "error.coupon_create_failed")
		return
	}
	logger.Infow("admin_coupon_created",
		"operator_admin_id", currentAdminID(c),
		"operator_username", currentUsername(c),
		"coupon_id", coupon.ID,
		"code", coupon.Code,
	)
	response.Created(c, gin.H{"coupon": coupon})
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ctx, cancel := h.storeContext(c)
	defer cancel()
	coupon, err := h.CouponAdminService.Update(ctx, id, req.toInput())
	if err != nil {
		respondCouponAdminError(c, err, "error.coupon_update_failed")
		return
	}
	logger.Infow("admin_coupon_updated",
		"operator_admin_id", currentAdminID(c),
		"coupon_id", coupon.ID,
		"code", coupon.Code,
	)
	response.Success(c, gin.H{"coupon": coupon})
}

// SetCouponActive 启用/停用优惠券
func (h *Handler) SetCouponActive(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	ctx, cancel := h.storeContext(c)
	defer cancel()
	coupon, err := h.CouponAdminService.SetActive(ctx, id, *req.Active)
	if err != nil {
		respondCouponAdminError(c, err, "error.coupon_update_failed")
		return
	}
	logger.Infow("admin_coupon_toggled",
		"operator_admin_id", currentAdminID(c),
		"coupon_id", coupon.ID,
		"active", coupon.Active,
	)
	response.Success(c, gin.H{"coupon": coupon})
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	ctx, cancel := h.storeContext(c)
	defer cancel()
	if err := h.CouponAdminService.Delete(ctx, id); err != nil {
		respondCouponAdminError(c, err, "error.coupon_delete_failed")
		return
	}
	logger.Infow("admin_coupon_deleted",
		"operator_admin_id", currentAdminID(c),
		"coupon_id", id,
	)
	response.Success(c, gin.H{"id": id})
}

// GetCouponStats 优惠券看板
func (h *Handler) GetCouponStats(c *gin.Context) {
	ctx, cancel := h.storeContext(c)
	defer cancel()
	stats, err := h.CouponStatsService.Overview(ctx)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_stats_failed", err)
		return
	}
	response.Success(c, gin.H{"stats": stats})
}
