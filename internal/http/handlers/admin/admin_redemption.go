package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/vitrine-next/internal/constants"
	handlershared "github.com/vitrine-next/internal/http/handlers/shared"
	"github.com/vitrine-next/internal/http/response"
	"github.com/vitrine-next/internal/metrics"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/queue"
	"github.com/vitrine-next/internal/repository"
	"github.com/vitrine-next/internal/service"

	"github.com/gin-gonic/gin"
)

// RecordRedemptionRequest 订单系统回写核销
type RecordRedemptionRequest struct {
	Code     string        `json:"code"`
	UserID   uint          `json:"user_id"`
	OrderRef string        `json:"order_ref"`
	Discount *models.Money `json:"discount"`
	Async    bool          `json:"async"`
}

// ListCouponRedemptions 核销记录列表
func (h *Handler) ListCouponRedemptions(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.CouponRedemptionListFilter{
		OrderRef: strings.TrimSpace(c.Query("order_ref")),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("coupon_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.CouponID = uint(id)
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.UserID = uint(id)
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()
	redemptions, total, err := h.CouponAdminService.ListRedemptions(ctx, filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.coupon_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, "redemptions", redemptions, response.NewPagination(page, pageSize, total))
}

// RecordCouponRedemption 核销优惠券；async=true 且队列可用时异步处理
func (h *Handler) RecordCouponRedemption(c *gin.Context) {
	var req RecordRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	discount := models.Money{}
	if req.Discount != nil {
		discount = *req.Discount
	}

	if req.Async && h.QueueClient.Enabled() {
		taskID, err := h.QueueClient.EnqueueCouponRedeem(queue.CouponRedeemPayload{
			Code:     req.Code,
			UserID:   req.UserID,
			OrderRef: req.OrderRef,
			Discount: discount,
		})
		if respondEnqueued(c, "admin_coupon_redemption_queued", req.OrderRef, taskID, err) {
			metrics.RecordCouponRedemption(constants.RedemptionResultQueued)
		}
		return
	}

	// 同步核销的事务不受 store_timeout 限制，避免请求超时导致回滚后重试
	result, err := h.CouponService.RecordRedemption(c.Request.Context(), service.RedeemCouponInput{
		Code:     req.Code,
		UserID:   req.UserID,
		OrderRef: req.OrderRef,
		Discount: discount,
	})
	if err != nil {
		respondRedemptionError(c, err)
		return
	}
	body := gin.H{
		"redemption": result.Redemption,
		"coupon":     result.Coupon,
		"replayed":   result.Replayed,
	}
	if result.Replayed {
		response.Success(c, body)
		return
	}
	response.Created(c, body)
}

// RevokeCouponRedemption 撤销订单的核销记录
func (h *Handler) RevokeCouponRedemption(c *gin.Context) {
	orderRef := strings.TrimSpace(c.Param("order_ref"))
	if orderRef == "" {
		respondError(c, response.CodeBadRequest, "error.redemption_invalid", nil)
		return
	}

	if c.Query("async") == "true" && h.QueueClient.Enabled() {
		taskID, err := h.QueueClient.EnqueueCouponRevoke(queue.CouponRevokePayload{OrderRef: orderRef})
		respondEnqueued(c, "admin_coupon_revoke_queued", orderRef, taskID, err)
		return
	}

	revoked, err := h.CouponService.RevokeRedemption(c.Request.Context(), orderRef)
	if err != nil {
		respondRedemptionError(c, err)
		return
	}
	requestLog(c).Infow("admin_coupon_redemption_revoked",
		"operator_admin_id", currentAdminID(c),
		"order_ref", orderRef,
		"revoked", revoked,
	)
	response.Success(c, gin.H{"orderRef": orderRef, "revoked": revoked})
}

// respondEnqueued 输出入队结果，返回 true 表示新任务已入队。
// 同一订单的任务仍在队列中时返回 200 与 duplicate 标记，本次请求不会再次执行。
func respondEnqueued(c *gin.Context, event, orderRef, taskID string, err error) bool {
	switch {
	case errors.Is(err, queue.ErrTaskDuplicate):
		requestLog(c).Warnw(event+"_duplicate",
			"order_ref", orderRef,
			"task_id", taskID,
		)
		response.Success(c, gin.H{"queued": false, "duplicate": true, "taskId": taskID})
		return false
	case err != nil:
		respondError(c, response.CodeInternal, "error.redemption_failed", err)
		return false
	}
	requestLog(c).Infow(event,
		"order_ref", orderRef,
		"task_id", taskID,
	)
	response.Accepted(c, gin.H{"queued": true, "taskId": taskID})
	return true
}
