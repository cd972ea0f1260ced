package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/provider"
	"github.com/vitrine-next/internal/queue"
	"github.com/vitrine-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCouponRedeem, c.handleCouponRedeem)
	mux.HandleFunc(queue.TaskCouponRevoke, c.handleCouponRevoke)
}

// handleCouponRedeem 业务拒绝直接丢弃，系统异常返回给 asynq 重试
func (c *Consumer) handleCouponRedeem(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_redeem_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponRedeemPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_redeem_unmarshal_failed", "error", err)
		return fmt.Errorf("decode coupon redeem payload: %v: %w", err, asynq.SkipRetry)
	}
	if strings.TrimSpace(payload.Code) == "" {
		logger.Debugw("worker_coupon_redeem_skip_invalid_payload", "order_ref", payload.OrderRef)
		return nil
	}
	if c.CouponService == nil {
		logger.Warnw("worker_coupon_redeem_skip_service_nil", "code", payload.Code)
		return nil
	}

	result, err := c.CouponService.RecordRedemption(ctx, service.RedeemCouponInput{
		Code:     payload.Code,
		UserID:   payload.UserID,
		OrderRef: payload.OrderRef,
		Discount: payload.Discount,
	})
	if err != nil {
		if service.IsCouponRejection(err) {
			logger.Infow("worker_coupon_redeem_rejected",
				"code", payload.Code,
				"order_ref", payload.OrderRef,
				"user_id", payload.UserID,
				"reason", err.Error(),
			)
			return nil
		}
		logger.Warnw("worker_coupon_redeem_failed",
			"code", payload.Code,
			"order_ref", payload.OrderRef,
			"error", err,
		)
		return err
	}
	logger.Debugw("worker_coupon_redeem_done",
		"code", result.Coupon.Code,
		"order_ref", payload.OrderRef,
		"replayed", result.Replayed,
		"used_count", result.Coupon.UsedCount,
	)
	return nil
}

func (c *Consumer) handleCouponRevoke(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_coupon_revoke_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.CouponRevokePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_coupon_revoke_unmarshal_failed", "error", err)
		return fmt.Errorf("decode coupon revoke payload: %v: %w", err, asynq.SkipRetry)
	}
	if c.CouponService == nil {
		logger.Warnw("worker_coupon_revoke_skip_service_nil", "order_ref", payload.OrderRef)
		return nil
	}
	revoked, err := c.CouponService.RevokeRedemption(ctx, payload.OrderRef)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRedemptionNotFound):
			logger.Debugw("worker_coupon_revoke_skip_not_found", "order_ref", payload.OrderRef)
			return nil
		case errors.Is(err, service.ErrRedemptionInvalid):
			logger.Debugw("worker_coupon_revoke_skip_invalid_payload", "order_ref", payload.OrderRef)
			return nil
		default:
			logger.Warnw("worker_coupon_revoke_failed", "order_ref", payload.OrderRef, "error", err)
			return err
		}
	}
	logger.Debugw("worker_coupon_revoke_done", "order_ref", payload.OrderRef, "revoked", revoked)
	return nil
}
