package queue

import (
	"encoding/json"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/models"

	"github.com/hibiken/asynq"
)

const (
	// TaskCouponRedeem 优惠券核销任务
	TaskCouponRedeem = constants.TaskCouponRedeem
	// TaskCouponRevoke 撤销核销任务
	TaskCouponRevoke = constants.TaskCouponRevoke
)

// CouponRedeemPayload 核销任务载荷
type CouponRedeemPayload struct {
	Code     string       `json:"code"`
	UserID   uint         `json:"user_id"`
	OrderRef string       `json:"order_ref"`
	Discount models.Money `json:"discount"`
}

// CouponRevokePayload 撤销任务载荷
type CouponRevokePayload struct {
	OrderRef string `json:"order_ref"`
}

// NewCouponRedeemTask 创建核销任务
func NewCouponRedeemTask(payload CouponRedeemPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponRedeem, body), nil
}

// NewCouponRevokeTask 创建撤销任务
func NewCouponRevokeTask(payload CouponRevokePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponRevoke, body), nil
}
