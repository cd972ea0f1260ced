package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/metrics"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// CouponService 优惠券校验与核销服务
type CouponService struct {
	couponRepo     repository.CouponRepository
	redemptionRepo repository.CouponRedemptionRepository
	stats          *CouponStatsService
	now            func() time.Time
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, redemptionRepo repository.CouponRedemptionRepository, stats *CouponStatsService) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		stats:          stats,
		now:            time.Now,
	}
}

// ValidateCouponInput 校验输入
type ValidateCouponInput struct {
	Code      string
	CartValue models.Money
	UserID    uint
}

// CouponValidation 校验结果，Reason 为空表示可用
type CouponValidation struct {
	Coupon   *models.Coupon
	Discount models.Money
	Reason   error
}

// Valid 是否通过校验
func (v *CouponValidation) Valid() bool {
	return v != nil && v.Reason == nil
}

func rejectCoupon(coupon *models.Coupon, reason error) *CouponValidation {
	return &CouponValidation{Coupon: coupon, Reason: reason}
}

// Validate 校验优惠券并计算优惠金额，无副作用。
// 业务规则不满足时返回 Reason，error 仅表示查库等系统异常。
func (s *CouponService) Validate(ctx context.Context, input ValidateCouponInput) (*CouponValidation, error) {
	result, err := s.validate(ctx, input)
	switch {
	case err != nil:
		metrics.RecordCouponValidation(constants.CouponResultError)
	case result.Valid():
		metrics.RecordCouponValidation(constants.CouponResultValid)
	default:
		metrics.RecordCouponValidation(rejectionLabel(result.Reason))
	}
	return result, err
}

func (s *CouponService) validate(ctx context.Context, input ValidateCouponInput) (*CouponValidation, error) {
	code := models.NormalizeCouponCode(input.Code)
	if code == "" {
		return rejectCoupon(nil, ErrCouponInvalid), nil
	}
	if input.CartValue.IsNegative() {
		return rejectCoupon(nil, ErrCartValueInvalid), nil
	}

	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("load coupon %s: %w", code, err)
	}
	if coupon == nil {
		return rejectCoupon(nil, ErrCouponNotFound), nil
	}

	if reason := checkCouponAvailability(coupon, s.clock()); reason != nil {
		return rejectCoupon(coupon, reason), nil
	}

	if coupon.HasPerUserCap() && input.UserID != 0 {
		count, err := s.redemptionRepo.CountByUser(ctx, coupon.ID, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("count redemptions of %s for user %d: %w", code, input.UserID, err)
		}
		if count >= int64(*coupon.MaxUsesPerUser) {
			return rejectCoupon(coupon, ErrCouponPerUserLimit), nil
		}
	}

	if coupon.HasMinValue() && input.CartValue.LessThan(coupon.MinValue.Decimal) {
		return rejectCoupon(coupon, ErrCouponMinAmount), nil
	}

	discount, err := calculateDiscount(coupon, input.CartValue)
	if err != nil {
		return nil, err
	}
	return &CouponValidation{Coupon: coupon, Discount: discount}, nil
}

// checkCouponAvailability 依次检查启用状态、生效窗口 [startsAt, expiresAt) 与总次数
func checkCouponAvailability(coupon *models.Coupon, now time.Time) error {
	if !coupon.Active {
		return ErrCouponInactive
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return ErrCouponNotStarted
	}
	if coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt) {
		return ErrCouponExpired
	}
	if coupon.HasUsageCap() && coupon.UsedCount >= *coupon.MaxUses {
		return ErrCouponUsageLimit
	}
	return nil
}

// calculateDiscount 计算优惠金额并限制不超过购物车金额
func calculateDiscount(coupon *models.Coupon, cartValue models.Money) (models.Money, error) {
	if coupon.Value.IsNegative() {
		return models.Money{}, fmt.Errorf("%w: coupon %s has negative value", ErrCouponRecordCorrupt, coupon.Code)
	}

	var discount models.Money
	switch strings.ToUpper(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypePercentage:
		discount = models.NewMoneyFromDecimal(cartValue.Mul(coupon.Value.Div(hundred)))
	case constants.CouponTypeFixed:
		discount = models.NewMoneyFromDecimal(coupon.Value.Decimal)
	case constants.CouponTypeFreeShipping:
		discount = models.NewMoneyFromDecimal(decimal.Zero)
	default:
		return models.Money{}, fmt.Errorf("%w: coupon %s has unknown type %q", ErrCouponRecordCorrupt, coupon.Code, coupon.Type)
	}

	if discount.GreaterThan(cartValue.Decimal) {
		discount = models.NewMoneyFromDecimal(cartValue.Decimal)
	}
	return discount, nil
}

// RedeemCouponInput 核销输入
type RedeemCouponInput struct {
	Code     string
	UserID   uint
	OrderRef string
	Discount models.Money
}

// RedemptionResult 核销结果，Replayed 表示同一订单重复提交
type RedemptionResult struct {
	Redemption *models.CouponRedemption
	Coupon     *models.Coupon
	Replayed   bool
}

// RecordRedemption 订单确认后核销优惠券，used_count 原子 +1。
// 同一订单号重复核销直接返回已有记录，不会二次计数。
func (s *CouponService) RecordRedemption(ctx context.Context, input RedeemCouponInput) (*RedemptionResult, error) {
	result, err := s.recordRedemption(ctx, input)
	switch {
	case err == nil && result.Replayed:
		metrics.RecordCouponRedemption(constants.RedemptionResultReplayed)
	case err == nil:
		metrics.RecordCouponRedemption(constants.RedemptionResultRecorded)
		s.invalidateStats(ctx)
	case IsCouponRejection(err):
		metrics.RecordCouponRedemption(constants.RedemptionResultRejected)
	default:
		metrics.RecordCouponRedemption(constants.RedemptionResultError)
	}
	return result, err
}

func (s *CouponService) recordRedemption(ctx context.Context, input RedeemCouponInput) (*RedemptionResult, error) {
	code := models.NormalizeCouponCode(input.Code)
	if code == "" {
		return nil, ErrCouponInvalid
	}
	if input.Discount.IsNegative() {
		return nil, ErrRedemptionInvalid
	}
	orderRef := strings.TrimSpace(input.OrderRef)

	var result *RedemptionResult
	err := s.couponRepo.Transaction(ctx, func(tx *gorm.DB) error {
		couponRepo := s.couponRepo.WithTx(tx)
		redemptionRepo := s.redemptionRepo.WithTx(tx)

		coupon, err := couponRepo.GetByCodeForUpdate(ctx, code)
		if err != nil {
			return fmt.Errorf("lock coupon %s: %w", code, err)
		}
		if coupon == nil {
			return ErrCouponNotFound
		}

		if orderRef != "" {
			existing, err := redemptionRepo.GetByOrderRef(ctx, coupon.ID, orderRef)
			if err != nil {
				return fmt.Errorf("load redemption %s/%s: %w", code, orderRef, err)
			}
			if existing != nil {
				result = &RedemptionResult{Redemption: existing, Coupon: coupon, Replayed: true}
				return nil
			}
		}

		if coupon.HasPerUserCap() && input.UserID != 0 {
			count, err := redemptionRepo.CountByUser(ctx, coupon.ID, input.UserID)
			if err != nil {
				return fmt.Errorf("count redemptions of %s for user %d: %w", code, input.UserID, err)
			}
			if count >= int64(*coupon.MaxUsesPerUser) {
				return ErrCouponPerUserLimit
			}
		}

		ok, err := couponRepo.IncrementUsedCountIfAvailable(ctx, coupon.ID)
		if err != nil {
			return fmt.Errorf("increment used count of %s: %w", code, err)
		}
		if !ok {
			return ErrCouponUsageLimit
		}
		coupon.UsedCount++

		redemption := &models.CouponRedemption{
			CouponID: coupon.ID,
			Code:     coupon.Code,
			UserID:   input.UserID,
			Discount: input.Discount,
		}
		if orderRef != "" {
			redemption.OrderRef = &orderRef
		}
		if err := redemptionRepo.Create(ctx, redemption); err != nil {
			return fmt.Errorf("create redemption for %s: %w", code, err)
		}
		result = &RedemptionResult{Redemption: redemption, Coupon: coupon}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeRedemption 订单取消后撤销核销，返回撤销条数
func (s *CouponService) RevokeRedemption(ctx context.Context, orderRef string) (int, error) {
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return 0, ErrRedemptionInvalid
	}

	revoked := 0
	err := s.couponRepo.Transaction(ctx, func(tx *gorm.DB) error {
		couponRepo := s.couponRepo.WithTx(tx)
		redemptionRepo := s.redemptionRepo.WithTx(tx)

		redemptions, err := redemptionRepo.ListByOrderRef(ctx, orderRef)
		if err != nil {
			return fmt.Errorf("list redemptions of %s: %w", orderRef, err)
		}
		if len(redemptions) == 0 {
			return ErrRedemptionNotFound
		}
		ids := make([]uint, 0, len(redemptions))
		for _, redemption := range redemptions {
			if err := couponRepo.DecrementUsedCount(ctx, redemption.CouponID, 1); err != nil {
				return fmt.Errorf("decrement used count of coupon %d: %w", redemption.CouponID, err)
			}
			ids = append(ids, redemption.ID)
		}
		if err := redemptionRepo.DeleteByIDs(ctx, ids); err != nil {
			return fmt.Errorf("delete redemptions of %s: %w", orderRef, err)
		}
		revoked = len(ids)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRedemptionNotFound) && !errors.Is(err, ErrRedemptionInvalid) {
			metrics.RecordCouponRedemption(constants.RedemptionResultError)
		}
		return 0, err
	}
	metrics.RecordCouponRedemption(constants.RedemptionResultRevoked)
	s.invalidateStats(ctx)
	return revoked, nil
}

func (s *CouponService) invalidateStats(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func (s *CouponService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func rejectionLabel(reason error) string {
	switch {
	case errors.Is(reason, ErrCouponNotFound):
		return constants.CouponResultNotFound
	case errors.Is(reason, ErrCouponInactive):
		return constants.CouponResultInactive
	case errors.Is(reason, ErrCouponNotStarted):
		return constants.CouponResultNotStarted
	case errors.Is(reason, ErrCouponExpired):
		return constants.CouponResultExpired
	case errors.Is(reason, ErrCouponUsageLimit):
		return constants.CouponResultExhausted
	case errors.Is(reason, ErrCouponPerUserLimit):
		return constants.CouponResultPerUserLimit
	case errors.Is(reason, ErrCouponMinAmount):
		return constants.CouponResultBelowMinimum
	default:
		return constants.CouponResultInvalid
	}
}
