package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"

	"github.com/shopspring/decimal"
)

var couponCodePattern = regexp.MustCompile(`^[A-Z0-9_-]{3,64}$`)

// CouponAdminService 优惠券管理服务
type CouponAdminService struct {
	repo           repository.CouponRepository
	redemptionRepo repository.CouponRedemptionRepository
	stats          *CouponStatsService
}

// NewCouponAdminService 创建优惠券管理服务
func NewCouponAdminService(repo repository.CouponRepository, redemptionRepo repository.CouponRedemptionRepository, stats *CouponStatsService) *CouponAdminService {
	return &CouponAdminService{repo: repo, redemptionRepo: redemptionRepo, stats: stats}
}

// CouponInput 创建/更新优惠券输入。
// MaxUsesPerUser 为空时创建默认 1，传 0 表示不限制；MaxUses 传 0 或空表示不限制。
type CouponInput struct {
	Code           string
	Type           string
	Value          models.Money
	MinValue       *models.Money
	MaxUses        *int
	MaxUsesPerUser *int
	Active         *bool
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	Description    string
}

type normalizedCouponInput struct {
	code           string
	couponType     string
	value          models.Money
	minValue       *models.Money
	maxUses        *int
	maxUsesPerUser *int
}

// Create 创建优惠券
func (s *CouponAdminService) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if input.MaxUsesPerUser == nil {
		perUser := constants.DefaultCouponMaxUsesPerUser
		input.MaxUsesPerUser = &perUser
	}
	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCodeAvailable(ctx, normalized.code, 0); err != nil {
		return nil, err
	}

	active := true
	if input.Active != nil {
		active = *input.Active
	}
	coupon := &models.Coupon{
		Code:           normalized.code,
		Type:           normalized.couponType,
		Value:          normalized.value,
		MinValue:       normalized.minValue,
		MaxUses:        normalized.maxUses,
		MaxUsesPerUser: normalized.maxUsesPerUser,
		Active:         active,
		StartsAt:       input.StartsAt,
		ExpiresAt:      input.ExpiresAt,
		Description:    strings.TrimSpace(input.Description),
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		// 并发创建同码时唯一索引兜底
		if dup, lookupErr := s.repo.GetByCode(ctx, normalized.code); lookupErr == nil && dup != nil {
			return nil, ErrCouponCodeExists
		}
		return nil, fmt.Errorf("create coupon %s: %w", normalized.code, err)
	}
	s.stats.Invalidate(ctx)
	return coupon, nil
}

// Update 更新优惠券（整体替换，Active 为空时保持不变）
func (s *CouponAdminService) Update(ctx context.Context, id uint, input CouponInput) (*models.Coupon, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	normalized, err := normalizeCouponInput(input)
	if err != nil {
		return nil, err
	}
	if normalized.code != existing.Code {
		if err := s.ensureCodeAvailable(ctx, normalized.code, existing.ID); err != nil {
			return nil, err
		}
	}

	existing.Code = normalized.code
	existing.Type = normalized.couponType
	existing.Value = normalized.value
	existing.MinValue = normalized.minValue
	existing.MaxUses = normalized.maxUses
	existing.MaxUsesPerUser = normalized.maxUsesPerUser
	existing.StartsAt = input.StartsAt
	existing.ExpiresAt = input.ExpiresAt
	existing.Description = strings.TrimSpace(input.Description)
	if input.Active != nil {
		existing.Active = *input.Active
	}

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update coupon %d: %w", id, err)
	}
	s.stats.Invalidate(ctx)
	return existing, nil
}

// SetActive 启用/停用优惠券
func (s *CouponAdminService) SetActive(ctx context.Context, id uint, active bool) (*models.Coupon, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Active == active {
		return existing, nil
	}
	existing.Active = active
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("toggle coupon %d: %w", id, err)
	}
	s.stats.Invalidate(ctx)
	return existing, nil
}

// Delete 删除优惠券
func (s *CouponAdminService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete coupon %d: %w", id, err)
	}
	s.stats.Invalidate(ctx)
	return nil
}

// Get 获取优惠券详情
func (s *CouponAdminService) Get(ctx context.Context, id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load coupon %d: %w", id, err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List 获取优惠券列表
func (s *CouponAdminService) List(ctx context.Context, filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.repo.List(ctx, filter)
}

// ListRedemptions 获取核销记录
func (s *CouponAdminService) ListRedemptions(ctx context.Context, filter repository.CouponRedemptionListFilter) ([]models.CouponRedemption, int64, error) {
	return s.redemptionRepo.List(ctx, filter)
}

func (s *CouponAdminService) ensureCodeAvailable(ctx context.Context, code string, selfID uint) error {
	existing, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("check coupon code %s: %w", code, err)
	}
	if existing != nil && existing.ID != selfID {
		return ErrCouponCodeExists
	}
	return nil
}

func normalizeCouponInput(input CouponInput) (*normalizedCouponInput, error) {
	code := models.NormalizeCouponCode(input.Code)
	if code == "" {
		return nil, ErrCouponInvalid
	}
	if !couponCodePattern.MatchString(code) {
		return nil, ErrCouponCodeInvalid
	}

	couponType := strings.ToUpper(strings.TrimSpace(input.Type))
	value := models.NewMoneyFromDecimal(input.Value.Decimal)
	switch couponType {
	case constants.CouponTypePercentage:
		if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
			return nil, ErrCouponValueInvalid
		}
	case constants.CouponTypeFixed:
		if value.IsNegative() {
			return nil, ErrCouponValueInvalid
		}
	case constants.CouponTypeFreeShipping:
		value = models.NewMoneyFromDecimal(decimal.Zero)
	default:
		return nil, ErrCouponTypeInvalid
	}

	var minValue *models.Money
	if input.MinValue != nil {
		if input.MinValue.IsNegative() {
			return nil, ErrCouponValueInvalid
		}
		minValue = models.MoneyPtr(models.NewMoneyFromDecimal(input.MinValue.Decimal))
	}

	maxUses, err := normalizeOptionalLimit(input.MaxUses)
	if err != nil {
		return nil, err
	}
	maxUsesPerUser, err := normalizeOptionalLimit(input.MaxUsesPerUser)
	if err != nil {
		return nil, err
	}

	if input.StartsAt != nil && input.ExpiresAt != nil && !input.ExpiresAt.After(*input.StartsAt) {
		return nil, ErrCouponWindowInvalid
	}

	return &normalizedCouponInput{
		code:           code,
		couponType:     couponType,
		value:          value,
		minValue:       minValue,
		maxUses:        maxUses,
		maxUsesPerUser: maxUsesPerUser,
	}, nil
}

// normalizeOptionalLimit 0 视为不限制，负数非法
func normalizeOptionalLimit(limit *int) (*int, error) {
	if limit == nil || *limit == 0 {
		return nil, nil
	}
	if *limit < 0 {
		return nil, ErrCouponLimitInvalid
	}
	v := *limit
	return &v, nil
}
