package service

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/logger"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"
)

// JSONCache 统计结果缓存
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CouponStats 优惠券看板数据
type CouponStats struct {
	TotalCoupons     int64                                  `json:"totalCoupons"`
	ActiveCoupons    int64                                  `json:"activeCoupons"`
	TotalRedemptions int64                                  `json:"totalRedemptions"`
	TotalDiscount    models.Money                           `json:"totalDiscount"`
	TopCoupons       []repository.CouponRedemptionAggregate `json:"topCoupons"`
	GeneratedAt      time.Time                              `json:"generatedAt"`
}

// CouponStatsService 优惠券统计服务
type CouponStatsService struct {
	couponRepo     repository.CouponRepository
	redemptionRepo repository.CouponRedemptionRepository
	cache          JSONCache
	ttl            time.Duration
}

// NewCouponStatsService 创建统计服务，cache 可为空
func NewCouponStatsService(couponRepo repository.CouponRepository, redemptionRepo repository.CouponRedemptionRepository, cache JSONCache, ttl time.Duration) *CouponStatsService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CouponStatsService{
		couponRepo:     couponRepo,
		redemptionRepo: redemptionRepo,
		cache:          cache,
		ttl:            ttl,
	}
}

// Overview 获取看板数据，优先读缓存
func (s *CouponStatsService) Overview(ctx context.Context) (*CouponStats, error) {
	if s.cache != nil {
		var cached CouponStats
		hit, err := s.cache.GetJSON(ctx, constants.CacheKeyCouponStats, &cached)
		if err != nil {
			logger.Warnw("coupon_stats_cache_read_failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	counts, err := s.couponRepo.CountSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}
	summary, err := s.redemptionRepo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("summarize redemptions: %w", err)
	}
	top, err := s.redemptionRepo.TopCoupons(ctx, constants.CouponStatsTopLimit)
	if err != nil {
		return nil, fmt.Errorf("load top coupons: %w", err)
	}
	if top == nil {
		top = []repository.CouponRedemptionAggregate{}
	}

	stats := &CouponStats{
		TotalCoupons:     counts.Total,
		ActiveCoupons:    counts.Active,
		TotalRedemptions: summary.Redemptions,
		TotalDiscount:    summary.DiscountTotal,
		TopCoupons:       top,
		GeneratedAt:      time.Now().UTC(),
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, constants.CacheKeyCouponStats, stats, s.ttl); err != nil {
			logger.Warnw("coupon_stats_cache_write_failed", "error", err)
		}
	}
	return stats, nil
}

// Invalidate 清除看板缓存
func (s *CouponStatsService) Invalidate(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, constants.CacheKeyCouponStats); err != nil {
		logger.Warnw("coupon_stats_cache_invalidate_failed", "error", err)
	}
}
