package repository

import (
	"context"
	"errors"

	"github.com/vitrine-next/internal/models"

	"gorm.io/gorm"
)

// CouponRedemptionRepository 核销记录数据访问接口
type CouponRedemptionRepository interface {
	Create(ctx context.Context, redemption *models.CouponRedemption) error
	CountByUser(ctx context.Context, couponID, userID uint) (int64, error)
	GetByOrderRef(ctx context.Context, couponID uint, orderRef string) (*models.CouponRedemption, error)
	ListByOrderRef(ctx context.Context, orderRef string) ([]models.CouponRedemption, error)
	List(ctx context.Context, filter CouponRedemptionListFilter) ([]models.CouponRedemption, int64, error)
	DeleteByIDs(ctx context.Context, ids []uint) error
	Summary(ctx context.Context) (CouponRedemptionSummary, error)
	TopCoupons(ctx context.Context, limit int) ([]CouponRedemptionAggregate, error)
	WithTx(tx *gorm.DB) CouponRedemptionRepository
}

// GormCouponRedemptionRepository GORM 实现
type GormCouponRedemptionRepository struct {
	db *gorm.DB
}

// NewCouponRedemptionRepository 创建核销记录仓库
func NewCouponRedemptionRepository(db *gorm.DB) *GormCouponRedemptionRepository {
	return &GormCouponRedemptionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRedemptionRepository) WithTx(tx *gorm.DB) CouponRedemptionRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRedemptionRepository{db: tx}
}

// Create 写入核销记录
func (r *GormCouponRedemptionRepository) Create(ctx context.Context, redemption *models.CouponRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

// CountByUser 获取用户对某券的核销次数
func (r *GormCouponRedemptionRepository) CountByUser(ctx context.Context, couponID, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetByOrderRef 获取某券在指定订单上的核销记录
func (r *GormCouponRedemptionRepository) GetByOrderRef(ctx context.Context, couponID uint, orderRef string) (*models.CouponRedemption, error) {
	var redemption models.CouponRedemption
	err := r.db.WithContext(ctx).
		Where("coupon_id = ? AND order_ref = ?", couponID, orderRef).
		First(&redemption).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &redemption, nil
}

// ListByOrderRef 获取订单的全部核销记录
func (r *GormCouponRedemptionRepository) ListByOrderRef(ctx context.Context, orderRef string) ([]models.CouponRedemption, error) {
	var redemptions []models.CouponRedemption
	if err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).Order("id asc").Find(&redemptions).Error; err != nil {
		return nil, err
	}
	return redemptions, nil
}

// List 分页查询核销记录
func (r *GormCouponRedemptionRepository) List(ctx context.Context, filter CouponRedemptionListFilter) ([]models.CouponRedemption, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CouponRedemption{})
	if filter.CouponID > 0 {
		query = query.Where("coupon_id = ?", filter.CouponID)
	}
	if filter.UserID > 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderRef != "" {
		query = query.Where("order_ref = ?", filter.OrderRef)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var redemptions []models.CouponRedemption
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&redemptions).Error; err != nil {
		return nil, 0, err
	}
	return redemptions, total, nil
}

// DeleteByIDs 删除核销记录
func (r *GormCouponRedemptionRepository) DeleteByIDs(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.CouponRedemption{}).Error
}

// Summary 汇总核销次数与优惠总额
func (r *GormCouponRedemptionRepository) Summary(ctx context.Context) (CouponRedemptionSummary, error) {
	var summary CouponRedemptionSummary
	err := r.db.WithContext(ctx).Model(&models.CouponRedemption{}).
		Select("COUNT(*) AS redemptions, COALESCE(SUM(discount), 0) AS discount_total").
		Scan(&summary).Error
	return summary, err
}

// TopCoupons 按核销次数排序的优惠券
func (r *GormCouponRedemptionRepository) TopCoupons(ctx context.Context, limit int) ([]CouponRedemptionAggregate, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []CouponRedemptionAggregate
	err := r.db.WithContext(ctx).Model(&models.CouponRedemption{}).
		Select("coupon_id, MAX(code) AS code, COUNT(*) AS redemptions, COALESCE(SUM(discount), 0) AS discount_total").
		Group("coupon_id").
		Order("redemptions desc").
		Order("coupon_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
