package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitrine-next/internal/models"

	"gorm.io/gorm"
)

// CouponRepository 优惠券数据访问接口
type CouponRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) error
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter CouponListFilter) ([]models.Coupon, int64, error)
	CountSummary(ctx context.Context) (CouponCountSummary, error)
	IncrementUsedCountIfAvailable(ctx context.Context, id uint) (bool, error)
	DecrementUsedCount(ctx context.Context, id uint, delta int) error
	WithTx(tx *gorm.DB) CouponRepository
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GormCouponRepository GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓库
func NewCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCouponRepository) WithTx(tx *gorm.DB) CouponRepository {
	if tx == nil {
		return r
	}
	return &GormCouponRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCouponRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

// GetByID 根据ID获取优惠券，不存在时返回 nil, nil
func (r *GormCouponRepository) GetByID(ctx context.Context, id uint) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据优惠码获取优惠券，查询前统一转大写
func (r *GormCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return r.getByCode(r.db.WithContext(ctx), code)
}

// GetByCodeForUpdate 在事务中锁定并读取优惠券
func (r *GormCouponRepository) GetByCodeForUpdate(ctx context.Context, code string) (*models.Coupon, error) {
	return r.getByCode(forUpdate(r.db.WithContext(ctx)), code)
}

func (r *GormCouponRepository) getByCode(query *gorm.DB, code string) (*models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, nil
	}
	var coupon models.Coupon
	if err := query.Where("code = ?", normalized).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coupon, nil
}

// Create 创建优惠券
func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// Update 更新优惠券
func (r *GormCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// Delete 删除优惠券
func (r *GormCouponRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("coupon_id = ?", id).Delete(&models.CouponRedemption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Coupon{}, id).Error
	})
}

// List 获取优惠券列表，按创建时间倒序
func (r *GormCouponRepository) List(ctx context.Context, filter CouponListFilter) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if code := models.NormalizeCouponCode(filter.Code); code != "" {
		query = query.Where("code = ?", code)
	}
	if filter.Search != "" {
		operator := likeOperatorByDialect(dbDialectName(r.db))
		like := "%" + escapeLike(filter.Search) + "%"
		query = query.Where(fmt.Sprintf(`(code %s ? ESCAPE '\' OR description %s ? ESCAPE '\')`, operator, operator), like, like)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("created_at desc").Order("id desc").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

// CountSummary 统计优惠券总数与启用数
func (r *GormCouponRepository) CountSummary(ctx context.Context) (CouponCountSummary, error) {
	var summary CouponCountSummary
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Coupon{}).Count(&summary.Total).Error; err != nil {
		return summary, err
	}
	if err := db.Model(&models.Coupon{}).Where("active = ?", true).Count(&summary.Active).Error; err != nil {
		return summary, err
	}
	return summary, nil
}

// IncrementUsedCountIfAvailable 未达上限时原子 +1，返回是否成功
func (r *GormCouponRepository) IncrementUsedCountIfAvailable(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("(max_uses IS NULL OR max_uses <= 0 OR used_count < max_uses)").
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DecrementUsedCount 减少优惠券使用次数，不会减到负数
func (r *GormCouponRepository) DecrementUsedCount(ctx context.Context, id uint, delta int) error {
	if delta == 0 {
		delta = 1
	}
	if delta < 0 {
		delta = -delta
	}
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ?", id).
		Where("used_count >= ?", delta).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", delta)).Error
}
