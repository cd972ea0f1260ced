package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCouponRepositoryTest(t *testing.T) (*GormCouponRepository, *GormCouponRedemptionRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate coupon models failed: %v", err)
	}
	return NewCouponRepository(db), NewCouponRedemptionRepository(db), db
}

func createTestCoupon(t *testing.T, repo *GormCouponRepository, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.Type == "" {
		coupon.Type = constants.CouponTypeFixed
	}
	if err := repo.Create(context.Background(), coupon); err != nil {
		t.Fatalf("create coupon %s failed: %v", coupon.Code, err)
	}
	return coupon
}

func intPtr(v int) *int {
	return &v
}

func TestCouponCreateNormalizesCode(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "  bemvindo10 ", Value: models.MustMoney("10"), Active: true})
	if coupon.Code != "BEMVINDO10" {
		t.Fatalf("code should be uppercased on write, got %q", coupon.Code)
	}

	got, err := repo.GetByCode(context.Background(), "BemVindo10")
	if err != nil {
		t.Fatalf("get by code failed: %v", err)
	}
	if got == nil || got.ID != coupon.ID {
		t.Fatalf("lookup should be case-insensitive, got %+v", got)
	}
}

func TestCouponGetByCodeMissingReturnsNil(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	got, err := repo.GetByCode(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("missing coupon should not be an error: %v", err)
	}
	if got != nil {
		t.Fatalf("missing coupon should be nil, got %+v", got)
	}
}

func TestCouponGetByCodeCanceledContextIsError(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	createTestCoupon(t, repo, &models.Coupon{Code: "SAVE20", Active: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := repo.GetByCode(ctx, "SAVE20")
	if err == nil {
		t.Fatalf("canceled lookup must surface an error, got coupon %+v", got)
	}
}

func TestCouponOptionalFieldsRoundTrip(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	startsAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	created := createTestCoupon(t, repo, &models.Coupon{
		Code:           "SAVE20",
		Type:           constants.CouponTypePercentage,
		Value:          models.MustMoney("20"),
		MinValue:       models.MoneyPtr(models.MustMoney("50")),
		MaxUses:        intPtr(10),
		MaxUsesPerUser: intPtr(1),
		StartsAt:       &startsAt,
		Active:         true,
	})
	plain := createTestCoupon(t, repo, &models.Coupon{Code: "PLAIN", Active: true})

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil || got == nil {
		t.Fatalf("get by id failed: %v", err)
	}
	if got.MinValue == nil || got.MinValue.String() != "50.00" {
		t.Fatalf("min value want 50.00 got %v", got.MinValue)
	}
	if !got.HasUsageCap() || *got.MaxUses != 10 {
		t.Fatalf("max uses want 10 got %v", got.MaxUses)
	}
	if got.StartsAt == nil || !got.StartsAt.Equal(startsAt) {
		t.Fatalf("starts at want %v got %v", startsAt, got.StartsAt)
	}

	gotPlain, err := repo.GetByID(context.Background(), plain.ID)
	if err != nil || gotPlain == nil {
		t.Fatalf("get plain coupon failed: %v", err)
	}
	if gotPlain.HasMinValue() || gotPlain.HasUsageCap() || gotPlain.HasPerUserCap() {
		t.Fatalf("optional fields should stay unset, got %+v", gotPlain)
	}
}

func TestCouponListOrderAndFilters(t *testing.T) {
	repo, _, db := setupCouponRepositoryTest(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, code := range []string{"FIRST", "SECOND", "THIRD"} {
		c := createTestCoupon(t, repo, &models.Coupon{Code: code, Active: i != 1, Description: "promo " + strings.ToLower(code)})
		if err := db.Model(c).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Hour)).Error; err != nil {
			t.Fatalf("set created_at failed: %v", err)
		}
	}

	list, total, err := repo.List(context.Background(), CouponListFilter{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("want total 3 and page of 2, got %d/%d", total, len(list))
	}
	if list[0].Code != "THIRD" || list[1].Code != "SECOND" {
		t.Fatalf("list should be newest first, got %s,%s", list[0].Code, list[1].Code)
	}

	active := true
	list, total, err = repo.List(context.Background(), CouponListFilter{Active: &active})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("want 2 active coupons, got %d", total)
	}

	list, _, err = repo.List(context.Background(), CouponListFilter{Search: "sec"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(list) != 1 || list[0].Code != "SECOND" {
		t.Fatalf("search should match SECOND, got %+v", list)
	}

	summary, err := repo.CountSummary(context.Background())
	if err != nil {
		t.Fatalf("count summary failed: %v", err)
	}
	if summary.Total != 3 || summary.Active != 2 {
		t.Fatalf("summary want 3/2 got %d/%d", summary.Total, summary.Active)
	}
}

func TestIncrementUsedCountIfAvailableRespectsCap(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "ONCE", Active: true, MaxUses: intPtr(1)})

	ok, err := repo.IncrementUsedCountIfAvailable(context.Background(), coupon.ID)
	if err != nil || !ok {
		t.Fatalf("first increment should succeed, ok=%v err=%v", ok, err)
	}
	ok, err = repo.IncrementUsedCountIfAvailable(context.Background(), coupon.ID)
	if err != nil {
		t.Fatalf("second increment failed: %v", err)
	}
	if ok {
		t.Fatalf("second increment must be refused at the cap")
	}

	got, _ := repo.GetByID(context.Background(), coupon.ID)
	if got.UsedCount != 1 {
		t.Fatalf("used count want 1 got %d", got.UsedCount)
	}
}

func TestIncrementUsedCountUnlimited(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "FREE", Active: true})
	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementUsedCountIfAvailable(context.Background(), coupon.ID)
		if err != nil || !ok {
			t.Fatalf("increment %d should succeed, ok=%v err=%v", i, ok, err)
		}
	}
	got, _ := repo.GetByID(context.Background(), coupon.ID)
	if got.UsedCount != 5 {
		t.Fatalf("used count want 5 got %d", got.UsedCount)
	}
}

func TestIncrementUsedCountConcurrentNeverExceedsCap(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "RUSH", Active: true, MaxUses: intPtr(3)})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.IncrementUsedCountIfAvailable(context.Background(), coupon.ID)
			if err != nil {
				t.Errorf("increment failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 3 {
		t.Fatalf("exactly 3 increments should win, got %d", success)
	}
	got, _ := repo.GetByID(context.Background(), coupon.ID)
	if got.UsedCount != 3 {
		t.Fatalf("used count want 3 got %d", got.UsedCount)
	}
}

func TestDecrementUsedCountNeverNegative(t *testing.T) {
	repo, _, _ := setupCouponRepositoryTest(t)
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "BACK", Active: true, UsedCount: 1})

	if err := repo.DecrementUsedCount(context.Background(), coupon.ID, 1); err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if err := repo.DecrementUsedCount(context.Background(), coupon.ID, 1); err != nil {
		t.Fatalf("decrement at zero failed: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), coupon.ID)
	if got.UsedCount != 0 {
		t.Fatalf("used count want 0 got %d", got.UsedCount)
	}
}

func TestCouponDeleteRemovesLedger(t *testing.T) {
	repo, redemptions, db := setupCouponRepositoryTest(t)
	ctx := context.Background()
	coupon := createTestCoupon(t, repo, &models.Coupon{Code: "APAGAR", Value: models.MustMoney("5"), Active: true})
	other := createTestCoupon(t, repo, &models.Coupon{Code: "MANTER", Value: models.MustMoney("5"), Active: true})
	for _, c := range []*models.Coupon{coupon, other} {
		if err := redemptions.Create(ctx, &models.CouponRedemption{CouponID: c.ID, Code: c.Code, UserID: 7}); err != nil {
			t.Fatalf("create redemption failed: %v", err)
		}
	}

	if err := repo.Delete(ctx, coupon.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, err := repo.GetByCode(ctx, "APAGAR")
	if err != nil || got != nil {
		t.Fatalf("deleted coupon should be gone, got %+v err %v", got, err)
	}
	var remaining int64
	if err := db.Model(&models.CouponRedemption{}).Where("coupon_id = ?", coupon.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("count ledger failed: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("ledger rows of the deleted coupon should be removed, got %d", remaining)
	}
	if n, _ := redemptions.CountByUser(ctx, other.ID, 7); n != 1 {
		t.Fatalf("other coupon ledger must survive, got %d", n)
	}

	// 删除后同一优惠码可以重新创建
	createTestCoupon(t, repo, &models.Coupon{Code: "apagar", Value: models.MustMoney("5"), Active: true})
}
