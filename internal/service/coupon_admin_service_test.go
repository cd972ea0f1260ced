package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/models"
	"github.com/vitrine-next/internal/repository"
)

func setupCouponAdminServiceTest(t *testing.T) (*CouponAdminService, *memoryJSONCache) {
	t.Helper()
	db := openServiceTestDB(t)
	couponRepo := repository.NewCouponRepository(db)
	redemptionRepo := repository.NewCouponRedemptionRepository(db)
	cache := newMemoryJSONCache()
	stats := NewCouponStatsService(couponRepo, redemptionRepo, cache, time.Minute)
	return NewCouponAdminService(couponRepo, redemptionRepo, stats), cache
}

func boolPtr(v bool) *bool {
	return &v
}

func TestAdminCreateCouponNormalizes(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	coupon, err := svc.Create(context.Background(), CouponInput{
		Code:        " bemvindo10 ",
		Type:        "percentage",
		Value:       models.MustMoney("10"),
		Description: "  Primeira compra  ",
	})
	if err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if coupon.Code != "BEMVINDO10" || coupon.Type != constants.CouponTypePercentage {
		t.Fatalf("code/type should be uppercased, got %s/%s", coupon.Code, coupon.Type)
	}
	if !coupon.Active {
		t.Fatalf("coupon should default to active")
	}
	if coupon.MaxUsesPerUser == nil || *coupon.MaxUsesPerUser != constants.DefaultCouponMaxUsesPerUser {
		t.Fatalf("per-user limit should default to 1, got %v", coupon.MaxUsesPerUser)
	}
	if coupon.Description != "Primeira compra" {
		t.Fatalf("description should be trimmed, got %q", coupon.Description)
	}
}

func TestAdminCreateCouponDuplicateIsCaseInsensitive(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CouponInput{Code: "SAVE20", Type: constants.CouponTypeFixed, Value: models.MustMoney("20")}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	_, err := svc.Create(ctx, CouponInput{Code: "save20", Type: constants.CouponTypeFixed, Value: models.MustMoney("5")})
	if !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("duplicate code want exists error, got %v", err)
	}
}

func TestAdminCreateCouponValidation(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		input CouponInput
		want  error
	}{
		{"empty code", CouponInput{Code: " ", Type: constants.CouponTypeFixed}, ErrCouponInvalid},
		{"bad code", CouponInput{Code: "NO SPACES", Type: constants.CouponTypeFixed}, ErrCouponCodeInvalid},
		{"bad type", CouponInput{Code: "BOGO", Type: "BUY_ONE"}, ErrCouponTypeInvalid},
		{"percent over 100", CouponInput{Code: "MUCH", Type: constants.CouponTypePercentage, Value: models.MustMoney("100.01")}, ErrCouponValueInvalid},
		{"negative fixed", CouponInput{Code: "NEGFIX", Type: constants.CouponTypeFixed, Value: models.MustMoney("-1")}, ErrCouponValueInvalid},
		{"negative min", CouponInput{Code: "NEGMIN", Type: constants.CouponTypeFixed, MinValue: models.MoneyPtr(models.MustMoney("-5"))}, ErrCouponValueInvalid},
		{"negative cap", CouponInput{Code: "NEGCAP", Type: constants.CouponTypeFixed, MaxUses: intPtr(-1)}, ErrCouponLimitInvalid},
		{"inverted window", CouponInput{Code: "WINDOW", Type: constants.CouponTypeFixed, StartsAt: timePtr(start), ExpiresAt: timePtr(start)}, ErrCouponWindowInvalid},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
}

func TestAdminCreateCouponEdgeValues(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	ctx := context.Background()

	zero, err := svc.Create(ctx, CouponInput{Code: "NOOP", Type: constants.CouponTypeFixed, Value: models.MustMoney("0")})
	if err != nil {
		t.Fatalf("zero value coupon should be legal: %v", err)
	}
	if !zero.Value.IsZero() {
		t.Fatalf("value want 0 got %s", zero.Value)
	}

	ship, err := svc.Create(ctx, CouponInput{Code: "FRETEGRATIS", Type: constants.CouponTypeFreeShipping, Value: models.MustMoney("25")})
	if err != nil {
		t.Fatalf("free shipping create failed: %v", err)
	}
	if !ship.Value.IsZero() {
		t.Fatalf("free shipping value should be ignored, got %s", ship.Value)
	}

	unlimited, err := svc.Create(ctx, CouponInput{Code: "ALWAYS", Type: constants.CouponTypeFixed, MaxUses: intPtr(0), MaxUsesPerUser: intPtr(0), Active: boolPtr(false)})
	if err != nil {
		t.Fatalf("unlimited create failed: %v", err)
	}
	if unlimited.MaxUses != nil || unlimited.MaxUsesPerUser != nil {
		t.Fatalf("zero limits should mean unlimited, got %v/%v", unlimited.MaxUses, unlimited.MaxUsesPerUser)
	}
	reloaded, err := svc.Get(ctx, unlimited.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if reloaded.Active {
		t.Fatalf("explicit inactive coupon must stay inactive after reload")
	}
}

func TestAdminUpdateToggleDelete(t *testing.T) {
	svc, _ := setupCouponAdminServiceTest(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, CouponInput{Code: "FIRST", Type: constants.CouponTypeFixed, Value: models.MustMoney("5")})
	if err != nil {
		t.Fatalf("create first failed: %v", err)
	}
	if _, err := svc.Create(ctx, CouponInput{Code: "SECOND", Type: constants.CouponTypeFixed, Value: models.MustMoney("5")}); err != nil {
		t.Fatalf("create second failed: %v", err)
	}

	if _, err := svc.Update(ctx, first.ID, CouponInput{Code: "second", Type: constants.CouponTypeFixed}); !errors.Is(err, ErrCouponCodeExists) {
		t.Fatalf("renaming onto an existing code want exists, got %v", err)
	}

	updated, err := svc.Update(ctx, first.ID, CouponInput{
		Code:     "first",
		Type:     constants.CouponTypePercentage,
		Value:    models.MustMoney("15"),
		MinValue: models.MoneyPtr(models.MustMoney("30")),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Type != constants.CouponTypePercentage || updated.MinValue.String() != "30.00" || !updated.Active {
		t.Fatalf("unexpected update result %+v", updated)
	}

	toggled, err := svc.SetActive(ctx, first.ID, false)
	if err != nil || toggled.Active {
		t.Fatalf("toggle off failed: %+v / %v", toggled, err)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, first.ID); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("deleted coupon want not found, got %v", err)
	}
	if err := svc.Delete(ctx, first.ID); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("second delete want not found, got %v", err)
	}

	recreated, err := svc.Create(ctx, CouponInput{Code: "FIRST", Type: constants.CouponTypeFixed})
	if err != nil {
		t.Fatalf("deleted code should be reusable: %v", err)
	}
	if recreated.ID == first.ID {
		t.Fatalf("recreated coupon should be a new row")
	}
}

func TestCouponStatsOverviewCachesAndInvalidates(t *testing.T) {
	svc, cache := setupCouponAdminServiceTest(t)
	ctx := context.Background()
	if _, err := svc.Create(ctx, CouponInput{Code: "STATS", Type: constants.CouponTypeFixed, Value: models.MustMoney("5")}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stats, err := svc.stats.Overview(ctx)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if stats.TotalCoupons != 1 || stats.ActiveCoupons != 1 || stats.TotalRedemptions != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !cache.has(constants.CacheKeyCouponStats) {
		t.Fatalf("overview should be cached")
	}

	if _, err := svc.Create(ctx, CouponInput{Code: "MORE", Type: constants.CouponTypeFixed, Active: boolPtr(false)}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if cache.has(constants.CacheKeyCouponStats) {
		t.Fatalf("admin writes should invalidate the stats cache")
	}
	stats, err = svc.stats.Overview(ctx)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if stats.TotalCoupons != 2 || stats.ActiveCoupons != 1 {
		t.Fatalf("stats after invalidation want 2/1 got %d/%d", stats.TotalCoupons, stats.ActiveCoupons)
	}
}
