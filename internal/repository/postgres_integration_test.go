//go:build integration
// +build integration

package repository

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vitrine-next/internal/constants"
	"github.com/vitrine-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}
	if err := db.Migrator().DropTable(&models.CouponRedemption{}, &models.Coupon{}); err != nil {
		t.Fatalf("drop coupon tables failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate postgres failed: %v", err)
	}
	return db
}

func TestPostgresConcurrentIncrementNeverExceedsCap(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCouponRepository(db)
	maxUses := 5
	coupon := &models.Coupon{Code: "PGRUSH", Type: constants.CouponTypeFixed, Active: true, MaxUses: &maxUses}
	if err := repo.Create(context.Background(), coupon); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 40; i++ {
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

	if success != maxUses {
		t.Fatalf("want %d successful increments, got %d", maxUses, success)
	}
	got, err := repo.GetByID(context.Background(), coupon.ID)
	if err != nil || got == nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != maxUses {
		t.Fatalf("used count want %d got %d", maxUses, got.UsedCount)
	}
}

func TestPostgresSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewCouponRepository(db)
	if err := repo.Create(context.Background(), &models.Coupon{Code: "VERAO", Type: constants.CouponTypeFixed, Active: true, Description: "Promoção de Verão"}); err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	list, _, err := repo.List(context.Background(), CouponListFilter{Search: "verão"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ILIKE search should match, got %d rows", len(list))
	}
}
