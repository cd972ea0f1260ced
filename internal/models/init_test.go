package models

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestSeedCouponsIsIdempotent(t *testing.T) {
	db := openSeedTestDB(t)
	coupons := DemoCoupons(time.Now())

	created, err := SeedCoupons(db, coupons)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if created != len(coupons) {
		t.Fatalf("created want %d got %d", len(coupons), created)
	}

	created, err = SeedCoupons(db, coupons)
	if err != nil {
		t.Fatalf("reseed failed: %v", err)
	}
	if created != 0 {
		t.Fatalf("reseed should create nothing, got %d", created)
	}

	var save20 Coupon
	if err := db.Where("code = ?", "SAVE20").First(&save20).Error; err != nil {
		t.Fatalf("load SAVE20 failed: %v", err)
	}
	if !save20.Active || save20.Value.String() != "20.00" || !save20.HasMinValue() {
		t.Fatalf("unexpected SAVE20 row: %+v", save20)
	}
}

func TestSeedCouponsNormalizesCode(t *testing.T) {
	db := openSeedTestDB(t)
	if _, err := SeedCoupons(db, []Coupon{{Code: " natal5 ", Type: "FIXED", Value: MustMoney("5"), Active: true}}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	var count int64
	db.Model(&Coupon{}).Where("code = ?", "NATAL5").Count(&count)
	if count != 1 {
		t.Fatalf("expected normalized code NATAL5, count=%d", count)
	}
}
