package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupSQLMockCouponRepository(t *testing.T) (*GormCouponRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("create sqlmock failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	if err != nil {
		t.Fatalf("open gorm over sqlmock failed: %v", err)
	}
	return NewCouponRepository(db), mock
}

func TestCouponGetByCodeStoreFailureIsNotNotFound(t *testing.T) {
	repo, mock := setupSQLMockCouponRepository(t)
	storeErr := errors.New("connection refused")
	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE code = \$1`).
		WithArgs("SAVE20", sqlmock.AnyArg()).
		WillReturnError(storeErr)

	got, err := repo.GetByCode(context.Background(), "save20")
	if !errors.Is(err, storeErr) {
		t.Fatalf("store failure must propagate, got coupon=%+v err=%v", got, err)
	}
	if got != nil {
		t.Fatalf("coupon should be nil on failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCouponGetByCodeForUpdateLocksRowOnPostgres(t *testing.T) {
	repo, mock := setupSQLMockCouponRepository(t)
	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE code = \$1 .*FOR UPDATE`).
		WithArgs("SAVE20", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "type", "value", "used_count", "active"}).
			AddRow(1, "SAVE20", "PERCENTAGE", "20.00", 0, true))

	got, err := repo.GetByCodeForUpdate(context.Background(), "SAVE20")
	if err != nil {
		t.Fatalf("locked lookup failed: %v", err)
	}
	if got == nil || got.Code != "SAVE20" || got.Value.String() != "20.00" {
		t.Fatalf("unexpected coupon %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIncrementUsedCountIfAvailableUsesConditionalUpdate(t *testing.T) {
	repo, mock := setupSQLMockCouponRepository(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "coupons" SET "used_count"=used_count \+ \$1 WHERE id = \$2 AND .*max_uses IS NULL OR max_uses <= 0 OR used_count < max_uses`).
		WithArgs(1, 42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.IncrementUsedCountIfAvailable(context.Background(), 42)
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if ok {
		t.Fatalf("zero affected rows means the cap was reached")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
