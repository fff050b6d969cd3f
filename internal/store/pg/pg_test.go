package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestRedeemHappyPath(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select id, user_id, item_id, amount, reason, created_at").
		WithArgs("key-1", int64(7)).
		WillReturnError(errNoRows())
	mock.ExpectQuery("select points from users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(100)))
	mock.ExpectQuery("select price, stock from items").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock"}).AddRow(int64(60), int64(1)))
	mock.ExpectExec("update users set points = points -").
		WithArgs(int64(7), int64(60)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update items set stock = stock - 1").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("insert into point_transactions").
		WithArgs(int64(7), int64(3), int64(-60), engage.ReasonRedemption, "key-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), time.Now().UTC()))
	mock.ExpectCommit()

	tx, err := store.Points().Redeem(context.Background(), 7, 3, "key-1")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if tx.ID != 11 || tx.Amount != -60 || tx.Reason != engage.ReasonRedemption {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedeemIdempotencyReplay(t *testing.T) {
	store, mock := newMockStore(t)

	created := time.Now().UTC().Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("select id, user_id, item_id, amount, reason, created_at").
		WithArgs("key-1", int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "item_id", "amount", "reason", "created_at"}).
			AddRow(int64(11), int64(7), int64(3), int64(-60), engage.ReasonRedemption, created))
	mock.ExpectRollback()

	tx, err := store.Points().Redeem(context.Background(), 7, 3, "key-1")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if tx.ID != 11 || !tx.CreatedAt.Equal(created) {
		t.Fatalf("expected prior transaction replay, got %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedeemIdempotencyKeyScopedPerUser(t *testing.T) {
	store, mock := newMockStore(t)

	// User 8 reuses a key already recorded for user 7. The replay lookup is
	// scoped to user 8 and finds nothing, so a fresh redemption runs.
	mock.ExpectBegin()
	mock.ExpectQuery("select id, user_id, item_id, amount, reason, created_at").
		WithArgs("key-1", int64(8)).
		WillReturnError(errNoRows())
	mock.ExpectQuery("select points from users").
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(100)))
	mock.ExpectQuery("select price, stock from items").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock"}).AddRow(int64(60), int64(2)))
	mock.ExpectExec("update users set points = points -").
		WithArgs(int64(8), int64(60)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("update items set stock = stock - 1").
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("insert into point_transactions").
		WithArgs(int64(8), int64(3), int64(-60), engage.ReasonRedemption, "key-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), time.Now().UTC()))
	mock.ExpectCommit()

	tx, err := store.Points().Redeem(context.Background(), 8, 3, "key-1")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if tx.UserID != 8 || tx.ID != 12 {
		t.Fatalf("expected a new transaction for user 8, got %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRedeemOutOfStock(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select points from users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(100)))
	mock.ExpectQuery("select price, stock from items").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock"}).AddRow(int64(60), int64(0)))
	mock.ExpectRollback()

	if _, err := store.Points().Redeem(context.Background(), 7, 3, ""); !errors.Is(err, engage.ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
}

func TestRedeemInsufficientPoints(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("select points from users").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(int64(10)))
	mock.ExpectQuery("select price, stock from items").
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"price", "stock"}).AddRow(int64(60), int64(5)))
	mock.ExpectRollback()

	if _, err := store.Points().Redeem(context.Background(), 7, 3, ""); !errors.Is(err, engage.ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
}

func TestPermissionGetAbsentReturnsNil(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select user_id, key, value, updated_at from user_permissions").
		WithArgs(int64(7), string(auth.PermViewWall)).
		WillReturnError(errNoRows())

	rec, err := store.Permissions().Get(context.Background(), 7, auth.PermViewWall)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestPermissionSetUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("insert into user_permissions").
		WithArgs(int64(7), string(auth.PermDeleteElogios), true).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "key", "value", "updated_at"}).
			AddRow(int64(7), string(auth.PermDeleteElogios), true, now))

	rec, err := store.Permissions().Set(context.Background(), 7, auth.PermDeleteElogios, true)
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if rec.UserID != 7 || rec.Key != auth.PermDeleteElogios || !rec.Value {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestBalanceUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select points from users").
		WithArgs(int64(404)).
		WillReturnError(errNoRows())

	if _, err := store.Points().Balance(context.Background(), 404); !errors.Is(err, engage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func errNoRows() error { return sql.ErrNoRows }
