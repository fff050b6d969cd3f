package pg

import (
	"context"
	"database/sql"
	"errors"

	"elogia.app/internal/engage"
)

type pointStore struct{ db *sql.DB }

// Redeem executes the point-spend under a serializable transaction with the
// user and item rows locked: the balance decrement, the stock decrement and
// the transaction record commit together or not at all, so two concurrent
// redemptions can never both pass a stale balance or stock check.
func (s pointStore) Redeem(ctx context.Context, userID, itemID int64, idemKey string) (engage.PointTransaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return engage.PointTransaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// Idempotency: return the recorded transaction if this user already used
	// the key. Keys are scoped per user so they never replay across actors.
	if idemKey != "" {
		var prior engage.PointTransaction
		var priorItem sql.NullInt64
		err := tx.QueryRowContext(ctx, `
			select id, user_id, item_id, amount, reason, created_at
			from point_transactions where idempotency_key=$1 and user_id=$2
		`, idemKey, userID).Scan(&prior.ID, &prior.UserID, &priorItem, &prior.Amount, &prior.Reason, &prior.CreatedAt)
		if err == nil {
			prior.ItemID = priorItem.Int64
			prior.IdempotencyKey = idemKey
			return prior, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return engage.PointTransaction{}, err
		}
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, `
		select points from users where id=$1 for update
	`, userID).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engage.PointTransaction{}, engage.ErrNotFound
		}
		return engage.PointTransaction{}, err
	}

	var price, stock int64
	if err := tx.QueryRowContext(ctx, `
		select price, stock from items where id=$1 for update
	`, itemID).Scan(&price, &stock); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engage.PointTransaction{}, engage.ErrNotFound
		}
		return engage.PointTransaction{}, err
	}

	if stock <= 0 {
		return engage.PointTransaction{}, engage.ErrItemUnavailable
	}
	if balance < price {
		return engage.PointTransaction{}, engage.ErrInsufficientPoints
	}

	if _, err := tx.ExecContext(ctx, `
		update users set points = points - $2, updated_at = now() where id=$1
	`, userID, price); err != nil {
		return engage.PointTransaction{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		update items set stock = stock - 1, updated_at = now() where id=$1
	`, itemID); err != nil {
		return engage.PointTransaction{}, err
	}

	record := engage.PointTransaction{
		UserID:         userID,
		ItemID:         itemID,
		Amount:         -price,
		Reason:         engage.ReasonRedemption,
		IdempotencyKey: idemKey,
	}
	if err := tx.QueryRowContext(ctx, `
		insert into point_transactions (user_id, item_id, amount, reason, idempotency_key)
		values ($1, $2, $3, $4, nullif($5, ''))
		returning id, created_at
	`, userID, itemID, record.Amount, record.Reason, idemKey).Scan(&record.ID, &record.CreatedAt); err != nil {
		return engage.PointTransaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return engage.PointTransaction{}, err
	}
	return record, nil
}

func (s pointStore) Balance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `select points from users where id=$1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, engage.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (s pointStore) ListByUser(ctx context.Context, userID int64, limit int) ([]engage.PointTransaction, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, coalesce(item_id, 0), coalesce(elogio_id, 0), amount, reason, coalesce(idempotency_key, ''), created_at
		from point_transactions
		where user_id=$1
		order by id desc
		limit $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engage.PointTransaction
	for rows.Next() {
		var record engage.PointTransaction
		if err := rows.Scan(&record.ID, &record.UserID, &record.ItemID, &record.ElogioID,
			&record.Amount, &record.Reason, &record.IdempotencyKey, &record.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
