package pg

import (
	"context"
	"database/sql"
	"errors"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

type permissionStore struct{ db *sql.DB }

var _ auth.PermissionStore = permissionStore{}

func (s permissionStore) Get(ctx context.Context, userID int64, key auth.Key) (*auth.PermissionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		select user_id, key, value, updated_at from user_permissions where user_id=$1 and key=$2
	`, userID, key)
	var record auth.PermissionRecord
	if err := row.Scan(&record.UserID, &record.Key, &record.Value, &record.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s permissionStore) List(ctx context.Context, userID int64) ([]auth.PermissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		select user_id, key, value, updated_at from user_permissions where user_id=$1 order by key asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.PermissionRecord
	for rows.Next() {
		var record auth.PermissionRecord
		if err := rows.Scan(&record.UserID, &record.Key, &record.Value, &record.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s permissionStore) Set(ctx context.Context, userID int64, key auth.Key, value bool) (auth.PermissionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		insert into user_permissions (user_id, key, value)
		values ($1, $2, $3)
		on conflict (user_id, key) do update
		set value = excluded.value, updated_at = now()
		returning user_id, key, value, updated_at
	`, userID, key, value)
	var record auth.PermissionRecord
	if err := row.Scan(&record.UserID, &record.Key, &record.Value, &record.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.PermissionRecord{}, engage.ErrNotFound
		}
		return auth.PermissionRecord{}, err
	}
	return record, nil
}
