package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"elogia.app/internal/engage"
)

// Company store -------------------------------------------------------------

type companyStore struct{ db *sql.DB }

func (s companyStore) Create(ctx context.Context, c *engage.Company) error {
	if c.Status == "" {
		c.Status = engage.CompanyStatusActive
	}
	row := s.db.QueryRowContext(ctx, `
		insert into companies (name, status)
		values ($1, $2)
		returning id, created_at, updated_at
	`, c.Name, c.Status)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s companyStore) Find(ctx context.Context, id int64) (*engage.Company, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, status, created_at, updated_at from companies where id=$1
	`, id)
	var c engage.Company
	if err := row.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s companyStore) List(ctx context.Context) ([]*engage.Company, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, status, created_at, updated_at from companies order by id asc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Company
	for rows.Next() {
		var c engage.Company
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// User store ----------------------------------------------------------------

type userStore struct{ db *sql.DB }

const userColumns = `id, company_id, email, name, password_hash, role, points, must_change_password, status, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*engage.User, error) {
	var u engage.User
	err := row.Scan(&u.ID, &u.CompanyID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.Points, &u.MustChangePassword, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s userStore) Create(ctx context.Context, u *engage.User) error {
	if u.Status == "" {
		u.Status = engage.UserStatusActive
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	row := s.db.QueryRowContext(ctx, `
		insert into users (company_id, email, name, password_hash, role, points, must_change_password, status)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning id, created_at, updated_at
	`, u.CompanyID, u.Email, u.Name, u.PasswordHash, u.Role, u.Points, u.MustChangePassword, u.Status)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s userStore) Find(ctx context.Context, id int64) (*engage.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id=$1`, id))
}

func (s userStore) FindByEmail(ctx context.Context, email string) (*engage.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(s.db.QueryRowContext(ctx, `select `+userColumns+` from users where email=$1`, email))
}

func (s userStore) ListByCompany(ctx context.Context, companyID int64) ([]*engage.User, error) {
	rows, err := s.db.QueryContext(ctx, `select `+userColumns+` from users where company_id=$1 order by id asc`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s userStore) Update(ctx context.Context, id int64, upd engage.UserUpdate) (*engage.User, error) {
	var role *string
	if upd.Role != nil {
		r := string(*upd.Role)
		role = &r
	}
	row := s.db.QueryRowContext(ctx, `
		update users
		set name=coalesce($2, name), role=coalesce($3, role), updated_at=now()
		where id=$1
		returning `+userColumns+`
	`, id, upd.Name, role)
	return scanUser(row)
}

func (s userStore) UpdatePassword(ctx context.Context, userID int64, passwordHash string, mustChange bool) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash=$2, must_change_password=$3, updated_at=now() where id=$1
	`, userID, passwordHash, mustChange)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s userStore) SetStatus(ctx context.Context, userID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set status=$2, updated_at=now() where id=$1
	`, userID, status)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return engage.ErrNotFound
	}
	return nil
}
