package pg

import (
	"context"
	"database/sql"
	"errors"

	"elogia.app/internal/engage"
)

// Category store ------------------------------------------------------------

type categoryStore struct{ db *sql.DB }

func (s categoryStore) Create(ctx context.Context, c *engage.Category) error {
	row := s.db.QueryRowContext(ctx, `
		insert into categories (company_id, name, points)
		values ($1, $2, $3)
		returning id, created_at, updated_at
	`, c.CompanyID, c.Name, c.Points)
	if err := row.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s categoryStore) Find(ctx context.Context, id int64) (*engage.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, company_id, name, points, created_at, updated_at from categories where id=$1
	`, id)
	var c engage.Category
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s categoryStore) ListByCompany(ctx context.Context, companyID int64) ([]*engage.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, name, points, created_at, updated_at
		from categories where company_id=$1 order by id asc
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Category
	for rows.Next() {
		var c engage.Category
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s categoryStore) Update(ctx context.Context, id int64, upd engage.CategoryUpdate) (*engage.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		update categories
		set name = coalesce($2, name),
		    points = coalesce($3, points),
		    updated_at = now()
		where id=$1
		returning id, company_id, name, points, created_at, updated_at
	`, id, upd.Name, upd.Points)
	var c engage.Category
	if err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Points, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s categoryStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from categories where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Item store ----------------------------------------------------------------

type itemStore struct{ db *sql.DB }

func (s itemStore) Create(ctx context.Context, it *engage.Item) error {
	row := s.db.QueryRowContext(ctx, `
		insert into items (company_id, name, description, price, stock)
		values ($1, $2, $3, $4, $5)
		returning id, created_at, updated_at
	`, it.CompanyID, it.Name, it.Description, it.Price, it.Stock)
	if err := row.Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s itemStore) Find(ctx context.Context, id int64) (*engage.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, company_id, name, description, price, stock, created_at, updated_at
		from items where id=$1
	`, id)
	var it engage.Item
	if err := row.Scan(&it.ID, &it.CompanyID, &it.Name, &it.Description, &it.Price, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s itemStore) ListByCompany(ctx context.Context, companyID int64) ([]*engage.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, name, description, price, stock, created_at, updated_at
		from items where company_id=$1 order by id asc
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Item
	for rows.Next() {
		var it engage.Item
		if err := rows.Scan(&it.ID, &it.CompanyID, &it.Name, &it.Description, &it.Price, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s itemStore) Update(ctx context.Context, id int64, upd engage.ItemUpdate) (*engage.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		update items
		set name = coalesce($2, name),
		    description = coalesce($3, description),
		    price = coalesce($4, price),
		    stock = coalesce($5, stock),
		    updated_at = now()
		where id=$1
		returning id, company_id, name, description, price, stock, created_at, updated_at
	`, id, upd.Name, upd.Description, upd.Price, upd.Stock)
	var it engage.Item
	if err := row.Scan(&it.ID, &it.CompanyID, &it.Name, &it.Description, &it.Price, &it.Stock, &it.CreatedAt, &it.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s itemStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from items where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
