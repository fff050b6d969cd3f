package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"elogia.app/internal/engage"
)

// Elogio store --------------------------------------------------------------

type elogioStore struct{ db *sql.DB }

// Create persists the elogio and credits the recipient in one transaction:
// the recognition, the balance change and its audit record commit together.
func (s elogioStore) Create(ctx context.Context, e *engage.Elogio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, `select 1 from users where id=$1 for update`, e.ToUserID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engage.ErrNotFound
		}
		return err
	}

	row := tx.QueryRowContext(ctx, `
		insert into elogios (from_user_id, to_user_id, category_id, message, points)
		values ($1, $2, $3, $4, $5)
		returning id, created_at
	`, e.FromUserID, e.ToUserID, e.CategoryID, e.Message, e.Points)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return mapConstraint(err)
	}

	if e.Points > 0 {
		if _, err := tx.ExecContext(ctx, `
			update users set points = points + $2, updated_at = now() where id=$1
		`, e.ToUserID, e.Points); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			insert into point_transactions (user_id, elogio_id, amount, reason)
			values ($1, $2, $3, $4)
		`, e.ToUserID, e.ID, e.Points, engage.ReasonElogioGrant); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s elogioStore) Find(ctx context.Context, id int64) (*engage.Elogio, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, from_user_id, to_user_id, category_id, message, points, created_at
		from elogios where id=$1
	`, id)
	var e engage.Elogio
	if err := row.Scan(&e.ID, &e.FromUserID, &e.ToUserID, &e.CategoryID, &e.Message, &e.Points, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s elogioStore) ListByCompany(ctx context.Context, companyID int64, limit int) ([]*engage.Elogio, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		select e.id, e.from_user_id, e.to_user_id, e.category_id, e.message, e.points, e.created_at
		from elogios e
		join users f on f.id = e.from_user_id
		join users t on t.id = e.to_user_id
		where f.company_id=$1 or t.company_id=$1
		order by e.id desc
		limit $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Elogio
	for rows.Next() {
		var e engage.Elogio
		if err := rows.Scan(&e.ID, &e.FromUserID, &e.ToUserID, &e.CategoryID, &e.Message, &e.Points, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s elogioStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from elogios where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Notification store --------------------------------------------------------

type notificationStore struct{ db *sql.DB }

func (s notificationStore) Create(ctx context.Context, n *engage.Notification) error {
	row := s.db.QueryRowContext(ctx, `
		insert into notifications (user_id, kind, message)
		values ($1, $2, $3)
		returning id, created_at
	`, n.UserID, n.Kind, n.Message)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s notificationStore) Find(ctx context.Context, id int64) (*engage.Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, user_id, kind, message, read, created_at from notifications where id=$1
	`, id)
	var n engage.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (s notificationStore) ListByUser(ctx context.Context, userID int64) ([]*engage.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, user_id, kind, message, read, created_at
		from notifications where user_id=$1 order by id desc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Notification
	for rows.Next() {
		var n engage.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s notificationStore) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `update notifications set read=true where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Survey store --------------------------------------------------------------

type surveyStore struct{ db *sql.DB }

func (s surveyStore) Create(ctx context.Context, sv *engage.Survey) error {
	questions, err := json.Marshal(sv.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into surveys (company_id, created_by, title, questions)
		values ($1, $2, $3, $4)
		returning id, created_at
	`, sv.CompanyID, sv.CreatedBy, sv.Title, questions)
	if err := row.Scan(&sv.ID, &sv.CreatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s surveyStore) Find(ctx context.Context, id int64) (*engage.Survey, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, company_id, created_by, title, questions, created_at from surveys where id=$1
	`, id)
	var (
		sv  engage.Survey
		raw []byte
	)
	if err := row.Scan(&sv.ID, &sv.CompanyID, &sv.CreatedBy, &sv.Title, &raw, &sv.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &sv.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	return &sv, nil
}

func (s surveyStore) ListByCompany(ctx context.Context, companyID int64) ([]*engage.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, created_by, title, questions, created_at
		from surveys where company_id=$1 order by id asc
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Survey
	for rows.Next() {
		var (
			sv  engage.Survey
			raw []byte
		)
		if err := rows.Scan(&sv.ID, &sv.CompanyID, &sv.CreatedBy, &sv.Title, &raw, &sv.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &sv.Questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		out = append(out, &sv)
	}
	return out, rows.Err()
}

func (s surveyStore) AddResponse(ctx context.Context, resp *engage.SurveyResponse) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `
		insert into survey_responses (survey_id, user_id, answers)
		values ($1, $2, $3)
		returning id, created_at
	`, resp.SurveyID, resp.UserID, answers)
	if err := row.Scan(&resp.ID, &resp.CreatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s surveyStore) Responses(ctx context.Context, surveyID int64) ([]*engage.SurveyResponse, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, survey_id, user_id, answers, created_at
		from survey_responses where survey_id=$1 order by id asc
	`, surveyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.SurveyResponse
	for rows.Next() {
		var (
			resp engage.SurveyResponse
			raw  []byte
		)
		if err := rows.Scan(&resp.ID, &resp.SurveyID, &resp.UserID, &raw, &resp.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &resp.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		out = append(out, &resp)
	}
	return out, rows.Err()
}
