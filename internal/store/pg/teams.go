package pg

import (
	"context"
	"database/sql"
	"errors"

	"elogia.app/internal/engage"
)

type teamStore struct{ db *sql.DB }

func (s teamStore) Create(ctx context.Context, t *engage.Team) error {
	row := s.db.QueryRowContext(ctx, `
		insert into teams (company_id, name)
		values ($1, $2)
		returning id, created_at
	`, t.CompanyID, t.Name)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return mapConstraint(err)
	}
	return nil
}

func (s teamStore) Find(ctx context.Context, id int64) (*engage.Team, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, company_id, name, created_at from teams where id=$1
	`, id)
	var t engage.Team
	if err := row.Scan(&t.ID, &t.CompanyID, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engage.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s teamStore) ListByCompany(ctx context.Context, companyID int64) ([]*engage.Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, company_id, name, created_at from teams where company_id=$1 order by id asc
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*engage.Team
	for rows.Next() {
		var t engage.Team
		if err := rows.Scan(&t.ID, &t.CompanyID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s teamStore) AddMember(ctx context.Context, teamID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into team_members (team_id, user_id)
		values ($1, $2)
		on conflict do nothing
	`, teamID, userID)
	return mapConstraint(err)
}

func (s teamStore) Members(ctx context.Context, teamID int64) ([]*engage.User, error) {
	if _, err := s.Find(ctx, teamID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		select `+userColumns+`
		from users u
		join team_members tm on tm.user_id = u.id
		where tm.team_id=$1
		order by u.id asc
	`, teamID)
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

func (s teamStore) AssignSupervisor(ctx context.Context, teamID, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		insert into team_supervisors (team_id, user_id)
		values ($1, $2)
		on conflict do nothing
	`, teamID, userID)
	return mapConstraint(err)
}

func (s teamStore) IsTeamSupervisor(ctx context.Context, userID, teamID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from team_supervisors where team_id=$1 and user_id=$2
	`, teamID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s teamStore) SupervisorTeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		select team_id from team_supervisors where user_id=$1 order by team_id asc
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s teamStore) Analytics(ctx context.Context, teamID int64) (engage.TeamAnalytics, error) {
	if _, err := s.Find(ctx, teamID); err != nil {
		return engage.TeamAnalytics{}, err
	}
	stats := engage.TeamAnalytics{TeamID: teamID}
	row := s.db.QueryRowContext(ctx, `
		select
			(select count(*) from team_members where team_id=$1),
			(select count(*) from elogios e join team_members tm on tm.user_id = e.from_user_id and tm.team_id=$1),
			(select count(*) from elogios e join team_members tm on tm.user_id = e.to_user_id and tm.team_id=$1),
			coalesce((select sum(e.points) from elogios e join team_members tm on tm.user_id = e.to_user_id and tm.team_id=$1), 0)
	`, teamID)
	if err := row.Scan(&stats.Members, &stats.ElogiosSent, &stats.ElogiosReceived, &stats.PointsAwarded); err != nil {
		return engage.TeamAnalytics{}, err
	}
	return stats, nil
}
