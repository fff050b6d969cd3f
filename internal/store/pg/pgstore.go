package pg

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"elogia.app/internal/auth"
	"elogia.app/internal/engage"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// Store implements engage.Store over PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ engage.Store = (*Store)(nil)

// Open connects to PostgreSQL with pool defaults tuned for the API workload.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool; used by tests with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Companies() engage.CompanyStore           { return companyStore{s.db} }
func (s *Store) Users() engage.UserStore                  { return userStore{s.db} }
func (s *Store) Teams() engage.TeamStore                  { return teamStore{s.db} }
func (s *Store) Categories() engage.CategoryStore         { return categoryStore{s.db} }
func (s *Store) Items() engage.ItemStore                  { return itemStore{s.db} }
func (s *Store) Elogios() engage.ElogioStore              { return elogioStore{s.db} }
func (s *Store) Notifications() engage.NotificationStore  { return notificationStore{s.db} }
func (s *Store) Surveys() engage.SurveyStore              { return surveyStore{s.db} }
func (s *Store) Points() engage.PointStore                { return pointStore{s.db} }
func (s *Store) Permissions() auth.PermissionStore        { return permissionStore{s.db} }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapConstraint translates unique and FK violations into domain errors.
func mapConstraint(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return engage.ErrConflict
		case pgErrForeignKeyViolation:
			return engage.ErrNotFound
		}
	}
	return err
}
