package engage

import (
	"context"

	"elogia.app/internal/auth"
)

// Store describes the persistence operations required by the application.
// Both the in-memory implementation and the PostgreSQL implementation in
// internal/store/pg satisfy it.
type Store interface {
	Companies() CompanyStore
	Users() UserStore
	Teams() TeamStore
	Categories() CategoryStore
	Items() ItemStore
	Elogios() ElogioStore
	Notifications() NotificationStore
	Surveys() SurveyStore
	Points() PointStore
	Permissions() auth.PermissionStore
}

// CompanyStore manages tenants.
type CompanyStore interface {
	Create(ctx context.Context, c *Company) error
	Find(ctx context.Context, id int64) (*Company, error)
	List(ctx context.Context) ([]*Company, error)
}

// UserUpdate mutates optional user profile fields.
type UserUpdate struct {
	Name *string
	Role *auth.Role
}

// UserStore manages collaborator accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string, mustChange bool) error
	SetStatus(ctx context.Context, userID int64, status string) error
}

// TeamStore manages teams, membership and supervisor associations. Its
// supervisor lookups satisfy auth.TeamAccessStore.
type TeamStore interface {
	Create(ctx context.Context, t *Team) error
	Find(ctx context.Context, id int64) (*Team, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Team, error)
	AddMember(ctx context.Context, teamID, userID int64) error
	Members(ctx context.Context, teamID int64) ([]*User, error)
	AssignSupervisor(ctx context.Context, teamID, userID int64) error
	IsTeamSupervisor(ctx context.Context, userID, teamID int64) (bool, error)
	SupervisorTeamIDs(ctx context.Context, userID int64) ([]int64, error)
	Analytics(ctx context.Context, teamID int64) (TeamAnalytics, error)
}

// CategoryUpdate mutates optional category fields.
type CategoryUpdate struct {
	Name   *string
	Points *int64
}

// CategoryStore manages elogio categories.
type CategoryStore interface {
	Create(ctx context.Context, c *Category) error
	Find(ctx context.Context, id int64) (*Category, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Category, error)
	Update(ctx context.Context, id int64, upd CategoryUpdate) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

// ItemUpdate mutates optional catalog item fields.
type ItemUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int64
}

// ItemStore manages the rewards catalog.
type ItemStore interface {
	Create(ctx context.Context, it *Item) error
	Find(ctx context.Context, id int64) (*Item, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Item, error)
	Update(ctx context.Context, id int64, upd ItemUpdate) (*Item, error)
	Delete(ctx context.Context, id int64) error
}

// ElogioStore persists recognitions. Create also credits the recipient's
// balance and records the grant transaction in the same atomic unit.
type ElogioStore interface {
	Create(ctx context.Context, e *Elogio) error
	Find(ctx context.Context, id int64) (*Elogio, error)
	ListByCompany(ctx context.Context, companyID int64, limit int) ([]*Elogio, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationStore manages per-user notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *Notification) error
	Find(ctx context.Context, id int64) (*Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]*Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

// SurveyStore manages surveys and responses.
type SurveyStore interface {
	Create(ctx context.Context, s *Survey) error
	Find(ctx context.Context, id int64) (*Survey, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Survey, error)
	AddResponse(ctx context.Context, resp *SurveyResponse) error
	Responses(ctx context.Context, surveyID int64) ([]*SurveyResponse, error)
}

// PointStore executes balance operations. Redeem decrements the user's
// balance and the item's stock and records the transaction as one atomic
// unit: all three mutations commit together or none do.
type PointStore interface {
	Redeem(ctx context.Context, userID, itemID int64, idemKey string) (PointTransaction, error)
	Balance(ctx context.Context, userID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]PointTransaction, error)
}
