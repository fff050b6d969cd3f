package engage

import (
	"time"

	"elogia.app/internal/auth"
)

// Company is a tenant. Every scoped entity resolves to exactly one company,
// except elogios which resolve through both endpoint users.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	CompanyStatusActive    = "active"
	CompanyStatusSuspended = "suspended"
)

// User is a collaborator account within a company. Points is the spendable
// rewards balance in whole points.
type User struct {
	ID                 int64     `json:"id"`
	CompanyID          int64     `json:"company_id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	Role               auth.Role `json:"role"`
	Points             int64     `json:"points"`
	MustChangePassword bool      `json:"must_change_password"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// Team groups collaborators inside a company. Supervisor access to a team is
// a separate association, not implied by membership.
type Team struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Category classifies elogios and fixes the points granted to the recipient.
type Category struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	Name      string    `json:"name"`
	Points    int64     `json:"points"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item is a rewards-catalog entry with a point price and remaining stock.
type Item struct {
	ID          int64     `json:"id"`
	CompanyID   int64     `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int64     `json:"price"`
	Stock       int64     `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Elogio is a peer-to-peer public recognition message. Points is the amount
// credited to the recipient when the elogio was created.
type Elogio struct {
	ID         int64     `json:"id"`
	FromUserID int64     `json:"from_user_id"`
	ToUserID   int64     `json:"to_user_id"`
	CategoryID int64     `json:"category_id"`
	Message    string    `json:"message"`
	Points     int64     `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is a per-user message; its company scope resolves through the
// owning user.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Survey is a set of questions published to a company.
type Survey struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	CreatedBy int64     `json:"created_by"`
	Title     string    `json:"title"`
	Questions []string  `json:"questions"`
	CreatedAt time.Time `json:"created_at"`
}

// SurveyResponse records one user's answers to a survey.
type SurveyResponse struct {
	ID        int64     `json:"id"`
	SurveyID  int64     `json:"survey_id"`
	UserID    int64     `json:"user_id"`
	Answers   []string  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
}

// PointTransaction is the immutable audit record of every balance change:
// negative amounts are redemptions, positive amounts are elogio grants.
type PointTransaction struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	ItemID         int64     `json:"item_id,omitempty"`
	ElogioID       int64     `json:"elogio_id,omitempty"`
	Amount         int64     `json:"amount"`
	Reason         string    `json:"reason"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	ReasonRedemption  = "redemption"
	ReasonElogioGrant = "elogio_grant"
)

// TeamAnalytics aggregates recognition activity for one team.
type TeamAnalytics struct {
	TeamID          int64 `json:"team_id"`
	Members         int   `json:"members"`
	ElogiosSent     int   `json:"elogios_sent"`
	ElogiosReceived int   `json:"elogios_received"`
	PointsAwarded   int64 `json:"points_awarded"`
}
