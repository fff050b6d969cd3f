package auth

import (
	"context"
	"errors"
	"fmt"
)

// Service resolves effective permissions and team access for request actors.
// State is re-read from the store on every call; decisions are never cached
// across requests.
type Service struct {
	perms PermissionStore
	teams TeamAccessStore
}

// NewService constructs a Service over the given stores.
func NewService(perms PermissionStore, teams TeamAccessStore) (*Service, error) {
	if perms == nil {
		return nil, errors.New("permission store is required")
	}
	if teams == nil {
		return nil, errors.New("team access store is required")
	}
	return &Service{perms: perms, teams: teams}, nil
}

// HasPermission resolves the effective value of key for the actor: explicit
// override first, role default second. super_admin short-circuits without a
// store read.
func (s *Service) HasPermission(ctx context.Context, userID int64, role Role, key Key) (bool, error) {
	if role == RoleSuperAdmin {
		return true, nil
	}
	if userID <= 0 {
		return false, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	record, err := s.perms.Get(ctx, userID, key)
	if err != nil {
		return false, err
	}
	var override *bool
	if record != nil {
		override = &record.Value
	}
	return Resolve(role, key, override), nil
}

// UserPermissions returns the effective value of every permission key for
// the actor, with explicit overrides applied over role defaults.
func (s *Service) UserPermissions(ctx context.Context, userID int64, role Role) (map[Key]bool, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	overrides := make(map[Key]*bool)
	if role != RoleSuperAdmin {
		records, err := s.perms.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		for i := range records {
			overrides[records[i].Key] = &records[i].Value
		}
	}
	effective := make(map[Key]bool, len(AllKeys))
	for _, key := range AllKeys {
		effective[key] = Resolve(role, key, overrides[key])
	}
	return effective, nil
}

// SetUserPermission creates or updates the explicit override for (userID, key).
func (s *Service) SetUserPermission(ctx context.Context, userID int64, key Key, value bool) (PermissionRecord, error) {
	if userID <= 0 {
		return PermissionRecord{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	key, err := ParseKey(string(key))
	if err != nil {
		return PermissionRecord{}, err
	}
	return s.perms.Set(ctx, userID, key, value)
}

// CanAccessTeam reports whether the actor is registered as a supervisor of
// the team. Absence of the association denies access regardless of company.
func (s *Service) CanAccessTeam(ctx context.Context, userID, teamID int64) (bool, error) {
	if userID <= 0 || teamID <= 0 {
		return false, fmt.Errorf("%w: user id and team id are required", ErrInvalidInput)
	}
	return s.teams.IsTeamSupervisor(ctx, userID, teamID)
}

// SupervisorTeamIDs lists the teams the actor supervises.
func (s *Service) SupervisorTeamIDs(ctx context.Context, userID int64) ([]int64, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.teams.SupervisorTeamIDs(ctx, userID)
}
