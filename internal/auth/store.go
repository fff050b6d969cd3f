package auth

import "context"

// PermissionStore persists explicit per-user permission overrides. Get
// returns nil without error when no record exists for (userID, key).
type PermissionStore interface {
	Get(ctx context.Context, userID int64, key Key) (*PermissionRecord, error)
	List(ctx context.Context, userID int64) ([]PermissionRecord, error)
	Set(ctx context.Context, userID int64, key Key, value bool) (PermissionRecord, error)
}

// TeamAccessStore answers supervisor-team association lookups.
type TeamAccessStore interface {
	IsTeamSupervisor(ctx context.Context, userID, teamID int64) (bool, error)
	SupervisorTeamIDs(ctx context.Context, userID int64) ([]int64, error)
}
