package auth

import (
	"fmt"
	"strings"
	"time"
)

// Key identifies one capability flag from the fixed, closed enumeration.
type Key string

const (
	PermViewWall             Key = "view_wall"
	PermSendElogios          Key = "send_elogios"
	PermDeleteElogios        Key = "delete_elogios"
	PermViewStore            Key = "view_store"
	PermRedeemItemsStore     Key = "redeem_items_store"
	PermInsertItemsCatalog   Key = "insert_new_items_catalog"
	PermUpdateItemsCatalog   Key = "update_items_catalog"
	PermRemoveItemsCatalog   Key = "remove_items_catalog"
	PermManageCategories     Key = "manage_categories"
	PermCreateUsers          Key = "create_users"
	PermUpdateUsers          Key = "update_users"
	PermDeactivateUsers      Key = "deactivate_users"
	PermManagePermissions    Key = "manage_permissions"
	PermViewCompanyAnalytics Key = "view_company_analytics"
	PermViewTeamAnalytics    Key = "view_team_analytics"
	PermCreateSurveys        Key = "create_surveys"
	PermRespondSurveys       Key = "respond_surveys"
	PermViewSurveyResults    Key = "view_survey_results"
	PermUpdateOwnProfile     Key = "update_own_profile"
)

// AllKeys lists every permission key in a stable order.
var AllKeys = []Key{
	PermViewWall,
	PermSendElogios,
	PermDeleteElogios,
	PermViewStore,
	PermRedeemItemsStore,
	PermInsertItemsCatalog,
	PermUpdateItemsCatalog,
	PermRemoveItemsCatalog,
	PermManageCategories,
	PermCreateUsers,
	PermUpdateUsers,
	PermDeactivateUsers,
	PermManagePermissions,
	PermViewCompanyAnalytics,
	PermViewTeamAnalytics,
	PermCreateSurveys,
	PermRespondSurveys,
	PermViewSurveyResults,
	PermUpdateOwnProfile,
}

// PermissionRecord is an explicit per-user override for one key. Absence of a
// record means the role default applies.
type PermissionRecord struct {
	UserID    int64     `json:"user_id"`
	Key       Key       `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// memberDefaults are the keys every role is granted out of the box.
var memberDefaults = map[Key]struct{}{
	PermViewWall:         {},
	PermSendElogios:      {},
	PermViewStore:        {},
	PermRedeemItemsStore: {},
	PermRespondSurveys:   {},
	PermUpdateOwnProfile: {},
}

// supervisorDefaults extend the member set for supervisors.
var supervisorDefaults = map[Key]struct{}{
	PermViewTeamAnalytics: {},
}

// roleDefault resolves the default value of key for role when no explicit
// record exists. company_admin defaults to true for every key.
func roleDefault(role Role, key Key) bool {
	switch role {
	case RoleSuperAdmin, RoleCompanyAdmin:
		return true
	case RoleSupervisor:
		if _, ok := supervisorDefaults[key]; ok {
			return true
		}
		_, ok := memberDefaults[key]
		return ok
	case RoleCollaborator:
		_, ok := memberDefaults[key]
		return ok
	default:
		return false
	}
}

// Resolve computes the effective value of key for an actor: super_admin is
// always allowed, an explicit override wins otherwise, and the role default
// applies last.
func Resolve(role Role, key Key, override *bool) bool {
	if role == RoleSuperAdmin {
		return true
	}
	if override != nil {
		return *override
	}
	return roleDefault(role, key)
}

// ParseKey validates that raw names a known permission key.
func ParseKey(raw string) (Key, error) {
	key := Key(strings.TrimSpace(raw))
	for _, k := range AllKeys {
		if k == key {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: unknown permission key %q", ErrInvalidInput, raw)
}
