package auth

// Identity is the verified actor of a request, derived from a token and
// immutable for the request's lifetime. CompanyID is zero only for
// super_admin accounts, which are not bound to a tenant.
type Identity struct {
	UserID    int64 `json:"user_id"`
	Role      Role  `json:"role"`
	CompanyID int64 `json:"company_id,omitempty"`
}

// IsSuperAdmin reports whether the identity bypasses company scoping.
func (id Identity) IsSuperAdmin() bool {
	return id.Role == RoleSuperAdmin
}
