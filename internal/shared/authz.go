package shared

import "fmt"

// Role enumerates caller roles. Query scoping is built per variant, never by
// probing which identity fields happen to be present.
type Role string

const (
	RoleSuperAdmin Role = "superAdmin"
	RoleAdmin      Role = "admin"
	RoleViewer     Role = "viewer"
)

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleSuperAdmin, RoleAdmin, RoleViewer:
		return Role(raw), nil
	}
	return "", fmt.Errorf("shared: unknown role %q", raw)
}

// Identity describes the already-authenticated caller. Authentication itself
// is an upstream collaborator; this core only consumes its result.
type Identity struct {
	Role     Role
	AnchorID string
	Phone    string
}

// ScopeFilter narrows ledger queries to what the caller may see.
type ScopeFilter struct {
	AnchorID         string
	DistributorPhone string
}

// Scope builds the query filter for the identity's role.
func (id Identity) Scope() (ScopeFilter, error) {
	switch id.Role {
	case RoleSuperAdmin:
		return ScopeFilter{}, nil
	case RoleAdmin:
		if id.AnchorID == "" {
			return ScopeFilter{}, fmt.Errorf("shared: admin identity missing anchor id")
		}
		return ScopeFilter{AnchorID: id.AnchorID}, nil
	case RoleViewer:
		if id.Phone == "" {
			return ScopeFilter{}, fmt.Errorf("shared: viewer identity missing phone")
		}
		return ScopeFilter{DistributorPhone: id.Phone}, nil
	}
	return ScopeFilter{}, fmt.Errorf("shared: unknown role %q", id.Role)
}
