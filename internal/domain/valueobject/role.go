package valueobject

import "github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"

// Role is an authorization role. Ranks give a total order used for privilege
// comparison: USER < ADMIN < SUPERADMIN.
type Role string

const (
	RoleUser       Role = "ROLE_USER"
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleSuperAdmin Role = "ROLE_SUPERADMIN"
)

func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if r.Rank() == 0 {
		return "", domainerror.Validation("role", "must be one of ROLE_USER, ROLE_ADMIN, ROLE_SUPERADMIN")
	}
	return r, nil
}

// Rank: bigger => higher privilege, 0 for unknown values.
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

func (r Role) HasPrivilegesOf(other Role) bool {
	return r.Rank() >= other.Rank()
}

func (r Role) HasAdminPrivileges() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) String() string { return string(r) }
