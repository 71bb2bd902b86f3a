package enums

import "fmt"

// ActorRole is the role carried in the access token. The core never branches
// on it; only approval gates do.
type ActorRole string

const (
	ActorRoleRequester    ActorRole = "requester"
	ActorRoleCollegeAdmin ActorRole = "college_admin"
	ActorRoleSuperAdmin   ActorRole = "super_admin"
	ActorRoleStoreKeeper  ActorRole = "store_keeper"
	ActorRoleSystem       ActorRole = "system"
)

var validActorRoles = []ActorRole{
	ActorRoleRequester,
	ActorRoleCollegeAdmin,
	ActorRoleSuperAdmin,
	ActorRoleStoreKeeper,
	ActorRoleSystem,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ActorRole.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into an ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
