package domain

// Role is the coarse authorization label attached to a principal.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// DefaultRole applies whenever a credential or provider record carries no role.
const DefaultRole = RoleStudent

// RoleAttribute is the custom-attribute key holding the principal's role.
const RoleAttribute = "role"

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Known reports whether r is one of the recognized gate values.
func (r Role) Known() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// RoleFromString converts a raw role value, falling back to DefaultRole when empty.
// Other values are kept verbatim, without normalisation; unrecognized ones never pass a role gate.
func RoleFromString(raw string) Role {
	if raw == "" {
		return DefaultRole
	}
	return Role(raw)
}

// ResolveRole reads the role from a custom-attribute mapping.
func ResolveRole(attrs map[string]any) Role {
	if attrs == nil {
		return DefaultRole
	}
	switch v := attrs[RoleAttribute].(type) {
	case string:
		return RoleFromString(v)
	case Role:
		return RoleFromString(string(v))
	default:
		return DefaultRole
	}
}
