package accounts

// IsValidRole checks if the name is one of the predefined roles
func IsValidRole(name RoleName) bool {
	switch name {
	case RoleUser, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []RoleName {
	return []RoleName{
		RoleUser,
		RoleInstructor,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a RoleName
func ParseRole(roleStr string) (RoleName, bool) {
	role := RoleName(roleStr)
	return role, IsValidRole(role)
}

// HasRole reports whether names contains the given role
func HasRole(names []string, role RoleName) bool {
	for _, n := range names {
		if n == role {
			return true
		}
	}
	return false
}
