package enums

import "fmt"

// UserRole governs what an authenticated user may do.
type UserRole string

const (
	UserRoleCustomer       UserRole = "customer"
	UserRoleServiceAdvisor UserRole = "service_advisor"
	UserRoleTechnician     UserRole = "technician"
	UserRoleDriver         UserRole = "driver"
	UserRoleVendor         UserRole = "vendor"
	UserRoleAdmin          UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleCustomer,
	UserRoleServiceAdvisor,
	UserRoleTechnician,
	UserRoleDriver,
	UserRoleVendor,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role belongs to workshop personnel.
func (u UserRole) IsStaff() bool {
	switch u {
	case UserRoleServiceAdvisor, UserRoleTechnician, UserRoleDriver, UserRoleAdmin:
		return true
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
