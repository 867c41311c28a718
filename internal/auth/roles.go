package auth

import "fmt"

// Role is the closed set of staff roles.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleCashier       Role = "cashier"
	RoleBranchManager Role = "branch_manager"
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleCashier, RoleBranchManager:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanCheckout reports whether the role may complete a sale at the register.
// Branch managers are not allowed to ring up sales.
func (r Role) CanCheckout() bool {
	switch r {
	case RoleAdmin, RoleCashier:
		return true
	case RoleBranchManager:
		return false
	}
	return false
}

// CanManageStock covers branch stock adjustments and reports.
func (r Role) CanManageStock() bool {
	switch r {
	case RoleAdmin, RoleBranchManager:
		return true
	case RoleCashier:
		return false
	}
	return false
}

// Label is the display name shown on the back-office screens.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Yönetici"
	case RoleCashier:
		return "Kasiyer"
	case RoleBranchManager:
		return "Şube Müdürü"
	}
	return string(r)
}

// Principal is the authenticated session handed to the domain services.
// It is built once per request and never mutated.
type Principal struct {
	UserID   uint
	Email    string
	FullName string
	Role     Role
	BranchID uint
}
