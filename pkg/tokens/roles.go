package tokens

const (
	RoleCustomer   = "Customer"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "Super Admin"
)

func IsAdminRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}
