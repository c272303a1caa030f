package rbac

// Role is a closed enumeration of account roles.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleManager    Role = "MANAGER"
	RoleCashier    Role = "CASHIER"
	RoleStockist   Role = "STOCKIST"
	RoleAccountant Role = "ACCOUNTANT"
)

// Permission is a closed enumeration of atomic capabilities.
type Permission string

const (
	PermCreateBill      Permission = "bill.create"
	PermEditBill        Permission = "bill.edit"
	PermDeleteBill      Permission = "bill.delete"
	PermViewReports     Permission = "reports.view"
	PermAdjustStock     Permission = "stock.adjust"
	PermManageCustomers Permission = "customers.manage"
	PermManageCredit    Permission = "credit.manage"
	PermLockPeriods     Permission = "periods.lock"
	PermUnlockPeriods   Permission = "periods.unlock"
	PermCashClosing     Permission = "closing.record"
	PermManageSessions  Permission = "sessions.manage"
	PermManageUsers     Permission = "users.manage"
)

// rolePermissions is the static role to permission-set table. It is fixed at
// compile time; nothing mutates it at runtime.
var rolePermissions = map[Role][]Permission{
	RoleOwner: {
		PermCreateBill, PermEditBill, PermDeleteBill, PermViewReports,
		PermAdjustStock, PermManageCustomers, PermManageCredit,
		PermLockPeriods, PermUnlockPeriods, PermCashClosing,
		PermManageSessions, PermManageUsers,
	},
	RoleManager: {
		PermCreateBill, PermEditBill, PermViewReports, PermAdjustStock,
		PermManageCustomers, PermManageCredit, PermLockPeriods,
		PermCashClosing,
	},
	RoleCashier: {
		PermCreateBill, PermCashClosing,
	},
	RoleStockist: {
		PermAdjustStock, PermViewReports,
	},
	RoleAccountant: {
		PermViewReports, PermLockPeriods, PermCashClosing,
	},
}

// PermissionsFor returns a copy of the permission set bound to a role.
func PermissionsFor(role Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleCashier, RoleStockist, RoleAccountant}
}

func roleHas(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}
