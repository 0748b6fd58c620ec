package model

// 用户角色
const (
	RoleSuperAdmin     = "super_admin"
	RoleAdmin          = "admin"
	RoleDepartmentHead = "department_head"
	RoleManager        = "manager"
	RoleMember         = "member"
	RoleHR             = "hr"
	RoleHRManager      = "hr_manager"
	RolePerson         = "person"
)

var validRoles = map[string]struct{}{
	RoleSuperAdmin:     {},
	RoleAdmin:          {},
	RoleDepartmentHead: {},
	RoleManager:        {},
	RoleMember:         {},
	RoleHR:             {},
	RoleHRManager:      {},
	RolePerson:         {},
}

// IsValidRole 角色是否在枚举内
func IsValidRole(role string) bool {
	_, ok := validRoles[role]
	return ok
}
