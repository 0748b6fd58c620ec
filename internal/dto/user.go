package dto

// ── 用户模块 DTO ──

// UpdateUserRequest 用户部分更新请求
//
// 字段缺省或为 null 表示不修改；DepartmentID / ManagerID 为空串表示清空；
// 关系列表出现即覆盖（含空数组）。所有 id 必须是 UUID，空串除外。
type UpdateUserRequest struct {
	Name              *string  `json:"name"              binding:"omitempty,min=1,max=100"`
	Email             *string  `json:"email"             binding:"omitempty,email"`
	Phone             *string  `json:"phone"             binding:"omitempty,max=32"`
	Role              *string  `json:"role"`
	Status            *string  `json:"status"            binding:"omitempty,oneof=active inactive"`
	DepartmentID      *string  `json:"departmentId"      binding:"omitempty,uuid|len=0"`
	ManagerID         *string  `json:"managerId"         binding:"omitempty,uuid|len=0"`
	ManagedManagerIDs []string `json:"managedManagerIds" binding:"omitempty,dive,uuid"`
	ManagedMemberIDs  []string `json:"managedMemberIds"  binding:"omitempty,dive,uuid"`
}

// UpdateUserResult 更新结果
type UpdateUserResult struct {
	User                *UserResponse `json:"user"`
	RoleChangeProcessed bool          `json:"roleChangeProcessed"`
	// Branch 实际执行的关系同步分支，未执行时为空
	Branch string `json:"-"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone,omitempty"`
	Role              string   `json:"role"`
	Status            string   `json:"status"`
	DepartmentID      *string  `json:"departmentId"`
	ManagerID         *string  `json:"managerId"`
	ManagedManagerIDs []string `json:"managedManagerIds"`
	ManagedMemberIDs  []string `json:"managedMemberIds"`
	UpdatedAt         string   `json:"updatedAt"`
}

// UserBrief 关联用户的简要信息
type UserBrief struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DepartmentBrief 部门简要信息
type DepartmentBrief struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	HeadID *string `json:"headId"`
}

// UserDetailResponse 展开关联关系的用户详情
type UserDetailResponse struct {
	UserResponse
	Department      *DepartmentBrief `json:"department"`
	Manager         *UserBrief       `json:"manager"`
	ManagedManagers []UserBrief      `json:"managedManagers"`
	ManagedMembers  []UserBrief      `json:"managedMembers"`
}

// ── 关系维护 ──

// RebuildResult 关系重建结果
type RebuildResult struct {
	Processed int `json:"processed"`
}

// ValidationSummary 关系校验统计
type ValidationSummary struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalDepts      int   `json:"totalDepartments"`
	DepartmentHeads int64 `json:"departmentHeads"`
	Managers        int64 `json:"managers"`
	Members         int64 `json:"members"`
	IssueCount      int   `json:"issueCount"`
}

// ValidationReport 关系一致性校验报告
type ValidationReport struct {
	Valid   bool              `json:"valid"`
	Issues  []string          `json:"issues"`
	Summary ValidationSummary `json:"summary"`
}
