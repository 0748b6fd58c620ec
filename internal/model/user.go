package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 用户状态
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User 用户表，对应 users
type User struct {
	UserID            string  `gorm:"type:uuid;primaryKey"                  json:"user_id"`
	Name              string  `gorm:"type:varchar(100);not null"            json:"name"`
	Email             string  `gorm:"type:varchar(255);not null"            json:"email"`
	Phone             string  `gorm:"type:varchar(32)"                      json:"phone,omitempty"`
	PasswordHash      string  `gorm:"type:varchar(255);not null"            json:"-"`
	Role              string  `gorm:"type:varchar(20);not null"             json:"role"`
	Status            string  `gorm:"type:varchar(20);not null"             json:"status"`
	DepartmentID      *string `gorm:"type:uuid"                             json:"department_id"`
	ManagerID         *string `gorm:"type:uuid"                             json:"manager_id"`
	ManagedManagerIDs IDList  `gorm:"column:managed_manager_ids;type:uuid[]" json:"managed_manager_ids"`
	ManagedMemberIDs  IDList  `gorm:"column:managed_member_ids;type:uuid[]"  json:"managed_member_ids"`
	SoftDeleteModel

	// 关联
	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Manager    *User       `gorm:"foreignKey:ManagerID;references:UserID"         json:"manager,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 未指定主键时生成 UUID，并补齐默认值
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	if u.Status == "" {
		u.Status = UserStatusActive
	}
	if u.ManagedManagerIDs == nil {
		u.ManagedManagerIDs = IDList{}
	}
	if u.ManagedMemberIDs == nil {
		u.ManagedMemberIDs = IDList{}
	}
	return nil
}

// DeptID 解引用 DepartmentID，未归属部门时返回空串
func (u *User) DeptID() string {
	if u.DepartmentID == nil {
		return ""
	}
	return *u.DepartmentID
}

// MgrID 解引用 ManagerID
func (u *User) MgrID() string {
	if u.ManagerID == nil {
		return ""
	}
	return *u.ManagerID
}
