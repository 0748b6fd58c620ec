package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Department 部门表，对应 departments
type Department struct {
	DepartmentID string  `gorm:"type:uuid;primaryKey"      json:"department_id"`
	Name         string  `gorm:"type:varchar(100);not null" json:"name"`
	Description  string  `gorm:"type:text"                 json:"description,omitempty"`
	IsActive     bool    `gorm:"not null"                  json:"is_active"`
	HeadID       *string `gorm:"type:uuid"                 json:"head_id"`
	Version      int     `gorm:"not null"                  json:"version"`
	SoftDeleteModel
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// BeforeCreate 未指定主键时生成 UUID
func (d *Department) BeforeCreate(_ *gorm.DB) error {
	if d.DepartmentID == "" {
		d.DepartmentID = uuid.NewString()
	}
	if d.Version == 0 {
		d.Version = 1
	}
	return nil
}
