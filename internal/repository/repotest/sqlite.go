// Package repotest 为测试提供带真实事务语义的内存 SQLite 数据库。
package repotest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"workforce-hub/backend/internal/model"
)

// schema 与 PostgreSQL 迁移保持同样的列与约束（UUID[] 以文本保存 {a,b} 格式）
var schema = []string{
	`CREATE TABLE departments (
		department_id TEXT PRIMARY KEY,
		name          TEXT     NOT NULL,
		description   TEXT,
		is_active     BOOLEAN  NOT NULL DEFAULT 1,
		head_id       TEXT,
		version       INTEGER  NOT NULL DEFAULT 1,
		created_at    DATETIME,
		updated_at    DATETIME,
		deleted_at    DATETIME
	)`,
	`CREATE TABLE users (
		user_id             TEXT PRIMARY KEY,
		name                TEXT     NOT NULL,
		email               TEXT     NOT NULL,
		phone               TEXT,
		password_hash       TEXT     NOT NULL DEFAULT '',
		role                TEXT     NOT NULL DEFAULT 'member',
		status              TEXT     NOT NULL DEFAULT 'active',
		department_id       TEXT,
		manager_id          TEXT,
		managed_manager_ids TEXT     NOT NULL DEFAULT '{}',
		managed_member_ids  TEXT     NOT NULL DEFAULT '{}',
		created_at          DATETIME,
		updated_at          DATETIME,
		deleted_at          DATETIME
	)`,
	`CREATE UNIQUE INDEX uk_users_email ON users (email) WHERE deleted_at IS NULL`,
	`CREATE UNIQUE INDEX uk_users_department_head ON users (department_id)
		WHERE role = 'department_head' AND deleted_at IS NULL`,
}

// NewDB 打开独立的内存数据库并建表。
// 连接池限制为 1：内存库按连接隔离，且事务期间的所有语句都走同一连接。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("建表失败: %v", err)
		}
	}
	return db
}

// Fixture 便捷建数工具
type Fixture struct {
	t  testing.TB
	db *gorm.DB
}

// NewFixture 绑定数据库的建数工具
func NewFixture(t testing.TB, db *gorm.DB) *Fixture {
	return &Fixture{t: t, db: db}
}

// Department 创建部门
func (f *Fixture) Department(name string) *model.Department {
	f.t.Helper()
	dept := &model.Department{Name: name, IsActive: true}
	if err := f.db.Create(dept).Error; err != nil {
		f.t.Fatalf("创建部门失败: %v", err)
	}
	return dept
}

// User 创建用户；deptID、managerID 为空时写 NULL
func (f *Fixture) User(name, role, deptID, managerID string) *model.User {
	f.t.Helper()
	user := &model.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	if deptID != "" {
		user.DepartmentID = &deptID
	}
	if managerID != "" {
		user.ManagerID = &managerID
	}
	if err := f.db.Create(user).Error; err != nil {
		f.t.Fatalf("创建用户失败: %v", err)
	}
	return user
}

// SetManaged 直接写关系列表
func (f *Fixture) SetManaged(userID, column string, ids ...string) {
	f.t.Helper()
	if ids == nil {
		ids = []string{}
	}
	err := f.db.Model(&model.User{}).Where("user_id = ?", userID).
		Update(column, model.IDList(ids)).Error
	if err != nil {
		f.t.Fatalf("写入 %s 失败: %v", column, err)
	}
}

// SetHead 直接设置部门负责人
func (f *Fixture) SetHead(deptID, headID string) {
	f.t.Helper()
	err := f.db.Model(&model.Department{}).Where("department_id = ?", deptID).
		Update("head_id", headID).Error
	if err != nil {
		f.t.Fatalf("设置部门负责人失败: %v", err)
	}
}

// Reload 重新读取用户
func (f *Fixture) Reload(userID string) *model.User {
	f.t.Helper()
	var u model.User
	if err := f.db.Where("user_id = ?", userID).First(&u).Error; err != nil {
		f.t.Fatalf("读取用户失败: %v", err)
	}
	return &u
}

// ReloadDepartment 重新读取部门
func (f *Fixture) ReloadDepartment(deptID string) *model.Department {
	f.t.Helper()
	var d model.Department
	if err := f.db.Where("department_id = ?", deptID).First(&d).Error; err != nil {
		f.t.Fatalf("读取部门失败: %v", err)
	}
	return &d
}
