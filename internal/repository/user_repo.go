package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"workforce-hub/backend/internal/model"
)

// 关系列表字段
const (
	ColumnManagedManagerIDs = "managed_manager_ids"
	ColumnManagedMemberIDs  = "managed_member_ids"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetWithRelations(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.User, error)
	// FindDepartmentHead 查询部门当前负责人，excludeID 非空时排除该用户
	FindDepartmentHead(ctx context.Context, departmentID, excludeID string) (*model.User, error)
	ListByRole(ctx context.Context, role string) ([]model.User, error)
	// ListByDepartmentAndRole unmanagedOnly 为 true 时只返回 manager_id 为空的用户
	ListByDepartmentAndRole(ctx context.Context, departmentID, role string, unmanagedOnly bool) ([]model.User, error)
	ListAll(ctx context.Context) ([]model.User, error)
	// UpdateFields 按字段更新，返回受影响行数
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	SetManagedIDs(ctx context.Context, id, column string, ids model.IDList) error
	CountByRole(ctx context.Context) (map[string]int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetWithRelations(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Department").
		Preload("Manager").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	if len(ids) == 0 {
		return []model.User{}, nil
	}
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", ids).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) FindDepartmentHead(ctx context.Context, departmentID, excludeID string) (*model.User, error) {
	var user model.User
	q := r.db.WithContext(ctx).
		Where("role = ? AND department_id = ?", model.RoleDepartmentHead, departmentID)
	if excludeID != "" {
		q = q.Where("user_id <> ?", excludeID)
	}
	if err := q.Order("created_at ASC").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) ListByDepartmentAndRole(ctx context.Context, departmentID, role string, unmanagedOnly bool) ([]model.User, error) {
	var users []model.User
	q := r.db.WithContext(ctx).
		Where("department_id = ? AND role = ?", departmentID, role)
	if unmanagedOnly {
		q = q.Where("manager_id IS NULL")
	}
	err := q.Order("created_at ASC").Find(&users).Error
	return users, err
}

func (r *userRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&users).Error
	return users, err
}

func (r *userRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *userRepo) SetManagedIDs(ctx context.Context, id, column string, ids model.IDList) error {
	if column != ColumnManagedManagerIDs && column != ColumnManagedMemberIDs {
		return fmt.Errorf("unsupported relation column %q", column)
	}
	if ids == nil {
		ids = model.IDList{}
	}
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update(column, ids).Error
}

func (r *userRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Total int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
