package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
	apperrors "workforce-hub/backend/pkg/errors"
	"workforce-hub/backend/pkg/redis"
)

// ── Mock Repositories ──
//
// 内存实现，无事务语义；需要回滚行为的用例使用 repotest 的 SQLite。

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: user_id
	// failOn 按方法名注入错误
	failOn map[string]error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), failOn: make(map[string]error)}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	if u.ManagedManagerIDs == nil {
		u.ManagedManagerIDs = model.IDList{}
	}
	if u.ManagedMemberIDs == nil {
		u.ManagedMemberIDs = model.IDList{}
	}
	if u.Status == "" {
		u.Status = model.UserStatusActive
	}
	m.users[u.UserID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["GetByID"]; err != nil {
		return nil, err
	}
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetWithRelations(ctx context.Context, id string) (*model.User, error) {
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) FindDepartmentHead(_ context.Context, departmentID, excludeID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["FindDepartmentHead"]; err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if u.Role == model.RoleDepartmentHead && u.DeptID() == departmentID && u.UserID != excludeID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (m *mockUserRepo) ListByDepartmentAndRole(_ context.Context, departmentID, role string, unmanagedOnly bool) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.users {
		if u.Role != role || u.DeptID() != departmentID {
			continue
		}
		if unmanagedOnly && u.ManagerID != nil {
			continue
		}
		out = append(out, *u)
	}
	sortUsers(out)
	return out, nil
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sortUsers(out)
	return out, nil
}

func (m *mockUserRepo) UpdateFields(_ context.Context, id string, fields map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["UpdateFields"]; err != nil {
		return 0, err
	}
	u, ok := m.users[id]
	if !ok {
		return 0, nil
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "email":
			u.Email = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "role":
			u.Role = v.(string)
		case "status":
			u.Status = v.(string)
		case "department_id":
			u.DepartmentID = optionalID(v)
		case "manager_id":
			u.ManagerID = optionalID(v)
		case repository.ColumnManagedManagerIDs:
			u.ManagedManagerIDs = append(model.IDList{}, v.(model.IDList)...)
		case repository.ColumnManagedMemberIDs:
			u.ManagedMemberIDs = append(model.IDList{}, v.(model.IDList)...)
		}
	}
	u.UpdatedAt = time.Now()
	return 1, nil
}

func (m *mockUserRepo) SetManagedIDs(_ context.Context, id, column string, ids model.IDList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn["SetManagedIDs"]; err != nil {
		return err
	}
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	switch column {
	case repository.ColumnManagedManagerIDs:
		u.ManagedManagerIDs = append(model.IDList{}, ids...)
	case repository.ColumnManagedMemberIDs:
		u.ManagedMemberIDs = append(model.IDList{}, ids...)
	default:
		return errors.New("unsupported column")
	}
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, u := range m.users {
		counts[u.Role]++
	}
	return counts, nil
}

func optionalID(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := v.(string)
	return &s
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].UserID < users[j].UserID })
}

// ── Department ──

type mockDeptRepo struct {
	mu    sync.Mutex
	depts map[string]*model.Department
}

func newMockDeptRepo() *mockDeptRepo {
	return &mockDeptRepo{depts: make(map[string]*model.Department)}
}

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dept.Version == 0 {
		dept.Version = 1
	}
	m.depts[dept.DepartmentID] = dept
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.depts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context) ([]model.Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Department, 0, len(m.depts))
	for _, d := range m.depts {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockDeptRepo) SetHead(_ context.Context, id, headID string, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.depts[id]
	if !ok || d.Version != expectedVersion {
		return apperrors.ErrOptimisticLock
	}
	d.HeadID = &headID
	d.Version++
	return nil
}

// ── 外部依赖 Mock ──

type mockLocker struct {
	mu       sync.Mutex
	held     map[string]bool
	acquired []string
	err      error
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]bool)}
}

func (m *mockLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.held[key] {
		return nil, redis.ErrLockHeld
	}
	m.held[key] = true
	m.acquired = append(m.acquired, key)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, key)
	}, nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, payload)
	return nil
}

type mockBlacklist struct {
	entries map[string]time.Duration
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string]time.Duration)
	}
	m.entries[jti] = ttl
	return nil
}

// newMockRepository 未注入 db 的 Repository：RunInTx 直接调用 fn
func newMockRepository() (*repository.Repository, *mockUserRepo, *mockDeptRepo) {
	users := newMockUserRepo()
	depts := newMockDeptRepo()
	return &repository.Repository{User: users, Department: depts}, users, depts
}

func strPtr(s string) *string { return &s }
