package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
	"workforce-hub/backend/internal/repository/repotest"
)

func TestRelationshipService_Rebuild(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.NewFixture(t, db)
	svc := NewRelationshipService(repository.NewRepository(db), zap.NewNop())

	d1 := fx.Department("Sales").DepartmentID
	d2 := fx.Department("Support").DepartmentID
	hod1 := fx.User("hod1", model.RoleDepartmentHead, d1, "")
	hod2 := fx.User("hod2", model.RoleDepartmentHead, d2, "")
	fx.User("floating", model.RoleDepartmentHead, "", "")
	m1 := fx.User("m1", model.RoleManager, d1, "")
	m2 := fx.User("m2", model.RoleManager, d1, "")
	u1 := fx.User("u1", model.RoleMember, d1, "")
	fx.User("u2", model.RoleMember, d1, m1.UserID)
	u3 := fx.User("u3", model.RoleMember, d2, "")

	// 旧数据中的脏引用应被覆盖
	fx.SetManaged(hod1.UserID, repository.ColumnManagedManagerIDs, "stale")
	fx.SetManaged(hod2.UserID, repository.ColumnManagedMemberIDs, u1.UserID)

	res, err := svc.RebuildRelationships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed, "未归属部门的负责人不计入")

	got1 := fx.Reload(hod1.UserID)
	assert.ElementsMatch(t, []string{m1.UserID, m2.UserID}, got1.ManagedManagerIDs)
	assert.ElementsMatch(t, []string{u1.UserID}, got1.ManagedMemberIDs, "只登记无经理成员")

	got2 := fx.Reload(hod2.UserID)
	assert.Empty(t, got2.ManagedManagerIDs)
	assert.ElementsMatch(t, []string{u3.UserID}, got2.ManagedMemberIDs)

	// 重建可重复执行
	res, err = svc.RebuildRelationships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.ElementsMatch(t, []string{m1.UserID, m2.UserID}, fx.Reload(hod1.UserID).ManagedManagerIDs)
}

func TestRelationshipService_Validate(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.NewFixture(t, db)
	svc := NewRelationshipService(repository.NewRepository(db), zap.NewNop())

	d1 := fx.Department("Sales").DepartmentID
	fx.Department("Vacant")
	hod1 := fx.User("hod1", model.RoleDepartmentHead, d1, "")
	fx.User("floating", model.RoleDepartmentHead, "", "")
	m1 := fx.User("m1", model.RoleManager, d1, "")
	fx.User("m2", model.RoleManager, d1, "")
	fx.User("u1", model.RoleMember, d1, "")
	fx.SetManaged(hod1.UserID, repository.ColumnManagedManagerIDs, m1.UserID)
	fx.SetHead(d1, hod1.UserID)

	report, err := svc.ValidateRelationships(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 4, "Vacant 同时缺少 headId 与负责人")
	joined := strings.Join(report.Issues, "\n")
	assert.Contains(t, joined, "floating")
	assert.Contains(t, joined, "Vacant")
	assert.Contains(t, joined, "m2")

	assert.Equal(t, int64(5), report.Summary.TotalUsers)
	assert.Equal(t, 2, report.Summary.TotalDepts)
	assert.Equal(t, int64(2), report.Summary.DepartmentHeads)
	assert.Equal(t, int64(2), report.Summary.Managers)
	assert.Equal(t, int64(1), report.Summary.Members)
	assert.Equal(t, 4, report.Summary.IssueCount)
}

func TestRelationshipService_ValidateAfterRebuild(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.NewFixture(t, db)
	svc := NewRelationshipService(repository.NewRepository(db), zap.NewNop())

	d1 := fx.Department("Sales").DepartmentID
	hod1 := fx.User("hod1", model.RoleDepartmentHead, d1, "")
	fx.SetHead(d1, hod1.UserID)
	fx.User("m1", model.RoleManager, d1, "")
	fx.User("m2", model.RoleManager, d1, "")

	_, err := svc.RebuildRelationships(context.Background())
	require.NoError(t, err)

	report, err := svc.ValidateRelationships(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)
	assert.NotNil(t, report.Issues, "issues 序列化为 [] 而非 null")
}

func TestRelationshipService_Validate_DepartmentHeadID(t *testing.T) {
	db := repotest.NewDB(t)
	fx := repotest.NewFixture(t, db)
	svc := NewRelationshipService(repository.NewRepository(db), zap.NewNop())

	// 有负责人用户但 head_id 未回写
	sales := fx.Department("Sales").DepartmentID
	fx.User("hod1", model.RoleDepartmentHead, sales, "")

	report, err := svc.ValidateRelationships(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "has no headId")

	// head_id 指向其他部门的负责人或普通成员
	support := fx.Department("Support").DepartmentID
	hod2 := fx.User("hod2", model.RoleDepartmentHead, support, "")
	stale := fx.User("stale", model.RoleMember, support, "")
	fx.SetHead(sales, hod2.UserID)
	fx.SetHead(support, stale.UserID)

	report, err = svc.ValidateRelationships(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 2)
	joined := strings.Join(report.Issues, "\n")
	assert.Contains(t, joined, "does not match department head")
	assert.Contains(t, joined, stale.UserID)
}
