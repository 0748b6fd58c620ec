package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce-hub/backend/internal/dto"
	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
	apperrors "workforce-hub/backend/pkg/errors"
	applog "workforce-hub/backend/pkg/logger"
)

// ── 组织关系同步 ──
//
// 用户的 role / department_id 变化时，在同一事务内维护负责人、经理与成员之间的
// managed_manager_ids / managed_member_ids 反向引用。三个分支互斥，按顺序判定：
//   1. 晋升为部门负责人
//   2. 经理调部门
//   3. 成员调部门

// SyncBranch 关系同步分支
type SyncBranch string

const (
	BranchNone        SyncBranch = ""
	BranchPromoteHead SyncBranch = "promote_department_head"
	BranchManagerMove SyncBranch = "manager_department_change"
	BranchMemberMove  SyncBranch = "member_department_change"
)

type listOp string

const (
	relationListAdd    listOp = "add"
	relationListRemove listOp = "remove"
)

const (
	msgDepartmentNeeded = "Department ID required for department_head role"
	msgNoNewHead        = "No department head found for new department"
)

// syncResult 同步分支的执行结果，供最终更新与事件使用
type syncResult struct {
	Branch           SyncBranch
	DepartmentID     string
	PrevDepartmentID string
	PrevHeadID       string

	// 晋升分支合并后的关系列表；nil 表示沿用请求中的值
	ManagedManagerIDs model.IDList
	ManagedMemberIDs  model.IDList
	// ClearManager 成员调部门且未指定新经理时清空 manager_id
	ClearManager bool
}

// relationSync 关系同步器，所有存储访问都经由调用方传入的事务 Repository
type relationSync struct {
	trackMembersAtHead bool
	logger             *zap.Logger
}

func newRelationSync(trackMembersAtHead bool, logger *zap.Logger) *relationSync {
	return &relationSync{trackMembersAtHead: trackMembersAtHead, logger: logger}
}

// log 优先使用带 request_id / user_id 的请求级日志器
func (s *relationSync) log(ctx context.Context) *zap.Logger {
	return applog.FromContext(ctx, s.logger)
}

// selectBranch 只根据 role 与 department_id 判定分支
func selectBranch(prev *model.User, req *dto.UpdateUserRequest) SyncBranch {
	if req.Role == nil {
		return BranchNone
	}
	newRole := *req.Role

	if newRole == model.RoleDepartmentHead && prev.Role != model.RoleDepartmentHead {
		return BranchPromoteHead
	}

	deptChanged := req.DepartmentID != nil && *req.DepartmentID != prev.DeptID()
	if !deptChanged {
		return BranchNone
	}

	switch {
	case prev.Role == model.RoleManager && newRole == model.RoleManager:
		return BranchManagerMove
	case prev.Role == model.RoleMember && newRole == model.RoleMember:
		return BranchMemberMove
	}
	return BranchNone
}

// Apply 执行命中的分支；未命中时返回 BranchNone 且不产生任何写入
func (s *relationSync) Apply(ctx context.Context, tx *repository.Repository, targetID string, prev *model.User, req *dto.UpdateUserRequest) (*syncResult, error) {
	switch selectBranch(prev, req) {
	case BranchPromoteHead:
		return s.promoteHead(ctx, tx, targetID, prev, req)
	case BranchManagerMove:
		return s.moveManager(ctx, tx, targetID, prev, req)
	case BranchMemberMove:
		return s.moveMember(ctx, tx, targetID, prev, req)
	default:
		return &syncResult{Branch: BranchNone}, nil
	}
}

// ────────────────────── 分支 1：晋升为部门负责人 ──────────────────────

func (s *relationSync) promoteHead(ctx context.Context, tx *repository.Repository, targetID string, prev *model.User, req *dto.UpdateUserRequest) (*syncResult, error) {
	if req.DepartmentID == nil || *req.DepartmentID == "" {
		return nil, apperrors.Validation(msgDepartmentNeeded)
	}
	deptID := *req.DepartmentID

	// 先读部门版本，再读现任负责人，保证比较交换覆盖这次读取
	dept, err := tx.Department.GetByID(ctx, deptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Department not found")
		}
		return nil, err
	}

	prevHead, err := s.findHead(ctx, tx, deptID, targetID)
	if err != nil {
		return nil, err
	}

	res := &syncResult{
		Branch:           BranchPromoteHead,
		DepartmentID:     deptID,
		PrevDepartmentID: prev.DeptID(),
	}

	if prevHead != nil {
		res.PrevHeadID = prevHead.UserID

		// 整个部门随负责人一起移交；请求中显式给出的 id 保留在前
		res.ManagedManagerIDs, _ = model.Union(model.IDList(req.ManagedManagerIDs), prevHead.ManagedManagerIDs).Remove(targetID)
		res.ManagedMemberIDs, _ = model.Union(model.IDList(req.ManagedMemberIDs), prevHead.ManagedMemberIDs).Remove(targetID)

		// 原负责人降级为无归属成员
		_, err := tx.User.UpdateFields(ctx, prevHead.UserID, map[string]interface{}{
			"role":                            model.RoleMember,
			"department_id":                   nil,
			"manager_id":                      nil,
			repository.ColumnManagedManagerIDs: model.IDList{},
			repository.ColumnManagedMemberIDs:  model.IDList{},
		})
		if err != nil {
			s.log(ctx).Error("降级原部门负责人失败", zap.String("prev_head_id", prevHead.UserID), zap.Error(err))
			return nil, err
		}

		s.log(ctx).Info("部门负责人移交",
			zap.String("department_id", deptID),
			zap.String("prev_head_id", prevHead.UserID),
			zap.String("new_head_id", targetID),
			zap.Int("managers", len(res.ManagedManagerIDs)),
			zap.Int("members", len(res.ManagedMemberIDs)),
		)
	}

	if err := tx.Department.SetHead(ctx, deptID, targetID, dept.Version); err != nil {
		return nil, err
	}

	return res, nil
}

// ────────────────────── 分支 2：经理调部门 ──────────────────────

func (s *relationSync) moveManager(ctx context.Context, tx *repository.Repository, targetID string, prev *model.User, req *dto.UpdateUserRequest) (*syncResult, error) {
	oldDeptID, newDeptID := prev.DeptID(), *req.DepartmentID
	if oldDeptID == "" || newDeptID == "" {
		return nil, apperrors.Validation("Both old and new department IDs are required for manager department change")
	}

	oldHod, newHod, err := s.resolveHeads(ctx, tx, oldDeptID, newDeptID, targetID)
	if err != nil {
		return nil, err
	}

	if oldHod != nil {
		if _, err := s.modifyRelationList(ctx, tx, oldHod.UserID, repository.ColumnManagedManagerIDs, relationListRemove, targetID); err != nil {
			return nil, err
		}
	}
	if _, err := s.modifyRelationList(ctx, tx, newHod.UserID, repository.ColumnManagedManagerIDs, relationListAdd, targetID); err != nil {
		return nil, err
	}

	return &syncResult{
		Branch:           BranchManagerMove,
		DepartmentID:     newDeptID,
		PrevDepartmentID: oldDeptID,
	}, nil
}

// ────────────────────── 分支 3：成员调部门 ──────────────────────

func (s *relationSync) moveMember(ctx context.Context, tx *repository.Repository, targetID string, prev *model.User, req *dto.UpdateUserRequest) (*syncResult, error) {
	oldDeptID, newDeptID := prev.DeptID(), *req.DepartmentID
	if oldDeptID == "" || newDeptID == "" {
		return nil, apperrors.Validation("Both old and new department IDs are required for member department change")
	}

	oldHod, newHod, err := s.resolveHeads(ctx, tx, oldDeptID, newDeptID, targetID)
	if err != nil {
		return nil, err
	}

	// 清理旧侧：旧负责人与旧经理
	if oldHod != nil {
		if _, err := s.modifyRelationList(ctx, tx, oldHod.UserID, repository.ColumnManagedMemberIDs, relationListRemove, targetID); err != nil {
			return nil, err
		}
	}
	if prevMgr := prev.MgrID(); prevMgr != "" {
		found, err := s.modifyRelationList(ctx, tx, prevMgr, repository.ColumnManagedMemberIDs, relationListRemove, targetID)
		if err != nil {
			return nil, err
		}
		if !found {
			s.log(ctx).Warn("原经理不存在，跳过清理", zap.String("manager_id", prevMgr), zap.String("user_id", targetID))
		}
	}

	// 建立新侧：负责人层面始终登记（可配置为仅登记无经理成员），指定经理时再登记到经理
	newMgr := ""
	if req.ManagerID != nil {
		newMgr = *req.ManagerID
	}
	if s.trackMembersAtHead || newMgr == "" {
		if _, err := s.modifyRelationList(ctx, tx, newHod.UserID, repository.ColumnManagedMemberIDs, relationListAdd, targetID); err != nil {
			return nil, err
		}
	}
	if newMgr != "" {
		found, err := s.modifyRelationList(ctx, tx, newMgr, repository.ColumnManagedMemberIDs, relationListAdd, targetID)
		if err != nil {
			return nil, err
		}
		if !found {
			s.log(ctx).Warn("新经理不存在，成员仅挂在部门负责人下", zap.String("manager_id", newMgr), zap.String("user_id", targetID))
		}
	}

	return &syncResult{
		Branch:           BranchMemberMove,
		DepartmentID:     newDeptID,
		PrevDepartmentID: oldDeptID,
		ClearManager:     newMgr == "",
	}, nil
}

// ── 辅助方法 ──

// resolveHeads 查询新旧部门负责人；旧负责人可缺失，新负责人缺失视为 NotFound
func (s *relationSync) resolveHeads(ctx context.Context, tx *repository.Repository, oldDeptID, newDeptID, targetID string) (*model.User, *model.User, error) {
	oldHod, err := s.findHead(ctx, tx, oldDeptID, targetID)
	if err != nil {
		return nil, nil, err
	}
	newHod, err := s.findHead(ctx, tx, newDeptID, targetID)
	if err != nil {
		return nil, nil, err
	}
	if newHod == nil {
		return nil, nil, apperrors.NotFound(msgNoNewHead)
	}
	if oldHod == nil {
		s.log(ctx).Warn("旧部门没有负责人", zap.String("department_id", oldDeptID))
	}
	return oldHod, newHod, nil
}

// findHead 查询部门负责人，不存在时返回 nil
func (s *relationSync) findHead(ctx context.Context, tx *repository.Repository, deptID, excludeID string) (*model.User, error) {
	head, err := tx.User.FindDepartmentHead(ctx, deptID, excludeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		s.log(ctx).Error("查询部门负责人失败", zap.String("department_id", deptID), zap.Error(err))
		return nil, err
	}
	return head, nil
}

// modifyRelationList 对 owner 的关系列表执行幂等的增删。
// owner 不存在时返回 found=false 而非错误，由调用方决定是否继续。
func (s *relationSync) modifyRelationList(ctx context.Context, tx *repository.Repository, ownerID, column string, op listOp, targetID string) (bool, error) {
	owner, err := tx.User.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	var current model.IDList
	switch column {
	case repository.ColumnManagedManagerIDs:
		current = owner.ManagedManagerIDs
	case repository.ColumnManagedMemberIDs:
		current = owner.ManagedMemberIDs
	default:
		return false, apperrors.Validation("unsupported relation field %q", column)
	}
	if current == nil {
		current = model.IDList{}
	}

	var (
		next    model.IDList
		changed bool
	)
	switch op {
	case relationListAdd:
		next, changed = current.Add(targetID)
	case relationListRemove:
		next, changed = current.Remove(targetID)
	default:
		return false, apperrors.Validation("unsupported relation operation %q", op)
	}

	if changed {
		if err := tx.User.SetManagedIDs(ctx, ownerID, column, next); err != nil {
			s.log(ctx).Error("更新关系列表失败",
				zap.String("owner_id", ownerID), zap.String("field", column), zap.Error(err))
			return false, err
		}
	}
	return true, nil
}
