package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"workforce-hub/backend/internal/dto"
	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
)

// RelationshipService 组织关系维护接口
type RelationshipService interface {
	// RebuildRelationships 按当前 role / department 归属重算所有负责人的关系列表
	RebuildRelationships(ctx context.Context) (*dto.RebuildResult, error)
	// ValidateRelationships 只读校验，返回不一致项
	ValidateRelationships(ctx context.Context) (*dto.ValidationReport, error)
}

type relationshipService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRelationshipService 创建 RelationshipService 实例
func NewRelationshipService(repo *repository.Repository, logger *zap.Logger) RelationshipService {
	return &relationshipService{repo: repo, logger: logger}
}

// ────────────────────── RebuildRelationships ──────────────────────

func (s *relationshipService) RebuildRelationships(ctx context.Context) (*dto.RebuildResult, error) {
	processed := 0

	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		heads, err := tx.User.ListByRole(ctx, model.RoleDepartmentHead)
		if err != nil {
			return err
		}

		for i := range heads {
			head := &heads[i]
			deptID := head.DeptID()
			if deptID == "" {
				continue
			}

			managers, err := tx.User.ListByDepartmentAndRole(ctx, deptID, model.RoleManager, false)
			if err != nil {
				return err
			}
			members, err := tx.User.ListByDepartmentAndRole(ctx, deptID, model.RoleMember, true)
			if err != nil {
				return err
			}

			if err := tx.User.SetManagedIDs(ctx, head.UserID, repository.ColumnManagedManagerIDs, collectIDs(managers)); err != nil {
				return err
			}
			if err := tx.User.SetManagedIDs(ctx, head.UserID, repository.ColumnManagedMemberIDs, collectIDs(members)); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("重建组织关系失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("组织关系重建完成", zap.Int("processed", processed))
	return &dto.RebuildResult{Processed: processed}, nil
}

// ────────────────────── ValidateRelationships ──────────────────────

func (s *relationshipService) ValidateRelationships(ctx context.Context) (*dto.ValidationReport, error) {
	var (
		heads    []model.User
		managers []model.User
		depts    []model.Department
		counts   map[string]int64
	)

	// 四个查询互不依赖，并发执行
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		heads, err = s.repo.User.ListByRole(gctx, model.RoleDepartmentHead)
		return err
	})
	g.Go(func() (err error) {
		managers, err = s.repo.User.ListByRole(gctx, model.RoleManager)
		return err
	})
	g.Go(func() (err error) {
		depts, err = s.repo.Department.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.repo.User.CountByRole(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("校验组织关系失败", zap.Error(err))
		return nil, err
	}

	issues := []string{}
	headByDept := make(map[string]*model.User, len(heads))
	for i := range heads {
		h := &heads[i]
		if h.DeptID() == "" {
			issues = append(issues, fmt.Sprintf("Department head %s (%s) has no department", h.Name, h.UserID))
			continue
		}
		if _, dup := headByDept[h.DeptID()]; dup {
			issues = append(issues, fmt.Sprintf("Department %s has more than one department head", h.DeptID()))
			continue
		}
		headByDept[h.DeptID()] = h
	}

	// 部门侧：head_id 必须存在，且指向该部门当前的负责人
	for _, d := range depts {
		head, ok := headByDept[d.DepartmentID]
		switch {
		case d.HeadID == nil || *d.HeadID == "":
			issues = append(issues, fmt.Sprintf("Department %s (%s) has no headId", d.Name, d.DepartmentID))
			if !ok {
				issues = append(issues, fmt.Sprintf("Department %s (%s) has no department head", d.Name, d.DepartmentID))
			}
		case !ok:
			issues = append(issues, fmt.Sprintf("Department %s (%s) headId %s is not a department head of it",
				d.Name, d.DepartmentID, *d.HeadID))
		case head.UserID != *d.HeadID:
			issues = append(issues, fmt.Sprintf("Department %s (%s) headId %s does not match department head %s",
				d.Name, d.DepartmentID, *d.HeadID, head.UserID))
		}
	}

	for i := range managers {
		m := &managers[i]
		head, ok := headByDept[m.DeptID()]
		if !ok {
			continue
		}
		if !head.ManagedManagerIDs.Contains(m.UserID) {
			issues = append(issues, fmt.Sprintf("Manager %s (%s) is not in managedManagerIds of department head %s",
				m.Name, m.UserID, head.UserID))
		}
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	report := &dto.ValidationReport{
		Valid:  len(issues) == 0,
		Issues: issues,
		Summary: dto.ValidationSummary{
			TotalUsers:      total,
			TotalDepts:      len(depts),
			DepartmentHeads: counts[model.RoleDepartmentHead],
			Managers:        counts[model.RoleManager],
			Members:         counts[model.RoleMember],
			IssueCount:      len(issues),
		},
	}
	if !report.Valid {
		s.logger.Warn("组织关系存在不一致", zap.Int("issues", len(issues)))
	}
	return report, nil
}

func collectIDs(users []model.User) model.IDList {
	ids := make(model.IDList, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	return ids
}
