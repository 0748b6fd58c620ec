package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"workforce-hub/backend/config"
	"workforce-hub/backend/internal/dto"
	"workforce-hub/backend/internal/model"
	"workforce-hub/backend/internal/repository"
	apperrors "workforce-hub/backend/pkg/errors"
	applog "workforce-hub/backend/pkg/logger"
	"workforce-hub/backend/pkg/redis"
)

const (
	msgUserNotFound  = "User not found"
	defaultLockTTL   = 10 * time.Second
	headLockPrefix   = "department-head:"
	eventRoleChanged = "user.role_changed"
)

// UserService 用户业务接口
type UserService interface {
	// UpdateUser 部分更新用户；role / department 变化时在同一事务内同步组织关系
	UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UpdateUserResult, error)
	GetUserDetails(ctx context.Context, id string) (*dto.UserDetailResponse, error)
}

// RoleChangedEvent 组织关系同步完成后发布的事件
type RoleChangedEvent struct {
	Event                string    `json:"event"`
	UserID               string    `json:"user_id"`
	Case                 string    `json:"case"`
	DepartmentID         string    `json:"department_id"`
	PreviousDepartmentID string    `json:"previous_department_id,omitempty"`
	PreviousHeadID       string    `json:"previous_head_id,omitempty"`
	OccurredAt           time.Time `json:"occurred_at"`
}

type userService struct {
	repo    *repository.Repository
	sync    *relationSync
	locker  HeadLocker
	events  EventPublisher
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewUserService 创建 UserService 实例；locker、events 可为 nil
func NewUserService(
	repo *repository.Repository,
	cfg *config.HierarchyConfig,
	locker HeadLocker,
	events EventPublisher,
	logger *zap.Logger,
) UserService {
	ttl := cfg.HeadLockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &userService{
		repo:    repo,
		sync:    newRelationSync(cfg.TrackManagedMembersAtHead, logger),
		locker:  locker,
		events:  events,
		lockTTL: ttl,
		logger:  logger,
	}
}

// ────────────────────── UpdateUser ──────────────────────

func (s *userService) UpdateUser(ctx context.Context, id string, req *dto.UpdateUserRequest) (*dto.UpdateUserResult, error) {
	if req.Role != nil && !model.IsValidRole(*req.Role) {
		return nil, apperrors.Validation("Invalid role: %s", *req.Role)
	}

	// 同一部门的负责人变更串行化
	if release, err := s.lockHeadChange(ctx, req); err != nil {
		return nil, err
	} else if release != nil {
		defer release()
	}

	var (
		res     *syncResult
		updated *model.User
	)
	err := s.repo.RunInTx(ctx, func(tx *repository.Repository) error {
		prev, err := tx.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound(msgUserNotFound)
			}
			return err
		}

		if err := s.checkEmailUnique(ctx, tx, id, req); err != nil {
			return err
		}

		res, err = s.sync.Apply(ctx, tx, id, prev, req)
		if err != nil {
			return err
		}

		patch := buildUserPatch(req, res)
		if len(patch) > 0 {
			n, err := tx.User.UpdateFields(ctx, id, patch)
			if err != nil {
				return err
			}
			if n == 0 {
				return apperrors.NotFound(msgUserNotFound)
			}
		}

		updated, err = tx.User.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindInternal {
			s.log(ctx).Error("更新用户失败", zap.String("user_id", id), zap.Error(err))
		}
		return nil, err
	}

	processed := res.Branch != BranchNone
	if processed {
		s.log(ctx).Info("组织关系同步完成",
			zap.String("user_id", id),
			zap.String("case", string(res.Branch)),
			zap.String("department_id", res.DepartmentID),
		)
		s.publishRoleChanged(ctx, id, res)
	}

	return &dto.UpdateUserResult{
		User:                toUserResponse(updated),
		RoleChangeProcessed: processed,
		Branch:              string(res.Branch),
	}, nil
}

func (s *userService) log(ctx context.Context) *zap.Logger {
	return applog.FromContext(ctx, s.logger)
}

// lockHeadChange 仅对指定了部门的负责人变更加锁；Redis 未启用或异常时退回到版本号比较交换
func (s *userService) lockHeadChange(ctx context.Context, req *dto.UpdateUserRequest) (func(), error) {
	if s.locker == nil || req.Role == nil || *req.Role != model.RoleDepartmentHead {
		return nil, nil
	}
	if req.DepartmentID == nil || *req.DepartmentID == "" {
		return nil, nil
	}

	release, err := s.locker.AcquireLock(ctx, headLockPrefix+*req.DepartmentID, s.lockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockHeld) {
			return nil, apperrors.Conflict("Department head change already in progress, please retry")
		}
		s.log(ctx).Warn("获取部门负责人锁失败，继续执行", zap.String("department_id", *req.DepartmentID), zap.Error(err))
		return nil, nil
	}
	return release, nil
}

func (s *userService) checkEmailUnique(ctx context.Context, tx *repository.Repository, id string, req *dto.UpdateUserRequest) error {
	if req.Email == nil {
		return nil
	}
	other, err := tx.User.GetByEmail(ctx, *req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if other.UserID != id {
		return apperrors.Conflict("Email already in use")
	}
	return nil
}

// buildUserPatch 将请求与同步结果合并为最终写入的字段
func buildUserPatch(req *dto.UpdateUserRequest, res *syncResult) map[string]interface{} {
	patch := make(map[string]interface{})

	if req.Name != nil {
		patch["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		patch["email"] = *req.Email
	}
	if req.Phone != nil {
		patch["phone"] = *req.Phone
	}
	if req.Role != nil {
		patch["role"] = *req.Role
	}
	if req.Status != nil {
		patch["status"] = *req.Status
	}
	if req.DepartmentID != nil {
		patch["department_id"] = nullableID(*req.DepartmentID)
	}
	if req.ManagerID != nil {
		patch["manager_id"] = nullableID(*req.ManagerID)
	}
	if req.ManagedManagerIDs != nil {
		patch[repository.ColumnManagedManagerIDs] = model.IDList(req.ManagedManagerIDs)
	}
	if req.ManagedMemberIDs != nil {
		patch[repository.ColumnManagedMemberIDs] = model.IDList(req.ManagedMemberIDs)
	}

	switch res.Branch {
	case BranchPromoteHead:
		if res.ManagedManagerIDs != nil {
			patch[repository.ColumnManagedManagerIDs] = res.ManagedManagerIDs
		}
		if res.ManagedMemberIDs != nil {
			patch[repository.ColumnManagedMemberIDs] = res.ManagedMemberIDs
		}
	case BranchMemberMove:
		if res.ClearManager {
			patch["manager_id"] = nil
		}
	}
	return patch
}

// nullableID 空串写为 NULL
func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// publishRoleChanged 事务提交后发布事件；失败只记录日志
func (s *userService) publishRoleChanged(ctx context.Context, id string, res *syncResult) {
	if s.events == nil {
		return
	}
	evt := RoleChangedEvent{
		Event:                eventRoleChanged,
		UserID:               id,
		Case:                 string(res.Branch),
		DepartmentID:         res.DepartmentID,
		PreviousDepartmentID: res.PrevDepartmentID,
		PreviousHeadID:       res.PrevHeadID,
		OccurredAt:           time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log(ctx).Warn("发布组织变更事件失败", zap.String("user_id", id), zap.Error(err))
	}
}

// ────────────────────── GetUserDetails ──────────────────────

func (s *userService) GetUserDetails(ctx context.Context, id string) (*dto.UserDetailResponse, error) {
	user, err := s.repo.User.GetWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		s.log(ctx).Error("查询用户失败", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	managers, err := s.repo.User.GetByIDs(ctx, user.ManagedManagerIDs)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.User.GetByIDs(ctx, user.ManagedMemberIDs)
	if err != nil {
		return nil, err
	}

	detail := &dto.UserDetailResponse{
		UserResponse:    *toUserResponse(user),
		ManagedManagers: toUserBriefs(managers),
		ManagedMembers:  toUserBriefs(members),
	}
	if user.Department != nil {
		detail.Department = &dto.DepartmentBrief{
			ID:     user.Department.DepartmentID,
			Name:   user.Department.Name,
			HeadID: user.Department.HeadID,
		}
	}
	if user.Manager != nil {
		brief := toUserBrief(user.Manager)
		detail.Manager = &brief
	}
	return detail, nil
}

// ── 转换 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	managers := []string(u.ManagedManagerIDs)
	if managers == nil {
		managers = []string{}
	}
	members := []string(u.ManagedMemberIDs)
	if members == nil {
		members = []string{}
	}
	return &dto.UserResponse{
		ID:                u.UserID,
		Name:              u.Name,
		Email:             u.Email,
		Phone:             u.Phone,
		Role:              u.Role,
		Status:            u.Status,
		DepartmentID:      u.DepartmentID,
		ManagerID:         u.ManagerID,
		ManagedManagerIDs: managers,
		ManagedMemberIDs:  members,
		UpdatedAt:         u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toUserBrief(u *model.User) dto.UserBrief {
	return dto.UserBrief{ID: u.UserID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func toUserBriefs(users []model.User) []dto.UserBrief {
	out := make([]dto.UserBrief, 0, len(users))
	for i := range users {
		out = append(out, toUserBrief(&users[i]))
	}
	return out
}
