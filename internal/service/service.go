package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"workforce-hub/backend/config"
	"workforce-hub/backend/internal/repository"
	"workforce-hub/backend/pkg/jwt"
	"workforce-hub/backend/pkg/mq"
	"workforce-hub/backend/pkg/redis"
)

// HeadLocker 部门负责人变更互斥锁（Redis 实现）
type HeadLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// EventPublisher 组织架构变更事件发布（RabbitMQ 实现）
type EventPublisher interface {
	Publish(ctx context.Context, payload interface{}) error
}

// TokenBlacklist 登出 Token 黑名单（Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Relationship RelationshipService
	Export       ExportService
}

// NewService 创建 Service 聚合；rdb、publisher 为 nil 时对应能力降级关闭
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	publisher *mq.RabbitPublisher,
	logger *zap.Logger,
) *Service {
	var (
		locker    HeadLocker
		blacklist TokenBlacklist
		events    EventPublisher
	)
	if rdb != nil {
		locker = rdb
		blacklist = rdb
	}
	if publisher != nil {
		events = publisher
	}

	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, &cfg.Hierarchy, locker, events, logger),
		Relationship: NewRelationshipService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
