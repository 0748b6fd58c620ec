package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"workforce-hub/backend/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("连接 miniredis 失败: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestAcquireLock_Exclusive(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	release, err := c.AcquireLock(ctx, "department-head:d1", 10*time.Second)
	if err != nil {
		t.Fatalf("首次加锁失败: %v", err)
	}
	if !mr.Exists("lock:department-head:d1") {
		t.Error("锁 key 未写入")
	}

	if _, err := c.AcquireLock(ctx, "department-head:d1", 10*time.Second); !errors.Is(err, ErrLockHeld) {
		t.Errorf("期望 ErrLockHeld，实际: %v", err)
	}

	// 不同部门互不影响
	other, err := c.AcquireLock(ctx, "department-head:d2", 10*time.Second)
	if err != nil {
		t.Fatalf("其他部门加锁失败: %v", err)
	}
	other()

	release()
	if mr.Exists("lock:department-head:d1") {
		t.Error("释放后锁 key 应删除")
	}
	if _, err := c.AcquireLock(ctx, "department-head:d1", 10*time.Second); err != nil {
		t.Errorf("释放后应可再次加锁: %v", err)
	}
}

func TestAcquireLock_ReleaseDoesNotDeleteForeignLock(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	release, err := c.AcquireLock(ctx, "department-head:d1", time.Second)
	if err != nil {
		t.Fatalf("加锁失败: %v", err)
	}

	// 锁过期后被其他请求持有
	mr.FastForward(2 * time.Second)
	if _, err := c.AcquireLock(ctx, "department-head:d1", 10*time.Second); err != nil {
		t.Fatalf("过期后加锁失败: %v", err)
	}

	release()
	if !mr.Exists("lock:department-head:d1") {
		t.Error("过期持有者不应删除他人的锁")
	}
}

func TestBlacklist(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if err := c.BlacklistToken(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("写入黑名单失败: %v", err)
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("jti-1 应在黑名单中")
	}
	if ok, _ := c.IsBlacklisted(ctx, "jti-2"); ok {
		t.Error("jti-2 不应在黑名单中")
	}

	mr.FastForward(2 * time.Minute)
	if ok, _ := c.IsBlacklisted(ctx, "jti-1"); ok {
		t.Error("过期后应自动移出黑名单")
	}

	if err := c.BlacklistToken(ctx, "expired", -time.Second); err != nil || mr.Exists("token:blacklist:expired") {
		t.Error("已过期 Token 无需写入黑名单")
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("第 %d 次请求应放行: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute); ok {
		t.Error("超过限额应拒绝")
	}
}
