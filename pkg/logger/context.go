package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext 把请求级日志器放入 context
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext 取出请求级日志器；context 中没有时返回 fallback
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return fallback
}

// AppendFields 为 context 中已有的请求级日志器追加字段，没有日志器时原样返回
func AppendFields(ctx context.Context, fields ...zap.Field) context.Context {
	l, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	if !ok || l == nil {
		return ctx
	}
	return WithContext(ctx, l.With(fields...))
}
