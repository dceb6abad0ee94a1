package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"dekor/internal/pkg/logger"
)

var (
	ErrEmptyMessage = errors.New("chat: message is required")
	ErrRateLimited  = errors.New("chat: too many requests")
)

// TextGenerator 是外部文本生成 API 的端口，实现只做透传。
type TextGenerator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// ResponseCache 缓存上游回复。miss 返回 ("", false, nil)。
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RateLimiter 按调用方限流，防止聊天入口刷爆上游配额。
type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (bool, error)
}

// ChatService 把看板的聊天请求代理到生成式文本上游。
// 缓存和限流都是尽力而为：redis 出问题时放行请求而不是拒绝服务。
type ChatService struct {
	generator TextGenerator
	cache     ResponseCache
	limiter   RateLimiter
	tracer    trace.Tracer
}

func NewChatService(generator TextGenerator, cache ResponseCache, limiter RateLimiter, tracer trace.Tracer) *ChatService {
	return &ChatService{
		generator: generator,
		cache:     cache,
		limiter:   limiter,
		tracer:    tracer,
	}
}

// Ask 处理一条用户消息，返回上游生成的文本。
func (s *ChatService) Ask(ctx context.Context, clientID, message string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "chat.Ask")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	span.SetAttributes(attribute.Int("chat.message_len", len(message)))

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, clientID)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !allowed {
			return "", ErrRateLimited
		}
	}

	key := cacheKey(message)
	if s.cache != nil {
		if text, hit, err := s.cache.Get(ctx, key); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("chat cache read failed")
		} else if hit {
			span.SetAttributes(attribute.Bool("chat.cache_hit", true))
			return text, nil
		}
	}

	text, err := s.generator.Generate(ctx, message)
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "generate reply")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("chat cache write failed")
		}
	}
	return text, nil
}

func cacheKey(message string) string {
	sum := sha256.Sum256([]byte(message))
	return "chat:reply:" + hex.EncodeToString(sum[:])
}
