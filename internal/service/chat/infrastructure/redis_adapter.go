package infrastructure

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"dekor/internal/pkg/config"
	"dekor/internal/pkg/redis"
)

const rateLimitScriptName = "chat_rate_limit"

// 固定窗口限流：第一个请求建窗口，计数超限返回 0。
// INCR 和 EXPIRE 放进同一段脚本，保证窗口不会因为竞态丢掉过期时间。
var rateLimitScript = `
local count = redis.call('incr', KEYS[1])
if count == 1 then
    redis.call('pexpire', KEYS[1], ARGV[1])
end
if count > tonumber(ARGV[2]) then
    return 0
end
return 1
`

// RedisChatAdapter 同时实现聊天的响应缓存和限流端口。
type RedisChatAdapter struct {
	client *redis.Client
	cfg    config.ChatConfig
}

func NewRedisChatAdapter(client *redis.Client, cfg config.ChatConfig) (*RedisChatAdapter, error) {
	if err := client.LoadScriptFromContent(rateLimitScriptName, rateLimitScript); err != nil {
		return nil, fmt.Errorf("failed to load rate limit script: %w", err)
	}
	return &RedisChatAdapter{client: client, cfg: cfg}, nil
}

func (a *RedisChatAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := a.client.GetClient().Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (a *RedisChatAdapter) Set(ctx context.Context, key, value string) error {
	return a.client.GetClient().Set(ctx, key, value, a.cfg.CacheTTL).Err()
}

func (a *RedisChatAdapter) Allow(ctx context.Context, clientID string) (bool, error) {
	key := fmt.Sprintf("chat:rate:{%s}", clientID)
	result, err := a.client.RunScript(ctx, rateLimitScriptName,
		[]string{key},
		a.cfg.RateWin.Milliseconds(), a.cfg.RateLimit,
	)
	if err != nil {
		return false, err
	}
	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from rate limit script: %T", result)
	}
	return code == 1, nil
}
