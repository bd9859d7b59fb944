package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/contentgraph/docengine/workflow"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache wraps any Repository with a read-through cache for
// LoadInstance and FindInstancesByStatus lookups (grounded on evalgo-eve's
// db/repository/redis.go SetCache/GetCache shape). Writes always go to the
// backing Repository first and then invalidate the cached entry, rather
// than updating it in place, to avoid caching a write that the backing
// store later rejects.
type RedisCache struct {
	Backing Repository
	client  *redis.Client
	ttl     time.Duration

	// Logger is optional and nil-safe; when set, cache misses that fall
	// through to Backing are logged at debug level.
	Logger *zap.SugaredLogger
}

// WithLogger attaches a structured logger for cache diagnostics.
func (c *RedisCache) WithLogger(l *zap.SugaredLogger) *RedisCache {
	c.Logger = l
	return c
}

func (c *RedisCache) logMiss(key string) {
	if c.Logger != nil {
		c.Logger.Debugw("redis cache miss", "key", key)
	}
}

// NewRedisCache connects to url (a redis:// connection string) and wraps
// backing with a read-through cache of the given ttl.
func NewRedisCache(backing Repository, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("repository: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("repository: connect to redis: %w", err)
	}

	return &RedisCache{Backing: backing, client: client, ttl: ttl}, nil
}

func instanceKey(id string) string { return "docengine:instance:" + id }
func statusKey(status workflow.Status) string { return "docengine:instances_by_status:" + string(status) }

func (c *RedisCache) SaveInstance(ctx context.Context, inst *workflow.Instance) error {
	if err := c.Backing.SaveInstance(ctx, inst); err != nil {
		return err
	}
	c.client.Del(ctx, instanceKey(inst.ID))
	c.client.Del(ctx, statusKey(inst.Status))
	return nil
}

func (c *RedisCache) LoadInstance(ctx context.Context, id string) (*workflow.Instance, error) {
	key := instanceKey(id)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var inst workflow.Instance
		if err := json.Unmarshal(data, &inst); err == nil {
			return &inst, nil
		}
	}
	c.logMiss(key)

	inst, err := c.Backing.LoadInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(inst); err == nil {
		c.client.Set(ctx, key, data, c.ttl)
	}
	return inst, nil
}

func (c *RedisCache) FindInstancesByDocument(ctx context.Context, documentID string) ([]*workflow.Instance, error) {
	return c.Backing.FindInstancesByDocument(ctx, documentID)
}

func (c *RedisCache) FindInstancesByStatus(ctx context.Context, status workflow.Status) ([]*workflow.Instance, error) {
	key := statusKey(status)
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var insts []*workflow.Instance
		if err := json.Unmarshal(data, &insts); err == nil {
			return insts, nil
		}
	}
	c.logMiss(key)

	insts, err := c.Backing.FindInstancesByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(insts); err == nil {
		c.client.Set(ctx, key, data, c.ttl)
	}
	return insts, nil
}

func (c *RedisCache) UpdateInstanceStatus(ctx context.Context, id string, status workflow.Status) error {
	if err := c.Backing.UpdateInstanceStatus(ctx, id, status); err != nil {
		return err
	}
	c.client.Del(ctx, instanceKey(id))
	return nil
}

func (c *RedisCache) DeleteInstance(ctx context.Context, id string) error {
	if err := c.Backing.DeleteInstance(ctx, id); err != nil {
		return err
	}
	c.client.Del(ctx, instanceKey(id))
	return nil
}

func (c *RedisCache) SaveDefinition(ctx context.Context, def *workflow.Definition) error {
	return c.Backing.SaveDefinition(ctx, def)
}

func (c *RedisCache) LoadDefinition(ctx context.Context, id string) (*workflow.Definition, error) {
	return c.Backing.LoadDefinition(ctx, id)
}

func (c *RedisCache) ListDefinitions(ctx context.Context) ([]*workflow.Definition, error) {
	return c.Backing.ListDefinitions(ctx)
}

func (c *RedisCache) AppendAudit(ctx context.Context, entry AuditEntry) error {
	return c.Backing.AppendAudit(ctx, entry)
}

func (c *RedisCache) ListAudit(ctx context.Context, instanceID string) ([]AuditEntry, error) {
	return c.Backing.ListAudit(ctx, instanceID)
}

func (c *RedisCache) RecoverRunning(ctx context.Context) ([]*workflow.Instance, error) {
	return c.Backing.RecoverRunning(ctx)
}

// Close closes the Redis client connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
