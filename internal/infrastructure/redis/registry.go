// Package redis implements the session registry on Redis.
//
// Keys:
//
//	<employee_id>        live token for the employee
//	blacklist:<token>    revocation marker
//
// Both carry a TTL equal to the token lifetime, so entries disappear once the
// token they describe could no longer verify anyway.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-employee-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const blacklistPrefix = "blacklist:"

// Deletes the live entry only if it still holds the revoked token.
var deleteIfCurrent = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Registry struct {
	client *goredis.Client
	ttl    time.Duration
}

// New parses a redis:// URL and returns a registry over a fresh client.
func New(url string, ttl time.Duration) (*Registry, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("REDIS_CONFIG_INVALID").With("operation", "parse redis url").Wrap(err)
	}
	return NewRegistry(goredis.NewClient(opts), ttl), nil
}

func NewRegistry(client *goredis.Client, ttl time.Duration) *Registry {
	return &Registry{client: client, ttl: ttl}
}

func (r *Registry) Activate(ctx context.Context, employeeID int64, token string) error {
	if err := r.client.Set(ctx, activeKey(employeeID), token, r.ttl).Err(); err != nil {
		return unavailable("activate", err)
	}
	return nil
}

// Revoke blacklists token and clears the live entry when it still points at token.
func (r *Registry) Revoke(ctx context.Context, token string, employeeID int64) error {
	if err := r.client.Set(ctx, blacklistPrefix+token, "1", r.ttl).Err(); err != nil {
		return unavailable("revoke", err)
	}
	if err := deleteIfCurrent.Run(ctx, r.client, []string{activeKey(employeeID)}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return unavailable("revoke", err)
	}
	return nil
}

func (r *Registry) Deactivate(ctx context.Context, employeeID int64) error {
	if err := r.client.Del(ctx, activeKey(employeeID)).Err(); err != nil {
		return unavailable("deactivate", err)
	}
	return nil
}

func (r *Registry) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, blacklistPrefix+token).Result()
	if err != nil {
		return false, unavailable("is_blacklisted", err)
	}
	return n > 0, nil
}

func (r *Registry) IsActive(ctx context.Context, employeeID int64, token string) (bool, error) {
	current, err := r.client.Get(ctx, activeKey(employeeID)).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("is_active", err)
	}
	return current == token, nil
}

func (r *Registry) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}

func activeKey(employeeID int64) string {
	return strconv.FormatInt(employeeID, 10)
}

func unavailable(operation string, err error) error {
	return oops.Code("SESSION_STORE_FAILED").
		With("backend", "redis").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", domain.ErrSessionStoreUnavailable, err))
}

var _ domain.SessionRegistry = (*Registry)(nil)
