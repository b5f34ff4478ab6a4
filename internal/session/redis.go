package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/pkg/apiclient"
	redisclient "github.com/angelmondragon/storefront/pkg/redis"
)

const (
	facetTokens = "tokens"
	facetUser   = "user"
	facetSearch = "search"
)

type redisBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	PushRecent(ctx context.Context, key, value string, limit int64, ttl time.Duration) error
	Recent(ctx context.Context, key string, limit int64) ([]string, error)
	SessionKey(sessionID, facet string) string
}

// RedisStore persists session state in redis with a sliding TTL.
type RedisStore struct {
	backend redisBackend
	ttl     time.Duration
}

func NewRedisStore(client *redisclient.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &RedisStore{backend: client, ttl: ttl}, nil
}

func (r *RedisStore) Tokens(ctx context.Context, sessionID string) (apiclient.Tokens, error) {
	var tokens apiclient.Tokens
	found, err := r.getJSON(ctx, r.key(sessionID, facetTokens), &tokens)
	if err != nil || !found {
		return apiclient.Tokens{}, err
	}
	return tokens, nil
}

func (r *RedisStore) SaveTokens(ctx context.Context, sessionID string, tokens apiclient.Tokens) error {
	return r.setJSON(ctx, r.key(sessionID, facetTokens), tokens)
}

func (r *RedisStore) ClearTokens(ctx context.Context, sessionID string) error {
	return r.backend.Del(ctx, r.key(sessionID, facetTokens), r.key(sessionID, facetUser))
}

func (r *RedisStore) User(ctx context.Context, sessionID string) (*auth.User, error) {
	var user auth.User
	found, err := r.getJSON(ctx, r.key(sessionID, facetUser), &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (r *RedisStore) SaveUser(ctx context.Context, sessionID string, user auth.User) error {
	return r.setJSON(ctx, r.key(sessionID, facetUser), user)
}

func (r *RedisStore) RecordSearch(ctx context.Context, sessionID, query string) error {
	query = normalizeQuery(query)
	if query == "" {
		return nil
	}
	return r.backend.PushRecent(ctx, r.key(sessionID, facetSearch), query, SearchHistoryLimit, r.ttl)
}

func (r *RedisStore) SearchHistory(ctx context.Context, sessionID string) ([]string, error) {
	history, err := r.backend.Recent(ctx, r.key(sessionID, facetSearch), SearchHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("load search history: %w", err)
	}
	if history == nil {
		history = []string{}
	}
	return history, nil
}

func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	return r.backend.Del(ctx,
		r.key(sessionID, facetTokens),
		r.key(sessionID, facetUser),
		r.key(sessionID, facetSearch),
	)
}

func (r *RedisStore) key(sessionID, facet string) string {
	return r.backend.SessionKey(strings.TrimSpace(sessionID), facet)
}

func (r *RedisStore) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, err := r.backend.Get(ctx, key)
	if errors.Is(err, redisclient.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStore) setJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.backend.Set(ctx, key, payload, r.ttl); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
