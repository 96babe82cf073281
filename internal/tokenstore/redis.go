package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dashlink/dashlink/internal/oauth"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// Prefix namespaces every key. Defaults to "dashlink".
	Prefix string
}

// RedisStore keeps each token as a JSON string and each data source link as
// a plain string key.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	enc    *Encryptor
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig, enc *Encryptor) (*RedisStore, error) {
	if cfg.Address == "" {
		cfg.Address = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStoreFromClient(rdb, cfg.Prefix, enc), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(rdb *redis.Client, prefix string, enc *Encryptor) *RedisStore {
	if prefix == "" {
		prefix = "dashlink"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, enc: enc}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) key(kind, userID string, provider oauth.ProviderType, id string) string {
	parts := []string{s.prefix, kind, url.QueryEscape(userID), string(provider), url.QueryEscape(id)}
	return strings.Join(parts, ":")
}

func (s *RedisStore) loadToken(ctx context.Context, key string) (*oauth.Token, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var t oauth.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return s.enc.open(&t)
}

// GetToken implements oauth.TokenStore.
func (s *RedisStore) GetToken(ctx context.Context, userID, tokenID string, provider oauth.ProviderType) (*oauth.Token, error) {
	return s.loadToken(ctx, s.key("token", userID, provider, tokenID))
}

// SaveToken implements oauth.TokenStore.
func (s *RedisStore) SaveToken(ctx context.Context, userID string, provider oauth.ProviderType, token *oauth.Token) error {
	if token == nil {
		return errNilToken
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	sealed, err := s.enc.seal(token)
	if err != nil {
		return fmt.Errorf("failed to encrypt token: %w", err)
	}
	data, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key("token", userID, provider, token.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// DeleteToken implements oauth.TokenStore.
func (s *RedisStore) DeleteToken(ctx context.Context, userID, tokenID string, provider oauth.ProviderType) error {
	if err := s.rdb.Del(ctx, s.key("token", userID, provider, tokenID)).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// SetDataSourceToken implements oauth.TokenStore.
func (s *RedisStore) SetDataSourceToken(ctx context.Context, userID, dataSourceID, tokenID string, provider oauth.ProviderType) error {
	key := s.key("ds", userID, provider, dataSourceID)
	var err error
	if tokenID == "" {
		err = s.rdb.Del(ctx, key).Err()
	} else {
		err = s.rdb.Set(ctx, key, tokenID, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to update data source link: %w", err)
	}
	return nil
}

// GetDataSourceToken implements oauth.TokenStore.
func (s *RedisStore) GetDataSourceToken(ctx context.Context, userID, dataSourceID string, provider oauth.ProviderType) (*oauth.Token, error) {
	tokenID, err := s.rdb.Get(ctx, s.key("ds", userID, provider, dataSourceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data source link: %w", err)
	}
	return s.GetToken(ctx, userID, tokenID, provider)
}

// DataSourceDeleted implements oauth.TokenStore.
func (s *RedisStore) DataSourceDeleted(ctx context.Context, userID, dataSourceID string, provider oauth.ProviderType) error {
	return s.SetDataSourceToken(ctx, userID, dataSourceID, "", provider)
}
