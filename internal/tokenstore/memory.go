package tokenstore

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/dashlink/dashlink/internal/oauth"
)

type tokenKey struct {
	user     string
	provider oauth.ProviderType
	id       string
}

type linkKey struct {
	user       string
	provider   oauth.ProviderType
	dataSource string
}

// MemoryStore is an in-process oauth.TokenStore.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[tokenKey]*oauth.Token
	links  map[linkKey]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[tokenKey]*oauth.Token),
		links:  make(map[linkKey]string),
	}
}

var errNilToken = errors.New("token is nil")

// GetToken implements oauth.TokenStore.
func (s *MemoryStore) GetToken(_ context.Context, userID, tokenID string, provider oauth.ProviderType) (*oauth.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[tokenKey{userID, provider, tokenID}].Clone(), nil
}

// SaveToken implements oauth.TokenStore.
func (s *MemoryStore) SaveToken(_ context.Context, userID string, provider oauth.ProviderType, token *oauth.Token) error {
	if token == nil {
		return errNilToken
	}
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey{userID, provider, token.ID}] = token.Clone()
	return nil
}

// DeleteToken implements oauth.TokenStore.
func (s *MemoryStore) DeleteToken(_ context.Context, userID, tokenID string, provider oauth.ProviderType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tokenKey{userID, provider, tokenID})
	return nil
}

// SetDataSourceToken implements oauth.TokenStore.
func (s *MemoryStore) SetDataSourceToken(_ context.Context, userID, dataSourceID, tokenID string, provider oauth.ProviderType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := linkKey{userID, provider, dataSourceID}
	if tokenID == "" {
		delete(s.links, k)
		return nil
	}
	s.links[k] = tokenID
	return nil
}

// GetDataSourceToken implements oauth.TokenStore.
func (s *MemoryStore) GetDataSourceToken(_ context.Context, userID, dataSourceID string, provider oauth.ProviderType) (*oauth.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.links[linkKey{userID, provider, dataSourceID}]
	if !ok {
		return nil, nil
	}
	return s.tokens[tokenKey{userID, provider, id}].Clone(), nil
}

// DataSourceDeleted implements oauth.TokenStore.
func (s *MemoryStore) DataSourceDeleted(_ context.Context, userID, dataSourceID string, provider oauth.ProviderType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, linkKey{userID, provider, dataSourceID})
	return nil
}

// Len returns the number of stored tokens.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
