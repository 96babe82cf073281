package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

// document is the on-disk layout of a FileStore.
type document struct {
	Users map[string]*userRecord `json:"users"`
}

type userRecord struct {
	// Tokens maps provider -> token id -> token.
	Tokens map[oauth.ProviderType]map[string]*oauth.Token `json:"tokens,omitempty"`
	// DataSources maps provider -> data source id -> token id.
	DataSources map[oauth.ProviderType]map[string]string `json:"dataSources,omitempty"`
}

func newDocument() *document {
	return &document{Users: make(map[string]*userRecord)}
}

func (d *document) user(id string, create bool) *userRecord {
	u := d.Users[id]
	if !create {
		return u
	}
	if u == nil {
		u = &userRecord{}
		d.Users[id] = u
	}
	if u.Tokens == nil {
		u.Tokens = make(map[oauth.ProviderType]map[string]*oauth.Token)
	}
	if u.DataSources == nil {
		u.DataSources = make(map[oauth.ProviderType]map[string]string)
	}
	return u
}

func (u *userRecord) token(p oauth.ProviderType, id string) *oauth.Token {
	if u == nil {
		return nil
	}
	return u.Tokens[p][id]
}

// FileStore persists all tokens of all users in one JSON document. Writes
// are serialized by a single mutex and replace the file atomically. The
// document is re-read whenever its modification time or size changes.
type FileStore struct {
	path string
	enc  *Encryptor

	mu      sync.Mutex
	doc     *document
	modTime time.Time
	size    int64
}

// NewFileStore opens or creates the store at path. The parent directory
// is created with 0700 permissions.
func NewFileStore(path string, enc *Encryptor) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("token file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}
	s := &FileStore{path: path, enc: enc}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the document path.
func (s *FileStore) Path() string {
	return s.path
}

// Invalidate drops the cached document so the next operation re-reads it.
func (s *FileStore) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
}

func (s *FileStore) loadLocked() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if s.doc == nil {
			s.doc = newDocument()
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat token file: %w", err)
	}
	if s.doc != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read token file: %w", err)
	}
	doc := newDocument()
	if len(data) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse token file %s: %w", s.path, err)
		}
		if doc.Users == nil {
			doc.Users = make(map[string]*userRecord)
		}
	}
	if s.doc != nil {
		logging.Debug("TokenStore", "Reloaded token file %s", s.path)
	}
	s.doc, s.modTime, s.size = doc, info.ModTime(), info.Size()
	return nil
}

func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	if info, err := os.Stat(s.path); err == nil {
		s.modTime, s.size = info.ModTime(), info.Size()
	}
	return nil
}

// update loads the document, applies fn and persists the result. On any
// failure the cached document is dropped so the next call reloads what is
// on disk.
func (s *FileStore) update(fn func(d *document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	if err := fn(s.doc); err != nil {
		s.doc = nil
		return err
	}
	if err := s.persistLocked(); err != nil {
		s.doc = nil
		return err
	}
	return nil
}

func (s *FileStore) read(fn func(d *document) *oauth.Token) (*oauth.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	t := fn(s.doc)
	if t == nil {
		return nil, nil
	}
	return s.enc.open(t)
}

// GetToken implements oauth.TokenStore.
func (s *FileStore) GetToken(_ context.Context, userID, tokenID string, provider oauth.ProviderType) (*oauth.Token, error) {
	return s.read(func(d *document) *oauth.Token {
		return d.user(userID, false).token(provider, tokenID)
	})
}

// SaveToken implements oauth.TokenStore.
func (s *FileStore) SaveToken(_ context.Context, userID string, provider oauth.ProviderType, token *oauth.Token) error {
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

	err = s.update(func(d *document) error {
		u := d.user(userID, true)
		if u.Tokens[provider] == nil {
			u.Tokens[provider] = make(map[string]*oauth.Token)
		}
		u.Tokens[provider][sealed.ID] = sealed
		return nil
	})
	if err != nil {
		slog.Warn("SECURITY_AUDIT: OAuth token storage failed",
			"event", "token_store_failed",
			"provider", string(provider),
			"error", err.Error())
		return err
	}
	slog.Info("SECURITY_AUDIT: OAuth token stored",
		"event", "token_stored",
		"provider", string(provider),
		"token_id", logging.TruncateID(token.ID))
	return nil
}

// DeleteToken implements oauth.TokenStore.
func (s *FileStore) DeleteToken(_ context.Context, userID, tokenID string, provider oauth.ProviderType) error {
	err := s.update(func(d *document) error {
		if u := d.user(userID, false); u != nil {
			delete(u.Tokens[provider], tokenID)
		}
		return nil
	})
	if err == nil {
		slog.Info("SECURITY_AUDIT: OAuth token deleted",
			"event", "token_deleted",
			"provider", string(provider),
			"token_id", logging.TruncateID(tokenID))
	}
	return err
}

// SetDataSourceToken implements oauth.TokenStore.
func (s *FileStore) SetDataSourceToken(_ context.Context, userID, dataSourceID, tokenID string, provider oauth.ProviderType) error {
	return s.update(func(d *document) error {
		if tokenID == "" {
			if u := d.user(userID, false); u != nil {
				delete(u.DataSources[provider], dataSourceID)
			}
			return nil
		}
		u := d.user(userID, true)
		if u.DataSources[provider] == nil {
			u.DataSources[provider] = make(map[string]string)
		}
		u.DataSources[provider][dataSourceID] = tokenID
		return nil
	})
}

// GetDataSourceToken implements oauth.TokenStore.
func (s *FileStore) GetDataSourceToken(_ context.Context, userID, dataSourceID string, provider oauth.ProviderType) (*oauth.Token, error) {
	return s.read(func(d *document) *oauth.Token {
		u := d.user(userID, false)
		if u == nil {
			return nil
		}
		id, ok := u.DataSources[provider][dataSourceID]
		if !ok {
			return nil
		}
		return u.token(provider, id)
	})
}

// DataSourceDeleted implements oauth.TokenStore.
func (s *FileStore) DataSourceDeleted(_ context.Context, userID, dataSourceID string, provider oauth.ProviderType) error {
	return s.update(func(d *document) error {
		if u := d.user(userID, false); u != nil {
			delete(u.DataSources[provider], dataSourceID)
		}
		return nil
	})
}
