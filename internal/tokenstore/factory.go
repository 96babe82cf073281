package tokenstore

import (
	"context"
	"fmt"

	"github.com/dashlink/dashlink/internal/oauth"
	"github.com/dashlink/dashlink/pkg/logging"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string
	FilePath      string
	Redis         RedisConfig
	EncryptionKey string
}

// Opened is the result of Open. File is set for file stores; Close
// releases backend resources.
type Opened struct {
	Store   oauth.TokenStore
	File    *FileStore
	Close   func() error
	Backend string
}

// Open builds the configured store.
func Open(ctx context.Context, opts Options) (*Opened, error) {
	var enc *Encryptor
	if opts.EncryptionKey != "" {
		var err error
		if enc, err = NewEncryptor(opts.EncryptionKey); err != nil {
			return nil, err
		}
	}
	noop := func() error { return nil }

	switch opts.Backend {
	case "", BackendMemory:
		if enc != nil {
			logging.Debug("TokenStore", "Encryption key ignored for memory store")
		}
		return &Opened{Store: NewMemoryStore(), Close: noop, Backend: BackendMemory}, nil

	case BackendFile:
		fs, err := NewFileStore(opts.FilePath, enc)
		if err != nil {
			return nil, err
		}
		logging.Info("TokenStore", "Using file token store at %s (encrypted=%t)", opts.FilePath, enc != nil)
		return &Opened{Store: fs, File: fs, Close: noop, Backend: BackendFile}, nil

	case BackendRedis:
		rs, err := NewRedisStore(ctx, opts.Redis, enc)
		if err != nil {
			return nil, err
		}
		logging.Info("TokenStore", "Using Redis token store at %s (encrypted=%t)", opts.Redis.Address, enc != nil)
		return &Opened{Store: rs, Close: rs.Close, Backend: BackendRedis}, nil
	}
	return nil, fmt.Errorf("unknown token store backend %q", opts.Backend)
}
