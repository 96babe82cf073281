package oauth

import "context"

// TokenStore persists tokens per (user, token id, provider) and the
// association of data sources to tokens.
//
// Getters return (nil, nil) when nothing is stored. Implementations must
// return copies so callers can mutate a token before saving it back.
type TokenStore interface {
	GetToken(ctx context.Context, userID, tokenID string, provider ProviderType) (*Token, error)

	// SaveToken upserts token, assigning an id when token.ID is empty.
	SaveToken(ctx context.Context, userID string, provider ProviderType, token *Token) error

	// DeleteToken removes the token. Deleting a missing token is not an error.
	DeleteToken(ctx context.Context, userID, tokenID string, provider ProviderType) error

	// SetDataSourceToken links dataSourceID to tokenID. An empty tokenID
	// removes the link.
	SetDataSourceToken(ctx context.Context, userID, dataSourceID, tokenID string, provider ProviderType) error

	GetDataSourceToken(ctx context.Context, userID, dataSourceID string, provider ProviderType) (*Token, error)

	// DataSourceDeleted removes every link for dataSourceID. Tokens are kept.
	DataSourceDeleted(ctx context.Context, userID, dataSourceID string, provider ProviderType) error
}
