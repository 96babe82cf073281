package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityFor(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderType
		info     UserInfo
		want     Identity
	}{
		{
			name:     "google",
			provider: GoogleBigQuery,
			info:     UserInfo{"sub": "g-1", "email": "a@example.com", "name": "Ann"},
			want:     Identity{UserID: "g-1", Email: "a@example.com", DisplayName: "Ann"},
		},
		{
			name:     "onedrive prefers mail",
			provider: OneDrive,
			info:     UserInfo{"id": "o-1", "mail": "m@example.com", "userPrincipalName": "upn@example.com", "displayName": "Ola"},
			want:     Identity{UserID: "o-1", Email: "m@example.com", DisplayName: "Ola"},
		},
		{
			name:     "onedrive falls back to upn and email",
			provider: OneDrive,
			info:     UserInfo{"id": "o-2", "userPrincipalName": "upn@example.com"},
			want:     Identity{UserID: "o-2", Email: "upn@example.com", DisplayName: "upn@example.com"},
		},
		{
			name:     "dropbox nested name",
			provider: Dropbox,
			info:     UserInfo{"account_id": "dbid:1", "email": "d@example.com", "name": map[string]interface{}{"display_name": "Dee"}},
			want:     Identity{UserID: "dbid:1", Email: "d@example.com", DisplayName: "Dee"},
		},
		{
			name:     "box login",
			provider: Box,
			info:     UserInfo{"id": "b-1", "login": "b@example.com", "name": "Bo"},
			want:     Identity{UserID: "b-1", Email: "b@example.com", DisplayName: "Bo"},
		},
		{
			name:     "nil info",
			provider: Box,
			want:     Identity{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IdentityFor(tt.provider, tt.info))
		})
	}
}

func TestUserIDFor_Fallback(t *testing.T) {
	assert.Equal(t, "app-user", UserIDFor(GoogleDrive, nil, "app-user"))
	assert.Equal(t, "app-user", UserIDFor(GoogleDrive, UserInfo{"email": "x"}, "app-user"))
	assert.Equal(t, "sub-1", UserIDFor(GoogleDrive, UserInfo{"sub": "sub-1"}, "app-user"))
}
