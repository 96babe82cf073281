package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dashlink/dashlink/internal/oauth"
)

//go:embed providers.json
var providersData []byte

//go:embed token_response.json
var tokenResponseData []byte

//go:embed error_response.json
var errorResponseData []byte

//go:embed google_userinfo.json
var googleUserInfoData []byte

// ProvidersDocument returns a copy of providers.json.
func ProvidersDocument() []byte {
	return append([]byte(nil), providersData...)
}

// LoadTokenResponse decodes token_response.json.
func LoadTokenResponse() (*oauth.TokenResponse, error) {
	return decodeTokenResponse(tokenResponseData, "token_response.json")
}

// LoadErrorResponse decodes error_response.json.
func LoadErrorResponse() (*oauth.TokenResponse, error) {
	return decodeTokenResponse(errorResponseData, "error_response.json")
}

// LoadGoogleUserInfo decodes google_userinfo.json.
func LoadGoogleUserInfo() (oauth.UserInfo, error) {
	var info oauth.UserInfo
	if err := json.Unmarshal(googleUserInfoData, &info); err != nil {
		return nil, fmt.Errorf("failed to decode google_userinfo.json: %w", err)
	}
	return info, nil
}

func decodeTokenResponse(data []byte, name string) (*oauth.TokenResponse, error) {
	var resp oauth.TokenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return &resp, nil
}
