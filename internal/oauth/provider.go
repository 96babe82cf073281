package oauth

import (
	"fmt"
	"strings"
)

// ProviderType identifies one of the supported OAuth providers.
type ProviderType string

const (
	GoogleAnalytics     ProviderType = "GOOGLE_ANALYTICS"
	GoogleAnalytics4    ProviderType = "GOOGLE_ANALYTICS_4"
	GoogleBigQuery      ProviderType = "GOOGLE_BIG_QUERY"
	GoogleDrive         ProviderType = "GOOGLE_DRIVE"
	OneDrive            ProviderType = "ONE_DRIVE"
	Dropbox             ProviderType = "DROPBOX"
	Box                 ProviderType = "BOX"
	GoogleSearchConsole ProviderType = "GOOGLE_SEARCH_CONSOLE"
)

var providerIDs = map[ProviderType]string{
	GoogleAnalytics:     "googleanalytics",
	GoogleAnalytics4:    "googleanalytics4",
	GoogleBigQuery:      "bigquery",
	GoogleDrive:         "googledrive",
	OneDrive:            "onedrive",
	Dropbox:             "dropbox",
	Box:                 "box",
	GoogleSearchConsole: "googlesearch",
}

// AllProviderTypes returns every supported provider in declaration order.
func AllProviderTypes() []ProviderType {
	return []ProviderType{
		GoogleAnalytics,
		GoogleAnalytics4,
		GoogleBigQuery,
		GoogleDrive,
		OneDrive,
		Dropbox,
		Box,
		GoogleSearchConsole,
	}
}

// ProviderID returns the stable id data sources use to tag their provider.
func (p ProviderType) ProviderID() string {
	return providerIDs[p]
}

// Valid reports whether p is one of the known provider types.
func (p ProviderType) Valid() bool {
	_, ok := providerIDs[p]
	return ok
}

// IsGoogle reports whether p is served by Google's OAuth endpoints.
func (p ProviderType) IsGoogle() bool {
	switch p {
	case GoogleAnalytics, GoogleAnalytics4, GoogleBigQuery, GoogleDrive, GoogleSearchConsole:
		return true
	}
	return false
}

func (p ProviderType) String() string {
	return string(p)
}

// ParseProviderType accepts either the enum name (case-insensitive) or the
// provider id.
func ParseProviderType(s string) (ProviderType, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if p := ProviderType(name); p.Valid() {
		return p, nil
	}
	id := strings.ToLower(strings.TrimSpace(s))
	for p, pid := range providerIDs {
		if pid == id {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProvider, s)
}
