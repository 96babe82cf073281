// Package mock provides test doubles for dashlink: a fake OAuth provider
// serving token and user info endpoints over httptest, and a controllable
// clock for exercising token expiry without sleeping.
//
//	clock := mock.NewMockClock(time.Time{})
//	provider := mock.NewProviderServer(mock.ProviderServerConfig{Clock: clock})
//	defer provider.Close()
//
//	settings := provider.Settings(oauth.GoogleAnalytics)
package mock
