// Package fixtures contains embedded sample documents for tests:
//
//   - providers.json: a registration document with one usable and one incomplete provider
//   - token_response.json: a successful Google token endpoint response
//   - error_response.json: a token endpoint rejecting a refresh token
//   - google_userinfo.json: a Google userinfo document
package fixtures
