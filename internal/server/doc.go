// Package server hosts the dashlink OAuth endpoints over HTTP.
//
// The router is a gorilla/mux tree with the oauth.Handler routes mounted
// under the configured base path (default /oauth) and an unauthenticated
// /healthz probe at the root:
//
//	GET    /healthz
//	GET    {base}/{provider}/auth[/{dataSourceId}]
//	GET    {base}/{provider}/callback
//	GET    {base}/{provider}/authenticated[/{tokenId}]
//	GET    {base}/{provider}/{tokenId}
//	PUT    {base}/{provider}/{tokenId}/{dataSourceId}
//	DELETE {base}/{provider}/{tokenId}
//	DELETE {base}/{provider}/datasources/{dataSourceId}
//
// Every request passes through the user middleware, which reads the
// application user id from the configured header and stores it in the
// request context, and the access log middleware. Handlers obtain the user
// via RequestUser.
package server
