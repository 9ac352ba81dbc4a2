// Package server exposes the submission API and the live review channel
// over HTTP.
//
// Routes are registered on a gin engine by [API.SetupRoutes]. [Server] owns
// the listener and the http.Server lifecycle; it wires CORS from
// config.ServerConfig and logs one structured line per request with a
// request id.
package server
