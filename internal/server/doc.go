// Package server holds what the ChronoCall front-ends share and the HTTP
// servers built on it.
//
// ServerContext carries the assistant, the Google OAuth client and the
// session manager. Local front-ends (chat, run, mcp) get one cached
// session per account from the file token store; the web front-end
// creates a session per browser login and keeps its token in memory.
//
// WebServer exposes:
//   - GET /login and GET /oauth/callback for the Google consent flow
//   - POST /logout
//   - POST /api/turn, GET /api/session and GET /api/help
//   - /healthz, /readyz and /healthz/detailed
//
// MetricsServer serves the Prometheus scrape endpoint on its own address.
package server
