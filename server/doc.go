// Package server exposes the interaction handler over HTTP with gin.
//
// Routes: POST / and POST /interactions take deliveries, GET /health reports
// liveness. Every response carries X-Request-Id and failures render as
// {"request_id", "error_code", "message"}.
package server
