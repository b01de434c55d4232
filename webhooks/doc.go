// Package webhooks authenticates inbound interaction deliveries.
//
// A delivery is trusted only when its Ed25519 signature covers the exact
// bytes of the timestamp header followed by the raw request body.
package webhooks
