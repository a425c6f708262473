// Package http exposes the VK Callback API endpoint of the bot.
//
// The router serves:
//   - GET /: liveness probe answering "Hello, world!".
//   - POST /callback: Callback API deliveries. A "confirmation" event for the
//     configured community is answered with the confirmation token; every
//     other event must carry the shared secret and is answered "ok" once it
//     has been handled.
//   - GET /metrics: Prometheus metrics.
//
// The callback route is rate limited per client address and, when a signing
// secret is configured, requires a valid X-Hub-Signature header.
package http
