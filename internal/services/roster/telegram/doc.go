// Package telegram carries the Bot API transport: a minimal HTTP client, a
// long-polling update loop with reconnect backoff, and the update handler
// that maps commands and callbacks onto the roster service.
package telegram
