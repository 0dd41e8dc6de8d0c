// Package timeouts defines shared timeout constants used across the process.
// Centralizing these values prevents drift between the transport loops and
// the HTTP surface and makes the durations discoverable.
package timeouts

import "time"

// TelegramCall caps a single Telegram Bot API request (outside long polling).
const TelegramCall = 10 * time.Second

// TelegramLongPoll is the server-side hold duration requested for getUpdates.
const TelegramLongPoll = 15 * time.Second

// DisplayPush caps the fire-and-forget message edit after a roster mutation.
const DisplayPush = 10 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// HealthProbe caps one health probe round trip to the Telegram API.
const HealthProbe = 5 * time.Second
