// Package app orchestrates roster state for the bot.
//
// The service owns one slot per chat; every mutation runs under that slot's
// lock, persists the resulting snapshot, and queues a display update. Display
// pushes are drained by one worker per slot so message edits for a chat never
// race each other.
package app
