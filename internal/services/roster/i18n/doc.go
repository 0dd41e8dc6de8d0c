// Package i18n provides localized reply text for the roster bot.
//
// It decouples user-facing copy from handler logic so reply language can
// evolve without changing update handling.
package i18n
