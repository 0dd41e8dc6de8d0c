// Package message renders a roster into its chat message text and parses
// that text back into a roster.
//
// The rendered layout is a wire format: the parser matches the markers and
// per-line shapes below literally, so both directions must change in
// lockstep. Canonical occupant lines carry the participant identifier in a
// trailing "(id:...)" group; two older line shapes without identifiers are
// still accepted on the parse side.
package message
