package message

// Fixed wire-format markers. The parser matches these byte-for-byte; do not
// localize or reword them without a migration plan for already-posted
// messages.
const (
	headerMarker      = "⚽ Запись на игру"
	descriptionMarker = "📝 "
	occupantsMarker   = "Состав:"
	overflowMarker    = "Резерв:"
	closedMarker      = "🏁 Запись закрыта"
	joinHintMarker    = "Нажмите кнопку ниже, чтобы записаться."
)

// Callback actions attached to the rendered keyboard. The strings travel
// inside callback payloads and are part of the public contract with
// already-posted messages.
const (
	ActionJoin         = "register"
	ActionLeave        = "unregister"
	ActionJoinOverflow = "register_reserve"
	ActionAddGuest     = "add_friend"
	ActionRemoveGuest  = "remove_friend"
	ActionEnd          = "end_game"
	ActionRefresh      = "refresh"
)

// Placeholder returns the provisional text posted to reserve a message slot
// before the first render edits it in place.
func Placeholder() string {
	return headerMarker
}

// Control describes one keyboard action offered alongside the message text.
type Control struct {
	Action string
	Label  string
}
