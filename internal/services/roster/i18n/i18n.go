package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/pickup.football/internal/platform/i18n/catalog"
)

// Message keys for roster replies. Values live in the embedded locale
// catalogs under the roster namespace.
const (
	KeyJoined            = "roster.reply.joined"
	KeyJoinedReserve     = "roster.reply.joined_reserve"
	KeyAlreadyJoined     = "roster.reply.already_joined"
	KeyNotJoined         = "roster.reply.not_joined"
	KeyLeft              = "roster.reply.left"
	KeyEnded             = "roster.reply.ended"
	KeyNoRoster          = "roster.reply.no_roster"
	KeyNotOrganizer      = "roster.reply.not_organizer"
	KeyRosterClosed      = "roster.reply.roster_closed"
	KeyGuestPrompt       = "roster.reply.guest_prompt"
	KeyGuestRemovePrompt = "roster.reply.guest_remove_prompt"
	KeyGuestAdded        = "roster.reply.guest_added"
	KeyGuestRemoved      = "roster.reply.guest_removed"
	KeyGuestLimit        = "roster.reply.guest_limit"
	KeyGuestDuplicate    = "roster.reply.guest_duplicate"
	KeyGuestUnknown      = "roster.reply.guest_unknown"
	KeyGuestNameRequired = "roster.reply.guest_name_required"
	KeyStartOrganizer    = "roster.reply.start_organizer"
	KeyStartMember       = "roster.reply.start_member"
	KeyGroupOnly         = "roster.reply.group_only"
	KeyCreateUsage       = "roster.reply.create_usage"
	KeyNoRightsCreate    = "roster.reply.no_rights_create"
	KeyRestorePrompt     = "roster.reply.restore_prompt"
	KeyRestoreExists     = "roster.reply.restore_exists"
	KeyRestoreDone       = "roster.reply.restore_done"
	KeyRestoreFailed     = "roster.reply.restore_failed"
)

// Default returns the default reply locale tag.
func Default() language.Tag {
	return language.MustParse(catalog.BaseLocale)
}

// ParseTag resolves a configured locale identifier against the embedded
// catalogs, falling back to the default locale.
func ParseTag(locale string) language.Tag {
	if !catalog.Default().HasLocale(locale) {
		return Default()
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return Default()
	}
	return tag
}

// Printer returns a message printer for the supplied tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}
