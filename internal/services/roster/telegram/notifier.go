package telegram

import (
	"context"

	"github.com/louisbranch/pickup.football/internal/services/roster/message"
)

// Notifier pushes rendered roster state to Telegram by editing the anchor
// message.
type Notifier struct {
	client *Client
}

// NewNotifier creates a notifier backed by the Bot API client.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// Display edits the anchor message in place. An edit that would not change
// the message is treated as success.
func (n *Notifier) Display(ctx context.Context, chatID int64, messageID int, text string, controls []message.Control) error {
	err := n.client.EditMessageText(ctx, chatID, messageID, text, Keyboard(controls))
	if err != nil && IsNotModified(err) {
		return nil
	}
	return err
}

// Keyboard lays controls out as an inline keyboard, two buttons per row.
func Keyboard(controls []message.Control) *InlineKeyboardMarkup {
	if len(controls) == 0 {
		return nil
	}
	markup := &InlineKeyboardMarkup{}
	var row []InlineKeyboardButton
	for _, control := range controls {
		row = append(row, InlineKeyboardButton{Text: control.Label, CallbackData: control.Action})
		if len(row) == 2 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		markup.InlineKeyboard = append(markup.InlineKeyboard, row)
	}
	return markup
}
