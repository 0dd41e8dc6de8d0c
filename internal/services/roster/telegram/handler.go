package telegram

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/louisbranch/pickup.football/internal/platform/timeouts"
	"github.com/louisbranch/pickup.football/internal/services/roster/app"
	"github.com/louisbranch/pickup.football/internal/services/roster/domain/roster"
	"github.com/louisbranch/pickup.football/internal/services/roster/i18n"
	"github.com/louisbranch/pickup.football/internal/services/roster/message"
	"github.com/louisbranch/pickup.football/internal/services/roster/storage"
)

// HandlerConfig carries handler dependencies. GroupID of zero leaves the bot
// open to any chat.
type HandlerConfig struct {
	Service *app.Service
	Client  *Client
	Prompts storage.PromptStore
	GroupID int64
	Locale  string
}

// Handler maps Telegram updates onto roster service operations.
type Handler struct {
	svc     *app.Service
	client  *Client
	prompts storage.PromptStore
	groupID int64
	reply   func(key string) string
}

// NewHandler creates an update handler.
func NewHandler(cfg HandlerConfig) *Handler {
	printer := i18n.Printer(i18n.ParseTag(cfg.Locale))
	return &Handler{
		svc:     cfg.Service,
		client:  cfg.Client,
		prompts: cfg.Prompts,
		groupID: cfg.GroupID,
		reply:   func(key string) string { return printer.Sprintf(key) },
	}
}

// HandleUpdate dispatches one polled update.
func (h *Handler) HandleUpdate(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, *update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		h.handleMessage(ctx, *update.Message)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, msg, text)
		return
	}
	h.handlePromptReply(ctx, msg, text)
}

func (h *Handler) handleCommand(ctx context.Context, msg Message, text string) {
	if h.groupID != 0 && msg.Chat.ID != h.groupID {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyGroupOnly))
		return
	}

	fields := strings.Fields(text)
	command := fields[0]
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}

	switch command {
	case "/start":
		// /start with a numeric argument doubles as game creation for the
		// organizer.
		if len(fields) >= 3 {
			if _, err := strconv.Atoi(fields[1]); err == nil {
				h.createRoster(ctx, msg, fields[1:])
				return
			}
		}
		if h.svc.IsOrganizer(userIdentity(*msg.From)) {
			h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyStartOrganizer))
		} else {
			h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyStartMember))
		}
	case "/create_game":
		h.createRoster(ctx, msg, fields[1:])
	case "/end_game":
		if !h.svc.IsOrganizer(userIdentity(*msg.From)) {
			h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyNotOrganizer))
			return
		}
		if err := h.svc.Deactivate(ctx, msg.Chat.ID); err != nil {
			h.send(ctx, msg.Chat.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyEnded))
	case "/restore_state":
		h.startRestore(ctx, msg)
	}
}

func (h *Handler) createRoster(ctx context.Context, msg Message, args []string) {
	if !h.svc.IsOrganizer(userIdentity(*msg.From)) {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyNoRightsCreate))
		return
	}
	if len(args) < 2 {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyCreateUsage))
		return
	}
	capacity, err := strconv.Atoi(args[0])
	if err != nil || capacity <= 0 {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyCreateUsage))
		return
	}
	description := strings.Join(args[1:], " ")

	anchor, err := h.sendMessage(ctx, msg.Chat.ID, message.Placeholder())
	if err != nil {
		log.Printf("post roster anchor for chat %d: %v", msg.Chat.ID, err)
		return
	}
	if _, err := h.svc.CreateRoster(ctx, msg.Chat.ID, anchor.MessageID, capacity, description); err != nil {
		h.send(ctx, msg.Chat.ID, h.reply(replyKeyForError(err)))
	}
}

func (h *Handler) startRestore(ctx context.Context, msg Message) {
	if !h.svc.IsOrganizer(userIdentity(*msg.From)) {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyNotOrganizer))
		return
	}
	if current, err := h.svc.Roster(ctx, msg.Chat.ID); err == nil && current.Active {
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyRestoreExists))
		return
	}
	h.putPrompt(ctx, msg.From.ID, msg.Chat.ID, storage.PromptRestore)
	h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyRestorePrompt))
}

// handlePromptReply consumes free text when the user has a pending prompt.
// Text from users without one is ignored.
func (h *Handler) handlePromptReply(ctx context.Context, msg Message, text string) {
	if h.prompts == nil {
		return
	}
	prompt, err := h.prompts.GetPrompt(ctx, msg.From.ID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("load prompt for user %d: %v", msg.From.ID, err)
		}
		return
	}
	if prompt.ChatID != msg.Chat.ID {
		return
	}
	if err := h.prompts.DeletePrompt(ctx, msg.From.ID); err != nil {
		log.Printf("clear prompt for user %d: %v", msg.From.ID, err)
	}

	switch prompt.Kind {
	case storage.PromptGuestAdd:
		if err := h.svc.AddGuest(ctx, prompt.ChatID, userIdentity(*msg.From), text); err != nil {
			h.send(ctx, msg.Chat.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyGuestAdded))
	case storage.PromptGuestRemove:
		if err := h.svc.RemoveGuest(ctx, prompt.ChatID, userIdentity(*msg.From), text); err != nil {
			h.send(ctx, msg.Chat.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyGuestRemoved))
	case storage.PromptRestore:
		anchor, err := h.sendMessage(ctx, msg.Chat.ID, message.Placeholder())
		if err != nil {
			log.Printf("post restore anchor for chat %d: %v", msg.Chat.ID, err)
			return
		}
		if _, err := h.svc.Recover(ctx, prompt.ChatID, anchor.MessageID, text); err != nil {
			h.send(ctx, msg.Chat.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.send(ctx, msg.Chat.ID, h.reply(i18n.KeyRestoreDone))
	}
}

func (h *Handler) handleCallback(ctx context.Context, q CallbackQuery) {
	if q.Message == nil {
		h.answer(ctx, q.ID, h.reply(i18n.KeyNoRoster))
		return
	}
	chatID := q.Message.Chat.ID
	userID := userIdentity(q.From)

	if q.Data == message.ActionEnd {
		if !h.svc.IsOrganizer(userID) {
			h.answer(ctx, q.ID, h.reply(i18n.KeyNotOrganizer))
			return
		}
		if err := h.svc.Deactivate(ctx, chatID); err != nil {
			h.answer(ctx, q.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.answer(ctx, q.ID, h.reply(i18n.KeyEnded))
		return
	}

	// Buttons on an outdated anchor message act on nothing.
	current, err := h.svc.Roster(ctx, chatID)
	if err != nil || current.MessageID != q.Message.MessageID {
		h.answer(ctx, q.ID, h.reply(i18n.KeyNoRoster))
		return
	}

	switch q.Data {
	case message.ActionJoin:
		placement, err := h.svc.Join(ctx, chatID, userID, displayName(q.From))
		if err != nil {
			h.answer(ctx, q.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.answer(ctx, q.ID, h.reply(placementReplyKey(placement)))
	case message.ActionJoinOverflow:
		placement, err := h.svc.JoinOverflow(ctx, chatID, userID, displayName(q.From))
		if err != nil {
			h.answer(ctx, q.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.answer(ctx, q.ID, h.reply(placementReplyKey(placement)))
	case message.ActionLeave:
		removed, err := h.svc.Leave(ctx, chatID, userID)
		if err != nil {
			h.answer(ctx, q.ID, h.reply(replyKeyForError(err)))
			return
		}
		if removed {
			h.answer(ctx, q.ID, h.reply(i18n.KeyLeft))
		} else {
			h.answer(ctx, q.ID, h.reply(i18n.KeyNotJoined))
		}
	case message.ActionAddGuest:
		h.putPrompt(ctx, q.From.ID, chatID, storage.PromptGuestAdd)
		h.answer(ctx, q.ID, "")
		h.send(ctx, chatID, h.reply(i18n.KeyGuestPrompt))
	case message.ActionRemoveGuest:
		h.putPrompt(ctx, q.From.ID, chatID, storage.PromptGuestRemove)
		h.answer(ctx, q.ID, "")
		h.send(ctx, chatID, h.reply(i18n.KeyGuestRemovePrompt))
	case message.ActionRefresh:
		if err := h.svc.Refresh(ctx, chatID); err != nil {
			h.answer(ctx, q.ID, h.reply(replyKeyForError(err)))
			return
		}
		h.answer(ctx, q.ID, "")
	default:
		h.answer(ctx, q.ID, "")
	}
}

func (h *Handler) putPrompt(ctx context.Context, userID, chatID int64, kind storage.PromptKind) {
	if h.prompts == nil {
		return
	}
	record := storage.PromptRecord{UserID: userID, ChatID: chatID, Kind: kind}
	if err := h.prompts.PutPrompt(ctx, record); err != nil {
		log.Printf("store prompt for user %d: %v", userID, err)
	}
}

func (h *Handler) send(ctx context.Context, chatID int64, text string) {
	if _, err := h.sendMessage(ctx, chatID, text); err != nil {
		log.Printf("send reply to chat %d: %v", chatID, err)
	}
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) (Message, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeouts.TelegramCall)
	defer cancel()
	return h.client.SendMessage(callCtx, chatID, text, nil)
}

func (h *Handler) answer(ctx context.Context, callbackID, text string) {
	callCtx, cancel := context.WithTimeout(ctx, timeouts.TelegramCall)
	defer cancel()
	if err := h.client.AnswerCallbackQuery(callCtx, callbackID, text); err != nil {
		log.Printf("answer callback %s: %v", callbackID, err)
	}
}

func userIdentity(u User) string {
	return strconv.FormatInt(u.ID, 10)
}

func displayName(u User) string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return "User" + strconv.FormatInt(u.ID, 10)
}

func placementReplyKey(placement roster.Placement) string {
	switch placement {
	case roster.PlacementOccupants:
		return i18n.KeyJoined
	case roster.PlacementOverflow:
		return i18n.KeyJoinedReserve
	case roster.PlacementAlreadyJoined:
		return i18n.KeyAlreadyJoined
	default:
		return i18n.KeyRosterClosed
	}
}

func replyKeyForError(err error) string {
	switch {
	case errors.Is(err, app.ErrNoRoster):
		return i18n.KeyNoRoster
	case errors.Is(err, app.ErrRosterExists):
		return i18n.KeyRestoreExists
	case errors.Is(err, app.ErrRecoveryFailed):
		return i18n.KeyRestoreFailed
	case errors.Is(err, roster.ErrRosterClosed):
		return i18n.KeyRosterClosed
	case errors.Is(err, roster.ErrInvalidCapacity):
		return i18n.KeyCreateUsage
	case errors.Is(err, roster.ErrGuestNameRequired):
		return i18n.KeyGuestNameRequired
	case errors.Is(err, roster.ErrGuestLimitReached):
		return i18n.KeyGuestLimit
	case errors.Is(err, roster.ErrGuestDuplicate):
		return i18n.KeyGuestDuplicate
	case errors.Is(err, roster.ErrGuestNotFound):
		return i18n.KeyGuestUnknown
	default:
		return i18n.KeyNoRoster
	}
}
