package telegram

import (
	"context"
	"log/slog"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/matthieugusmini/docker-chatops/internal/chatops"
)

// pollTimeout is the long-polling timeout passed to getUpdates, in seconds.
const pollTimeout = 30

// PageService produces the next page to display for a decoded callback.
type PageService interface {
	// Respond handles one decoded callback and returns the page to render.
	Respond(ctx context.Context, cb chatops.Callback) (chatops.Page, error)
}

// Sender is the subset of the Telegram Bot API client used to reply to
// chat users.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Options are optional parameters configuring the behavior of the [Bot].
type Options struct {
	// AllowedUserIDs restricts the bot to the given Telegram user IDs.
	// If empty, anyone can use the bot.
	AllowedUserIDs []int64
}

// Bot dispatches incoming Telegram updates to the page service and edits
// the originating message in place with the rendered result.
//
// Updates are handled strictly one at a time: the loop blocks on each
// backend call before reading the next update, so a slow or hung remote
// command stalls every user of the bot for that long.
type Bot struct {
	api     *tgbotapi.BotAPI
	sender  Sender
	service PageService
	logger  *slog.Logger
	options Options
}

// NewBot creates a new [Bot] answering chat interactions with pages
// produced by the given service.
func NewBot(
	api *tgbotapi.BotAPI,
	service PageService,
	logger *slog.Logger,
	opts Options,
) *Bot {
	return &Bot{
		api:     api,
		sender:  api,
		service: service,
		logger:  logger,
		options: opts,
	}
}

// Run starts the long-polling loop and blocks until the context is
// cancelled or the updates channel is closed.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("Bot started", slog.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Command() != "start" {
		return
	}

	var page chatops.Page
	switch {
	case !b.isAllowed(msg.From):
		page = chatops.RenderDenied()
	default:
		var err error
		page, err = b.service.Respond(ctx, chatops.Callback{View: chatops.ViewMenu})
		if err != nil {
			page = chatops.RenderFailure(err)
		}
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, page.Text)
	reply.ParseMode = tgbotapi.ModeHTML
	if markup, ok := toInlineKeyboard(page); ok {
		reply.ReplyMarkup = markup
	}

	if _, err := b.sender.Send(reply); err != nil {
		b.logger.Error("Cannot send reply", slog.Any("error", err))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Dismiss the loading indicator on the pressed button.
	if _, err := b.sender.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.logger.Error("Cannot answer callback query", slog.Any("error", err))
	}

	// Without the originating message there is nothing to edit.
	if cq.Message == nil {
		return
	}

	page := b.respond(ctx, cq)

	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, page.Text)
	edit.ParseMode = tgbotapi.ModeHTML
	if markup, ok := toInlineKeyboard(page); ok {
		edit.ReplyMarkup = &markup
	}

	if _, err := b.sender.Send(edit); err != nil {
		b.logger.Error("Cannot edit message", slog.Any("error", err))
	}
}

func (b *Bot) respond(ctx context.Context, cq *tgbotapi.CallbackQuery) chatops.Page {
	if !b.isAllowed(cq.From) {
		return chatops.RenderDenied()
	}

	cb, err := chatops.ParseCallback(cq.Data)
	if err != nil {
		return chatops.RenderFailure(err)
	}

	page, err := b.service.Respond(ctx, cb)
	if err != nil {
		b.logger.Error(
			"Cannot handle callback",
			slog.Any("error", err),
			slog.String("data", cq.Data),
		)
		return chatops.RenderFailure(err)
	}

	return page
}

func (b *Bot) isAllowed(user *tgbotapi.User) bool {
	if len(b.options.AllowedUserIDs) == 0 {
		return true
	}
	if user == nil {
		return false
	}
	return slices.Contains(b.options.AllowedUserIDs, user.ID)
}

func toInlineKeyboard(page chatops.Page) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(page.Keyboard) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(page.Keyboard))
	for _, row := range page.Keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		rows = append(rows, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
