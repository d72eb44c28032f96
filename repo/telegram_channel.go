package repo

import (
	"QuizBot/render"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramChannel delivers wizard messages through the Telegram Bot API
type TelegramChannel struct {
	bot *bot.Bot
}

// NewTelegramChannel wraps an initialised bot
func NewTelegramChannel(b *bot.Bot) *TelegramChannel {
	return &TelegramChannel{bot: b}
}

// Send sends msg to chatID and returns the id of the new message
func (c *TelegramChannel) Send(ctx context.Context, chatID int64, msg render.Message) (int, error) {
	text, parseMode := Format(msg)
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseMode,
	}
	if markup := Markup(msg.Controls); markup != nil {
		params.ReplyMarkup = markup
	}
	sent, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("error sending message: %w", err)
	}
	return sent.ID, nil
}

// Edit replaces the text of an existing message and its inline controls
func (c *TelegramChannel) Edit(ctx context.Context, chatID int64, messageID int, msg render.Message) error {
	text, parseMode := Format(msg)
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: parseMode,
	}
	if markup := Markup(msg.Controls); markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := c.bot.EditMessageText(ctx, params); err != nil {
		return fmt.Errorf("error editing message %d: %w", messageID, err)
	}
	return nil
}

// EditControls swaps the inline controls of a message. Empty controls remove them.
func (c *TelegramChannel) EditControls(ctx context.Context, chatID int64, messageID int, controls render.Controls) error {
	params := &bot.EditMessageReplyMarkupParams{
		ChatID:    chatID,
		MessageID: messageID,
	}
	if markup := Markup(controls); markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := c.bot.EditMessageReplyMarkup(ctx, params); err != nil {
		return fmt.Errorf("error editing markup of message %d: %w", messageID, err)
	}
	return nil
}

// Format renders documents as MarkdownV2, plain text stays unformatted
func Format(msg render.Message) (string, models.ParseMode) {
	if msg.Document == nil {
		return msg.Text, ""
	}
	var sb strings.Builder
	sb.WriteString("*" + bot.EscapeMarkdown(msg.Document.Heading) + "*")
	for i, item := range msg.Document.Items {
		sb.WriteString("\n")
		sb.WriteString(bot.EscapeMarkdown(fmt.Sprintf("%d. %s", i+1, item)))
	}
	return sb.String(), models.ParseModeMarkdown
}

// Markup converts wizard controls into a Telegram reply markup, nil meaning none
func Markup(controls render.Controls) models.ReplyMarkup {
	switch controls.Kind {
	case render.ControlsReply:
		rows := make([][]models.KeyboardButton, 0, len(controls.Rows))
		for _, row := range controls.Rows {
			buttons := make([]models.KeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, models.KeyboardButton{Text: b.Text})
			}
			rows = append(rows, buttons)
		}
		return &models.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
	case render.ControlsInline:
		rows := make([][]models.InlineKeyboardButton, 0, len(controls.Rows))
		for _, row := range controls.Rows {
			buttons := make([]models.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, models.InlineKeyboardButton{Text: b.Text, CallbackData: b.Data})
			}
			rows = append(rows, buttons)
		}
		return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
	case render.ControlsRemove:
		return &models.ReplyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}
