package handler

import (
	"QuizBot/catalog"
	"QuizBot/metrics"
	"QuizBot/model"
	"QuizBot/render"
	"QuizBot/wizard"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

const (
	textCannotStart   = "Cannot start the questionnaire. Please use /start and try again."
	textNotUnderstood = "I didn't understand that command. Use /start to pick a questionnaire."
	textSoftCancelled = "Action cancelled."
)

// QuizBotHandler routes Telegram updates into wizard sessions.
type QuizBotHandler struct {
	wizard   *wizard.Wizard
	catalog  *catalog.Catalog
	channel  wizard.Channel
	sessions *sessionRegistry
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

func NewQuizBotHandler(w *wizard.Wizard, c *catalog.Catalog, channel wizard.Channel, logger zerolog.Logger) *QuizBotHandler {
	return &QuizBotHandler{
		wizard:   w,
		catalog:  c,
		channel:  channel,
		sessions: newSessionRegistry(),
		log:      logger.With().Str("component", "quiz_bot").Logger(),
	}
}

// WithMetrics makes the handler publish the live session count to m.
func (h *QuizBotHandler) WithMetrics(m *metrics.Metrics) *QuizBotHandler {
	h.metrics = m
	return h
}

// Register attaches the command and callback handlers to b. Plain messages
// reach the handler through bot.WithDefaultHandler(h.Handler).
func (h *QuizBotHandler) Register(b *bot.Bot) {
	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil && IsStartCommand(update.Message.Text)
	}, h.startHandler)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, catalog.MenuPrefix, bot.MatchTypePrefix, h.callbackHandler)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, render.PresetPrefix, bot.MatchTypePrefix, h.callbackHandler)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, render.CancelData, bot.MatchTypeExact, h.callbackHandler)
}

// Handler is the default handler for messages no other handler matched.
func (h *QuizBotHandler) Handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		h.callbackHandler(ctx, b, update)
		return
	}
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.log.Debug().Str("username", update.Message.From.Username).Str("text", update.Message.Text).Msg("message received")
	h.Text(ctx, update.Message.From.ID, update.Message.Chat.ID, update.Message.Text)
}

func (h *QuizBotHandler) startHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	h.Start(ctx, update.Message.From.ID, update.Message.Chat.ID)
}

func (h *QuizBotHandler) callbackHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	cbk := update.CallbackQuery
	if cbk == nil {
		return
	}
	answer := &bot.AnswerCallbackQueryParams{CallbackQueryID: cbk.ID}
	defer func() {
		if _, err := b.AnswerCallbackQuery(ctx, answer); err != nil {
			h.log.Warn().Err(err).Msg("error answering callback query")
		}
	}()

	msg := cbk.Message.Message
	if msg == nil {
		h.log.Warn().Int64("user_id", cbk.From.ID).Str("data", cbk.Data).Msg("callback on inaccessible message")
		return
	}
	if cbk.Data == render.CancelData {
		answer.Text = textSoftCancelled
	}
	h.Callback(ctx, cbk.From.ID, msg.Chat.ID, msg.ID, cbk.Data)
}

// Start closes any live session and shows the questionnaire menu.
func (h *QuizBotHandler) Start(ctx context.Context, userID, chatID int64) {
	sess := h.sessions.acquire(userID, chatID)
	defer h.release(userID, sess)

	if sess.state.Active {
		if _, err := h.wizard.Exit(ctx, sess.state); err != nil {
			h.log.Error().Err(err).Int64("user_id", userID).Msg("error closing session")
			sess.state.Reset()
		}
	}
	if _, err := h.channel.Send(ctx, chatID, render.Menu(h.catalog)); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("error sending menu")
	}
}

// Callback handles an inline button press on message messageID.
func (h *QuizBotHandler) Callback(ctx context.Context, userID, chatID int64, messageID int, data string) {
	sess := h.sessions.acquire(userID, chatID)
	defer h.release(userID, sess)
	s := sess.state

	switch {
	case strings.HasPrefix(data, catalog.MenuPrefix):
		h.enter(ctx, s, messageID, data)

	case strings.HasPrefix(data, render.PresetPrefix):
		index, err := strconv.Atoi(strings.TrimPrefix(data, render.PresetPrefix))
		if err != nil || !s.Active || messageID != s.PendingMessageID {
			h.log.Warn().Int64("user_id", userID).Int("message_id", messageID).Str("data", data).Msg("stale preset selection")
			return
		}
		h.handle(ctx, s, wizard.PresetSelect(index))

	case data == render.CancelData:
		if s.Active && s.HasPending() && messageID == s.PendingMessageID {
			h.handle(ctx, s, wizard.Dismiss())
			return
		}
		if err := h.channel.Edit(ctx, chatID, messageID, render.Text(textSoftCancelled)); err != nil {
			h.log.Warn().Err(err).Int64("user_id", userID).Msg("can't edit msg")
		}

	default:
		h.log.Warn().Int64("user_id", userID).Str("data", data).Msg("unknown callback data")
	}
}

// Text handles a plain message, mapping reply keyboard captions to wizard events.
func (h *QuizBotHandler) Text(ctx context.Context, userID, chatID int64, text string) {
	if IsStartCommand(text) {
		h.Start(ctx, userID, chatID)
		return
	}
	sess := h.sessions.acquire(userID, chatID)
	defer h.release(userID, sess)

	if !sess.state.Active {
		if _, err := h.channel.Send(ctx, chatID, render.Text(textNotUnderstood)); err != nil {
			h.log.Error().Err(err).Int64("user_id", userID).Msg("error sending message")
		}
		return
	}
	h.handle(ctx, sess.state, EventFromText(text))
}

// IsStartCommand reports whether text is /start, optionally addressed to the
// bot (/start@name) or followed by a deep link payload.
func IsStartCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == "/start"
}

// EventFromText maps a message text to the event it stands for.
func EventFromText(text string) wizard.Event {
	switch text {
	case "":
		return wizard.Unrecognized()
	case render.ButtonBack:
		return wizard.GoBack()
	case render.ButtonExit:
		return wizard.Abort()
	case render.ButtonInfo:
		return wizard.Help()
	case render.ButtonSkip:
		return wizard.Skip()
	}
	return wizard.FreeText(text)
}

func (h *QuizBotHandler) enter(ctx context.Context, s *model.SessionState, messageID int, token string) {
	reentry := s.Active
	if !reentry {
		s.MenuMessageID = messageID
	}
	if _, err := h.wizard.Enter(ctx, s, token, reentry); err != nil {
		h.log.Error().Err(err).
			Int64("user_id", s.UserID).
			Str("origin", token).
			Bool("reentry", reentry).
			Msg("user invoked the questionnaire with invalid init data")
		s.Reset()
		if _, err := h.channel.Send(ctx, s.ChatID, render.Text(textCannotStart)); err != nil {
			h.log.Error().Err(err).Int64("user_id", s.UserID).Msg("error sending message")
		}
	}
}

func (h *QuizBotHandler) handle(ctx context.Context, s *model.SessionState, ev wizard.Event) {
	res, err := h.wizard.HandleInput(ctx, s, ev)
	switch {
	case errors.Is(err, model.ErrPresetContract):
		h.log.Error().Err(err).Int64("user_id", s.UserID).Stringer("event", ev.Kind).Msg("host and wizard out of sync")
	case err != nil:
		h.log.Error().Err(err).Int64("user_id", s.UserID).Stringer("event", ev.Kind).Msg("error handling input")
		if _, err := h.channel.Send(ctx, s.ChatID, render.Text(textCannotStart)); err != nil {
			h.log.Error().Err(err).Int64("user_id", s.UserID).Msg("error sending message")
		}
	case res.Exited:
		h.log.Debug().Int64("user_id", s.UserID).Bool("completed", res.Completed).Bool("saved", res.Saved).Msg("session finished")
	}
}

func (h *QuizBotHandler) release(userID int64, sess *session) {
	h.sessions.release(userID, sess)
	h.metrics.SetSessions(h.sessions.len())
}

// ActiveSessions reports how many users currently have a session.
func (h *QuizBotHandler) ActiveSessions() int {
	return h.sessions.len()
}
