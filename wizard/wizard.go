package wizard

import (
	"QuizBot/catalog"
	"QuizBot/metrics"
	"QuizBot/model"
	"QuizBot/render"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Channel is the messaging transport the wizard talks through.
type Channel interface {
	Send(ctx context.Context, chatID int64, msg render.Message) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, msg render.Message) error
	EditControls(ctx context.Context, chatID int64, messageID int, controls render.Controls) error
}

// AnswerSink persists the answers of a finished session. A non-nil error means nothing was saved.
type AnswerSink interface {
	Save(ctx context.Context, rec model.Record) error
}

// User facing copy
const (
	textGreeting    = "Enter the main details."
	textNothingToDo = "Nothing to fill in yet. No steps defined!"
	textFarewell    = "Thank you for your time!"
	textCannotSkip  = "This step cannot be skipped!"
	textInvalid     = "Please send a valid answer!"
	textSelected    = "Selected:"
	textCancelled   = "Cancelled."
)

// Result reports where a session ended up after an operation.
type Result struct {
	Phase     model.Phase
	Step      int
	Exited    bool
	Completed bool // every step was passed, as opposed to abort or back-out
	Saved     bool
	Answers   model.AnswerMap
}

// Wizard drives sessions through a questionnaire. It keeps no per-session
// state of its own; callers serialize operations on the same SessionState.
type Wizard struct {
	catalog *catalog.Catalog
	channel Channel
	sink    AnswerSink
	metrics *metrics.Metrics
	log     zerolog.Logger
	now     func() time.Time
}

func New(c *catalog.Catalog, channel Channel, sink AnswerSink, logger zerolog.Logger) *Wizard {
	return &Wizard{
		catalog: c,
		channel: channel,
		sink:    sink,
		log:     logger.With().Str("component", "wizard").Logger(),
		now:     time.Now,
	}
}

// WithMetrics makes the wizard count sink results in m.
func (w *Wizard) WithMetrics(m *metrics.Metrics) *Wizard {
	w.metrics = m
	return w
}

// Enter starts a session. On a fresh entry the origin token selects the
// questionnaire; on reentry the token stored in s is reused instead.
func (w *Wizard) Enter(ctx context.Context, s *model.SessionState, originToken string, reentry bool) (Result, error) {
	var (
		qn  model.Questionnaire
		err error
	)
	if reentry {
		if !s.Active || s.OriginToken == "" {
			return Result{}, fmt.Errorf("%w: no live session for user %d", model.ErrReentryAmbiguity, s.UserID)
		}
		qn, err = w.catalog.Resolve(s.OriginToken)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", model.ErrReentryAmbiguity, err)
		}
		originToken = s.OriginToken
		w.clearPending(ctx, s, textCancelled)
	} else {
		qn, err = w.catalog.Resolve(originToken)
		if err != nil {
			return Result{}, err
		}
	}

	s.Start(originToken)
	w.sessionLog(s).Debug().Bool("reentry", reentry).Int("steps", qn.Len()).Msg("session entered")

	if qn.Len() == 0 {
		return w.exit(ctx, s, qn, false), nil
	}

	if !reentry {
		w.send(ctx, s, render.Text(textGreeting))
		if s.MenuMessageID != 0 {
			if err := w.channel.EditControls(ctx, s.ChatID, s.MenuMessageID, render.Controls{}); err != nil {
				w.cleanupFailed(s, s.MenuMessageID, err)
			}
		}
	}
	return w.show(ctx, s, qn), nil
}

// HandleInput applies one user event to a session awaiting input.
func (w *Wizard) HandleInput(ctx context.Context, s *model.SessionState, ev Event) (Result, error) {
	qn, err := w.current(s)
	if err != nil {
		return Result{}, err
	}
	q := qn.Question(s.Step)

	switch ev.Kind {
	case EventFreeText:
		if q.HasPresets() {
			w.representPresets(ctx, s, q, "")
			return w.awaiting(s), nil
		}
		s.Answers[s.Step] = ev.Text
		w.clearPending(ctx, s, textSelected)
		return w.advance(ctx, s, qn), nil

	case EventPresetSelect:
		if !q.HasPresets() {
			return Result{}, fmt.Errorf("%w: step %d has no presets", model.ErrPresetContract, s.Step)
		}
		if ev.Index < 0 || ev.Index >= len(q.Presets) {
			return Result{}, fmt.Errorf("%w: index %d out of %d options", model.ErrPresetContract, ev.Index, len(q.Presets))
		}
		value := q.Presets[ev.Index]
		s.Answers[s.Step] = value
		w.clearPending(ctx, s, textSelected)
		w.send(ctx, s, render.Text(value))
		return w.advance(ctx, s, qn), nil

	case EventGoBack:
		w.clearPending(ctx, s, textCancelled)
		if s.Step == 0 {
			return w.exit(ctx, s, qn, false), nil
		}
		delete(s.Answers, s.Step)
		s.Step--
		return w.show(ctx, s, qn), nil

	case EventSkip:
		if q.HasPresets() {
			w.representPresets(ctx, s, q, textCannotSkip)
			return w.awaiting(s), nil
		}
		w.clearPending(ctx, s, textSelected)
		return w.advance(ctx, s, qn), nil

	case EventHelp:
		w.send(ctx, s, render.Text(q.Description))
		return w.awaiting(s), nil

	case EventAbort:
		w.clearPending(ctx, s, textCancelled)
		return w.exit(ctx, s, qn, false), nil

	case EventDismiss:
		w.clearPending(ctx, s, textCancelled)
		return w.awaiting(s), nil

	default:
		w.send(ctx, s, render.Text(textInvalid))
		return w.awaiting(s), nil
	}
}

// Exit ends a live session early, summarizing whatever was answered.
func (w *Wizard) Exit(ctx context.Context, s *model.SessionState) (Result, error) {
	if !s.Active {
		return Result{}, model.ErrNotAwaitingInput
	}
	qn, err := w.catalog.Resolve(s.OriginToken)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", model.ErrReentryAmbiguity, err)
	}
	return w.exit(ctx, s, qn, false), nil
}

func (w *Wizard) current(s *model.SessionState) (model.Questionnaire, error) {
	if !s.Active || s.Phase != model.PhaseAwaitingInput {
		return model.Questionnaire{}, model.ErrNotAwaitingInput
	}
	qn, err := w.catalog.Resolve(s.OriginToken)
	if err != nil {
		return model.Questionnaire{}, fmt.Errorf("%w: %v", model.ErrReentryAmbiguity, err)
	}
	if s.Step < 0 || s.Step >= qn.Len() {
		return model.Questionnaire{}, fmt.Errorf("%w: step %d outside [0, %d)", model.ErrNotAwaitingInput, s.Step, qn.Len())
	}
	return qn, nil
}

func (w *Wizard) advance(ctx context.Context, s *model.SessionState, qn model.Questionnaire) Result {
	s.Step++
	if s.Step == qn.Len() {
		return w.exit(ctx, s, qn, true)
	}
	return w.show(ctx, s, qn)
}

// show renders the current step and, for preset questions, a fresh preset prompt.
func (w *Wizard) show(ctx context.Context, s *model.SessionState, qn model.Questionnaire) Result {
	q := qn.Question(s.Step)
	s.Phase = model.PhaseAwaitingInput
	w.send(ctx, s, render.Step(q, s.Step, qn.Len()))
	if q.HasPresets() {
		w.showPresets(ctx, s, q)
	}
	return w.awaiting(s)
}

func (w *Wizard) awaiting(s *model.SessionState) Result {
	return Result{Phase: s.Phase, Step: s.Step}
}

// representPresets strips the controls off the outstanding preset prompt and
// sends a new one, optionally preceded by a notice.
func (w *Wizard) representPresets(ctx context.Context, s *model.SessionState, q model.Question, notice string) {
	if s.HasPending() {
		if err := w.channel.EditControls(ctx, s.ChatID, s.PendingMessageID, render.Controls{}); err != nil {
			w.cleanupFailed(s, s.PendingMessageID, err)
		}
		s.PendingMessageID = 0
	}
	if notice != "" {
		w.send(ctx, s, render.Text(notice))
	}
	w.showPresets(ctx, s, q)
}

func (w *Wizard) showPresets(ctx context.Context, s *model.SessionState, q model.Question) {
	w.clearPending(ctx, s, textCancelled)
	if id, ok := w.send(ctx, s, render.Presets(q.Presets)); ok {
		s.PendingMessageID = id
	}
}

// clearPending replaces the outstanding ephemeral message with text and no
// controls. The handle is dropped even when the edit fails.
func (w *Wizard) clearPending(ctx context.Context, s *model.SessionState, text string) {
	if !s.HasPending() {
		return
	}
	id := s.PendingMessageID
	s.PendingMessageID = 0
	if err := w.channel.Edit(ctx, s.ChatID, id, render.Text(text)); err != nil {
		w.cleanupFailed(s, id, err)
	}
}

func (w *Wizard) exit(ctx context.Context, s *model.SessionState, qn model.Questionnaire, completed bool) Result {
	s.Phase = model.PhaseExiting
	step := s.Step

	if qn.Len() == 0 {
		w.send(ctx, s, render.Text(textNothingToDo))
		s.Reset()
		return Result{Phase: model.PhaseExiting, Exited: true}
	}

	answers := collect(s, qn)
	doc := render.Summary(qn, answers)
	w.send(ctx, s, render.Message{Document: &doc, Controls: render.Controls{Kind: render.ControlsRemove}})

	rec := model.Record{
		SessionID:     s.ID,
		UserID:        s.UserID,
		OriginToken:   s.OriginToken,
		Questionnaire: qn.Selector(),
		Answers:       answers,
		Completed:     completed,
		FinishedAt:    w.now(),
	}
	saved := true
	err := w.sink.Save(ctx, rec)
	w.metrics.RecordSave(qn.Selector(), err)
	if err != nil {
		saved = false
		w.sessionLog(s).Warn().Err(errors.Join(model.ErrSinkFailure, err)).Msg("userdata was handled but not saved")
	} else {
		w.sessionLog(s).Info().Int("filled", answers.Filled()).Msg("userdata was handled and saved")
	}

	w.clearPending(ctx, s, textCancelled)
	w.send(ctx, s, render.Text(textFarewell))
	s.Reset()

	return Result{
		Phase:     model.PhaseExiting,
		Step:      step,
		Exited:    true,
		Completed: completed,
		Saved:     saved,
		Answers:   answers,
	}
}

// collect reads every step, unanswered ones included.
func collect(s *model.SessionState, qn model.Questionnaire) model.AnswerMap {
	answers := make(model.AnswerMap, qn.Len())
	for i, q := range qn.Questions() {
		answers[i] = model.Answer{VarName: q.VarName}
		if v, ok := s.Answers[i]; ok {
			answers[i].Value = &v
		}
	}
	return answers
}

func (w *Wizard) send(ctx context.Context, s *model.SessionState, msg render.Message) (int, bool) {
	id, err := w.channel.Send(ctx, s.ChatID, msg)
	if err != nil {
		w.sessionLog(s).Error().Err(err).Msg("error sending message")
		return 0, false
	}
	return id, true
}

func (w *Wizard) cleanupFailed(s *model.SessionState, messageID int, err error) {
	w.sessionLog(s).Warn().
		Err(fmt.Errorf("%w: %v", model.ErrEphemeralCleanup, err)).
		Int("message_id", messageID).
		Msg("can't edit msg")
}

func (w *Wizard) sessionLog(s *model.SessionState) *zerolog.Logger {
	l := w.log.With().
		Int64("user_id", s.UserID).
		Str("session_id", s.ID).
		Str("origin", s.OriginToken).
		Logger()
	return &l
}
