package handler

import (
	"QuizBot/catalog"
	"QuizBot/metrics"
	"QuizBot/model"
	"QuizBot/render"
	"QuizBot/wizard"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outbound struct {
	chatID int64
	id     int
	msg    render.Message
}

type fakeChannel struct {
	mu     sync.Mutex
	nextID int
	sent   []outbound
	edits  []outbound
}

func (f *fakeChannel) Send(_ context.Context, chatID int64, msg render.Message) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, outbound{chatID: chatID, id: f.nextID, msg: msg})
	return f.nextID, nil
}

func (f *fakeChannel) Edit(_ context.Context, chatID int64, id int, msg render.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, outbound{chatID: chatID, id: id, msg: msg})
	return nil
}

func (f *fakeChannel) EditControls(_ context.Context, chatID int64, id int, controls render.Controls) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, outbound{chatID: chatID, id: id, msg: render.Message{Controls: controls}})
	return nil
}

func (f *fakeChannel) last() outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

func (f *fakeChannel) lastEdit() outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.edits[len(f.edits)-1]
}

type fakeSink struct {
	mu      sync.Mutex
	records []model.Record
}

func (f *fakeSink) Save(_ context.Context, rec model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeSink) byUser() map[int64]model.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]model.Record, len(f.records))
	for _, r := range f.records {
		out[r.UserID] = r
	}
	return out
}

func newTestHandler(t *testing.T) (*QuizBotHandler, *fakeChannel, *fakeSink) {
	t.Helper()
	ch := &fakeChannel{}
	sink := &fakeSink{}
	c := catalog.Builtin()
	w := wizard.New(c, ch, sink, zerolog.Nop())
	return NewQuizBotHandler(w, c, ch, zerolog.Nop()), ch, sink
}

func TestEventFromText(t *testing.T) {
	tests := []struct {
		text string
		want wizard.Event
	}{
		{"", wizard.Unrecognized()},
		{render.ButtonBack, wizard.GoBack()},
		{render.ButtonExit, wizard.Abort()},
		{render.ButtonInfo, wizard.Help()},
		{render.ButtonSkip, wizard.Skip()},
		{"hello", wizard.FreeText("hello")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EventFromText(tt.text), tt.text)
	}
}

func TestIsStartCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/start", true},
		{"/start@quiz_demo_bot", true},
		{"/start promo-42", true},
		{"/start@quiz_demo_bot promo-42", true},
		{"  /start  ", true},
		{"/started", false},
		{"/stop", false},
		{"start", false},
		{"", false},
		{"please /start", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsStartCommand(tt.text), tt.text)
	}
}

func TestStartVariantsAreNotRecordedAsAnswers(t *testing.T) {
	for _, text := range []string{"/start@quiz_demo_bot", "/start promo-42"} {
		t.Run(text, func(t *testing.T) {
			h, ch, sink := newTestHandler(t)
			ctx := context.Background()

			h.Callback(ctx, 1, 10, 5, "menu_select_2")
			h.Text(ctx, 1, 10, text)

			assert.Zero(t, h.ActiveSessions())
			rec, ok := sink.byUser()[1]
			require.True(t, ok)
			assert.False(t, rec.Completed)
			assert.Zero(t, rec.Answers.Filled())
			assert.Equal(t, render.ControlsInline, ch.last().msg.Controls.Kind)
		})
	}
}

func TestSessionGauge(t *testing.T) {
	h, _, _ := newTestHandler(t)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	h.WithMetrics(m)
	ctx := context.Background()

	h.Callback(ctx, 1, 10, 5, "menu_select_2")
	h.Callback(ctx, 2, 20, 6, "menu_select_1")
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsActive))

	h.Text(ctx, 1, 10, render.ButtonExit)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))

	h.Text(ctx, 3, 30, "hello")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsActive))
}

func TestTextWithoutSession(t *testing.T) {
	h, ch, _ := newTestHandler(t)

	h.Text(context.Background(), 1, 10, "hello")

	assert.Equal(t, textNotUnderstood, ch.last().msg.Text)
	assert.Zero(t, h.ActiveSessions())
}

func TestStartSendsMenu(t *testing.T) {
	h, ch, _ := newTestHandler(t)

	h.Start(context.Background(), 1, 10)

	menu := ch.last().msg
	require.Equal(t, render.ControlsInline, menu.Controls.Kind)
	var data []string
	for _, b := range menu.Controls.Buttons() {
		data = append(data, b.Data)
	}
	assert.Equal(t, []string{"menu_select_1", "menu_select_2", render.CancelData}, data)
	assert.Zero(t, h.ActiveSessions())
}

func TestMenuSelectionInvalidOrigin(t *testing.T) {
	h, ch, sink := newTestHandler(t)

	h.Callback(context.Background(), 1, 10, 5, "menu_select_42")

	assert.Equal(t, textCannotStart, ch.last().msg.Text)
	assert.Zero(t, h.ActiveSessions())
	assert.Empty(t, sink.records)
}

func TestFullFlowThroughHost(t *testing.T) {
	h, ch, sink := newTestHandler(t)
	ctx := context.Background()

	h.Callback(ctx, 1, 10, 5, "menu_select_1")
	assert.Equal(t, 1, h.ActiveSessions())
	assert.Equal(t, 5, ch.edits[0].id)
	assert.Equal(t, "[1/3] Question #1", ch.last().msg.Text)

	h.Text(ctx, 1, 10, "first")
	prompt := ch.last()
	require.Equal(t, render.ControlsInline, prompt.msg.Controls.Kind)

	// a press on some other message is ignored
	h.Callback(ctx, 1, 10, prompt.id+100, "coms_select_0")
	assert.Equal(t, prompt.id, ch.last().id)

	h.Callback(ctx, 1, 10, prompt.id, "coms_select_1")
	assert.Equal(t, "[3/3] Question #3", ch.last().msg.Text)

	h.Text(ctx, 1, 10, render.ButtonSkip)

	assert.Zero(t, h.ActiveSessions())
	rec, ok := sink.byUser()[1]
	require.True(t, ok)
	assert.True(t, rec.Completed)
	first, bad := "first", "bad"
	assert.Equal(t, map[string]*string{"var1": &first, "var2": &bad, "var3": nil}, rec.Answers.Map())
}

func TestCancelSoft(t *testing.T) {
	h, ch, _ := newTestHandler(t)
	ctx := context.Background()

	h.Callback(ctx, 1, 10, 77, render.CancelData)
	edit := ch.lastEdit()
	assert.Equal(t, 77, edit.id)
	assert.Equal(t, textSoftCancelled, edit.msg.Text)

	h.Callback(ctx, 1, 10, 5, "menu_select_1")
	h.Text(ctx, 1, 10, "first")
	pending := ch.last().id

	h.Callback(ctx, 1, 10, pending, render.CancelData)
	edit = ch.lastEdit()
	assert.Equal(t, pending, edit.id)
	assert.Equal(t, "Cancelled.", edit.msg.Text)
	assert.Equal(t, 1, h.ActiveSessions())
}

func TestStartClosesLiveSession(t *testing.T) {
	h, ch, sink := newTestHandler(t)
	ctx := context.Background()

	h.Callback(ctx, 1, 10, 5, "menu_select_2")
	h.Text(ctx, 1, 10, "A")
	h.Start(ctx, 1, 10)

	assert.Zero(t, h.ActiveSessions())
	rec, ok := sink.byUser()[1]
	require.True(t, ok)
	assert.False(t, rec.Completed)
	assert.Equal(t, 1, rec.Answers.Filled())
	assert.Equal(t, render.ControlsInline, ch.last().msg.Controls.Kind)
}

func TestReselectWhileActiveRestarts(t *testing.T) {
	h, ch, sink := newTestHandler(t)
	ctx := context.Background()

	h.Callback(ctx, 1, 10, 5, "menu_select_2")
	h.Text(ctx, 1, 10, "A")
	h.Callback(ctx, 1, 10, 5, "menu_select_1")

	assert.Equal(t, "[1/2] Question #1", ch.last().msg.Text)
	assert.Equal(t, 1, h.ActiveSessions())
	assert.Empty(t, sink.records)
}

func TestConcurrentUsersAreIsolated(t *testing.T) {
	h, _, sink := newTestHandler(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for u := int64(1); u <= 20; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			h.Callback(ctx, userID, userID*10, 1, "menu_select_2")
			h.Text(ctx, userID, userID*10, fmt.Sprintf("a-%d", userID))
			h.Text(ctx, userID, userID*10, render.ButtonInfo)
			h.Text(ctx, userID, userID*10, fmt.Sprintf("b-%d", userID))
		}(u)
	}
	wg.Wait()

	assert.Zero(t, h.ActiveSessions())
	records := sink.byUser()
	require.Len(t, records, 20)
	for u := int64(1); u <= 20; u++ {
		a, b := fmt.Sprintf("a-%d", u), fmt.Sprintf("b-%d", u)
		assert.Equal(t, map[string]*string{"var1": &a, "var2": &b}, records[u].Answers.Map())
	}
}
