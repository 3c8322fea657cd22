package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"serotonyl.ru/garden-bot/internal/config"
	"serotonyl.ru/garden-bot/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseCommand(t *testing.T) {
	p := NewCommandParser()

	tests := []struct {
		text    string
		cmd     string
		args    []string
		isValid bool
	}{
		{"!намаз фаджр", "намаз", []string{"фаджр"}, true},
		{"  .САД  ", "сад", nil, true},
		{"/start@garden_bot", "start", nil, true},
		{"/урожай 3", "урожай", []string{"3"}, true},
		{"!", "", nil, false},
		{"привет", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd, args, ok := p.ParseCommand(tt.text)
			assert.Equal(t, tt.isValid, ok)
			assert.Equal(t, tt.cmd, cmd)
			assert.Empty(t, cmp.Diff(tt.args, args))
		})
	}
}

// recorder записывает вызванные обработчики.
type recorder struct {
	calls   []string
	args    [][]string
	touched []int64
	admin   bool
	secret  string // текст, который панель забирает как пароль
}

func (r *recorder) record(name string, args []string) {
	r.calls = append(r.calls, name)
	r.args = append(r.args, args)
}

func (r *recorder) HandleStart(context.Context, int64, int64)  { r.record("start", nil) }
func (r *recorder) HandleGarden(context.Context, int64, int64) { r.record("garden", nil) }
func (r *recorder) HandleLevel(context.Context, int64, int64)  { r.record("level", nil) }
func (r *recorder) HandleBadges(context.Context, int64, int64) { r.record("badges", nil) }
func (r *recorder) HandleProfile(context.Context, int64, int64) { r.record("profile", nil) }
func (r *recorder) HandleCharacter(_ context.Context, _, _ int64, args []string) {
	r.record("character", args)
}
func (r *recorder) HandlePray(_ context.Context, _, _ int64, args []string) {
	r.record("pray", args)
}
func (r *recorder) HandleHarvest(_ context.Context, _, _ int64, args []string) {
	r.record("harvest", args)
}
func (r *recorder) HandleRestart(_ context.Context, _, _ int64, args []string) {
	r.record("restart", args)
}

func (r *recorder) HandleAdminMessage(_ context.Context, _, _ int64, text string) bool {
	return r.admin && (text == "/login" || (r.secret != "" && text == r.secret))
}

func (r *recorder) Touch(_ context.Context, userID int64, _, _, _ string) {
	r.touched = append(r.touched, userID)
}

func newTestBot(t *testing.T, allowGroups bool) (*Bot, *recorder) {
	t.Helper()
	rec := &recorder{}
	cfg := &config.Config{
		BotMaxInflight:    4,
		BotAllowGroups:    allowGroups,
		RateLimitRequests: 5,
		RateLimitWindow:   time.Minute,
	}
	b := New(nil, cfg, rec, rec, rec)
	t.Cleanup(b.Close)
	return b, rec
}

func text(chatType, s string) *tgbotapi.Message {
	return &tgbotapi.Message{
		Text: s,
		Chat: &tgbotapi.Chat{ID: 10, Type: chatType},
		From: &tgbotapi.User{ID: 10},
	}
}

func TestHandleMessage_Routes(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBot(t, false)

	assert.Equal(t, "pray", b.handleMessage(ctx, text("private", "!намаз иша")))
	assert.Equal(t, "harvest", b.handleMessage(ctx, text("private", "/harvest 5")))
	assert.Equal(t, "start", b.handleMessage(ctx, text("private", "/start")))
	assert.Equal(t, routeUnknown, b.handleMessage(ctx, text("private", "!плёнки")))
	assert.Equal(t, routeIgnored, b.handleMessage(ctx, text("private", "ассаламу алейкум")))

	assert.Equal(t, []string{"pray", "harvest", "start"}, rec.calls)
	assert.Equal(t, []string{"иша"}, rec.args[0])
	assert.Len(t, rec.touched, 5)
}

func TestHandleMessage_ProfileRoute(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBot(t, false)

	assert.Equal(t, "profile", b.handleMessage(ctx, text("private", "!профиль")))
	assert.Equal(t, "profile", b.handleMessage(ctx, text("private", "/profile@garden_bot")))
	assert.Equal(t, []string{"profile", "profile"}, rec.calls)
}

func TestHandleMessage_Filters(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBot(t, false)

	assert.Equal(t, routeIgnored, b.handleMessage(ctx, nil))
	assert.Equal(t, routeFiltered, b.handleMessage(ctx, text("group", "!сад")))
	assert.Empty(t, rec.calls)
	assert.Empty(t, rec.touched)

	for i := 0; i < 5; i++ {
		b.handleMessage(ctx, text("private", "!сад"))
	}
	assert.Equal(t, routeRateLimited, b.handleMessage(ctx, text("private", "!сад")))
	assert.Len(t, rec.calls, 5)
}

func TestHandleMessage_GroupsAllowed(t *testing.T) {
	b, rec := newTestBot(t, true)
	assert.Equal(t, "garden", b.handleMessage(context.Background(), text("supergroup", "!сад")))
	assert.Equal(t, []string{"garden"}, rec.calls)
}

func TestHandleMessage_AdminIntercept(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBot(t, false)
	rec.admin = true

	assert.Equal(t, routeAdmin, b.handleMessage(ctx, text("private", "/login")))
	assert.Equal(t, "garden", b.handleMessage(ctx, text("private", "!сад")))
	assert.Equal(t, []string{"garden"}, rec.calls)
}

func TestHandleMessage_AdminTextNotLogged(t *testing.T) {
	hook := test.NewGlobal()
	level := log.GetLevel()
	log.SetLevel(log.DebugLevel)
	t.Cleanup(func() {
		log.SetLevel(level)
		log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	})

	ctx := context.Background()
	b, rec := newTestBot(t, false)
	rec.admin = true
	rec.secret = "пароль-42"

	assert.Equal(t, routeAdmin, b.handleMessage(ctx, text("private", "пароль-42")))
	for _, entry := range hook.AllEntries() {
		assert.NotContains(t, entry.Message, "пароль-42")
		for _, v := range entry.Data {
			s, ok := v.(string)
			if ok {
				assert.NotContains(t, s, "пароль-42")
			}
		}
	}

	// Обычные команды по-прежнему логируются
	hook.Reset()
	b.handleMessage(ctx, text("private", "!сад"))
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Входящее сообщение", entries[0].Message)
	assert.Equal(t, "!сад", entries[0].Data["text"])
	assert.Equal(t, "routing command", entries[1].Message)
}

func TestHandleUpdate_RecoversPanic(t *testing.T) {
	b, _ := newTestBot(t, false)
	b.garden = panicky{&recorder{}}

	before := testutil.ToFloat64(metrics.UpdatesTotal.WithLabelValues(routePanic))
	panics := testutil.ToFloat64(metrics.PanicsRecovered)
	assert.NotPanics(t, func() {
		b.handleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: text("private", "!сад")})
	})
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.UpdatesTotal.WithLabelValues(routePanic)))
	assert.Equal(t, panics+1, testutil.ToFloat64(metrics.PanicsRecovered))
}

func TestAcquire(t *testing.T) {
	b, _ := newTestBot(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	for i := 0; i < cap(b.inflight); i++ {
		require.True(t, b.acquire(ctx))
	}

	// все слоты заняты: после отмены ctx ожидание слота прекращается
	done := make(chan bool)
	go func() { done <- b.acquire(ctx) }()
	cancel()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("acquire не вернулся после отмены ctx")
	}
}

type panicky struct{ *recorder }

func (panicky) HandleGarden(context.Context, int64, int64) { panic("boom") }
