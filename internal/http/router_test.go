package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest-bot-backend/internal/config"
	"contest-bot-backend/internal/domain/contest"
	tg "contest-bot-backend/internal/platform/telegram"
	redisrepo "contest-bot-backend/internal/repository/redis"
	"contest-bot-backend/internal/service/admin"
	"contest-bot-backend/internal/service/countsync"
	"contest-bot-backend/internal/service/membership"
	"contest-bot-backend/internal/service/publisher"
	"contest-bot-backend/internal/service/webhook"
)

// fakeTelegram is a Bot API stand-in that records every call.
type fakeTelegram struct {
	mu        sync.Mutex
	calls     []telegramCall
	responses map[string]string
}

type telegramCall struct {
	Method string
	Body   map[string]interface{}
}

func (f *fakeTelegram) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, telegramCall{Method: method, Body: body})
	resp, ok := f.responses[method]
	f.mu.Unlock()

	if !ok {
		resp = `{"ok":true,"result":{"message_id":55,"chat":{"id":-100123}}}`
	}
	if strings.Contains(resp, `"ok":false`) {
		w.WriteHeader(http.StatusBadRequest)
	}
	_, _ = w.Write([]byte(resp))
}

func (f *fakeTelegram) respond(method, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = body
}

func (f *fakeTelegram) call(i int) telegramCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func (f *fakeTelegram) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Method)
	}
	return out
}

type stubAdmins struct{}

func (stubAdmins) Check(_ context.Context, token string) error {
	switch token {
	case "":
		return admin.ErrMissingToken
	case "admin-token":
		return nil
	case "user-token":
		return admin.ErrNotAdmin
	default:
		return admin.ErrInvalidToken
	}
}

type testEnv struct {
	server   *httptest.Server
	telegram *fakeTelegram
	store    *redisrepo.ContestRepository
	cfg      *config.Config
}

func newTestEnv(t *testing.T, configure func(cfg *config.Config)) *testEnv {
	t.Helper()

	fake := &fakeTelegram{responses: map[string]string{}}
	tgServer := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(tgServer.Close)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := redisrepo.NewContestRepository(rdb)

	cfg := &config.Config{}
	cfg.Server.CORSAllowedOrigins = []string{"*"}
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChannelID = "@contests"
	cfg.Telegram.ProjectDomain = "https://app.example.com/"
	cfg.Identity.URL = "https://identity.example.com"
	cfg.Identity.APIKey = "anon"
	if configure != nil {
		configure(cfg)
	}

	bot := tg.NewClient(cfg.Telegram.BotToken, tg.WithBaseURL(tgServer.URL))
	router := NewRouter(Deps{
		Config:     cfg,
		Authorizer: stubAdmins{},
		Publisher:  publisher.NewService(bot, store, cfg.Telegram.ChannelID),
		Webhook:    webhook.NewRouter(bot, cfg.WebAppHost(), cfg.Telegram.WebhookSecret),
		Verifier:   membership.NewVerifier(bot, membership.Options{BotToken: cfg.Telegram.BotToken}),
		Sync:       countsync.NewService(store, bot),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, telegram: fake, store: store, cfg: cfg}
}

func (e *testEnv) post(t *testing.T, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, e.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

var adminHeader = map[string]string{"Authorization": "Bearer admin-token"}

func TestPublish_SendsTextMessage(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.post(t, "/api/v1/contests/publish",
		`{"title":"Spring","description":"Win","prize":"iPhone","buttonText":"Participate","buttonUrl":"https://t.me/bot?start=contest_1"}`,
		adminHeader)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(-100123), body["chatId"])
	assert.Equal(t, float64(55), body["messageId"])
	assert.NotContains(t, body, "persisted")

	tgResp := body["telegramResponse"].(map[string]interface{})
	assert.Equal(t, true, tgResp["ok"])

	assert.Equal(t, []string{"sendMessage"}, env.telegram.methods())
	call := env.telegram.call(0)
	assert.Equal(t, "@contests", call.Body["chat_id"])
	assert.Equal(t, publisher.RenderText(publisher.Request{Title: "Spring", Description: "Win", Prize: "iPhone"}), call.Body["text"])
}

func TestPublish_PhotoAndPersist(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.SaveContest(context.Background(), &contest.Contest{ID: "c1", Title: "Spring"}))

	status, body := env.post(t, "/api/v1/contests/publish",
		`{"contestId":"c1","title":"Spring","description":"Win","prize":"iPhone","imageUrl":"https://example.com/p.jpg"}`,
		adminHeader)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["persisted"])

	assert.Equal(t, []string{"sendPhoto"}, env.telegram.methods())
	assert.Equal(t, "https://example.com/p.jpg", env.telegram.call(0).Body["photo"])
	assert.NotEmpty(t, env.telegram.call(0).Body["caption"])

	c, err := env.store.GetContest(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(55), *c.TelegramMessageID)
}

func TestPublish_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)
	valid := `{"title":"Spring","description":"Win","prize":"iPhone"}`

	status, _ := env.post(t, "/api/v1/contests/publish", valid, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.post(t, "/api/v1/contests/publish", valid, map[string]string{"Authorization": "Bearer expired"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.post(t, "/api/v1/contests/publish", valid, map[string]string{"Authorization": "Bearer user-token"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.post(t, "/api/v1/contests/publish", `{"title":"Spring","description":"Win"}`, adminHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	status, _ = env.post(t, "/api/v1/contests/publish", `{not json`, adminHeader)
	assert.Equal(t, http.StatusBadRequest, status)

	assert.Empty(t, env.telegram.methods())
}

func TestPublish_MissingBotToken(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Telegram.BotToken = "" })

	status, body := env.post(t, "/api/v1/contests/publish", `{"title":"a","description":"b","prize":"c"}`, adminHeader)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "CONFIGURATION_ERROR", body["code"])
}

func TestPublish_ChannelNotConfigured(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Telegram.ChannelID = "" })

	status, _ := env.post(t, "/api/v1/contests/publish", `{"title":"a","description":"b","prize":"c"}`, adminHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, env.telegram.methods())
}

func TestPublish_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.telegram.respond("sendMessage", `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)

	status, body := env.post(t, "/api/v1/contests/publish", `{"title":"a","description":"b","prize":"c"}`, adminHeader)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Bad Request: chat not found", body["error"])
	assert.Equal(t, "TELEGRAM_API_ERROR", body["code"])
}

func TestWebhook_RoutesDeepLink(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.post(t, "/api/v1/telegram/webhook",
		`{"update_id":1,"message":{"message_id":3,"date":0,"chat":{"id":777,"type":"private"},"text":"/start contest_42"}}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"success": true, "message_sent": true}, body)

	require.Equal(t, []string{"sendMessage"}, env.telegram.methods())
	call := env.telegram.call(0)
	assert.Equal(t, "777", call.Body["chat_id"])
	markup := call.Body["reply_markup"].(map[string]interface{})
	button := markup["inline_keyboard"].([]interface{})[0].([]interface{})[0].(map[string]interface{})
	webApp := button["web_app"].(map[string]interface{})
	assert.Equal(t, "https://app.example.com/telegram-webapp/contest-participation?contestId=42", webApp["url"])
}

func TestWebhook_NoAction(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, text := range []string{"/start foo", "/start"} {
		status, body := env.post(t, "/api/v1/telegram/webhook",
			`{"update_id":1,"message":{"message_id":3,"date":0,"chat":{"id":777,"type":"private"},"text":"`+text+`"}}`, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, noActionMessage, body["message"])
	}
	assert.Empty(t, env.telegram.methods())
}

func TestWebhook_SendFailureStillAcknowledged(t *testing.T) {
	env := newTestEnv(t, nil)
	env.telegram.respond("sendMessage", `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`)

	status, body := env.post(t, "/api/v1/telegram/webhook",
		`{"update_id":1,"message":{"message_id":3,"date":0,"chat":{"id":777,"type":"private"},"text":"/start contest_42"}}`, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["message_sent"])
}

func TestWebhook_Failures(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _ := env.post(t, "/api/v1/telegram/webhook", `{"update_id":`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	env = newTestEnv(t, func(cfg *config.Config) { cfg.Telegram.ProjectDomain = "" })
	status, _ = env.post(t, "/api/v1/telegram/webhook", `{"update_id":1}`, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
}

func TestWebhook_SecretMismatchIgnored(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Telegram.WebhookSecret = "s3cret" })
	update := `{"update_id":1,"message":{"message_id":3,"date":0,"chat":{"id":777,"type":"private"},"text":"/start contest_42"}}`

	status, body := env.post(t, "/api/v1/telegram/webhook", update, map[string]string{"X-Telegram-Bot-Api-Secret-Token": "wrong"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, noActionMessage, body["message"])
	assert.Empty(t, env.telegram.methods())

	status, body = env.post(t, "/api/v1/telegram/webhook", update, map[string]string{"X-Telegram-Bot-Api-Secret-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["message_sent"])
}

func TestVerifyCondition(t *testing.T) {
	env := newTestEnv(t, nil)
	env.telegram.respond("getChatMember", `{"ok":true,"result":{"status":"creator","user":{"id":9,"is_bot":false,"first_name":"A"}}}`)

	status, body := env.post(t, "/api/v1/contests/conditions/verify",
		`{"conditionType":"join","targetLink":"https://t.me/news","telegramUserId":9}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"met": true}, body)
	assert.Equal(t, "@news", env.telegram.call(0).Body["chat_id"])

	env.telegram.respond("getChatMember", `{"ok":false,"error_code":400,"description":"Bad Request: user not found"}`)
	status, body = env.post(t, "/api/v1/contests/conditions/verify",
		`{"conditionType":"subscribe","targetLink":"@news","telegramUserId":9}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"met": false}, body)

	status, _ = env.post(t, "/api/v1/contests/conditions/verify",
		`{"conditionType":"boost","targetLink":"@news","telegramUserId":9}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.post(t, "/api/v1/contests/conditions/verify",
		`{"conditionType":"join","targetLink":"@news","telegramUserId":"9"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSyncCount(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	require.NoError(t, env.store.SaveContest(ctx, &contest.Contest{
		ID: "c1", Title: "Spring", ButtonText: "Participate", ButtonURL: "https://t.me/bot?start=contest_c1",
	}))

	status, body := env.post(t, "/api/v1/contests/sync", `{"contest_id":"c1"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["message"], "telegram_message_id")

	require.NoError(t, env.store.MarkPublished(ctx, "c1", contest.MessageCoordinates{ChatID: -100123, MessageID: 55}))
	for _, user := range []string{"u1", "u2", "u3"} {
		require.NoError(t, env.store.AddParticipant(ctx, contest.Participant{ContestID: "c1", ParticipantID: user}))
	}

	status, body = env.post(t, "/api/v1/contests/sync", `{"contest_id":"c1"}`, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["participant_count"])
	assert.Equal(t, "Participate (3)", body["button_text"])
	assert.Equal(t, []string{"editMessageReplyMarkup"}, env.telegram.methods())

	status, _ = env.post(t, "/api/v1/contests/sync", `{"contest_id":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.post(t, "/api/v1/contests/sync", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	env.telegram.respond("editMessageReplyMarkup", `{"ok":false,"error_code":400,"description":"Bad Request: message to edit not found"}`)
	status, body = env.post(t, "/api/v1/contests/sync", `{"contest_id":"c1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Bad Request: message to edit not found", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, env.server.URL+"/api/v1/contests/sync", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
