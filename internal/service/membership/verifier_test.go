package membership

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "contest-bot-backend/internal/common/errors"
)

type fakeMembers struct {
	status string
	err    error
	calls  []string
}

func (f *fakeMembers) GetChatMember(_ context.Context, chatID string, userID int64) (*tgbotapi.ChatMember, error) {
	f.calls = append(f.calls, fmt.Sprintf("%s/%d", chatID, userID))
	if f.err != nil {
		return nil, f.err
	}
	return &tgbotapi.ChatMember{Status: f.status}, nil
}

func TestVerify_StatusReduction(t *testing.T) {
	cases := map[string]bool{
		"member":        true,
		"administrator": true,
		"creator":       true,
		"left":          false,
		"kicked":        false,
		"restricted":    false,
	}
	for status, want := range cases {
		t.Run(status, func(t *testing.T) {
			members := &fakeMembers{status: status}
			v := NewVerifier(members, Options{})

			met, err := v.Verify(context.Background(), Request{ConditionType: ConditionSubscribe, TargetLink: "@news", TelegramUserID: 7})
			require.NoError(t, err)
			assert.Equal(t, want, met)
			assert.Equal(t, []string{"@news/7"}, members.calls)
		})
	}
}

func TestVerify_UpstreamFailureIsUnmet(t *testing.T) {
	v := NewVerifier(&fakeMembers{err: errors.New("dial tcp: connection refused")}, Options{})

	met, err := v.Verify(context.Background(), Request{ConditionType: ConditionJoin, TargetLink: "-1001234", TelegramUserID: 7})
	require.NoError(t, err)
	assert.False(t, met)
}

func TestVerify_ValidationErrors(t *testing.T) {
	members := &fakeMembers{status: "member"}
	v := NewVerifier(members, Options{})

	requests := []Request{
		{TargetLink: "@news", TelegramUserID: 7},
		{ConditionType: "follow", TargetLink: "@news", TelegramUserID: 7},
		{ConditionType: ConditionJoin, TelegramUserID: 7},
		{ConditionType: ConditionJoin, TargetLink: "@news"},
		{ConditionType: ConditionJoin, TargetLink: "https://example.com/x", TelegramUserID: 7},
	}
	for _, req := range requests {
		_, err := v.Verify(context.Background(), req)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok, "request %+v", req)
		assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	}
	assert.Empty(t, members.calls)
}

func TestVerify_RequiredInitDataMissing(t *testing.T) {
	members := &fakeMembers{status: "member"}
	v := NewVerifier(members, Options{BotToken: "token", RequireInitData: true})

	met, err := v.Verify(context.Background(), Request{ConditionType: ConditionJoin, TargetLink: "@news", TelegramUserID: 7})
	require.NoError(t, err)
	assert.False(t, met)
	assert.Empty(t, members.calls)
}

func TestVerify_InvalidInitData(t *testing.T) {
	members := &fakeMembers{status: "member"}
	v := NewVerifier(members, Options{BotToken: "token"})

	met, err := v.Verify(context.Background(), Request{
		ConditionType:  ConditionJoin,
		TargetLink:     "@news",
		TelegramUserID: 7,
		InitData:       "query_id=1&user=%7B%22id%22%3A7%7D&auth_date=1&hash=deadbeef",
	})
	require.NoError(t, err)
	assert.False(t, met)
	assert.Empty(t, members.calls)
}

func TestNormalizeTarget(t *testing.T) {
	cases := map[string]string{
		"@channel":                  "@channel",
		"-1001234567890":            "-1001234567890",
		"https://t.me/channel":      "@channel",
		"http://t.me/channel/":      "@channel",
		"t.me/channel":              "@channel",
		"https://t.me/channel/42":   "@channel",
		"https://telegram.me/group": "@group",
		"  channel  ":               "@channel",
	}
	for in, want := range cases {
		got, err := NormalizeTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "@", "https://t.me/", "https://example.com/channel"} {
		_, err := NormalizeTarget(bad)
		assert.Error(t, err, bad)
	}
}
