package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// URLButtonKeyboard is an inline keyboard with a single URL button.
func URLButtonKeyboard(text, url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(text, url)),
	)
}

// WebAppInfo describes a Mini App launched from a button.
type WebAppInfo struct {
	URL string `json:"url"`
}

// WebAppButton is an inline button opening a Mini App. Telegram only accepts
// it in private chats.
type WebAppButton struct {
	Text   string     `json:"text"`
	WebApp WebAppInfo `json:"web_app"`
}

// WebAppKeyboard is an inline keyboard of web_app buttons.
type WebAppKeyboard struct {
	InlineKeyboard [][]WebAppButton `json:"inline_keyboard"`
}

// WebAppButtonKeyboard is an inline keyboard with a single web_app button.
func WebAppButtonKeyboard(text, url string) WebAppKeyboard {
	return WebAppKeyboard{
		InlineKeyboard: [][]WebAppButton{{{Text: text, WebApp: WebAppInfo{URL: url}}}},
	}
}
