package validation

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

const (
	// Bot API limits, counted in UTF-16 code units after entity parsing.
	MaxMessageLength = 4096
	MaxCaptionLength = 1024
)

// Required checks that value is non-empty after trimming.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

// TelegramLength returns the length of s the way Telegram counts it.
func TelegramLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// MaxTelegramLength checks s against a Bot API text limit.
func MaxTelegramLength(s string, max int) error {
	if n := TelegramLength(s); n > max {
		return fmt.Errorf("is %d characters long, Telegram allows at most %d", n, max)
	}
	return nil
}
