package boxes

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const joinCodeBytes = 8

// NewJoinCode returns a URL-safe code built from 8 random bytes.
func NewJoinCode() (string, error) {
	buf := make([]byte, joinCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// InviteLink builds the deep link that opens the bot with /start <code>.
func InviteLink(botUsername, code string) string {
	name := strings.TrimPrefix(strings.TrimSpace(botUsername), "@")
	return "https://t.me/" + name + "?start=" + code
}
