package model

import "strings"

func ParseMessageSource(s string) (MessageSource, bool) {
	switch strings.ToLower(s) {
	case "user":
		return MessageSourceUser, true
	case "assistant", "model":
		return MessageSourceAssistant, true
	default:
		return "", false
	}
}
