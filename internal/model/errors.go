package model

import "errors"

var (
	ErrSessionDoesNotExist      = errors.New("session does not exist")
	ErrTelegramChatDoesNotExist = errors.New("telegram chat does not exist")
)
