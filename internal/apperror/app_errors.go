package apperror

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrInvalidRequest    = errors.New("invalid request")
)
