package messages

import (
	"errors"
)

var (
	ErrEmptyContent    = errors.New("message content is required")
	ErrMissingDevice   = errors.New("device id is required")
	ErrMessageNotFound = errors.New("message not found")
)
