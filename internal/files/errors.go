package files

import (
	"errors"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrFileTooLarge  = errors.New("file exceeds the maximum upload size")
	ErrStorageWrite  = errors.New("failed to write file to storage")
	ErrMetadataWrite = errors.New("failed to record file metadata")
	ErrInvalidKey    = errors.New("invalid storage key")
)
