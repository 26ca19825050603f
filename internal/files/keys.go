package files

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewStorageKey builds the opaque blob key for an upload. The key is
// never derived from the user-supplied name beyond its extension, so a
// hostile filename cannot collide with or traverse over another object.
func NewStorageKey(originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" || !isSafeExt(ext) {
		ext = "bin"
	}

	return fmt.Sprintf("%d-%s.%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// ValidateStorageKey rejects anything that could not have come out of
// NewStorageKey before it reaches the blob store.
func ValidateStorageKey(key string) error {
	if key == "" || len(key) > 128 {
		return ErrInvalidKey
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, "/\\") {
		return ErrInvalidKey
	}
	return nil
}

func isSafeExt(ext string) bool {
	if len(ext) > 10 {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
