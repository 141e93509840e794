package common

import (
	"errors"
	"fmt"
)

// Common error types used across filesystem packages
var (
	ErrPathEmpty         = errors.New("path cannot be empty")
	ErrSourceNotExist    = errors.New("source does not exist")
	ErrDestNotDirectory  = errors.New("destination is not a directory")
	ErrRemovalFailed     = errors.New("removal failed")
	ErrInvalidPermission = errors.New("invalid permission string")
	ErrInvalidOctal      = errors.New("invalid octal permission")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(message, args...), err)
}
