package store

import (
	"errors"
	"strings"

	"github.com/vanderheijden86/tend/pkg/model"
)

var (
	ErrNotFound       = errors.New("task not found")
	ErrParentNotFound = errors.New("parent task not found")
	ErrEmptyName      = model.ErrEmptyName
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
