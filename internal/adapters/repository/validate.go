package repository

import (
	"errors"
	"fmt"

	"github.com/okian/rallylog/internal/domain/model"
	"github.com/okian/rallylog/internal/domain/sequencer"
	"gorm.io/gorm"
)

func invalid(field, msg string) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, &model.FieldError{Field: field, Message: msg})
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, sequencer.ErrNotFound)
}

func isInvalid(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, sequencer.ErrInvalidInput)
}
