package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
)

const (
	MaxTitleLength        = 200
	MaxDescriptionLength  = 1000
	MaxStatusLength       = 50
	MaxCategoryNameLength = 50
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// requiredText trims s and checks it is between 1 and max characters.
func requiredText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return s, nil
}

func optionalText(field string, s *string, max int) error {
	if s != nil && utf8.RuneCountInString(*s) > max {
		return apperror.ValidationFailed(field, fmt.Sprintf("%s must be %d characters or less", field, max))
	}
	return nil
}

func validateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return apperror.ValidationFailed("cor", "cor must be a hex color like #RRGGBB")
	}
	return nil
}

// parseDate checks s is a calendar date in model.DateLayout.
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed(field, field+" must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// validateDueDate rejects malformed dates and dates before today (UTC).
func validateDueDate(s string, now time.Time) error {
	due, err := parseDate("data_vencimento", s)
	if err != nil {
		return err
	}
	today, _ := time.Parse(model.DateLayout, now.UTC().Format(model.DateLayout))
	if due.Before(today) {
		return apperror.ValidationFailed("data_vencimento", "data_vencimento cannot be in the past")
	}
	return nil
}
