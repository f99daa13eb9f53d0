package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shaiso/Admitto/internal/engine"
)

// emailPattern — допустимая форма email.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Форматы дат в payload.
const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// ValidateEmail проверяет email при создании пользователя и смене адреса.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

// ValidateFieldValue проверяет формат значения одного поля payload.
//
// Правило выбирается по имени поля: email, *date*, timestamp,
// passport_number, *name*, score. Для остальных полей строковое
// значение обязано быть непустым. Ошибка — ValidationError
// с ErrInvalidFieldValue внутри.
func ValidateFieldValue(field string, value any) error {
	switch {
	case field == "email":
		s, ok := value.(string)
		if !ok || !emailPattern.MatchString(s) {
			return invalidField(field, "Invalid email format.")
		}

	case strings.Contains(field, "date"):
		if !parsesAs(dateLayout, value) {
			return invalidField(field, "Date must be in YYYY-MM-DD format.")
		}

	case field == "timestamp":
		if !parsesAs(timestampLayout, value) {
			return invalidField(field, "Timestamp must be in YYYY-MM-DD HH:MM:SS format.")
		}

	case field == "passport_number":
		s, ok := value.(string)
		if !ok || !(allDigits(s) || allLetters(s)) {
			return invalidField(field, "Passport number must contain only digits.")
		}

	case strings.Contains(field, "name"):
		s, ok := value.(string)
		if !ok || !allLetters(s) {
			return invalidField(field, "Name fields must contain only alphabetic characters.")
		}

	case field == "score":
		score, err := toInt(value)
		if err != nil {
			return invalidField(field, "Score must be a valid integer between 0 and 100.")
		}
		if score < 0 || score > 100 {
			return invalidField(field, "Score must be between 0 and 100.")
		}

	default:
		if s, ok := value.(string); ok && s == "" {
			return invalidField(field, "Missing value for field - "+field)
		}
	}

	return nil
}

// invalidField оборачивает сообщение в ValidationError.
func invalidField(field, message string) error {
	return engine.NewValidationError("", "", field, message, engine.ErrInvalidFieldValue)
}

// parsesAs проверяет, что строковое значение разбирается по layout.
func parsesAs(layout string, value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(layout, s)
	return err == nil
}

// allDigits — непустая строка только из цифр.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// allLetters — непустая строка только из букв.
func allLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// toInt приводит значение score к целому.
// Строки разбираются через strconv, дробная часть чисел отбрасывается.
func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parse score: %w", err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("score has unsupported type %T", value)
	}
}
