package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	colorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

const dateLayout = "2006-01-02"

// ValidationError represents a validation error on one field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks a family, child or routine name
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: field, Message: "name is required"}
	}
	if len([]rune(name)) > 100 {
		return ValidationError{Field: field, Message: "name must be at most 100 characters"}
	}
	return nil
}

// ValidateClock checks an "HH:MM" wall-clock label. Empty means unbounded and is allowed.
func ValidateClock(field, clock string) error {
	if clock == "" {
		return nil
	}
	if !clockRegex.MatchString(clock) {
		return ValidationError{Field: field, Message: "time must be HH:MM"}
	}
	return nil
}

// ValidateWindow checks both bounds and that the window does not end before it starts
func ValidateWindow(start, end string) error {
	if err := ValidateClock("start", start); err != nil {
		return err
	}
	if err := ValidateClock("end", end); err != nil {
		return err
	}
	// zero-padded labels order lexically
	if start != "" && end != "" && end < start {
		return ValidationError{Field: "end", Message: "window must not end before it starts"}
	}
	return nil
}

// ValidateTimezone checks an IANA zone name
func ValidateTimezone(zone string) error {
	if strings.TrimSpace(zone) == "" {
		return ValidationError{Field: "timezone", Message: "timezone is required"}
	}
	if _, err := time.LoadLocation(zone); err != nil {
		return ValidationError{Field: "timezone", Message: "unknown timezone " + zone}
	}
	return nil
}

// ValidateDate checks a YYYY-MM-DD session date
func ValidateDate(date string) error {
	if _, err := time.Parse(dateLayout, date); err != nil {
		return ValidationError{Field: "date", Message: "date must be YYYY-MM-DD"}
	}
	return nil
}

// ValidateAvatarColor checks a #rrggbb color. Empty is allowed.
func ValidateAvatarColor(color string) error {
	if color == "" || colorRegex.MatchString(color) {
		return nil
	}
	return ValidationError{Field: "avatar_color", Message: "color must be #rrggbb"}
}

// ValidatePoints checks a task's point value
func ValidatePoints(points int) error {
	if points < 0 {
		return ValidationError{Field: "points", Message: "points must not be negative"}
	}
	return nil
}
