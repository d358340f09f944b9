package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"streamie/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// SessionTimeLayout is the form and display format of session times.
const SessionTimeLayout = "02.01.2006 15:04:05"

// UsernameRegex validates usernames
var UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// ValidateUsername validates username
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if utf8.RuneCountInString(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, _, -, . allowed)")
	}
	return nil
}

// ValidateRole accepts the three account roles, exactly as stored.
func ValidateRole(role string) error {
	switch role {
	case "ADMIN", "MODERATOR", "USER":
		return nil
	default:
		return fmt.Errorf("invalid role %q (must be ADMIN, MODERATOR or USER)", role)
	}
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ParseSessionTime parses a form time in SessionTimeLayout as UTC.
func ParseSessionTime(s string) (time.Time, error) {
	t, err := utils.ParseTimeUTC(SessionTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected DD.MM.YYYY HH:MM:SS)", s)
	}
	return t, nil
}

// RegisterTags adds the sessiontime, role, username and httpurl tags to v, for
// use in gin binding structs.
func RegisterTags(v *validator.Validate) error {
	tags := map[string]func(string) error{
		"sessiontime": func(s string) error { _, err := ParseSessionTime(s); return err },
		"role":        ValidateRole,
		"username":    ValidateUsername,
		"httpurl":     ValidateURL,
	}
	for tag, check := range tags {
		check := check
		err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			// optional fields are left to omitempty/required
			if s == "" {
				return true
			}
			return check(s) == nil
		})
		if err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
