// Package validate holds small composable validators for inbound strings.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validator is a function that validates a string and returns an error if invalid
type Validator func(value string) error

// Field composes validators and prefixes the first error with the field name.
func Field(name string, validators ...Validator) Validator {
	check := Compose(validators...)
	return func(value string) error {
		if err := check(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

// Compose chains multiple validators, first error wins
func Compose(validators ...Validator) Validator {
	return func(value string) error {
		for _, v := range validators {
			if err := v(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Required ensures the field is not empty
func Required() Validator {
	return func(v string) error {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("this field is required")
		}
		return nil
	}
}

// MaxLength checks maximum length in runes
func MaxLength(max int) Validator {
	return func(v string) error {
		if utf8.RuneCountInString(v) > max {
			return fmt.Errorf("must be no more than %d characters", max)
		}
		return nil
	}
}

// Matches checks if value matches a regex
func Matches(pattern, message string) Validator {
	re := regexp.MustCompile(pattern)
	return func(v string) error {
		if !re.MatchString(v) {
			if message != "" {
				return fmt.Errorf("%s", message)
			}
			return fmt.Errorf("invalid format")
		}
		return nil
	}
}

// NoSpaces disallows whitespace
func NoSpaces() Validator {
	return Matches(`^\S+$`, "must not contain spaces")
}

// RoomCode accepts the short opaque codes generated by host clients.
func RoomCode() Validator {
	return Field("roomCode",
		Required(),
		MaxLength(64),
		NoSpaces(),
	)
}

// DisplayName accepts any printable name; names are not identities.
func DisplayName() Validator {
	return Field("userName",
		Required(),
		MaxLength(64),
		Matches(`^[^\x00-\x1f\x7f]+$`, "must not contain control characters"),
	)
}
