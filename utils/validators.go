// File: /utils/validators.go
package utils

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+\-]{3,150}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9]{6,14}$`)
)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidUsername accepts 3 to 150 letters, digits and @.+-_
func IsValidUsername(username string) bool {
	return usernameRegex.MatchString(username)
}

// IsValidPhoneNumber accepts an optional leading + and up to 15 characters
func IsValidPhoneNumber(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// IsValidPassword requires at least 8 characters that are not all digits
func IsValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}

	for _, char := range password {
		if !unicode.IsDigit(char) {
			return true
		}
	}
	return false
}

// TooLong reports whether s has more than max characters
func TooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
