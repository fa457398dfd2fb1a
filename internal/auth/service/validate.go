package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field limits mirror the column sizes of the users table.
const (
	MaxUsernameLength = 64
	MaxEmailLength    = 120
	MaxAboutMeLength  = 140
	MaxPasswordLength = 1024
)

const (
	msgRequired        = "This field is required."
	msgInvalidEmail    = "Invalid email address."
	msgPasswordsDiffer = "Field must be equal to password."

	MsgUsernameTaken = "Please use a different username."
	MsgEmailTaken    = "Please use a different email address."
)

// RegistrationInput is the data a new identity is created from.
type RegistrationInput struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// ProfileInput carries a partial profile edit. Nil fields are left as they are.
type ProfileInput struct {
	Username *string
	Email    *string
	AboutMe  *string
}

func ValidateLogin(username, password string) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(username) == "" {
		errs.add("username", msgRequired)
	}
	if password == "" {
		errs.add("password", msgRequired)
	}
	return errs
}

func ValidateRegistration(in RegistrationInput) ValidationErrors {
	var errs ValidationErrors
	validateUsername(&errs, in.Username)
	validateEmail(&errs, in.Email)
	validateNewPassword(&errs, in.Password, in.Password2)
	return errs
}

func ValidateProfile(in ProfileInput) ValidationErrors {
	var errs ValidationErrors
	if in.Username != nil {
		validateUsername(&errs, *in.Username)
	}
	if in.Email != nil {
		validateEmail(&errs, *in.Email)
	}
	if in.AboutMe != nil && utf8.RuneCountInString(*in.AboutMe) > MaxAboutMeLength {
		errs.add("about_me", lengthMessage(0, MaxAboutMeLength))
	}
	return errs
}

func ValidateResetRequest(email string) ValidationErrors {
	var errs ValidationErrors
	validateEmail(&errs, email)
	return errs
}

func ValidateResetPassword(password, password2 string) ValidationErrors {
	var errs ValidationErrors
	validateNewPassword(&errs, password, password2)
	return errs
}

func validateUsername(errs *ValidationErrors, username string) {
	switch {
	case strings.TrimSpace(username) == "":
		errs.add("username", msgRequired)
	case utf8.RuneCountInString(username) > MaxUsernameLength:
		errs.add("username", lengthMessage(1, MaxUsernameLength))
	}
}

func validateEmail(errs *ValidationErrors, email string) {
	if strings.TrimSpace(email) == "" {
		errs.add("email", msgRequired)
		return
	}
	if len(email) > MaxEmailLength || !isEmail(email) {
		errs.add("email", msgInvalidEmail)
	}
}

func validateNewPassword(errs *ValidationErrors, password, password2 string) {
	if password == "" {
		errs.add("password", msgRequired)
	} else if len(password) > MaxPasswordLength {
		errs.add("password", lengthMessage(1, MaxPasswordLength))
	}
	switch {
	case password2 == "":
		errs.add("password2", msgRequired)
	case password2 != password:
		errs.add("password2", msgPasswordsDiffer)
	}
}

// isEmail accepts a bare addr-spec with a dotted domain, no display name.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func lengthMessage(lo, hi int) string {
	return fmt.Sprintf("Field must be between %d and %d characters long.", lo, hi)
}
