package identity

import (
	"fmt"
	"unicode"
)

// Error codes reported in validation.Error.Fields for register failures.
const (
	CodeInvalidEmail                    = "InvalidEmail"
	CodeDuplicateUserName               = "DuplicateUserName"
	CodePasswordTooShort                = "PasswordTooShort"
	CodePasswordRequiresDigit           = "PasswordRequiresDigit"
	CodePasswordRequiresLower           = "PasswordRequiresLower"
	CodePasswordRequiresUpper           = "PasswordRequiresUpper"
	CodePasswordRequiresNonAlphanumeric = "PasswordRequiresNonAlphanumeric"
)

const minPasswordLength = 6

type passwordRule struct {
	code    string
	message string
	ok      func(string) bool
}

var passwordRules = []passwordRule{
	{
		code:    CodePasswordTooShort,
		message: fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength),
		ok:      func(p string) bool { return len([]rune(p)) >= minPasswordLength },
	},
	{
		code:    CodePasswordRequiresNonAlphanumeric,
		message: "Passwords must have at least one non alphanumeric character.",
		ok: anyRune(func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}),
	},
	{
		code:    CodePasswordRequiresDigit,
		message: "Passwords must have at least one digit ('0'-'9').",
		ok:      anyRune(func(r rune) bool { return r >= '0' && r <= '9' }),
	},
	{
		code:    CodePasswordRequiresLower,
		message: "Passwords must have at least one lowercase ('a'-'z').",
		ok:      anyRune(unicode.IsLower),
	},
	{
		code:    CodePasswordRequiresUpper,
		message: "Passwords must have at least one uppercase ('A'-'Z').",
		ok:      anyRune(unicode.IsUpper),
	},
}

func anyRune(pred func(rune) bool) func(string) bool {
	return func(s string) bool {
		for _, r := range s {
			if pred(r) {
				return true
			}
		}
		return false
	}
}

// checkPassword returns every rule the password breaks, as code -> message.
func checkPassword(password string) map[string]string {
	broken := make(map[string]string)
	for _, rule := range passwordRules {
		if !rule.ok(password) {
			broken[rule.code] = rule.message
		}
	}
	return broken
}
