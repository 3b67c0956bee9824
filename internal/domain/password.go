package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordCheck is the structured outcome of validating a candidate password.
// Errors gate acceptance; Score is advisory strength feedback for the caller.
type PasswordCheck struct {
	IsValid bool
	Errors  []string
	Score   int
}

// Weights for the with-policy scoring branch. Disabled requirements simply do
// not contribute, so the reachable ceiling shrinks with the policy.
const (
	scoreLength    = 20
	scoreUppercase = 15
	scoreLowercase = 15
	scoreNumbers   = 15
	scoreSpecial   = 15
	scoreNoPattern = 10
	scoreNotReused = 10
)

// Weights for the degraded no-policy branch (min length 8, upper/lower/digit).
const (
	fallbackMinLength      = 8
	fallbackScoreLength    = 30
	fallbackScoreUppercase = 25
	fallbackScoreLowercase = 25
	fallbackScoreNumbers   = 20
)

var weakPatternWords = []string{"password", "qwerty", "admin"}

type passwordClasses struct {
	upper, lower, digit, special bool
}

func classify(password string) passwordClasses {
	var c passwordClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			c.special = true
		}
	}
	return c
}

// HasWeakPattern reports whether the candidate matches the fixed low-entropy
// deny-list: sequential digit runs, well-known words, or 3+ repeated characters.
func HasWeakPattern(password string) bool {
	lowered := strings.ToLower(password)
	for _, word := range weakPatternWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	if hasSequentialDigits(lowered, 3) {
		return true
	}
	return hasRepeatedRun(password, 3)
}

func hasSequentialDigits(s string, runLen int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] >= '1' && s[i] <= '9' && s[i] == s[i-1]+1 {
			run++
			if run >= runLen {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}

func hasRepeatedRun(s string, runLen int) bool {
	run := 1
	var prev rune
	for i, r := range s {
		if i > 0 && r == prev {
			run++
			if run >= runLen {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

// CheckPasswordFallback validates a candidate without any resolved policy.
// This is the defined degraded mode, not an error path.
func CheckPasswordFallback(password string) PasswordCheck {
	check := PasswordCheck{}
	classes := classify(password)

	if len(password) >= fallbackMinLength {
		check.Score += fallbackScoreLength
	} else {
		check.Errors = append(check.Errors, fmt.Sprintf("password must be at least %d characters", fallbackMinLength))
	}
	if classes.upper {
		check.Score += fallbackScoreUppercase
	} else {
		check.Errors = append(check.Errors, "password must contain an uppercase letter")
	}
	if classes.lower {
		check.Score += fallbackScoreLowercase
	} else {
		check.Errors = append(check.Errors, "password must contain a lowercase letter")
	}
	if classes.digit {
		check.Score += fallbackScoreNumbers
	} else {
		check.Errors = append(check.Errors, "password must contain a number")
	}

	check.IsValid = len(check.Errors) == 0
	return check
}

// CheckPasswordAgainstPolicy validates a candidate against a resolved policy.
// The reuse check needs password history and a slow hash, so it stays with the
// caller; reused=true appends the reuse error and withholds its weight.
func CheckPasswordAgainstPolicy(password string, policy PasswordPolicy, reused bool) PasswordCheck {
	check := PasswordCheck{}
	classes := classify(password)

	if len(password) >= policy.MinLength {
		check.Score += scoreLength
	} else {
		check.Errors = append(check.Errors, fmt.Sprintf("password must be at least %d characters", policy.MinLength))
	}
	if policy.RequireUppercase {
		if classes.upper {
			check.Score += scoreUppercase
		} else {
			check.Errors = append(check.Errors, "password must contain an uppercase letter")
		}
	}
	if policy.RequireLowercase {
		if classes.lower {
			check.Score += scoreLowercase
		} else {
			check.Errors = append(check.Errors, "password must contain a lowercase letter")
		}
	}
	if policy.RequireNumbers {
		if classes.digit {
			check.Score += scoreNumbers
		} else {
			check.Errors = append(check.Errors, "password must contain a number")
		}
	}
	if policy.RequireSpecialChars {
		if classes.special {
			check.Score += scoreSpecial
		} else {
			check.Errors = append(check.Errors, "password must contain a special character")
		}
	}

	if HasWeakPattern(password) {
		check.Errors = append(check.Errors, "password contains a common pattern and is too easy to guess")
	} else {
		check.Score += scoreNoPattern
	}

	if policy.PreventReuse > 0 {
		if reused {
			check.Errors = append(check.Errors, fmt.Sprintf("password matches one of your last %d passwords", policy.PreventReuse))
		} else {
			check.Score += scoreNotReused
		}
	}

	check.IsValid = len(check.Errors) == 0
	return check
}
